package models

// Variant identifies one of the daily puzzle games.
type Variant string

const (
	VariantEmojiPair Variant = "emoji-pair"
	VariantMini      Variant = "mini-crossword"
	VariantGrouping  Variant = "grouping"
)

// Valid reports whether v is a known game variant.
func (v Variant) Valid() bool {
	switch v {
	case VariantEmojiPair, VariantMini, VariantGrouping:
		return true
	}
	return false
}

// DisplayName returns the player-facing name of the game.
func (v Variant) DisplayName() string {
	switch v {
	case VariantEmojiPair:
		return "Reel Pairs"
	case VariantMini:
		return "Reel Mini"
	case VariantGrouping:
		return "Reel Connections"
	}
	return string(v)
}

// ScoringMode determines how a finished game is ranked.
type ScoringMode string

const (
	ScoreByTime            ScoringMode = "time"
	ScoreByTimeAndMistakes ScoringMode = "time+mistakes"
)
