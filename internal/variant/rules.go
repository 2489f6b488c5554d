// Package variant holds the per-game rule sets shared by the session
// state machine. The machine itself is variant-agnostic; only the rules
// differ between the emoji-pair, mini and grouping games.
package variant

import (
	"fmt"

	"reelplay/internal/models"
)

// Config is the rule set for one game variant. Values are static
// configuration, never mutated by a session.
type Config struct {
	Tag         models.Variant
	MaxMistakes int
	Scoring     models.ScoringMode

	// InitialHints is the hint budget at the start of a puzzle.
	// HintUnlockAt lists correct-answer counts that each unlock one more
	// hint; MaxHints caps the total. The unlocked count is a pure
	// function of how many slots are correct.
	InitialHints int
	HintUnlockAt []int
	MaxHints     int

	// HardMode disables hints and, when TimeLimitMs is non-zero,
	// fails the session once the limit is reached.
	HardMode    bool
	TimeLimitMs int64

	// GroupSize is the selection size for the grouping game.
	GroupSize int
}

// EmojiPair returns the default rules for the emoji-pair game: the hint
// budget starts at one and a second hint unlocks at the first correct
// answer.
func EmojiPair() Config {
	return Config{
		Tag:          models.VariantEmojiPair,
		MaxMistakes:  4,
		Scoring:      models.ScoreByTime,
		InitialHints: 1,
		HintUnlockAt: []int{1},
		MaxHints:     2,
	}
}

// Mini returns the default rules for the mini crossword.
func Mini() Config {
	return Config{
		Tag:          models.VariantMini,
		MaxMistakes:  6,
		Scoring:      models.ScoreByTimeAndMistakes,
		InitialHints: 3,
		MaxHints:     3,
	}
}

// Grouping returns the default rules for the connections-style game:
// four mistakes, a single clue hint for the whole puzzle.
func Grouping() Config {
	return Config{
		Tag:          models.VariantGrouping,
		MaxMistakes:  4,
		Scoring:      models.ScoreByTimeAndMistakes,
		InitialHints: 1,
		MaxHints:     1,
		GroupSize:    4,
	}
}

// ForTag returns the default rules for a variant tag.
func ForTag(tag models.Variant) (Config, error) {
	switch tag {
	case models.VariantEmojiPair:
		return EmojiPair(), nil
	case models.VariantMini:
		return Mini(), nil
	case models.VariantGrouping:
		return Grouping(), nil
	}
	return Config{}, fmt.Errorf("unknown variant %q", tag)
}

// Hard derives a hard-mode rule set: no hints, optional time limit.
func (c Config) Hard(timeLimitMs int64) Config {
	c.HardMode = true
	c.TimeLimitMs = timeLimitMs
	c.InitialHints = 0
	c.HintUnlockAt = nil
	c.MaxHints = 0
	return c
}

// HintsUnlocked computes the hint budget available after correctCount
// slots have been answered. Pure; recomputed after every successful check
// so unlock events are observable.
func (c Config) HintsUnlocked(correctCount int) int {
	if c.HardMode {
		return 0
	}
	unlocked := c.InitialHints
	for _, threshold := range c.HintUnlockAt {
		if correctCount >= threshold {
			unlocked++
		}
	}
	if unlocked > c.MaxHints {
		unlocked = c.MaxHints
	}
	return unlocked
}
