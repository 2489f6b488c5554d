package models

import "strings"

// PuzzleDescriptor is one day's puzzle for one variant. The content is
// opaque to the session core except for the solution fields.
type PuzzleDescriptor struct {
	Variant Variant `json:"variant"`
	Date    string  `json:"date"` // YYYY-MM-DD in the player's local calendar
	Number  int     `json:"number"`

	// Slots is set for the letter-entry variants (emoji-pair, mini).
	Slots []Slot `json:"slots,omitempty"`

	// Groups is set for the grouping variant.
	Groups []Group `json:"groups,omitempty"`
}

// Slot is a single answer position: a row in the emoji-pair game or a
// clue in the mini crossword.
type Slot struct {
	Clue string `json:"clue"`

	// Answer holds the accepted solution. Alternates are comma-separated;
	// the first entry is the canonical form used for share text and replay.
	Answer string `json:"answer"`
}

// Answers returns the accepted solutions for the slot, trimmed, in order.
func (s Slot) Answers() []string {
	parts := strings.Split(s.Answer, ",")
	answers := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			answers = append(answers, trimmed)
		}
	}
	return answers
}

// Canonical returns the canonical form of the slot's solution.
func (s Slot) Canonical() string {
	answers := s.Answers()
	if len(answers) == 0 {
		return ""
	}
	return answers[0]
}

// Group is one of the K groups in a grouping puzzle.
type Group struct {
	ID         string   `json:"id"`
	Clue       string   `json:"clue"`
	Difficulty int      `json:"difficulty"` // 1 = easiest
	Items      []string `json:"items"`
}
