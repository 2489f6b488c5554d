package session

import (
	"time"

	"reelplay/internal/models"
	"reelplay/internal/variant"
)

// Snapshot is the serializable form of a session, used to resume an
// interrupted attempt and to review a completed puzzle.
type Snapshot struct {
	Variant    models.Variant `json:"variant"`
	PuzzleDate string         `json:"puzzle_date"`
	Status     Status         `json:"status"`
	ElapsedMs  int64          `json:"elapsed_ms"`

	Answers []string `json:"answers,omitempty"`
	Correct []bool   `json:"correct,omitempty"`
	Locked  []int    `json:"locked,omitempty"`

	Selected     []string `json:"selected,omitempty"`
	SolvedGroups []string `json:"solved_groups,omitempty"`
	WrongGuesses []string `json:"wrong_guesses,omitempty"`
	HintedGroup  string   `json:"hinted_group,omitempty"`

	Mistakes      int `json:"mistakes"`
	HintsUsed     int `json:"hints_used"`
	HintsUnlocked int `json:"hints_unlocked"`

	Outcome *models.GameOutcome `json:"outcome,omitempty"`
}

// Snapshot captures the session at the given time.
func (s *Session) Snapshot(now time.Time) Snapshot {
	snap := Snapshot{
		Variant:       s.rules.Tag,
		PuzzleDate:    s.puzzle.Date,
		Status:        s.status,
		ElapsedMs:     s.Elapsed(now),
		Mistakes:      s.mistakes,
		HintsUsed:     s.hintsUsed,
		HintsUnlocked: s.hintsUnlocked,
		Outcome:       s.outcome,
	}
	if s.rules.Tag == models.VariantGrouping {
		snap.Selected = s.Selection()
		snap.SolvedGroups = s.SolvedGroups()
		for key := range s.group.guessed {
			snap.WrongGuesses = append(snap.WrongGuesses, key)
		}
		snap.HintedGroup = s.group.hintedID
	} else {
		snap.Answers = append([]string(nil), s.answers...)
		snap.Correct = append([]bool(nil), s.correct...)
		snap.Locked = append([]int(nil), s.locked...)
	}
	return snap
}

// Restore rebuilds a session from a snapshot. A running session resumes
// with its elapsed time preserved against the supplied clock; terminal
// sessions come back read-only.
func Restore(rules variant.Config, puzzle *models.PuzzleDescriptor, snap Snapshot, now time.Time) (*Session, error) {
	s, err := New(rules, puzzle)
	if err != nil {
		return nil, err
	}
	s.status = snap.Status
	s.mistakes = snap.Mistakes
	s.hintsUsed = snap.HintsUsed
	s.outcome = snap.Outcome

	if rules.Tag == models.VariantGrouping {
		s.group.selected = append([]string(nil), snap.Selected...)
		s.group.solved = append([]string(nil), snap.SolvedGroups...)
		for _, key := range snap.WrongGuesses {
			s.group.guessed[key] = true
		}
		s.group.hintedID = snap.HintedGroup
	} else {
		if len(snap.Answers) == len(s.answers) {
			copy(s.answers, snap.Answers)
		}
		if len(snap.Correct) == len(s.correct) {
			copy(s.correct, snap.Correct)
		}
		if len(snap.Locked) == len(s.locked) {
			copy(s.locked, snap.Locked)
		}
	}
	// The hint budget is a function of the correct mask, so it is
	// recomputed rather than trusted from the snapshot.
	s.hintsUnlocked = rules.HintsUnlocked(s.correctCount())

	switch snap.Status {
	case StatusRunning:
		s.startedAt = now.Add(-time.Duration(snap.ElapsedMs) * time.Millisecond)
		s.lastNow = now
	case StatusSolved, StatusFailed, StatusAbandoned:
		s.frozenMs = snap.ElapsedMs
	}
	return s, nil
}
