package models

import (
	"sort"
	"time"
)

// StatsSchemaVersion tags persisted UserStats records so older snapshots
// can be migrated field-wise on load.
const StatsSchemaVersion = 2

// HistoryCap bounds the per-variant outcome history.
const HistoryCap = 50

// UserStats is the durable per-(user, variant) aggregate record.
type UserStats struct {
	SchemaVersion     int           `json:"schema_version"`
	Variant           Variant       `json:"variant"`
	GamesPlayed       int           `json:"games_played"`
	GamesWon          int           `json:"games_won"`
	CurrentStreak     int           `json:"current_streak"`
	BestStreak        int           `json:"best_streak"`
	LastCompletedDate string        `json:"last_completed_date,omitempty"`
	BestTimeMs        int64         `json:"best_time_ms"`
	TotalTimeMs       int64         `json:"total_time_ms"`
	CompletedPuzzles  []string      `json:"completed_puzzles"`
	History           []GameOutcome `json:"history"`
	HintsUsedTotal    int           `json:"hints_used_total"`
	PerfectSolves     int           `json:"perfect_solves"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// NewUserStats returns an empty record for the variant.
func NewUserStats(variant Variant) *UserStats {
	return &UserStats{
		SchemaVersion: StatsSchemaVersion,
		Variant:       variant,
	}
}

// Completed reports whether the puzzle date has at least one solved outcome.
func (u *UserStats) Completed(date string) bool {
	i := sort.SearchStrings(u.CompletedPuzzles, date)
	return i < len(u.CompletedPuzzles) && u.CompletedPuzzles[i] == date
}

// MarkCompleted adds the puzzle date to the completed set, keeping the
// set sorted. Adding an already-present date is a no-op.
func (u *UserStats) MarkCompleted(date string) {
	i := sort.SearchStrings(u.CompletedPuzzles, date)
	if i < len(u.CompletedPuzzles) && u.CompletedPuzzles[i] == date {
		return
	}
	u.CompletedPuzzles = append(u.CompletedPuzzles, "")
	copy(u.CompletedPuzzles[i+1:], u.CompletedPuzzles[i:])
	u.CompletedPuzzles[i] = date
}

// AppendHistory records an outcome, truncating to the most recent HistoryCap.
func (u *UserStats) AppendHistory(outcome GameOutcome) {
	u.History = append(u.History, outcome)
	if len(u.History) > HistoryCap {
		u.History = u.History[len(u.History)-HistoryCap:]
	}
}

// Clone returns a deep copy whose slices share no backing arrays with
// the receiver, safe to hand to another goroutine.
func (u *UserStats) Clone() UserStats {
	out := *u
	out.CompletedPuzzles = append([]string(nil), u.CompletedPuzzles...)
	out.History = append([]GameOutcome(nil), u.History...)
	return out
}

// AverageTimeMs returns the mean solve time across won games, or 0.
func (u *UserStats) AverageTimeMs() int64 {
	if u.GamesWon == 0 {
		return 0
	}
	return u.TotalTimeMs / int64(u.GamesWon)
}
