package models

// GameOutcome is the terminal result of one puzzle attempt. A session
// emits exactly one outcome in its lifetime.
type GameOutcome struct {
	Variant    Variant `json:"variant"`
	PuzzleDate string  `json:"puzzle_date"`
	Won        bool    `json:"won"`
	TimeMs     int64   `json:"time_ms"`
	Mistakes   int     `json:"mistakes"`
	HintsUsed  int     `json:"hints_used"`
	Perfect    bool    `json:"perfect"`
}

// StatsDelta describes what changed when an outcome was folded into the
// user's statistics.
type StatsDelta struct {
	NewCurrentStreak int `json:"new_current_streak"`
	NewBestStreak    int `json:"new_best_streak"`

	// NewBestTimeMs is non-zero only when the outcome set a new best time.
	NewBestTimeMs int64 `json:"new_best_time_ms,omitempty"`

	// FirstCompletionOfDate is true when this win completed the puzzle
	// date for the first time; replays of an already-completed date leave
	// it false.
	FirstCompletionOfDate bool `json:"first_completion_of_date"`

	// Replay marks an idempotent re-completion of an already-solved date.
	Replay bool `json:"replay"`
}
