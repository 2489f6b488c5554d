// Package session drives a single puzzle attempt as a deterministic
// state machine. The machine never owns a scheduler: every mutating call
// takes the current time from the caller, so event ordering is exactly
// the order received and tests are fully deterministic.
package session

import (
	"fmt"
	"time"

	"reelplay/internal/models"
	"reelplay/internal/variant"
)

// Status is the lifecycle state of a session.
type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusRunning    Status = "running"
	StatusSolved     Status = "solved"
	StatusFailed     Status = "failed"
	StatusAbandoned  Status = "abandoned"
)

// Terminal reports whether the status is one of the end states.
func (s Status) Terminal() bool {
	return s == StatusSolved || s == StatusFailed || s == StatusAbandoned
}

// Session is one attempt at one puzzle for one variant. It is not safe
// for concurrent use; the host drives it from a single task queue.
type Session struct {
	rules  variant.Config
	puzzle *models.PuzzleDescriptor

	status    Status
	startedAt time.Time
	lastNow   time.Time
	frozenMs  int64

	// Letter-variant state. locked[i] is the length of the hint-revealed
	// prefix of slot i; those positions can never be edited.
	answers []string
	correct []bool
	locked  []int

	mistakes      int
	hintsUsed     int
	hintsUnlocked int

	group groupState

	outcome   *models.GameOutcome
	onOutcome func(models.GameOutcome)
}

// New creates a session at NotStarted for the given puzzle.
func New(rules variant.Config, puzzle *models.PuzzleDescriptor) (*Session, error) {
	if puzzle == nil {
		return nil, fmt.Errorf("nil puzzle")
	}
	if puzzle.Variant != rules.Tag {
		return nil, fmt.Errorf("puzzle variant %q does not match rules %q", puzzle.Variant, rules.Tag)
	}
	s := &Session{
		rules:         rules,
		puzzle:        puzzle,
		status:        StatusNotStarted,
		hintsUnlocked: rules.HintsUnlocked(0),
	}
	if rules.Tag == models.VariantGrouping {
		if len(puzzle.Groups) == 0 {
			return nil, fmt.Errorf("grouping puzzle has no groups")
		}
		s.group.init(puzzle)
	} else {
		if len(puzzle.Slots) == 0 {
			return nil, fmt.Errorf("puzzle has no slots")
		}
		s.answers = make([]string, len(puzzle.Slots))
		s.correct = make([]bool, len(puzzle.Slots))
		s.locked = make([]int, len(puzzle.Slots))
	}
	return s, nil
}

// OnOutcome registers the callback fired exactly once when the session
// reaches Solved or Failed. Abandoned sessions emit no outcome.
func (s *Session) OnOutcome(cb func(models.GameOutcome)) {
	s.onOutcome = cb
}

// Status returns the current lifecycle state.
func (s *Session) Status() Status { return s.status }

// Puzzle returns the descriptor the session was created with.
func (s *Session) Puzzle() *models.PuzzleDescriptor { return s.puzzle }

// Rules returns the variant rule set in effect.
func (s *Session) Rules() variant.Config { return s.rules }

// Mistakes returns the mistake count so far.
func (s *Session) Mistakes() int { return s.mistakes }

// HintsUsed returns how many hints have been spent.
func (s *Session) HintsUsed() int { return s.hintsUsed }

// HintsUnlocked returns the current hint budget.
func (s *Session) HintsUnlocked() int { return s.hintsUnlocked }

// Outcome returns the emitted outcome, or nil before a terminal
// transition (and always nil for abandoned sessions).
func (s *Session) Outcome() *models.GameOutcome { return s.outcome }

// Answer returns the current input for a letter slot.
func (s *Session) Answer(slot int) string {
	if slot < 0 || slot >= len(s.answers) {
		return ""
	}
	return s.answers[slot]
}

// SlotCorrect reports whether a letter slot has been answered.
func (s *Session) SlotCorrect(slot int) bool {
	return slot >= 0 && slot < len(s.correct) && s.correct[slot]
}

// LockedPrefix returns how many leading letters of the slot are
// hint-revealed and immutable.
func (s *Session) LockedPrefix(slot int) int {
	if slot < 0 || slot >= len(s.locked) {
		return 0
	}
	return s.locked[slot]
}

// Start transitions NotStarted to Running. Play actions start the
// session implicitly, so hosts only call this for an explicit start.
func (s *Session) Start(now time.Time) error {
	if s.status != StatusNotStarted {
		return ErrNotRunning
	}
	s.status = StatusRunning
	s.startedAt = now
	s.lastNow = now
	return nil
}

// ensureRunning auto-starts a NotStarted session on its first action.
func (s *Session) ensureRunning(now time.Time) error {
	switch s.status {
	case StatusNotStarted:
		return s.Start(now)
	case StatusRunning:
		s.observe(now)
		return nil
	default:
		return ErrNotRunning
	}
}

// observe clamps the time source so a clock moved backwards mid-session
// can never shrink the timer.
func (s *Session) observe(now time.Time) {
	if now.After(s.lastNow) {
		s.lastNow = now
	}
}

// Elapsed returns the milliseconds the session has been running, frozen
// on terminal transition and monotonic while running.
func (s *Session) Elapsed(now time.Time) int64 {
	switch s.status {
	case StatusNotStarted:
		return 0
	case StatusRunning:
		s.observe(now)
		return s.lastNow.Sub(s.startedAt).Milliseconds()
	default:
		return s.frozenMs
	}
}

// Tick samples the timer. In hard mode it enforces the time limit,
// failing the session with the elapsed time clamped to the limit.
func (s *Session) Tick(now time.Time) Status {
	if s.status != StatusRunning {
		return s.status
	}
	s.observe(now)
	if s.rules.HardMode && s.rules.TimeLimitMs > 0 && s.Elapsed(now) > s.rules.TimeLimitMs {
		s.frozenMs = s.rules.TimeLimitMs
		s.terminate(StatusFailed, now, true)
	}
	return s.status
}

// InputLetter appends a letter to a slot's answer. Input into a solved
// slot, past the answer length, or attempting to alter a locked position
// is rejected without a state change.
func (s *Session) InputLetter(slot int, ch rune, now time.Time) error {
	if err := s.letterGuard(slot, now); err != nil {
		return err
	}
	canonical := s.puzzle.Slots[slot].Canonical()
	if len([]rune(s.answers[slot])) >= len([]rune(canonical)) {
		return ErrInputRejected
	}
	s.answers[slot] += string(ch)
	return nil
}

// Backspace deletes the last letter of a slot, never touching the
// locked prefix.
func (s *Session) Backspace(slot int, now time.Time) error {
	if err := s.letterGuard(slot, now); err != nil {
		return err
	}
	runes := []rune(s.answers[slot])
	if len(runes) <= s.locked[slot] {
		return ErrInputRejected
	}
	s.answers[slot] = string(runes[:len(runes)-1])
	return nil
}

// CheckSlot compares the slot's input against its accepted answers. A
// mismatch charges a mistake and may fail the session; a match marks the
// slot correct, rewrites the input to the canonical form and recomputes
// the hint budget. Checking an empty slot is rejected.
func (s *Session) CheckSlot(slot int, now time.Time) (bool, error) {
	if err := s.letterGuard(slot, now); err != nil {
		return false, err
	}
	if variant.Normalize(s.answers[slot]) == "" {
		return false, ErrInputRejected
	}

	ok, canonical := variant.CheckAnswer(s.answers[slot], s.puzzle.Slots[slot])
	if !ok {
		s.chargeMistake(now)
		return false, nil
	}

	s.correct[slot] = true
	s.answers[slot] = canonical
	s.locked[slot] = len([]rune(canonical))
	s.hintsUnlocked = s.rules.HintsUnlocked(s.correctCount())
	if s.allCorrect() {
		s.terminate(StatusSolved, now, false)
	}
	return true, nil
}

// UseHint reveals the next letter of the slot's canonical answer into
// the locked prefix and spends one hint.
func (s *Session) UseHint(slot int, now time.Time) error {
	if err := s.letterGuard(slot, now); err != nil {
		return err
	}
	if s.hintsUsed >= s.hintsUnlocked {
		return ErrNoHints
	}
	canonical := []rune(s.puzzle.Slots[slot].Canonical())
	if s.locked[slot] >= len(canonical) {
		return ErrInputRejected
	}

	reveal := s.locked[slot] + 1
	runes := []rune(s.answers[slot])
	if len(runes) < reveal {
		runes = append(runes, make([]rune, reveal-len(runes))...)
	}
	copy(runes, canonical[:reveal])
	s.answers[slot] = string(runes)
	s.locked[slot] = reveal
	s.hintsUsed++
	return nil
}

// Abandon freezes the session without emitting an outcome. Permitted
// only from Running, when the host navigates away before a terminal.
func (s *Session) Abandon(now time.Time) error {
	if s.status != StatusRunning {
		return ErrNotRunning
	}
	s.frozenMs = s.Elapsed(now)
	s.status = StatusAbandoned
	return nil
}

func (s *Session) letterGuard(slot int, now time.Time) error {
	if s.rules.Tag == models.VariantGrouping {
		return ErrWrongVariant
	}
	if err := s.ensureRunning(now); err != nil {
		return err
	}
	if slot < 0 || slot >= len(s.puzzle.Slots) {
		return ErrInputRejected
	}
	if s.correct[slot] {
		return ErrInputRejected
	}
	return nil
}

func (s *Session) chargeMistake(now time.Time) {
	s.mistakes++
	if s.mistakes > s.rules.MaxMistakes {
		// Unreachable unless the machine itself is broken.
		panic(&InvariantError{
			Op:     "chargeMistake",
			Detail: "mistakes exceeded the variant maximum",
			Payload: map[string]any{
				"mistakes": s.mistakes,
				"max":      s.rules.MaxMistakes,
				"variant":  string(s.rules.Tag),
			},
		})
	}
	if s.mistakes == s.rules.MaxMistakes {
		s.terminate(StatusFailed, now, false)
	}
}

func (s *Session) correctCount() int {
	n := 0
	for _, c := range s.correct {
		if c {
			n++
		}
	}
	return n
}

func (s *Session) allCorrect() bool {
	if s.rules.Tag == models.VariantGrouping {
		return len(s.group.solved) == len(s.puzzle.Groups)
	}
	return s.correctCount() == len(s.correct)
}

// terminate freezes the timer and emits the single GameOutcome. When
// frozen is true the caller already fixed frozenMs (hard-mode clamp).
func (s *Session) terminate(to Status, now time.Time, frozen bool) {
	if !frozen {
		s.frozenMs = s.lastNow.Sub(s.startedAt).Milliseconds()
		if s.frozenMs < 0 {
			s.frozenMs = 0
		}
	}
	s.status = to

	outcome := models.GameOutcome{
		Variant:    s.rules.Tag,
		PuzzleDate: s.puzzle.Date,
		Won:        to == StatusSolved,
		TimeMs:     s.frozenMs,
		Mistakes:   s.mistakes,
		HintsUsed:  s.hintsUsed,
		Perfect:    to == StatusSolved && s.mistakes == 0 && s.hintsUsed == 0,
	}
	s.outcome = &outcome
	if s.onOutcome != nil {
		s.onOutcome(outcome)
	}
}
