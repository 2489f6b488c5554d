package session

import (
	"errors"
	"testing"
	"time"

	"reelplay/internal/models"
	"reelplay/internal/variant"
)

var t0 = time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC)

func at(ms int64) time.Time {
	return t0.Add(time.Duration(ms) * time.Millisecond)
}

func pairPuzzle() *models.PuzzleDescriptor {
	return &models.PuzzleDescriptor{
		Variant: models.VariantEmojiPair,
		Date:    "2025-11-05",
		Number:  127,
		Slots: []models.Slot{
			{Clue: "🦈🏖️", Answer: "Jaws"},
			{Clue: "👽📞", Answer: "ET, E.T."},
			{Clue: "🚢🧊", Answer: "Titanic"},
			{Clue: "🦖🏝️", Answer: "Jurassic Park"},
		},
	}
}

func pairSession(t *testing.T) *Session {
	t.Helper()
	s, err := New(variant.EmojiPair(), pairPuzzle())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func typeAnswer(t *testing.T, s *Session, slot int, answer string, now time.Time) {
	t.Helper()
	for _, ch := range answer {
		if err := s.InputLetter(slot, ch, now); err != nil {
			t.Fatalf("InputLetter(%d, %q): %v", slot, ch, err)
		}
	}
}

func TestNewRejectsMismatchedVariant(t *testing.T) {
	if _, err := New(variant.Mini(), pairPuzzle()); err == nil {
		t.Error("New accepted a puzzle for a different variant")
	}
	if _, err := New(variant.EmojiPair(), &models.PuzzleDescriptor{Variant: models.VariantEmojiPair, Date: "2025-11-05"}); err == nil {
		t.Error("New accepted a letter puzzle with no slots")
	}
}

func TestAutoStartOnFirstAction(t *testing.T) {
	s := pairSession(t)
	if s.Status() != StatusNotStarted {
		t.Fatalf("status = %s", s.Status())
	}
	if err := s.InputLetter(0, 'j', at(0)); err != nil {
		t.Fatalf("InputLetter: %v", err)
	}
	if s.Status() != StatusRunning {
		t.Errorf("status after first input = %s, want running", s.Status())
	}
	if got := s.Elapsed(at(5000)); got != 5000 {
		t.Errorf("Elapsed = %d, want 5000", got)
	}
}

func TestSolveEmitsOutcomeOnce(t *testing.T) {
	s := pairSession(t)
	var outcomes []models.GameOutcome
	s.OnOutcome(func(o models.GameOutcome) { outcomes = append(outcomes, o) })

	answers := []string{"jaws", "et", "titanic", "jurassic park"}
	for i, answer := range answers {
		typeAnswer(t, s, i, answer, at(int64(i)*10000))
		ok, err := s.CheckSlot(i, at(int64(i+1)*10000))
		if err != nil || !ok {
			t.Fatalf("CheckSlot(%d) = %v, %v", i, ok, err)
		}
	}

	if s.Status() != StatusSolved {
		t.Fatalf("status = %s, want solved", s.Status())
	}
	if len(outcomes) != 1 {
		t.Fatalf("outcome fired %d times, want exactly once", len(outcomes))
	}
	outcome := outcomes[0]
	if !outcome.Won || outcome.Variant != models.VariantEmojiPair || outcome.PuzzleDate != "2025-11-05" {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.TimeMs != 40000 {
		t.Errorf("outcome time = %d, want 40000", outcome.TimeMs)
	}
	if !outcome.Perfect {
		t.Error("clean solve should be perfect")
	}

	// The machine is read-only after the terminal transition.
	if err := s.InputLetter(0, 'x', at(50000)); !errors.Is(err, ErrNotRunning) {
		t.Errorf("input after solve = %v, want ErrNotRunning", err)
	}
}

func TestMistakesTerminateAtMax(t *testing.T) {
	s := pairSession(t)
	var outcome *models.GameOutcome
	s.OnOutcome(func(o models.GameOutcome) { outcome = &o })

	for i := 0; i < 4; i++ {
		typeAnswer(t, s, 0, "nope", at(int64(i)*1000))
		if ok, err := s.CheckSlot(0, at(int64(i)*1000)); ok || err != nil {
			t.Fatalf("CheckSlot = %v, %v", ok, err)
		}
		// Clear the slot for the next attempt.
		for s.Answer(0) != "" {
			if s.Status() != StatusRunning {
				break
			}
			if err := s.Backspace(0, at(int64(i)*1000)); err != nil {
				t.Fatalf("Backspace: %v", err)
			}
		}
	}

	if s.Status() != StatusFailed {
		t.Fatalf("status after max mistakes = %s, want failed", s.Status())
	}
	if outcome == nil || outcome.Won || outcome.Mistakes != 4 {
		t.Errorf("outcome = %+v", outcome)
	}
	if outcome.Perfect {
		t.Error("failed outcome marked perfect")
	}
}

func TestCheckRewritesToCanonicalAndLocks(t *testing.T) {
	s := pairSession(t)
	typeAnswer(t, s, 1, "et", at(0))
	ok, err := s.CheckSlot(1, at(1000))
	if err != nil || !ok {
		t.Fatalf("CheckSlot = %v, %v", ok, err)
	}
	if got := s.Answer(1); got != "ET" {
		t.Errorf("answer rewritten to %q, want canonical %q", got, "ET")
	}
	if !s.SlotCorrect(1) {
		t.Error("slot not marked correct")
	}
	if err := s.Backspace(1, at(2000)); !errors.Is(err, ErrInputRejected) {
		t.Errorf("backspace on solved slot = %v, want ErrInputRejected", err)
	}
}

func TestCheckEmptySlotRejected(t *testing.T) {
	s := pairSession(t)
	if _, err := s.CheckSlot(0, at(0)); !errors.Is(err, ErrInputRejected) {
		t.Errorf("CheckSlot on empty slot = %v, want ErrInputRejected", err)
	}
	if s.Mistakes() != 0 {
		t.Error("empty check charged a mistake")
	}
}

func TestHintUnlocksAfterFirstCorrect(t *testing.T) {
	s := pairSession(t)

	// Budget starts at one; spend it.
	if err := s.UseHint(0, at(0)); err != nil {
		t.Fatalf("UseHint: %v", err)
	}
	if err := s.UseHint(0, at(100)); !errors.Is(err, ErrNoHints) {
		t.Fatalf("second hint before unlock = %v, want ErrNoHints", err)
	}

	// First correct answer unlocks exactly one more.
	typeAnswer(t, s, 1, "et", at(200))
	if ok, err := s.CheckSlot(1, at(300)); !ok || err != nil {
		t.Fatalf("CheckSlot = %v, %v", ok, err)
	}
	if got := s.HintsUnlocked(); got != 2 {
		t.Fatalf("HintsUnlocked = %d, want 2", got)
	}
	if err := s.UseHint(0, at(400)); err != nil {
		t.Fatalf("hint after unlock: %v", err)
	}
	if err := s.UseHint(0, at(500)); !errors.Is(err, ErrNoHints) {
		t.Errorf("third hint = %v, want ErrNoHints", err)
	}

	// A second correct answer unlocks nothing more: the budget is capped.
	typeAnswer(t, s, 2, "titanic", at(600))
	if ok, err := s.CheckSlot(2, at(700)); !ok || err != nil {
		t.Fatalf("CheckSlot = %v, %v", ok, err)
	}
	if got := s.HintsUnlocked(); got != 2 {
		t.Errorf("HintsUnlocked after second correct = %d, want 2", got)
	}
}

func TestHintRevealsLockedPrefix(t *testing.T) {
	s := pairSession(t)
	if err := s.UseHint(0, at(0)); err != nil {
		t.Fatalf("UseHint: %v", err)
	}
	if got := s.Answer(0); got != "J" {
		t.Errorf("answer after hint = %q, want %q", got, "J")
	}
	if got := s.LockedPrefix(0); got != 1 {
		t.Errorf("LockedPrefix = %d, want 1", got)
	}
	// The revealed letter cannot be deleted.
	if err := s.Backspace(0, at(100)); !errors.Is(err, ErrInputRejected) {
		t.Errorf("backspace into locked prefix = %v, want ErrInputRejected", err)
	}
	// Typing continues after the prefix and the slot still checks out.
	typeAnswer(t, s, 0, "aws", at(200))
	if ok, err := s.CheckSlot(0, at(300)); !ok || err != nil {
		t.Errorf("CheckSlot = %v, %v", ok, err)
	}
}

func TestHintDisqualifiesPerfect(t *testing.T) {
	s := pairSession(t)
	if err := s.UseHint(0, at(0)); err != nil {
		t.Fatalf("UseHint: %v", err)
	}
	typeAnswer(t, s, 0, "aws", at(100))
	answers := []string{"", "et", "titanic", "jurassic park"}
	for i := 0; i < 4; i++ {
		if i > 0 {
			typeAnswer(t, s, i, answers[i], at(int64(i)*1000))
		}
		if ok, err := s.CheckSlot(i, at(int64(i)*1000+500)); !ok || err != nil {
			t.Fatalf("CheckSlot(%d) = %v, %v", i, ok, err)
		}
	}
	outcome := s.Outcome()
	if outcome == nil || !outcome.Won {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.Perfect {
		t.Error("solve with a hint marked perfect")
	}
	if outcome.HintsUsed != 1 {
		t.Errorf("HintsUsed = %d, want 1", outcome.HintsUsed)
	}
}

func TestElapsedClampsBackwardClock(t *testing.T) {
	s := pairSession(t)
	if err := s.Start(at(0)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if got := s.Elapsed(at(10000)); got != 10000 {
		t.Fatalf("Elapsed = %d", got)
	}
	// The wall clock jumps backwards; the timer must not shrink.
	if got := s.Elapsed(at(4000)); got != 10000 {
		t.Errorf("Elapsed after backwards jump = %d, want 10000", got)
	}
	// Time moving forward again resumes from the high-water mark.
	if got := s.Elapsed(at(12000)); got != 12000 {
		t.Errorf("Elapsed = %d, want 12000", got)
	}
}

func TestHardModeTimeoutClampsToLimit(t *testing.T) {
	rules := variant.EmojiPair().Hard(120000)
	s, err := New(rules, pairPuzzle())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var outcome *models.GameOutcome
	s.OnOutcome(func(o models.GameOutcome) { outcome = &o })

	if err := s.Start(at(0)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if status := s.Tick(at(119000)); status != StatusRunning {
		t.Fatalf("Tick before limit = %s", status)
	}
	// The host wakes late; the recorded time is the limit, not the
	// observed overshoot.
	if status := s.Tick(at(135500)); status != StatusFailed {
		t.Fatalf("Tick past limit = %s, want failed", status)
	}
	if outcome == nil || outcome.Won {
		t.Fatalf("outcome = %+v", outcome)
	}
	if outcome.TimeMs != 120000 {
		t.Errorf("outcome time = %d, want clamped 120000", outcome.TimeMs)
	}
	if got := s.Elapsed(at(200000)); got != 120000 {
		t.Errorf("Elapsed after timeout = %d, want frozen 120000", got)
	}
}

func TestHardModeRejectsHints(t *testing.T) {
	s, err := New(variant.EmojiPair().Hard(0), pairPuzzle())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := s.UseHint(0, at(0)); !errors.Is(err, ErrNoHints) {
		t.Errorf("UseHint in hard mode = %v, want ErrNoHints", err)
	}
}

func TestAbandonEmitsNoOutcome(t *testing.T) {
	s := pairSession(t)
	fired := false
	s.OnOutcome(func(models.GameOutcome) { fired = true })

	if err := s.Abandon(at(0)); !errors.Is(err, ErrNotRunning) {
		t.Fatalf("Abandon before start = %v, want ErrNotRunning", err)
	}
	if err := s.Start(at(0)); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := s.Abandon(at(30000)); err != nil {
		t.Fatalf("Abandon: %v", err)
	}
	if s.Status() != StatusAbandoned {
		t.Errorf("status = %s", s.Status())
	}
	if fired {
		t.Error("abandon fired an outcome")
	}
	if s.Outcome() != nil {
		t.Error("abandoned session has an outcome")
	}
	if got := s.Elapsed(at(99999)); got != 30000 {
		t.Errorf("Elapsed after abandon = %d, want frozen 30000", got)
	}
}

func TestInputBoundsAndOverflow(t *testing.T) {
	s := pairSession(t)
	if err := s.InputLetter(-1, 'a', at(0)); !errors.Is(err, ErrInputRejected) {
		t.Errorf("negative slot = %v", err)
	}
	if err := s.InputLetter(9, 'a', at(0)); !errors.Is(err, ErrInputRejected) {
		t.Errorf("out-of-range slot = %v", err)
	}
	typeAnswer(t, s, 0, "jaws", at(0))
	if err := s.InputLetter(0, 'x', at(0)); !errors.Is(err, ErrInputRejected) {
		t.Errorf("input past answer length = %v, want ErrInputRejected", err)
	}
}

func TestGroupingCallsRejectedOnLetterVariant(t *testing.T) {
	s := pairSession(t)
	if err := s.Select("Jaws", at(0)); !errors.Is(err, ErrWrongVariant) {
		t.Errorf("Select on letter variant = %v, want ErrWrongVariant", err)
	}
	if err := s.InputLetter(0, 'a', at(0)); err != nil {
		t.Fatalf("InputLetter: %v", err)
	}
}
