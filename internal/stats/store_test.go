package stats

import (
	"context"
	"math/rand"
	"testing"

	"reelplay/internal/models"
	"reelplay/internal/storage"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store := New(models.VariantEmojiPair, "anon:test-device", storage.NewMemoryStore(), nil, nil)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	return store
}

func win(date string, timeMs int64) models.GameOutcome {
	return models.GameOutcome{
		Variant:    models.VariantEmojiPair,
		PuzzleDate: date,
		Won:        true,
		TimeMs:     timeMs,
	}
}

func loss(date string) models.GameOutcome {
	return models.GameOutcome{
		Variant:    models.VariantEmojiPair,
		PuzzleDate: date,
		Won:        false,
		TimeMs:     30000,
		Mistakes:   4,
	}
}

func TestSnapshotIsDeepCopy(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	if _, err := store.Apply(ctx, win("2025-11-05", 40000), "2025-11-05"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	snap := store.Snapshot()
	snap.CompletedPuzzles[0] = "0000-00-00"
	snap.History[0].TimeMs = -1

	record := store.Snapshot()
	if record.CompletedPuzzles[0] != "2025-11-05" {
		t.Errorf("CompletedPuzzles[0] = %q, snapshot mutation leaked into the store", record.CompletedPuzzles[0])
	}
	if record.History[0].TimeMs != 40000 {
		t.Errorf("History[0].TimeMs = %d, snapshot mutation leaked into the store", record.History[0].TimeMs)
	}
}

func TestApplyWinThenReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	today := "2025-11-05"

	delta, err := store.Apply(ctx, win(today, 60000), today)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !delta.FirstCompletionOfDate || delta.Replay {
		t.Errorf("first delta = %+v", delta)
	}
	if delta.NewCurrentStreak != 1 || delta.NewBestStreak != 1 {
		t.Errorf("first delta streaks = %+v", delta)
	}

	// The player replays the same date with a faster time. Counters and
	// streaks must not move; only history records the replay.
	delta, err = store.Apply(ctx, win(today, 40000), today)
	if err != nil {
		t.Fatalf("replay Apply: %v", err)
	}
	if !delta.Replay || delta.FirstCompletionOfDate {
		t.Errorf("replay delta = %+v", delta)
	}

	record := store.Snapshot()
	if record.GamesPlayed != 1 || record.GamesWon != 1 {
		t.Errorf("counters after replay = %d played / %d won, want 1/1", record.GamesPlayed, record.GamesWon)
	}
	if record.CurrentStreak != 1 || record.BestStreak != 1 {
		t.Errorf("streaks after replay = %d/%d, want 1/1", record.CurrentStreak, record.BestStreak)
	}
	if record.BestTimeMs != 60000 {
		t.Errorf("best time after replay = %d, want unchanged 60000", record.BestTimeMs)
	}
	if len(record.History) != 2 {
		t.Errorf("history length = %d, want 2", len(record.History))
	}
}

func TestApplyConsecutiveWinsExtendStreak(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Apply(ctx, win("2025-11-04", 90000), "2025-11-04"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	delta, err := store.Apply(ctx, win("2025-11-05", 45000), "2025-11-05")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if delta.NewCurrentStreak != 2 || delta.NewBestStreak != 2 {
		t.Errorf("delta = %+v, want streak 2", delta)
	}
	if delta.NewBestTimeMs != 45000 {
		t.Errorf("NewBestTimeMs = %d, want 45000", delta.NewBestTimeMs)
	}

	record := store.Snapshot()
	if record.LastCompletedDate != "2025-11-05" {
		t.Errorf("LastCompletedDate = %q", record.LastCompletedDate)
	}
	if record.TotalTimeMs != 135000 {
		t.Errorf("TotalTimeMs = %d", record.TotalTimeMs)
	}
}

func TestArchiveWinFillsGap(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	today := "2025-11-05"

	for _, date := range []string{"2025-11-03", "2025-11-05"} {
		if _, err := store.Apply(ctx, win(date, 60000), today); err != nil {
			t.Fatalf("Apply(%s): %v", date, err)
		}
	}
	if got := store.Snapshot().CurrentStreak; got != 1 {
		t.Fatalf("streak with gap = %d, want 1", got)
	}

	// Solving the archived middle day joins the runs on both sides.
	if _, err := store.Apply(ctx, win("2025-11-04", 60000), today); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	record := store.Snapshot()
	if record.CurrentStreak != 3 {
		t.Errorf("streak after gap fill = %d, want 3", record.CurrentStreak)
	}
	if record.BestStreak != 3 {
		t.Errorf("best streak = %d, want 3", record.BestStreak)
	}
}

func TestApplyOrderInsensitive(t *testing.T) {
	dates := []string{"2025-11-01", "2025-11-02", "2025-11-03", "2025-11-04", "2025-11-05"}
	today := "2025-11-05"

	reference := newTestStore(t)
	for _, date := range dates {
		if _, err := reference.Apply(context.Background(), win(date, 60000), today); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	want := reference.Snapshot()

	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		shuffled := append([]string(nil), dates...)
		rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		store := newTestStore(t)
		for _, date := range shuffled {
			if _, err := store.Apply(context.Background(), win(date, 60000), today); err != nil {
				t.Fatalf("Apply: %v", err)
			}
		}
		got := store.Snapshot()
		if got.CurrentStreak != want.CurrentStreak || got.BestStreak != want.BestStreak ||
			got.GamesWon != want.GamesWon || got.LastCompletedDate != want.LastCompletedDate {
			t.Errorf("order %v converged to streak %d/%d, want %d/%d",
				shuffled, got.CurrentStreak, got.BestStreak, want.CurrentStreak, want.BestStreak)
		}
	}
}

func TestLossTodayBreaksStreak(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Apply(ctx, win("2025-11-03", 60000), "2025-11-03"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	delta, err := store.Apply(ctx, loss("2025-11-05"), "2025-11-05")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if delta.NewCurrentStreak != 0 {
		t.Errorf("streak after loss = %d, want 0", delta.NewCurrentStreak)
	}
	record := store.Snapshot()
	if record.GamesPlayed != 2 || record.GamesWon != 1 {
		t.Errorf("counters = %d/%d", record.GamesPlayed, record.GamesWon)
	}
}

func TestLossTodayKeepsStreakCoveredByYesterday(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Apply(ctx, win("2025-11-04", 60000), "2025-11-04"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// A failed attempt today does not erase yesterday's still-live streak;
	// the player can keep it by retrying (replay) or it erodes tomorrow.
	delta, err := store.Apply(ctx, loss("2025-11-05"), "2025-11-05")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if delta.NewCurrentStreak != 1 {
		t.Errorf("streak after covered loss = %d, want 1", delta.NewCurrentStreak)
	}
}

func TestArchiveLossLeavesStreakAlone(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	today := "2025-11-05"

	for _, date := range []string{"2025-11-04", "2025-11-05"} {
		if _, err := store.Apply(ctx, win(date, 60000), today); err != nil {
			t.Fatalf("Apply: %v", err)
		}
	}
	delta, err := store.Apply(ctx, loss("2025-10-20"), today)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if delta.NewCurrentStreak != 2 {
		t.Errorf("streak after archive loss = %d, want 2", delta.NewCurrentStreak)
	}
}

func TestReconcileZeroesStaleStreak(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	if _, err := store.Apply(ctx, win("2025-11-03", 60000), "2025-11-03"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	// Yesterday still covers the streak.
	if err := store.Reconcile(ctx, "2025-11-04"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if got := store.Snapshot().CurrentStreak; got != 1 {
		t.Errorf("streak on covered day = %d, want 1", got)
	}

	// Two days later it is stale.
	if err := store.Reconcile(ctx, "2025-11-05"); err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	record := store.Snapshot()
	if record.CurrentStreak != 0 {
		t.Errorf("stale streak = %d, want 0", record.CurrentStreak)
	}
	if record.BestStreak != 1 {
		t.Errorf("best streak eroded to %d, want 1", record.BestStreak)
	}
}

func TestApplyPersistsAcrossLoad(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()

	store := New(models.VariantEmojiPair, "anon:dev", local, nil, nil)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, err := store.Apply(ctx, win("2025-11-05", 60000), "2025-11-05"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	reloaded := New(models.VariantEmojiPair, "anon:dev", local, nil, nil)
	if err := reloaded.Load(ctx); err != nil {
		t.Fatalf("reload: %v", err)
	}
	record := reloaded.Snapshot()
	if record.GamesWon != 1 || record.CurrentStreak != 1 {
		t.Errorf("reloaded record = %+v", record)
	}
}

func TestLoadCorruptRecordStartsEmpty(t *testing.T) {
	ctx := context.Background()
	local := storage.NewMemoryStore()
	key := storage.StatsKey(models.VariantEmojiPair, "anon:dev")
	if err := local.Set(ctx, key, []byte("{not json")); err != nil {
		t.Fatalf("Set: %v", err)
	}

	store := New(models.VariantEmojiPair, "anon:dev", local, nil, nil)
	if err := store.Load(ctx); err != nil {
		t.Fatalf("Load: %v", err)
	}
	record := store.Snapshot()
	if record.GamesPlayed != 0 || record.SchemaVersion != models.StatsSchemaVersion {
		t.Errorf("record after corrupt load = %+v", record)
	}
}

func TestApplyRejectsImpossibleOutcomes(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	bad := win("2025-11-05", 60000)
	bad.Mistakes = 99
	if _, err := store.Apply(ctx, bad, "2025-11-05"); err == nil {
		t.Error("outcome with impossible mistakes accepted")
	}

	negative := win("2025-11-05", -1)
	if _, err := store.Apply(ctx, negative, "2025-11-05"); err == nil {
		t.Error("outcome with negative time accepted")
	}

	unknown := win("2025-11-05", 60000)
	unknown.Variant = "wordle"
	if _, err := store.Apply(ctx, unknown, "2025-11-05"); err == nil {
		t.Error("outcome for unknown variant accepted")
	}
}

func TestHintsAndPerfectAccounting(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	outcome := win("2025-11-05", 60000)
	outcome.HintsUsed = 2
	if _, err := store.Apply(ctx, outcome, "2025-11-05"); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	perfect := win("2025-11-06", 50000)
	perfect.Perfect = true
	if _, err := store.Apply(ctx, perfect, "2025-11-06"); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	record := store.Snapshot()
	if record.HintsUsedTotal != 2 {
		t.Errorf("HintsUsedTotal = %d, want 2", record.HintsUsedTotal)
	}
	if record.PerfectSolves != 1 {
		t.Errorf("PerfectSolves = %d, want 1", record.PerfectSolves)
	}
	if record.UpdatedAt.IsZero() {
		t.Error("UpdatedAt not set")
	}
	if got := record.AverageTimeMs(); got != 55000 {
		t.Errorf("AverageTimeMs = %d, want 55000", got)
	}
}
