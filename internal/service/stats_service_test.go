package service

import (
	"errors"
	"testing"

	"reelplay/internal/models"
)

type fakeStatsRows struct {
	rows map[string]*models.UserStats
}

func newFakeStatsRows() *fakeStatsRows {
	return &fakeStatsRows{rows: make(map[string]*models.UserStats)}
}

func (f *fakeStatsRows) Get(userID string, game models.Variant) (*models.UserStats, error) {
	record, ok := f.rows[userID+"|"+string(game)]
	if !ok {
		return nil, nil
	}
	snapshot := *record
	return &snapshot, nil
}

func (f *fakeStatsRows) Put(userID string, record *models.UserStats) error {
	snapshot := *record
	f.rows[userID+"|"+string(record.Variant)] = &snapshot
	return nil
}

func TestStatsPushCreatesRow(t *testing.T) {
	svc := NewStatsService(newFakeStatsRows())

	incoming := models.NewUserStats(models.VariantEmojiPair)
	incoming.GamesPlayed = 3
	incoming.GamesWon = 2

	merged, err := svc.Push("u1", models.VariantEmojiPair, incoming)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if merged.GamesPlayed != 3 || merged.GamesWon != 2 {
		t.Errorf("merged = %+v", merged)
	}

	stored, err := svc.Get("u1", models.VariantEmojiPair)
	if err != nil || stored == nil || stored.GamesPlayed != 3 {
		t.Errorf("Get = %+v, %v", stored, err)
	}
}

func TestStatsPushNeverShrinksRow(t *testing.T) {
	rows := newFakeStatsRows()
	svc := NewStatsService(rows)

	current := models.NewUserStats(models.VariantMini)
	current.GamesPlayed = 10
	current.GamesWon = 8
	current.BestStreak = 4
	current.BestTimeMs = 50000
	current.CompletedPuzzles = []string{"2025-11-04", "2025-11-05"}
	current.LastCompletedDate = "2025-11-05"
	if err := rows.Put("u1", current); err != nil {
		t.Fatal(err)
	}

	// A stale client pushes a smaller snapshot.
	stale := models.NewUserStats(models.VariantMini)
	stale.GamesPlayed = 4
	stale.GamesWon = 3
	stale.BestStreak = 2
	stale.BestTimeMs = 62000
	stale.CompletedPuzzles = []string{"2025-11-03"}
	stale.LastCompletedDate = "2025-11-03"

	merged, err := svc.Push("u1", models.VariantMini, stale)
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if merged.GamesPlayed != 10 || merged.GamesWon != 8 {
		t.Errorf("counters shrank: %+v", merged)
	}
	if merged.BestTimeMs != 50000 {
		t.Errorf("BestTimeMs = %d, want kept 50000", merged.BestTimeMs)
	}
	if len(merged.CompletedPuzzles) != 3 {
		t.Errorf("CompletedPuzzles = %v, want union", merged.CompletedPuzzles)
	}
}

func TestStatsPushValidation(t *testing.T) {
	svc := NewStatsService(newFakeStatsRows())

	if _, err := svc.Push("u1", models.VariantEmojiPair, nil); !errors.Is(err, ErrBadStatsPush) {
		t.Errorf("nil record = %v", err)
	}
	if _, err := svc.Push("u1", "wordle", models.NewUserStats("wordle")); !errors.Is(err, ErrBadStatsPush) {
		t.Errorf("unknown game = %v", err)
	}

	bad := models.NewUserStats(models.VariantEmojiPair)
	bad.GamesPlayed = 1
	bad.GamesWon = 2
	if _, err := svc.Push("u1", models.VariantEmojiPair, bad); !errors.Is(err, ErrBadStatsPush) {
		t.Errorf("wins above played = %v", err)
	}

	bad = models.NewUserStats(models.VariantEmojiPair)
	bad.CurrentStreak = 3
	bad.BestStreak = 1
	if _, err := svc.Push("u1", models.VariantEmojiPair, bad); !errors.Is(err, ErrBadStatsPush) {
		t.Errorf("current above best = %v", err)
	}
}

func TestStatsGetMissingRow(t *testing.T) {
	svc := NewStatsService(newFakeStatsRows())
	stored, err := svc.Get("nobody", models.VariantGrouping)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != nil {
		t.Errorf("stored = %+v, want nil", stored)
	}
}
