package repository

import (
	"fmt"
	"path/filepath"
	"testing"

	"reelplay/internal/database"
	"reelplay/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Initialize(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := db.RunMigrations(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func seedUser(t *testing.T, db *database.DB, id, username string) {
	t.Helper()
	users := NewUserRepository(db)
	err := users.CreateUser(&models.User{
		ID:           id,
		Email:        username + "@example.com",
		Username:     username,
		PasswordHash: "x",
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
}

func TestUpsertDailyKeepsFasterScore(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "casey")
	repo := NewLeaderboardRepository(db)

	changed, err := repo.UpsertDaily("u1", models.VariantEmojiPair, "2025-11-05", 45, 1)
	if err != nil || !changed {
		t.Fatalf("first upsert = %v, %v", changed, err)
	}

	// A slower time is accepted silently and changes nothing.
	changed, err = repo.UpsertDaily("u1", models.VariantEmojiPair, "2025-11-05", 60, 0)
	if err != nil {
		t.Fatalf("worse upsert: %v", err)
	}
	if changed {
		t.Error("worse score reported as a change")
	}
	rank, entry, err := repo.DailyRank("u1", models.VariantEmojiPair, "2025-11-05")
	if err != nil {
		t.Fatalf("DailyRank: %v", err)
	}
	if entry.Score != 45 || entry.Metadata.Mistakes != 1 {
		t.Errorf("stored entry = %+v, want the faster 45s kept", entry)
	}
	if rank != 1 {
		t.Errorf("rank = %d", rank)
	}

	// Equal score: also a silent no-op.
	changed, err = repo.UpsertDaily("u1", models.VariantEmojiPair, "2025-11-05", 45, 0)
	if err != nil || changed {
		t.Errorf("equal upsert = %v, %v, want no-op", changed, err)
	}

	// A faster time replaces the row.
	changed, err = repo.UpsertDaily("u1", models.VariantEmojiPair, "2025-11-05", 30, 2)
	if err != nil || !changed {
		t.Fatalf("faster upsert = %v, %v", changed, err)
	}
	_, entry, _ = repo.DailyRank("u1", models.VariantEmojiPair, "2025-11-05")
	if entry.Score != 30 || entry.Metadata.Mistakes != 2 {
		t.Errorf("entry after improvement = %+v", entry)
	}
}

func TestDailyBoardOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewLeaderboardRepository(db)

	scores := []struct {
		user     string
		score    int
		mistakes int
	}{
		{"u1", 45, 2},
		{"u2", 30, 0},
		{"u3", 45, 0},
		{"u4", 90, 3},
	}
	for i, s := range scores {
		seedUser(t, db, s.user, fmt.Sprintf("player%d", i+1))
		if _, err := repo.UpsertDaily(s.user, models.VariantMini, "2025-11-05", s.score, s.mistakes); err != nil {
			t.Fatalf("seed score: %v", err)
		}
	}

	entries, err := repo.DailyBoard(models.VariantMini, "2025-11-05", 3)
	if err != nil {
		t.Fatalf("DailyBoard: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// Fastest first; equal times break on fewer mistakes.
	wantOrder := []string{"u2", "u3", "u1"}
	for i, want := range wantOrder {
		if entries[i].UserID != want {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].UserID, want)
		}
		if entries[i].Rank != i+1 {
			t.Errorf("entries[%d].Rank = %d", i, entries[i].Rank)
		}
	}

	// The off-page user still gets a rank.
	rank, _, err := repo.DailyRank("u4", models.VariantMini, "2025-11-05")
	if err != nil {
		t.Fatalf("DailyRank: %v", err)
	}
	if rank != 4 {
		t.Errorf("off-page rank = %d, want 4", rank)
	}
}

func TestDailyScoresIsolatedByGameAndDate(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "casey")
	repo := NewLeaderboardRepository(db)

	if _, err := repo.UpsertDaily("u1", models.VariantEmojiPair, "2025-11-05", 40, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpsertDaily("u1", models.VariantMini, "2025-11-05", 80, 0); err != nil {
		t.Fatal(err)
	}
	if _, err := repo.UpsertDaily("u1", models.VariantEmojiPair, "2025-11-06", 55, 0); err != nil {
		t.Fatal(err)
	}

	_, entry, err := repo.DailyRank("u1", models.VariantEmojiPair, "2025-11-05")
	if err != nil {
		t.Fatalf("DailyRank: %v", err)
	}
	if entry.Score != 40 {
		t.Errorf("score = %d, rows bled across game or date", entry.Score)
	}

	rank, entry, err := repo.DailyRank("u1", models.VariantGrouping, "2025-11-05")
	if err != nil {
		t.Fatalf("DailyRank missing: %v", err)
	}
	if rank != 0 || entry != nil {
		t.Errorf("missing row = %d, %+v, want 0, nil", rank, entry)
	}
}

func TestUpsertStreakKeepsHigherScore(t *testing.T) {
	db := newTestDB(t)
	seedUser(t, db, "u1", "casey")
	repo := NewLeaderboardRepository(db)

	changed, err := repo.UpsertStreak("u1", models.VariantGrouping, 5)
	if err != nil || !changed {
		t.Fatalf("first upsert = %v, %v", changed, err)
	}
	changed, err = repo.UpsertStreak("u1", models.VariantGrouping, 3)
	if err != nil {
		t.Fatalf("lower upsert: %v", err)
	}
	if changed {
		t.Error("lower streak reported as a change")
	}
	changed, err = repo.UpsertStreak("u1", models.VariantGrouping, 8)
	if err != nil || !changed {
		t.Fatalf("higher upsert = %v, %v", changed, err)
	}

	rank, entry, err := repo.StreakRank("u1", models.VariantGrouping)
	if err != nil {
		t.Fatalf("StreakRank: %v", err)
	}
	if rank != 1 || entry.Score != 8 {
		t.Errorf("rank = %d, score = %d", rank, entry.Score)
	}
}

func TestStreakBoardOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewLeaderboardRepository(db)

	for i, streak := range []int{3, 12, 7} {
		user := fmt.Sprintf("u%d", i+1)
		seedUser(t, db, user, fmt.Sprintf("player%d", i+1))
		if _, err := repo.UpsertStreak(user, models.VariantEmojiPair, streak); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := repo.StreakBoard(models.VariantEmojiPair, 10)
	if err != nil {
		t.Fatalf("StreakBoard: %v", err)
	}
	wantOrder := []string{"u2", "u3", "u1"}
	if len(entries) != 3 {
		t.Fatalf("entries = %d", len(entries))
	}
	for i, want := range wantOrder {
		if entries[i].UserID != want {
			t.Errorf("entries[%d] = %s, want %s", i, entries[i].UserID, want)
		}
	}
}
