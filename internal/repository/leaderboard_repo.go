package repository

import (
	"database/sql"
	"fmt"
	"time"

	"reelplay/internal/database"
	"reelplay/internal/models"
)

// LeaderboardRepository stores daily-speed and best-streak scores. The
// anti-regression rule lives here: a stored score only ever improves.
// Upserts are read-check-write inside a transaction so the rule holds
// identically on all three dialects.
type LeaderboardRepository struct {
	db *database.DB
}

// NewLeaderboardRepository creates a new leaderboard repository.
func NewLeaderboardRepository(db *database.DB) *LeaderboardRepository {
	return &LeaderboardRepository{db: db}
}

// UpsertDaily records a daily time in seconds, keeping the faster of
// the stored and submitted scores. Returns whether the row changed.
func (r *LeaderboardRepository) UpsertDaily(userID string, game models.Variant, puzzleDate string, score, mistakes int) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRow(
		"SELECT score FROM daily_scores WHERE user_id = ? AND game = ? AND puzzle_date = ?",
		userID, string(game), puzzleDate,
	).Scan(&existing)

	now := time.Now().UTC()
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			"INSERT INTO daily_scores (user_id, game, puzzle_date, score, mistakes, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			userID, string(game), puzzleDate, score, mistakes, now,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert daily score: %w", err)
		}
	case err != nil:
		return false, err
	case score < existing:
		_, err = tx.Exec(
			"UPDATE daily_scores SET score = ?, mistakes = ?, updated_at = ? WHERE user_id = ? AND game = ? AND puzzle_date = ?",
			score, mistakes, now, userID, string(game), puzzleDate,
		)
		if err != nil {
			return false, fmt.Errorf("failed to update daily score: %w", err)
		}
	default:
		// Equal or worse: refuse to regress, succeed silently.
		return false, tx.Commit()
	}
	return true, tx.Commit()
}

// DailyBoard returns the top entries for a (game, date), ranked by
// ascending time with mistakes as the tiebreak.
func (r *LeaderboardRepository) DailyBoard(game models.Variant, puzzleDate string, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT d.user_id, u.username, u.avatar_ref, d.score, d.mistakes
		FROM daily_scores d
		JOIN users u ON u.id = d.user_id
		WHERE d.game = ? AND d.puzzle_date = ?
		ORDER BY d.score ASC, d.mistakes ASC, d.updated_at ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, string(game), puzzleDate, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		entry := models.LeaderboardEntry{Rank: rank, Metadata: &models.EntryMetadata{}}
		var avatar sql.NullString
		if err := rows.Scan(&entry.UserID, &entry.Username, &avatar, &entry.Score, &entry.Metadata.Mistakes); err != nil {
			return nil, err
		}
		entry.AvatarRef = avatar.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// DailyRank returns the user's rank and entry for a (game, date), or
// rank 0 when the user has no score.
func (r *LeaderboardRepository) DailyRank(userID string, game models.Variant, puzzleDate string) (int, *models.LeaderboardEntry, error) {
	entry := &models.LeaderboardEntry{UserID: userID, Metadata: &models.EntryMetadata{}}
	var avatar sql.NullString
	err := r.db.QueryRow(`
		SELECT u.username, u.avatar_ref, d.score, d.mistakes
		FROM daily_scores d
		JOIN users u ON u.id = d.user_id
		WHERE d.user_id = ? AND d.game = ? AND d.puzzle_date = ?
	`, userID, string(game), puzzleDate).Scan(&entry.Username, &avatar, &entry.Score, &entry.Metadata.Mistakes)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	entry.AvatarRef = avatar.String

	var better int
	err = r.db.QueryRow(
		"SELECT COUNT(*) FROM daily_scores WHERE game = ? AND puzzle_date = ? AND (score < ? OR (score = ? AND mistakes < ?))",
		string(game), puzzleDate, entry.Score, entry.Score, entry.Metadata.Mistakes,
	).Scan(&better)
	if err != nil {
		return 0, nil, err
	}
	entry.Rank = better + 1
	return entry.Rank, entry, nil
}

// UpsertStreak records a best streak in days, keeping the higher of the
// stored and submitted scores.
func (r *LeaderboardRepository) UpsertStreak(userID string, game models.Variant, score int) (bool, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	var existing int
	err = tx.QueryRow(
		"SELECT score FROM streak_scores WHERE user_id = ? AND game = ?",
		userID, string(game),
	).Scan(&existing)

	now := time.Now().UTC()
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.Exec(
			"INSERT INTO streak_scores (user_id, game, score, updated_at) VALUES (?, ?, ?, ?)",
			userID, string(game), score, now,
		)
		if err != nil {
			return false, fmt.Errorf("failed to insert streak score: %w", err)
		}
	case err != nil:
		return false, err
	case score > existing:
		_, err = tx.Exec(
			"UPDATE streak_scores SET score = ?, updated_at = ? WHERE user_id = ? AND game = ?",
			score, now, userID, string(game),
		)
		if err != nil {
			return false, fmt.Errorf("failed to update streak score: %w", err)
		}
	default:
		return false, tx.Commit()
	}
	return true, tx.Commit()
}

// StreakBoard returns the top streaks for a game, longest first.
func (r *LeaderboardRepository) StreakBoard(game models.Variant, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT s.user_id, u.username, u.avatar_ref, s.score
		FROM streak_scores s
		JOIN users u ON u.id = s.user_id
		WHERE s.game = ?
		ORDER BY s.score DESC, s.updated_at ASC
		LIMIT ?
	`
	rows, err := r.db.Query(query, string(game), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	rank := 0
	for rows.Next() {
		rank++
		entry := models.LeaderboardEntry{Rank: rank}
		var avatar sql.NullString
		if err := rows.Scan(&entry.UserID, &entry.Username, &avatar, &entry.Score); err != nil {
			return nil, err
		}
		entry.AvatarRef = avatar.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// StreakRank returns the user's streak entry and rank, or rank 0.
func (r *LeaderboardRepository) StreakRank(userID string, game models.Variant) (int, *models.LeaderboardEntry, error) {
	entry := &models.LeaderboardEntry{UserID: userID}
	var avatar sql.NullString
	err := r.db.QueryRow(`
		SELECT u.username, u.avatar_ref, s.score
		FROM streak_scores s
		JOIN users u ON u.id = s.user_id
		WHERE s.user_id = ? AND s.game = ?
	`, userID, string(game)).Scan(&entry.Username, &avatar, &entry.Score)
	if err == sql.ErrNoRows {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, err
	}
	entry.AvatarRef = avatar.String

	var better int
	err = r.db.QueryRow(
		"SELECT COUNT(*) FROM streak_scores WHERE game = ? AND score > ?",
		string(game), entry.Score,
	).Scan(&better)
	if err != nil {
		return 0, nil, err
	}
	entry.Rank = better + 1
	return entry.Rank, entry, nil
}
