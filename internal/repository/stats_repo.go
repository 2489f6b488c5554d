package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"reelplay/internal/database"
	"reelplay/internal/models"
)

// StatsRepository stores the per-(user, game) row of record. The full
// record travels as a JSON payload; games_played and updated_at are
// lifted into columns so the conflict rule can be applied in SQL-land.
type StatsRepository struct {
	db *database.DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *database.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// Get returns the stored record, or nil when the user has none.
func (r *StatsRepository) Get(userID string, game models.Variant) (*models.UserStats, error) {
	var payload []byte
	query := "SELECT payload FROM user_stats WHERE user_id = ? AND game = ?"
	err := r.db.QueryRow(query, userID, string(game)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := &models.UserStats{}
	if err := json.Unmarshal(payload, record); err != nil {
		return nil, fmt.Errorf("stored stats row is malformed: %w", err)
	}
	return record, nil
}

// Put writes the record unconditionally; callers decide conflicts.
func (r *StatsRepository) Put(userID string, record *models.UserStats) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	now := time.Now().UTC()
	result, err := tx.Exec(
		"UPDATE user_stats SET payload = ?, games_played = ?, updated_at = ? WHERE user_id = ? AND game = ?",
		payload, record.GamesPlayed, now, userID, string(record.Variant),
	)
	if err != nil {
		return fmt.Errorf("failed to update stats row: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_, err = tx.Exec(
			"INSERT INTO user_stats (user_id, game, payload, games_played, updated_at) VALUES (?, ?, ?, ?, ?)",
			userID, string(record.Variant), payload, record.GamesPlayed, now,
		)
		if err != nil {
			return fmt.Errorf("failed to insert stats row: %w", err)
		}
	}
	return tx.Commit()
}
