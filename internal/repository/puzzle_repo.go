package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"reelplay/internal/database"
	"reelplay/internal/models"
)

// PuzzleRepository stores published puzzle descriptors.
type PuzzleRepository struct {
	db *database.DB
}

// NewPuzzleRepository creates a new puzzle repository.
func NewPuzzleRepository(db *database.DB) *PuzzleRepository {
	return &PuzzleRepository{db: db}
}

// Get returns the descriptor for a (game, date), or nil when none is
// published.
func (r *PuzzleRepository) Get(game models.Variant, puzzleDate string) (*models.PuzzleDescriptor, error) {
	var payload []byte
	query := "SELECT payload FROM puzzles WHERE game = ? AND puzzle_date = ?"
	err := r.db.QueryRow(query, string(game), puzzleDate).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	descriptor := &models.PuzzleDescriptor{}
	if err := json.Unmarshal(payload, descriptor); err != nil {
		return nil, fmt.Errorf("stored puzzle is malformed: %w", err)
	}
	return descriptor, nil
}

// Put publishes or replaces a descriptor.
func (r *PuzzleRepository) Put(descriptor *models.PuzzleDescriptor) error {
	payload, err := json.Marshal(descriptor)
	if err != nil {
		return err
	}

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.Exec(
		"UPDATE puzzles SET number = ?, payload = ? WHERE game = ? AND puzzle_date = ?",
		descriptor.Number, payload, string(descriptor.Variant), descriptor.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to update puzzle: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		_, err = tx.Exec(
			"INSERT INTO puzzles (game, puzzle_date, number, payload) VALUES (?, ?, ?, ?)",
			string(descriptor.Variant), descriptor.Date, descriptor.Number, payload,
		)
		if err != nil {
			return fmt.Errorf("failed to insert puzzle: %w", err)
		}
	}
	return tx.Commit()
}
