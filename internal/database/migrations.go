package database

import (
	"fmt"
)

// migration is one schema step. Statements stick to the SQL subset all
// three dialects accept; keys are UUID strings so no auto-increment is
// needed anywhere.
type migration struct {
	name       string
	statements []string
}

var migrations = []migration{
	{
		name: "001_users",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS users (
				id VARCHAR(36) PRIMARY KEY,
				email VARCHAR(255) NOT NULL UNIQUE,
				username VARCHAR(64) NOT NULL UNIQUE,
				avatar_ref VARCHAR(255),
				password_hash VARCHAR(255) NOT NULL,
				created_at TIMESTAMP NOT NULL,
				updated_at TIMESTAMP NOT NULL
			)`,
		},
	},
	{
		name: "002_user_stats",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS user_stats (
				user_id VARCHAR(36) NOT NULL,
				game VARCHAR(32) NOT NULL,
				payload TEXT NOT NULL,
				games_played INTEGER NOT NULL DEFAULT 0,
				updated_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, game)
			)`,
		},
	},
	{
		name: "003_daily_scores",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS daily_scores (
				user_id VARCHAR(36) NOT NULL,
				game VARCHAR(32) NOT NULL,
				puzzle_date VARCHAR(10) NOT NULL,
				score INTEGER NOT NULL,
				mistakes INTEGER NOT NULL DEFAULT 0,
				updated_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, game, puzzle_date)
			)`,
			`CREATE INDEX idx_daily_scores_board
				ON daily_scores (game, puzzle_date, score)`,
		},
	},
	{
		name: "004_streak_scores",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS streak_scores (
				user_id VARCHAR(36) NOT NULL,
				game VARCHAR(32) NOT NULL,
				score INTEGER NOT NULL,
				updated_at TIMESTAMP NOT NULL,
				PRIMARY KEY (user_id, game)
			)`,
			`CREATE INDEX idx_streak_scores_board
				ON streak_scores (game, score)`,
		},
	},
	{
		name: "005_puzzles",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS puzzles (
				game VARCHAR(32) NOT NULL,
				puzzle_date VARCHAR(10) NOT NULL,
				number INTEGER NOT NULL,
				payload TEXT NOT NULL,
				PRIMARY KEY (game, puzzle_date)
			)`,
		},
	},
}

// RunMigrations applies any schema steps not yet recorded in the
// migrations table.
func (db *DB) RunMigrations() error {
	if err := db.createMigrationsTable(); err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}

	for _, m := range migrations {
		hasRun, err := db.hasMigrationRun(m.name)
		if err != nil {
			return fmt.Errorf("failed to check migration status: %w", err)
		}
		if hasRun {
			continue
		}
		for _, stmt := range m.statements {
			if _, err := db.Exec(stmt); err != nil {
				return fmt.Errorf("failed to execute migration %s: %w", m.name, err)
			}
		}
		if err := db.recordMigration(m.name); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", m.name, err)
		}
	}
	return nil
}

func (db *DB) createMigrationsTable() error {
	query := `
		CREATE TABLE IF NOT EXISTS migrations (
			name VARCHAR(128) PRIMARY KEY,
			executed_at TIMESTAMP NOT NULL
		)
	`
	_, err := db.Exec(query)
	return err
}

func (db *DB) hasMigrationRun(name string) (bool, error) {
	var count int
	err := db.QueryRow("SELECT COUNT(*) FROM migrations WHERE name = ?", name).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (db *DB) recordMigration(name string) error {
	_, err := db.Exec("INSERT INTO migrations (name, executed_at) VALUES (?, CURRENT_TIMESTAMP)", name)
	return err
}
