package service

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"reelplay/internal/database"
)

// BackupData is the complete database backup structure.
type BackupData struct {
	Version      string              `json:"version"`
	ExportedAt   time.Time           `json:"exported_at"`
	Users        []UserBackup        `json:"users"`
	UserStats    []UserStatsBackup   `json:"user_stats"`
	DailyScores  []DailyScoreBackup  `json:"daily_scores"`
	StreakScores []StreakScoreBackup `json:"streak_scores"`
	Puzzles      []PuzzleBackup      `json:"puzzles"`
}

// UserBackup is one account row.
type UserBackup struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	AvatarRef    string    `json:"avatar_ref,omitempty"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// UserStatsBackup is one per-game statistics row. Payload carries the
// record verbatim so unknown fields survive a round trip.
type UserStatsBackup struct {
	UserID      string          `json:"user_id"`
	Game        string          `json:"game"`
	Payload     json.RawMessage `json:"payload"`
	GamesPlayed int             `json:"games_played"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// DailyScoreBackup is one daily leaderboard row.
type DailyScoreBackup struct {
	UserID     string    `json:"user_id"`
	Game       string    `json:"game"`
	PuzzleDate string    `json:"puzzle_date"`
	Score      int       `json:"score"`
	Mistakes   int       `json:"mistakes"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// StreakScoreBackup is one streak leaderboard row.
type StreakScoreBackup struct {
	UserID    string    `json:"user_id"`
	Game      string    `json:"game"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PuzzleBackup is one published puzzle row.
type PuzzleBackup struct {
	Game       string          `json:"game"`
	PuzzleDate string          `json:"puzzle_date"`
	Number     int             `json:"number"`
	Payload    json.RawMessage `json:"payload"`
}

// BackupService exports and restores the whole database as JSON. Rows
// are keyed by natural keys, so an import into a non-empty database
// merges rather than duplicates.
type BackupService struct {
	db  *database.DB
	log *logrus.Logger
}

// NewBackupService creates a new backup service.
func NewBackupService(db *database.DB, log *logrus.Logger) *BackupService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &BackupService{db: db, log: log}
}

// Export writes a complete backup of the database to a file.
func (s *BackupService) Export(outputPath string) error {
	backup := &BackupData{
		Version:    "1.0",
		ExportedAt: time.Now(),
	}

	if err := s.exportUsers(backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportUserStats(backup); err != nil {
		return fmt.Errorf("failed to export user stats: %w", err)
	}
	if err := s.exportDailyScores(backup); err != nil {
		return fmt.Errorf("failed to export daily scores: %w", err)
	}
	if err := s.exportStreakScores(backup); err != nil {
		return fmt.Errorf("failed to export streak scores: %w", err)
	}
	if err := s.exportPuzzles(backup); err != nil {
		return fmt.Errorf("failed to export puzzles: %w", err)
	}

	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"users":         len(backup.Users),
		"user_stats":    len(backup.UserStats),
		"daily_scores":  len(backup.DailyScores),
		"streak_scores": len(backup.StreakScores),
		"puzzles":       len(backup.Puzzles),
	}).Info("database exported")
	return nil
}

// Import restores a database from a backup file.
func (s *BackupService) Import(inputPath string) error {
	file, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer file.Close()
	return s.ImportFromReader(file)
}

// ImportFromReader restores a database from a backup stream.
func (s *BackupService) ImportFromReader(reader io.Reader) error {
	var backup BackupData
	if err := json.NewDecoder(reader).Decode(&backup); err != nil {
		return fmt.Errorf("failed to decode backup: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"version":     backup.Version,
		"exported_at": backup.ExportedAt,
	}).Info("importing backup")

	if err := s.importUsers(backup.Users); err != nil {
		return fmt.Errorf("failed to import users: %w", err)
	}
	if err := s.importUserStats(backup.UserStats); err != nil {
		return fmt.Errorf("failed to import user stats: %w", err)
	}
	if err := s.importDailyScores(backup.DailyScores); err != nil {
		return fmt.Errorf("failed to import daily scores: %w", err)
	}
	if err := s.importStreakScores(backup.StreakScores); err != nil {
		return fmt.Errorf("failed to import streak scores: %w", err)
	}
	if err := s.importPuzzles(backup.Puzzles); err != nil {
		return fmt.Errorf("failed to import puzzles: %w", err)
	}
	s.log.Info("database import completed")
	return nil
}

// Clear deletes every row in dependency order. Used by the restore
// tool's -clear flag.
func (s *BackupService) Clear() error {
	tables := []string{"daily_scores", "streak_scores", "user_stats", "puzzles", "users"}
	for _, table := range tables {
		if _, err := s.db.Exec(fmt.Sprintf("DELETE FROM %s", table)); err != nil {
			return fmt.Errorf("failed to clear table %s: %w", table, err)
		}
	}
	return nil
}

func (s *BackupService) exportUsers(backup *BackupData) error {
	rows, err := s.db.Query("SELECT id, email, username, avatar_ref, password_hash, created_at, updated_at FROM users")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var user UserBackup
		var avatar sql.NullString
		if err := rows.Scan(&user.ID, &user.Email, &user.Username, &avatar, &user.PasswordHash, &user.CreatedAt, &user.UpdatedAt); err != nil {
			return err
		}
		user.AvatarRef = avatar.String
		backup.Users = append(backup.Users, user)
	}
	return rows.Err()
}

func (s *BackupService) exportUserStats(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, game, payload, games_played, updated_at FROM user_stats")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row UserStatsBackup
		var payload []byte
		if err := rows.Scan(&row.UserID, &row.Game, &payload, &row.GamesPlayed, &row.UpdatedAt); err != nil {
			return err
		}
		row.Payload = json.RawMessage(payload)
		backup.UserStats = append(backup.UserStats, row)
	}
	return rows.Err()
}

func (s *BackupService) exportDailyScores(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, game, puzzle_date, score, mistakes, updated_at FROM daily_scores")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row DailyScoreBackup
		if err := rows.Scan(&row.UserID, &row.Game, &row.PuzzleDate, &row.Score, &row.Mistakes, &row.UpdatedAt); err != nil {
			return err
		}
		backup.DailyScores = append(backup.DailyScores, row)
	}
	return rows.Err()
}

func (s *BackupService) exportStreakScores(backup *BackupData) error {
	rows, err := s.db.Query("SELECT user_id, game, score, updated_at FROM streak_scores")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row StreakScoreBackup
		if err := rows.Scan(&row.UserID, &row.Game, &row.Score, &row.UpdatedAt); err != nil {
			return err
		}
		backup.StreakScores = append(backup.StreakScores, row)
	}
	return rows.Err()
}

func (s *BackupService) exportPuzzles(backup *BackupData) error {
	rows, err := s.db.Query("SELECT game, puzzle_date, number, payload FROM puzzles")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var row PuzzleBackup
		var payload []byte
		if err := rows.Scan(&row.Game, &row.PuzzleDate, &row.Number, &payload); err != nil {
			return err
		}
		row.Payload = json.RawMessage(payload)
		backup.Puzzles = append(backup.Puzzles, row)
	}
	return rows.Err()
}

func (s *BackupService) importUsers(users []UserBackup) error {
	for _, user := range users {
		avatar := sql.NullString{String: user.AvatarRef, Valid: user.AvatarRef != ""}
		result, err := s.db.Exec(
			"UPDATE users SET email = ?, username = ?, avatar_ref = ?, password_hash = ?, updated_at = ? WHERE id = ?",
			user.Email, user.Username, avatar, user.PasswordHash, user.UpdatedAt, user.ID,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			_, err = s.db.Exec(
				"INSERT INTO users (id, email, username, avatar_ref, password_hash, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
				user.ID, user.Email, user.Username, avatar, user.PasswordHash, user.CreatedAt, user.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BackupService) importUserStats(rows []UserStatsBackup) error {
	for _, row := range rows {
		result, err := s.db.Exec(
			"UPDATE user_stats SET payload = ?, games_played = ?, updated_at = ? WHERE user_id = ? AND game = ?",
			[]byte(row.Payload), row.GamesPlayed, row.UpdatedAt, row.UserID, row.Game,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			_, err = s.db.Exec(
				"INSERT INTO user_stats (user_id, game, payload, games_played, updated_at) VALUES (?, ?, ?, ?, ?)",
				row.UserID, row.Game, []byte(row.Payload), row.GamesPlayed, row.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BackupService) importDailyScores(rows []DailyScoreBackup) error {
	for _, row := range rows {
		result, err := s.db.Exec(
			"UPDATE daily_scores SET score = ?, mistakes = ?, updated_at = ? WHERE user_id = ? AND game = ? AND puzzle_date = ?",
			row.Score, row.Mistakes, row.UpdatedAt, row.UserID, row.Game, row.PuzzleDate,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			_, err = s.db.Exec(
				"INSERT INTO daily_scores (user_id, game, puzzle_date, score, mistakes, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
				row.UserID, row.Game, row.PuzzleDate, row.Score, row.Mistakes, row.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BackupService) importStreakScores(rows []StreakScoreBackup) error {
	for _, row := range rows {
		result, err := s.db.Exec(
			"UPDATE streak_scores SET score = ?, updated_at = ? WHERE user_id = ? AND game = ?",
			row.Score, row.UpdatedAt, row.UserID, row.Game,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			_, err = s.db.Exec(
				"INSERT INTO streak_scores (user_id, game, score, updated_at) VALUES (?, ?, ?, ?)",
				row.UserID, row.Game, row.Score, row.UpdatedAt,
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *BackupService) importPuzzles(rows []PuzzleBackup) error {
	for _, row := range rows {
		result, err := s.db.Exec(
			"UPDATE puzzles SET number = ?, payload = ? WHERE game = ? AND puzzle_date = ?",
			row.Number, []byte(row.Payload), row.Game, row.PuzzleDate,
		)
		if err != nil {
			return err
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return err
		}
		if affected == 0 {
			_, err = s.db.Exec(
				"INSERT INTO puzzles (game, puzzle_date, number, payload) VALUES (?, ?, ?, ?)",
				row.Game, row.PuzzleDate, row.Number, []byte(row.Payload),
			)
			if err != nil {
				return err
			}
		}
	}
	return nil
}
