package repository

import (
	"database/sql"
	"fmt"
	"time"

	"reelplay/internal/database"
	"reelplay/internal/models"
)

// UserRepository handles account rows.
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

// CreateUser inserts a new account.
func (r *UserRepository) CreateUser(user *models.User) error {
	query := `
		INSERT INTO users (id, email, username, avatar_ref, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now
	_, err := r.db.Exec(query, user.ID, user.Email, user.Username, user.AvatarRef, user.PasswordHash, now, now)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns the account for an email, or nil when none exists.
func (r *UserRepository) GetUserByEmail(email string) (*models.User, error) {
	return r.getUser("email = ?", email)
}

// GetUserByID returns the account for an id, or nil when none exists.
func (r *UserRepository) GetUserByID(id string) (*models.User, error) {
	return r.getUser("id = ?", id)
}

// GetUserByUsername returns the account for a username, or nil.
func (r *UserRepository) GetUserByUsername(username string) (*models.User, error) {
	return r.getUser("username = ?", username)
}

func (r *UserRepository) getUser(where string, arg any) (*models.User, error) {
	query := `
		SELECT id, email, username, avatar_ref, password_hash, created_at, updated_at
		FROM users
		WHERE ` + where

	user := &models.User{}
	var avatar sql.NullString
	err := r.db.QueryRow(query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.Username,
		&avatar,
		&user.PasswordHash,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	user.AvatarRef = avatar.String
	return user, nil
}

// DeleteUser removes the account and everything keyed to it. This is the
// only path that destroys a user's statistics.
func (r *UserRepository) DeleteUser(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, query := range []string{
		"DELETE FROM daily_scores WHERE user_id = ?",
		"DELETE FROM streak_scores WHERE user_id = ?",
		"DELETE FROM user_stats WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	} {
		if _, err := tx.Exec(query, id); err != nil {
			return fmt.Errorf("failed to delete user data: %w", err)
		}
	}
	return tx.Commit()
}
