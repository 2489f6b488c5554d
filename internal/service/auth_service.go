package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
	"reelplay/internal/security"
)

var (
	ErrEmailTaken         = errors.New("email already taken")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

// UserStore is the account persistence the auth service needs.
type UserStore interface {
	CreateUser(user *models.User) error
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id string) (*models.User, error)
	GetUserByUsername(username string) (*models.User, error)
	DeleteUser(id string) error
}

// AuthService handles account registration, login and deletion.
type AuthService struct {
	users  UserStore
	tokens *security.TokenManager
	email  *EmailService
	log    *logrus.Logger
}

// NewAuthService creates a new auth service. email may be nil.
func NewAuthService(users UserStore, tokens *security.TokenManager, email *EmailService, log *logrus.Logger) *AuthService {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &AuthService{users: users, tokens: tokens, email: email, log: log}
}

// Register creates an account and returns it with a fresh token.
func (s *AuthService) Register(email, username, password string) (*models.User, string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)
	if email == "" || !strings.Contains(email, "@") {
		return nil, "", fmt.Errorf("invalid email address")
	}
	if len(username) < 3 {
		return nil, "", fmt.Errorf("username must be at least 3 characters")
	}
	if len(password) < 8 {
		return nil, "", fmt.Errorf("password must be at least 8 characters")
	}

	if existing, err := s.users.GetUserByEmail(email); err != nil {
		return nil, "", fmt.Errorf("failed to check existing user: %w", err)
	} else if existing != nil {
		return nil, "", ErrEmailTaken
	}
	if existing, err := s.users.GetUserByUsername(username); err != nil {
		return nil, "", fmt.Errorf("failed to check existing username: %w", err)
	} else if existing != nil {
		return nil, "", ErrUsernameTaken
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(user); err != nil {
		return nil, "", fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	if s.email != nil {
		if err := s.email.SendWelcomeEmail(user.Email, user.Username); err != nil {
			s.log.WithError(err).Warn("welcome email not sent")
		}
	}
	return user, token, nil
}

// Login authenticates an account and returns it with a fresh token.
func (s *AuthService) Login(email, password string) (*models.User, string, error) {
	user, err := s.users.GetUserByEmail(strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || !security.CheckPassword(user.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Verify resolves a bearer token to its account.
func (s *AuthService) Verify(token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// DeleteAccount removes the account and all statistics keyed to it,
// then sends the confirmation email best-effort.
func (s *AuthService) DeleteAccount(userID string) error {
	user, err := s.users.GetUserByID(userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.users.DeleteUser(userID); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if s.email != nil {
		if err := s.email.SendAccountDeletedEmail(user.Email, user.Username); err != nil {
			s.log.WithError(err).Warn("deletion confirmation email not sent")
		}
	}
	return nil
}
