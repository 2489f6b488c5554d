package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
	"reelplay/internal/service"
)

// AuthHandler serves registration, login and account deletion.
type AuthHandler struct {
	auth *service.AuthService
	log  *logrus.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(auth *service.AuthService, log *logrus.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

type registerRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Success bool       `json:"success"`
	Token   string     `json:"token"`
	User    userPublic `json:"user"`
}

type userPublic struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	AvatarRef string `json:"avatar_ref,omitempty"`
}

func publicUser(user *models.User) userPublic {
	return userPublic{ID: user.ID, Username: user.Username, AvatarRef: user.AvatarRef}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, token, err := h.auth.Register(req.Email, req.Username, req.Password)
	switch {
	case errors.Is(err, service.ErrEmailTaken), errors.Is(err, service.ErrUsernameTaken):
		respondError(w, http.StatusConflict, err.Error())
		return
	case err != nil:
		h.log.WithError(err).Warn("registration rejected")
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	respondJSON(w, http.StatusCreated, authResponse{Success: true, Token: token, User: publicUser(user)})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user, token, err := h.auth.Login(req.Email, req.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		respondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("login failed")
		respondError(w, http.StatusInternalServerError, "login failed")
		return
	}
	respondJSON(w, http.StatusOK, authResponse{Success: true, Token: token, User: publicUser(user)})
}

// DeleteAccount handles DELETE /account. The account and every score
// and stats row keyed to it are removed together.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	if err := h.auth.DeleteAccount(user.ID); err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			respondError(w, http.StatusNotFound, "account not found")
			return
		}
		h.log.WithError(err).Error("account deletion failed")
		respondError(w, http.StatusInternalServerError, "account deletion failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"success": true})
}
