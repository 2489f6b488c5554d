package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
	"reelplay/internal/service"
)

// LeaderboardHandler serves score submission and board reads.
type LeaderboardHandler struct {
	boards *service.LeaderboardService
	log    *logrus.Logger
}

// NewLeaderboardHandler creates a new leaderboard handler.
func NewLeaderboardHandler(boards *service.LeaderboardService, log *logrus.Logger) *LeaderboardHandler {
	return &LeaderboardHandler{boards: boards, log: log}
}

// SubmitDaily handles POST /leaderboard/daily. Re-submissions with an
// equal or worse time succeed without changing the stored score.
func (h *LeaderboardHandler) SubmitDaily(w http.ResponseWriter, r *http.Request) {
	var sub models.DailySubmission
	if err := decodeJSON(r, &sub); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := userFrom(r)
	rank, err := h.boards.SubmitDaily(user.ID, sub)
	if errors.Is(err, service.ErrBadSubmission) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.WithError(err).Error("daily submission failed")
		respondError(w, http.StatusInternalServerError, "submission failed")
		return
	}
	respondJSON(w, http.StatusOK, models.SubmitResponse{Success: true, Rank: rank})
}

// SubmitStreak handles POST /leaderboard/streak.
func (h *LeaderboardHandler) SubmitStreak(w http.ResponseWriter, r *http.Request) {
	var sub models.StreakSubmission
	if err := decodeJSON(r, &sub); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := userFrom(r)
	rank, err := h.boards.SubmitStreak(user.ID, sub)
	if errors.Is(err, service.ErrBadSubmission) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.WithError(err).Error("streak submission failed")
		respondError(w, http.StatusInternalServerError, "submission failed")
		return
	}
	respondJSON(w, http.StatusOK, models.SubmitResponse{Success: true, Rank: rank})
}

// GetDaily handles GET /leaderboard/daily?game=&date=&limit=.
func (h *LeaderboardHandler) GetDaily(w http.ResponseWriter, r *http.Request) {
	game := models.Variant(r.URL.Query().Get("game"))
	date := r.URL.Query().Get("date")
	if !game.Valid() || date == "" {
		respondError(w, http.StatusBadRequest, "game and date are required")
		return
	}

	response, err := h.boards.DailyBoard(requesterID(r), game, date, queryLimit(r))
	if err != nil {
		h.log.WithError(err).Error("daily board read failed")
		respondError(w, http.StatusInternalServerError, "leaderboard read failed")
		return
	}
	respondJSON(w, http.StatusOK, response)
}

// GetStreak handles GET /leaderboard/streak?game=&limit=.
func (h *LeaderboardHandler) GetStreak(w http.ResponseWriter, r *http.Request) {
	game := models.Variant(r.URL.Query().Get("game"))
	if !game.Valid() {
		respondError(w, http.StatusBadRequest, "game is required")
		return
	}

	response, err := h.boards.StreakBoard(requesterID(r), game, queryLimit(r))
	if err != nil {
		h.log.WithError(err).Error("streak board read failed")
		respondError(w, http.StatusInternalServerError, "leaderboard read failed")
		return
	}
	respondJSON(w, http.StatusOK, response)
}

func requesterID(r *http.Request) string {
	if user := userFrom(r); user != nil {
		return user.ID
	}
	return ""
}

func queryLimit(r *http.Request) int {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	return limit
}
