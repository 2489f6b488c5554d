package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
	"reelplay/internal/service"
)

// StatsHandler serves the per-(user, game) row of record.
type StatsHandler struct {
	stats *service.StatsService
	log   *logrus.Logger
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(stats *service.StatsService, log *logrus.Logger) *StatsHandler {
	return &StatsHandler{stats: stats, log: log}
}

type statsPushRequest struct {
	GameType models.Variant    `json:"gameType"`
	Stats    *models.UserStats `json:"stats"`
}

type statsResponse struct {
	Success bool              `json:"success"`
	Stats   *models.UserStats `json:"stats,omitempty"`
}

// Push handles POST /stats. The uploaded record is merged additively
// into the stored row, so a stale client cannot shrink it.
func (h *StatsHandler) Push(w http.ResponseWriter, r *http.Request) {
	var req statsPushRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	user := userFrom(r)
	merged, err := h.stats.Push(user.ID, req.GameType, req.Stats)
	if errors.Is(err, service.ErrBadStatsPush) {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		h.log.WithError(err).Error("stats push failed")
		respondError(w, http.StatusInternalServerError, "stats push failed")
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Success: true, Stats: merged})
}

// Get handles GET /stats?game=. Stats is null when the user has no row.
func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	game := models.Variant(r.URL.Query().Get("game"))
	if !game.Valid() {
		respondError(w, http.StatusBadRequest, "game is required")
		return
	}

	user := userFrom(r)
	record, err := h.stats.Get(user.ID, game)
	if err != nil {
		h.log.WithError(err).Error("stats read failed")
		respondError(w, http.StatusInternalServerError, "stats read failed")
		return
	}
	respondJSON(w, http.StatusOK, statsResponse{Success: true, Stats: record})
}
