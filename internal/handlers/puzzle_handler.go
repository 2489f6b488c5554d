package handlers

import (
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
	"reelplay/internal/service"
)

// PuzzleHandler serves published puzzle descriptors.
type PuzzleHandler struct {
	puzzles *service.PuzzleService
	log     *logrus.Logger
}

// NewPuzzleHandler creates a new puzzle handler.
func NewPuzzleHandler(puzzles *service.PuzzleService, log *logrus.Logger) *PuzzleHandler {
	return &PuzzleHandler{puzzles: puzzles, log: log}
}

// Get handles GET /puzzle?variant=&date=. The descriptor is returned
// bare, not wrapped in an envelope, so clients can decode it directly.
func (h *PuzzleHandler) Get(w http.ResponseWriter, r *http.Request) {
	variant := models.Variant(r.URL.Query().Get("variant"))
	date := r.URL.Query().Get("date")

	descriptor, err := h.puzzles.Get(variant, date)
	if errors.Is(err, service.ErrPuzzleNotFound) {
		respondError(w, http.StatusNotFound, "no puzzle for that variant and date")
		return
	}
	if err != nil {
		h.log.WithError(err).Error("puzzle read failed")
		respondError(w, http.StatusInternalServerError, "puzzle read failed")
		return
	}
	respondJSON(w, http.StatusOK, descriptor)
}
