package service

import (
	"errors"
	"fmt"

	"reelplay/internal/models"
	"reelplay/internal/stats"
)

// ErrBadStatsPush covers pushes whose payload fails validation.
var ErrBadStatsPush = errors.New("bad stats push")

// StatsRowStore is the row-of-record persistence surface.
type StatsRowStore interface {
	Get(userID string, game models.Variant) (*models.UserStats, error)
	Put(userID string, record *models.UserStats) error
}

// StatsService keeps the authoritative per-(user, game) row. Pushes are
// folded in additively so an out-of-date client can never shrink the
// row, matching the client's own anonymous-merge rule.
type StatsService struct {
	rows StatsRowStore
}

// NewStatsService creates a new stats service.
func NewStatsService(rows StatsRowStore) *StatsService {
	return &StatsService{rows: rows}
}

// Push merges an uploaded record into the stored row and returns the
// resulting authoritative record.
func (s *StatsService) Push(userID string, game models.Variant, incoming *models.UserStats) (*models.UserStats, error) {
	if incoming == nil || !game.Valid() {
		return nil, ErrBadStatsPush
	}
	if incoming.GamesWon > incoming.GamesPlayed || incoming.CurrentStreak > incoming.BestStreak {
		return nil, fmt.Errorf("%w: inconsistent counters", ErrBadStatsPush)
	}
	incoming.Variant = game

	existing, err := s.rows.Get(userID, game)
	if err != nil {
		return nil, err
	}

	merged := *incoming
	if existing != nil {
		merged = stats.Merge(*existing, *incoming)
	}
	if err := s.rows.Put(userID, &merged); err != nil {
		return nil, err
	}
	return &merged, nil
}

// Get returns the stored row, or nil when the user has none.
func (s *StatsService) Get(userID string, game models.Variant) (*models.UserStats, error) {
	if !game.Valid() {
		return nil, ErrBadStatsPush
	}
	return s.rows.Get(userID, game)
}
