package service

import (
	"errors"
	"fmt"

	"reelplay/internal/models"
)

// ErrBadSubmission covers malformed scores and unknown variants.
var ErrBadSubmission = errors.New("bad submission")

// ScoreStore is the leaderboard persistence surface.
type ScoreStore interface {
	UpsertDaily(userID string, game models.Variant, puzzleDate string, score, mistakes int) (bool, error)
	DailyBoard(game models.Variant, puzzleDate string, limit int) ([]models.LeaderboardEntry, error)
	DailyRank(userID string, game models.Variant, puzzleDate string) (int, *models.LeaderboardEntry, error)
	UpsertStreak(userID string, game models.Variant, score int) (bool, error)
	StreakBoard(game models.Variant, limit int) ([]models.LeaderboardEntry, error)
	StreakRank(userID string, game models.Variant) (int, *models.LeaderboardEntry, error)
}

const (
	defaultBoardLimit = 25
	maxBoardLimit     = 100
)

// LeaderboardService validates submissions and assembles board reads.
// Anti-regression itself is enforced by the store's upserts; duplicate
// submissions with equal or worse scores are accepted and ignored.
type LeaderboardService struct {
	scores ScoreStore
}

// NewLeaderboardService creates a new leaderboard service.
func NewLeaderboardService(scores ScoreStore) *LeaderboardService {
	return &LeaderboardService{scores: scores}
}

// SubmitDaily records a daily time and returns the submitter's rank.
func (s *LeaderboardService) SubmitDaily(userID string, sub models.DailySubmission) (int, error) {
	if !sub.GameType.Valid() || sub.PuzzleDate == "" {
		return 0, ErrBadSubmission
	}
	if sub.Score <= 0 {
		return 0, fmt.Errorf("%w: score must be positive seconds", ErrBadSubmission)
	}
	mistakes := 0
	if sub.Metadata != nil {
		mistakes = sub.Metadata.Mistakes
	}
	if mistakes < 0 {
		return 0, fmt.Errorf("%w: negative mistakes", ErrBadSubmission)
	}

	if _, err := s.scores.UpsertDaily(userID, sub.GameType, sub.PuzzleDate, sub.Score, mistakes); err != nil {
		return 0, err
	}
	rank, _, err := s.scores.DailyRank(userID, sub.GameType, sub.PuzzleDate)
	return rank, err
}

// SubmitStreak records a best streak and returns the submitter's rank.
func (s *LeaderboardService) SubmitStreak(userID string, sub models.StreakSubmission) (int, error) {
	if !sub.GameType.Valid() || sub.Score <= 0 {
		return 0, ErrBadSubmission
	}
	if _, err := s.scores.UpsertStreak(userID, sub.GameType, sub.Score); err != nil {
		return 0, err
	}
	rank, _, err := s.scores.StreakRank(userID, sub.GameType)
	return rank, err
}

// DailyBoard reads the top entries plus the requester's rank when the
// requester (if any) falls outside the page.
func (s *LeaderboardService) DailyBoard(requesterID string, game models.Variant, puzzleDate string, limit int) (*models.LeaderboardResponse, error) {
	limit = clampLimit(limit)
	entries, err := s.scores.DailyBoard(game, puzzleDate, limit)
	if err != nil {
		return nil, err
	}
	response := &models.LeaderboardResponse{Success: true, Leaderboard: entries}

	if requesterID != "" && !containsUser(entries, requesterID) {
		rank, _, err := s.scores.DailyRank(requesterID, game, puzzleDate)
		if err != nil {
			return nil, err
		}
		response.UserRank = rank
	}
	return response, nil
}

// StreakBoard reads the top streaks plus the requester's own entry when
// it falls outside the page.
func (s *LeaderboardService) StreakBoard(requesterID string, game models.Variant, limit int) (*models.LeaderboardResponse, error) {
	limit = clampLimit(limit)
	entries, err := s.scores.StreakBoard(game, limit)
	if err != nil {
		return nil, err
	}
	response := &models.LeaderboardResponse{Success: true, Leaderboard: entries}

	if requesterID != "" && !containsUser(entries, requesterID) {
		_, entry, err := s.scores.StreakRank(requesterID, game)
		if err != nil {
			return nil, err
		}
		response.UserEntry = entry
	}
	return response, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultBoardLimit
	}
	if limit > maxBoardLimit {
		return maxBoardLimit
	}
	return limit
}

func containsUser(entries []models.LeaderboardEntry, userID string) bool {
	for _, entry := range entries {
		if entry.UserID == userID {
			return true
		}
	}
	return false
}
