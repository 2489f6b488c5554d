package models

// LeaderboardEntry is one row of a daily or streak leaderboard. Entries
// are owned by the remote service; the client treats them as read-only.
type LeaderboardEntry struct {
	UserID    string         `json:"user_id"`
	Username  string         `json:"username"`
	AvatarRef string         `json:"avatar_ref,omitempty"`
	Score     int            `json:"score"` // seconds for daily, days for streak
	Rank      int            `json:"rank"`
	Metadata  *EntryMetadata `json:"metadata,omitempty"`
}

// EntryMetadata carries per-entry extras; daily entries record mistakes.
type EntryMetadata struct {
	Mistakes int `json:"mistakes"`
}

// DailySubmission is the POST /leaderboard/daily request body.
type DailySubmission struct {
	GameType   Variant        `json:"gameType"`
	PuzzleDate string         `json:"puzzleDate"`
	Score      int            `json:"score"` // whole seconds
	Metadata   *EntryMetadata `json:"metadata,omitempty"`
}

// StreakSubmission is the POST /leaderboard/streak request body.
type StreakSubmission struct {
	GameType Variant `json:"gameType"`
	Score    int     `json:"score"` // streak length in days
}

// SubmitResponse is returned by both submission endpoints.
type SubmitResponse struct {
	Success bool `json:"success"`
	Rank    int  `json:"rank,omitempty"`
}

// LeaderboardResponse is returned by both read endpoints. UserRank is set
// for daily reads when the requester falls outside the returned page;
// UserEntry serves the same purpose for streak reads.
type LeaderboardResponse struct {
	Success     bool               `json:"success"`
	Leaderboard []LeaderboardEntry `json:"leaderboard"`
	UserRank    int                `json:"userRank,omitempty"`
	UserEntry   *LeaderboardEntry  `json:"userEntry,omitempty"`
}
