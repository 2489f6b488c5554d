package stats

import "reelplay/internal/models"

// Merge reconciles two records for the same (user, variant) additively:
// max per counter, union of completed dates, streaks recomputed from
// the merged set. History keeps the longer side's order and folds in
// the entries only the shorter side saw, so a synced row absorbs its
// own echo without duplicates. Used when locally accrued anonymous
// stats meet the remote row after login.
func Merge(a, b models.UserStats) models.UserStats {
	merged := models.NewUserStats(a.Variant)
	if merged.Variant == "" {
		merged.Variant = b.Variant
	}

	merged.GamesPlayed = maxInt(a.GamesPlayed, b.GamesPlayed)
	merged.GamesWon = maxInt(a.GamesWon, b.GamesWon)
	merged.HintsUsedTotal = maxInt(a.HintsUsedTotal, b.HintsUsedTotal)
	merged.PerfectSolves = maxInt(a.PerfectSolves, b.PerfectSolves)
	merged.TotalTimeMs = maxInt64(a.TotalTimeMs, b.TotalTimeMs)

	merged.BestTimeMs = a.BestTimeMs
	if merged.BestTimeMs == 0 || (b.BestTimeMs > 0 && b.BestTimeMs < merged.BestTimeMs) {
		merged.BestTimeMs = b.BestTimeMs
	}

	for _, date := range a.CompletedPuzzles {
		merged.MarkCompleted(date)
	}
	for _, date := range b.CompletedPuzzles {
		merged.MarkCompleted(date)
	}
	merged.LastCompletedDate = a.LastCompletedDate
	if b.LastCompletedDate > merged.LastCompletedDate {
		merged.LastCompletedDate = b.LastCompletedDate
	}

	merged.CurrentStreak = runEndingAt(merged, merged.LastCompletedDate)
	merged.BestStreak = maxInt(a.BestStreak, b.BestStreak)
	if merged.CurrentStreak > merged.BestStreak {
		merged.BestStreak = merged.CurrentStreak
	}

	longer, shorter := a.History, b.History
	if len(shorter) > len(longer) {
		longer, shorter = shorter, longer
	}
	seen := make(map[models.GameOutcome]int, len(longer))
	for _, outcome := range longer {
		seen[outcome]++
		merged.AppendHistory(outcome)
	}
	for _, outcome := range shorter {
		if seen[outcome] > 0 {
			seen[outcome]--
			continue
		}
		merged.AppendHistory(outcome)
	}

	merged.UpdatedAt = a.UpdatedAt
	if b.UpdatedAt.After(merged.UpdatedAt) {
		merged.UpdatedAt = b.UpdatedAt
	}
	return *merged
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func maxInt64(a, b int64) int64 {
	if a > b {
		return a
	}
	return b
}
