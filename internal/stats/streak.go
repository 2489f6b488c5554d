package stats

import (
	"reelplay/internal/clock"
	"reelplay/internal/models"
)

// runEndingAt counts the consecutive completed dates finishing at date,
// walking backwards a day at a time.
func runEndingAt(record *models.UserStats, date string) int {
	if !record.Completed(date) {
		return 0
	}
	run := 1
	for cursor := clock.Yesterday(date); record.Completed(cursor); cursor = clock.Yesterday(cursor) {
		run++
	}
	return run
}

// runContaining returns the length of the consecutive run of completed
// dates that includes date.
func runContaining(record *models.UserStats, date string) int {
	if !record.Completed(date) {
		return 0
	}
	run := runEndingAt(record, date)
	for cursor := clock.AddDays(date, 1); record.Completed(cursor); cursor = clock.AddDays(cursor, 1) {
		run++
	}
	return run
}
