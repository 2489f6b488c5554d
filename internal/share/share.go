// Package share renders the copy-to-clipboard result text. Output is
// deterministic, newline-separated, with no trailing whitespace.
package share

import (
	"fmt"
	"strings"
	"time"

	"reelplay/internal/clock"
	"reelplay/internal/models"
)

// Text renders the share text for an outcome. Each variant has its own
// pattern; all share the M/D/YYYY header date.
func Text(outcome models.GameOutcome) string {
	switch outcome.Variant {
	case models.VariantGrouping:
		return grouping(outcome)
	case models.VariantEmojiPair:
		return emojiPair(outcome)
	case models.VariantMini:
		return mini(outcome)
	}
	return ""
}

// grouping renders four popcorn buckets with mistakes crossed out from
// the left:
//
//	Reel Connections 11/5/2025
//	You won!
//	🍿🍿🍿🍿
//	Time: 2:41
func grouping(outcome models.GameOutcome) string {
	lines := []string{
		fmt.Sprintf("%s %s", outcome.Variant.DisplayName(), headerDate(outcome.PuzzleDate)),
		resultLine(outcome.Won),
		meter("🍿", 4, outcome.Mistakes),
		"Time: " + Clock(outcome.TimeMs),
	}
	return strings.Join(lines, "\n")
}

func emojiPair(outcome models.GameOutcome) string {
	lines := []string{
		fmt.Sprintf("%s %s", outcome.Variant.DisplayName(), headerDate(outcome.PuzzleDate)),
		resultLine(outcome.Won),
		meter("🎬", 4, outcome.Mistakes),
	}
	if outcome.HintsUsed > 0 {
		lines = append(lines, fmt.Sprintf("Hints: %d", outcome.HintsUsed))
	}
	lines = append(lines, "Time: "+Clock(outcome.TimeMs))
	return strings.Join(lines, "\n")
}

func mini(outcome models.GameOutcome) string {
	lines := []string{
		fmt.Sprintf("%s %s", outcome.Variant.DisplayName(), headerDate(outcome.PuzzleDate)),
		resultLine(outcome.Won),
		"Time: " + Clock(outcome.TimeMs),
	}
	if outcome.Perfect {
		lines = append(lines, "Flawless! ⭐")
	}
	return strings.Join(lines, "\n")
}

func resultLine(won bool) string {
	if won {
		return "You won!"
	}
	return "So close!"
}

// meter renders width symbols with mistakes replaced by ❌ one-for-one
// from the left.
func meter(symbol string, width, mistakes int) string {
	if mistakes > width {
		mistakes = width
	}
	return strings.Repeat("❌", mistakes) + strings.Repeat(symbol, width-mistakes)
}

// headerDate renders a puzzle date as M/D/YYYY without leading zeros.
func headerDate(date string) string {
	t, err := time.ParseInLocation(clock.DateFormat, date, time.Local)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%d/%d/%d", int(t.Month()), t.Day(), t.Year())
}

// Clock renders milliseconds as m:ss, truncating sub-second remainder.
func Clock(ms int64) string {
	seconds := ms / 1000
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
