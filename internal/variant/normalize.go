package variant

import (
	"strings"
	"unicode"

	"reelplay/internal/models"
)

// Normalize canonicalizes player input for comparison: lower-case,
// whitespace trimmed, non-letter glyphs stripped. Digits are kept so
// answers like "se7en" survive.
func Normalize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	return b.String()
}

// CheckAnswer compares player input against a slot's accepted solutions.
// It returns whether any alternate matched and the canonical form of the
// solution, which is what share text and replays display.
func CheckAnswer(input string, slot models.Slot) (correct bool, canonical string) {
	canonical = slot.Canonical()
	normalized := Normalize(input)
	if normalized == "" {
		return false, canonical
	}
	for _, answer := range slot.Answers() {
		if Normalize(answer) == normalized {
			return true, canonical
		}
	}
	return false, canonical
}
