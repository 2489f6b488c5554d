package share

import (
	"testing"

	"reelplay/internal/models"
)

func TestGroupingShareText(t *testing.T) {
	outcome := models.GameOutcome{
		Variant:    models.VariantGrouping,
		PuzzleDate: "2025-11-05",
		Won:        true,
		TimeMs:     161000,
		Mistakes:   0,
	}
	expected := "Reel Connections 11/5/2025\nYou won!\n🍿🍿🍿🍿\nTime: 2:41"
	if got := Text(outcome); got != expected {
		t.Errorf("Text() = %q, want %q", got, expected)
	}
}

func TestGroupingShareTextWithMistakes(t *testing.T) {
	outcome := models.GameOutcome{
		Variant:    models.VariantGrouping,
		PuzzleDate: "2025-01-09",
		Won:        false,
		TimeMs:     59999,
		Mistakes:   4,
	}
	expected := "Reel Connections 1/9/2025\nSo close!\n❌❌❌❌\nTime: 0:59"
	if got := Text(outcome); got != expected {
		t.Errorf("Text() = %q, want %q", got, expected)
	}
}

func TestEmojiPairShareText(t *testing.T) {
	outcome := models.GameOutcome{
		Variant:    models.VariantEmojiPair,
		PuzzleDate: "2025-11-05",
		Won:        true,
		TimeMs:     83000,
		Mistakes:   2,
		HintsUsed:  1,
	}
	expected := "Reel Pairs 11/5/2025\nYou won!\n❌❌🎬🎬\nHints: 1\nTime: 1:23"
	if got := Text(outcome); got != expected {
		t.Errorf("Text() = %q, want %q", got, expected)
	}
}

func TestEmojiPairShareTextOmitsZeroHints(t *testing.T) {
	outcome := models.GameOutcome{
		Variant:    models.VariantEmojiPair,
		PuzzleDate: "2025-11-05",
		Won:        true,
		TimeMs:     60000,
	}
	expected := "Reel Pairs 11/5/2025\nYou won!\n🎬🎬🎬🎬\nTime: 1:00"
	if got := Text(outcome); got != expected {
		t.Errorf("Text() = %q, want %q", got, expected)
	}
}

func TestMiniShareTextPerfect(t *testing.T) {
	outcome := models.GameOutcome{
		Variant:    models.VariantMini,
		PuzzleDate: "2025-11-05",
		Won:        true,
		TimeMs:     45000,
		Perfect:    true,
	}
	expected := "Reel Mini 11/5/2025\nYou won!\nTime: 0:45\nFlawless! ⭐"
	if got := Text(outcome); got != expected {
		t.Errorf("Text() = %q, want %q", got, expected)
	}
}

func TestClock(t *testing.T) {
	tests := []struct {
		ms       int64
		expected string
	}{
		{ms: 0, expected: "0:00"},
		{ms: 999, expected: "0:00"},
		{ms: 1000, expected: "0:01"},
		{ms: 61000, expected: "1:01"},
		{ms: 600000, expected: "10:00"},
	}
	for _, tt := range tests {
		if got := Clock(tt.ms); got != tt.expected {
			t.Errorf("Clock(%d) = %q, want %q", tt.ms, got, tt.expected)
		}
	}
}
