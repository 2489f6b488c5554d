// Package storage is the local persistence surface handed to the stats
// store: a small async key/value API with a fallback chain, mirroring
// the preferred / indexed / in-memory tiers a browser host provides.
package storage

import (
	"context"
	"errors"
	"fmt"

	"reelplay/internal/models"
)

// ErrUnavailable is returned when every storage tier has failed. The
// core keeps running in memory-only mode when it sees this.
var ErrUnavailable = errors.New("storage unavailable")

// Storage is the key/value surface. Values are JSON documents; the key
// namespace is reserved to the core.
type Storage interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte) error
	Remove(ctx context.Context, key string) error
}

// StatsKey names the per-(variant, user scope) stats record.
func StatsKey(variant models.Variant, userScope string) string {
	return fmt.Sprintf("%s:stats:%s", variant, userScope)
}

// SessionKey names a resumable session snapshot.
func SessionKey(variant models.Variant, userScope, puzzleDate string) string {
	return fmt.Sprintf("%s:session:%s:%s", variant, userScope, puzzleDate)
}

// Preference keys.
const (
	KeyKeyboardLayout = "prefs:keyboard_layout"
	KeySoundEnabled   = "prefs:sound_enabled"
	KeyTheme          = "prefs:theme"
)
