// Package stats owns the durable per-(user, variant) statistics record:
// streaks, bests, histories. Updates are idempotent per puzzle date and
// atomic against the local storage surface.
package stats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"reelplay/internal/clock"
	"reelplay/internal/models"
	"reelplay/internal/storage"
	"reelplay/internal/variant"
)

// Store manages the record for one (user scope, variant) pair. The
// in-memory record is updated before the local write suspends, so reads
// always reflect the newest apply; writes are serialized by the store's
// mutex so no apply can observe a half-written predecessor.
type Store struct {
	tag       models.Variant
	userScope string
	local     storage.Storage
	syncer    *Syncer
	log       *logrus.Logger
	now       func() time.Time

	mu     sync.Mutex
	record *models.UserStats
	extra  map[string]json.RawMessage
}

// New creates a store backed by the local storage surface. The syncer
// is optional; without one the record is local-only.
func New(tag models.Variant, userScope string, local storage.Storage, syncer *Syncer, log *logrus.Logger) *Store {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Store{
		tag:       tag,
		userScope: userScope,
		local:     local,
		syncer:    syncer,
		log:       log,
		now:       time.Now,
	}
}

// Load reads the record from local storage, migrating older snapshots.
// A missing record starts empty; a corrupt one is replaced and logged.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok, err := s.local.Get(ctx, s.key())
	if err != nil {
		s.log.WithError(err).Warn("stats load failed, starting empty")
	}
	if !ok || err != nil {
		s.record = models.NewUserStats(s.tag)
		s.extra = nil
		return nil
	}

	record, extra, err := Migrate(data, s.tag)
	if err != nil {
		s.log.WithError(err).Warn("stats record unreadable, starting empty")
		record = models.NewUserStats(s.tag)
		extra = nil
	}
	s.record = record
	s.extra = extra
	return nil
}

// Snapshot returns a deep copy of the current record.
func (s *Store) Snapshot() models.UserStats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureRecord().Clone()
}

// SyncFailed reports whether the remote push has been abandoned and the
// host should show the "stats may not sync" indicator.
func (s *Store) SyncFailed() bool {
	return s.syncer != nil && s.syncer.Failed()
}

// Apply folds a terminal outcome into the record. Re-completing a date
// already in the completed set is a no-op on streaks and bests but is
// still recorded in history as a replay.
func (s *Store) Apply(ctx context.Context, outcome models.GameOutcome, today string) (models.StatsDelta, error) {
	if err := validateOutcome(outcome); err != nil {
		return models.StatsDelta{}, err
	}

	s.mu.Lock()
	record := s.ensureRecord()

	replay := outcome.Won && record.Completed(outcome.PuzzleDate)
	var delta models.StatsDelta

	switch {
	case replay:
		delta = models.StatsDelta{
			NewCurrentStreak: record.CurrentStreak,
			NewBestStreak:    record.BestStreak,
			Replay:           true,
		}
	case outcome.Won:
		record.GamesPlayed++
		record.GamesWon++
		record.MarkCompleted(outcome.PuzzleDate)

		if record.LastCompletedDate == "" || outcome.PuzzleDate > record.LastCompletedDate {
			record.LastCompletedDate = outcome.PuzzleDate
		}
		// Streaks are derived from the completed set so that applying
		// outcomes in any order converges on the same streak values: an
		// archive win that fills a gap joins the runs on both sides.
		record.CurrentStreak = runEndingAt(record, record.LastCompletedDate)
		if run := runContaining(record, outcome.PuzzleDate); run > record.BestStreak {
			record.BestStreak = run
		}
		if record.CurrentStreak > record.BestStreak {
			record.BestStreak = record.CurrentStreak
		}

		delta = models.StatsDelta{
			NewCurrentStreak:      record.CurrentStreak,
			NewBestStreak:         record.BestStreak,
			FirstCompletionOfDate: true,
		}
		if record.BestTimeMs == 0 || outcome.TimeMs < record.BestTimeMs {
			record.BestTimeMs = outcome.TimeMs
			delta.NewBestTimeMs = outcome.TimeMs
		}
		record.TotalTimeMs += outcome.TimeMs
		if outcome.Perfect {
			record.PerfectSolves++
		}
	default:
		record.GamesPlayed++
		// A definitive miss on today's puzzle breaks the streak unless
		// yesterday's completion still covers it. Archive losses never
		// touch the streak.
		if outcome.PuzzleDate == today && record.LastCompletedDate != clock.Yesterday(today) &&
			record.LastCompletedDate != today {
			record.CurrentStreak = 0
		}
		delta = models.StatsDelta{
			NewCurrentStreak: record.CurrentStreak,
			NewBestStreak:    record.BestStreak,
		}
	}

	record.HintsUsedTotal += outcome.HintsUsed
	record.AppendHistory(outcome)
	record.UpdatedAt = s.now()
	// Deep copy: persist marshals outside the lock and the syncer reads
	// from its own goroutine, so the snapshot must not alias the record's
	// slices.
	snapshot := record.Clone()
	s.mu.Unlock()

	s.persist(ctx, &snapshot)
	return delta, nil
}

// Reconcile is the cold-start pass: when the last completed date is
// neither today nor yesterday the current streak drops to zero. This is
// the only way a streak erodes without an explicit outcome.
func (s *Store) Reconcile(ctx context.Context, today string) error {
	s.mu.Lock()
	record := s.ensureRecord()
	if record.CurrentStreak == 0 ||
		record.LastCompletedDate == today ||
		record.LastCompletedDate == clock.Yesterday(today) {
		s.mu.Unlock()
		return nil
	}
	record.CurrentStreak = 0
	record.UpdatedAt = s.now()
	snapshot := record.Clone()
	s.mu.Unlock()

	s.persist(ctx, &snapshot)
	return nil
}

// ReplaceFromRemote overwrites the local record with the authoritative
// remote row. Callers apply the conflict rule (newer updated_at or
// strictly more games played) before calling.
func (s *Store) ReplaceFromRemote(ctx context.Context, remote models.UserStats) {
	s.mu.Lock()
	remote.SchemaVersion = models.StatsSchemaVersion
	remote.Variant = s.tag
	s.record = &remote
	s.extra = nil
	snapshot := remote.Clone()
	s.mu.Unlock()

	s.persist(ctx, &snapshot)
}

// persist writes the record locally and enqueues the best-effort remote
// push. A local failure is logged, not surfaced: outcome display must
// never block on storage.
func (s *Store) persist(ctx context.Context, snapshot *models.UserStats) {
	data, err := s.marshal(snapshot)
	if err != nil {
		s.log.WithError(err).Error("stats record marshal failed")
		return
	}
	if err := s.local.Set(ctx, s.key(), data); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{
			"variant": string(s.tag),
			"scope":   s.userScope,
		}).Warn("stats local write failed, continuing in memory")
	}
	if s.syncer != nil {
		s.syncer.Enqueue(snapshot)
	}
}

// marshal merges preserved unknown fields back into the document.
func (s *Store) marshal(record *models.UserStats) ([]byte, error) {
	if len(s.extra) == 0 {
		return json.Marshal(record)
	}
	known, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	doc := make(map[string]json.RawMessage)
	for k, v := range s.extra {
		doc[k] = v
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range fields {
		doc[k] = v
	}
	return json.Marshal(doc)
}

func (s *Store) ensureRecord() *models.UserStats {
	if s.record == nil {
		s.record = models.NewUserStats(s.tag)
	}
	return s.record
}

func (s *Store) key() string {
	return storage.StatsKey(s.tag, s.userScope)
}

// validateOutcome rejects outcomes no correct session could emit. These
// are programming errors, fatal for the current session.
func validateOutcome(outcome models.GameOutcome) error {
	rules, err := variant.ForTag(outcome.Variant)
	if err != nil {
		return err
	}
	if outcome.Mistakes < 0 || outcome.Mistakes > rules.MaxMistakes {
		return fmt.Errorf("invariant violated: outcome mistakes %d outside [0,%d] for %s",
			outcome.Mistakes, rules.MaxMistakes, outcome.Variant)
	}
	if outcome.TimeMs < 0 {
		return fmt.Errorf("invariant violated: negative outcome time %d", outcome.TimeMs)
	}
	return nil
}
