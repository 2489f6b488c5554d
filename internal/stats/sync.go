package stats

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"reelplay/internal/models"
)

// ErrFatal marks a permanent remote failure (a 4xx). Wrapped errors
// carrying it are reported once and never retried.
var ErrFatal = errors.New("permanent remote error")

// Remote pushes a stats record to the row of record on the service.
type Remote interface {
	PushStats(ctx context.Context, record *models.UserStats) error
}

const (
	syncInitialBackoff = 1 * time.Second
	syncMaxBackoff     = 30 * time.Second
	syncMaxAttempts    = 6
	syncAttemptTimeout = 10 * time.Second
)

// Syncer pushes records to the remote row best-effort: retries with
// exponential backoff, then gives up and raises the "stats may not
// sync" flag. Enqueues made while a push is in flight collapse to the
// latest record.
type Syncer struct {
	remote Remote
	log    *logrus.Logger

	// sleep is swapped out in tests.
	sleep func(time.Duration)

	mu       sync.Mutex
	pending  *models.UserStats
	inflight bool
	failed   bool
	wg       sync.WaitGroup
}

// NewSyncer returns a syncer for the remote row of record.
func NewSyncer(remote Remote, log *logrus.Logger) *Syncer {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Syncer{remote: remote, log: log, sleep: time.Sleep}
}

// Enqueue schedules a push of the record. Never blocks. The record is
// deep-copied up front so the caller may keep mutating it while the
// push is in flight.
func (s *Syncer) Enqueue(record *models.UserStats) {
	if s == nil || s.remote == nil {
		return
	}
	snapshot := record.Clone()

	s.mu.Lock()
	s.pending = &snapshot
	if s.inflight {
		s.mu.Unlock()
		return
	}
	s.inflight = true
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run()
}

// Failed reports whether the last push was abandoned after exhausting
// its retry budget. A later successful push clears the flag.
func (s *Syncer) Failed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// Wait blocks until the queue drains. Test and shutdown helper.
func (s *Syncer) Wait() {
	s.wg.Wait()
}

func (s *Syncer) run() {
	defer s.wg.Done()
	for {
		s.mu.Lock()
		record := s.pending
		s.pending = nil
		if record == nil {
			s.inflight = false
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()

		s.push(record)
	}
}

func (s *Syncer) push(record *models.UserStats) {
	backoff := syncInitialBackoff
	for attempt := 1; attempt <= syncMaxAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), syncAttemptTimeout)
		err := s.remote.PushStats(ctx, record)
		cancel()
		if err == nil {
			s.mu.Lock()
			s.failed = false
			s.mu.Unlock()
			return
		}

		s.log.WithError(err).WithFields(logrus.Fields{
			"variant": string(record.Variant),
			"attempt": attempt,
		}).Warn("stats push failed")

		if errors.Is(err, ErrFatal) || attempt == syncMaxAttempts {
			break
		}
		s.sleep(backoff)
		backoff *= 2
		if backoff > syncMaxBackoff {
			backoff = syncMaxBackoff
		}
	}

	s.mu.Lock()
	s.failed = true
	s.mu.Unlock()
	s.log.WithField("variant", string(record.Variant)).Warn("stats push abandoned, stats may not sync")
}
