// Package game wires the core together for a host: it loads the day's
// puzzle, owns the active session, folds outcomes into stats and
// triggers leaderboard submissions. Hosts receive state changes and
// outcomes through callbacks and never touch the plumbing directly.
package game

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"reelplay/internal/clock"
	"reelplay/internal/leaderboard"
	"reelplay/internal/models"
	"reelplay/internal/puzzle"
	"reelplay/internal/session"
	"reelplay/internal/share"
	"reelplay/internal/stats"
	"reelplay/internal/storage"
	"reelplay/internal/variant"
)

const deviceIDKey = "device_id"

// Coordinator is the host-facing facade over the session, stats and
// leaderboard components. All methods are driven from the host's single
// task queue.
type Coordinator struct {
	cal      *clock.Calendar
	provider puzzle.Provider
	local    storage.Storage
	boards   *leaderboard.Client
	identity func() models.Identity
	log      *logrus.Logger

	deviceID string
	stores   map[models.Variant]*stats.Store
	current  *session.Session

	// OnStateChange fires after every successful session mutation.
	OnStateChange func(*session.Session)
	// OnOutcome fires once per session with the outcome and the stats
	// delta it produced.
	OnOutcome func(models.GameOutcome, models.StatsDelta)
}

// NewCoordinator assembles the core. identity is the host's auth
// context, consulted on every operation.
func NewCoordinator(cal *clock.Calendar, provider puzzle.Provider, local storage.Storage,
	boards *leaderboard.Client, identity func() models.Identity, log *logrus.Logger) (*Coordinator, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}
	c := &Coordinator{
		cal:      cal,
		provider: provider,
		local:    local,
		boards:   boards,
		identity: identity,
		log:      log,
		stores:   make(map[models.Variant]*stats.Store),
	}
	if err := c.loadDeviceID(context.Background()); err != nil {
		return nil, err
	}
	cal.SubscribeMidnight(func(date string) {
		c.reconcileAll(context.Background(), date)
	})
	return c, nil
}

// loadDeviceID reads or mints the stable device-local id that scopes
// anonymous stats.
func (c *Coordinator) loadDeviceID(ctx context.Context) error {
	data, ok, err := c.local.Get(ctx, deviceIDKey)
	if err == nil && ok && len(data) > 0 {
		c.deviceID = string(data)
		return nil
	}
	c.deviceID = uuid.NewString()
	if err := c.local.Set(ctx, deviceIDKey, []byte(c.deviceID)); err != nil {
		c.log.WithError(err).Warn("device id not persisted, anonymous stats will not survive restart")
	}
	return nil
}

// userScope is the storage namespace for the current identity.
func (c *Coordinator) userScope() string {
	return c.identity().UserScope(c.deviceID)
}

// Stats returns the loaded store for a variant, creating it on first use.
func (c *Coordinator) Stats(ctx context.Context, tag models.Variant) (*stats.Store, error) {
	if store, ok := c.stores[tag]; ok {
		return store, nil
	}
	var syncer *stats.Syncer
	if c.boards != nil {
		syncer = stats.NewSyncer(c.boards, c.log)
	}
	store := stats.New(tag, c.userScope(), c.local, syncer, c.log)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	c.stores[tag] = store
	return store, nil
}

// StartDaily loads today's puzzle for the variant and hands back a
// running-ready session, resuming a saved snapshot when one exists.
func (c *Coordinator) StartDaily(ctx context.Context, rules variant.Config, now time.Time) (*session.Session, error) {
	today := c.cal.Today()
	descriptor, err := c.provider.GetPuzzle(ctx, rules.Tag, today)
	if err != nil {
		return nil, fmt.Errorf("no puzzle for %s on %s: %w", rules.Tag, today, err)
	}

	sess, err := c.resume(ctx, rules, descriptor, now)
	if err != nil {
		c.log.WithError(err).Warn("saved session unusable, starting fresh")
		sess = nil
	}
	if sess == nil {
		sess, err = session.New(rules, descriptor)
		if err != nil {
			return nil, err
		}
	}

	sess.OnOutcome(func(outcome models.GameOutcome) {
		c.handleOutcome(ctx, outcome)
	})
	c.current = sess
	return sess, nil
}

// Current returns the active session, if any.
func (c *Coordinator) Current() *session.Session { return c.current }

// NotifyStateChange forwards a session mutation to the host. The host
// calls it after each action it applies.
func (c *Coordinator) NotifyStateChange() {
	if c.OnStateChange != nil && c.current != nil {
		c.OnStateChange(c.current)
	}
}

// SaveSession persists the current session snapshot for resume (or for
// reviewing a completed puzzle).
func (c *Coordinator) SaveSession(ctx context.Context, now time.Time) error {
	if c.current == nil {
		return nil
	}
	snap := c.current.Snapshot(now)
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	key := storage.SessionKey(snap.Variant, c.userScope(), snap.PuzzleDate)
	return c.local.Set(ctx, key, data)
}

// Abandon ends the current session without an outcome and drops its
// saved snapshot's running state.
func (c *Coordinator) Abandon(ctx context.Context, now time.Time) error {
	if c.current == nil {
		return nil
	}
	if err := c.current.Abandon(now); err != nil {
		return err
	}
	return c.SaveSession(ctx, now)
}

func (c *Coordinator) resume(ctx context.Context, rules variant.Config, descriptor *models.PuzzleDescriptor, now time.Time) (*session.Session, error) {
	key := storage.SessionKey(rules.Tag, c.userScope(), descriptor.Date)
	data, ok, err := c.local.Get(ctx, key)
	if err != nil || !ok {
		return nil, err
	}
	var snap session.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Status == session.StatusAbandoned {
		return nil, nil
	}
	return session.Restore(rules, descriptor, snap, now)
}

// handleOutcome folds the terminal outcome into stats and conditionally
// submits both leaderboards. Submission is fire-and-forget; the stats
// apply is never cancelled.
func (c *Coordinator) handleOutcome(ctx context.Context, outcome models.GameOutcome) {
	// The outcome may arrive after the context that started the session
	// is done; the apply and the snapshot write must still go through.
	ctx = context.WithoutCancel(ctx)
	today := c.cal.Today()
	store, err := c.Stats(ctx, outcome.Variant)
	if err != nil {
		c.log.WithError(err).Error("stats store unavailable for outcome")
		return
	}
	delta, err := store.Apply(ctx, outcome, today)
	if err != nil {
		c.log.WithError(err).Error("outcome rejected by stats store")
		return
	}

	if c.boards != nil {
		c.boards.SubmitDaily(outcome, today)
		if delta.NewBestStreak > 0 {
			c.boards.SubmitStreak(outcome.Variant, delta.NewBestStreak)
		}
	}
	if err := c.SaveSession(ctx, time.Now()); err != nil {
		c.log.WithError(err).Warn("completed session snapshot not saved")
	}
	if c.OnOutcome != nil {
		c.OnOutcome(outcome, delta)
	}
}

// Reconcile runs the cold-start streak check for every variant.
func (c *Coordinator) Reconcile(ctx context.Context) {
	c.reconcileAll(ctx, c.cal.Today())
}

func (c *Coordinator) reconcileAll(ctx context.Context, today string) {
	for _, tag := range []models.Variant{models.VariantEmojiPair, models.VariantMini, models.VariantGrouping} {
		store, err := c.Stats(ctx, tag)
		if err != nil {
			c.log.WithError(err).WithField("variant", string(tag)).Warn("reconcile skipped")
			continue
		}
		if err := store.Reconcile(ctx, today); err != nil {
			c.log.WithError(err).WithField("variant", string(tag)).Warn("reconcile failed")
		}
	}
}

// OnLogin adopts the authenticated identity: the remote row of record
// wins over the local cache when it is newer or has strictly more games
// played, and anonymously accrued stats merge in additively.
func (c *Coordinator) OnLogin(ctx context.Context) {
	anonScope := "anon:" + c.deviceID
	c.stores = make(map[models.Variant]*stats.Store)

	for _, tag := range []models.Variant{models.VariantEmojiPair, models.VariantMini, models.VariantGrouping} {
		store, err := c.Stats(ctx, tag)
		if err != nil {
			c.log.WithError(err).WithField("variant", string(tag)).Warn("login stats load failed")
			continue
		}
		local := store.Snapshot()

		if c.boards != nil {
			remote, err := c.boards.FetchStats(ctx, tag)
			if err != nil {
				c.log.WithError(err).WithField("variant", string(tag)).Warn("remote stats fetch failed")
			} else if remote != nil &&
				(remote.UpdatedAt.After(local.UpdatedAt) || remote.GamesPlayed > local.GamesPlayed) {
				store.ReplaceFromRemote(ctx, *remote)
				local = store.Snapshot()
			}
		}

		anon := stats.New(tag, anonScope, c.local, nil, c.log)
		if err := anon.Load(ctx); err == nil {
			anonRecord := anon.Snapshot()
			if anonRecord.GamesPlayed > 0 {
				merged := stats.Merge(local, anonRecord)
				store.ReplaceFromRemote(ctx, merged)
			}
		}
	}
}

// ShareText renders the share text for an outcome.
func (c *Coordinator) ShareText(outcome models.GameOutcome) string {
	return share.Text(outcome)
}

// Prefs loads device preferences, falling back to defaults.
func (c *Coordinator) Prefs(ctx context.Context) models.Prefs {
	prefs := models.DefaultPrefs()
	if data, ok, err := c.local.Get(ctx, storage.KeyKeyboardLayout); err == nil && ok {
		prefs.KeyboardLayout = string(data)
	}
	if data, ok, err := c.local.Get(ctx, storage.KeySoundEnabled); err == nil && ok {
		prefs.SoundEnabled = string(data) == "true"
	}
	if data, ok, err := c.local.Get(ctx, storage.KeyTheme); err == nil && ok {
		prefs.Theme = string(data)
	}
	return prefs
}

// SavePrefs persists device preferences.
func (c *Coordinator) SavePrefs(ctx context.Context, prefs models.Prefs) error {
	if err := c.local.Set(ctx, storage.KeyKeyboardLayout, []byte(prefs.KeyboardLayout)); err != nil {
		return err
	}
	sound := "false"
	if prefs.SoundEnabled {
		sound = "true"
	}
	if err := c.local.Set(ctx, storage.KeySoundEnabled, []byte(sound)); err != nil {
		return err
	}
	return c.local.Set(ctx, storage.KeyTheme, []byte(prefs.Theme))
}
