package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// Chain tries storage tiers in order and demotes to the next tier when
// the active one fails. With a MemoryStore at the end the chain never
// fails outright; the core keeps running and the host shows a warning.
type Chain struct {
	log *logrus.Logger

	mu     sync.Mutex
	tiers  []Storage
	active int
}

// NewChain builds a fallback chain. Tiers are ordered most to least
// preferred; callers normally finish with NewMemoryStore().
func NewChain(log *logrus.Logger, tiers ...Storage) *Chain {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Chain{log: log, tiers: tiers}
}

// DefaultChain assembles the standard three tiers rooted at dir. A tier
// that cannot even be constructed is skipped with a warning.
func DefaultChain(dir string, log *logrus.Logger) *Chain {
	if log == nil {
		log = logrus.StandardLogger()
	}
	var tiers []Storage
	if fileStore, err := NewFileStore(dir); err != nil {
		log.WithError(err).Warn("file storage unavailable")
	} else {
		tiers = append(tiers, fileStore)
	}
	if kv, err := NewSQLiteStore(dir + "/reelplay_kv.db"); err != nil {
		log.WithError(err).Warn("indexed storage unavailable")
	} else {
		tiers = append(tiers, kv)
	}
	tiers = append(tiers, NewMemoryStore())
	return NewChain(log, tiers...)
}

// Degraded reports whether the chain has fallen back to its last tier.
func (c *Chain) Degraded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active == len(c.tiers)-1 && len(c.tiers) > 1
}

func (c *Chain) current() (Storage, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tiers[c.active], c.active
}

func (c *Chain) demote(from int, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active != from || c.active >= len(c.tiers)-1 {
		return
	}
	c.active++
	c.log.WithError(err).Warnf("storage tier %d failed, falling back to tier %d", from, c.active)
}

// callerCancelled reports errors that blame the caller's context rather
// than the tier. They surface as-is and never demote.
func callerCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func (c *Chain) Get(ctx context.Context, key string) ([]byte, bool, error) {
	for {
		tier, idx := c.current()
		value, ok, err := tier.Get(ctx, key)
		if err == nil {
			return value, ok, nil
		}
		if callerCancelled(err) {
			return nil, false, err
		}
		if idx >= len(c.tiers)-1 {
			return nil, false, ErrUnavailable
		}
		c.demote(idx, err)
	}
}

func (c *Chain) Set(ctx context.Context, key string, value []byte) error {
	for {
		tier, idx := c.current()
		err := tier.Set(ctx, key, value)
		if err == nil {
			return nil
		}
		if callerCancelled(err) {
			return err
		}
		if idx >= len(c.tiers)-1 {
			return ErrUnavailable
		}
		c.demote(idx, err)
	}
}

func (c *Chain) Remove(ctx context.Context, key string) error {
	for {
		tier, idx := c.current()
		err := tier.Remove(ctx, key)
		if err == nil {
			return nil
		}
		if callerCancelled(err) {
			return err
		}
		if idx >= len(c.tiers)-1 {
			return ErrUnavailable
		}
		c.demote(idx, err)
	}
}
