// Package clock is the source of truth for "today's puzzle date" in the
// player's local timezone, and for the midnight rollover that advances it.
package clock

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// DateFormat is the canonical puzzle-date layout.
const DateFormat = "2006-01-02"

// Calendar derives the local puzzle date from a wall clock. Puzzles roll
// over at the player's local midnight, never at UTC midnight.
type Calendar struct {
	now func() time.Time
	log *logrus.Logger

	mu        sync.Mutex
	lastKnown string
	timer     *time.Timer
	subs      []func(date string)
}

// New returns a Calendar reading the system clock.
func New(log *logrus.Logger) *Calendar {
	return NewWithNow(time.Now, log)
}

// NewWithNow returns a Calendar with an injectable clock, for tests and
// for hosts that supply their own time source.
func NewWithNow(now func() time.Time, log *logrus.Logger) *Calendar {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Calendar{now: now, log: log}
}

// Today returns the current local date as YYYY-MM-DD. If the wall clock
// is unset it returns the last known date and logs a warning; it never
// fails.
func (c *Calendar) Today() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	t := c.now()
	if t.IsZero() {
		c.log.Warn("wall clock unset, using last known date")
		return c.lastKnown
	}
	c.lastKnown = t.Format(DateFormat)
	return c.lastKnown
}

// Yesterday returns the local date one day before the given date. Day
// arithmetic is done in the local calendar so DST transitions cannot
// skip a date.
func Yesterday(date string) string {
	return AddDays(date, -1)
}

// AddDays shifts a YYYY-MM-DD date by n calendar days. An unparseable
// date is returned unchanged.
func AddDays(date string, n int) string {
	t, err := time.ParseInLocation(DateFormat, date, time.Local)
	if err != nil {
		return date
	}
	return t.AddDate(0, 0, n).Format(DateFormat)
}

// SubscribeMidnight registers cb to fire at the next local midnight with
// the new date. The timer re-arms itself after each fire.
func (c *Calendar) SubscribeMidnight(cb func(date string)) {
	c.mu.Lock()
	c.subs = append(c.subs, cb)
	first := len(c.subs) == 1
	c.mu.Unlock()
	if first {
		c.arm()
	}
}

// Rearm recomputes the time until the next local midnight. Hosts call it
// on resume from suspend or after a timezone change, when a previously
// armed timer may be aimed at the wrong instant.
func (c *Calendar) Rearm() {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	hasSubs := len(c.subs) > 0
	c.mu.Unlock()
	if hasSubs {
		c.arm()
	}
}

// Stop cancels the midnight timer.
func (c *Calendar) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Calendar) arm() {
	t := c.now()
	if t.IsZero() {
		c.log.Warn("wall clock unset, midnight timer not armed")
		return
	}
	next := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()).AddDate(0, 0, 1)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.timer = time.AfterFunc(next.Sub(t), c.fire)
}

func (c *Calendar) fire() {
	date := c.Today()

	c.mu.Lock()
	subs := make([]func(string), len(c.subs))
	copy(subs, c.subs)
	c.mu.Unlock()

	for _, cb := range subs {
		cb(date)
	}
	c.arm()
}
