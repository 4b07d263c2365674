// Package clock owns the countdown timers that force-submit attempts whose
// time limit expires. The timer is an explicit event source: arming returns
// nothing, expiry invokes the registered callback exactly once, and Cancel is
// a first-class operation invoked on every transition out of an in-progress
// session.
package clock

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ExpireFunc is invoked when an attempt's time runs out. It receives the
// attempt id whose timer fired.
type ExpireFunc func(attemptID uuid.UUID)

// SessionClock tracks at most one timer per attempt. A timer fires at most
// once; re-arming an attempt replaces its previous timer.
type SessionClock struct {
	mu     sync.Mutex
	timers map[uuid.UUID]*time.Timer
	log    zerolog.Logger
}

// New creates an empty SessionClock.
func New(log zerolog.Logger) *SessionClock {
	return &SessionClock{
		timers: make(map[uuid.UUID]*time.Timer),
		log:    log.With().Str("component", "session_clock").Logger(),
	}
}

// Arm schedules fn to run after d. Any existing timer for the attempt is
// stopped first, so the latest deadline wins.
func (c *SessionClock) Arm(attemptID uuid.UUID, d time.Duration, fn ExpireFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[attemptID]; ok {
		t.Stop()
	}

	c.timers[attemptID] = time.AfterFunc(d, func() {
		// Deregister before running so a slow callback cannot be
		// cancelled into a second fire.
		c.mu.Lock()
		delete(c.timers, attemptID)
		c.mu.Unlock()

		c.log.Info().
			Str("attempt_id", attemptID.String()).
			Msg("Session time expired, forcing submission")
		fn(attemptID)
	})

	c.log.Debug().
		Str("attempt_id", attemptID.String()).
		Dur("duration", d).
		Msg("Timer armed")
}

// Cancel stops and removes the attempt's timer. Safe to call when no timer
// exists (manual submit racing expiry, double submits).
func (c *SessionClock) Cancel(attemptID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[attemptID]; ok {
		t.Stop()
		delete(c.timers, attemptID)
	}
}

// Active returns the number of armed timers.
func (c *SessionClock) Active() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}

// Shutdown stops every timer without firing.
func (c *SessionClock) Shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
}
