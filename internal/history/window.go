// Package history keeps the bounded, time-evicting observation window the
// forecast engine trains on. The window is unbounded in count but bounded in
// time span; eviction happens lazily on append, never mid-read.
package history

import (
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
)

// DefaultRetention is the time horizon observations are kept for.
const DefaultRetention = 24 * time.Hour

// Window is an ordered sequence of observations, insertion order equal to
// chronological order. Safe for concurrent use: the tick path appends while
// a training run may still be reading a slice it copied out earlier.
type Window struct {
	mu           sync.RWMutex
	observations []domain.Observation
	retention    time.Duration
	clock        clockwork.Clock
}

// New creates a Window with the given retention horizon. A nil clock falls
// back to the real clock; a non-positive retention falls back to the default.
func New(retention time.Duration, clock clockwork.Clock) *Window {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Window{
		retention: retention,
		clock:     clock,
	}
}

// Append stores an observation and evicts everything older than the
// retention horizon measured from the current clock time.
func (w *Window) Append(obs domain.Observation) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.observations = append(w.observations, obs)
	w.evictOlderThan(w.clock.Now().Add(-w.retention))
}

// evictOlderThan drops leading observations captured before cutoff. Callers
// must hold the write lock. Insertion order is chronological, so eviction
// only ever trims the front.
func (w *Window) evictOlderThan(cutoff time.Time) {
	keep := 0
	for keep < len(w.observations) && w.observations[keep].CapturedAt.Before(cutoff) {
		keep++
	}
	if keep == 0 {
		return
	}
	w.observations = append([]domain.Observation(nil), w.observations[keep:]...)
}

// Recent returns the most recent n observations in chronological order, or
// fewer if the window is shorter. Never an error: callers must tolerate a
// short window during warm-up.
func (w *Window) Recent(n int) []domain.Observation {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if n <= 0 {
		return nil
	}
	if n > len(w.observations) {
		n = len(w.observations)
	}
	out := make([]domain.Observation, n)
	copy(out, w.observations[len(w.observations)-n:])
	return out
}

// All returns a copy of the full window in chronological order.
func (w *Window) All() []domain.Observation {
	w.mu.RLock()
	defer w.mu.RUnlock()

	out := make([]domain.Observation, len(w.observations))
	copy(out, w.observations)
	return out
}

// Size returns the current number of retained observations.
func (w *Window) Size() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.observations)
}
