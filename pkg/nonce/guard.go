package nonce

import (
	"sync"
	"time"
)

// Clock supplies wall-clock readings to a Guard.
type Clock interface {
	Now() Instant
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() Instant

// Now calls f.
func (f ClockFunc) Now() Instant { return f() }

// SystemClock reads time.Now.
type SystemClock struct{}

// Now returns the current wall-clock instant.
func (SystemClock) Now() Instant { return InstantOf(time.Now()) }

// GuardStats counts how often the wall clock failed to advance.
type GuardStats struct {
	// Issued is the number of instants handed out.
	Issued uint64
	// Stalls counts readings equal to the last issued instant.
	Stalls uint64
	// Regressions counts readings earlier than the last issued instant.
	Regressions uint64
}

// Guard turns wall-clock readings into a strictly increasing sequence of
// instants. It is safe for concurrent use.
//
// When the clock has not advanced, or has moved backwards, since the last
// call, the guard issues the last instant plus one nanosecond instead.
type Guard struct {
	clock Clock

	mu          sync.Mutex
	last        Instant
	initialized bool
	stats       GuardStats
}

// NewGuard creates a guard reading from clock. A nil clock means SystemClock.
func NewGuard(clock Clock) *Guard {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Guard{clock: clock}
}

// Next returns an instant strictly later than every instant previously
// returned by this guard.
func (g *Guard) Next() Instant {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now()
	g.stats.Issued++

	if !g.initialized {
		g.last = now
		g.initialized = true
		return now
	}

	switch now.Compare(g.last) {
	case 1:
		g.last = now
	case 0:
		g.stats.Stalls++
		g.last = g.last.Next()
	default:
		g.stats.Regressions++
		g.last = g.last.Next()
	}
	return g.last
}

// Last returns the most recently issued instant. ok is false until the first
// call to Next or Seed.
func (g *Guard) Last() (last Instant, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.last, g.initialized
}

// Seed raises the last issued instant to mark if mark is later. Instants
// issued afterwards are strictly later than mark. Seed never lowers state.
func (g *Guard) Seed(mark Instant) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.initialized || g.last.Before(mark) {
		g.last = mark
		g.initialized = true
	}
}

// Reset forgets all state. The next call to Next behaves like the first.
func (g *Guard) Reset() {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.last = Instant{}
	g.initialized = false
	g.stats = GuardStats{}
}

// Stats returns a snapshot of the guard counters.
func (g *Guard) Stats() GuardStats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}
