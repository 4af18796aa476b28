// Package ratelimit keeps one token bucket per client key.
//
// Both transports key limiters by client IP. Buckets idle for longer than
// the configured window are swept lazily on the request path, so the
// limiter owns no goroutines.
package ratelimit

import (
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/textnonce-go/pkg/cmap"
)

// DefaultIdleTimeout is how long an unused bucket is kept.
const DefaultIdleTimeout = 10 * time.Minute

// Limiter is a keyed collection of token buckets.
type Limiter struct {
	buckets *cmap.Map[string, *bucket]
	limit   rate.Limit
	burst   int
	idle    time.Duration
	now     func() time.Time

	lastSweep atomic.Int64
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen atomic.Int64
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithIdleTimeout sets how long unused buckets are kept.
func WithIdleTimeout(d time.Duration) Option {
	return func(l *Limiter) {
		if d > 0 {
			l.idle = d
		}
	}
}

// WithClock overrides the time source. Tests only.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter allowing rps events per second per key with the
// given burst.
func New(rps float64, burst int, opts ...Option) *Limiter {
	if burst < 1 {
		burst = 1
	}
	l := &Limiter{
		buckets: cmap.New[string, *bucket](),
		limit:   rate.Limit(rps),
		burst:   burst,
		idle:    DefaultIdleTimeout,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.lastSweep.Store(l.now().UnixNano())
	return l
}

// Allow reports whether an event for key may happen now.
func (l *Limiter) Allow(key string) bool {
	ok, _ := l.Reserve(key)
	return ok
}

// Reserve is Allow that also reports how long a rejected caller should wait
// before retrying.
func (l *Limiter) Reserve(key string) (bool, time.Duration) {
	now := l.now()
	l.maybeSweep(now)

	b, _ := l.buckets.GetOrSet(key, &bucket{limiter: rate.NewLimiter(l.limit, l.burst)})
	b.lastSeen.Store(now.UnixNano())

	r := b.limiter.ReserveN(now, 1)
	if !r.OK() {
		return false, time.Second
	}
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return false, delay
	}
	return true, 0
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	return l.buckets.Count()
}

func (l *Limiter) maybeSweep(now time.Time) {
	last := l.lastSweep.Load()
	if now.UnixNano()-last < int64(l.idle) {
		return
	}
	if !l.lastSweep.CompareAndSwap(last, now.UnixNano()) {
		return
	}
	l.Sweep(now)
}

// Sweep drops buckets not used since now minus the idle timeout and
// returns how many were removed.
func (l *Limiter) Sweep(now time.Time) int {
	cutoff := now.Add(-l.idle).UnixNano()
	return l.buckets.DeleteIf(func(_ string, b *bucket) bool {
		return b.lastSeen.Load() < cutoff
	})
}
