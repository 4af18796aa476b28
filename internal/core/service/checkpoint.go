package service

import (
	"context"
	"sync"
	"time"

	"github.com/yndnr/textnonce-go/internal/core/domain"
	"github.com/yndnr/textnonce-go/internal/telemetry/logger"
	"github.com/yndnr/textnonce-go/internal/telemetry/metric"
	"github.com/yndnr/textnonce-go/pkg/nonce"
)

// CheckpointStore persists the guard's high-water mark.
type CheckpointStore interface {
	// LoadMark returns the stored mark; ok is false when none was saved.
	LoadMark(ctx context.Context) (mark nonce.Instant, ok bool, err error)
	// SaveMark stores mark unless a later one is already stored.
	SaveMark(ctx context.Context, mark nonce.Instant) error
}

// DefaultMaxCheckpointFailures is how many consecutive failed saves a
// Checkpointer tolerates before Healthy reports an error.
const DefaultMaxCheckpointFailures = 3

// Checkpointer periodically saves guard.Last() and restores it on startup.
//
// Instants issued between the last save and a crash are at most one interval
// past the stored mark, so Restore seeds the guard with mark+interval. That
// bound only holds while saves succeed: every failed tick lets the stored
// mark fall a further interval behind. Consecutive failures are counted and
// Healthy turns into an error once they reach the configured maximum, so the
// process can be taken out of rotation before the restart guarantee is
// relied upon.
type Checkpointer struct {
	store       CheckpointStore
	guard       *nonce.Guard
	interval    time.Duration
	maxFailures int
	log         logger.Logger
	metrics     *metric.Registry

	mu       sync.Mutex
	saved    nonce.Instant
	failures int
	stopCh   chan struct{}
	doneCh   chan struct{}
	running  bool
}

// CheckpointerOption configures a Checkpointer.
type CheckpointerOption func(*Checkpointer)

// WithCheckpointLogger sets the logger.
func WithCheckpointLogger(l logger.Logger) CheckpointerOption {
	return func(c *Checkpointer) { c.log = l }
}

// WithCheckpointMetrics records save outcomes into r.
func WithCheckpointMetrics(r *metric.Registry) CheckpointerOption {
	return func(c *Checkpointer) { c.metrics = r }
}

// WithMaxCheckpointFailures sets how many consecutive failed saves are
// tolerated before Healthy fails. Values below 1 are ignored.
func WithMaxCheckpointFailures(n int) CheckpointerOption {
	return func(c *Checkpointer) {
		if n > 0 {
			c.maxFailures = n
		}
	}
}

// NewCheckpointer creates a Checkpointer. interval must be positive.
func NewCheckpointer(store CheckpointStore, guard *nonce.Guard, interval time.Duration, opts ...CheckpointerOption) *Checkpointer {
	if interval <= 0 {
		interval = time.Second
	}
	c := &Checkpointer{
		store:    store,
		guard:    guard,
		interval:    interval,
		maxFailures: DefaultMaxCheckpointFailures,
		log:         logger.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Restore seeds the guard from the stored mark and immediately persists the
// seed, so a second crash before the first tick cannot reuse the same range.
// It returns the seed, or the zero Instant when nothing was stored.
func (c *Checkpointer) Restore(ctx context.Context) (nonce.Instant, error) {
	mark, ok, err := c.store.LoadMark(ctx)
	if err != nil {
		return nonce.Instant{}, domain.ErrStorage.WithDetails("load checkpoint").WithCause(err)
	}
	if !ok {
		c.log.Info("no checkpoint found, starting from wall clock")
		return nonce.Instant{}, nil
	}

	seed := mark.Add(c.interval)
	c.guard.Seed(seed)
	if err := c.save(ctx, seed); err != nil {
		return nonce.Instant{}, err
	}

	c.log.Info("guard restored from checkpoint", "mark", mark.String(), "seed", seed.String())
	return seed, nil
}

// Start launches the background save loop. Calling Start twice is a no-op.
func (c *Checkpointer) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}
	c.running = true
	c.stopCh = make(chan struct{})
	c.doneCh = make(chan struct{})
	go c.loop(c.stopCh, c.doneCh)
}

func (c *Checkpointer) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), c.interval)
			if err := c.Checkpoint(ctx); err != nil {
				c.log.Warn("checkpoint failed", "error", err)
			}
			cancel()
		}
	}
}

// Checkpoint saves the guard's current mark if it moved since the last save.
func (c *Checkpointer) Checkpoint(ctx context.Context) error {
	last, ok := c.guard.Last()
	if !ok {
		return nil
	}
	c.mu.Lock()
	unchanged := !c.saved.Before(last)
	if unchanged {
		// The stored mark already covers everything issued.
		c.failures = 0
	}
	c.mu.Unlock()
	if unchanged {
		return nil
	}
	return c.save(ctx, last)
}

func (c *Checkpointer) save(ctx context.Context, mark nonce.Instant) error {
	err := c.store.SaveMark(ctx, mark)
	c.metrics.ObserveCheckpoint(err)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.failures++
		if c.failures == c.maxFailures {
			c.log.Error("checkpoint failing repeatedly, restart safety lost",
				"failures", c.failures, "saved", c.saved.String(), "error", err)
		}
		return domain.ErrStorage.WithDetails("save checkpoint").WithCause(err)
	}
	if c.failures >= c.maxFailures {
		c.log.Info("checkpoint recovered", "failures", c.failures)
	}
	c.failures = 0
	if c.saved.Before(mark) {
		c.saved = mark
	}
	return nil
}

// Healthy returns an error once the number of consecutive failed saves
// reaches the configured maximum. It clears after the next successful save.
func (c *Checkpointer) Healthy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures >= c.maxFailures {
		return domain.ErrStorage.Detailf("%d consecutive checkpoint failures", c.failures)
	}
	return nil
}

// Saved returns the last mark written by this Checkpointer.
func (c *Checkpointer) Saved() nonce.Instant {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saved
}

// Stop halts the loop and writes a final checkpoint.
func (c *Checkpointer) Stop(ctx context.Context) error {
	c.mu.Lock()
	running := c.running
	c.running = false
	stop, done := c.stopCh, c.doneCh
	c.mu.Unlock()

	if running {
		close(stop)
		select {
		case <-done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return c.Checkpoint(ctx)
}
