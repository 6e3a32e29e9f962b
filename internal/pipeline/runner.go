package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
)

// ObservationSource delivers one observation per tick. Implementations must
// always return a value; an ingestor that cannot reach its upstream
// substitutes a synthetic observation instead of stalling the pipeline.
type ObservationSource interface {
	Next(ctx context.Context) domain.Observation
}

// Runner drives the aggregator on a fixed cadence. It is stoppable and
// restartable: Stop tears the scheduled callback down before the next tick
// could fire, and a later Start never duplicates it. History survives
// restarts; it lives in the engine, not here.
type Runner struct {
	source   ObservationSource
	agg      *Aggregator
	interval time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// NewRunner creates a Runner. A nil clock falls back to the real clock.
func NewRunner(source ObservationSource, agg *Aggregator, interval time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Runner {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Runner{
		source:   source,
		agg:      agg,
		interval: interval,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// Start launches the periodic loop: an immediate tick, then one per
// interval until Stop is called or ctx is cancelled. Returns an error if
// already running.
func (r *Runner) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cancel != nil {
		return errors.New("runner already started")
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.done = make(chan struct{})

	go r.run(runCtx, r.done)
	r.logger.Info("runner started", "interval", r.interval)
	return nil
}

// Stop cancels the loop and waits for it to exit, so the stop is effective
// before any further tick can fire. Safe to call when not running.
func (r *Runner) Stop() {
	r.mu.Lock()
	cancel, done := r.cancel, r.done
	r.cancel, r.done = nil, nil
	r.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
	r.logger.Info("runner stopped")
}

func (r *Runner) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	r.metrics.PipelineRunning.Set(1)
	defer r.metrics.PipelineRunning.Set(0)

	r.tick(ctx)

	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			r.tick(ctx)
		}
	}
}

func (r *Runner) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	obs := r.source.Next(ctx)
	r.agg.Tick(ctx, obs)
}
