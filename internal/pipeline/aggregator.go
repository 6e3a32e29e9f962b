// Package pipeline orchestrates the per-tick ingest → derive → aggregate
// cycle and the periodic runner that drives it.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
	"github.com/couchcryptid/terrain-risk-service/internal/forecast"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
)

// SnapshotSink receives every produced snapshot. Sinks are best-effort:
// a failing sink is logged and never fails the tick.
type SnapshotSink interface {
	StoreSnapshot(ctx context.Context, snap domain.Snapshot) error
}

// Aggregator combines the derivations into one consistent immutable snapshot
// per tick. A mutex serializes ticks, timer-driven and manual alike, so no
// two are ever in flight against the same history window; everything else
// reads the latest snapshot through an atomic pointer.
type Aggregator struct {
	engine  *forecast.Engine
	sinks   []SnapshotSink
	logger  *slog.Logger
	metrics *observability.Metrics

	mu     sync.Mutex // single-flight guard for Tick
	latest atomic.Pointer[domain.Snapshot]
	ready  atomic.Bool

	subMu       sync.Mutex
	subscribers map[int]chan domain.Snapshot
	nextSubID   int
}

// NewAggregator creates an Aggregator. Sinks may be empty.
func NewAggregator(engine *forecast.Engine, sinks []SnapshotSink, logger *slog.Logger, metrics *observability.Metrics) *Aggregator {
	return &Aggregator{
		engine:      engine,
		sinks:       sinks,
		logger:      logger,
		metrics:     metrics,
		subscribers: make(map[int]chan domain.Snapshot),
	}
}

// Tick runs one full cycle for the given observation: append to history,
// derive flood percent, forecast, and risk level, assemble the snapshot, and
// fan it out. Deterministic given a fixed history window and model
// parameter set.
func (a *Aggregator) Tick(ctx context.Context, obs domain.Observation) domain.Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	obs = obs.Sanitize()

	a.engine.Observe(obs)
	fc := a.engine.Predict(obs)

	floodPercent := domain.FloodLevelFromRainfall(obs.RainfallMmPerHour)
	level := domain.Classify(obs.RainfallMmPerHour, fc.Rainfall6hMm)

	snap := domain.NewSnapshot(obs, floodPercent, level, fc)

	a.latest.Store(&snap)
	a.ready.Store(true)
	a.metrics.TicksTotal.Inc()
	a.metrics.TickDuration.Observe(time.Since(start).Seconds())

	a.deliver(ctx, snap)
	a.notify(snap)

	a.logger.Debug("tick complete",
		"snapshot_id", snap.ID,
		"risk_level", snap.RiskLevel.String(),
		"flood_percent", snap.FloodPercent,
		"forecast_source", snap.Forecast.Source,
	)
	return snap
}

// Latest returns the most recent snapshot, or nil before the first tick.
// The rendering layer holds this read reference; it never mutates pipeline
// state.
func (a *Aggregator) Latest() *domain.Snapshot {
	return a.latest.Load()
}

// CheckReadiness returns nil once the pipeline has produced at least one
// snapshot.
func (a *Aggregator) CheckReadiness(_ context.Context) error {
	if !a.ready.Load() {
		return errors.New("pipeline has not produced a snapshot yet")
	}
	return nil
}

// Subscribe registers a snapshot listener. The returned channel holds one
// pending snapshot; a slow subscriber sees the newest value and misses
// intermediate ones, it never stalls the tick. The cancel func unregisters
// and closes the channel.
func (a *Aggregator) Subscribe() (<-chan domain.Snapshot, func()) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	id := a.nextSubID
	a.nextSubID++
	ch := make(chan domain.Snapshot, 1)
	a.subscribers[id] = ch

	cancel := func() {
		a.subMu.Lock()
		defer a.subMu.Unlock()
		if c, ok := a.subscribers[id]; ok {
			delete(a.subscribers, id)
			close(c)
		}
	}
	return ch, cancel
}

func (a *Aggregator) notify(snap domain.Snapshot) {
	a.subMu.Lock()
	defer a.subMu.Unlock()

	for _, ch := range a.subscribers {
		// Replace a pending undelivered snapshot with the newer one.
		select {
		case ch <- snap:
		default:
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}

func (a *Aggregator) deliver(ctx context.Context, snap domain.Snapshot) {
	for _, sink := range a.sinks {
		if err := sink.StoreSnapshot(ctx, snap); err != nil {
			a.logger.Warn("snapshot sink failed",
				"error", err,
				"snapshot_id", snap.ID,
			)
		}
	}
}
