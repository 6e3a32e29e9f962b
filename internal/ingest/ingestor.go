package ingest

import (
	"context"
	"log/slog"
	"time"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
)

// Fetcher obtains one observation from an upstream source.
type Fetcher interface {
	Fetch(ctx context.Context) (domain.Observation, error)
}

// Ingestor is the pipeline's observation source. It prefers the real
// fetcher; on any fetch failure it substitutes a synthetic observation so
// the pipeline always ticks with data. A nil fetcher means synthetic-only
// operation.
type Ingestor struct {
	fetcher   Fetcher
	synthetic *SyntheticGenerator
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewIngestor creates an Ingestor. fetcher may be nil.
func NewIngestor(fetcher Fetcher, synthetic *SyntheticGenerator, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		fetcher:   fetcher,
		synthetic: synthetic,
		logger:    logger,
		metrics:   metrics,
	}
}

// Next returns the observation for this tick. Never fails: a fetch error is
// logged and answered with a generated sample marked Synthetic.
func (i *Ingestor) Next(ctx context.Context) domain.Observation {
	if i.fetcher != nil {
		start := time.Now()
		obs, err := i.fetcher.Fetch(ctx)
		i.metrics.IngestDuration.Observe(time.Since(start).Seconds())
		if err == nil {
			i.metrics.IngestFetches.WithLabelValues("ok").Inc()
			return obs.Sanitize()
		}
		i.logger.Warn("weather fetch failed, substituting synthetic observation", "error", err)
	}

	i.metrics.IngestFetches.WithLabelValues("synthetic").Inc()
	return i.synthetic.Generate()
}
