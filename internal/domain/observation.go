package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Observation is a single weather sample. Immutable once created; the
// ingestor produces one per tick and nothing downstream mutates it.
type Observation struct {
	RainfallMmPerHour float64   `json:"rainfall_mm_per_hour"`
	HumidityPercent   float64   `json:"humidity_percent"`
	TemperatureC      float64   `json:"temperature_c"`
	CapturedAt        time.Time `json:"captured_at"`

	// Synthetic marks observations fabricated by the ingestor after an
	// upstream fetch failure. Derivations treat them identically.
	Synthetic bool `json:"synthetic,omitempty"`
}

// Sanitize clamps out-of-range numeric fields to their domain boundaries.
// Negative rainfall becomes 0 and humidity is forced into [0,100]; the
// pipeline never propagates range errors.
func (o Observation) Sanitize() Observation {
	if o.RainfallMmPerHour < 0 {
		o.RainfallMmPerHour = 0
	}
	if o.HumidityPercent < 0 {
		o.HumidityPercent = 0
	}
	if o.HumidityPercent > 100 {
		o.HumidityPercent = 100
	}
	return o
}

// Trend describes the short-term direction of rainfall intensity.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// ForecastSource tells callers which estimator produced a forecast.
type ForecastSource string

const (
	// SourceTrained means the learned sequence model produced the value.
	SourceTrained ForecastSource = "trained"
	// SourceFallback means the linear fallback estimator produced the value
	// because no model has ever completed training.
	SourceFallback ForecastSource = "fallback"
)

// Forecast is the 6-hour-ahead rainfall estimate recomputed every tick.
// Confidence is a data-sufficiency proxy, not a prediction interval.
type Forecast struct {
	Rainfall6hMm      float64        `json:"rainfall_6h_mm"`
	ConfidencePercent float64        `json:"confidence_percent"`
	Trend             Trend          `json:"trend"`
	Level             ForecastLevel  `json:"level"`
	Source            ForecastSource `json:"source"`
}

// Snapshot is the sole externally visible output of the pipeline per tick.
// It is immutable and superseded, never mutated, by the next tick.
type Snapshot struct {
	ID           string      `json:"id"`
	Observation  Observation `json:"observation"`
	FloodPercent float64     `json:"flood_percent"`
	RiskLevel    RiskLevel   `json:"risk_level"`
	Forecast     Forecast    `json:"forecast"`
	ProducedAt   time.Time   `json:"produced_at"`
}

// NewSnapshot assembles the per-tick aggregate and stamps it with the
// package clock. The derived fields are computed by the caller so that a
// snapshot can be rebuilt byte-for-byte from a fixed history and model state.
func NewSnapshot(obs Observation, floodPercent float64, level RiskLevel, fc Forecast) Snapshot {
	return Snapshot{
		ID:           SnapshotID(obs),
		Observation:  obs,
		FloodPercent: floodPercent,
		RiskLevel:    level,
		Forecast:     fc,
		ProducedAt:   clock.Now(),
	}
}

// SnapshotID produces a deterministic ID from the observation's key fields.
// Replaying the same observation yields the same ID, so downstream consumers
// can deduplicate without coordination.
func SnapshotID(obs Observation) string {
	input := fmt.Sprintf("%d|%.4f|%.2f|%.2f",
		obs.CapturedAt.UTC().UnixNano(),
		obs.RainfallMmPerHour,
		obs.HumidityPercent,
		obs.TemperatureC,
	)
	hash := sha256.Sum256([]byte(input))
	return "snap-" + hex.EncodeToString(hash[:8])
}
