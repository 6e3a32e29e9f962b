package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
)

func TestObservation_Sanitize(t *testing.T) {
	tests := []struct {
		name     string
		in       Observation
		rainfall float64
		humidity float64
	}{
		{"in range untouched", Observation{RainfallMmPerHour: 12, HumidityPercent: 55}, 12, 55},
		{"negative rainfall clamps", Observation{RainfallMmPerHour: -3, HumidityPercent: 40}, 0, 40},
		{"humidity above 100 clamps", Observation{RainfallMmPerHour: 5, HumidityPercent: 130}, 5, 100},
		{"humidity below 0 clamps", Observation{RainfallMmPerHour: 5, HumidityPercent: -1}, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.in.Sanitize()
			assert.Equal(t, tt.rainfall, got.RainfallMmPerHour)
			assert.Equal(t, tt.humidity, got.HumidityPercent)
		})
	}
}

func TestSnapshotID(t *testing.T) {
	obs := Observation{
		RainfallMmPerHour: 12.5,
		HumidityPercent:   80,
		TemperatureC:      21.3,
		CapturedAt:        time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
	}

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, SnapshotID(obs), SnapshotID(obs))
	})

	t.Run("prefixed", func(t *testing.T) {
		assert.Contains(t, SnapshotID(obs), "snap-")
	})

	t.Run("different inputs differ", func(t *testing.T) {
		other := obs
		other.RainfallMmPerHour = 12.6
		assert.NotEqual(t, SnapshotID(obs), SnapshotID(other))
	})
}

func TestNewSnapshot(t *testing.T) {
	fixedTime := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixedTime))
	defer SetClock(nil)

	obs := Observation{
		RainfallMmPerHour: 35,
		HumidityPercent:   90,
		TemperatureC:      18,
		CapturedAt:        fixedTime.Add(-time.Minute),
	}
	fc := Forecast{Rainfall6hMm: 70, ConfidencePercent: 40, Trend: TrendIncreasing, Level: ForecastCritical, Source: SourceFallback}

	snap := NewSnapshot(obs, 62.5, RiskWarning, fc)

	assert.Equal(t, SnapshotID(obs), snap.ID)
	assert.Equal(t, obs, snap.Observation)
	assert.Equal(t, 62.5, snap.FloodPercent)
	assert.Equal(t, RiskWarning, snap.RiskLevel)
	assert.Equal(t, fc, snap.Forecast)
	assert.Equal(t, fixedTime, snap.ProducedAt)
}
