package forecast

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
)

func steadyObservations(n int, rainfall, humidity, temperature float64) []domain.Observation {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	out := make([]domain.Observation, n)
	for i := range out {
		out[i] = domain.Observation{
			RainfallMmPerHour: rainfall,
			HumidityPercent:   humidity,
			TemperatureC:      temperature,
			CapturedAt:        base.Add(time.Duration(i) * 10 * time.Minute),
		}
	}
	return out
}

func TestBuildTrainingPairs(t *testing.T) {
	t.Run("slides by one", func(t *testing.T) {
		obs := steadyObservations(20, 10, 50, 20)
		pairs := buildTrainingPairs(obs, 5)
		// n - 2L + 1 sliding positions.
		assert.Len(t, pairs, 11)
		for _, p := range pairs {
			assert.Len(t, p.sequence, 5)
		}
	})

	t.Run("label is L steps past the sequence end", func(t *testing.T) {
		obs := steadyObservations(20, 0, 50, 20)
		for i := range obs {
			obs[i].RainfallMmPerHour = float64(i)
		}
		pairs := buildTrainingPairs(obs, 5)
		require.NotEmpty(t, pairs)
		// First pair: input obs[0..4], label obs[9].
		assert.InDelta(t, normalizeRainfall(9), pairs[0].label, 1e-12)
	})

	t.Run("too little history", func(t *testing.T) {
		assert.Nil(t, buildTrainingPairs(steadyObservations(19, 1, 50, 20), 10))
		assert.Nil(t, buildTrainingPairs(nil, 10))
	})
}

func TestTrain(t *testing.T) {
	trainedAt := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	t.Run("deterministic", func(t *testing.T) {
		obs := steadyObservations(60, 15, 70, 18)
		p1, err := train(obs, 10, 1, trainedAt)
		require.NoError(t, err)
		p2, err := train(obs, 10, 1, trainedAt)
		require.NoError(t, err)
		assert.Empty(t, cmp.Diff(p1, p2))
	})

	t.Run("learns a steady series", func(t *testing.T) {
		obs := steadyObservations(60, 20, 50, 20)
		params, err := train(obs, 5, 1, trainedAt)
		require.NoError(t, err)

		got := params.Predict(obs[len(obs)-5:])
		assert.InDelta(t, 20.0, got, 1.5)
	})

	t.Run("insufficient history fails", func(t *testing.T) {
		_, err := train(steadyObservations(15, 5, 50, 20), 10, 1, trainedAt)
		require.ErrorIs(t, err, errInsufficientHistory)
	})

	t.Run("metadata carried", func(t *testing.T) {
		params, err := train(steadyObservations(40, 5, 50, 20), 8, 3, trainedAt)
		require.NoError(t, err)
		assert.Equal(t, 3, params.Version)
		assert.Equal(t, 8, params.SeqLen)
		assert.Equal(t, trainedAt, params.TrainedAt)
		assert.Len(t, params.Weights, 8*featuresPerObservation)
	})
}

func TestParams_Predict_Clamped(t *testing.T) {
	// Hand-built parameters that would push the raw output out of range.
	params := &Params{
		Weights: make([]float64, 2*featuresPerObservation),
		Bias:    5, // raw normalized output 5 → clamps to 1
		SeqLen:  2,
	}
	got := params.Predict(steadyObservations(2, 0, 0, 0))
	assert.Equal(t, rainfallRangeMmPerHour, got)

	params.Bias = -5
	assert.Equal(t, 0.0, params.Predict(steadyObservations(2, 0, 0, 0)))
}

func TestFlattenSequence(t *testing.T) {
	t.Run("pads short sequences with the last element", func(t *testing.T) {
		obs := steadyObservations(1, 50, 100, 45)
		flat := flattenSequence(obs, 3)
		require.Len(t, flat, 3*featuresPerObservation)
		assert.InDelta(t, 0.5, flat[0], 1e-12)
		assert.InDelta(t, flat[0], flat[featuresPerObservation], 1e-12)
	})

	t.Run("keeps the most recent entries when long", func(t *testing.T) {
		obs := steadyObservations(4, 0, 50, 20)
		obs[3].RainfallMmPerHour = 80
		flat := flattenSequence(obs, 2)
		require.Len(t, flat, 2*featuresPerObservation)
		assert.InDelta(t, normalizeRainfall(80), flat[featuresPerObservation], 1e-12)
	})

	t.Run("empty sequence yields zeros", func(t *testing.T) {
		flat := flattenSequence(nil, 2)
		assert.Equal(t, make([]float64, 2*featuresPerObservation), flat)
	})
}

func TestNormalization(t *testing.T) {
	tests := []struct {
		name     string
		fn       func(float64) float64
		in       float64
		expected float64
	}{
		{"rainfall mid", normalizeRainfall, 50, 0.5},
		{"rainfall clamps high", normalizeRainfall, 250, 1},
		{"rainfall clamps negative", normalizeRainfall, -5, 0},
		{"temperature floor", normalizeTemperature, -10, 0},
		{"temperature ceiling", normalizeTemperature, 45, 1},
		{"temperature clamps below", normalizeTemperature, -30, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.expected, tt.fn(tt.in), 1e-12)
		})
	}
}
