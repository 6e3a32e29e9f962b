package history

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
)

func obsAt(t time.Time, rainfall float64) domain.Observation {
	return domain.Observation{RainfallMmPerHour: rainfall, CapturedAt: t}
}

func TestWindow_AppendAndRecent(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(base)
	w := New(DefaultRetention, clock)

	for i := 0; i < 5; i++ {
		w.Append(obsAt(base.Add(time.Duration(i)*time.Minute), float64(i)))
	}

	t.Run("chronological order", func(t *testing.T) {
		recent := w.Recent(3)
		require.Len(t, recent, 3)
		assert.Equal(t, 2.0, recent[0].RainfallMmPerHour)
		assert.Equal(t, 4.0, recent[2].RainfallMmPerHour)
	})

	t.Run("short window returns fewer", func(t *testing.T) {
		assert.Len(t, w.Recent(50), 5)
	})

	t.Run("non-positive n", func(t *testing.T) {
		assert.Empty(t, w.Recent(0))
		assert.Empty(t, w.Recent(-1))
	})

	t.Run("size", func(t *testing.T) {
		assert.Equal(t, 5, w.Size())
	})
}

func TestWindow_EvictsBeyondRetention(t *testing.T) {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(base)
	w := New(DefaultRetention, clock)

	// One observation per hour for 30 hours; the window must never hold
	// anything older than 24h from the latest append.
	for i := 0; i < 30; i++ {
		clock.Advance(time.Hour)
		w.Append(obsAt(clock.Now(), float64(i)))
	}

	all := w.All()
	require.NotEmpty(t, all)
	cutoff := clock.Now().Add(-DefaultRetention)
	for _, obs := range all {
		assert.False(t, obs.CapturedAt.Before(cutoff),
			"observation at %v is older than the 24h horizon", obs.CapturedAt)
	}
	// 24 hourly samples fit inside the horizon, plus the one sitting exactly
	// on the cutoff, which is not strictly older and stays.
	assert.Equal(t, 25, w.Size())
}

func TestWindow_EvictionIsLazy(t *testing.T) {
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(base)
	w := New(time.Hour, clock)

	w.Append(obsAt(clock.Now(), 1))
	clock.Advance(3 * time.Hour)

	// No append since the clock moved: reads still see the stale entry.
	assert.Equal(t, 1, w.Size())

	w.Append(obsAt(clock.Now(), 2))
	require.Equal(t, 1, w.Size())
	assert.Equal(t, 2.0, w.All()[0].RainfallMmPerHour)
}

func TestWindow_CopiesAreIndependent(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC))
	w := New(DefaultRetention, clock)
	w.Append(obsAt(clock.Now(), 7))

	all := w.All()
	all[0].RainfallMmPerHour = 99

	assert.Equal(t, 7.0, w.All()[0].RainfallMmPerHour)
}
