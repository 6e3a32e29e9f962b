package ingest

import (
	"math"
	"math/rand"
	"sync"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
)

// SyntheticGenerator produces plausible weather observations when the real
// feed is unavailable. Temperature and humidity follow a diurnal curve;
// rainfall is a persistent state that drifts between dry spells and storm
// bursts, so consecutive synthetic observations look like weather rather
// than noise.
type SyntheticGenerator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	clock clockwork.Clock

	// Evolving rain state in mm/h, carried between calls.
	rain float64
}

// NewSyntheticGenerator creates a generator. The same seed yields the same
// observation sequence for identical clock readings.
func NewSyntheticGenerator(seed int64, clock clockwork.Clock) *SyntheticGenerator {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &SyntheticGenerator{
		rng:   rand.New(rand.NewSource(seed)),
		clock: clock,
	}
}

// Generate returns the next synthetic observation, stamped with the current
// clock time.
func (g *SyntheticGenerator) Generate() domain.Observation {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.clock.Now().UTC()
	hour := float64(now.Hour()) + float64(now.Minute())/60

	// Diurnal temperature: coolest near 05:00, warmest near 15:00.
	dayPhase := math.Sin((hour - 9) / 24 * 2 * math.Pi)
	temperature := 18 + 7*dayPhase + g.rng.Float64()*2 - 1

	g.stepRain()

	// Humidity runs opposite to temperature and rises with rain.
	humidity := 65 - 10*dayPhase + g.rain*1.5 + g.rng.Float64()*6 - 3

	return domain.Observation{
		RainfallMmPerHour: g.rain,
		HumidityPercent:   humidity,
		TemperatureC:      temperature,
		CapturedAt:        now,
		Synthetic:         true,
	}.Sanitize()
}

// stepRain advances the rainfall state one step: mostly decay toward dry,
// occasionally the onset of a burst that then decays over following steps.
func (g *SyntheticGenerator) stepRain() {
	switch {
	case g.rain > 0.5:
		// Active rain decays with jitter and a small chance to intensify.
		g.rain *= 0.85 + g.rng.Float64()*0.2
		if g.rng.Float64() < 0.1 {
			g.rain += g.rng.Float64() * 5
		}
	case g.rng.Float64() < 0.08:
		// Dry spell broken by a new shower or storm.
		g.rain = 2 + g.rng.Float64()*18
	default:
		g.rain = 0
	}

	if g.rain > 60 {
		g.rain = 60
	}
}
