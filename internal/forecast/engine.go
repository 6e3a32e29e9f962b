package forecast

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
	"github.com/couchcryptid/terrain-risk-service/internal/history"
	"github.com/couchcryptid/terrain-risk-service/internal/observability"
)

// Readiness is the engine's trained/untrained/training state.
type Readiness string

const (
	ReadinessUntrained Readiness = "untrained"
	ReadinessTraining  Readiness = "training"
	ReadinessReady     Readiness = "ready"
)

// Defaults for the engine's tunables. The retraining constants are
// empirically chosen and deliberately configuration, not behavior.
const (
	DefaultSequenceLength  = 10
	DefaultTrainFloor      = 50
	DefaultRetrainStride   = 20
	DefaultConfidenceSlope = 2.0

	// trendSamples is how many trailing observations feed the first-difference
	// trend estimate.
	trendSamples = 10

	// horizonHours converts a predicted rainfall intensity (mm/h) into the
	// 6-hour accumulation the forecast reports.
	horizonHours = 6.0
)

// Fallback estimator weights: a linear combination of current rainfall,
// humidity, temperature deficit from a 30°C reference, and the short-term
// trend slope. Used until the first training run ever completes.
const (
	fallbackRainfallWeight = 3.5
	fallbackHumidityWeight = 0.15
	fallbackTempDeficitW   = 0.4
	fallbackTempReferenceC = 30.0
	fallbackTrendWeight    = 12.0
)

// Config holds the engine tunables. Zero values fall back to the defaults.
type Config struct {
	SequenceLength  int
	TrainFloor      int     // observations required before the first training run
	RetrainStride   int     // new observations between retrains once trained
	ConfidenceSlope float64 // confidence percent gained per retained observation
}

func (c Config) withDefaults() Config {
	if c.SequenceLength <= 0 {
		c.SequenceLength = DefaultSequenceLength
	}
	if c.TrainFloor <= 0 {
		c.TrainFloor = DefaultTrainFloor
	}
	if c.RetrainStride <= 0 {
		c.RetrainStride = DefaultRetrainStride
	}
	if c.ConfidenceSlope <= 0 {
		c.ConfidenceSlope = DefaultConfidenceSlope
	}
	return c
}

// Engine owns the observation window and the learned model. Observe and
// Predict are called from the serialized tick path; training runs on its own
// goroutine and publishes parameters with an atomic pointer swap, so Predict
// never blocks on a retrain and never sees a partially written parameter set.
type Engine struct {
	cfg     Config
	window  *history.Window
	logger  *slog.Logger
	metrics *observability.Metrics
	clock   clockwork.Clock

	params   atomic.Pointer[Params]
	training atomic.Bool
	wg       sync.WaitGroup

	// Counters for the retraining policy. Only touched on the tick path.
	seenSinceLastTrain int
	version            int
}

// NewEngine creates an Engine over its own history window.
func NewEngine(cfg Config, window *history.Window, logger *slog.Logger, metrics *observability.Metrics, clock clockwork.Clock) *Engine {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Engine{
		cfg:     cfg.withDefaults(),
		window:  window,
		logger:  logger,
		metrics: metrics,
		clock:   clock,
	}
}

// Window exposes the engine-owned history window. No other component stores
// observations beyond the current tick.
func (e *Engine) Window() *history.Window {
	return e.window
}

// Readiness reports the model lifecycle state. A retrain in progress shows
// TRAINING even though Predict keeps serving from the last READY parameters.
func (e *Engine) Readiness() Readiness {
	if e.training.Load() {
		return ReadinessTraining
	}
	if e.params.Load() != nil {
		return ReadinessReady
	}
	return ReadinessUntrained
}

// Observe appends the observation to the window and applies the retraining
// policy: the first run triggers once TrainFloor observations are retained,
// later runs every RetrainStride new observations. A trigger while a run is
// already in flight is skipped; the skipped run's observations count toward
// the next boundary.
func (e *Engine) Observe(obs domain.Observation) {
	e.window.Append(obs)
	e.seenSinceLastTrain++
	e.metrics.HistorySize.Set(float64(e.window.Size()))

	if !e.shouldTrain() {
		return
	}
	if !e.training.CompareAndSwap(false, true) {
		return
	}
	e.seenSinceLastTrain = 0

	snapshot := e.window.All()
	e.wg.Add(1)
	go e.runTraining(snapshot)
}

func (e *Engine) shouldTrain() bool {
	if e.training.Load() {
		return false
	}
	if e.params.Load() == nil {
		return e.window.Size() >= e.cfg.TrainFloor
	}
	return e.seenSinceLastTrain >= e.cfg.RetrainStride
}

// runTraining fits a new parameter set from a window snapshot and swaps it
// in atomically. Failures are logged and leave the previous parameters in
// force; the engine never reverts to UNTRAINED.
func (e *Engine) runTraining(observations []domain.Observation) {
	defer e.wg.Done()
	defer e.training.Store(false)

	e.version++
	params, err := train(observations, e.cfg.SequenceLength, e.version, e.clock.Now())
	if err != nil {
		e.logger.Warn("model training failed, keeping previous parameters",
			"error", err,
			"observations", len(observations),
		)
		e.metrics.TrainingRuns.WithLabelValues("failure").Inc()
		return
	}

	e.params.Store(params)
	e.metrics.TrainingRuns.WithLabelValues("success").Inc()
	e.metrics.ModelReady.Set(1)
	e.logger.Info("model trained",
		"version", params.Version,
		"observations", len(observations),
	)
}

// WaitForTraining blocks until any in-flight training run finishes. Used by
// shutdown and tests; the tick path never calls it.
func (e *Engine) WaitForTraining() {
	e.wg.Wait()
}

// Predict produces the forecast for the given current observation. It always
// returns a usable Forecast: the fallback estimator covers the phase before
// any training run has ever completed, and a short window degrades to a
// padded flat sequence rather than an error.
func (e *Engine) Predict(current domain.Observation) domain.Forecast {
	current = current.Sanitize()
	trendSlope := e.trendSlope()

	var rainfall6h float64
	var source domain.ForecastSource

	if params := e.params.Load(); params != nil {
		sequence := e.window.Recent(params.SeqLen)
		if len(sequence) < params.SeqLen {
			// Degenerate flat sequence: an accepted approximation during
			// warm-up, not an error.
			sequence = repeatObservation(current, params.SeqLen)
		}
		rainfall6h = params.Predict(sequence) * horizonHours
		source = domain.SourceTrained
	} else {
		rainfall6h = e.fallbackEstimate(current, trendSlope)
		source = domain.SourceFallback
	}

	if rainfall6h < 0 {
		rainfall6h = 0
	}

	e.metrics.ForecastsProduced.WithLabelValues(string(source)).Inc()

	return domain.Forecast{
		Rainfall6hMm:      rainfall6h,
		ConfidencePercent: e.confidence(),
		Trend:             classifyTrend(trendSlope),
		Level:             domain.ClassifyForecast(rainfall6h),
		Source:            source,
	}
}

// fallbackEstimate is the pre-training linear formula.
func (e *Engine) fallbackEstimate(current domain.Observation, trendSlope float64) float64 {
	deficit := fallbackTempReferenceC - current.TemperatureC
	if deficit < 0 {
		deficit = 0
	}
	return fallbackRainfallWeight*current.RainfallMmPerHour +
		fallbackHumidityWeight*current.HumidityPercent +
		fallbackTempDeficitW*deficit +
		fallbackTrendWeight*trendSlope
}

// trendSlope is the average first difference of rainfall over the trailing
// observations, or 0 when fewer than two are retained.
func (e *Engine) trendSlope() float64 {
	recent := e.window.Recent(trendSamples)
	if len(recent) < 2 {
		return 0
	}
	sum := 0.0
	for i := 1; i < len(recent); i++ {
		sum += recent[i].RainfallMmPerHour - recent[i-1].RainfallMmPerHour
	}
	return sum / float64(len(recent)-1)
}

func classifyTrend(slope float64) domain.Trend {
	switch {
	case slope > 0:
		return domain.TrendIncreasing
	case slope < 0:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// confidence grows linearly with history size and caps at 100. It proxies
// data sufficiency, not a statistical prediction interval.
func (e *Engine) confidence() float64 {
	c := float64(e.window.Size()) * e.cfg.ConfidenceSlope
	if c > 100 {
		return 100
	}
	return c
}

func repeatObservation(obs domain.Observation, n int) []domain.Observation {
	out := make([]domain.Observation, n)
	for i := range out {
		out[i] = obs
	}
	return out
}
