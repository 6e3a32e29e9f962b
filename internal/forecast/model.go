// Package forecast produces the short-horizon rainfall forecast from the
// observation history, managing a learned sequence model with a bounded
// retraining policy and a linear fallback estimator for the cold-start phase.
package forecast

import (
	"errors"
	"fmt"
	"time"

	"github.com/couchcryptid/terrain-risk-service/internal/domain"
)

// Feature normalization ranges. Each feature is scaled independently into
// [0,1] before entering the model; the output is denormalized back through
// the rainfall range. The ranges are realistic operating bounds, not
// observed extremes.
const (
	rainfallRangeMmPerHour = 100.0
	humidityRangeMax       = 100.0
	temperatureRangeMinC   = -10.0
	temperatureRangeMaxC   = 45.0
)

const featuresPerObservation = 3

// Params is one immutable trained parameter set. The engine swaps whole
// Params values atomically so a reader sees either the fully-old or the
// fully-new set, never a torn mix.
type Params struct {
	Weights   []float64 // len = SeqLen * featuresPerObservation
	Bias      float64
	SeqLen    int
	Version   int
	TrainedAt time.Time
}

// errInsufficientHistory is returned when the window cannot yield a single
// training pair.
var errInsufficientHistory = errors.New("insufficient history for training")

// trainingPair is one supervised example: a sequence of SeqLen consecutive
// observations and the rainfall intensity observed SeqLen steps past the end
// of that sequence.
type trainingPair struct {
	sequence []domain.Observation
	label    float64 // normalized rainfall intensity
}

// buildTrainingPairs slides a window of length seqLen over the observations,
// one step at a time, labeling each input sequence with the rainfall of the
// observation seqLen steps ahead of the sequence end. Only observations
// inside the retained history are ever used; the caller passes the current
// window contents and nothing else.
func buildTrainingPairs(observations []domain.Observation, seqLen int) []trainingPair {
	if seqLen <= 0 || len(observations) < 2*seqLen {
		return nil
	}
	pairs := make([]trainingPair, 0, len(observations)-2*seqLen+1)
	for i := 0; i+2*seqLen <= len(observations); i++ {
		label := observations[i+2*seqLen-1].RainfallMmPerHour
		pairs = append(pairs, trainingPair{
			sequence: observations[i : i+seqLen],
			label:    normalizeRainfall(label),
		})
	}
	return pairs
}

// train fits a dense linear layer over the flattened normalized sequence by
// full-batch gradient descent on mean squared error. Deterministic: weights
// start at zero and no shuffling is involved, so the same window always
// produces the same parameters.
func train(observations []domain.Observation, seqLen, version int, trainedAt time.Time) (*Params, error) {
	pairs := buildTrainingPairs(observations, seqLen)
	if len(pairs) == 0 {
		return nil, fmt.Errorf("%w: have %d observations, need %d", errInsufficientHistory, len(observations), 2*seqLen)
	}

	const (
		epochs       = 200
		learningRate = 0.05
	)

	dim := seqLen * featuresPerObservation
	weights := make([]float64, dim)
	bias := 0.0

	inputs := make([][]float64, len(pairs))
	for i, p := range pairs {
		inputs[i] = flattenSequence(p.sequence, seqLen)
	}

	gradW := make([]float64, dim)
	for epoch := 0; epoch < epochs; epoch++ {
		for j := range gradW {
			gradW[j] = 0
		}
		gradB := 0.0

		for i, p := range pairs {
			pred := dot(weights, inputs[i]) + bias
			err := pred - p.label
			for j, x := range inputs[i] {
				gradW[j] += err * x
			}
			gradB += err
		}

		scale := learningRate / float64(len(pairs))
		for j := range weights {
			weights[j] -= scale * gradW[j]
		}
		bias -= scale * gradB
	}

	return &Params{
		Weights:   weights,
		Bias:      bias,
		SeqLen:    seqLen,
		Version:   version,
		TrainedAt: trainedAt,
	}, nil
}

// Predict evaluates the model on a sequence of exactly SeqLen observations
// and returns the predicted rainfall intensity in mm/h, clamped to the
// normalization range.
func (p *Params) Predict(sequence []domain.Observation) float64 {
	out := dot(p.Weights, flattenSequence(sequence, p.SeqLen)) + p.Bias
	return denormalizeRainfall(out)
}

// flattenSequence normalizes each observation's features and concatenates
// them in chronological order. Sequences shorter than seqLen repeat the last
// element; longer ones keep the most recent seqLen entries.
func flattenSequence(sequence []domain.Observation, seqLen int) []float64 {
	if len(sequence) == 0 {
		return make([]float64, seqLen*featuresPerObservation)
	}
	if len(sequence) > seqLen {
		sequence = sequence[len(sequence)-seqLen:]
	}
	out := make([]float64, 0, seqLen*featuresPerObservation)
	for i := 0; i < seqLen; i++ {
		obs := sequence[min(i, len(sequence)-1)]
		out = append(out,
			normalizeRainfall(obs.RainfallMmPerHour),
			obs.HumidityPercent/humidityRangeMax,
			normalizeTemperature(obs.TemperatureC),
		)
	}
	return out
}

func normalizeRainfall(mmPerHour float64) float64 {
	v := mmPerHour / rainfallRangeMmPerHour
	return clamp01(v)
}

func denormalizeRainfall(v float64) float64 {
	return clamp01(v) * rainfallRangeMmPerHour
}

func normalizeTemperature(celsius float64) float64 {
	v := (celsius - temperatureRangeMinC) / (temperatureRangeMaxC - temperatureRangeMinC)
	return clamp01(v)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func dot(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
