package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		current    float64
		forecast6h float64
		expected   RiskLevel
	}{
		{"dry and calm", 0, 0, RiskSafe},
		{"light rain", 9.9, 0, RiskSafe},
		{"watch on current", 10, 0, RiskWatch},
		{"watch on forecast", 0, 30, RiskWatch},
		{"warning on current", 30, 0, RiskWarning},
		{"warning on forecast", 0, 60, RiskWarning},
		{"critical on current", 55, 0, RiskCritical},
		{"critical threshold exact", 50, 0, RiskCritical},
		{"critical on forecast", 0, 100, RiskCritical},
		{"high current low forecast stays critical", 50, 5, RiskCritical},
		{"low current high forecast still escalates", 2, 65, RiskWarning},
		{"negative inputs clamp", -4, -20, RiskSafe},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.current, tt.forecast6h))
		})
	}
}

// Raising current rainfall with the forecast held fixed must never lower the
// returned level.
func TestClassify_MonotoneInCurrent(t *testing.T) {
	for _, forecast := range []float64{0, 25, 45, 80, 120} {
		prev := Classify(0, forecast)
		for current := 1.0; current <= 80; current++ {
			cur := Classify(current, forecast)
			assert.GreaterOrEqual(t, cur, prev,
				"current=%v forecast=%v", current, forecast)
			prev = cur
		}
	}
}

func TestRiskLevel_Order(t *testing.T) {
	assert.Less(t, RiskSafe, RiskWatch)
	assert.Less(t, RiskWatch, RiskWarning)
	assert.Less(t, RiskWarning, RiskCritical)
}

func TestRiskLevel_TextRoundTrip(t *testing.T) {
	for _, level := range []RiskLevel{RiskSafe, RiskWatch, RiskWarning, RiskCritical} {
		text, err := level.MarshalText()
		assert.NoError(t, err)

		var parsed RiskLevel
		assert.NoError(t, parsed.UnmarshalText(text))
		assert.Equal(t, level, parsed)
	}

	var unknown RiskLevel
	assert.NoError(t, unknown.UnmarshalText([]byte("apocalyptic")))
	assert.Equal(t, RiskSafe, unknown)
}

func TestRiskLevel_OutOfRangeString(t *testing.T) {
	// A corrupt level must not report itself as the lowest severity.
	assert.Equal(t, "unknown", RiskLevel(42).String())
	assert.Equal(t, "unknown", RiskLevel(-1).String())
}

func TestClassifyForecast(t *testing.T) {
	tests := []struct {
		name     string
		rainfall float64
		expected ForecastLevel
	}{
		{"dry", 0, ForecastLow},
		{"moderate threshold", 10, ForecastModerate},
		{"high threshold", 30, ForecastHigh},
		{"critical threshold", 50, ForecastCritical},
		{"well past critical", 140, ForecastCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ClassifyForecast(tt.rainfall))
		})
	}
}
