package domain

// RiskLevel is the ordered hazard classification for current conditions.
// The total order SAFE < WATCH < WARNING < CRITICAL is carried by the
// integer values; String gives the wire/display form.
type RiskLevel int

const (
	RiskSafe RiskLevel = iota
	RiskWatch
	RiskWarning
	RiskCritical
)

func (r RiskLevel) String() string {
	switch r {
	case RiskSafe:
		return "safe"
	case RiskWatch:
		return "watch"
	case RiskWarning:
		return "warning"
	case RiskCritical:
		return "critical"
	default:
		// An out-of-range level must not masquerade as the lowest severity.
		return "unknown"
	}
}

// MarshalText makes RiskLevel serialize as its name in snapshot JSON.
func (r RiskLevel) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

// UnmarshalText parses the wire form; unknown values degrade to SAFE.
func (r *RiskLevel) UnmarshalText(text []byte) error {
	switch string(text) {
	case "watch":
		*r = RiskWatch
	case "warning":
		*r = RiskWarning
	case "critical":
		*r = RiskCritical
	default:
		*r = RiskSafe
	}
	return nil
}

// Classify derives the risk level from current rainfall intensity (mm/h) and
// the 6-hour rainfall forecast (mm). Thresholds are evaluated in descending
// severity and either signal alone escalates: a high current reading is never
// downgraded by a low forecast, nor the reverse. Negative inputs clamp to 0.
func Classify(currentRainfall, forecast6h float64) RiskLevel {
	if currentRainfall < 0 {
		currentRainfall = 0
	}
	if forecast6h < 0 {
		forecast6h = 0
	}

	switch {
	case currentRainfall >= 50 || forecast6h >= 100:
		return RiskCritical
	case currentRainfall >= 30 || forecast6h >= 60:
		return RiskWarning
	case currentRainfall >= 10 || forecast6h >= 30:
		return RiskWatch
	default:
		return RiskSafe
	}
}

// ForecastLevel is the four-level scale attached to forecast values. It is
// deliberately distinct from RiskLevel: the rendering layer labels the two
// independently.
type ForecastLevel string

const (
	ForecastLow      ForecastLevel = "low"
	ForecastModerate ForecastLevel = "moderate"
	ForecastHigh     ForecastLevel = "high"
	ForecastCritical ForecastLevel = "critical"
)

// ClassifyForecast maps a 6-hour rainfall forecast (mm) to its ForecastLevel.
func ClassifyForecast(rainfall6h float64) ForecastLevel {
	switch {
	case rainfall6h >= 50:
		return ForecastCritical
	case rainfall6h >= 30:
		return ForecastHigh
	case rainfall6h >= 10:
		return ForecastModerate
	default:
		return ForecastLow
	}
}
