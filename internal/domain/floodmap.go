package domain

// Calibration anchors for the flood-plane curves. The forward and inverse
// tables are intentionally slightly different: FloodToRainfall was tuned
// against flood-percent anchors during the terrain-model calibration pass,
// while RainfallToFloodPercent carries the field-tuned breakpoints that came
// back from comparing rendered flood planes with reference imagery.
var (
	floodPercentAnchors = [5]float64{0, 30, 50, 70, 100}
	rainfallMmAnchors   = [5]float64{0, 100, 200, 350, 500}

	// Field-tuned rainfall breakpoints for the inverse direction. Close to,
	// but not identical with, rainfallMmAnchors; composing the two curves
	// round-trips within ~2 percentage points at the anchors only.
	rainfallMmBreaks = [5]float64{0, 90, 210, 340, 500}

	// Auto-mode curve: instantaneous rainfall intensity (mm/h) to flood
	// percent. Intensity above the last breakpoint clamps to 90%; the last
	// 10% of plane travel is reserved for manual override.
	intensityAnchors    = [4]float64{0, 10, 30, 50}
	intensityFloodLevel = [4]float64{0, 30, 70, 90}
)

// FloodToRainfall converts a flood-extent percent in [0,100] to accumulated
// rainfall in mm. Input outside [0,100] is clamped to the boundary output,
// never extrapolated.
func FloodToRainfall(percent float64) float64 {
	return interpolate(percent, floodPercentAnchors[:], rainfallMmAnchors[:])
}

// RainfallToFloodPercent converts accumulated rainfall in mm to a
// flood-extent percent in [0,100]. Negative rainfall is clamped to 0.
func RainfallToFloodPercent(rainfallMm float64) float64 {
	return interpolate(rainfallMm, rainfallMmBreaks[:], floodPercentAnchors[:])
}

// FloodLevelFromRainfall maps instantaneous rainfall intensity (mm/h) to the
// flood percent used by auto mode. Monotone non-decreasing over its whole
// domain; intensity at or above 50 mm/h saturates at 90%.
func FloodLevelFromRainfall(rainfallMmPerHour float64) float64 {
	return interpolate(rainfallMmPerHour, intensityAnchors[:], intensityFloodLevel[:])
}

// interpolate evaluates a piecewise-linear curve defined by parallel
// breakpoint slices. Input below the first or above the last breakpoint is
// clamped to the boundary output. xs must be strictly increasing.
func interpolate(x float64, xs, ys []float64) float64 {
	if x <= xs[0] {
		return ys[0]
	}
	last := len(xs) - 1
	if x >= xs[last] {
		return ys[last]
	}
	for i := 1; i <= last; i++ {
		if x <= xs[i] {
			span := xs[i] - xs[i-1]
			frac := (x - xs[i-1]) / span
			return ys[i-1] + frac*(ys[i]-ys[i-1])
		}
	}
	return ys[last]
}
