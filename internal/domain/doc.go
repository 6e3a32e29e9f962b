// Package domain models the environmental risk values derived from periodic
// weather observations.
//
// # Data Flow
//
// The ingestor delivers one Observation per tick (rainfall intensity in mm/h,
// relative humidity in percent, air temperature in °C, capture timestamp).
// From each observation the pipeline derives:
//
//   - a flood-extent percent via a piecewise-linear calibration curve,
//   - an ordered risk level from current and forecast rainfall,
//   - a 6-hour rainfall forecast (produced by the forecast package),
//
// and assembles them into an immutable Snapshot consumed by the rendering
// layer. Snapshots supersede each other; nothing in this package is mutated
// after construction.
//
// # Calibration Curves
//
// Flood percent is not a physical flood-volume measurement: it positions a
// translucent flood plane against the terrain model's vertical extent.
// Two independently calibrated curves are carried on purpose:
//
//	FloodToRainfall:       percent {0,30,50,70,100} → {0,100,200,350,500} mm
//	RainfallToFloodPercent: field-tuned near-inverse of the above
//	FloodLevelFromRainfall: intensity {0,10,30,50} mm/h → {0,30,70,90} %
//
// Composing RainfallToFloodPercent with FloodToRainfall round-trips within a
// small tolerance at the calibration anchors only; elsewhere the curves are
// allowed to diverge. All three functions are total, monotone non-decreasing,
// and clamp out-of-range input to the boundary instead of extrapolating.
//
// # Risk Scales
//
// Two four-level scales coexist and must not be conflated:
//
//	RiskLevel      (SAFE, WATCH, WARNING, CRITICAL)  current conditions,
//	               escalated by either current or forecast rainfall.
//	ForecastLevel  (LOW, MODERATE, HIGH, CRITICAL)   forecast-only scale
//	               attached to the Forecast value itself.
//
// # ID Generation
//
// Snapshot IDs are deterministic SHA-256 hashes of the observation's key
// fields, so replaying the same observation produces the same ID downstream.
// See [SnapshotID].
package domain
