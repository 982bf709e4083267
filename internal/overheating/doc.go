// Package overheating computes thermal-risk metrics from hourly, per-zone
// building-simulation output and classifies each zone as at risk or not.
//
// # Input Conventions
//
// Every time series is a zones × hours matrix ([*mat.Dense]) covering one
// non-leap reference year:
//
//	rows    = zones, in simulation order
//	columns = hours 1..8760
//
// Temperatures are °C, relative humidity is % (0–100). Resampling and unit
// conversion happen upstream; [CheckShape] rejects anything that is not
// exactly (zones, 8760) before any computation runs.
//
// Zones are identified by name (default "Zone 000", "Zone 001", ...) and
// weighted, typically by floor area (default 1.0 each). Weights are always
// normalized by their sum before aggregation, so any positive scale works.
//
// # Building Aggregations
//
// Per-zone metrics are rolled up to the building in several ways:
//
//	Any Zone          hours where at least one zone exceeds (OR across zones, then count)
//	Zone Weighted     Σ normalized_weight[z] · metric[z]
//	Worst Zone        max over zones
//	Equally Weighted  unweighted mean over zones
//
// The heat-index classifier has its own hourly views: Zone Weighted
// (categorize the weighted-mean heat index), Modal per Timestep (most common
// zone category, ties to the more severe) and Worst per Timestep.
//
// # Heat Index
//
// NOAA heat index via the Rothfusz regression in °F, binned as:
//
//	Normal           HI < 80
//	Caution          80 ≤ HI < 90
//	Extreme Caution  90 ≤ HI < 105
//	Danger           105 ≤ HI < 130
//	Extreme Danger   HI ≥ 130
//
// Boundary values belong to the hotter category.
//
// # Exceedance
//
// Hot thresholds count hours with temp > T; cold thresholds count hours with
// temp < T. Both comparisons are strict and every threshold is independent.
// A streak is a maximal run of consecutive exceeding hours; its integral is
// Σ |temp − T| over the run, in degree-hours. Exceedance degree-hours (EDH)
// integrate Standard Effective Temperature beyond a threshold or comfort-band
// edge; SET itself comes from a [ComfortModel].
//
// # Risk
//
// [ClassifyZones] marks a zone at risk when any configured criterion fails.
// There is no weighting or partial credit across criteria.
package overheating
