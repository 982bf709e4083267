package overheating

import (
	"fmt"
	"math"
)

// CriterionKind names a failure criterion in results.
type CriterionKind string

const (
	KindCountFailure     CriterionKind = "count_failure"
	KindStreakFailure    CriterionKind = "streak_failure"
	KindIntegratedStreak CriterionKind = "integrated_streak_failure"
	KindExceedance       CriterionKind = "exceedance_failure"
	KindCautionOrWorse   CriterionKind = "caution_or_worse_hours"
	KindDangerOrWorse    CriterionKind = "danger_or_worse_hours"
	KindExtremeDanger    CriterionKind = "extreme_danger_hours"
)

// Criterion is a failure rule attached to one threshold. The set of
// implementations is closed to this package.
type Criterion interface {
	Kind() CriterionKind
	validate() error
	// evaluate returns the observed value, its limit, and whether the limit
	// is exceeded.
	evaluate(m thresholdMetrics) (observed, limit float64, failed bool)
}

// thresholdMetrics is everything a criterion may inspect for one zone and
// threshold.
type thresholdMetrics struct {
	hours   float64
	streaks []Streak
	edh     float64
}

// CountFailureCriterion fails when the zone exceeds the threshold for more
// than MaxHours hours.
type CountFailureCriterion struct {
	MaxHours float64
}

func (CountFailureCriterion) Kind() CriterionKind { return KindCountFailure }

func (c CountFailureCriterion) validate() error {
	return nonNegative("max_hours", c.MaxHours)
}

func (c CountFailureCriterion) evaluate(m thresholdMetrics) (float64, float64, bool) {
	return m.hours, c.MaxHours, m.hours > c.MaxHours
}

// StreakCriterion fails when more than MaxCount streaks last at least
// MinStreakLengthHours.
type StreakCriterion struct {
	MinStreakLengthHours float64
	MaxCount             float64
}

func (StreakCriterion) Kind() CriterionKind { return KindStreakFailure }

func (c StreakCriterion) validate() error {
	if err := nonNegative("min_streak_length_hours", c.MinStreakLengthHours); err != nil {
		return err
	}
	return nonNegative("max_count", c.MaxCount)
}

func (c StreakCriterion) evaluate(m thresholdMetrics) (float64, float64, bool) {
	n := 0.0
	for _, s := range m.streaks {
		if float64(s.Hours) >= c.MinStreakLengthHours {
			n++
		}
	}
	return n, c.MaxCount, n > c.MaxCount
}

// IntegratedStreakCriterion fails when the degree-hour integrals of streaks
// lasting at least MinStreakLengthHours add up to more than MaxIntegral.
// Shorter streaks do not contribute.
type IntegratedStreakCriterion struct {
	MinStreakLengthHours float64
	MaxIntegral          float64
}

func (IntegratedStreakCriterion) Kind() CriterionKind { return KindIntegratedStreak }

func (c IntegratedStreakCriterion) validate() error {
	if err := nonNegative("min_streak_length_hours", c.MinStreakLengthHours); err != nil {
		return err
	}
	return nonNegative("max_integral", c.MaxIntegral)
}

func (c IntegratedStreakCriterion) evaluate(m thresholdMetrics) (float64, float64, bool) {
	total := 0.0
	for _, s := range m.streaks {
		if float64(s.Hours) >= c.MinStreakLengthHours {
			total += s.Integral
		}
	}
	return total, c.MaxIntegral, total > c.MaxIntegral
}

// ExceedanceCriterion fails when the zone's exceedance degree-hours for the
// threshold exceed MaxDegHours.
type ExceedanceCriterion struct {
	MaxDegHours float64
}

func (ExceedanceCriterion) Kind() CriterionKind { return KindExceedance }

func (c ExceedanceCriterion) validate() error {
	return nonNegative("max_deg_hours", c.MaxDegHours)
}

func (c ExceedanceCriterion) evaluate(m thresholdMetrics) (float64, float64, bool) {
	return m.edh, c.MaxDegHours, m.edh > c.MaxDegHours
}

// ThresholdWithCriteria is a threshold temperature in °C and the rules
// evaluated against it. A threshold with no criteria is still analysed but
// never fails.
type ThresholdWithCriteria struct {
	Threshold float64
	Criteria  []Criterion
}

// HeatIndexCriteria bounds the hours a zone may spend in the upper heat-index
// bands. Nil limits are not evaluated.
type HeatIndexCriteria struct {
	CautionOrWorseHours *float64
	DangerOrWorseHours  *float64
	ExtremeDangerHours  *float64
}

// ThermalComfortAssumptions are the occupant parameters passed to the
// comfort model.
type ThermalComfortAssumptions struct {
	Met float64 // metabolic rate, met
	Clo float64 // clothing insulation, clo
	V   float64 // air speed, m/s
}

// ComfortBand is the acceptable SET range in °C.
type ComfortBand struct {
	Low  float64
	High float64
}

// Config is the analysis policy.
type Config struct {
	HeatThresholds    []ThresholdWithCriteria
	ColdThresholds    []ThresholdWithCriteria
	HeatIndexCriteria HeatIndexCriteria
	ThermalComfort    ThermalComfortAssumptions
	ComfortBand       ComfortBand
}

// DefaultConfig returns the built-in policy: hot thresholds 26, 30 and 35 °C,
// cold thresholds 10 and 5 °C, no failure criteria.
func DefaultConfig() Config {
	return Config{
		HeatThresholds: []ThresholdWithCriteria{{Threshold: 26}, {Threshold: 30}, {Threshold: 35}},
		ColdThresholds: []ThresholdWithCriteria{{Threshold: 10}, {Threshold: 5}},
		ThermalComfort: ThermalComfortAssumptions{Met: 1.1, Clo: 0.5, V: 0.1},
		ComfortBand:    ComfortBand{Low: 22, High: 27},
	}
}

// HotThresholdValues returns the hot threshold temperatures in configured order.
func (c Config) HotThresholdValues() []float64 { return thresholdValues(c.HeatThresholds) }

// ColdThresholdValues returns the cold threshold temperatures in configured order.
func (c Config) ColdThresholdValues() []float64 { return thresholdValues(c.ColdThresholds) }

func thresholdValues(ts []ThresholdWithCriteria) []float64 {
	out := make([]float64, len(ts))
	for i, t := range ts {
		out[i] = t.Threshold
	}
	return out
}

// Validate checks the policy for internal consistency.
func (c Config) Validate() error {
	for _, pass := range []struct {
		field      string
		thresholds []ThresholdWithCriteria
	}{{"heat_thresholds", c.HeatThresholds}, {"cold_thresholds", c.ColdThresholds}} {
		seen := make(map[float64]bool, len(pass.thresholds))
		for i, t := range pass.thresholds {
			field := fmt.Sprintf("%s[%d]", pass.field, i)
			if !finite(t.Threshold) {
				return configErrorf(field, "threshold must be finite, got %v", t.Threshold)
			}
			if seen[t.Threshold] {
				return configErrorf(field, "duplicate threshold %v", t.Threshold)
			}
			seen[t.Threshold] = true
			for _, crit := range t.Criteria {
				if crit == nil {
					return configErrorf(field, "nil criterion")
				}
				if err := crit.validate(); err != nil {
					return configErrorf(fmt.Sprintf("%s.%s", field, crit.Kind()), "%v", err)
				}
			}
		}
	}

	for name, limit := range map[CriterionKind]*float64{
		KindCautionOrWorse: c.HeatIndexCriteria.CautionOrWorseHours,
		KindDangerOrWorse:  c.HeatIndexCriteria.DangerOrWorseHours,
		KindExtremeDanger:  c.HeatIndexCriteria.ExtremeDangerHours,
	} {
		if limit == nil {
			continue
		}
		if err := nonNegative(string(name), *limit); err != nil {
			return configErrorf("heat_index_criteria."+string(name), "%v", err)
		}
	}

	tc := c.ThermalComfort
	for name, v := range map[string]float64{"met": tc.Met, "clo": tc.Clo, "v": tc.V} {
		if !finite(v) || v <= 0 {
			return configErrorf("thermal_comfort."+name, "must be a positive number, got %v", v)
		}
	}

	if !finite(c.ComfortBand.Low) || !finite(c.ComfortBand.High) || c.ComfortBand.Low >= c.ComfortBand.High {
		return configErrorf("comfort_band", "low must be below high, got [%v, %v]", c.ComfortBand.Low, c.ComfortBand.High)
	}
	return nil
}

func nonNegative(name string, v float64) error {
	if !finite(v) || v < 0 {
		return fmt.Errorf("%s must be a non-negative number, got %v", name, v)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
