package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// analysisDoc is the YAML form of overheating.Config. Each threshold carries
// one optional field per criterion kind.
type analysisDoc struct {
	HeatThresholds    []thresholdDoc    `yaml:"heat_thresholds"`
	ColdThresholds    []thresholdDoc    `yaml:"cold_thresholds"`
	HeatIndexCriteria heatIndexDoc      `yaml:"heat_index_criteria"`
	ThermalComfort    thermalComfortDoc `yaml:"thermal_comfort"`
	ComfortBand       comfortBandDoc    `yaml:"comfort_band"`
}

type thresholdDoc struct {
	Threshold               float64               `yaml:"threshold"`
	CountFailure            *countFailureDoc      `yaml:"count_failure,omitempty"`
	StreakFailure           *streakFailureDoc     `yaml:"streak_failure,omitempty"`
	IntegratedStreakFailure *integratedStreakDoc  `yaml:"integrated_streak_failure,omitempty"`
	ExceedanceFailure       *exceedanceFailureDoc `yaml:"exceedance_failure,omitempty"`
}

type countFailureDoc struct {
	MaxHours float64 `yaml:"max_hours"`
}

type streakFailureDoc struct {
	MinStreakLengthHours float64 `yaml:"min_streak_length_hours"`
	MaxCount             float64 `yaml:"max_count"`
}

type integratedStreakDoc struct {
	MinStreakLengthHours float64 `yaml:"min_streak_length_hours"`
	MaxIntegral          float64 `yaml:"max_integral"`
}

type exceedanceFailureDoc struct {
	MaxDegHours float64 `yaml:"max_deg_hours"`
}

type heatIndexDoc struct {
	CautionOrWorseHours *float64 `yaml:"caution_or_worse_hours,omitempty"`
	DangerOrWorseHours  *float64 `yaml:"danger_or_worse_hours,omitempty"`
	ExtremeDangerHours  *float64 `yaml:"extreme_danger_hours,omitempty"`
}

type thermalComfortDoc struct {
	Met float64 `yaml:"met"`
	Clo float64 `yaml:"clo"`
	V   float64 `yaml:"v"`
}

type comfortBandDoc struct {
	Low  float64 `yaml:"low"`
	High float64 `yaml:"high"`
}

// LoadAnalysisConfig reads a YAML analysis policy from path. An empty path
// returns overheating.DefaultConfig.
func LoadAnalysisConfig(path string) (overheating.Config, error) {
	if path == "" {
		return overheating.DefaultConfig(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return overheating.Config{}, fmt.Errorf("open analysis config: %w", err)
	}
	defer f.Close()

	cfg, err := ParseAnalysisConfig(f)
	if err != nil {
		return overheating.Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseAnalysisConfig decodes a YAML analysis policy. Sections that are
// absent keep their defaults; a present threshold list replaces the default
// list entirely. Unknown keys are rejected.
func ParseAnalysisConfig(r io.Reader) (overheating.Config, error) {
	doc := docFromConfig(overheating.DefaultConfig())

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return overheating.Config{}, fmt.Errorf("decode analysis config: %w", err)
	}

	cfg := doc.toConfig()
	if err := cfg.Validate(); err != nil {
		return overheating.Config{}, fmt.Errorf("validate analysis config: %w", err)
	}
	return cfg, nil
}

// EncodeAnalysisConfig writes cfg as YAML in the form ParseAnalysisConfig
// reads.
func EncodeAnalysisConfig(w io.Writer, cfg overheating.Config) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(docFromConfig(cfg)); err != nil {
		return fmt.Errorf("encode analysis config: %w", err)
	}
	return enc.Close()
}

func (d analysisDoc) toConfig() overheating.Config {
	return overheating.Config{
		HeatThresholds: thresholdsFromDocs(d.HeatThresholds),
		ColdThresholds: thresholdsFromDocs(d.ColdThresholds),
		HeatIndexCriteria: overheating.HeatIndexCriteria{
			CautionOrWorseHours: d.HeatIndexCriteria.CautionOrWorseHours,
			DangerOrWorseHours:  d.HeatIndexCriteria.DangerOrWorseHours,
			ExtremeDangerHours:  d.HeatIndexCriteria.ExtremeDangerHours,
		},
		ThermalComfort: overheating.ThermalComfortAssumptions{
			Met: d.ThermalComfort.Met,
			Clo: d.ThermalComfort.Clo,
			V:   d.ThermalComfort.V,
		},
		ComfortBand: overheating.ComfortBand{Low: d.ComfortBand.Low, High: d.ComfortBand.High},
	}
}

func thresholdsFromDocs(docs []thresholdDoc) []overheating.ThresholdWithCriteria {
	out := make([]overheating.ThresholdWithCriteria, 0, len(docs))
	for _, d := range docs {
		t := overheating.ThresholdWithCriteria{Threshold: d.Threshold}
		if c := d.CountFailure; c != nil {
			t.Criteria = append(t.Criteria, overheating.CountFailureCriterion{MaxHours: c.MaxHours})
		}
		if c := d.StreakFailure; c != nil {
			t.Criteria = append(t.Criteria, overheating.StreakCriterion{
				MinStreakLengthHours: c.MinStreakLengthHours,
				MaxCount:             c.MaxCount,
			})
		}
		if c := d.IntegratedStreakFailure; c != nil {
			t.Criteria = append(t.Criteria, overheating.IntegratedStreakCriterion{
				MinStreakLengthHours: c.MinStreakLengthHours,
				MaxIntegral:          c.MaxIntegral,
			})
		}
		if c := d.ExceedanceFailure; c != nil {
			t.Criteria = append(t.Criteria, overheating.ExceedanceCriterion{MaxDegHours: c.MaxDegHours})
		}
		out = append(out, t)
	}
	return out
}

func docFromConfig(cfg overheating.Config) analysisDoc {
	return analysisDoc{
		HeatThresholds: docsFromThresholds(cfg.HeatThresholds),
		ColdThresholds: docsFromThresholds(cfg.ColdThresholds),
		HeatIndexCriteria: heatIndexDoc{
			CautionOrWorseHours: cfg.HeatIndexCriteria.CautionOrWorseHours,
			DangerOrWorseHours:  cfg.HeatIndexCriteria.DangerOrWorseHours,
			ExtremeDangerHours:  cfg.HeatIndexCriteria.ExtremeDangerHours,
		},
		ThermalComfort: thermalComfortDoc{Met: cfg.ThermalComfort.Met, Clo: cfg.ThermalComfort.Clo, V: cfg.ThermalComfort.V},
		ComfortBand:    comfortBandDoc{Low: cfg.ComfortBand.Low, High: cfg.ComfortBand.High},
	}
}

func docsFromThresholds(ts []overheating.ThresholdWithCriteria) []thresholdDoc {
	out := make([]thresholdDoc, 0, len(ts))
	for _, t := range ts {
		d := thresholdDoc{Threshold: t.Threshold}
		for _, c := range t.Criteria {
			switch c := c.(type) {
			case overheating.CountFailureCriterion:
				d.CountFailure = &countFailureDoc{MaxHours: c.MaxHours}
			case overheating.StreakCriterion:
				d.StreakFailure = &streakFailureDoc{MinStreakLengthHours: c.MinStreakLengthHours, MaxCount: c.MaxCount}
			case overheating.IntegratedStreakCriterion:
				d.IntegratedStreakFailure = &integratedStreakDoc{MinStreakLengthHours: c.MinStreakLengthHours, MaxIntegral: c.MaxIntegral}
			case overheating.ExceedanceCriterion:
				d.ExceedanceFailure = &exceedanceFailureDoc{MaxDegHours: c.MaxDegHours}
			}
		}
		out = append(out, d)
	}
	return out
}
