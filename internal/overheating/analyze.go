package overheating

import (
	"context"

	"gonum.org/v1/gonum/mat"
)

// Inputs is one simulation run: three (zones, 8760) matrices in °C, %RH and
// °C plus optional zone metadata.
type Inputs struct {
	DryBulb          *mat.Dense
	RelativeHumidity *mat.Dense
	MeanRadiant      *mat.Dense
	ZoneNames        []string
	ZoneWeights      []float64
}

// Results bundles every table produced by an analysis.
type Results struct {
	HeatIndex        *HeatIndexTable `json:"heat_index"`
	EDH              *Table          `json:"edh"`
	ComfortBandEDH   *Table          `json:"comfort_band_edh"`
	BasicOverheating *Table          `json:"basic_overheating"`
	Streaks          *StreakTable    `json:"consecutive_exceedance"`
	ZoneAtRisk       *RiskTable      `json:"zone_at_risk"`
}

// Analyzer runs the full analysis with a fixed policy and comfort model. It
// holds no per-run state and is safe for concurrent use.
type Analyzer struct {
	cfg   Config
	model ComfortModel
}

// NewAnalyzer validates cfg and returns an Analyzer.
func NewAnalyzer(cfg Config, model ComfortModel) (*Analyzer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if model == nil {
		return nil, configErrorf("comfort_model", "no comfort model configured")
	}
	return &Analyzer{cfg: cfg, model: model}, nil
}

// Config returns the analysis policy.
func (a *Analyzer) Config() Config { return a.cfg }

// Zones validates zone metadata and every input matrix without analysing
// anything.
func (a *Analyzer) Zones(in Inputs) (ZoneSet, error) {
	if err := CheckShape("dry_bulb", in.DryBulb, AnyZoneCount, HoursPerYear); err != nil {
		return ZoneSet{}, err
	}
	rows, _ := in.DryBulb.Dims()
	zones, err := NewZoneSet(rows, in.ZoneNames, in.ZoneWeights)
	if err != nil {
		return ZoneSet{}, err
	}
	for _, m := range []struct {
		name string
		m    *mat.Dense
	}{{"dry_bulb", in.DryBulb}, {"relative_humidity", in.RelativeHumidity}, {"mean_radiant", in.MeanRadiant}} {
		if err := CheckShape(m.name, m.m, zones.Len(), HoursPerYear); err != nil {
			return ZoneSet{}, err
		}
	}
	return zones, nil
}

// Analyze produces the full result bundle or fails without partial results.
// Inputs are validated before any computation.
func (a *Analyzer) Analyze(ctx context.Context, in Inputs) (*Results, error) {
	zones, err := a.Zones(in)
	if err != nil {
		return nil, err
	}
	hot, cold := a.cfg.HotThresholdValues(), a.cfg.ColdThresholdValues()

	hi, err := CalculateHeatIndexCategories(in.DryBulb, in.RelativeHumidity, zones)
	if err != nil {
		return nil, err
	}
	basic, err := CountThresholdHours(in.DryBulb, hot, cold, zones)
	if err != nil {
		return nil, err
	}
	streaks, err := FindStreaks(in.DryBulb, hot, cold, zones)
	if err != nil {
		return nil, err
	}
	edh, err := CalculateEDH(ctx, in.DryBulb, in.RelativeHumidity, in.MeanRadiant,
		hot, cold, a.cfg.ComfortBand, a.cfg.ThermalComfort, a.model, zones)
	if err != nil {
		return nil, err
	}

	results := &Results{
		HeatIndex:        hi,
		EDH:              edh.Thresholds,
		ComfortBandEDH:   edh.ComfortBand,
		BasicOverheating: basic,
		Streaks:          streaks,
	}
	risk, err := ClassifyZones(results, a.cfg, zones)
	if err != nil {
		return nil, err
	}
	results.ZoneAtRisk = risk
	return results, nil
}
