package overheating

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// classify runs the analysis tables for a single-zone dry-bulb series with a
// flat 50% RH and SET equal to dry-bulb, then classifies it under cfg.
func classify(t *testing.T, dbt *mat.Dense, cfg Config) ZoneRisk {
	t.Helper()
	rows, _ := dbt.Dims()
	rh := mat.NewDense(rows, HoursPerYear, nil)
	for z := 0; z < rows; z++ {
		row := rh.RawRowView(z)
		for h := range row {
			row[h] = 50
		}
	}
	analyzer, err := NewAnalyzer(cfg, dryBulbModel{})
	require.NoError(t, err)
	results, err := analyzer.Analyze(context.Background(), Inputs{DryBulb: dbt, RelativeHumidity: rh, MeanRadiant: dbt})
	require.NoError(t, err)
	require.Len(t, results.ZoneAtRisk.Zones, rows)
	return results.ZoneAtRisk.Zones[0]
}

func hotConfig(criteria ...Criterion) Config {
	cfg := DefaultConfig()
	cfg.HeatThresholds = []ThresholdWithCriteria{{Threshold: 26, Criteria: criteria}}
	cfg.ColdThresholds = nil
	return cfg
}

func TestClassifyZones_EachCriterionIsSufficient(t *testing.T) {
	// 100 hours at 28°C in a 20°C year: 100 exceedance hours, one 100h
	// streak with a 200 degree-hour integral, 200 EDH over 26°C.
	dbt := withRuns(constMatrix(20), 0, 28, [2]int{1000, 100})

	tests := []struct {
		name     string
		cfg      Config
		wantKind CriterionKind
	}{
		{"count", hotConfig(CountFailureCriterion{MaxHours: 99}), KindCountFailure},
		{"streak", hotConfig(StreakCriterion{MinStreakLengthHours: 24, MaxCount: 0}), KindStreakFailure},
		{"integrated streak", hotConfig(IntegratedStreakCriterion{MinStreakLengthHours: 24, MaxIntegral: 199}), KindIntegratedStreak},
		{"exceedance", hotConfig(ExceedanceCriterion{MaxDegHours: 199}), KindExceedance},
		{"heat index", func() Config {
			cfg := hotConfig()
			// 28°C/50%RH is 83.2°F, Caution
			cfg.HeatIndexCriteria.CautionOrWorseHours = ptr(99)
			return cfg
		}(), KindCautionOrWorse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			risk := classify(t, dbt, tt.cfg)
			assert.True(t, risk.AtRisk)
			require.Len(t, risk.Failures, 1)
			assert.Equal(t, tt.wantKind, risk.Failures[0].Criterion)
		})
	}
}

func TestClassifyZones_PassingCriteria(t *testing.T) {
	dbt := withRuns(constMatrix(20), 0, 28, [2]int{1000, 100})
	cfg := hotConfig(
		CountFailureCriterion{MaxHours: 100},
		StreakCriterion{MinStreakLengthHours: 24, MaxCount: 1},
		IntegratedStreakCriterion{MinStreakLengthHours: 24, MaxIntegral: 200},
		ExceedanceCriterion{MaxDegHours: 200},
	)
	cfg.HeatIndexCriteria = HeatIndexCriteria{
		CautionOrWorseHours: ptr(100),
		DangerOrWorseHours:  ptr(0),
		ExtremeDangerHours:  ptr(0),
	}

	risk := classify(t, dbt, cfg)
	assert.False(t, risk.AtRisk)
	assert.Empty(t, risk.Failures)
}

func TestClassifyZones_ShortStreaksExcludedFromIntegral(t *testing.T) {
	// two 20h streaks at 28°C integrate to 40 each; both are below the 30h
	// minimum so neither contributes
	dbt := withRuns(constMatrix(20), 0, 28, [2]int{100, 20}, [2]int{300, 20})
	risk := classify(t, dbt, hotConfig(IntegratedStreakCriterion{MinStreakLengthHours: 30, MaxIntegral: 50}))
	assert.False(t, risk.AtRisk)

	risk = classify(t, dbt, hotConfig(IntegratedStreakCriterion{MinStreakLengthHours: 20, MaxIntegral: 50}))
	assert.True(t, risk.AtRisk)
	require.Len(t, risk.Failures, 1)
	assert.InDelta(t, 80.0, risk.Failures[0].Observed, 1e-9)
}

func TestClassifyZones_StreakLengthIsInclusive(t *testing.T) {
	dbt := withRuns(constMatrix(20), 0, 28, [2]int{100, 20}, [2]int{300, 19})

	risk := classify(t, dbt, hotConfig(StreakCriterion{MinStreakLengthHours: 20, MaxCount: 0}))
	require.True(t, risk.AtRisk)
	assert.Equal(t, 1.0, risk.Failures[0].Observed)

	risk = classify(t, dbt, hotConfig(StreakCriterion{MinStreakLengthHours: 21, MaxCount: 0}))
	assert.False(t, risk.AtRisk)
}

func TestClassifyZones_ColdThreshold(t *testing.T) {
	dbt := withRuns(constMatrix(20), 0, 8, [2]int{0, 48})
	cfg := DefaultConfig()
	cfg.ColdThresholds = []ThresholdWithCriteria{{Threshold: 10, Criteria: []Criterion{CountFailureCriterion{MaxHours: 24}}}}

	risk := classify(t, dbt, cfg)
	assert.True(t, risk.AtRisk)
	require.Len(t, risk.Failures, 1)
	assert.Equal(t, Underheat, risk.Failures[0].Polarity)
	assert.Equal(t, 10.0, risk.Failures[0].Threshold)
	assert.Equal(t, "Underheat count_failure 10°C: 48 > 24", risk.Failures[0].String())
}

func TestClassifyZones_HeatIndexTiers(t *testing.T) {
	dbt := constMatrix(25)
	rh := constMatrix(40)
	withRuns(dbt, 0, 38, [2]int{0, 10})
	withRuns(rh, 0, 90, [2]int{0, 10})

	zones := mustZones(t, 1, nil, nil)
	hi, err := CalculateHeatIndexCategories(dbt, rh, zones)
	require.NoError(t, err)

	cfg := DefaultConfig()
	cfg.HeatIndexCriteria = HeatIndexCriteria{
		CautionOrWorseHours: ptr(10),
		DangerOrWorseHours:  ptr(9),
		ExtremeDangerHours:  ptr(5),
	}
	table, err := ClassifyZones(&Results{HeatIndex: hi}, cfg, zones)
	require.NoError(t, err)

	risk := table.Zones[0]
	assert.True(t, risk.AtRisk)
	require.Len(t, risk.Failures, 2)
	assert.Equal(t, KindDangerOrWorse, risk.Failures[0].Criterion)
	assert.Equal(t, KindExtremeDanger, risk.Failures[1].Criterion)
	assert.Equal(t, "extreme_danger_hours: 10 > 5", risk.Failures[1].String())
}

func TestClassifyZones_WeightsSumToOne(t *testing.T) {
	for _, scale := range []float64{1e-6, 1, 250, 1e9} {
		weights := []float64{2 * scale, 5 * scale, 3 * scale}
		zones := mustZones(t, 3, nil, weights)
		table, err := ClassifyZones(&Results{}, DefaultConfig(), zones)
		require.NoError(t, err)

		total := 0.0
		for _, z := range table.Zones {
			total += z.Weight
			assert.False(t, z.AtRisk)
		}
		assert.InDelta(t, 1.0, total, 1e-9, "scale %v", scale)
		assert.InDelta(t, 0.5, table.Zones[1].Weight, 1e-9)
	}
}

func TestClassifyZones_OnlyFailingZonesAtRisk(t *testing.T) {
	dbt := withRuns(constMatrix(20, 20), 1, 30, [2]int{0, 200})
	analyzer, err := NewAnalyzer(hotConfig(CountFailureCriterion{MaxHours: 100}), dryBulbModel{})
	require.NoError(t, err)

	results, err := analyzer.Analyze(context.Background(), Inputs{
		DryBulb:          dbt,
		RelativeHumidity: constMatrix(50, 50),
		MeanRadiant:      dbt,
		ZoneNames:        []string{"North", "South"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"South"}, results.ZoneAtRisk.AtRisk())
	north, ok := results.ZoneAtRisk.Zone("North")
	require.True(t, ok)
	assert.False(t, north.AtRisk)
}

func TestClassifyZones_UndefinedThreshold(t *testing.T) {
	zones := mustZones(t, 1, nil, nil)
	basic, err := CountThresholdHours(constMatrix(20), []float64{30}, nil, zones)
	require.NoError(t, err)

	_, err = ClassifyZones(&Results{BasicOverheating: basic}, hotConfig(CountFailureCriterion{MaxHours: 1}), zones)

	var cfgErr *ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), "threshold 26")
	assert.Contains(t, err.Error(), `zone "Zone 000"`)
}

func TestClassifyZones_HeatIndexCriterionWithoutTable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HeatIndexCriteria.CautionOrWorseHours = ptr(1)

	_, err := ClassifyZones(&Results{}, cfg, mustZones(t, 1, nil, nil))
	require.ErrorIs(t, err, ErrConfiguration)
}

func TestFailure_JSONKeepsZeroThreshold(t *testing.T) {
	cold := Failure{Criterion: KindCountFailure, Polarity: Underheat, Threshold: 0, Observed: 300, Limit: 100}
	b, err := json.Marshal(cold)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"threshold_degc":0`)

	var back Failure
	require.NoError(t, json.Unmarshal(b, &back))
	assert.Equal(t, cold, back)

	hi := Failure{Criterion: KindCautionOrWorse, Observed: 12, Limit: 0}
	b, err = json.Marshal(hi)
	require.NoError(t, err)
	assert.NotContains(t, string(b), "threshold_degc")
	assert.NotContains(t, string(b), "polarity")
}
