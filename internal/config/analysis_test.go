package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

const fullPolicy = `
heat_thresholds:
  - threshold: 26
    count_failure:
      max_hours: 100
    streak_failure:
      min_streak_length_hours: 24
      max_count: 2
  - threshold: 30
    integrated_streak_failure:
      min_streak_length_hours: 12
      max_integral: 50
    exceedance_failure:
      max_deg_hours: 200
cold_thresholds:
  - threshold: 12
heat_index_criteria:
  danger_or_worse_hours: 10
thermal_comfort:
  met: 1.2
  clo: 0.7
  v: 0.2
comfort_band:
  low: 20
  high: 26
`

func TestParseAnalysisConfig_Full(t *testing.T) {
	cfg, err := ParseAnalysisConfig(strings.NewReader(fullPolicy))
	require.NoError(t, err)

	require.Len(t, cfg.HeatThresholds, 2)
	assert.Equal(t, 26.0, cfg.HeatThresholds[0].Threshold)
	assert.Equal(t, []overheating.Criterion{
		overheating.CountFailureCriterion{MaxHours: 100},
		overheating.StreakCriterion{MinStreakLengthHours: 24, MaxCount: 2},
	}, cfg.HeatThresholds[0].Criteria)
	assert.Equal(t, []overheating.Criterion{
		overheating.IntegratedStreakCriterion{MinStreakLengthHours: 12, MaxIntegral: 50},
		overheating.ExceedanceCriterion{MaxDegHours: 200},
	}, cfg.HeatThresholds[1].Criteria)

	require.Len(t, cfg.ColdThresholds, 1)
	assert.Equal(t, 12.0, cfg.ColdThresholds[0].Threshold)
	assert.Empty(t, cfg.ColdThresholds[0].Criteria)

	assert.Nil(t, cfg.HeatIndexCriteria.CautionOrWorseHours)
	require.NotNil(t, cfg.HeatIndexCriteria.DangerOrWorseHours)
	assert.Equal(t, 10.0, *cfg.HeatIndexCriteria.DangerOrWorseHours)
	assert.Nil(t, cfg.HeatIndexCriteria.ExtremeDangerHours)

	assert.Equal(t, overheating.ThermalComfortAssumptions{Met: 1.2, Clo: 0.7, V: 0.2}, cfg.ThermalComfort)
	assert.Equal(t, overheating.ComfortBand{Low: 20, High: 26}, cfg.ComfortBand)
}

func TestParseAnalysisConfig_EmptyDocumentIsDefault(t *testing.T) {
	cfg, err := ParseAnalysisConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, overheating.DefaultConfig(), cfg)
}

func TestParseAnalysisConfig_PartialKeepsDefaults(t *testing.T) {
	cfg, err := ParseAnalysisConfig(strings.NewReader("thermal_comfort:\n  met: 1.4\n"))
	require.NoError(t, err)

	def := overheating.DefaultConfig()
	assert.Equal(t, def.HeatThresholds, cfg.HeatThresholds)
	assert.Equal(t, def.ColdThresholds, cfg.ColdThresholds)
	assert.Equal(t, def.ComfortBand, cfg.ComfortBand)
	assert.Equal(t, overheating.ThermalComfortAssumptions{Met: 1.4, Clo: def.ThermalComfort.Clo, V: def.ThermalComfort.V}, cfg.ThermalComfort)
}

func TestParseAnalysisConfig_ThresholdListReplacesDefaults(t *testing.T) {
	cfg, err := ParseAnalysisConfig(strings.NewReader("cold_thresholds: []\n"))
	require.NoError(t, err)
	assert.Empty(t, cfg.ColdThresholds)
	assert.Len(t, cfg.HeatThresholds, 3)
}

func TestParseAnalysisConfig_UnknownKey(t *testing.T) {
	_, err := ParseAnalysisConfig(strings.NewReader("heat_thresholds:\n  - threshold: 26\n    max_hours: 10\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_hours")
}

func TestParseAnalysisConfig_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		doc   string
		field string
	}{
		{"duplicate threshold", "heat_thresholds:\n  - threshold: 26\n  - threshold: 26\n", "heat_thresholds[1]"},
		{"negative limit", "cold_thresholds:\n  - threshold: 10\n    count_failure:\n      max_hours: -1\n", "cold_thresholds[0].count_failure"},
		{"inverted band", "comfort_band:\n  low: 27\n  high: 22\n", "comfort_band"},
		{"zero clo", "thermal_comfort:\n  clo: 0\n", "thermal_comfort.clo"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseAnalysisConfig(strings.NewReader(tt.doc))
			require.ErrorIs(t, err, overheating.ErrConfiguration)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestEncodeAnalysisConfig_ParsesBack(t *testing.T) {
	want, err := ParseAnalysisConfig(strings.NewReader(fullPolicy))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, EncodeAnalysisConfig(&buf, want))

	got, err := ParseAnalysisConfig(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLoadAnalysisConfig(t *testing.T) {
	t.Run("empty path", func(t *testing.T) {
		cfg, err := LoadAnalysisConfig("")
		require.NoError(t, err)
		assert.Equal(t, overheating.DefaultConfig(), cfg)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "policy.yaml")
		require.NoError(t, os.WriteFile(path, []byte(fullPolicy), 0o600))

		cfg, err := LoadAnalysisConfig(path)
		require.NoError(t, err)
		assert.Len(t, cfg.HeatThresholds, 2)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadAnalysisConfig(filepath.Join(t.TempDir(), "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open analysis config")
	})

	t.Run("invalid file names path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("comfort_band:\n  low: 30\n"), 0o600))

		_, err := LoadAnalysisConfig(path)
		require.ErrorIs(t, err, overheating.ErrConfiguration)
		assert.Contains(t, err.Error(), path)
	})
}
