package overheating

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewZoneSet_Defaults(t *testing.T) {
	zones, err := NewZoneSet(3, nil, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"Zone 000", "Zone 001", "Zone 002"}, zones.Names())
	for _, w := range zones.Weights() {
		assert.InDelta(t, 1.0/3, w, 1e-12)
	}
	i, ok := zones.Index("Zone 002")
	require.True(t, ok)
	assert.Equal(t, 2, i)
}

func TestNewZoneSet_NormalizesWeights(t *testing.T) {
	zones, err := NewZoneSet(2, []string{"Living", "Bed"}, []float64{120, 40})
	require.NoError(t, err)

	assert.InDelta(t, 0.75, zones.Weight(0), 1e-12)
	assert.InDelta(t, 0.25, zones.Weight(1), 1e-12)
	assert.InDelta(t, 70.0, zones.weightedSum([]float64{80, 40}), 1e-9)
}

func TestNewZoneSet_NamesFromWeights(t *testing.T) {
	zones, err := NewZoneSet(5, nil, []float64{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 2, zones.Len())
}

func TestNewZoneSet_Errors(t *testing.T) {
	tests := []struct {
		name    string
		names   []string
		weights []float64
		wantErr string
	}{
		{"length mismatch", []string{"A", "B"}, []float64{1}, "must have the same length; got 2 zone names and 1 zone weights"},
		{"empty", []string{}, nil, "at least one zone"},
		{"duplicate", []string{"A", "A"}, nil, `duplicate zone name "A"`},
		{"negative weight", []string{"A", "B"}, []float64{1, -1}, `zone "B" has invalid weight -1`},
		{"NaN weight", []string{"A"}, []float64{math.NaN()}, "invalid weight"},
		{"zero sum", []string{"A", "B"}, []float64{0, 0}, "must sum to a positive value"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewZoneSet(2, tt.names, tt.weights)
			var cfgErr *ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewZoneSet_CopiesInput(t *testing.T) {
	names := []string{"A"}
	zones, err := NewZoneSet(1, names, nil)
	require.NoError(t, err)

	names[0] = "B"
	assert.Equal(t, "A", zones.Name(0))
}
