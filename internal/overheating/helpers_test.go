package overheating

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// constMatrix returns a (zones, 8760) matrix with every zone held at the
// matching value.
func constMatrix(values ...float64) *mat.Dense {
	m := mat.NewDense(len(values), HoursPerYear, nil)
	for z, v := range values {
		row := m.RawRowView(z)
		for h := range row {
			row[h] = v
		}
	}
	return m
}

// withRuns sets hours [start, start+length) of zone z to value.
func withRuns(m *mat.Dense, z int, value float64, runs ...[2]int) *mat.Dense {
	row := m.RawRowView(z)
	for _, r := range runs {
		for h := r[0]; h < r[0]+r[1]; h++ {
			row[h] = value
		}
	}
	return m
}

func mustZones(t *testing.T, rows int, names []string, weights []float64) ZoneSet {
	t.Helper()
	zones, err := NewZoneSet(rows, names, weights)
	require.NoError(t, err)
	return zones
}

// dryBulbModel reports SET equal to dry-bulb temperature.
type dryBulbModel struct{}

func (dryBulbModel) StandardEffectiveTemperature(_ context.Context, in ComfortInputs) ([]float64, error) {
	return append([]float64(nil), in.DryBulb...), nil
}

// funcModel adapts a function to ComfortModel.
type funcModel func(ComfortInputs) ([]float64, error)

func (f funcModel) StandardEffectiveTemperature(_ context.Context, in ComfortInputs) ([]float64, error) {
	return f(in)
}

func ptr(v float64) *float64 { return &v }
