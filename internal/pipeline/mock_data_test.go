package pipeline_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thermal-risk-etl/internal/comfort"
	"github.com/couchcryptid/thermal-risk-etl/internal/domain"
	"github.com/couchcryptid/thermal-risk-etl/internal/mock"
	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

func TestAnalysisTransformer_WithMockSimulation(t *testing.T) {
	if testing.Short() {
		t.Skip("runs the full SET solver for every zone-hour")
	}
	tfm, _ := newTestTransformer(t, comfort.NewModel(comfort.Options{}), nil)
	payload := mock.Simulation(mock.Options{SimulationID: "sim-mock", Seed: 42, Noise: 0.5})

	out, err := tfm.Transform(context.Background(), rawFromPayload(t, payload))
	require.NoError(t, err)

	var report domain.AnalysisReport
	require.NoError(t, json.Unmarshal(out.Value, &report))
	require.NotNil(t, report.Results)
	assert.Equal(t, []string{"Attic"}, report.AtRiskZones)

	band := report.Results.ComfortBandEDH
	attic, ok := band.Zone(overheating.Overheat, 27, "Attic")
	require.True(t, ok)
	living, ok := band.Zone(overheating.Overheat, 27, "Living")
	require.True(t, ok)
	assert.Greater(t, attic, living)

	counts, ok := report.Results.HeatIndex.Zone("Living")
	require.True(t, ok)
	assert.Equal(t, overheating.HoursPerYear, counts.Total())
}
