package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

func testResults() *overheating.Results {
	return &overheating.Results{
		ZoneAtRisk: &overheating.RiskTable{Zones: []overheating.ZoneRisk{
			{Zone: "Living", Weight: 0.75},
			{Zone: "Attic", Weight: 0.25, AtRisk: true, Failures: []overheating.Failure{
				{Criterion: overheating.KindCountFailure, Polarity: overheating.Overheat, Threshold: 26, Observed: 8760, Limit: 100},
			}},
		}},
	}
}

func TestNewAnalysisReport(t *testing.T) {
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { SetClock(nil) })

	payload := SimulationPayload{SimulationID: testSimulationID, RawPayload: []byte(`{"simulation_id":"sim-0042"}`)}
	report := NewAnalysisReport(payload, testResults())

	assert.Equal(t, testSimulationID, report.SimulationID)
	assert.Equal(t, []string{"Living", "Attic"}, report.Zones)
	assert.Equal(t, []string{"Attic"}, report.AtRiskZones)
	assert.Equal(t, fixed, report.AnalyzedAt)
	assert.Regexp(t, `^report-[0-9a-f]{16}$`, report.ID)
}

func TestNewAnalysisReport_NoZonesAtRisk(t *testing.T) {
	results := testResults()
	results.ZoneAtRisk.Zones[1].AtRisk = false

	report := NewAnalysisReport(SimulationPayload{SimulationID: "s"}, results)
	assert.NotNil(t, report.AtRiskZones)
	assert.Empty(t, report.AtRiskZones)
}

func TestGenerateID_Deterministic(t *testing.T) {
	a := generateID("sim-1", []byte("payload"))
	assert.Equal(t, a, generateID("sim-1", []byte("payload")))
	assert.NotEqual(t, a, generateID("sim-1", []byte("payload2")))
	assert.NotEqual(t, a, generateID("sim-2", []byte("payload")))
}

func TestSerializeReport(t *testing.T) {
	fixed := time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC)
	report := AnalysisReport{
		ID:           "report-abc",
		SimulationID: testSimulationID,
		Zones:        []string{"Living", "Attic"},
		AtRiskZones:  []string{"Attic"},
		Results:      testResults(),
		AnalyzedAt:   fixed,
	}

	out, err := SerializeReport(report)
	require.NoError(t, err)

	assert.Equal(t, []byte(testSimulationID), out.Key)
	assert.Equal(t, map[string]string{
		HeaderReportID:     "report-abc",
		HeaderSimulationID: testSimulationID,
		HeaderAtRiskZones:  "1",
		HeaderAnalyzedAt:   "2024-07-01T12:00:00Z",
	}, out.Headers)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Value, &decoded))
	assert.Equal(t, "report-abc", decoded["id"])
	assert.Contains(t, string(out.Value), `"criterion":"count_failure"`)
	assert.Contains(t, string(out.Value), `"at_risk":true`)
}
