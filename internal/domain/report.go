package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// Output message headers.
const (
	HeaderReportID     = "report_id"
	HeaderSimulationID = "simulation_id"
	HeaderAtRiskZones  = "at_risk_zones"
	HeaderAnalyzedAt   = "analyzed_at"
)

// NewAnalysisReport wraps analysis results for publication.
func NewAnalysisReport(payload SimulationPayload, results *overheating.Results) AnalysisReport {
	report := AnalysisReport{
		ID:           generateID(payload.SimulationID, payload.RawPayload),
		SimulationID: payload.SimulationID,
		Zones:        []string{},
		AtRiskZones:  []string{},
		Results:      results,
		AnalyzedAt:   clock.Now().UTC(),
	}
	if results != nil && results.ZoneAtRisk != nil {
		for _, z := range results.ZoneAtRisk.Zones {
			report.Zones = append(report.Zones, z.Zone)
		}
		if atRisk := results.ZoneAtRisk.AtRisk(); atRisk != nil {
			report.AtRiskZones = atRisk
		}
	}
	return report
}

// SerializeReport marshals a report into an output event keyed by
// simulation ID.
func SerializeReport(report AnalysisReport) (OutputEvent, error) {
	data, err := json.Marshal(report)
	if err != nil {
		return OutputEvent{}, fmt.Errorf("serialize analysis report %s: %w", report.ID, err)
	}
	return OutputEvent{
		Key:   []byte(report.SimulationID),
		Value: data,
		Headers: map[string]string{
			HeaderReportID:     report.ID,
			HeaderSimulationID: report.SimulationID,
			HeaderAtRiskZones:  strconv.Itoa(len(report.AtRiskZones)),
			HeaderAnalyzedAt:   report.AnalyzedAt.Format(time.RFC3339),
		},
	}, nil
}

// generateID derives a report ID from the simulation ID and the exact
// payload bytes, so redelivered messages map to the same report.
func generateID(simulationID string, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(simulationID))
	h.Write([]byte{0})
	h.Write(payload)
	return "report-" + hex.EncodeToString(h.Sum(nil)[:8])
}
