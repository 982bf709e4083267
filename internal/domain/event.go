package domain

import (
	"context"
	"time"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// RawEvent represents an unprocessed message from the source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ZoneWeight is a zone's aggregation weight, usually its floor area in m².
type ZoneWeight struct {
	Zone   string  `json:"zone"`
	Weight float64 `json:"weight"`
}

// MatrixRef points at an object holding the hourly matrices when they are
// too large to travel inline.
type MatrixRef struct {
	Bucket string `json:"bucket,omitempty"`
	Key    string `json:"key"`
}

// Matrices holds the three hourly zone series, each as rows of 8760 values.
type Matrices struct {
	DryBulb          [][]float64 `json:"dry_bulb"`
	RelativeHumidity [][]float64 `json:"relative_humidity"`
	MeanRadiant      [][]float64 `json:"mean_radiant"`
}

// SimulationPayload is one simulation run as published by the upstream
// simulation service. Matrices are either inline or referenced by
// MatrixRef, never both.
type SimulationPayload struct {
	SimulationID string       `json:"simulation_id"`
	ZoneNames    []string     `json:"zone_names,omitempty"`
	ZoneWeights  []ZoneWeight `json:"zone_weights,omitempty"`
	Matrices
	MatrixRef *MatrixRef `json:"matrix_ref,omitempty"`

	RawPayload []byte `json:"-"`
}

// AnalysisReport is the published result of analysing one simulation.
type AnalysisReport struct {
	ID           string               `json:"id"`
	SimulationID string               `json:"simulation_id"`
	Zones        []string             `json:"zones"`
	AtRiskZones  []string             `json:"at_risk_zones"`
	Results      *overheating.Results `json:"results"`
	AnalyzedAt   time.Time            `json:"analyzed_at"`
}

// OutputEvent is the serialized form destined for the sink topic.
type OutputEvent struct {
	Key     []byte
	Value   []byte
	Headers map[string]string
}
