package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

// ErrInvalidPayload is returned for payloads that cannot describe a
// simulation run at all.
var ErrInvalidPayload = errors.New("invalid simulation payload")

// ParseRawEvent deserializes a RawEvent's value into a SimulationPayload.
// Matrix shapes are checked later by Inputs.
func ParseRawEvent(raw RawEvent) (SimulationPayload, error) {
	var p SimulationPayload
	if err := json.Unmarshal(raw.Value, &p); err != nil {
		return SimulationPayload{}, fmt.Errorf("parse simulation payload: %w", err)
	}
	p.SimulationID = strings.TrimSpace(p.SimulationID)
	if p.SimulationID == "" {
		p.SimulationID = strings.TrimSpace(string(raw.Key))
	}
	if p.SimulationID == "" {
		return SimulationPayload{}, fmt.Errorf("parse simulation payload: %w: missing simulation_id", ErrInvalidPayload)
	}
	if p.MatrixRef != nil && p.HasInlineMatrices() {
		return SimulationPayload{}, fmt.Errorf("parse simulation payload %s: %w: both inline matrices and matrix_ref given",
			p.SimulationID, ErrInvalidPayload)
	}
	if p.MatrixRef == nil && !p.HasInlineMatrices() {
		return SimulationPayload{}, fmt.Errorf("parse simulation payload %s: %w: no matrices", p.SimulationID, ErrInvalidPayload)
	}
	if p.MatrixRef != nil && p.MatrixRef.Key == "" {
		return SimulationPayload{}, fmt.Errorf("parse simulation payload %s: %w: matrix_ref without key",
			p.SimulationID, ErrInvalidPayload)
	}
	p.RawPayload = raw.Value
	return p, nil
}

// HasInlineMatrices reports whether any matrix travels in the payload itself.
func (p SimulationPayload) HasInlineMatrices() bool {
	return len(p.DryBulb) > 0 || len(p.RelativeHumidity) > 0 || len(p.MeanRadiant) > 0
}

// Inputs converts the inline matrices and zone metadata into analysis inputs.
// Zone weights are matched to zone names case-insensitively and reordered
// to matrix row order.
func (p SimulationPayload) Inputs() (overheating.Inputs, error) {
	dbt, err := overheating.MatrixFromRows("dry_bulb", p.DryBulb)
	if err != nil {
		return overheating.Inputs{}, err
	}
	rh, err := overheating.MatrixFromRows("relative_humidity", p.RelativeHumidity)
	if err != nil {
		return overheating.Inputs{}, err
	}
	mrt, err := overheating.MatrixFromRows("mean_radiant", p.MeanRadiant)
	if err != nil {
		return overheating.Inputs{}, err
	}

	names := p.ZoneNames
	if len(names) == 0 {
		names = nil
	}
	weights, err := alignZoneWeights(names, len(p.DryBulb), p.ZoneWeights)
	if err != nil {
		return overheating.Inputs{}, err
	}

	return overheating.Inputs{
		DryBulb:          dbt,
		RelativeHumidity: rh,
		MeanRadiant:      mrt,
		ZoneNames:        names,
		ZoneWeights:      weights,
	}, nil
}

// alignZoneWeights returns weights in the order of names (or default names
// for rows zones when names is nil). Every zone must have exactly one weight.
func alignZoneWeights(names []string, rows int, weights []ZoneWeight) ([]float64, error) {
	if len(weights) == 0 {
		return nil, nil
	}
	if names == nil {
		names = make([]string, rows)
		for i := range names {
			names[i] = overheating.DefaultZoneName(i)
		}
	}

	byName := make(map[string]float64, len(weights))
	for _, w := range weights {
		key := strings.ToLower(strings.TrimSpace(w.Zone))
		if _, dup := byName[key]; dup {
			return nil, &overheating.ConfigurationError{
				Field:  "zone_weights",
				Reason: fmt.Sprintf("zone %q has more than one weight", w.Zone),
			}
		}
		byName[key] = w.Weight
	}
	if len(byName) != len(names) {
		return nil, &overheating.ConfigurationError{
			Field: "zone_weights",
			Reason: fmt.Sprintf("zone names and zone weights must have the same length; got %d zone names and %d zone weights",
				len(names), len(byName)),
		}
	}

	aligned := make([]float64, len(names))
	for i, name := range names {
		w, ok := byName[strings.ToLower(strings.TrimSpace(name))]
		if !ok {
			return nil, &overheating.ConfigurationError{
				Field:  "zone_weights",
				Reason: fmt.Sprintf("no weight for zone %q", name),
			}
		}
		aligned[i] = w
	}
	return aligned, nil
}
