package overheating

import (
	"encoding/json"
	"fmt"
)

// Failure is one criterion that fired for a zone.
type Failure struct {
	Criterion CriterionKind `json:"criterion"`
	// Polarity and Threshold are empty for heat-index criteria.
	Polarity  Polarity `json:"polarity,omitempty"`
	Threshold float64  `json:"-"`
	Observed  float64  `json:"observed"`
	Limit     float64  `json:"limit"`
}

// MarshalJSON writes threshold_degc for every threshold criterion, 0 °C included.
func (f Failure) MarshalJSON() ([]byte, error) {
	type plain Failure
	out := struct {
		plain
		Threshold *float64 `json:"threshold_degc,omitempty"`
	}{plain: plain(f)}
	if f.Polarity != "" {
		out.Threshold = &f.Threshold
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads the threshold_degc written by MarshalJSON.
func (f *Failure) UnmarshalJSON(b []byte) error {
	type plain Failure
	var in struct {
		plain
		Threshold float64 `json:"threshold_degc"`
	}
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*f = Failure(in.plain)
	f.Threshold = in.Threshold
	return nil
}

func (f Failure) String() string {
	if f.Polarity == "" {
		return fmt.Sprintf("%s: %g > %g", f.Criterion, f.Observed, f.Limit)
	}
	return fmt.Sprintf("%s %s %g°C: %g > %g", f.Polarity, f.Criterion, f.Threshold, f.Observed, f.Limit)
}

// ZoneRisk is the classification of one zone.
type ZoneRisk struct {
	Zone     string    `json:"zone"`
	Weight   float64   `json:"weight"`
	AtRisk   bool      `json:"at_risk"`
	Failures []Failure `json:"failures,omitempty"`
}

// RiskTable has one row per zone in matrix order. Weights sum to 1.
type RiskTable struct {
	Zones []ZoneRisk `json:"zones"`
}

// Zone returns the row for a zone.
func (t *RiskTable) Zone(name string) (ZoneRisk, bool) {
	if t == nil {
		return ZoneRisk{}, false
	}
	for _, z := range t.Zones {
		if z.Zone == name {
			return z, true
		}
	}
	return ZoneRisk{}, false
}

// AtRisk returns the names of at-risk zones.
func (t *RiskTable) AtRisk() []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, z := range t.Zones {
		if z.AtRisk {
			out = append(out, z.Zone)
		}
	}
	return out
}

// ClassifyZones marks a zone at risk when any criterion of any threshold, or
// any heat-index limit, fails for it. results must carry the heat-index,
// basic, streak and EDH tables for every threshold in cfg.
func ClassifyZones(results *Results, cfg Config, zones ZoneSet) (*RiskTable, error) {
	if results == nil {
		return nil, configErrorf("results", "no analysis results to classify")
	}
	table := &RiskTable{Zones: make([]ZoneRisk, zones.Len())}

	for z := 0; z < zones.Len(); z++ {
		name := zones.Name(z)
		row := ZoneRisk{Zone: name, Weight: zones.Weight(z)}

		for _, pass := range []struct {
			polarity   Polarity
			thresholds []ThresholdWithCriteria
		}{{Overheat, cfg.HeatThresholds}, {Underheat, cfg.ColdThresholds}} {
			for _, t := range pass.thresholds {
				if len(t.Criteria) == 0 {
					continue
				}
				m, err := metricsFor(results, pass.polarity, t, name)
				if err != nil {
					return nil, err
				}
				for _, crit := range t.Criteria {
					observed, limit, failed := crit.evaluate(m)
					if failed {
						row.Failures = append(row.Failures, Failure{
							Criterion: crit.Kind(),
							Polarity:  pass.polarity,
							Threshold: t.Threshold,
							Observed:  observed,
							Limit:     limit,
						})
					}
				}
			}
		}

		hiFailures, err := heatIndexFailures(results.HeatIndex, cfg.HeatIndexCriteria, name)
		if err != nil {
			return nil, err
		}
		row.Failures = append(row.Failures, hiFailures...)
		row.AtRisk = len(row.Failures) > 0
		table.Zones[z] = row
	}
	return table, nil
}

// metricsFor collects what the criteria of t need. Only the tables the
// criteria actually read are required to contain the threshold.
func metricsFor(results *Results, p Polarity, t ThresholdWithCriteria, zone string) (thresholdMetrics, error) {
	var m thresholdMetrics
	for _, crit := range t.Criteria {
		switch crit.(type) {
		case CountFailureCriterion, *CountFailureCriterion:
			hours, ok := results.BasicOverheating.Zone(p, t.Threshold, zone)
			if !ok {
				return m, undefinedThreshold(p, t.Threshold, zone, "basic threshold")
			}
			m.hours = hours
		case ExceedanceCriterion, *ExceedanceCriterion:
			edh, ok := results.EDH.Zone(p, t.Threshold, zone)
			if !ok {
				return m, undefinedThreshold(p, t.Threshold, zone, "exceedance degree-hour")
			}
			m.edh = edh
		}
	}
	m.streaks = results.Streaks.ForZone(p, t.Threshold, zone)
	return m, nil
}

func undefinedThreshold(p Polarity, threshold float64, zone, table string) error {
	return configErrorf("thresholds",
		"%s threshold %g has no %s results for zone %q", p, threshold, table, zone)
}

func heatIndexFailures(hi *HeatIndexTable, c HeatIndexCriteria, zone string) ([]Failure, error) {
	limits := []struct {
		kind  CriterionKind
		floor Category
		limit *float64
	}{
		{KindCautionOrWorse, Caution, c.CautionOrWorseHours},
		{KindDangerOrWorse, Danger, c.DangerOrWorseHours},
		{KindExtremeDanger, ExtremeDanger, c.ExtremeDangerHours},
	}

	var out []Failure
	for _, l := range limits {
		if l.limit == nil {
			continue
		}
		if hi == nil {
			return nil, configErrorf("heat_index_criteria", "no heat index results to evaluate %s", l.kind)
		}
		counts, ok := hi.Zone(zone)
		if !ok {
			return nil, configErrorf("heat_index_criteria", "no heat index results for zone %q", zone)
		}
		observed := float64(counts.AtLeast(l.floor))
		if observed > *l.limit {
			out = append(out, Failure{Criterion: l.kind, Observed: observed, Limit: *l.limit})
		}
	}
	return out, nil
}
