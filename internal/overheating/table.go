package overheating

import "encoding/json"

// Polarity distinguishes hot (above threshold) from cold (below threshold)
// exceedance.
type Polarity string

const (
	Overheat  Polarity = "Overheat"
	Underheat Polarity = "Underheat"
)

// AggregationUnit says whether a row describes the whole building or one zone.
type AggregationUnit string

const (
	UnitBuilding AggregationUnit = "Building"
	UnitZone     AggregationUnit = "Zone"
)

// Building-level group names.
const (
	GroupAnyZone          = "Any Zone"
	GroupZoneWeighted     = "Zone Weighted"
	GroupWorstZone        = "Worst Zone"
	GroupEquallyWeighted  = "Equally Weighted"
	GroupModalPerTimestep = "Modal per Timestep"
	GroupWorstPerTimestep = "Worst per Timestep"
)

// Key addresses one value in a threshold table. For UnitZone rows Group is the
// zone name; for UnitBuilding rows it is one of the Group* constants.
type Key struct {
	Polarity  Polarity        `json:"polarity"`
	Threshold float64         `json:"threshold_degc"`
	Unit      AggregationUnit `json:"aggregation_unit"`
	Group     string          `json:"group"`
}

// Record is one row of a threshold table.
type Record struct {
	Key
	Value float64 `json:"value"`
}

// Table is a flat, ordered list of records with keyed lookup. Rows are never
// omitted: a zero-valued metric is stored as 0, not left absent.
type Table struct {
	Metric  string   `json:"metric"`
	Records []Record `json:"records"`

	index map[Key]int
}

func newTable(metric string, capacity int) *Table {
	return &Table{
		Metric:  metric,
		Records: make([]Record, 0, capacity),
		index:   make(map[Key]int, capacity),
	}
}

func (t *Table) add(k Key, v float64) {
	t.index[k] = len(t.Records)
	t.Records = append(t.Records, Record{Key: k, Value: v})
}

// Get returns the value stored under k.
func (t *Table) Get(k Key) (float64, bool) {
	if t == nil {
		return 0, false
	}
	if t.index == nil {
		// Built as a literal: scan rather than write the index from a reader.
		for _, r := range t.Records {
			if r.Key == k {
				return r.Value, true
			}
		}
		return 0, false
	}
	i, ok := t.index[k]
	if !ok {
		return 0, false
	}
	return t.Records[i].Value, true
}

// UnmarshalJSON decodes a table and rebuilds its lookup index.
func (t *Table) UnmarshalJSON(b []byte) error {
	type plain Table
	var in plain
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*t = Table(in)
	t.reindex()
	return nil
}

// Zone is shorthand for Get with a zone-level key.
func (t *Table) Zone(p Polarity, threshold float64, zone string) (float64, bool) {
	return t.Get(Key{Polarity: p, Threshold: threshold, Unit: UnitZone, Group: zone})
}

// Building is shorthand for Get with a building-level key.
func (t *Table) Building(p Polarity, threshold float64, group string) (float64, bool) {
	return t.Get(Key{Polarity: p, Threshold: threshold, Unit: UnitBuilding, Group: group})
}

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Records)
}

// reindex rebuilds the lookup map.
func (t *Table) reindex() {
	t.index = make(map[Key]int, len(t.Records))
	for i, r := range t.Records {
		t.index[r.Key] = i
	}
}
