package overheating

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Category is a NOAA heat-index band. Higher values are more severe.
type Category int

const (
	Normal Category = iota
	Caution
	ExtremeCaution
	Danger
	ExtremeDanger
)

// NumCategories is the number of heat-index bands.
const NumCategories = 5

var categoryNames = [NumCategories]string{"Normal", "Caution", "Extreme Caution", "Danger", "Extreme Danger"}

func (c Category) String() string {
	if c < 0 || int(c) >= NumCategories {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// MarshalText encodes the category by name.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Categories lists every band in severity order.
func Categories() []Category {
	return []Category{Normal, Caution, ExtremeCaution, Danger, ExtremeDanger}
}

// HeatIndexF returns the Rothfusz regression heat index in °F for a dry-bulb
// temperature in °C and relative humidity in %.
func HeatIndexF(tempC, rh float64) float64 {
	t := tempC*9/5 + 32
	return -42.379 +
		2.04901523*t +
		10.14333127*rh -
		0.22475541*t*rh -
		6.83783e-3*t*t -
		5.481717e-2*rh*rh +
		1.22874e-3*t*t*rh +
		8.5282e-4*t*rh*rh -
		1.99e-6*t*t*rh*rh
}

// CategorizeHeatIndex bins a heat index in °F. Boundary values go to the
// hotter band.
func CategorizeHeatIndex(hiF float64) Category {
	switch {
	case hiF >= 130:
		return ExtremeDanger
	case hiF >= 105:
		return Danger
	case hiF >= 90:
		return ExtremeCaution
	case hiF >= 80:
		return Caution
	default:
		return Normal
	}
}

// CategoryCounts holds hours per band, indexed by Category. Every band is
// always present.
type CategoryCounts [NumCategories]int

// Total returns the sum over all bands.
func (c CategoryCounts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// AtLeast returns the hours in band min or any more severe band.
func (c CategoryCounts) AtLeast(min Category) int {
	n := 0
	for cat := min; int(cat) < NumCategories; cat++ {
		n += c[cat]
	}
	return n
}

// GroupCounts labels a CategoryCounts row with its group (an aggregation
// name for building rows, a zone name for zone rows).
type GroupCounts struct {
	Group  string         `json:"group"`
	Counts CategoryCounts `json:"counts"`
}

// HeatIndexTable is the heat-index category distribution for the building
// (one row per aggregation variant) and for each zone.
type HeatIndexTable struct {
	Building []GroupCounts `json:"building"`
	Zones    []GroupCounts `json:"zones"`
}

// BuildingGroup returns the counts for a building aggregation variant.
func (t *HeatIndexTable) BuildingGroup(group string) (CategoryCounts, bool) {
	return findGroup(t.Building, group)
}

// Zone returns the counts for a zone.
func (t *HeatIndexTable) Zone(name string) (CategoryCounts, bool) {
	return findGroup(t.Zones, name)
}

func findGroup(rows []GroupCounts, group string) (CategoryCounts, bool) {
	for _, r := range rows {
		if r.Group == group {
			return r.Counts, true
		}
	}
	return CategoryCounts{}, false
}

// CalculateHeatIndexCategories classifies every zone-hour into a heat-index
// band and aggregates the building three ways: Zone Weighted, Modal per
// Timestep and Worst per Timestep.
func CalculateHeatIndexCategories(dbt, rh *mat.Dense, zones ZoneSet) (*HeatIndexTable, error) {
	if err := CheckShape("dry_bulb", dbt, zones.Len(), HoursPerYear); err != nil {
		return nil, err
	}
	if err := CheckShape("relative_humidity", rh, zones.Len(), HoursPerYear); err != nil {
		return nil, err
	}

	n := zones.Len()
	cats := make([][]Category, n)
	zoneCounts := make([]CategoryCounts, n)
	weightedHI := make([]float64, HoursPerYear)

	for z := 0; z < n; z++ {
		tRow := dbt.RawRowView(z)
		rhRow := rh.RawRowView(z)
		w := zones.Weight(z)
		row := make([]Category, HoursPerYear)
		for h := 0; h < HoursPerYear; h++ {
			hi := HeatIndexF(tRow[h], rhRow[h])
			weightedHI[h] += hi * w
			row[h] = CategorizeHeatIndex(hi)
			zoneCounts[z][row[h]]++
		}
		cats[z] = row
	}

	var weighted, modal, worst CategoryCounts
	for h := 0; h < HoursPerYear; h++ {
		weighted[CategorizeHeatIndex(weightedHI[h])]++

		var perHour CategoryCounts
		hottest := Normal
		for z := 0; z < n; z++ {
			c := cats[z][h]
			perHour[c]++
			if c > hottest {
				hottest = c
			}
		}
		worst[hottest]++
		modal[modalCategory(perHour)]++
	}

	table := &HeatIndexTable{
		Building: []GroupCounts{
			{Group: GroupModalPerTimestep, Counts: modal},
			{Group: GroupWorstPerTimestep, Counts: worst},
			{Group: GroupZoneWeighted, Counts: weighted},
		},
		Zones: make([]GroupCounts, n),
	}
	for z := 0; z < n; z++ {
		table.Zones[z] = GroupCounts{Group: zones.Name(z), Counts: zoneCounts[z]}
	}
	return table, nil
}

// modalCategory returns the most common band, breaking ties toward the more
// severe band.
func modalCategory(counts CategoryCounts) Category {
	best := ExtremeDanger
	for c := ExtremeDanger - 1; c >= Normal; c-- {
		if counts[c] > counts[best] {
			best = c
		}
	}
	return best
}
