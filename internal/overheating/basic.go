package overheating

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MetricTotalHours labels the basic threshold table.
const MetricTotalHours = "Total Hours"

// exceeds reports whether temp is strictly beyond threshold in direction p.
func exceeds(p Polarity, temp, threshold float64) bool {
	if p == Overheat {
		return temp > threshold
	}
	return temp < threshold
}

// CountThresholdHours counts, per threshold and zone, the hours where dry-bulb
// temperature is strictly above a hot threshold or strictly below a cold one.
// Each threshold is rolled up to the building as Any Zone, Zone Weighted,
// Worst Zone and Equally Weighted.
func CountThresholdHours(dbt *mat.Dense, hot, cold []float64, zones ZoneSet) (*Table, error) {
	if err := CheckShape("dry_bulb", dbt, zones.Len(), HoursPerYear); err != nil {
		return nil, err
	}
	n := zones.Len()
	table := newTable(MetricTotalHours, (len(hot)+len(cold))*(n+4))

	for _, pass := range []struct {
		polarity   Polarity
		thresholds []float64
	}{{Overheat, hot}, {Underheat, cold}} {
		for _, threshold := range pass.thresholds {
			counts, anyZone := countExceedance(dbt, pass.polarity, threshold)

			key := Key{Polarity: pass.polarity, Threshold: threshold, Unit: UnitBuilding}
			key.Group = GroupAnyZone
			table.add(key, float64(anyZone))
			key.Group = GroupZoneWeighted
			table.add(key, zones.weightedSum(counts))
			key.Group = GroupWorstZone
			table.add(key, floats.Max(counts))
			key.Group = GroupEquallyWeighted
			table.add(key, floats.Sum(counts)/float64(n))

			for z := 0; z < n; z++ {
				table.add(Key{Polarity: pass.polarity, Threshold: threshold, Unit: UnitZone, Group: zones.Name(z)}, counts[z])
			}
		}
	}
	return table, nil
}

// countExceedance returns the per-zone exceedance hour counts and the number
// of hours in which at least one zone exceeds.
func countExceedance(dbt *mat.Dense, p Polarity, threshold float64) ([]float64, int) {
	rows, cols := dbt.Dims()
	counts := make([]float64, rows)
	anyHour := make([]bool, cols)
	for z := 0; z < rows; z++ {
		row := dbt.RawRowView(z)
		for h, temp := range row {
			if exceeds(p, temp, threshold) {
				counts[z]++
				anyHour[h] = true
			}
		}
	}
	anyZone := 0
	for _, hit := range anyHour {
		if hit {
			anyZone++
		}
	}
	return counts, anyZone
}
