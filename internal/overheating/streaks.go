package overheating

import "gonum.org/v1/gonum/mat"

// Streak is one maximal run of consecutive exceeding hours for a zone and
// threshold.
type Streak struct {
	Polarity  Polarity `json:"polarity"`
	Threshold float64  `json:"threshold_degc"`
	Zone      string   `json:"zone"`
	// Index is the 0-based ordinal of the run within its zone and threshold.
	Index int `json:"index"`
	// Hours is the run length.
	Hours int `json:"streak_hr"`
	// Integral is the sum of |temp - threshold| over the run, in degree-hours.
	Integral float64 `json:"integral_deg_hr"`
}

// StreakTable lists every streak. Zones or thresholds with no runs have no
// rows; a table with no rows is still a valid result.
type StreakTable struct {
	Streaks []Streak `json:"streaks"`
}

// Len returns the number of streaks.
func (t *StreakTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Streaks)
}

// ForZone returns the streaks of one zone for one threshold, in time order.
func (t *StreakTable) ForZone(p Polarity, threshold float64, zone string) []Streak {
	if t == nil {
		return nil
	}
	var out []Streak
	for _, s := range t.Streaks {
		if s.Polarity == p && s.Threshold == threshold && s.Zone == zone {
			out = append(out, s)
		}
	}
	return out
}

// run is the length and integral of one streak.
type run struct {
	hours    int
	integral float64
}

// FindStreaks extracts every streak for each hot and cold threshold and every
// zone of dbt.
func FindStreaks(dbt *mat.Dense, hot, cold []float64, zones ZoneSet) (*StreakTable, error) {
	if err := CheckShape("dry_bulb", dbt, zones.Len(), HoursPerYear); err != nil {
		return nil, err
	}
	table := &StreakTable{Streaks: []Streak{}}
	magnitude := make([]float64, HoursPerYear)

	for _, pass := range []struct {
		polarity   Polarity
		thresholds []float64
	}{{Overheat, hot}, {Underheat, cold}} {
		for _, threshold := range pass.thresholds {
			for z := 0; z < zones.Len(); z++ {
				exceedanceMagnitude(magnitude, dbt.RawRowView(z), pass.polarity, threshold)
				for i, r := range runsByID(magnitude) {
					table.Streaks = append(table.Streaks, Streak{
						Polarity:  pass.polarity,
						Threshold: threshold,
						Zone:      zones.Name(z),
						Index:     i,
						Hours:     r.hours,
						Integral:  r.integral,
					})
				}
			}
		}
	}
	return table, nil
}

// exceedanceMagnitude fills dst with how far each hour lies beyond the
// threshold in direction p, and 0 for hours that do not exceed. NaN
// temperatures never exceed.
func exceedanceMagnitude(dst, temps []float64, p Polarity, threshold float64) {
	for h, temp := range temps {
		switch {
		case !exceeds(p, temp, threshold):
			dst[h] = 0
		case p == Overheat:
			dst[h] = temp - threshold
		default:
			dst[h] = threshold - temp
		}
	}
}

// runsByID finds runs of positive cells by labelling them. A run starts at a
// positive cell whose predecessor is not positive; the prefix sum of run
// starts over positive cells gives each cell its run id (1..k), and the
// lengths and integrals are then accumulated per id.
func runsByID(diff []float64) []run {
	n := len(diff)
	ids := make([]int, n)
	k := 0
	prev := false
	for i, d := range diff {
		cur := d > 0
		if cur && !prev {
			k++
		}
		if cur {
			ids[i] = k
		}
		prev = cur
	}
	if k == 0 {
		return nil
	}

	runs := make([]run, k+1)
	for i, id := range ids {
		runs[id].hours++
		runs[id].integral += diff[i]
	}
	// id 0 collects the non-exceeding cells.
	return runs[1:]
}

// scanRuns is the sequential reference for runsByID.
func scanRuns(diff []float64) []run {
	var out []run
	var cur *run
	for _, d := range diff {
		if d > 0 {
			if cur == nil {
				out = append(out, run{})
				cur = &out[len(out)-1]
			}
			cur.hours++
			cur.integral += d
			continue
		}
		cur = nil
	}
	return out
}
