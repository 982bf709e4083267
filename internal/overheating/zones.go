package overheating

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// ZoneSet holds zone names and their normalized weights in matrix row order.
type ZoneSet struct {
	names   []string
	weights []float64
	index   map[string]int
}

// DefaultZoneName returns the name used for row i when no names are given.
func DefaultZoneName(i int) string {
	return fmt.Sprintf("Zone %03d", i)
}

// NewZoneSet resolves zone metadata for a matrix with rows zones. Nil names
// default to "Zone 000".., nil weights default to 1.0 each. Weights are
// normalized by their sum. The row count itself is checked by CheckShape.
func NewZoneSet(rows int, names []string, weights []float64) (ZoneSet, error) {
	if names == nil {
		n := rows
		if weights != nil {
			n = len(weights)
		}
		names = make([]string, n)
		for i := range names {
			names[i] = DefaultZoneName(i)
		}
	}
	if weights == nil {
		weights = make([]float64, len(names))
		for i := range weights {
			weights[i] = 1
		}
	}

	if len(names) != len(weights) {
		return ZoneSet{}, configErrorf("zone_weights",
			"zone names and zone weights must have the same length; got %d zone names and %d zone weights",
			len(names), len(weights))
	}
	if len(names) == 0 {
		return ZoneSet{}, configErrorf("zone_names", "at least one zone is required")
	}

	index := make(map[string]int, len(names))
	for i, name := range names {
		if _, dup := index[name]; dup {
			return ZoneSet{}, configErrorf("zone_names", "duplicate zone name %q", name)
		}
		index[name] = i
	}

	for i, w := range weights {
		if math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
			return ZoneSet{}, configErrorf("zone_weights", "zone %q has invalid weight %v", names[i], w)
		}
	}
	total := floats.Sum(weights)
	if total <= 0 {
		return ZoneSet{}, configErrorf("zone_weights", "zone weights must sum to a positive value, got %v", total)
	}

	normalized := make([]float64, len(weights))
	floats.ScaleTo(normalized, 1/total, weights)

	return ZoneSet{
		names:   append([]string(nil), names...),
		weights: normalized,
		index:   index,
	}, nil
}

// Len returns the number of zones.
func (z ZoneSet) Len() int { return len(z.names) }

// Name returns the name of zone i.
func (z ZoneSet) Name(i int) string { return z.names[i] }

// Weight returns the normalized weight of zone i.
func (z ZoneSet) Weight(i int) float64 { return z.weights[i] }

// Names returns a copy of the zone names in row order.
func (z ZoneSet) Names() []string { return append([]string(nil), z.names...) }

// Weights returns a copy of the normalized weights in row order.
func (z ZoneSet) Weights() []float64 { return append([]float64(nil), z.weights...) }

// Index returns the row of the named zone.
func (z ZoneSet) Index(name string) (int, bool) {
	i, ok := z.index[name]
	return i, ok
}

// weightedSum returns Σ w[z]·v[z].
func (z ZoneSet) weightedSum(values []float64) float64 {
	return floats.Dot(z.weights, values)
}
