package overheating

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// MetricEDH labels exceedance degree-hour tables.
const MetricEDH = "EDH [degC-hr]"

// ComfortInputs is one zone's hourly series plus occupant assumptions.
type ComfortInputs struct {
	DryBulb          []float64
	MeanRadiant      []float64
	RelativeHumidity []float64
	Met              float64
	Clo              float64
	AirSpeed         float64
}

// ComfortModel computes hourly Standard Effective Temperature in °C. It must
// return one value per input hour.
type ComfortModel interface {
	StandardEffectiveTemperature(ctx context.Context, in ComfortInputs) ([]float64, error)
}

// EDHResult holds the per-threshold exceedance table and the comfort band
// table. Band rows use the band's High edge as threshold for Overheat and its
// Low edge for Underheat.
type EDHResult struct {
	Thresholds  *Table
	ComfortBand *Table
}

// CalculateEDH evaluates SET for every zone-hour through model and sums
// max(0, SET-T) for hot thresholds and max(0, T-SET) for cold thresholds.
// Zones are evaluated concurrently. A non-finite SET value fails the whole
// call with a *ComfortModelError.
func CalculateEDH(
	ctx context.Context,
	dbt, rh, mrt *mat.Dense,
	hot, cold []float64,
	band ComfortBand,
	tc ThermalComfortAssumptions,
	model ComfortModel,
	zones ZoneSet,
) (*EDHResult, error) {
	for _, m := range []struct {
		name string
		m    *mat.Dense
	}{{"dry_bulb", dbt}, {"relative_humidity", rh}, {"mean_radiant", mrt}} {
		if err := CheckShape(m.name, m.m, zones.Len(), HoursPerYear); err != nil {
			return nil, err
		}
	}
	if model == nil {
		return nil, configErrorf("comfort_model", "no comfort model configured")
	}

	set, err := zoneSET(ctx, dbt, rh, mrt, tc, model, zones)
	if err != nil {
		return nil, err
	}

	return &EDHResult{
		Thresholds:  degreeHourTable(set, hot, cold, zones),
		ComfortBand: degreeHourTable(set, []float64{band.High}, []float64{band.Low}, zones),
	}, nil
}

func zoneSET(
	ctx context.Context,
	dbt, rh, mrt *mat.Dense,
	tc ThermalComfortAssumptions,
	model ComfortModel,
	zones ZoneSet,
) ([][]float64, error) {
	set := make([][]float64, zones.Len())
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for z := 0; z < zones.Len(); z++ {
		g.Go(func() error {
			name := zones.Name(z)
			out, err := model.StandardEffectiveTemperature(gctx, ComfortInputs{
				DryBulb:          dbt.RawRowView(z),
				MeanRadiant:      mrt.RawRowView(z),
				RelativeHumidity: rh.RawRowView(z),
				Met:              tc.Met,
				Clo:              tc.Clo,
				AirSpeed:         tc.V,
			})
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return &ComfortModelError{Zone: name, Hour: -1, Err: err}
			}
			if len(out) != HoursPerYear {
				return &ComfortModelError{Zone: name, Hour: -1,
					Err: fmt.Errorf("returned %d values, expected %d", len(out), HoursPerYear)}
			}
			for h, v := range out {
				if !finite(v) {
					return &ComfortModelError{Zone: name, Hour: h, Value: v}
				}
			}
			set[z] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		// Cancellation is not a model failure.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return set, nil
}

func degreeHourTable(set [][]float64, hot, cold []float64, zones ZoneSet) *Table {
	n := zones.Len()
	table := newTable(MetricEDH, (len(hot)+len(cold))*(n+2))
	perZone := make([]float64, n)

	for _, pass := range []struct {
		polarity   Polarity
		thresholds []float64
	}{{Overheat, hot}, {Underheat, cold}} {
		for _, threshold := range pass.thresholds {
			for z := 0; z < n; z++ {
				perZone[z] = degreeHours(set[z], pass.polarity, threshold)
			}
			key := Key{Polarity: pass.polarity, Threshold: threshold, Unit: UnitBuilding}
			key.Group = GroupZoneWeighted
			table.add(key, zones.weightedSum(perZone))
			key.Group = GroupWorstZone
			table.add(key, floats.Max(perZone))
			for z := 0; z < n; z++ {
				table.add(Key{Polarity: pass.polarity, Threshold: threshold, Unit: UnitZone, Group: zones.Name(z)}, perZone[z])
			}
		}
	}
	return table
}

func degreeHours(set []float64, p Polarity, threshold float64) float64 {
	total := 0.0
	for _, v := range set {
		switch {
		case p == Overheat && v > threshold:
			total += v - threshold
		case p == Underheat && v < threshold:
			total += threshold - v
		}
	}
	return total
}
