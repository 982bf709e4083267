// Package comfort implements the Gagge two-node Standard Effective
// Temperature model (ASHRAE 55 formulation) used to derive exceedance
// degree-hours.
package comfort

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/couchcryptid/thermal-risk-etl/internal/overheating"
)

var (
	// ErrInvalidInput is returned for non-finite or physically meaningless
	// inputs.
	ErrInvalidInput = errors.New("invalid comfort input")
	// ErrNoConvergence is returned when an iterative step fails to settle.
	ErrNoConvergence = errors.New("set model did not converge")
)

// Posture selects the radiative area factor.
type Posture string

const (
	Standing Posture = "standing"
	Sitting  Posture = "sitting"
)

// Point is one hour of environmental and occupant conditions.
type Point struct {
	DryBulb          float64 // °C
	MeanRadiant      float64 // °C
	AirSpeed         float64 // m/s
	RelativeHumidity float64 // %
	Met              float64 // met
	Clo              float64 // clo
}

// Options tune the physiological model. Zero values take the defaults.
type Options struct {
	Posture         Posture
	ExternalWork    float64 // met
	BodySurfaceArea float64 // m², default 1.8258
	Pressure        float64 // Pa, default 101325
	// LimitInputs reports NaN for hours outside the ASHRAE 55 applicability
	// range (tdb and tr 10-40 °C, v 0.1-2 m/s, met 1-4, clo 0-1.5).
	LimitInputs bool
}

func (o Options) withDefaults() Options {
	if o.Posture == "" {
		o.Posture = Standing
	}
	if o.BodySurfaceArea == 0 {
		o.BodySurfaceArea = 1.8258
	}
	if o.Pressure == 0 {
		o.Pressure = 101325
	}
	return o
}

// Model evaluates SET hour by hour. It is stateless and safe for concurrent
// use.
type Model struct {
	opts Options
}

// NewModel returns a Model with opts applied over the defaults.
func NewModel(opts Options) *Model {
	return &Model{opts: opts.withDefaults()}
}

var defaultModel = NewModel(Options{})

// SET evaluates a single point with default options.
func SET(p Point) (float64, error) {
	return defaultModel.SET(p)
}

// StandardEffectiveTemperature evaluates every hour of in.
func (m *Model) StandardEffectiveTemperature(ctx context.Context, in overheating.ComfortInputs) ([]float64, error) {
	n := len(in.DryBulb)
	if len(in.MeanRadiant) != n || len(in.RelativeHumidity) != n {
		return nil, fmt.Errorf("%w: series lengths differ (dry bulb %d, mean radiant %d, humidity %d)",
			ErrInvalidInput, n, len(in.MeanRadiant), len(in.RelativeHumidity))
	}
	out := make([]float64, n)
	for h := 0; h < n; h++ {
		if h%730 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		v, err := m.SET(Point{
			DryBulb:          in.DryBulb[h],
			MeanRadiant:      in.MeanRadiant[h],
			AirSpeed:         in.AirSpeed,
			RelativeHumidity: in.RelativeHumidity[h],
			Met:              in.Met,
			Clo:              in.Clo,
		})
		if err != nil {
			return nil, fmt.Errorf("hour %d: %w", h, err)
		}
		out[h] = v
	}
	return out, nil
}

// SET evaluates a single point.
func (m *Model) SET(p Point) (float64, error) {
	if err := p.validate(); err != nil {
		return 0, err
	}
	if m.opts.LimitInputs && !p.applicable() {
		return math.NaN(), nil
	}
	return m.solve(p)
}

func (p Point) validate() error {
	for name, v := range map[string]float64{
		"dry bulb": p.DryBulb, "mean radiant": p.MeanRadiant, "air speed": p.AirSpeed,
		"relative humidity": p.RelativeHumidity, "met": p.Met, "clo": p.Clo,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: %s is %v", ErrInvalidInput, name, v)
		}
	}
	if p.RelativeHumidity < 0 || p.RelativeHumidity > 100 {
		return fmt.Errorf("%w: relative humidity %v outside 0-100", ErrInvalidInput, p.RelativeHumidity)
	}
	if p.Met <= 0 || p.Clo < 0 || p.AirSpeed < 0 {
		return fmt.Errorf("%w: met %v, clo %v, air speed %v", ErrInvalidInput, p.Met, p.Clo, p.AirSpeed)
	}
	return nil
}

func (p Point) applicable() bool {
	in := func(v, lo, hi float64) bool { return v >= lo && v <= hi }
	return in(p.DryBulb, 10, 40) && in(p.MeanRadiant, 10, 40) && in(p.AirSpeed, 0.1, 2) &&
		in(p.Met, 1, 4) && in(p.Clo, 0, 1.5)
}

// saturationPressure returns saturated vapour pressure in mmHg at t °C.
func saturationPressure(t float64) float64 {
	return math.Exp(18.6686 - 4030.183/(t+235))
}

const (
	kClo          = 0.25
	bodyWeight    = 70.0 // kg
	metFactor     = 58.2 // W/m² per met
	stefanBoltz   = 5.6697e-8
	cSweat        = 170.0
	cDilation     = 120.0
	cConstriction = 0.5
	skinNeutral   = 33.7
	coreNeutral   = 36.8
	skinBloodFlow = 6.3

	simulationMinutes = 60
	maxClothingIters  = 150
	maxSecantIters    = 100
)

// solve runs the one-hour transient two-node simulation and then finds the
// temperature of the standard environment producing the same skin heat loss.
func (m *Model) solve(p Point) (float64, error) {
	o := m.opts
	tdb, tr, rh, met, clo, wme := p.DryBulb, p.MeanRadiant, p.RelativeHumidity, p.Met, p.Clo, o.ExternalWork

	vp := rh * saturationPressure(tdb) / 100
	airSpeed := math.Max(p.AirSpeed, 0.1)

	alfa := 0.1
	bodyNeutral := alfa*skinNeutral + (1-alfa)*coreNeutral
	tSkin, tCore, skinBlood := skinNeutral, coreNeutral, skinBloodFlow
	eSkin := 0.1 * met
	var q, w float64

	pa := o.Pressure / 101325
	rClo := 0.155 * clo
	fACl := 1 + 0.15*clo
	lr := 2.2 / pa
	rm := (met - wme) * metFactor
	mMet := met * metFactor

	iCl := 1.0
	wMax := 0.38 * math.Pow(airSpeed, -0.29)
	if clo > 0 {
		iCl = 0.45
		wMax = 0.59 * math.Pow(airSpeed, -0.08)
	}

	hcc := math.Max(3*math.Pow(pa, 0.53), 8.600001*math.Pow(airSpeed*pa, 0.53))
	if met > 0.85 {
		hcc = math.Max(hcc, 5.66*math.Pow(met-0.85, 0.39))
	}

	radFactor := 0.73
	if o.Posture == Sitting {
		radFactor = 0.7
	}

	hr := 4.7
	ht := hr + hcc
	ra := 1 / (fACl * ht)
	tOp := (hr*tr + hcc*tdb) / ht
	qRes := 0.0023 * mMet * (44 - vp)
	cRes := 0.0014 * mMet * (34 - tdb)

	for minute := 0; minute < simulationMinutes; minute++ {
		tCl := (ra*tSkin + rClo*tOp) / (ra + rClo)
		converged := false
		for i := 0; i < maxClothingIters; i++ {
			hr = 4 * 0.95 * stefanBoltz * math.Pow((tCl+tr)/2+273.15, 3) * radFactor
			ht = hr + hcc
			ra = 1 / (fACl * ht)
			tOp = (hr*tr + hcc*tdb) / ht
			next := (ra*tSkin + rClo*tOp) / (ra + rClo)
			done := math.Abs(next-tCl) <= 0.01
			tCl = next
			if done {
				converged = true
				break
			}
		}
		if !converged {
			return 0, fmt.Errorf("%w: clothing temperature at minute %d", ErrNoConvergence, minute)
		}

		q = (tSkin - tOp) / (ra + rClo)
		coreToSkin := (tCore - tSkin) * (5.28 + 1.163*skinBlood)
		sCore := mMet - coreToSkin - qRes - cRes - wme
		sSkin := coreToSkin - q - eSkin
		tcSkin := 0.97 * alfa * bodyWeight
		tcCore := 0.97 * (1 - alfa) * bodyWeight
		tSkin += sSkin * o.BodySurfaceArea / (tcSkin * 60)
		tCore += sCore * o.BodySurfaceArea / (tcCore * 60)
		tBody := alfa*tSkin + (1-alfa)*tCore

		skinSig := tSkin - skinNeutral
		warmSkin, coldSkin := math.Max(skinSig, 0), math.Max(-skinSig, 0)
		coreSig := tCore - coreNeutral
		warmCore, coldCore := math.Max(coreSig, 0), math.Max(-coreSig, 0)
		warmBody := math.Max(tBody-bodyNeutral, 0)

		skinBlood = (skinBloodFlow + cDilation*warmCore) / (1 + cConstriction*coldSkin)
		skinBlood = math.Min(math.Max(skinBlood, 0.5), 90)

		regSweat := math.Min(cSweat*warmBody*math.Exp(warmSkin/10.7), 500)
		eRegSweat := 0.68 * regSweat
		rEa := 1 / (lr * fACl * hcc)
		rECl := rClo / (lr * iCl)
		eMax := (saturationPressure(tSkin) - vp) / (rEa + rECl)
		pRegSweat := eRegSweat / eMax
		w = 0.06 + 0.94*pRegSweat
		eDiff := w*eMax - eRegSweat
		if w > wMax {
			w = wMax
			pRegSweat = wMax / 0.94
			eRegSweat = pRegSweat * eMax
			eDiff = 0.06 * (1 - pRegSweat) * eMax
		}
		if eMax < 0 {
			eDiff, eRegSweat, w = 0, 0, wMax
		}
		eSkin = eRegSweat + eDiff
		mMet = rm + 19.4*coldSkin*coldCore
		alfa = 0.0417737 + 0.7451833/(skinBlood+0.585417)
	}

	qSkin := q + eSkin
	pSkin := saturationPressure(tSkin)

	// standard environment: still air, 50% RH, standardized clothing
	hcS := 3 * math.Pow(pa, 0.53)
	if met > 0.85 {
		hcS = math.Max(hcS, 5.66*math.Pow(met-0.85, 0.39))
	}
	hcS = math.Max(hcS, 3)
	htS := hcS + hr
	rCloS := 1.52/((met-wme/metFactor)+0.6944) - 0.1835
	rClS := 0.155 * rCloS
	fAClS := 1 + kClo*rCloS
	fClS := 1 / (1 + 0.155*fAClS*htS*rCloS)
	const imS = 0.45
	iClS := imS * hcS / htS * (1 - fClS) / (hcS/htS - fClS*imS)
	raS := 1 / (fAClS * htS)
	rEaS := 1 / (lr * fAClS * hcS)
	rEClS := rClS / (lr * iClS)
	hdS := 1 / (raS + rClS)
	heS := 1 / (rEaS + rEClS)

	residual := func(set float64) float64 {
		return qSkin - hdS*(tSkin-set) - w*heS*(pSkin-0.5*saturationPressure(set))
	}

	const delta = 0.0001
	guess := math.Round((tSkin-qSkin/hdS)*100) / 100
	for i := 0; i < maxSecantIters; i++ {
		e1 := residual(guess)
		e2 := residual(guess + delta)
		next := guess - delta*e1/(e2-e1)
		dx := next - guess
		guess = next
		if math.Abs(dx) <= 0.01 {
			return guess, nil
		}
	}
	return 0, fmt.Errorf("%w: standard environment temperature", ErrNoConvergence)
}
