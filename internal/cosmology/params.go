package cosmology

import (
	"fmt"
	"math"
)

// Params are the wCDM parameters with the CPL dark-energy equation of
// state w(a) = w0 + wa(1-a). H0 is in km/s/Mpc.
type Params struct {
	H0     float64 `yaml:"h0" json:"h0"`
	OmegaM float64 `yaml:"omega_m" json:"omega_m"`
	OmegaL float64 `yaml:"omega_l" json:"omega_l"`
	W0     float64 `yaml:"w0" json:"w0"`
	Wa     float64 `yaml:"wa" json:"wa"`
}

// DefaultParams is a flat ΛCDM cosmology.
var DefaultParams = Params{H0: 70, OmegaM: 0.3, OmegaL: 0.7, W0: -1, Wa: 0}

// ParamsFromTuple builds Params from the ordered tuple {H0, ΩM, ΩΛ, w0, wa}.
func ParamsFromTuple(t [5]float64) Params {
	return Params{H0: t[0], OmegaM: t[1], OmegaL: t[2], W0: t[3], Wa: t[4]}
}

// Tuple returns the parameters in the order {H0, ΩM, ΩΛ, w0, wa}.
func (p Params) Tuple() [5]float64 {
	return [5]float64{p.H0, p.OmegaM, p.OmegaL, p.W0, p.Wa}
}

// OmegaK is the curvature density 1 - ΩM - ΩΛ.
func (p Params) OmegaK() float64 {
	return 1.0 - p.OmegaM - p.OmegaL
}

// Warning reports a parameter outside its expected range.
type Warning struct {
	Param    string
	Value    float64
	Min, Max float64
}

func (w Warning) String() string {
	return fmt.Sprintf("%s = %g outside [%g, %g]", w.Param, w.Value, w.Min, w.Max)
}

// Check returns a Warning for each parameter outside its sanity range.
// Out-of-range values are still usable.
func (p Params) Check() []Warning {
	checks := []Warning{
		{Param: "H0", Value: p.H0, Min: 30, Max: 100},
		{Param: "OM", Value: p.OmegaM, Min: 0, Max: 1},
		{Param: "OL", Value: p.OmegaL, Min: 0, Max: 1},
		{Param: "wa", Value: p.Wa, Min: -3, Max: 1},
	}
	var out []Warning
	for _, c := range checks {
		if c.Value < c.Min || c.Value > c.Max || math.IsNaN(c.Value) {
			out = append(out, c)
		}
	}
	return out
}

// HubbleWCDM returns H(z) in km/s/Mpc for analytic wCDM:
//
//	H(z) = H0 sqrt(ΩM(1+z)³ + Ωk(1+z)² + ΩΛ(1+z)^{3(1+w0+wa)} exp(-3 wa z/(1+z)))
//
// The dark-energy factor is the closed-form solution of the CPL density
// evolution integral.
func HubbleWCDM(p Params, z float64) float64 {
	zz := 1.0 + z
	z2 := zz * zz
	z3 := z2 * zz
	a := 1.0 / zz

	argPow := 3.0 * (1.0 + p.W0 + p.Wa)
	argExp := -3.0 * p.Wa * z * a
	de := math.Pow(zz, argPow) * math.Exp(argExp)

	return p.H0 * math.Sqrt(p.OmegaM*z3+p.OmegaK()*z2+p.OmegaL*de)
}
