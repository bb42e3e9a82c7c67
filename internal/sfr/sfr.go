// Package sfr provides cosmic star-formation-rate densities and the
// SFR-weighted age integral.
package sfr

import (
	"math"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
	"github.com/Shin107/Anisotropic-SNANA/internal/quadrature"
)

// Baldry & Glazebrook (2003) coefficients.
const (
	bg03A = 0.0118
	bg03B = 0.08
	bg03C = 3.3
	bg03D = 5.2
)

// BG03 returns the Baldry & Glazebrook (2003) SFR density in
// M☉/yr/Mpc³, h·(a + b z)/(1 + (z/c)^d) with h = H0/100.
func BG03(z, h0 float64) float64 {
	h := h0 / 100.0
	return h * (bg03A + bg03B*z) / (1.0 + math.Pow(z/bg03C, bg03D))
}

// MD14Params are the Madau & Dickinson (2014) shape parameters.
type MD14Params struct {
	A float64 `yaml:"a" json:"a"`
	B float64 `yaml:"b" json:"b"`
	C float64 `yaml:"c" json:"c"`
	D float64 `yaml:"d" json:"d"`
}

// MD14Default is the Madau & Dickinson (2014) best fit.
var MD14Default = MD14Params{A: 0.015, B: 2.9, C: 2.7, D: 5.6}

// MD14 returns A(1+z)^C / (1 + ((1+z)/B)^D). It carries no H0 factor and
// is intended for core-collapse rates.
func MD14(z float64, p MD14Params) float64 {
	z1 := 1.0 + z
	return p.A * math.Pow(z1, p.C) / (1.0 + math.Pow(z1/p.B, p.D))
}

// Integral returns the stellar mass density formed before redshift z,
//
//	∫₀^{1/(1+z)} SFR(a) / (a H(a)) da
//
// with BG03 and H converted from km/s/Mpc to 1/yr.
func Integral(model *cosmology.Model, z float64) float64 {
	h0 := model.Params().H0
	amax := 1.0 / (1.0 + z)
	sum := quadrature.Midpoint(0, amax, func(a float64) float64 {
		zt := 1.0/a - 1.0
		return BG03(zt, h0) / (a * model.H(zt))
	})
	return sum * physconst.MpcKm / physconst.SecondsPerYear
}
