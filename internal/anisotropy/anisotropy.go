// Package anisotropy implements the dipolar deceleration-parameter model of
// a tilted universe (Tsagas, arXiv:gr-qc/0309109). The luminosity distance
// is the third-order Taylor expansion
//
//	D_L = (c z / H0) [1 + ½(1-q)z - ⅙(1 - q - 3q² + J0)z²]
//
// with q(z) = qm + qd·exp(-z/S)·cos θ, where θ is the angle between the
// supernova and a fixed dipole apex.
//
// The J0 term enters with the sign shown above. Its convention has not
// been confirmed against the reference paper.
package anisotropy

import (
	"math"

	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
	"github.com/Shin107/Anisotropic-SNANA/internal/transform"
)

// Dipole apex in galactic coordinates (degrees).
const (
	ApexGLON = 264.021
	ApexGLAT = 48.253
)

// Params configures the dipole model for one sky position.
type Params struct {
	Enabled bool    `yaml:"enabled" json:"enabled"`
	QM      float64 `yaml:"qm" json:"qm"`     // monopole deceleration
	QD      float64 `yaml:"qd" json:"qd"`     // dipole amplitude
	S       float64 `yaml:"s" json:"s"`       // dipole decay scale in redshift
	GLON    float64 `yaml:"glon" json:"glon"` // galactic longitude, degrees
	GLAT    float64 `yaml:"glat" json:"glat"` // galactic latitude, degrees
	J0      float64 `yaml:"j0" json:"j0"`     // jerk
}

// Separation returns the great-circle angle in degrees between the
// configured direction and the apex.
func (p Params) Separation() float64 {
	return transform.AngularSeparation(p.GLON, p.GLAT, ApexGLON, ApexGLAT)
}

// Decay returns exp(-z/S).
func (p Params) Decay(z float64) float64 {
	return math.Exp(-z / p.S)
}

// Q returns the deceleration parameter at heliocentric redshift z.
func (p Params) Q(z float64) float64 {
	return p.QM + p.QD*p.Decay(z)*math.Cos(p.Separation()*physconst.Radian)
}

// LuminosityDistance returns D_L in Mpc at heliocentric redshift z.
func (p Params) LuminosityDistance(z, h0 float64) float64 {
	q := p.Q(z)
	first := 0.5 * (1 - q) * z
	second := (1.0 / 6.0) * (1 - q - 3*q*q + p.J0) * z * z
	return physconst.SpeedOfLight * z / h0 * (1 + first - second)
}

// WithDirection returns a copy of p pointed at (glon, glat).
func (p Params) WithDirection(glon, glat float64) Params {
	p.GLON, p.GLAT = glon, glat
	return p
}
