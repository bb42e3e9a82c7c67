// Package transform provides the sky-coordinate transformations needed to
// project the CMB dipole onto a source direction.
//
// Equatorial (FK5, J2000) to galactic uses the IAU 1958 rotation matrix as
// tabulated in SLALIB's sla_EQGAL. Angles are in degrees at every exported
// boundary.
package transform

import (
	"math"

	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
)

// eqToGal rotates J2000 equatorial direction cosines into galactic ones.
var eqToGal = [3][3]float64{
	{-0.054875539726, -0.873437108010, -0.483834985808},
	{+0.494109453312, -0.444829589425, +0.746982251810},
	{-0.867666135858, -0.198076386122, +0.455983795705},
}

// Vector is a Cartesian unit vector.
type Vector [3]float64

// UnitVector returns the direction cosines of a (longitude, latitude) pair
// given in degrees.
func UnitVector(lonDeg, latDeg float64) Vector {
	lon := lonDeg * physconst.Radian
	lat := latDeg * physconst.Radian
	cosLat := math.Cos(lat)
	return Vector{
		math.Cos(lon) * cosLat,
		math.Sin(lon) * cosLat,
		math.Sin(lat),
	}
}

// Dot returns the scalar product of two vectors.
func (v Vector) Dot(w Vector) float64 {
	return v[0]*w[0] + v[1]*w[1] + v[2]*w[2]
}

// Spherical converts a vector back to (longitude, latitude) in degrees,
// longitude normalised to [0, 360).
func (v Vector) Spherical() (lonDeg, latDeg float64) {
	r := math.Sqrt(v[0]*v[0] + v[1]*v[1])
	var lon, lat float64
	if r != 0 {
		lon = math.Atan2(v[1], v[0])
	}
	if v[2] != 0 || r != 0 {
		lat = math.Atan2(v[2], r)
	}
	lonDeg = math.Mod(lon/physconst.Radian, 360.0)
	if lonDeg < 0 {
		lonDeg += 360.0
	}
	return lonDeg, lat / physconst.Radian
}

func rotate(m [3][3]float64, v Vector) Vector {
	var out Vector
	for i := 0; i < 3; i++ {
		out[i] = m[i][0]*v[0] + m[i][1]*v[1] + m[i][2]*v[2]
	}
	return out
}

func rotateT(m [3][3]float64, v Vector) Vector {
	var out Vector
	for i := 0; i < 3; i++ {
		out[i] = m[0][i]*v[0] + m[1][i]*v[1] + m[2][i]*v[2]
	}
	return out
}

// EquatorialToGalactic converts J2000 (RA, Dec) to galactic (l, b), all in
// degrees.
func EquatorialToGalactic(raDeg, decDeg float64) (lDeg, bDeg float64) {
	return rotate(eqToGal, UnitVector(raDeg, decDeg)).Spherical()
}

// GalacticToEquatorial is the inverse of EquatorialToGalactic.
func GalacticToEquatorial(lDeg, bDeg float64) (raDeg, decDeg float64) {
	return rotateT(eqToGal, UnitVector(lDeg, bDeg)).Spherical()
}
