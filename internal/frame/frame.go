// Package frame converts redshifts between the heliocentric and CMB rest
// frames with the exact relation
//
//	1 + z_cmb = (1 + z_helio) / (1 - v·n̂/c)
//
// where v is the CMB dipole velocity and n̂ the source direction.
package frame

import (
	"fmt"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
	"github.com/Shin107/Anisotropic-SNANA/internal/transform"
)

// MinRedshift is the smallest redshift translated; anything below it,
// including negative sentinels such as -9, is returned unchanged.
const MinRedshift = 1e-10

// Direction selects the translation.
type Direction int

const (
	ToHelio Direction = -1
	ToCMB   Direction = +1
)

func (d Direction) String() string {
	switch {
	case d > 0:
		return "helio->cmb"
	case d < 0:
		return "cmb->helio"
	}
	return "invalid"
}

// CoordSys names the frame of the input sky position.
type CoordSys string

const (
	Equatorial CoordSys = "eq"
	J2000      CoordSys = "J2000"
	Galactic   CoordSys = "gal"
)

// Apex is a dipole direction (galactic degrees) and speed (km/s).
type Apex struct {
	L, B, V float64
}

// CMBDipole is the CMB dipole used by default.
var CMBDipole = Apex{L: physconst.CMBApexL, B: physconst.CMBApexB, V: physconst.CMBApexV}

// Translator converts redshifts between frames for one dipole.
type Translator struct {
	apex Apex
}

// New returns a Translator for apex.
func New(apex Apex) *Translator {
	return &Translator{apex: apex}
}

// Default returns a Translator for the CMB dipole.
func Default() *Translator {
	return New(CMBDipole)
}

// Apex returns the dipole used by t.
func (t *Translator) Apex() Apex { return t.apex }

// ToGalactic converts (lon, lat) in coordSys to galactic degrees.
func ToGalactic(lon, lat float64, coordSys CoordSys) (l, b float64, err error) {
	switch coordSys {
	case Equatorial, J2000:
		l, b = transform.EquatorialToGalactic(lon, lat)
		return l, b, nil
	case Galactic:
		return lon, lat, nil
	}
	return 0, 0, cosmoerr.New(cosmoerr.KindCoordSys, "frame.ToGalactic", "invalid coordSys = %q", string(coordSys))
}

// VDotN returns v·n̂/c for a galactic direction.
func (t *Translator) VDotN(l, b float64) float64 {
	n := transform.UnitVector(l, b)
	apex := transform.UnitVector(t.apex.L, t.apex.B)
	return t.apex.V * n.Dot(apex) / physconst.SpeedOfLight
}

// Translate converts z observed at (lon, lat) in coordSys. ToCMB treats z
// as heliocentric, ToHelio treats it as CMB-frame.
func (t *Translator) Translate(z, lon, lat float64, coordSys CoordSys, dir Direction) (float64, error) {
	const op = "frame.Translate"

	if z < MinRedshift {
		return z, nil
	}

	l, b, err := ToGalactic(lon, lat, coordSys)
	if err != nil {
		return 0, cosmoerr.Wrap(cosmoerr.KindCoordSys, op, err,
			"dir=%d z_in=%f lon=%f lat=%f", int(dir), z, lon, lat)
	}

	vdotn := t.VDotN(l, b)
	switch {
	case dir > 0:
		return (1+z)/(1-vdotn) - 1, nil
	case dir < 0:
		return (1+z)*(1-vdotn) - 1, nil
	}
	return 0, cosmoerr.New(cosmoerr.KindDirection, op,
		"invalid direction %d: z_in=%f lon=%f lat=%f", int(dir), z, lon, lat)
}

// ParseDirection accepts "cmb", "helio" or a signed integer.
func ParseDirection(s string) (Direction, error) {
	switch s {
	case "cmb", "tocmb", "+1", "1":
		return ToCMB, nil
	case "helio", "tohelio", "-1":
		return ToHelio, nil
	}
	var n int
	if _, err := fmt.Sscanf(s, "%d", &n); err == nil && n != 0 {
		return Direction(n), nil
	}
	return 0, cosmoerr.New(cosmoerr.KindDirection, "frame.ParseDirection", "invalid direction %q", s)
}
