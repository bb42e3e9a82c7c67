// Package physconst holds the physical and survey constants shared by the
// cosmology, distance and frame packages.
package physconst

import "math"

const (
	// SpeedOfLight is c in km/s.
	SpeedOfLight = 2.99792458e5

	// ParsecKm is one parsec in km.
	ParsecKm = 3.085678e13

	// MpcKm is one megaparsec in km.
	MpcKm = 1.0e6 * ParsecKm

	// SecondsPerYear uses a 365 day year, matching the SFR normalisation.
	SecondsPerYear = 3600.0 * 24.0 * 365.0

	// ZMaxSNANA is the largest redshift any integral is asked to reach.
	ZMaxSNANA = 4.0

	// Radian converts degrees to radians.
	Radian = math.Pi / 180.0
)

// CMB dipole used for heliocentric <-> CMB frame translation
// (galactic coordinates in degrees, speed in km/s).
const (
	CMBApexL = 264.14
	CMBApexB = 48.26
	CMBApexV = 371.0
)
