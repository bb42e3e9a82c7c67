// Package hzmap reads and writes tabulated H(z) maps: a YAML
// DOCUMENTATION block recording the originating cosmology, followed by two
// whitespace-separated columns (z, H) in km/s/Mpc.
package hzmap

import (
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
)

// MaxRows bounds the length of a map.
const MaxRows = 1000

// CosPar records the cosmology a map was generated from.
type CosPar struct {
	H0 float64 `yaml:"H0"`
	OM float64 `yaml:"OM"`
	OL float64 `yaml:"OL"`
	W0 float64 `yaml:"w0"`
	Wa float64 `yaml:"wa"`
}

// Provenance is the content of the DOCUMENTATION block.
type Provenance struct {
	Notes  []string `yaml:"NOTES,omitempty"`
	CosPar *CosPar  `yaml:"COSPAR,omitempty"`
}

// Map is an ordered H(z) table with strictly increasing redshifts.
// A Map is not modified after construction.
type Map struct {
	Z          []float64
	H          []float64
	Provenance Provenance
	Source     string // file the map was read from, if any
}

// New validates and wraps the given columns. The slices are owned by the
// returned Map.
func New(z, h []float64) (*Map, error) {
	const op = "hzmap.New"
	if len(z) != len(h) {
		return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "column lengths differ: %d z, %d H", len(z), len(h))
	}
	if len(z) < 2 {
		return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "need at least 2 rows, got %d", len(z))
	}
	if len(z) > MaxRows {
		return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "%d rows exceeds limit of %d", len(z), MaxRows)
	}
	for i := 1; i < len(z); i++ {
		if !(z[i] > z[i-1]) {
			return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "z not strictly increasing at row %d (%g after %g)", i, z[i], z[i-1])
		}
	}
	for i, v := range h {
		if !(v > 0) {
			return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "H(z=%g) = %g at row %d, must be positive", z[i], v, i)
		}
	}
	return &Map{Z: z, H: h}, nil
}

// Len returns the number of rows.
func (m *Map) Len() int { return len(m.Z) }

// ZMin returns the first redshift.
func (m *Map) ZMin() float64 { return m.Z[0] }

// ZMax returns the last redshift.
func (m *Map) ZMax() float64 { return m.Z[len(m.Z)-1] }
