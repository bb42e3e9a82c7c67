package transform

import (
	"math"
	"testing"
)

// TestEquatorialToGalacticReferencePoints checks the rotation against the
// J2000 positions of the galactic pole and centre.
func TestEquatorialToGalacticReferencePoints(t *testing.T) {
	tests := []struct {
		name    string
		ra, dec float64
		wantL   float64
		wantB   float64
		checkL  bool
	}{
		{"north galactic pole", 192.85948, 27.12825, 0, 90, false},
		{"galactic centre", 266.40499, -28.93617, 0, 0, true},
		{"south galactic pole", 12.85948, -27.12825, 0, -90, false},
	}
	const tolDeg = 1e-3

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, b := EquatorialToGalactic(tt.ra, tt.dec)
			if math.Abs(b-tt.wantB) > tolDeg {
				t.Errorf("b = %.6f, want %.6f", b, tt.wantB)
			}
			if tt.checkL {
				dl := math.Mod(l-tt.wantL+540, 360) - 180
				if math.Abs(dl) > tolDeg {
					t.Errorf("l = %.6f, want %.6f", l, tt.wantL)
				}
			}
		})
	}
}

func TestGalacticRoundTrip(t *testing.T) {
	points := [][2]float64{
		{0, 0}, {10.684, 41.269}, {83.822, -5.391}, {201.365, -43.019}, {359.9, 89.0},
	}
	for _, p := range points {
		l, b := EquatorialToGalactic(p[0], p[1])
		ra, dec := GalacticToEquatorial(l, b)
		if AngularSeparation(ra, dec, p[0], p[1]) > 1e-8 {
			t.Errorf("round trip (%.3f, %.3f) -> (%.6f, %.6f)", p[0], p[1], ra, dec)
		}
	}
}

func TestAngularSeparation(t *testing.T) {
	tests := []struct {
		name                   string
		lon1, lat1, lon2, lat2 float64
		want                   float64
	}{
		{"identical", 264.021, 48.253, 264.021, 48.253, 0},
		{"quarter along equator", 0, 0, 90, 0, 90},
		{"pole to equator", 123, 90, 0, 0, 90},
		{"antipodal", 0, 0, 180, 0, 180},
		{"wraps longitude", 359, 0, 1, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AngularSeparation(tt.lon1, tt.lat1, tt.lon2, tt.lat2)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AngularSeparation = %.12f, want %.12f", got, tt.want)
			}
		})
	}
}

func TestUnitVectorDotMatchesSeparation(t *testing.T) {
	v := UnitVector(30, 20)
	w := UnitVector(264.021, 48.253)
	cosTheta := v.Dot(w)
	sep := AngularSeparation(30, 20, 264.021, 48.253)
	if math.Abs(math.Cos(sep*math.Pi/180)-cosTheta) > 1e-12 {
		t.Errorf("cos(separation) = %.15f, dot = %.15f", math.Cos(sep*math.Pi/180), cosTheta)
	}
}
