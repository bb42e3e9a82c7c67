package transform

import (
	"math"

	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
)

// AngularSeparation returns the great-circle angle in degrees between two
// (longitude, latitude) directions given in degrees, using the haversine
// form:
//
//	a = sin²(Δlat/2) + cos(lat1) cos(lat2) sin²(Δlon/2)
//	θ = 2 atan2(√a, √(1−a))
func AngularSeparation(lon1Deg, lat1Deg, lon2Deg, lat2Deg float64) float64 {
	lon1 := lon1Deg * physconst.Radian
	lat1 := lat1Deg * physconst.Radian
	lon2 := lon2Deg * physconst.Radian
	lat2 := lat2Deg * physconst.Radian

	dlon := lon2 - lon1
	dlat := lat2 - lat1

	sinLat := math.Sin(dlat / 2)
	sinLon := math.Sin(dlon / 2)
	a := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return c / physconst.Radian
}
