// Package quadrature implements the fixed-resolution midpoint rule used by
// every integral in the distance kernel.
//
// The bin count scales with the width of the domain, in the units of the
// integration variable (redshift or scale factor):
//
//	n = max(10, floor(1000 * width))
//
// which keeps the relative error roughly constant over 0 < z < ZMaxSNANA
// without adaptive stepping.
package quadrature

const (
	binsPerUnit = 1000.0
	minBins     = 10
)

// Bins returns the number of midpoint bins used for a domain of the given
// width.
func Bins(width float64) int {
	n := int(width * binsPerUnit)
	if n < minBins {
		n = minBins
	}
	return n
}

// Midpoint integrates f over [lo, hi] with Bins(hi-lo) midpoint bins.
// hi < lo yields the negated integral.
func Midpoint(lo, hi float64, f func(x float64) float64) float64 {
	n := Bins(hi - lo)
	dx := (hi - lo) / float64(n)

	var sum float64
	for i := 0; i < n; i++ {
		x := lo + dx*(float64(i)+0.5)
		sum += f(x)
	}
	return sum * dx
}
