package interp

import "fmt"

// LinearInterpolator is a piecewise linear interpolator.
type LinearInterpolator struct {
	searcher
	ys []float64
}

// NewLinear creates a linear interpolator for strictly increasing xs taking
// the values ys. Lookups are O(log n), O(1) for uniformly spaced xs.
func NewLinear(xs, ys []float64) (*LinearInterpolator, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("length mismatch: %d abscissae, %d values", len(xs), len(ys))
	}
	s, err := newSearcher(xs, 2)
	if err != nil {
		return nil, err
	}
	return &LinearInterpolator{searcher: s, ys: ys}, nil
}

// Eval returns the interpolated value at x.
func (lin *LinearInterpolator) Eval(x float64) float64 {
	i := lin.search(x)
	x1, x2 := lin.xs[i], lin.xs[i+1]
	y1, y2 := lin.ys[i], lin.ys[i+1]
	return ((y2-y1)/(x2-x1))*(x-x1) + y1
}

// QuadraticInterpolator fits a parabola through the three tabulated points
// nearest to x.
type QuadraticInterpolator struct {
	searcher
	ys []float64
}

// NewQuadratic creates a three-point Lagrange interpolator. At least three
// points are required.
func NewQuadratic(xs, ys []float64) (*QuadraticInterpolator, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("length mismatch: %d abscissae, %d values", len(xs), len(ys))
	}
	s, err := newSearcher(xs, 3)
	if err != nil {
		return nil, err
	}
	return &QuadraticInterpolator{searcher: s, ys: ys}, nil
}

// Eval returns the interpolated value at x.
func (q *QuadraticInterpolator) Eval(x float64) float64 {
	i := q.search(x)
	if i > len(q.xs)-3 {
		i = len(q.xs) - 3
	}
	x0, x1, x2 := q.xs[i], q.xs[i+1], q.xs[i+2]
	y0, y1, y2 := q.ys[i], q.ys[i+1], q.ys[i+2]

	l0 := (x - x1) * (x - x2) / ((x0 - x1) * (x0 - x2))
	l1 := (x - x0) * (x - x2) / ((x1 - x0) * (x1 - x2))
	l2 := (x - x0) * (x - x1) / ((x2 - x0) * (x2 - x1))
	return y0*l0 + y1*l1 + y2*l2
}
