// Package interp implements 1-D interpolation over strictly increasing
// abscissae. Interpolators are immutable after construction and safe for
// concurrent use; outside the tabulated range they extrapolate from the
// nearest segment.
package interp

import (
	"fmt"
	"strings"
)

// Method selects the interpolation order.
type Method int

const (
	Linear Method = iota + 1
	Quadratic
)

func (m Method) String() string {
	switch m {
	case Linear:
		return "linear"
	case Quadratic:
		return "quadratic"
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod maps a config string to a Method. An empty string selects
// Linear.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "linear", "1":
		return Linear, nil
	case "quadratic", "2":
		return Quadratic, nil
	}
	return 0, fmt.Errorf("unknown interpolation method %q", s)
}

// Interpolator evaluates a tabulated function.
type Interpolator interface {
	Eval(x float64) float64
}

// New builds an interpolator of the given method over (xs, ys).
func New(method Method, xs, ys []float64) (Interpolator, error) {
	switch method {
	case Linear:
		return NewLinear(xs, ys)
	case Quadratic:
		return NewQuadratic(xs, ys)
	}
	return nil, fmt.Errorf("unknown interpolation method %d", int(method))
}

// searcher finds the segment containing x.
type searcher struct {
	xs []float64
	dx float64
}

func newSearcher(xs []float64, minLen int) (searcher, error) {
	if len(xs) < minLen {
		return searcher{}, fmt.Errorf("need at least %d points, got %d", minLen, len(xs))
	}
	for i := 1; i < len(xs); i++ {
		if !(xs[i] > xs[i-1]) {
			return searcher{}, fmt.Errorf("abscissae not strictly increasing at index %d (%g after %g)", i, xs[i], xs[i-1])
		}
	}
	return searcher{
		xs: xs,
		dx: (xs[len(xs)-1] - xs[0]) / float64(len(xs)-1),
	}, nil
}

// search returns i such that xs[i] <= x < xs[i+1], clamped to
// [0, len(xs)-2] so out-of-range points use the end segments.
func (s searcher) search(x float64) int {
	n := len(s.xs)
	if x <= s.xs[0] {
		return 0
	}
	if x >= s.xs[n-1] {
		return n - 2
	}

	// Guess under the assumption of uniform spacing.
	guess := int((x - s.xs[0]) / s.dx)
	if guess >= 0 && guess < n-1 && s.xs[guess] <= x && x < s.xs[guess+1] {
		return guess
	}

	lo, hi := 0, n-1
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if x >= s.xs[mid] {
			lo = mid
		} else {
			hi = mid
		}
	}
	return lo
}

// Min returns the first abscissa.
func (s searcher) Min() float64 { return s.xs[0] }

// Max returns the last abscissa.
func (s searcher) Max() float64 { return s.xs[len(s.xs)-1] }
