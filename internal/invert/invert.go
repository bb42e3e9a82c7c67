// Package invert solves μ(z) = μ_target for the CMB-frame redshift, with
// zhel = zcmb, by damped multiplicative iteration:
//
//	z ← z · exp(-(μ(z) - μ_target)/2)
//
// starting from a Hubble-law seed.
package invert

import (
	"io"
	"log/slog"
	"math"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/metrics"
	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
)

const (
	// Tolerance is the |Δμ| at which iteration stops.
	Tolerance = 1e-4
	// MaxIterations is the iteration count beyond which inversion fails.
	MaxIterations = 500

	seedH0 = 70.0
)

// Seed returns the starting redshift for modulus mu:
//
//	D_L = 10^(μ/5)·1e-5 Mpc,  z0 = 70·D_L/c,  seed = z0·exp(-z0/6)
func Seed(mu float64) float64 {
	dl := math.Pow(10, mu/5) * 1e-5
	z0 := seedH0 * dl / physconst.SpeedOfLight
	return z0 * math.Exp(-z0/6)
}

// Result describes a successful inversion.
type Result struct {
	Z          float64 `json:"z"`
	Seed       float64 `json:"seed"`
	Iterations int     `json:"iterations"`
	Residual   float64 `json:"residual"` // last μ(z) - μ_target
}

// Inverter inverts distance moduli for one Calculator.
type Inverter struct {
	calc   *distance.Calculator
	logger *slog.Logger
}

// New returns an Inverter. A nil logger discards output.
func New(calc *distance.Calculator, logger *slog.Logger) *Inverter {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Inverter{calc: calc, logger: logger}
}

// Calculator returns the forward model.
func (inv *Inverter) Calculator() *distance.Calculator { return inv.calc }

// Invert returns the redshift whose modulus is mu.
func (inv *Inverter) Invert(mu float64) (Result, error) {
	const op = "invert.Invert"

	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return Result{}, cosmoerr.New(cosmoerr.KindInvalidInput, op, "mu=%v is not finite", mu)
	}

	seed := Seed(mu)
	z := seed
	var dmu float64
	for n := 1; ; n++ {
		dmu = inv.calc.Modulus(z, z) - mu
		z *= math.Exp(-dmu / 2)

		if math.Abs(dmu) <= Tolerance {
			metrics.ObserveInversion(n, true)
			return Result{Z: z, Seed: seed, Iterations: n, Residual: dmu}, nil
		}
		if n > MaxIterations {
			metrics.ObserveInversion(n, false)
			inv.logger.Warn("modulus inversion did not converge",
				"mu", mu,
				"dmu", dmu,
				"z", z,
				"iterations", n,
			)
			return Result{}, cosmoerr.New(cosmoerr.KindNotConverged, op,
				"could not solve for zCMB after %d iterations: mu=%f dmu=%f z=%f", n, mu, dmu, z)
		}
	}
}
