package invert

import (
	"errors"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/Shin107/Anisotropic-SNANA/internal/anisotropy"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
)

func newInverter(p cosmology.Params) *Inverter {
	return New(distance.New(cosmology.NewAnalytic(p), anisotropy.Params{}), nil)
}

func TestSeed(t *testing.T) {
	// μ = 40 → D_L = 1000 Mpc → z0 = 70000/c.
	z0 := 70.0 * 1000 / 2.99792458e5
	want := z0 * math.Exp(-z0/6)
	assert.InDelta(t, want, Seed(40), 1e-12)
}

func TestInvertRecoversRedshift(t *testing.T) {
	inv := newInverter(cosmology.DefaultParams)
	calc := inv.Calculator()

	for _, z := range []float64{0.01, 0.1, 0.5, 1, 2} {
		mu := calc.Modulus(z, z)
		res, err := inv.Invert(mu)
		require.NoError(t, err, "z=%g", z)

		assert.InDelta(t, z, res.Z, 1e-4, "z=%g", z)
		assert.LessOrEqual(t, math.Abs(res.Residual), Tolerance)
		assert.Positive(t, res.Iterations)
		assert.LessOrEqual(t, res.Iterations, MaxIterations)
		assert.Equal(t, Seed(mu), res.Seed)
	}
}

func TestInvertCurvedDarkEnergy(t *testing.T) {
	inv := newInverter(cosmology.Params{H0: 73, OmegaM: 0.28, OmegaL: 0.65, W0: -0.9, Wa: 0.4})
	mu := inv.Calculator().Modulus(0.8, 0.8)
	res, err := inv.Invert(mu)
	require.NoError(t, err)
	assert.InDelta(t, 0.8, res.Z, 1e-4)
}

func TestInvertRejectsNonFinite(t *testing.T) {
	inv := newInverter(cosmology.DefaultParams)
	for _, mu := range []float64{math.NaN(), math.Inf(1)} {
		_, err := inv.Invert(mu)
		assert.True(t, errors.Is(err, cosmoerr.ErrInvalidInput), "mu=%v err=%v", mu, err)
	}
}

// invertFailures reads the non-convergence counter from the default registry.
func invertFailures(t *testing.T) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == "sncosmo_invert_failures_total" {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatal("sncosmo_invert_failures_total not registered")
	return 0
}

func TestInvertNotConverged(t *testing.T) {
	// A huge jerk drives the dipole D_L negative at every z near the seed,
	// so μ(z) is NaN and the iteration can never meet the tolerance.
	aniso := anisotropy.Params{Enabled: true, S: 0.03, J0: 1e9}
	inv := New(distance.New(cosmology.NewAnalytic(cosmology.DefaultParams), aniso), nil)
	require.True(t, math.IsNaN(inv.Calculator().Modulus(Seed(40), Seed(40))))

	before := invertFailures(t)
	res, err := inv.Invert(40)
	require.Error(t, err)
	assert.True(t, errors.Is(err, cosmoerr.ErrNotConverged), "err=%v", err)
	assert.Equal(t, Result{}, res)
	assert.Equal(t, 1.0, invertFailures(t)-before)

	msg := err.Error()
	assert.Contains(t, msg, "after 501 iterations")
	assert.Contains(t, msg, "mu=40.000000")
	assert.Contains(t, msg, "dmu=NaN")
	assert.Contains(t, msg, "z=NaN")
}

func TestInvertRoundTripProperty(t *testing.T) {
	inv := newInverter(cosmology.DefaultParams)
	rapid.Check(t, func(t *rapid.T) {
		z := rapid.Float64Range(0.005, 2.5).Draw(t, "z")
		mu := inv.Calculator().Modulus(z, z)
		res, err := inv.Invert(mu)
		if err != nil {
			t.Fatalf("Invert(%g): %v", mu, err)
		}
		if back := inv.Calculator().Modulus(res.Z, res.Z); math.Abs(back-mu) > 2*Tolerance {
			t.Fatalf("μ(z_inv) = %g, target %g", back, mu)
		}
	})
}
