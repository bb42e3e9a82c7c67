package legacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin107/Anisotropic-SNANA/internal/anisotropy"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/frame"
)

func TestDLMagDelegates(t *testing.T) {
	zc, zh := 0.2, 0.201
	h0, om, ol, w0, wa := 70.0, 0.3, 0.7, -1.0, 0.0

	calc := distance.New(cosmology.NewAnalytic(cosmology.DefaultParams), anisotropy.Params{})
	assert.Equal(t, calc.Modulus(zc, zh), DLMag(&zc, &zh, &h0, &om, &ol, &w0, &wa))
}

func TestDVdzIntegralOptions(t *testing.T) {
	cospar := cosmology.DefaultParams.Tuple()
	zmax := 0.3
	opt0, opt1 := 0, 1

	v0 := DVdzIntegral(&opt0, &zmax, &cospar)
	v1 := DVdzIntegral(&opt1, &zmax, &cospar)
	require.Positive(t, v0)
	assert.Less(t, v1/v0, zmax)
}

func TestZCMBDLMagInvert(t *testing.T) {
	cospar := cosmology.DefaultParams.Tuple()
	z, zh := 0.4, 0.4
	h0, om, ol, w0, wa := cospar[0], cospar[1], cospar[2], cospar[3], cospar[4]
	mu := DLMag(&z, &zh, &h0, &om, &ol, &w0, &wa)

	got, err := ZCMBDLMagInvert(&mu, &cospar)
	require.NoError(t, err)
	assert.InDelta(t, z, got, 1e-4)
}

func TestZHelioZCMBTranslator(t *testing.T) {
	z, ra, dec := 0.05, 185.0, 12.0
	opt := 1

	got, err := ZHelioZCMBTranslator(&z, &ra, &dec, "eq", &opt)
	require.NoError(t, err)
	want, err := frame.Default().Translate(z, ra, dec, frame.Equatorial, frame.ToCMB)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	sentinel := -9.0
	got, err = ZHelioZCMBTranslator(&sentinel, &ra, &dec, "nonsense", &opt)
	require.NoError(t, err)
	assert.Equal(t, -9.0, got)

	zero := 0
	_, err = ZHelioZCMBTranslator(&z, &ra, &dec, "gal", &zero)
	assert.Error(t, err)
}
