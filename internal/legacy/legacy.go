// Package legacy exposes the kernel through the positional, pointer-based
// signatures used by existing Fortran callers. Each adapter builds an
// analytic model and delegates; no formula lives here. Nothing in this
// module imports it; it is the surface a cgo export shim binds to.
package legacy

import (
	"github.com/Shin107/Anisotropic-SNANA/internal/anisotropy"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/frame"
	"github.com/Shin107/Anisotropic-SNANA/internal/invert"
)

func calculator(p cosmology.Params) *distance.Calculator {
	return distance.New(cosmology.NewAnalytic(p), anisotropy.Params{})
}

// DLMag returns the isotropic distance modulus for an analytic wCDM
// cosmology.
func DLMag(zCMB, zHEL, H0, OM, OL, w0, wa *float64) float64 {
	p := cosmology.Params{H0: *H0, OmegaM: *OM, OmegaL: *OL, W0: *w0, Wa: *wa}
	return calculator(p).Modulus(*zCMB, *zHEL)
}

// DVdzIntegral returns the volume integral to zmax; opt 1 weights by z.
// cospar is {H0, ΩM, ΩΛ, w0, wa}.
func DVdzIntegral(opt *int, zmax *float64, cospar *[5]float64) float64 {
	w := distance.Unweighted
	if *opt == 1 {
		w = distance.RedshiftWeighted
	}
	return calculator(cosmology.ParamsFromTuple(*cospar)).VolumeIntegral(w, *zmax)
}

// ZCMBDLMagInvert returns the CMB redshift whose modulus is mu.
func ZCMBDLMagInvert(mu *float64, cospar *[5]float64) (float64, error) {
	inv := invert.New(calculator(cosmology.ParamsFromTuple(*cospar)), nil)
	res, err := inv.Invert(*mu)
	if err != nil {
		return 0, err
	}
	return res.Z, nil
}

// ZHelioZCMBTranslator converts z between frames; opt > 0 is helio to CMB,
// opt < 0 the reverse.
func ZHelioZCMBTranslator(z, ra, dec *float64, coordSys string, opt *int) (float64, error) {
	return frame.Default().Translate(*z, *ra, *dec, frame.CoordSys(coordSys), frame.Direction(*opt))
}
