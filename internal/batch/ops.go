package batch

import (
	"context"
	"math"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/frame"
	"github.com/Shin107/Anisotropic-SNANA/internal/invert"
)

// DistanceResult is the modulus for one query. Sentinel queries carry the
// sentinel in Mu and zero DL.
type DistanceResult struct {
	Query distance.Query `json:"query"`
	Mu    float64        `json:"mu"`
	DL    float64        `json:"dl_mpc"`
}

// Distances evaluates the distance modulus for each query.
func (wp *WorkerPool) Distances(ctx context.Context, calc *distance.Calculator, queries []distance.Query) ([]Item[DistanceResult], Summary, error) {
	return run(ctx, wp, "distance", queries, func(q distance.Query) (DistanceResult, error) {
		res := DistanceResult{Query: q, Mu: calc.ModulusQuery(q)}
		if q.ZCMB >= 0 && q.ZHelio >= 0 {
			res.DL = calc.LuminosityDistance(q.ZCMB, q.ZHelio)
		}
		return res, nil
	})
}

// Inversions inverts each distance modulus.
func (wp *WorkerPool) Inversions(ctx context.Context, inv *invert.Inverter, mus []float64) ([]Item[invert.Result], Summary, error) {
	return run(ctx, wp, "invert", mus, inv.Invert)
}

// TranslateRequest is one redshift to move between frames.
type TranslateRequest struct {
	Z        float64         `json:"z"`
	Lon      float64         `json:"ra"`
	Lat      float64         `json:"dec"`
	CoordSys frame.CoordSys  `json:"coord"`
	Dir      frame.Direction `json:"opt"`
}

// Translations converts each request with tr.
func (wp *WorkerPool) Translations(ctx context.Context, tr *frame.Translator, reqs []TranslateRequest) ([]Item[float64], Summary, error) {
	return run(ctx, wp, "translate", reqs, func(r TranslateRequest) (float64, error) {
		return tr.Translate(r.Z, r.Lon, r.Lat, r.CoordSys, r.Dir)
	})
}

// Point is one sample of a Hubble diagram.
type Point struct {
	Z  float64 `json:"z"`
	Mu float64 `json:"mu"`
}

// HubbleDiagram samples μ(z) at n log-spaced redshifts in [zmin, zmax].
func (wp *WorkerPool) HubbleDiagram(ctx context.Context, calc *distance.Calculator, zmin, zmax float64, n int) ([]Point, error) {
	const op = "batch.HubbleDiagram"
	if zmin <= 0 || zmax <= zmin || n < 2 {
		return nil, cosmoerr.New(cosmoerr.KindInvalidInput, op,
			"need 0 < zmin < zmax and n >= 2, got zmin=%g zmax=%g n=%d", zmin, zmax, n)
	}

	zs := make([]float64, n)
	lmin, lmax := math.Log10(zmin), math.Log10(zmax)
	for i := range zs {
		zs[i] = math.Pow(10, lmin+(lmax-lmin)*float64(i)/float64(n-1))
	}

	items, _, err := run(ctx, wp, "hubble_diagram", zs, func(z float64) (Point, error) {
		return Point{Z: z, Mu: calc.Modulus(z, z)}, nil
	})
	if err != nil {
		return nil, err
	}
	pts := make([]Point, len(items))
	for i, it := range items {
		pts[i] = it.Value
	}
	return pts, nil
}
