package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/Shin107/Anisotropic-SNANA/internal/anisotropy"
	"github.com/Shin107/Anisotropic-SNANA/internal/batch"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/frame"
	"github.com/Shin107/Anisotropic-SNANA/internal/httputil"
	"github.com/Shin107/Anisotropic-SNANA/internal/modelstore"
	"github.com/Shin107/Anisotropic-SNANA/internal/sfr"
	"github.com/Shin107/Anisotropic-SNANA/internal/transform"
)

// maxBodyBytes bounds batch request bodies.
const maxBodyBytes = 8 << 20

type handlers struct {
	store      *modelstore.Store
	pool       *batch.WorkerPool
	maxBatch   int
	limiter    *ipLimiter
	trustProxy bool
	logger     *slog.Logger
}

// snapshot returns the current snapshot or writes 503.
func (h *handlers) snapshot(w http.ResponseWriter) *modelstore.Snapshot {
	snap := h.store.Get()
	if snap == nil {
		httputil.WriteJSON(w, http.StatusServiceUnavailable, httputil.ErrorBody{Error: "no model loaded"})
	}
	return snap
}

// floatParam parses a query parameter. A missing parameter yields def when
// required is false.
func floatParam(r *http.Request, name string, required bool, def float64) (float64, error) {
	s := r.URL.Query().Get(name)
	if s == "" {
		if required {
			return 0, fmt.Errorf("missing query parameter %q", name)
		}
		return def, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid %s=%q", name, s)
	}
	return v, nil
}

// ceilingCheck rejects redshifts beyond the model's integration ceiling.
func ceilingCheck(snap *modelstore.Snapshot, name string, z float64) error {
	if c := snap.Config.Cosmology.Ceiling; z > c {
		return fmt.Errorf("%s=%g exceeds integration ceiling %g", name, z, c)
	}
	return nil
}

// zcmbCheck applies ceilingCheck and rejects zcmb = 0, whose modulus is
// -Inf and has no JSON encoding.
func zcmbCheck(snap *modelstore.Snapshot, name string, z float64) error {
	if z == 0 {
		return fmt.Errorf("%s=0 has no finite distance modulus", name)
	}
	return ceilingCheck(snap, name, z)
}

func (h *handlers) hubble(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	z, err := floatParam(r, "z", true, 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"z":    z,
		"h":    snap.Model.H(z),
		"kind": snap.Model.Kind().String(),
	})
}

type distanceResponse struct {
	ZCMB     float64  `json:"zcmb"`
	ZHelio   float64  `json:"zhel"`
	Mu       float64  `json:"mu"`
	DL       *float64 `json:"dl_mpc,omitempty"`
	Comoving *float64 `json:"comoving_mpc,omitempty"`
}

func (h *handlers) distance(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	zcmb, err := floatParam(r, "zcmb", true, 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	zhel, err := floatParam(r, "zhel", false, zcmb)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if err := zcmbCheck(snap, "zcmb", zcmb); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	calc, err := directedCalculator(snap, r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	q := distance.Query{ZCMB: zcmb, ZHelio: zhel}
	resp := distanceResponse{ZCMB: zcmb, ZHelio: zhel, Mu: calc.ModulusQuery(q)}
	if zcmb >= 0 && zhel >= 0 {
		rc := calc.Comoving(0, zcmb)
		dl := (1 + zhel) * rc
		resp.Comoving, resp.DL = &rc, &dl
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

// directedCalculator points the anisotropy dipole at the optional ra/dec
// (in coord, default eq) of the request. Without a position, or with
// anisotropy disabled, the snapshot's calculator is returned.
func directedCalculator(snap *modelstore.Snapshot, r *http.Request) (*distance.Calculator, error) {
	aniso := snap.Calculator.Anisotropy()
	qs := r.URL.Query()
	if !aniso.Enabled || (qs.Get("ra") == "" && qs.Get("dec") == "") {
		return snap.Calculator, nil
	}
	ra, err := floatParam(r, "ra", true, 0)
	if err != nil {
		return nil, err
	}
	dec, err := floatParam(r, "dec", true, 0)
	if err != nil {
		return nil, err
	}
	coord := frame.CoordSys(qs.Get("coord"))
	if coord == "" {
		coord = frame.Equatorial
	}
	l, b, err := frame.ToGalactic(ra, dec, coord)
	if err != nil {
		return nil, err
	}
	return snap.Calculator.WithAnisotropy(aniso.WithDirection(l, b)), nil
}

func (h *handlers) invert(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	mu, err := floatParam(r, "mu", true, 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	res, err := snap.Inverter.Invert(mu)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, res)
}

func (h *handlers) translate(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	z, err := floatParam(r, "z", true, 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	ra, err := floatParam(r, "ra", true, 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	dec, err := floatParam(r, "dec", true, 0)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	coord := frame.CoordSys(r.URL.Query().Get("coord"))
	if coord == "" {
		coord = frame.Equatorial
	}
	dir := frame.ToCMB
	if s := r.URL.Query().Get("opt"); s != "" {
		if dir, err = frame.ParseDirection(s); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err)
			return
		}
	}

	out, err := snap.Translator.Translate(z, ra, dec, coord, dir)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"z_in":      z,
		"z_out":     out,
		"direction": dir.String(),
		"coord":     string(coord),
	})
}

func (h *handlers) volume(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	zmax, err := floatParam(r, "zmax", true, 0)
	if err == nil && zmax <= 0 {
		err = fmt.Errorf("zmax must be positive, got %g", zmax)
	}
	if err == nil {
		err = ceilingCheck(snap, "zmax", zmax)
	}
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}

	var weight distance.Weight
	switch s := r.URL.Query().Get("weight"); s {
	case "", "none", "0":
		weight = distance.Unweighted
	case "z", "1":
		weight = distance.RedshiftWeighted
	default:
		httputil.WriteError(w, http.StatusBadRequest, fmt.Errorf("invalid weight=%q", s))
		return
	}

	resp := map[string]any{
		"zmax":   zmax,
		"weight": weight.String(),
		"volume": snap.Calculator.VolumeIntegral(weight, zmax),
	}
	if r.URL.Query().Get("mean") == "true" {
		resp["mean_z"] = snap.Calculator.MeanRedshift(zmax)
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

func (h *handlers) sfr(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	z, err := floatParam(r, "z", true, 0)
	if err == nil && z < 0 {
		err = fmt.Errorf("z must not be negative, got %g", z)
	}
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, err)
		return
	}
	h0 := snap.Model.Params().H0
	httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"z":        z,
		"bg03":     sfr.BG03(z, h0),
		"md14":     sfr.MD14(z, sfr.MD14Default),
		"integral": sfr.Integral(snap.Model, z),
	})
}

type modelResponse struct {
	Kind       string            `json:"kind"`
	Params     cosmology.Params  `json:"params"`
	OmegaK     float64           `json:"omega_k"`
	Source     string            `json:"source"`
	LoadedAt   time.Time         `json:"loaded_at"`
	Anisotropy anisotropy.Params `json:"anisotropy"`
	MapRows    int               `json:"map_rows,omitempty"`
	MapZMax    float64           `json:"map_zmax,omitempty"`
	DipoleApex skyPoint          `json:"dipole_apex"`
	CMBApex    skyPoint          `json:"cmb_apex"`
}

// skyPoint is a direction in galactic and J2000 equatorial degrees.
type skyPoint struct {
	L   float64 `json:"l"`
	B   float64 `json:"b"`
	RA  float64 `json:"ra"`
	Dec float64 `json:"dec"`
}

func newSkyPoint(l, b float64) skyPoint {
	ra, dec := transform.GalacticToEquatorial(l, b)
	return skyPoint{L: l, B: b, RA: ra, Dec: dec}
}

func (h *handlers) model(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	p := snap.Model.Params()
	resp := modelResponse{
		Kind:       snap.Model.Kind().String(),
		Params:     p,
		OmegaK:     p.OmegaK(),
		Source:     snap.Source,
		LoadedAt:   snap.LoadedAt.UTC(),
		Anisotropy: snap.Calculator.Anisotropy(),
		DipoleApex: newSkyPoint(anisotropy.ApexGLON, anisotropy.ApexGLAT),
		CMBApex:    newSkyPoint(snap.Translator.Apex().L, snap.Translator.Apex().B),
	}
	if m := snap.Model.Map(); m != nil {
		resp.MapRows = m.Len()
		resp.MapZMax = m.ZMax()
	}
	httputil.WriteJSON(w, http.StatusOK, resp)
}

type batchItem struct {
	Value any    `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

type batchResponse struct {
	Results []batchItem `json:"results"`
	OK      int         `json:"ok"`
	Failed  int         `json:"failed"`
}

func toBatchResponse[T any](items []batch.Item[T], sum batch.Summary) batchResponse {
	resp := batchResponse{Results: make([]batchItem, len(items)), OK: sum.OK, Failed: sum.Failed}
	for i, it := range items {
		if it.Err != nil {
			resp.Results[i] = batchItem{Error: it.Err.Error()}
			continue
		}
		resp.Results[i] = batchItem{Value: it.Value}
	}
	return resp
}

// decodeBatch reads a JSON body into v and checks its length.
func (h *handlers) decodeBatch(w http.ResponseWriter, r *http.Request, v any, n func() int) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		httputil.WriteError(w, http.StatusBadRequest, fmt.Errorf("decode body: %w", err))
		return false
	}
	if count := n(); count == 0 || count > h.maxBatch {
		httputil.WriteJSON(w, http.StatusBadRequest, map[string]any{
			"error":     fmt.Sprintf("batch size %d outside [1, %d]", count, h.maxBatch),
			"max_batch": h.maxBatch,
		})
		return false
	}
	return true
}

func (h *handlers) batchDistance(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	var req struct {
		Queries []distance.Query `json:"queries"`
	}
	if !h.decodeBatch(w, r, &req, func() int { return len(req.Queries) }) {
		return
	}
	for i, q := range req.Queries {
		if err := zcmbCheck(snap, fmt.Sprintf("queries[%d].zcmb", i), q.ZCMB); err != nil {
			httputil.WriteError(w, http.StatusBadRequest, err)
			return
		}
	}

	items, sum, err := h.pool.Distances(r.Context(), snap.Calculator, req.Queries)
	if err != nil {
		h.batchFailed(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(items, sum))
}

func (h *handlers) batchInvert(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	var req struct {
		Mu []float64 `json:"mu"`
	}
	if !h.decodeBatch(w, r, &req, func() int { return len(req.Mu) }) {
		return
	}

	items, sum, err := h.pool.Inversions(r.Context(), snap.Inverter, req.Mu)
	if err != nil {
		h.batchFailed(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(items, sum))
}

func (h *handlers) batchTranslate(w http.ResponseWriter, r *http.Request) {
	snap := h.snapshot(w)
	if snap == nil {
		return
	}
	var req struct {
		Requests []batch.TranslateRequest `json:"requests"`
	}
	if !h.decodeBatch(w, r, &req, func() int { return len(req.Requests) }) {
		return
	}
	for i := range req.Requests {
		if req.Requests[i].CoordSys == "" {
			req.Requests[i].CoordSys = frame.Equatorial
		}
	}

	items, sum, err := h.pool.Translations(r.Context(), snap.Translator, req.Requests)
	if err != nil {
		h.batchFailed(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toBatchResponse(items, sum))
}

func (h *handlers) batchFailed(w http.ResponseWriter, err error) {
	h.logger.Warn("batch aborted", "error", err)
	status := http.StatusInternalServerError
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteError(w, status, err)
}
