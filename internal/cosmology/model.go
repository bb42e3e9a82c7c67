// Package cosmology holds the H(z) model consumed by every distance
// integral. A Model is either analytic wCDM or a tabulated H(z) map; the
// representation is chosen at construction and never changes, so a built
// Model is safe for concurrent use without locking.
package cosmology

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
	"github.com/Shin107/Anisotropic-SNANA/internal/hzmap"
	"github.com/Shin107/Anisotropic-SNANA/internal/interp"
	"github.com/Shin107/Anisotropic-SNANA/internal/physconst"
)

// Kind identifies the active H(z) representation.
type Kind int

const (
	KindAnalytic Kind = iota + 1
	KindTabulated
)

func (k Kind) String() string {
	switch k {
	case KindAnalytic:
		return "analytic"
	case KindTabulated:
		return "tabulated"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// representation is implemented only by analytic and tabulated.
type representation interface {
	hubble(p Params, z float64) float64
	kind() Kind
}

type analytic struct{}

func (analytic) hubble(p Params, z float64) float64 { return HubbleWCDM(p, z) }
func (analytic) kind() Kind                         { return KindAnalytic }

type tabulated struct {
	m  *hzmap.Map
	ip interp.Interpolator
}

func (t tabulated) hubble(_ Params, z float64) float64 { return t.ip.Eval(z) }
func (t tabulated) kind() Kind                         { return KindTabulated }

// Model evaluates H(z).
//
// The reference Params are kept for both representations: H0 normalises
// the curvature closure and ΩM, ΩΛ fix the curvature.
type Model struct {
	params Params
	rep    representation
}

type options struct {
	logger  *slog.Logger
	verbose bool
	ceiling float64
	method  interp.Method
}

// Option configures model construction.
type Option func(*options)

// WithLogger sets the logger used during construction.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithVerbose enables the parameter summary and range warnings.
func WithVerbose(v bool) Option {
	return func(o *options) { o.verbose = v }
}

// WithCeiling sets the highest redshift any integral will request. A
// tabulated map must reach it.
func WithCeiling(z float64) Option {
	return func(o *options) { o.ceiling = z }
}

// WithInterpolation selects the interpolation method for tabulated maps.
func WithInterpolation(m interp.Method) Option {
	return func(o *options) { o.method = m }
}

func buildOptions(opts []Option) options {
	o := options{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		ceiling: physconst.ZMaxSNANA,
		method:  interp.Linear,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewAnalytic returns an analytic wCDM model.
func NewAnalytic(p Params, opts ...Option) *Model {
	o := buildOptions(opts)
	if o.verbose {
		logParams(o.logger, p)
	}
	return &Model{params: p, rep: analytic{}}
}

// NewTabulated returns a model that interpolates m. The map must start at
// z = 0 exactly and reach the integration ceiling.
func NewTabulated(p Params, m *hzmap.Map, opts ...Option) (*Model, error) {
	const op = "cosmology.NewTabulated"
	o := buildOptions(opts)

	if m == nil || m.Len() == 0 {
		return nil, cosmoerr.New(cosmoerr.KindMapFormat, op, "empty H(z) map")
	}
	if zmin := m.ZMin(); zmin != 0.0 {
		return nil, cosmoerr.New(cosmoerr.KindMapOrigin, op,
			"zCMB_min=%f, but must be zero; check H(z) map %q", zmin, m.Source)
	}
	if zmax := m.ZMax(); zmax < o.ceiling {
		return nil, cosmoerr.New(cosmoerr.KindMapDomain, op,
			"zCMB_max=%f is below integration ceiling %f; check H(z) map %q", zmax, o.ceiling, m.Source)
	}

	ip, err := interp.New(o.method, m.Z, m.H)
	if err != nil {
		return nil, cosmoerr.Wrap(cosmoerr.KindMapFormat, op, err, "building %s interpolator", o.method)
	}

	o.logger.Info("tabulated H(z) model",
		"source", m.Source,
		"rows", m.Len(),
		"z_min", m.ZMin(),
		"z_max", m.ZMax(),
		"interp", o.method.String(),
	)
	if c := m.Provenance.CosPar; c != nil && o.verbose {
		mp := Params{H0: c.H0, OmegaM: c.OM, OmegaL: c.OL, W0: c.W0, Wa: c.Wa}
		if mp != p {
			o.logger.Warn("H(z) map provenance differs from reference cosmology",
				"map_cospar", mp.Tuple(),
				"reference_cospar", p.Tuple(),
			)
		}
	}
	if o.verbose {
		logParams(o.logger, p)
	}

	return &Model{params: p, rep: tabulated{m: m, ip: ip}}, nil
}

// LoadTabulated reads the map at path and builds a tabulated model from it.
func LoadTabulated(path string, p Params, opts ...Option) (*Model, error) {
	o := buildOptions(opts)
	m, err := hzmap.ReadFile(path, o.logger)
	if err != nil {
		return nil, err
	}
	return NewTabulated(p, m, opts...)
}

// NewDebugRoundTrip writes H(z) generated from p to path and reads it back
// as a tabulated model. It exists to compare the analytic and interpolated
// paths; production construction never touches the filesystem.
func NewDebugRoundTrip(p Params, path string, opts ...Option) (*Model, error) {
	o := buildOptions(opts)

	grid := hzmap.DefaultGrid
	if o.ceiling > grid.ZMax {
		grid.ZMax = o.ceiling
	}

	cospar := hzmap.CosPar{H0: p.H0, OM: p.OmegaM, OL: p.OmegaL, W0: p.W0, Wa: p.Wa}
	m, err := hzmap.Generate(grid, cospar, func(z float64) float64 { return HubbleWCDM(p, z) })
	if err != nil {
		return nil, err
	}

	o.logger.Info("writing debug H(z) map",
		"path", path,
		"bins", grid.Bins,
		"z_min", grid.ZMin,
		"z_max", grid.ZMax,
	)
	if err := hzmap.WriteFile(path, m); err != nil {
		return nil, err
	}
	return LoadTabulated(path, p, opts...)
}

// H returns H(z) in km/s/Mpc.
func (m *Model) H(z float64) float64 {
	return m.rep.hubble(m.params, z)
}

// Params returns the reference cosmology.
func (m *Model) Params() Params { return m.params }

// Kind reports the active representation.
func (m *Model) Kind() Kind { return m.rep.kind() }

// Map returns the tabulated map, or nil for an analytic model.
func (m *Model) Map() *hzmap.Map {
	if t, ok := m.rep.(tabulated); ok {
		return t.m
	}
	return nil
}

func logParams(logger *slog.Logger, p Params) {
	logger.Info("cosmology parameters",
		"h0", p.H0,
		"omega_m", p.OmegaM,
		"omega_l", p.OmegaL,
		"omega_k", p.OmegaK(),
		"w0", p.W0,
		"wa", p.Wa,
	)
	for _, w := range p.Check() {
		logger.Warn("cosmology parameter out of range",
			"param", w.Param,
			"value", w.Value,
			"min", w.Min,
			"max", w.Max,
		)
	}
}
