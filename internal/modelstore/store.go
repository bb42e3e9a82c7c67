// Package modelstore holds the model snapshot served by the HTTP API and
// rebuilds it when its configuration or H(z) map changes on disk.
package modelstore

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Shin107/Anisotropic-SNANA/internal/config"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/frame"
	"github.com/Shin107/Anisotropic-SNANA/internal/hzfetch"
	"github.com/Shin107/Anisotropic-SNANA/internal/invert"
	"github.com/Shin107/Anisotropic-SNANA/internal/metrics"
)

// Snapshot is a fully built, immutable set of kernel objects.
type Snapshot struct {
	Config     *config.Config
	Model      *cosmology.Model
	Calculator *distance.Calculator
	Inverter   *invert.Inverter
	Translator *frame.Translator
	Source     string // H(z) map path, or "analytic"
	LoadedAt   time.Time
}

// fetchTimeout bounds the download of a remote H(z) map.
const fetchTimeout = 45 * time.Second

// Build constructs a snapshot from cfg.
func Build(cfg *config.Config, logger *slog.Logger) (*Snapshot, error) {
	opts := []cosmology.Option{
		cosmology.WithLogger(logger),
		cosmology.WithVerbose(cfg.Cosmology.Verbose),
		cosmology.WithCeiling(cfg.Cosmology.Ceiling),
		cosmology.WithInterpolation(cfg.InterpMethod()),
	}

	var (
		model  *cosmology.Model
		source = "analytic"
		path   string
		err    error
	)
	if cfg.Cosmology.HzFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		path, err = hzfetch.Resolve(ctx, cfg.Cosmology.HzFile, cfg.Cosmology.HzCacheDir, logger)
		if err != nil {
			return nil, err
		}
		model, err = cosmology.LoadTabulated(path, cfg.Cosmology.Params, opts...)
		if err != nil {
			return nil, err
		}
		source = cfg.Cosmology.HzFile
	} else {
		model = cosmology.NewAnalytic(cfg.Cosmology.Params, opts...)
	}

	calc := distance.New(model, cfg.Anisotropy)
	return &Snapshot{
		Config:     cfg,
		Model:      model,
		Calculator: calc,
		Inverter:   invert.New(calc, logger),
		Translator: frame.Default(),
		Source:     source,
		LoadedAt:   time.Now(),
	}, nil
}

// Loader produces the configuration to build from.
type Loader func() (*config.Config, error)

// Store provides lock-free read access to the current snapshot.
type Store struct {
	snap   atomic.Pointer[Snapshot]
	mu     sync.Mutex // serializes reloads
	logger *slog.Logger
}

// NewStore creates an empty Store.
func NewStore(logger *slog.Logger) *Store {
	return &Store{logger: logger}
}

// Get returns the current snapshot, or nil if none has been loaded.
func (s *Store) Get() *Snapshot {
	return s.snap.Load()
}

// Set atomically replaces the current snapshot.
func (s *Store) Set(snap *Snapshot) {
	s.snap.Store(snap)
	metrics.SetModelKind(snap.Model.Kind().String())
}

// Ready reports whether a snapshot has been published.
func (s *Store) Ready() bool {
	return s.snap.Load() != nil
}

// AgeSeconds returns the age of the current snapshot in seconds, or -1 if
// none is loaded.
func (s *Store) AgeSeconds() float64 {
	snap := s.snap.Load()
	if snap == nil {
		return -1
	}
	return time.Since(snap.LoadedAt).Seconds()
}

// Reload builds a snapshot from load and publishes it. On failure the
// previous snapshot stays in place.
func (s *Store) Reload(load Loader) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.build(load)
	metrics.ObserveReload(err)
	if err != nil {
		s.logger.Error("model reload failed, keeping previous snapshot",
			"error", err,
			"has_previous", s.Ready(),
		)
		return nil, err
	}

	s.Set(snap)
	s.logger.Info("model snapshot published",
		"kind", snap.Model.Kind().String(),
		"source", snap.Source,
		"anisotropy", snap.Calculator.Anisotropy().Enabled,
	)
	return snap, nil
}

func (s *Store) build(load Loader) (*Snapshot, error) {
	if load == nil {
		return nil, errors.New("modelstore: nil loader")
	}
	cfg, err := load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Build(cfg, s.logger)
}
