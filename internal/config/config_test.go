package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/interp"
)

var testLogger = slog.New(slog.NewJSONHandler(io.Discard, nil))

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, cosmology.DefaultParams, cfg.Cosmology.Params)
	assert.Equal(t, interp.Linear, cfg.InterpMethod())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sncosmo.yaml")
	doc := `
cosmology:
  h0: 73
  omega_m: 0.28
  hz_file: /data/hz.dat
  interp: quadratic
anisotropy:
  enabled: true
  qd: 0.2
  glon: 120
  glat: -30
server:
  addr: ":9090"
  workers: 3
log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	want := DefaultConfig()
	want.Cosmology.H0 = 73
	want.Cosmology.OmegaM = 0.28
	want.Cosmology.HzFile = "/data/hz.dat"
	want.Cosmology.Interp = "quadratic"
	want.Anisotropy.Enabled = true
	want.Anisotropy.QD = 0.2
	want.Anisotropy.GLON = 120
	want.Anisotropy.GLAT = -30
	want.Server.Addr = ":9090"
	want.Server.Workers = 3
	want.LogLevel = "debug"

	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, interp.Quadratic, cfg.InterpMethod())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.Cosmology.Wa = 0.3
	cfg.Server.AuthToken = "secret"
	require.NoError(t, Save(path, cfg))

	got, err := Load(path)
	require.NoError(t, err)
	if diff := cmp.Diff(cfg, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("cosmology: [1, 2"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero H0", func(c *Config) { c.Cosmology.H0 = 0 }},
		{"negative ceiling", func(c *Config) { c.Cosmology.Ceiling = -1 }},
		{"bad interp", func(c *Config) { c.Cosmology.Interp = "cubic" }},
		{"anisotropy without scale", func(c *Config) { c.Anisotropy.Enabled = true; c.Anisotropy.S = 0 }},
		{"negative workers", func(c *Config) { c.Server.Workers = -2 }},
		{"zero batch", func(c *Config) { c.Server.MaxBatch = 0 }},
		{"zero per-ip", func(c *Config) { c.Server.MaxConcurrentPerIP = 0 }},
		{"bad level", func(c *Config) { c.LogLevel = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("SNANA_HTTP_ADDR", ":7070")
	t.Setenv("SNANA_AUTH_TOKEN", "tok")
	t.Setenv("SNANA_WORKERS", "6")
	t.Setenv("SNANA_HZ_FILE", "/tmp/hz.dat")
	t.Setenv("SNANA_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.ApplyEnv(testLogger)

	assert.Equal(t, ":7070", cfg.Server.Addr)
	assert.Equal(t, "tok", cfg.Server.AuthToken)
	assert.Equal(t, 6, cfg.Server.Workers)
	assert.Equal(t, "/tmp/hz.dat", cfg.Cosmology.HzFile)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestApplyEnvIgnoresInvalid(t *testing.T) {
	t.Setenv("SNANA_WORKERS", "many")
	t.Setenv("SNANA_LOG_LEVEL", "shouty")

	cfg := DefaultConfig()
	cfg.Server.Workers = 2
	cfg.ApplyEnv(testLogger)

	assert.Equal(t, 2, cfg.Server.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{
		"debug": slog.LevelDebug,
		"":      slog.LevelInfo,
		"INFO":  slog.LevelInfo,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
