package modelstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Shin107/Anisotropic-SNANA/internal/config"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmoerr"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/hzmap"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// keep-alive connections left by remote map downloads
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func writeMap(t *testing.T, path string, p cosmology.Params) {
	t.Helper()
	m, err := hzmap.Generate(hzmap.DefaultGrid, hzmap.CosPar{H0: p.H0, OM: p.OmegaM, OL: p.OmegaL, W0: p.W0, Wa: p.Wa},
		func(z float64) float64 { return cosmology.HubbleWCDM(p, z) })
	require.NoError(t, err)
	require.NoError(t, hzmap.WriteFile(path, m))
}

func TestBuildAnalytic(t *testing.T) {
	snap, err := Build(config.DefaultConfig(), testLogger())
	require.NoError(t, err)

	assert.Equal(t, cosmology.KindAnalytic, snap.Model.Kind())
	assert.Equal(t, "analytic", snap.Source)
	assert.Same(t, snap.Calculator, snap.Inverter.Calculator())
	assert.NotNil(t, snap.Translator)
	assert.False(t, snap.LoadedAt.IsZero())
}

func TestBuildTabulated(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hz.dat")
	writeMap(t, path, cosmology.DefaultParams)

	cfg := config.DefaultConfig()
	cfg.Cosmology.HzFile = path
	cfg.Cosmology.Interp = "quadratic"

	snap, err := Build(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, cosmology.KindTabulated, snap.Model.Kind())
	assert.Equal(t, path, snap.Source)
	assert.InEpsilon(t, cosmology.HubbleWCDM(cosmology.DefaultParams, 1.1), snap.Model.H(1.1), 1e-4)
}

func TestBuildRemoteMap(t *testing.T) {
	local := filepath.Join(t.TempDir(), "hz.dat")
	writeMap(t, local, cosmology.DefaultParams)
	data, err := os.ReadFile(local)
	require.NoError(t, err)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer server.Close()

	cfg := config.DefaultConfig()
	cfg.Cosmology.HzFile = server.URL + "/hz.dat"
	cfg.Cosmology.HzCacheDir = t.TempDir()

	snap, err := Build(cfg, testLogger())
	require.NoError(t, err)
	assert.Equal(t, cosmology.KindTabulated, snap.Model.Kind())
	assert.Equal(t, cfg.Cosmology.HzFile, snap.Source)

	entries, err := os.ReadDir(cfg.Cosmology.HzCacheDir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestStoreReloadKeepsPreviousOnFailure(t *testing.T) {
	store := NewStore(testLogger())
	assert.False(t, store.Ready())
	assert.Equal(t, -1.0, store.AgeSeconds())

	good := func() (*config.Config, error) { return config.DefaultConfig(), nil }
	first, err := store.Reload(good)
	require.NoError(t, err)
	assert.True(t, store.Ready())
	assert.GreaterOrEqual(t, store.AgeSeconds(), 0.0)

	missing := func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.Cosmology.HzFile = filepath.Join(t.TempDir(), "none.dat")
		return cfg, nil
	}
	_, err = store.Reload(missing)
	require.Error(t, err)
	assert.Same(t, first, store.Get())

	invalid := func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.Cosmology.H0 = 0
		return cfg, nil
	}
	_, err = store.Reload(invalid)
	require.Error(t, err)
	assert.Same(t, first, store.Get())

	_, err = store.Reload(func() (*config.Config, error) { return nil, errors.New("unreadable") })
	require.Error(t, err)
	assert.Same(t, first, store.Get())
}

func TestStoreRejectsShiftedMap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hz.dat")
	require.NoError(t, os.WriteFile(path, []byte(" 0.001 70\n 5.0 400\n"), 0644))

	store := NewStore(testLogger())
	_, err := store.Reload(func() (*config.Config, error) {
		cfg := config.DefaultConfig()
		cfg.Cosmology.HzFile = path
		return cfg, nil
	})
	assert.True(t, errors.Is(err, cosmoerr.ErrMapOrigin), "err = %v", err)
	assert.Nil(t, store.Get())
}

func TestWatcherReloadsOnConfigChange(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "sncosmo.yaml")

	cfg := config.DefaultConfig()
	require.NoError(t, config.Save(cfgPath, cfg))

	load := func() (*config.Config, error) { return config.Load(cfgPath) }
	store := NewStore(testLogger())
	_, err := store.Reload(load)
	require.NoError(t, err)

	w, err := NewWatcher(store, load, []string{cfgPath, ""}, testLogger())
	require.NoError(t, err)
	w.SetDebounce(50 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	cfg.Cosmology.H0 = 73
	require.NoError(t, config.Save(cfgPath, cfg))

	require.Eventually(t, func() bool {
		return store.Get().Model.Params().H0 == 73
	}, 5*time.Second, 20*time.Millisecond)

	// A broken edit is ignored.
	require.NoError(t, os.WriteFile(cfgPath, []byte("cosmology: [broken"), 0644))
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 73.0, store.Get().Model.Params().H0)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
