package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Shin107/Anisotropic-SNANA/internal/api"
	"github.com/Shin107/Anisotropic-SNANA/internal/auth"
	"github.com/Shin107/Anisotropic-SNANA/internal/batch"
	"github.com/Shin107/Anisotropic-SNANA/internal/config"
	"github.com/Shin107/Anisotropic-SNANA/internal/modelstore"
	"github.com/Shin107/Anisotropic-SNANA/internal/stream"
)

func newServeCmd(f *rootFlags) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the kernel over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, f, watch)
		},
	}
	cmd.Flags().BoolVar(&watch, "watch", true, "rebuild the model when the config or H(z) map changes")
	return cmd
}

func runServe(cmd *cobra.Command, f *rootFlags, watch bool) error {
	cfg, _, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}
	logger := newServiceLogger(cfg.LogLevel)

	// Reloads re-read the file and env, then re-apply the command line.
	load := func() (*config.Config, error) {
		c, _, err := loadConfig(cmd, f)
		return c, err
	}

	store := modelstore.NewStore(logger)
	if _, err := store.Reload(load); err != nil {
		return err
	}

	pool := batch.NewWorkerPool(cfg.Server.Workers, logger)
	authCfg := auth.FromToken(cfg.Server.AuthToken)

	srv := api.NewServer(cfg.Server.Addr, logger, api.Deps{
		Store:              store,
		Pool:               pool,
		Auth:               authCfg,
		MaxBatch:           cfg.Server.MaxBatch,
		MaxConcurrentPerIP: cfg.Server.MaxConcurrentPerIP,
		TrustProxy:         cfg.Server.TrustProxy,
		Stream:             stream.DefaultConfig,
	})

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Open model streams end with the signal context instead of holding
	// Shutdown until its timeout.
	srv.HTTPServer().BaseContext = func(net.Listener) context.Context { return ctx }

	if watch {
		w, err := modelstore.NewWatcher(store, load, []string{f.configFile, cfg.Cosmology.HzFile}, logger)
		if err != nil {
			return err
		}
		go func() {
			if err := w.Run(ctx); err != nil {
				logger.Error("model watcher stopped", "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			"addr", cfg.Server.Addr,
			"auth_enabled", authCfg.Enabled,
			"workers", pool.Workers(),
			"watch", watch,
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.HTTPServer().Shutdown(shutdownCtx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
