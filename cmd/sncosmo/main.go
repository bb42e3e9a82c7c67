package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Shin107/Anisotropic-SNANA/internal/config"
	"github.com/Shin107/Anisotropic-SNANA/internal/modelstore"
)

// rootFlags are the persistent flags shared by every subcommand.
type rootFlags struct {
	configFile string
	logLevel   string
	h0         float64
	omegaM     float64
	omegaL     float64
	w0         float64
	wa         float64
	hzFile     string
	interp     string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	f := &rootFlags{}

	rootCmd := &cobra.Command{
		Use:           "sncosmo",
		Short:         "cosmological distances, inversions and frame translations",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&f.configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug|info|warn|error)")
	pf.Float64Var(&f.h0, "h0", 70, "Hubble constant, km/s/Mpc")
	pf.Float64Var(&f.omegaM, "omega-m", 0.3, "matter density")
	pf.Float64Var(&f.omegaL, "omega-l", 0.7, "dark energy density")
	pf.Float64Var(&f.w0, "w0", -1, "dark energy w0")
	pf.Float64Var(&f.wa, "wa", 0, "dark energy wa")
	pf.StringVar(&f.hzFile, "hz-file", "", "tabulated H(z) map")
	pf.StringVar(&f.interp, "interp", "", "H(z) map interpolation (linear|quadratic)")

	rootCmd.AddCommand(
		newServeCmd(f),
		newHzCmd(f),
		newMuCmd(f),
		newZinvCmd(f),
		newZcmbCmd(f),
		newVolumeCmd(f),
		newSFRCmd(f),
		newPlotCmd(f),
		newWriteHzCmd(f),
	)
	return rootCmd
}

// newLogger writes text records to stderr at level.
func newLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// newServiceLogger writes JSON records to stdout at level.
func newServiceLogger(level string) *slog.Logger {
	lvl, err := config.ParseLevel(level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

// loadConfig merges defaults, the config file, SNANA_* variables and
// explicitly set flags, in that order.
func loadConfig(cmd *cobra.Command, f *rootFlags) (*config.Config, *slog.Logger, error) {
	cfg := config.DefaultConfig()
	if f.configFile != "" {
		loaded, err := config.Load(f.configFile)
		if err != nil {
			return nil, nil, err
		}
		cfg = loaded
	}

	logger := newLogger(cfg.LogLevel)
	cfg.ApplyEnv(logger)

	flags := cmd.Flags()
	if flags.Changed("h0") {
		cfg.Cosmology.H0 = f.h0
	}
	if flags.Changed("omega-m") {
		cfg.Cosmology.OmegaM = f.omegaM
	}
	if flags.Changed("omega-l") {
		cfg.Cosmology.OmegaL = f.omegaL
	}
	if flags.Changed("w0") {
		cfg.Cosmology.W0 = f.w0
	}
	if flags.Changed("wa") {
		cfg.Cosmology.Wa = f.wa
	}
	if flags.Changed("hz-file") {
		cfg.Cosmology.HzFile = f.hzFile
	}
	if flags.Changed("interp") {
		cfg.Cosmology.Interp = f.interp
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, newLogger(cfg.LogLevel), nil
}

// loadSnapshot builds the kernel objects for a one-shot command.
func loadSnapshot(cmd *cobra.Command, f *rootFlags) (*modelstore.Snapshot, *slog.Logger, error) {
	cfg, logger, err := loadConfig(cmd, f)
	if err != nil {
		return nil, nil, err
	}
	snap, err := modelstore.Build(cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return snap, logger, nil
}
