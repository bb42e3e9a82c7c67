package main

import (
	"fmt"
	"log/slog"

	"github.com/guptarohit/asciigraph"
	"github.com/spf13/cobra"

	"github.com/Shin107/Anisotropic-SNANA/internal/batch"
	"github.com/Shin107/Anisotropic-SNANA/internal/config"
	"github.com/Shin107/Anisotropic-SNANA/internal/modelstore"
)

func newPlotCmd(f *rootFlags) *cobra.Command {
	var (
		zmin, zmax float64
		n          int
		residual   bool
	)

	cmd := &cobra.Command{
		Use:   "plot",
		Short: "plot the Hubble diagram in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			snap, err := modelstore.Build(cfg, logger)
			if err != nil {
				return err
			}

			pool := batch.NewWorkerPool(cfg.Server.Workers, logger)
			pts, err := pool.HubbleDiagram(cmd.Context(), snap.Calculator, zmin, zmax, n)
			if err != nil {
				return err
			}

			data := make([]float64, len(pts))
			label := "mu(z)"
			if residual {
				ref, err := buildAnalytic(config.DefaultConfig(), logger)
				if err != nil {
					return err
				}
				for i, p := range pts {
					data[i] = p.Mu - ref.Calculator.Modulus(p.Z, p.Z)
				}
				label = "mu(z) - mu_LCDM(z)"
			} else {
				for i, p := range pts {
					data[i] = p.Mu
				}
			}

			graph := asciigraph.Plot(data,
				asciigraph.Height(15),
				asciigraph.Width(80),
				asciigraph.Caption(fmt.Sprintf("%s, %g <= z <= %g (log spaced)", label, zmin, zmax)),
			)
			fmt.Fprintln(cmd.OutOrStdout(), graph)
			return nil
		},
	}
	cmd.Flags().Float64Var(&zmin, "zmin", 0.01, "lowest redshift")
	cmd.Flags().Float64Var(&zmax, "zmax", 2, "highest redshift")
	cmd.Flags().IntVar(&n, "n", 80, "number of samples")
	cmd.Flags().BoolVar(&residual, "residual", false, "plot the residual against flat LCDM")
	return cmd
}

// buildAnalytic builds a snapshot that ignores any configured H(z) map.
func buildAnalytic(cfg *config.Config, logger *slog.Logger) (*modelstore.Snapshot, error) {
	c := *cfg
	c.Cosmology.HzFile = ""
	return modelstore.Build(&c, logger)
}
