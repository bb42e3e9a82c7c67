package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/frame"
	"github.com/Shin107/Anisotropic-SNANA/internal/hzmap"
	"github.com/Shin107/Anisotropic-SNANA/internal/sfr"
)

func parseFloats(args []string) ([]float64, error) {
	out := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q", a)
		}
		out[i] = v
	}
	return out, nil
}

func newHzCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "hz z [z...]",
		Short: "print H(z) in km/s/Mpc",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zs, err := parseFloats(args)
			if err != nil {
				return err
			}
			snap, _, err := loadSnapshot(cmd, f)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "z\tH(z)")
			for _, z := range zs {
				fmt.Fprintf(tw, "%.5f\t%.4f\n", z, snap.Model.H(z))
			}
			return tw.Flush()
		},
	}
}

func newMuCmd(f *rootFlags) *cobra.Command {
	var zhel float64

	cmd := &cobra.Command{
		Use:   "mu zcmb [zcmb...]",
		Short: "print the distance modulus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zs, err := parseFloats(args)
			if err != nil {
				return err
			}
			snap, _, err := loadSnapshot(cmd, f)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "zcmb\tzhel\tmu")
			for _, z := range zs {
				q := distance.Query{ZCMB: z, ZHelio: z}
				if cmd.Flags().Changed("zhel") {
					q.ZHelio = zhel
				}
				fmt.Fprintf(tw, "%.5f\t%.5f\t%.4f\n", q.ZCMB, q.ZHelio, snap.Calculator.ModulusQuery(q))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().Float64Var(&zhel, "zhel", 0, "heliocentric redshift (defaults to zcmb)")
	return cmd
}

func newZinvCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "zinv mu [mu...]",
		Short: "solve for zcmb given a distance modulus",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mus, err := parseFloats(args)
			if err != nil {
				return err
			}
			snap, _, err := loadSnapshot(cmd, f)
			if err != nil {
				return err
			}
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "mu\tzcmb\titerations\tdmu")
			for _, mu := range mus {
				res, err := snap.Inverter.Invert(mu)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%.4f\t%.6f\t%d\t%.2e\n", mu, res.Z, res.Iterations, res.Residual)
			}
			return tw.Flush()
		},
	}
}

func newZcmbCmd(f *rootFlags) *cobra.Command {
	var (
		coord string
		dir   string
	)

	cmd := &cobra.Command{
		Use:   "zcmb z ra dec",
		Short: "translate a redshift between heliocentric and CMB frames",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			d, err := frame.ParseDirection(dir)
			if err != nil {
				return err
			}
			snap, _, err := loadSnapshot(cmd, f)
			if err != nil {
				return err
			}
			out, err := snap.Translator.Translate(v[0], v[1], v[2], frame.CoordSys(coord), d)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%.8f\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&coord, "coord", "eq", "coordinate system of ra/dec (eq|J2000|gal)")
	cmd.Flags().StringVar(&dir, "to", "cmb", "target frame (cmb|helio)")
	return cmd
}

func newVolumeCmd(f *rootFlags) *cobra.Command {
	var weighted bool

	cmd := &cobra.Command{
		Use:   "volume zmax",
		Short: "integrate dV/dz up to zmax and report the mean redshift",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := parseFloats(args)
			if err != nil {
				return err
			}
			snap, _, err := loadSnapshot(cmd, f)
			if err != nil {
				return err
			}
			zmax := v[0]
			w := distance.Unweighted
			if weighted {
				w = distance.RedshiftWeighted
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "volume(%s, zmax=%g) = %.6e Mpc^3/sr\n", w, zmax, snap.Calculator.VolumeIntegral(w, zmax))
			fmt.Fprintf(out, "<z> = %.5f\n", snap.Calculator.MeanRedshift(zmax))
			return nil
		},
	}
	cmd.Flags().BoolVar(&weighted, "z-weighted", false, "weight the integrand by z")
	return cmd
}

func newSFRCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sfr z [z...]",
		Short: "print star formation rate densities and the SFR integral",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			zs, err := parseFloats(args)
			if err != nil {
				return err
			}
			snap, _, err := loadSnapshot(cmd, f)
			if err != nil {
				return err
			}
			h0 := snap.Model.Params().H0
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "z\tBG03\tMD14\tintegral")
			for _, z := range zs {
				fmt.Fprintf(tw, "%.4f\t%.5e\t%.5e\t%.5e\n", z, sfr.BG03(z, h0), sfr.MD14(z, sfr.MD14Default), sfr.Integral(snap.Model, z))
			}
			return tw.Flush()
		},
	}
}

func newWriteHzCmd(f *rootFlags) *cobra.Command {
	grid := hzmap.DefaultGrid

	cmd := &cobra.Command{
		Use:   "write-hz path",
		Short: "write an H(z) map generated from the analytic model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd, f)
			if err != nil {
				return err
			}
			snap, err := buildAnalytic(cfg, logger)
			if err != nil {
				return err
			}
			p := snap.Model.Params()
			cospar := hzmap.CosPar{H0: p.H0, OM: p.OmegaM, OL: p.OmegaL, W0: p.W0, Wa: p.Wa}
			m, err := hzmap.Generate(grid, cospar, snap.Model.H)
			if err != nil {
				return err
			}
			if err := hzmap.WriteFile(args[0], m); err != nil {
				return err
			}
			logger.Info("wrote H(z) map", "path", args[0], "rows", m.Len(), "z_max", m.ZMax())
			return nil
		},
	}
	cmd.Flags().Float64Var(&grid.ZMin, "zmin", grid.ZMin, "first non-zero redshift")
	cmd.Flags().Float64Var(&grid.ZMax, "zmax", grid.ZMax, "last redshift")
	cmd.Flags().IntVar(&grid.Bins, "bins", grid.Bins, "number of log-spaced bins")
	return cmd
}
