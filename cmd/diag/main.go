// Command diag compares the analytic wCDM model with the tabulated model read
// back from a freshly generated H(z) map, and prints the H(z) and distance
// modulus differences at a handful of redshifts.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/Shin107/Anisotropic-SNANA/internal/anisotropy"
	"github.com/Shin107/Anisotropic-SNANA/internal/cosmology"
	"github.com/Shin107/Anisotropic-SNANA/internal/distance"
	"github.com/Shin107/Anisotropic-SNANA/internal/interp"
)

var (
	title = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	head  = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	ok    = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	bad   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	box   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// muLimit is the largest acceptable |Δμ| between the two models.
const muLimit = 1e-3

func main() {
	os.Exit(run())
}

func run() int {
	p := cosmology.DefaultParams
	flag.Float64Var(&p.H0, "h0", p.H0, "Hubble constant")
	flag.Float64Var(&p.OmegaM, "om", p.OmegaM, "matter density")
	flag.Float64Var(&p.OmegaL, "ol", p.OmegaL, "dark energy density")
	flag.Float64Var(&p.W0, "w0", p.W0, "dark energy w0")
	flag.Float64Var(&p.Wa, "wa", p.Wa, "dark energy wa")
	method := flag.String("interp", "linear", "interpolation (linear|quadratic)")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	m, err := interp.ParseMethod(*method)
	if err != nil {
		fmt.Println("ERROR:", err)
		return 1
	}

	dir, err := os.MkdirTemp("", "sncosmo-diag")
	if err != nil {
		fmt.Println("ERROR creating temp dir:", err)
		return 1
	}
	defer os.RemoveAll(dir)

	opts := []cosmology.Option{cosmology.WithLogger(logger), cosmology.WithInterpolation(m)}
	analytic := distance.New(cosmology.NewAnalytic(p, opts...), anisotropy.Params{})
	tab, err := cosmology.NewDebugRoundTrip(p, filepath.Join(dir, "hz.dat"), opts...)
	if err != nil {
		fmt.Println("ERROR building tabulated model:", err)
		return 1
	}
	tabulated := distance.New(tab, anisotropy.Params{})

	var sb strings.Builder
	fmt.Fprintf(&sb, "%s\n", title.Render(fmt.Sprintf("round trip, cospar=%v, %s", p.Tuple(), m)))
	fmt.Fprintf(&sb, "%s\n", head.Render(fmt.Sprintf("%6s %11s %11s %10s %10s", "z", "H analytic", "H table", "ΔH/H", "Δμ")))

	worst := 0.0
	for _, z := range []float64{0.01, 0.05, 0.1, 0.3, 0.5, 1, 1.5, 2, 3} {
		ha, ht := analytic.Model().H(z), tabulated.Model().H(z)
		dmu := tabulated.Modulus(z, z) - analytic.Modulus(z, z)
		worst = math.Max(worst, math.Abs(dmu))

		style := ok
		if math.Abs(dmu) > muLimit {
			style = bad
		}
		fmt.Fprintf(&sb, "%6.2f %11.4f %11.4f %10.2e %s\n",
			z, ha, ht, (ht-ha)/ha, style.Render(fmt.Sprintf("%10.2e", dmu)))
	}

	verdict := ok.Render("PASS")
	if worst > muLimit {
		verdict = bad.Render("FAIL")
	}
	fmt.Fprintf(&sb, "\nmax |Δμ| = %.2e  %s", worst, verdict)
	fmt.Println(box.Render(sb.String()))

	if worst > muLimit {
		return 1
	}
	return 0
}
