package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/samber/do"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/leaklab/internal/analysis"
	"github.com/san-kum/leaklab/internal/clock"
	"github.com/san-kum/leaklab/internal/config"
	"github.com/san-kum/leaklab/internal/experiment"
	"github.com/san-kum/leaklab/internal/ledger"
	"github.com/san-kum/leaklab/internal/report"
	"github.com/san-kum/leaklab/internal/server"
	"github.com/san-kum/leaklab/internal/tui"
)

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runBench(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	di, err := setup(ctx, true, clock.Real{})
	if err != nil {
		return err
	}
	defer shutdown(di)

	return tui.Run(do.MustInvoke[*experiment.Session](di), tui.Options{ExportDir: exportDir})
}

func script() experiment.Script {
	sc := experiment.DefaultScript()
	sc.ChargeFor = chargeFor
	sc.Interval = interval
	sc.Readings = readings
	return sc
}

func runLab(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	di, err := setup(ctx, true, clock.NewManual(time.Now()))
	if err != nil {
		return err
	}
	defer shutdown(di)

	session := do.MustInvoke[*experiment.Session](di)
	cfg := do.MustInvoke[*config.Config](di)

	live := tui.NewLiveRenderer(os.Stdout, cfg.FrameRate/2)
	session.AddObserver(live)
	live.Start()
	defer live.Stop()

	sc := script()
	sc.Pace = pace
	rs, err := session.RunScript(ctx, sc)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Println()
	return printReadings(rs)
}

func runScript(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	di, err := setup(ctx, false, clock.NewManual(time.Now()))
	if err != nil {
		return err
	}
	defer shutdown(di)

	session := do.MustInvoke[*experiment.Session](di)
	rs, err := session.RunScript(ctx, script())
	if err != nil {
		return err
	}

	rep := report.Build(session)
	if asJSON {
		return report.WriteJSON(os.Stdout, rep)
	}

	if err := printReadings(rs); err != nil {
		return err
	}
	if rep.Fit != nil {
		fmt.Printf("\nfit: R = %.2f MΩ over %d readings (r² %.4f)\n", rep.Fit.Resistance, rep.Fit.Points, rep.Fit.RSquared)
	}
	if rep.Summary.N > 0 {
		fmt.Printf("mean of readings: %.2f ± %.2f MΩ\n", rep.Summary.Mean, rep.Summary.StdDev)
	}

	data := session.Trace().Voltages(0)
	if len(data) > 1 {
		fmt.Println()
		fmt.Println(asciigraph.Plot(data,
			asciigraph.Height(10),
			asciigraph.Width(80),
			asciigraph.LowerBound(0),
			asciigraph.Caption("galvanometer deflection"),
		))
	}

	if exportDir != "" {
		dir, err := report.NewExporter(exportDir).Save(rep)
		if err != nil {
			return err
		}
		fmt.Printf("\nreport saved to %s\n", dir)
	}
	return nil
}

func printReadings(rs []ledger.Reading) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tT (S)\tθ0\tθT\tR (MΩ)")
	for _, r := range rs {
		fmt.Fprintf(w, "%s\t%.2f\t%.1f\t%.1f\t%s\n", r.ID, r.TimeSeconds, r.InitialDeflection, r.FinalDeflection, r.DisplayR())
	}
	return w.Flush()
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	di, err := setup(ctx, false, clock.Real{})
	if err != nil {
		return err
	}
	defer shutdown(di)

	cfg := do.MustInvoke[*config.Config](di)
	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}

	session := do.MustInvoke[*experiment.Session](di)
	srv := do.MustInvoke[*server.Server](di)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return session.Run(ctx, nil)
	})
	g.Go(func() error {
		return srv.ListenAndServe(ctx, addr)
	})
	return g.Wait()
}

func runCalc(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	vals := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("bad number %q: %w", a, err)
		}
		vals[i] = v
	}

	c := capacitance
	if c == 0 {
		c = cfg.Circuit.Capacitance
	}

	r := ledger.Reading{TimeSeconds: vals[0], InitialDeflection: vals[1], FinalDeflection: vals[2]}
	out, err := ledger.Calculate(r, c)
	if err != nil {
		return err
	}
	if out.CalculatedR == nil {
		fmt.Println("no measurable leakage yet")
		return nil
	}
	fmt.Printf("R = %s MΩ\n", out.DisplayR())
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	c := capacitance
	if c == 0 {
		c = cfg.Circuit.Capacitance
	}
	v0 := theta0
	if v0 == 0 {
		v0 = cfg.Circuit.MaxVoltage
	}

	rs := make([]ledger.Reading, 0, len(args))
	for i, a := range args {
		ts, vs, ok := strings.Cut(a, ":")
		if !ok {
			return fmt.Errorf("expected t:theta_t, got %q", a)
		}
		t, err := strconv.ParseFloat(ts, 64)
		if err != nil {
			return fmt.Errorf("bad time %q: %w", ts, err)
		}
		v, err := strconv.ParseFloat(vs, 64)
		if err != nil {
			return fmt.Errorf("bad deflection %q: %w", vs, err)
		}
		rs = append(rs, ledger.Reading{ID: ledger.ID(i + 1), TimeSeconds: t, InitialDeflection: v0, FinalDeflection: v})
	}

	fit, err := analysis.FitResistance(rs, c)
	if err != nil {
		return err
	}
	fmt.Printf("R = %.2f MΩ over %d readings (slope %.4f /s, r² %.4f)\n", fit.Resistance, fit.Points, fit.Slope, fit.RSquared)
	return nil
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext()
	defer stop()

	di, err := setup(ctx, false, clock.Real{})
	if err != nil {
		return err
	}
	defer shutdown(di)

	session := do.MustInvoke[*experiment.Session](di)
	reply, err := session.Ask(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	fmt.Println(reply)
	return nil
}

func sortedPresets() []string {
	names := config.ListPresets()
	sort.Strings(names)
	return names
}

func listPresets(cmd *cobra.Command, args []string) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tθMAX\tC (µF)\tR (MΩ)\tRC (S)\tCHARGE RATE")
	for _, name := range sortedPresets() {
		c := config.GetPreset(name).Circuit
		fmt.Fprintf(w, "%s\t%.0f\t%.2f\t%.2f\t%.2f\t%.1f\n", name, c.MaxVoltage, c.Capacitance, c.Resistance, c.Resistance*c.Capacitance, c.ChargeRate)
	}
	return w.Flush()
}

func printConfig(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if writePath != "" {
		if err := config.Save(writePath, cfg); err != nil {
			return err
		}
		fmt.Printf("config written to %s\n", writePath)
		return nil
	}
	return yaml.NewEncoder(os.Stdout).Encode(cfg)
}
