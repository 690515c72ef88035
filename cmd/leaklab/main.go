package main

import (
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/san-kum/leaklab/internal/logging"
)

var (
	configFile string
	preset     string
	logLevel   string
	logFile    string
	envFile    string

	exportDir string

	// scripted runs
	chargeFor time.Duration
	interval  time.Duration
	readings  int
	pace      float64
	asJSON    bool

	capacitance float64
	theta0      float64

	writePath string
)

// main registers the leaklab commands. With no subcommand it opens the
// interactive bench.
func main() {
	logging.Preinit()

	rootCmd := &cobra.Command{
		Use:          "leaklab",
		Short:        "measurement of high resistance by leakage of a condenser",
		SilenceUsage: true,
		RunE:         runBench,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file path (yaml)")
	pf.StringVar(&preset, "preset", "", "bench preset")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	pf.StringVar(&logFile, "log-file", "", "write JSON logs to this file")
	pf.StringVar(&envFile, "env-file", ".env", "dotenv file with the assistant credential")
	rootCmd.Flags().StringVar(&exportDir, "export-dir", ".", "directory for reports saved from the bench")

	labCmd := &cobra.Command{
		Use:   "lab",
		Short: "watch the textbook procedure on a live galvanometer",
		Args:  cobra.NoArgs,
		RunE:  runLab,
	}
	addScriptFlags(labCmd)
	labCmd.Flags().Float64Var(&pace, "pace", 1, "speed relative to real time")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run the procedure headless and print the readings",
		Args:  cobra.NoArgs,
		RunE:  runScript,
	}
	addScriptFlags(runCmd)
	runCmd.Flags().StringVar(&exportDir, "out", "", "save a report into this directory")
	runCmd.Flags().BoolVar(&asJSON, "json", false, "print the report as JSON")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve the bench over HTTP",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
	serveCmd.Flags().String("addr", "", "listen address (overrides config)")

	calcCmd := &cobra.Command{
		Use:   "calc [t] [theta0] [theta_t]",
		Short: "resistance from one reading",
		Args:  cobra.ExactArgs(3),
		RunE:  runCalc,
	}
	calcCmd.Flags().Float64Var(&capacitance, "capacitance", 0, "capacitance in µF (default from config)")

	fitCmd := &cobra.Command{
		Use:   "fit [t:theta_t]...",
		Short: "least-squares resistance over several readings",
		Args:  cobra.MinimumNArgs(2),
		RunE:  runFit,
	}
	fitCmd.Flags().Float64Var(&capacitance, "capacitance", 0, "capacitance in µF (default from config)")
	fitCmd.Flags().Float64Var(&theta0, "theta0", 0, "initial deflection (default from config)")

	askCmd := &cobra.Command{
		Use:   "ask [question]",
		Short: "ask the lab instructor one question",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk,
	}

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list bench presets",
		Args:  cobra.NoArgs,
		RunE:  listPresets,
	}

	configCmd := &cobra.Command{
		Use:   "config",
		Short: "print the effective configuration",
		Args:  cobra.NoArgs,
		RunE:  printConfig,
	}
	configCmd.Flags().StringVar(&writePath, "write", "", "save it to this path instead")

	rootCmd.AddCommand(labCmd, runCmd, serveCmd, calcCmd, fitCmd, askCmd, presetsCmd, configCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addScriptFlags(cmd *cobra.Command) {
	cmd.Flags().DurationVar(&chargeFor, "charge", time.Second, "how long K1 stays closed")
	cmd.Flags().DurationVar(&interval, "interval", 2*time.Second, "time between readings")
	cmd.Flags().IntVar(&readings, "readings", 5, "number of readings")
}
