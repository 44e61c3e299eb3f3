package main

import (
	"io"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"fpm.lopezb.com/internal/config"
	"fpm.lopezb.com/internal/fpm"
)

const (
	modeExact   = "exact"
	modeApprox  = "approximate"
	modeCompare = "compare"
)

// flagValues mirrors the settings that can be given on the command line.
type flagValues struct {
	configFile  string
	input       string
	output      string
	minSupport  float64
	epsilon     float64
	delta       float64
	vcConstant  float64
	seed        uint64
	verify      bool
	logLevel    string
	logFormat   string
	metricsFile string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var fv flagValues
	def := config.Default()

	rootCmd := &cobra.Command{
		Use:           "fpgrowth",
		Short:         "Mine frequent itemsets from a directory of transaction files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&fv.configFile, "config", "", "YAML configuration file")
	pf.StringVarP(&fv.input, "input", "i", "", "Directory of transaction files")
	pf.StringVarP(&fv.output, "output", "o", def.Output, "Directory reports are written to")
	pf.Float64VarP(&fv.minSupport, "min-support", "s", 0, "Minimum support fraction in [0,1)")
	pf.Float64Var(&fv.epsilon, "epsilon", def.Epsilon, "Tolerated frequency error of the sample")
	pf.Float64Var(&fv.delta, "delta", def.Delta, "Probability that the sample misses the error bound")
	pf.Float64Var(&fv.vcConstant, "vc-constant", def.VCConstant, "Constant of the VC sample-size bound")
	pf.Uint64Var(&fv.seed, "seed", 0, "Sampling seed (0 picks one at random)")
	pf.BoolVar(&fv.verify, "verify", false, "Check the FP-tree invariants after construction")
	pf.StringVar(&fv.logLevel, "log-level", def.LogLevel, "Log level: trace, debug, info, warn, error")
	pf.StringVar(&fv.logFormat, "log-format", def.LogFormat, "Log format: text or json")
	pf.StringVar(&fv.metricsFile, "metrics-file", "", "Write run metrics to this file in Prometheus text format")

	modes := []struct {
		use, short string
		run        func(*application) error
		mode       string
	}{
		{"mine [input-dir] [min-support]", "Mine the whole database exactly", (*application).runExact, modeExact},
		{"approx [input-dir] [min-support]", "Mine a VC-bounded uniform sample", (*application).runApprox, modeApprox},
		{"compare [input-dir] [min-support]", "Measure association-rule errors of the sample against the exact result", (*application).runCompare, modeCompare},
	}

	for _, m := range modes {
		rootCmd.AddCommand(&cobra.Command{
			Use:   m.use,
			Short: m.short,
			Args:  cobra.MaximumNArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := resolveConfig(cmd.Flags(), &fv, args)
				if err != nil {
					return err
				}
				app, err := newApplication(cfg, stdout, stderr)
				if err != nil {
					return err
				}
				return app.execute(m.mode, m.run)
			},
		})
	}
	return rootCmd
}

// resolveConfig layers defaults, the config file, explicitly set flags and
// positional arguments, then validates the result.
func resolveConfig(fs *pflag.FlagSet, fv *flagValues, args []string) (config.Config, error) {
	cfg := config.Default()
	if fv.configFile != "" {
		var err error
		if cfg, err = config.Load(fv.configFile); err != nil {
			return cfg, err
		}
	}

	if fs.Changed("input") {
		cfg.Input = fv.input
	}
	if fs.Changed("output") {
		cfg.Output = fv.output
	}
	if fs.Changed("min-support") {
		s := fv.minSupport
		cfg.MinSupport = &s
	}
	if fs.Changed("epsilon") {
		cfg.Epsilon = fv.epsilon
	}
	if fs.Changed("delta") {
		cfg.Delta = fv.delta
	}
	if fs.Changed("vc-constant") {
		cfg.VCConstant = fv.vcConstant
	}
	if fs.Changed("seed") {
		cfg.Seed = fv.seed
	}
	if fs.Changed("verify") {
		cfg.Verify = fv.verify
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = fv.logLevel
	}
	if fs.Changed("log-format") {
		cfg.LogFormat = fv.logFormat
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = fv.metricsFile
	}

	if len(args) > 0 {
		cfg.Input = args[0]
	}
	if len(args) > 1 {
		s, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return cfg, &fpm.ValidationError{Field: "min_support", Value: args[1], Reason: "is not a number"}
		}
		cfg.MinSupport = &s
	}

	return cfg, cfg.Validate()
}
