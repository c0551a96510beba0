// Command smear applies detector-resolution smearing to a dataset of true
// events and writes the smeared copy.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/smear/internal/app"
	"github.com/okian/smear/internal/cli"
	"github.com/okian/smear/internal/config"
	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/pkg/logger"
)

const use = "smear <input> <output> <smear_level_percent> <Y|N> [<ANTARES|ORCA6|ORCA115>] [<asym_energy> <asym_direction>]"

// flags holds the optional settings layered over the configuration.
type flags struct {
	configFile  string
	seed        int64
	entropySeed bool
	fields      string
	tree        string
	metricsFile string
	logLevel    string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, newRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   use,
		Short: "Smear true energies and direction cosines with a detector resolution",
		Long: `Smear reads the true energy and direction cosine of every event in <input>,
replaces each by a draw from a truncated normal whose width follows the detector
resolution, and writes the input columns plus energy_smeared and
cos_zenith_smeared to <output>.

<Y|N> selects parametric (Y) or constant-fraction (N) resolution. The detector
defaults to ANTARES; ORCA profiles only support parametric resolution.`,
		Args: checkArity,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSmear(cmd, args, f)
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&f.configFile, "config", "", "YAML configuration file (default $"+config.EnvConfigFile+")")
	fs.Int64Var(&f.seed, "seed", 0, "fixed PRNG seed for a reproducible run")
	fs.BoolVar(&f.entropySeed, "entropy-seed", false, "draw a fresh PRNG seed, logged for replay")
	fs.StringVar(&f.fields, "fields", "", "true-value field convention: true or recoTrue")
	fs.StringVar(&f.tree, "tree", "", "table read from the input and written to the output")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics to this file")
	fs.StringVar(&f.logLevel, "log-level", "", "debug, info, warn or error")
	cmd.MarkFlagsMutuallyExclusive("seed", "entropy-seed")
	return cmd
}

func checkArity(_ *cobra.Command, args []string) error {
	switch len(args) {
	case 4, 5, 7:
		return nil
	default:
		return cli.Usage(cli.ExitUsage, fmt.Errorf("%w: expected 4, 5 or 7 arguments, got %d", config.ErrInvalidConfig, len(args)))
	}
}

func runSmear(cmd *cobra.Command, args []string, f flags) error {
	ctx := cmd.Context()
	stderr := cmd.ErrOrStderr()

	if err := cli.InitLogging(stderr, "info"); err != nil {
		return err
	}
	cfg, err := config.Load(ctx, f.configFile)
	if err != nil {
		return cli.Usage(cli.ExitUsage, err)
	}
	apply(cmd, cfg, f)
	input, output, err := applyArgs(cfg, args)
	if err != nil {
		return cli.Usage(cli.ExitUsage, err)
	}
	if err := cfg.Validate(); err != nil {
		return cli.Usage(cli.ExitUsage, err)
	}
	if err := cli.InitLogging(stderr, cfg.LogLevel); err != nil {
		return err
	}

	res, err := service.New(cfg, service.WithLogger(logger.Named("smear"))).Smear(ctx, input, output)
	if err != nil {
		if errors.Is(err, config.ErrInvalidConfig) {
			return cli.Usage(cli.ExitUsage, err)
		}
		return cli.Failure(err)
	}
	printSummary(cmd.OutOrStdout(), res)
	return nil
}

// apply layers explicitly set flags over cfg.
func apply(cmd *cobra.Command, cfg *config.Config, f flags) {
	fs := cmd.Flags()
	if fs.Changed("seed") {
		cfg.SeedPolicy = config.SeedFixed
		cfg.Seed = f.seed
	}
	if f.entropySeed {
		cfg.SeedPolicy = config.SeedEntropy
		cfg.Seed = 0
	}
	if fs.Changed("fields") {
		cfg.FieldConvention = f.fields
	}
	if fs.Changed("tree") {
		cfg.Tree = f.tree
	}
	if fs.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if fs.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
}

// applyArgs reads the positional arguments into cfg and returns the input
// and output paths.
func applyArgs(cfg *config.Config, args []string) (string, string, error) {
	level, err := parseNumber("smear level", args[2])
	if err != nil {
		return "", "", err
	}
	if level < 0 {
		return "", "", fmt.Errorf("%w: smear level must not be negative, got %v", config.ErrInvalidConfig, level)
	}
	cfg.SmearLevel = level / 100

	strategy, err := detector.StrategyFromFlag(args[3])
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
	}
	cfg.Strategy = string(strategy)

	if len(args) >= 5 {
		p, err := detector.ParseProfile(args[4])
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", config.ErrInvalidConfig, err)
		}
		cfg.Detector = string(p)
	}
	if len(args) == 7 {
		if cfg.AsymmetryEnergy, err = parseNumber("energy asymmetry", args[5]); err != nil {
			return "", "", err
		}
		if cfg.AsymmetryDirection, err = parseNumber("direction asymmetry", args[6]); err != nil {
			return "", "", err
		}
	}
	return args[0], args[1], nil
}

func parseNumber(name, s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a number", config.ErrInvalidConfig, name, s)
	}
	return v, nil
}

func printSummary(w io.Writer, res service.Result) {
	d := res.Diagnostics
	_, _ = fmt.Fprintf(w, "Smeared %d events into %s (%s, seed %d)\n", d.Events, res.Output, res.Label, res.Seed)
	_, _ = fmt.Fprintf(w, "Total draws: %d (energy %d, direction %d)\n", d.Draws, d.EnergyDraws, d.DirectionDraws)
	_, _ = fmt.Fprintf(w, "Additional percentage of random samplings: %.4g%%\n", d.Overhead())
	_, _ = fmt.Fprintf(w, "Elapsed: %s\n", d.Elapsed)
}
