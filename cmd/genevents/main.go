// Command genevents writes a synthetic dataset of true events, suitable as
// smear input.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/smear/internal/adapters/dataset"
	"github.com/okian/smear/internal/cli"
	"github.com/okian/smear/internal/generator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, newRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	cfg := generator.DefaultConfig()
	var (
		convention string
		tree       string
	)
	cmd := &cobra.Command{
		Use:   "genevents <output>",
		Short: "Generate synthetic true events",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.InitLogging(cmd.ErrOrStderr(), "info"); err != nil {
				return err
			}
			fields, err := dataset.FieldsFor(convention)
			if err != nil {
				return cli.Usage(cli.ExitUsage, err)
			}
			cfg.Fields = fields
			if err := cfg.Validate(); err != nil {
				return cli.Usage(cli.ExitUsage, err)
			}
			stats, err := generator.GenerateFile(cmd.Context(), cfg, args[0], dataset.WithTable(tree))
			if err != nil {
				return cli.Failure(err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Generated %d events into %s in %s\n", stats.Events, args[0], stats.Elapsed)
			return nil
		},
	}
	fs := cmd.Flags()
	fs.IntVar(&cfg.Events, "events", cfg.Events, "number of events")
	fs.Int64Var(&cfg.Seed, "seed", cfg.Seed, "PRNG seed")
	fs.Float64Var(&cfg.EnergyMin, "emin", cfg.EnergyMin, "lowest true energy")
	fs.Float64Var(&cfg.EnergyMax, "emax", cfg.EnergyMax, "highest true energy")
	fs.StringVar(&convention, "fields", dataset.ConventionTrue, "field convention: true or recoTrue")
	fs.StringVar(&tree, "tree", dataset.DefaultTable, "table name")
	return cmd
}
