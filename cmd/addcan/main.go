// Command addcan records the detector can geometry in a SQLite dataset.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	service "github.com/okian/smear/internal/app"
	"github.com/okian/smear/internal/cli"
	"github.com/okian/smear/internal/domain/detector"
	"github.com/okian/smear/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Execute(ctx, newRootCmd(), os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func newRootCmd() *cobra.Command {
	var profile string
	cmd := &cobra.Command{
		Use:   "addcan <dataset.db>",
		Short: "Write the detector can dimensions into the CanDimensions table",
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return cli.Usage(cli.ExitFailure, fmt.Errorf("expected 1 argument, got %d", len(args)))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cli.InitLogging(cmd.ErrOrStderr(), "info"); err != nil {
				return err
			}
			p, err := detector.ParseProfile(profile)
			if err != nil {
				return cli.Usage(cli.ExitUsage, err)
			}
			if err := service.AddCan(cmd.Context(), args[0], p); err != nil {
				return cli.Failure(err)
			}
			logger.Named("addcan").Info(cmd.Context(), "can dimensions written",
				logger.String("path", args[0]),
				logger.String("detector", string(p)),
			)
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s can dimensions to %s\n", p, args[0])
			return nil
		},
	}
	cmd.Flags().StringVar(&profile, "detector", string(detector.Antares), "detector whose can geometry is written")
	return cmd
}
