// Package cli holds the exit-code conventions shared by the commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/okian/smear/pkg/logger"
)

// Process exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError carries the exit code of a failed command.
type ExitError struct {
	Code      int
	Err       error
	ShowUsage bool
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// Usage reports a malformed invocation; the usage text is printed.
func Usage(code int, err error) error {
	return &ExitError{Code: code, Err: err, ShowUsage: true}
}

// Failure reports a run that was invoked correctly but did not succeed.
func Failure(err error) error {
	return &ExitError{Code: ExitFailure, Err: err}
}

// Execute runs cmd with args and returns the process exit code. Flag and
// argument errors raised by cobra itself map to ExitUsage.
func Execute(ctx context.Context, cmd *cobra.Command, args []string, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitOK
	}

	ee := &ExitError{Code: ExitUsage, Err: err, ShowUsage: true}
	errors.As(err, &ee)
	_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
	if ee.ShowUsage {
		_, _ = fmt.Fprint(stderr, cmd.UsageString())
	}
	return ee.Code
}

// InitLogging routes logs to w at level.
func InitLogging(w io.Writer, level string) error {
	if err := logger.InitWithWriter(w); err != nil {
		return err
	}
	if err := logger.SetLevelString(level); err != nil {
		return Usage(ExitUsage, err)
	}
	return nil
}
