package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrTarik2112/FileCreator/pkg/rangefill"
)

// Exit codes
const (
	ExitSuccess         = 0
	ExitGeneralError    = 1
	ExitInvalidArgs     = 2
	ExitAllocationError = 3
	ExitWriteError      = 4
	ExitCanceled        = 5
	ExitSinkError       = 6
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

// exitError carries an exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func usageError(format string, args ...any) error {
	return withCode(ExitInvalidArgs, fmt.Errorf(format, args...))
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	root := buildCLI(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(context.Background())
	if err == nil {
		return ExitSuccess
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitCode(err)
}

// exitCode maps an error to the process exit code.
func exitCode(err error) int {
	var ee *exitError
	switch {
	case err == nil:
		return ExitSuccess
	case errors.As(err, &ee):
		return ee.code
	case errors.Is(err, rangefill.ErrInvalidConfiguration):
		return ExitInvalidArgs
	case errors.Is(err, rangefill.ErrAllocation):
		return ExitAllocationError
	case errors.Is(err, rangefill.ErrCanceled):
		return ExitCanceled
	case errors.Is(err, rangefill.ErrWrite):
		return ExitWriteError
	default:
		return ExitGeneralError
	}
}

func buildCLI(stdout, stderr io.Writer) *cobra.Command {
	root := &cobra.Command{
		Use:   "filecreator",
		Short: "Create large files fast by writing byte ranges in parallel",
		Long: `filecreator allocates a file of a given size and fills it with zeros or a
pseudo-random pattern using one worker per byte range, reporting throughput
and ETA while it runs.`,
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return usageError("unknown command %q for %q", args[0], cmd.CommandPath())
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.Help()
			return usageError("a command is required")
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error {
		return withCode(ExitInvalidArgs, err)
	})

	root.PersistentFlags().StringP("config", "c", "", "YAML config file")

	root.AddCommand(buildCreateCommand(stdout, stderr))
	root.AddCommand(buildPlanCommand(stdout))
	root.AddCommand(buildReportCommand(stdout))

	return root
}
