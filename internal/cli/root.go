// Copyright (c) 2025 Jeremy Hahn
// Copyright (c) 2025 Automate The Things, LLC
//
// This file is part of go-shamir.
//
// go-shamir is dual-licensed:
//
// 1. GNU Affero General Public License v3.0 (AGPL-3.0)
//    See LICENSE file or visit https://www.gnu.org/licenses/agpl-3.0.html
//
// 2. Commercial License
//    Contact licensing@automatethethings.com for commercial licensing options.

package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// runner owns one invocation: its flags, its writers and the app built
// by the root command's PersistentPreRunE.
type runner struct {
	ctx    context.Context
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	flags  *Config
	app    *app
}

func newRunner(ctx context.Context, stdout, stderr io.Writer) *runner {
	return &runner{
		ctx:    ctx,
		stdout: stdout,
		stderr: stderr,
		flags:  NewConfig(),
	}
}

// rootCmd builds the command tree
func (r *runner) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "shamir",
		Short: "go-shamir CLI - Shamir threshold secret sharing",
		Long: `go-shamir splits a secret into shares over a prime field such that
any threshold of them reconstruct it and fewer reveal nothing.

Moduli:
  - bn254: BN254 scalar field order
  - 256:   256-bit safe prime
  - 512:   512-bit safe prime
  - 1024:  1024-bit safe prime
  - any width with --fixed-prime=false (freshly generated probable prime)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(r.ctx, r.flags, cmd.Flags().Changed("output"), r.stdout, r.stderr)
			if err != nil {
				return err
			}
			r.app = a
			return nil
		},
	}
	if r.stdin != nil {
		rootCmd.SetIn(r.stdin)
	}
	rootCmd.SetOut(r.stdout)
	rootCmd.SetErr(r.stderr)

	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().StringVar(&r.flags.ConfigFile, "config", "",
		"config file (YAML)")
	rootCmd.PersistentFlags().StringVarP(&r.flags.OutputFormat, "output", "o", string(OutputFormatText),
		"output format (text, json)")
	rootCmd.PersistentFlags().BoolVarP(&r.flags.Verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&r.flags.MetricsFile, "metrics-file", "",
		"write Prometheus metrics to this textfile on exit")

	// Add subcommands
	rootCmd.AddCommand(r.versionCmd())
	rootCmd.AddCommand(r.splitCmd())
	rootCmd.AddCommand(r.combineCmd())
	rootCmd.AddCommand(r.repairCmd())
	rootCmd.AddCommand(r.primeCmd())
	rootCmd.AddCommand(r.sssaCmd())
	rootCmd.AddCommand(r.selftestCmd())

	return rootCmd
}

// run executes args and always exports metrics and releases the RNG
// afterwards, also when the command failed
func (r *runner) run(args []string) error {
	rootCmd := r.rootCmd()
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	if r.app != nil {
		if cerr := r.app.close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	return err
}

// Run executes the CLI with args against the given writers
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	return newRunner(ctx, stdout, stderr).run(args)
}

// Execute runs the CLI against the process arguments, printing any error
// to stderr in the selected output format
func Execute() error {
	r := newRunner(context.Background(), os.Stdout, os.Stderr)
	err := r.run(os.Args[1:])
	if err != nil {
		handleError(r.flags.OutputFormat, os.Stderr, err)
	}
	return err
}

// handleError prints an error in the requested output format
func handleError(format string, w io.Writer, err error) {
	printer := NewPrinter(format, w)
	_ = printer.PrintError(err) // Error printing to stderr is best-effort
}

// printVerbose prints a message if verbose mode is enabled
func (a *app) printVerbose(format string, args ...interface{}) {
	if a.flags.Verbose {
		fmt.Fprintf(a.stderr, "[VERBOSE] "+format+"\n", args...)
	}
}
