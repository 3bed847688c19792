package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigPath string
	Database   string
}

// HarnessOptions holds the flags of a harness run. Zero values mean
// "not given"; only flags the user set override the config file.
type HarnessOptions struct {
	*RootOptions
	Root          string
	Categories    []string
	Timeout       time.Duration
	Jobs          int
	Sort          bool
	CheckExitCode bool
	Color         string
	Strict        bool
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

const usageLine = "Usage: parsetest <program-under-test>"

// NewRootCommand creates the root command. Given one argument it runs the
// harness against that program.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}
	hopts := &HarnessOptions{RootOptions: opts}

	cmd := &cobra.Command{
		Use:   "parsetest <program-under-test>",
		Short: "Conformance harness for validating programs",
		Long: `Run a program-under-test against a corpus of test files.

Each file in <root>/<category>/ is passed as the single argument. Files
starting with 'y' must be accepted (stdout "0"), files starting with 'n'
must be rejected (stdout "1"), and any other file only has to not crash.
Per-category and total pass counts are printed at the end.

A program named like a subcommand (history) must be given as a path,
for example ./history.

Example:
  parsetest ./my-validator
  parsetest ./my-validator --root tests --category test_parsing -j 8
  parsetest ./my-validator --db .parsetest/history.db --format json`,
		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return NewExitError(ExitFailure, usageLine)
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitFailure, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarness(hopts, args[0], cmd)
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default ./parsetest.yaml when present)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "SQLite run history database")

	// Harness flags
	flags := cmd.Flags()
	flags.StringVar(&hopts.Root, "root", "", "corpus root directory (default \"tests\")")
	flags.StringSliceVar(&hopts.Categories, "category", nil, "run only these categories (repeatable)")
	flags.DurationVar(&hopts.Timeout, "timeout", 0, "per-test timeout, 0 disables")
	flags.IntVarP(&hopts.Jobs, "jobs", "j", 1, "tests run in parallel within a category")
	flags.BoolVar(&hopts.Sort, "sort", true, "run files in name order")
	flags.BoolVar(&hopts.CheckExitCode, "check-exit-code", false, "also require exit status 0 for y files and 1 for n files")
	flags.StringVar(&hopts.Color, "color", "auto", "color OK/FAILED markers (auto|always|never)")
	flags.BoolVar(&hopts.Strict, "strict", false, "exit 1 when any test fails")

	cmd.AddCommand(NewHistoryCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
