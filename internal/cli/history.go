package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/parsetest/internal/config"
	"github.com/roach88/parsetest/internal/harness"
	"github.com/roach88/parsetest/internal/report"
	"github.com/roach88/parsetest/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Limit int
}

// HistoryList is the JSON payload of "history" without a run ID.
type HistoryList struct {
	Runs []store.Run `json:"runs"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recorded runs",
		Long: `Show runs recorded with --db.

Without arguments, lists the most recent runs with their totals. With a run
ID, prints that run's summary and its failed tests.

Example:
  parsetest history --db .parsetest/history.db
  parsetest history --db .parsetest/history.db 0192f0c4-...`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, args, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "number of runs to list, 0 for all")

	return cmd
}

func runHistory(opts *HistoryOptions, args []string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
	}

	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return fail(formatter, ExitCommandError, CodeConfig, "invalid configuration", err, nil)
	}
	path := databasePath(opts.RootOptions, cfg)
	if path == "" {
		return NewExitError(ExitFailure, "no database: pass --db or set db in "+config.DefaultFile)
	}
	if _, err := os.Stat(path); err != nil {
		return fail(formatter, ExitCommandError, CodeStore, "cannot open run history", err, nil)
	}

	st, err := store.Open(path)
	if err != nil {
		return fail(formatter, ExitCommandError, CodeStore, "cannot open run history", err, nil)
	}
	defer st.Close()

	ctx := cmd.Context()
	if len(args) == 0 {
		runs, err := st.ListRuns(ctx, opts.Limit)
		if err != nil {
			return fail(formatter, ExitCommandError, CodeStore, "cannot list runs", err, nil)
		}
		if formatter.Format == "json" {
			return formatter.Success(HistoryList{Runs: runs})
		}
		if len(runs) == 0 {
			return formatter.Success("No runs recorded.")
		}
		writeRunList(formatter.Writer, runs)
		return nil
	}

	run, err := st.GetRun(ctx, args[0])
	if errors.Is(err, store.ErrRunNotFound) {
		return fail(formatter, ExitFailure, CodeStore, "unknown run", err, nil)
	}
	if err != nil {
		return fail(formatter, ExitCommandError, CodeStore, "cannot read run", err, nil)
	}
	rep, err := loadReport(cmd, st, run.ID)
	if err != nil {
		return fail(formatter, ExitCommandError, CodeStore, "cannot read run", err, nil)
	}

	doc := report.NewDocument(run.Program, rep)
	doc.RunID = run.ID
	if formatter.Format == "json" {
		return formatter.Success(doc)
	}
	writeRunDetail(formatter.Writer, run, rep)
	return nil
}

// loadReport rebuilds a harness report from a recorded run.
func loadReport(cmd *cobra.Command, st *store.Store, runID string) (*harness.Report, error) {
	categories, err := st.ReadCategories(cmd.Context(), runID)
	if err != nil {
		return nil, err
	}
	results, err := st.ReadResults(cmd.Context(), runID)
	if err != nil {
		return nil, err
	}

	tallies := harness.NewTallies()
	for _, e := range categories {
		tallies.Set(e.Category, e.Tally)
	}
	return &harness.Report{Tallies: tallies, Results: results}, nil
}

func writeRunList(w io.Writer, runs []store.Run) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tTOTAL\tPROGRAM")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			r.ID,
			r.StartedAt.Local().Format(time.DateTime),
			r.Total,
			r.Program,
		)
	}
	tw.Flush()
}

func writeRunDetail(w io.Writer, run store.Run, rep *harness.Report) {
	fmt.Fprintf(w, "Run:     %s\n", run.ID)
	fmt.Fprintf(w, "Program: %s\n", run.Program)
	fmt.Fprintf(w, "Corpus:  %s\n", run.CorpusRoot)
	fmt.Fprintf(w, "Started: %s\n", run.StartedAt.Format(time.RFC3339))
	report.WriteSummary(w, rep.Tallies)

	failures := rep.Failures()
	if len(failures) == 0 {
		return
	}
	fmt.Fprintf(w, "\nFailed tests (%d):\n", len(failures))
	for _, r := range failures {
		fmt.Fprintf(w, "  %s/%s %s stdout=%q exit=%d\n",
			r.Case.Category, r.Case.Name, r.Run.Termination, r.Run.Stdout, r.Run.ExitCode)
	}
}
