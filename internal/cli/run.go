package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/parsetest/internal/config"
	"github.com/roach88/parsetest/internal/harness"
	"github.com/roach88/parsetest/internal/report"
	"github.com/roach88/parsetest/internal/runner"
	"github.com/roach88/parsetest/internal/store"
)

func runHarness(opts *HarnessOptions, program string, cmd *cobra.Command) error {
	stdout := cmd.OutOrStdout()
	formatter := &OutputFormatter{
		Format: opts.Format,
		Writer: stdout,
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose)

	cfg, err := resolveConfig(opts, cmd)
	if err != nil {
		return fail(formatter, ExitCommandError, CodeConfig, "invalid configuration", err, nil)
	}

	proc, err := runner.New(runner.Config{
		Program: program,
		Timeout: time.Duration(cfg.Timeout),
		Logger:  logger,
	})
	if err != nil {
		return fail(formatter, ExitCommandError, CodeInvocation, "cannot run program-under-test", err, nil)
	}
	programKey := absPath(proc.Program())

	// Progress lines would corrupt the JSON document
	var observer harness.Observer
	if formatter.Format != "json" {
		observer = report.NewPrinter(stdout, cfg.Color)
	}

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, stop := signal.NotifyContext(parentCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Debug("harness starting",
		"program", programKey,
		"root", cfg.CorpusRoot,
		"categories", len(cfg.Categories),
		"jobs", cfg.Jobs,
	)

	rep, err := harness.New(proc, cfg.HarnessOptions(), observer, logger).Run(ctx)
	if err != nil {
		return harnessFailure(formatter, programKey, rep, err)
	}

	doc := report.NewDocument(programKey, rep)
	if db := databasePath(opts.RootOptions, cfg); db != "" {
		run, regressions, err := recordRun(ctx, db, programKey, cfg.CorpusRoot, rep, logger)
		if err != nil {
			return fail(formatter, ExitCommandError, CodeStore, "failed to record run", err, nil)
		}
		doc.RunID = run.ID
		doc.Regressions = regressions
	}

	if formatter.Format == "json" {
		if err := formatter.Success(doc); err != nil {
			return err
		}
	} else {
		report.WriteSummary(stdout, rep.Tallies)
		report.WriteRegressions(stdout, doc.Regressions)
	}

	total := rep.Totals()
	if opts.Strict && total.Failed() > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%s: %d of %d tests failed", CodeTestsFailed, total.Failed(), total.Attempted))
	}
	return nil
}

// resolveConfig loads the config file and applies the flags the user set.
func resolveConfig(opts *HarnessOptions, cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("root") {
		cfg.CorpusRoot = opts.Root
	}
	if flags.Changed("timeout") {
		cfg.Timeout = config.Duration(opts.Timeout)
	}
	if flags.Changed("jobs") {
		cfg.Jobs = opts.Jobs
	}
	if flags.Changed("sort") {
		cfg.Sort = opts.Sort
	}
	if flags.Changed("check-exit-code") {
		cfg.CheckExitCode = opts.CheckExitCode
	}
	if flags.Changed("color") {
		cfg.Color = opts.Color
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := cfg.Select(opts.Categories); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfig reads --config, or parsetest.yaml from the working directory
// when it exists.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	if opts.ConfigPath != "" {
		return config.Load(opts.ConfigPath)
	}
	return config.LoadOptional(config.DefaultFile)
}

// databasePath prefers --db over the config file.
func databasePath(opts *RootOptions, cfg *config.Config) string {
	if opts.Database != "" {
		return opts.Database
	}
	return cfg.DB
}

// recordRun stores rep and compares it with the previous run of the same
// program.
func recordRun(ctx context.Context, path, program, corpusRoot string, rep *harness.Report, logger *slog.Logger) (store.Run, []string, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return store.Run{}, nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return store.Run{}, nil, err
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	previous, found, err := st.LatestRun(ctx, program)
	if err != nil {
		return store.Run{}, nil, err
	}

	run, err := st.RecordRun(ctx, program, corpusRoot, rep)
	if err != nil {
		return store.Run{}, nil, err
	}
	logger.Debug("run recorded", "id", run.ID, "db", path, "passed", run.Total.Passed, "attempted", run.Total.Attempted)

	if !found {
		return run, nil, nil
	}
	regressions, err := st.Regressions(ctx, previous.ID, rep)
	if err != nil {
		return store.Run{}, nil, err
	}
	return run, regressions, nil
}

// harnessFailure reports a run the harness gave up on. Categories that
// completed before the failure are still summarized.
func harnessFailure(f *OutputFormatter, program string, rep *harness.Report, err error) error {
	code, message := CodeDiscovery, "test discovery failed"
	var invErr *harness.InvocationError
	switch {
	case errors.As(err, &invErr):
		code, message = CodeInvocation, "cannot run program-under-test"
	case errors.Is(err, context.Canceled):
		code, message = CodeInterrupted, "run interrupted"
	}

	var details interface{}
	if rep != nil {
		partial := report.NewDocument(program, rep)
		details = partial
		if f.Format != "json" && rep.Tallies.Len() > 0 {
			report.WriteSummary(f.Writer, rep.Tallies)
		}
	}
	return fail(f, ExitCommandError, code, message, err, details)
}

// fail reports the error through the formatter and returns the exit error.
func fail(f *OutputFormatter, exitCode int, code, message string, err error, details interface{}) error {
	_ = f.Error(code, fmt.Sprintf("%s: %v", message, err), details)
	return WrapExitError(exitCode, message, err)
}

// newLogger builds the diagnostic logger. Only warnings and errors are
// shown unless verbose.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func absPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		return p
	}
	return abs
}
