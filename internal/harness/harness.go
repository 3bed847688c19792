package harness

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Options configures a Harness.
type Options struct {
	// Root is the corpus root; category files live in Root/<category>.
	Root string

	// Categories are processed in this order.
	Categories []Category

	// Jobs bounds how many tests of one category run at once.
	// Values below 1 mean sequential execution.
	Jobs int

	// Sort orders files by name instead of directory listing order.
	Sort bool

	Grade GradeOptions
}

// Report is the outcome of a harness run.
type Report struct {
	// Tallies holds one entry per completed category, in declared order.
	Tallies *Tallies

	// Results holds every graded test of the completed categories,
	// in category order then file order.
	Results []TestResult
}

// Totals folds the category tallies.
func (r *Report) Totals() Tally {
	return r.Tallies.Totals()
}

// Failures returns the results that did not pass.
func (r *Report) Failures() []TestResult {
	var failed []TestResult
	for _, res := range r.Results {
		if !res.Pass {
			failed = append(failed, res)
		}
	}
	return failed
}

// Harness runs a program-under-test over a corpus.
type Harness struct {
	runner   Runner
	opts     Options
	observer Observer
	logger   *slog.Logger
}

// New creates a harness. A nil observer or logger disables that output.
func New(runner Runner, opts Options, observer Observer, logger *slog.Logger) *Harness {
	if observer == nil {
		observer = nopObserver{}
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Jobs < 1 {
		opts.Jobs = 1
	}
	return &Harness{
		runner:   runner,
		opts:     opts,
		observer: observer,
		logger:   logger,
	}
}

// Run executes every category and returns the report.
//
// On a harness-level failure the returned report covers the categories
// that completed before it, and the error is a *DiscoveryError,
// *InvocationError or the context error.
func (h *Harness) Run(ctx context.Context) (*Report, error) {
	report := &Report{Tallies: NewTallies()}

	for _, c := range h.opts.Categories {
		cases, err := Discover(h.opts.Root, c, h.opts.Sort)
		if err != nil {
			h.logger.Error("category discovery failed", "category", c.Name, "error", err)
			return report, err
		}

		h.logger.Debug("category discovered", "category", c.Name, "files", len(cases))
		h.observer.CategoryStarted(c, len(cases))

		tally, results, err := h.runCategory(ctx, cases)
		if err != nil {
			h.logger.Error("category aborted", "category", c.Name, "error", err)
			return report, err
		}

		report.Tallies.Set(c, tally)
		report.Results = append(report.Results, results...)

		h.logger.Info("category completed",
			"category", c.Name,
			"passed", tally.Passed,
			"attempted", tally.Attempted,
		)
	}

	return report, nil
}

// runCategory runs the cases of one category with at most Jobs in flight.
// Results keep the order of cases regardless of completion order.
func (h *Harness) runCategory(ctx context.Context, cases []TestCase) (Tally, []TestResult, error) {
	var (
		mu    sync.Mutex
		tally Tally
	)
	results := make([]TestResult, len(cases))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.opts.Jobs)

	for i, tc := range cases {
		i, tc := i, tc
		g.Go(func() error {
			res, err := h.runOne(gctx, tc)
			if err != nil {
				return err
			}

			mu.Lock()
			tally.Record(res.Pass)
			mu.Unlock()

			results[i] = res
			h.observer.TestFinished(res)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Tally{}, nil, err
	}
	return tally, results, nil
}

func (h *Harness) runOne(ctx context.Context, tc TestCase) (TestResult, error) {
	if err := ctx.Err(); err != nil {
		return TestResult{}, err
	}

	run, err := h.runner.Run(ctx, tc.Path)
	if err != nil {
		return TestResult{}, err
	}

	pass := Grade(tc.Expect, run, h.opts.Grade)

	h.logger.Debug("test graded",
		"category", tc.Category,
		"file", tc.Name,
		"expectation", tc.Expect.String(),
		"termination", run.Termination.String(),
		"exit_code", run.ExitCode,
		"duration", run.Duration,
		"pass", pass,
	)

	return TestResult{Case: tc, Run: run, Pass: pass}, nil
}
