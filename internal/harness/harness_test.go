package harness_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/parsetest/internal/harness"
	"github.com/roach88/parsetest/internal/testutil"
)

var (
	parsing   = harness.Category{Name: "test_parsing", Label: "Test parsing"}
	transform = harness.Category{Name: "test_transform", Label: "Test transform"}
)

// recorder is an Observer that keeps every notification.
type recorder struct {
	mu         sync.Mutex
	categories []string
	finished   []harness.TestResult
}

func (r *recorder) CategoryStarted(c harness.Category, files int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.categories = append(r.categories, fmt.Sprintf("%s:%d", c.Name, files))
}

func (r *recorder) TestFinished(res harness.TestResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = append(r.finished, res)
}

func run(t *testing.T, runner harness.Runner, opts harness.Options, obs harness.Observer) (*harness.Report, error) {
	t.Helper()
	return harness.New(runner, opts, obs, nil).Run(context.Background())
}

func TestRun_ValidAndInvalidFilesPass(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing": {"y1.json": `{"a":1}`, "n1.json": `{"a":`},
	})
	runner := testutil.NewStubRunner().
		Prints("y1.json", "0", 0).
		Prints("n1.json", "1", 1)

	rec := &recorder{}
	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing}, Sort: true}, rec)
	require.NoError(t, err)

	tally, ok := report.Tallies.Get("test_parsing")
	require.True(t, ok)
	assert.Equal(t, harness.Tally{Passed: 2, Attempted: 2}, tally)

	require.Len(t, rec.finished, 2)
	assert.Equal(t, "n1.json", rec.finished[0].Case.Name)
	assert.True(t, rec.finished[0].Pass)
	assert.Equal(t, "y1.json", rec.finished[1].Case.Name)
	assert.True(t, rec.finished[1].Pass)
	assert.Equal(t, []string{"test_parsing:2"}, rec.categories)
}

func TestRun_WrongAcceptIsCounted(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing": {"y1.json": `{}`, "n1.json": `{`, "y2.json": `{`},
	})
	runner := testutil.NewStubRunner().
		Prints("y1.json", "0", 0).
		Prints("n1.json", "1", 1).
		Prints("y2.json", "1", 1)

	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing}, Sort: true}, nil)
	require.NoError(t, err)

	tally, _ := report.Tallies.Get("test_parsing")
	assert.Equal(t, harness.Tally{Passed: 2, Attempted: 3}, tally)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, "y2.json", failures[0].Case.Name)
}

func TestRun_CrashOnUndefinedFails(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_transform": {"i1.txt": "boom"},
	})
	runner := testutil.NewStubRunner().Crashes("i1.txt")

	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{transform}}, nil)
	require.NoError(t, err)

	tally, _ := report.Tallies.Get("test_transform")
	assert.Equal(t, harness.Tally{Passed: 0, Attempted: 1}, tally)
	require.Len(t, report.Results, 1)
	assert.Equal(t, harness.Crashed, report.Results[0].Run.Termination)
}

func TestRun_UndefinedIgnoresOutput(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_transform": {"i1.txt": "", "i2.txt": ""},
	})
	runner := testutil.NewStubRunner().
		Prints("i1.txt", "whatever", 42).
		Prints("i2.txt", "", 0)

	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{transform}}, nil)
	require.NoError(t, err)
	assert.Equal(t, harness.Tally{Passed: 2, Attempted: 2}, report.Totals())
}

func TestRun_MissingCategoryIsFatal(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing": {"y1.json": `{}`},
	})
	runner := testutil.NewStubRunner().Prints("y1.json", "0", 0)

	report, err := run(t, runner, harness.Options{
		Root:       root,
		Categories: []harness.Category{parsing, transform},
	}, nil)
	require.Error(t, err)

	var discErr *harness.DiscoveryError
	require.True(t, errors.As(err, &discErr))
	assert.Equal(t, "test_transform", discErr.Category)

	// the completed category is still reported, the missing one is not
	require.NotNil(t, report)
	_, ok := report.Tallies.Get("test_parsing")
	assert.True(t, ok)
	_, ok = report.Tallies.Get("test_transform")
	assert.False(t, ok)
}

func TestRun_MissingFirstCategoryRunsNothing(t *testing.T) {
	root := t.TempDir()
	runner := testutil.NewStubRunner()

	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing}}, nil)
	require.Error(t, err)
	assert.Empty(t, runner.Calls())
	assert.Equal(t, 0, report.Tallies.Len())
}

func TestRun_InvocationErrorAborts(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing":   {"y1.json": `{}`},
		"test_transform": {"i1.txt": ""},
	})
	launchErr := &harness.InvocationError{Program: "./missing", Err: errors.New("no such file")}
	runner := testutil.NewStubRunner().Fails("y1.json", launchErr)

	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing, transform}}, nil)
	require.Error(t, err)

	var invErr *harness.InvocationError
	require.True(t, errors.As(err, &invErr))
	assert.Equal(t, "./missing", invErr.Program)
	assert.Equal(t, 0, report.Tallies.Len())
	assert.Empty(t, report.Results)
	assert.Len(t, runner.Calls(), 1)
}

func TestRun_AttemptedMatchesFileCount(t *testing.T) {
	files := map[string]string{}
	for i := 0; i < 25; i++ {
		files[fmt.Sprintf("y%02d.json", i)] = "{}"
		files[fmt.Sprintf("n%02d.json", i)] = "{"
		files[fmt.Sprintf("i%02d.json", i)] = "?"
	}
	root := testutil.WriteCorpus(t, map[string]map[string]string{"test_parsing": files})

	report, err := run(t, testutil.NewStubRunner(), harness.Options{Root: root, Categories: []harness.Category{parsing}}, nil)
	require.NoError(t, err)

	tally, _ := report.Tallies.Get("test_parsing")
	assert.Equal(t, len(files), tally.Attempted)
	assert.LessOrEqual(t, tally.Passed, tally.Attempted)
	// default result prints nothing, so only undefined tests pass
	assert.Equal(t, 25, tally.Passed)
}

func TestRun_TotalsAcrossCategories(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing":   {"y1.json": "", "n1.json": "", "y2.json": ""},
		"test_transform": {"i1.txt": "", "i2.txt": ""},
	})
	runner := testutil.NewStubRunner().
		Prints("y1.json", "0", 0).
		Prints("n1.json", "0", 0).
		Prints("y2.json", "0", 0).
		Crashes("i2.txt")

	report, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing, transform}}, nil)
	require.NoError(t, err)

	entries := report.Tallies.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "test_parsing", entries[0].Category.Name)
	assert.Equal(t, harness.Tally{Passed: 2, Attempted: 3}, entries[0].Tally)
	assert.Equal(t, "test_transform", entries[1].Category.Name)
	assert.Equal(t, harness.Tally{Passed: 1, Attempted: 2}, entries[1].Tally)
	assert.Equal(t, harness.Tally{Passed: 3, Attempted: 5}, report.Totals())
}

func TestRun_Idempotent(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing": {"y1.json": "", "n1.json": "", "i1.json": ""},
	})
	runner := testutil.NewStubRunner().
		Prints("y1.json", "0", 0).
		Prints("n1.json", "0", 0)
	opts := harness.Options{Root: root, Categories: []harness.Category{parsing}, Sort: true}

	first, err := run(t, runner, opts, nil)
	require.NoError(t, err)
	second, err := run(t, runner, opts, nil)
	require.NoError(t, err)

	assert.Equal(t, first.Tallies.Entries(), second.Tallies.Entries())
	assert.Equal(t, first.Results, second.Results)
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	files := map[string]string{}
	runner := testutil.NewStubRunner()
	for i := 0; i < 40; i++ {
		y := fmt.Sprintf("y%02d.json", i)
		n := fmt.Sprintf("n%02d.json", i)
		files[y], files[n] = "", ""
		if i%3 == 0 {
			runner.Prints(y, "1", 1)
		} else {
			runner.Prints(y, "0", 0)
		}
		runner.Prints(n, "1", 1)
	}
	root := testutil.WriteCorpus(t, map[string]map[string]string{"test_parsing": files})

	seq, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing}, Sort: true, Jobs: 1}, nil)
	require.NoError(t, err)

	rec := &recorder{}
	par, err := run(t, runner, harness.Options{Root: root, Categories: []harness.Category{parsing}, Sort: true, Jobs: 8}, rec)
	require.NoError(t, err)

	assert.Equal(t, seq.Totals(), par.Totals())
	assert.Equal(t, seq.Results, par.Results)
	assert.Len(t, rec.finished, 80)
}

func TestRun_CheckExitCode(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing": {"y1.json": "", "n1.json": ""},
	})
	runner := testutil.NewStubRunner().
		Prints("y1.json", "0", 3).
		Prints("n1.json", "1", 0)
	opts := harness.Options{Root: root, Categories: []harness.Category{parsing}}

	lenient, err := run(t, runner, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, lenient.Totals().Passed)

	opts.Grade.CheckExitCode = true
	strict, err := run(t, runner, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, strict.Totals().Passed)
}

func TestRun_CancelledContext(t *testing.T) {
	root := testutil.WriteCorpus(t, map[string]map[string]string{
		"test_parsing": {"y1.json": ""},
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := harness.New(testutil.NewStubRunner(), harness.Options{Root: root, Categories: []harness.Category{parsing}}, nil, nil)
	_, err := h.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
