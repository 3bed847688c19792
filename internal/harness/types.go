package harness

import (
	"context"
	"time"
)

// Category is a named group of test files stored in one corpus subdirectory.
type Category struct {
	// Name is the subdirectory under the corpus root.
	Name string `json:"name" yaml:"name"`

	// Label is the summary label (e.g. "Test parsing").
	Label string `json:"label" yaml:"label,omitempty"`
}

// TestCase is one file discovered in a category directory.
// It is created by Discover and never mutated.
type TestCase struct {
	Category string      `json:"category"`
	Name     string      `json:"name"`
	Path     string      `json:"path"`
	Expect   Expectation `json:"expectation"`
}

// Termination describes how a subprocess ended.
type Termination int

const (
	// Exited means the process terminated normally with some exit status.
	Exited Termination = iota
	// Crashed means the process was killed by a signal or otherwise
	// terminated abnormally.
	Crashed
	// TimedOut means the process was killed after exceeding the per-test
	// timeout.
	TimedOut
)

func (t Termination) String() string {
	switch t {
	case Exited:
		return "exited"
	case Crashed:
		return "crashed"
	case TimedOut:
		return "timed_out"
	default:
		return "unknown"
	}
}

// ParseTermination is the inverse of Termination.String.
func ParseTermination(s string) Termination {
	switch s {
	case "crashed":
		return Crashed
	case "timed_out":
		return TimedOut
	default:
		return Exited
	}
}

// RunResult is what a single invocation of the program-under-test produced.
type RunResult struct {
	Stdout      string        `json:"stdout"`
	ExitCode    int           `json:"exit_code"`
	Termination Termination   `json:"-"`
	Duration    time.Duration `json:"-"`
}

// Normal reports whether the process terminated on its own.
func (r RunResult) Normal() bool {
	return r.Termination == Exited
}

// TestResult is a graded test case.
type TestResult struct {
	Case TestCase
	Run  RunResult
	Pass bool
}

// Runner invokes the program-under-test with a single file path.
//
// The returned error is reserved for harness-level faults (the program
// could not be started, the context was cancelled). A crash or a non-zero
// exit status is reported through RunResult, not as an error.
type Runner interface {
	Run(ctx context.Context, path string) (RunResult, error)
}

// Observer receives progress notifications while the harness runs.
// TestFinished may be called from several goroutines when Options.Jobs > 1.
type Observer interface {
	CategoryStarted(c Category, files int)
	TestFinished(r TestResult)
}

type nopObserver struct{}

func (nopObserver) CategoryStarted(Category, int) {}
func (nopObserver) TestFinished(TestResult)       {}
