package testutil

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/roach88/parsetest/internal/harness"
)

// StubRunner is an in-process harness.Runner.
//
// Results are looked up by file base name; unknown files get Default.
// Errors registered in Errors are returned instead of a result, which
// simulates launch failures.
//
// Thread-safety: StubRunner is safe for concurrent use.
type StubRunner struct {
	Results map[string]harness.RunResult
	Errors  map[string]error
	Default harness.RunResult

	mu    sync.Mutex
	calls []string
}

// NewStubRunner creates a runner with no scripted results.
func NewStubRunner() *StubRunner {
	return &StubRunner{
		Results: make(map[string]harness.RunResult),
		Errors:  make(map[string]error),
	}
}

// Prints scripts a normal termination with the given stdout and exit code.
func (s *StubRunner) Prints(name, stdout string, exitCode int) *StubRunner {
	s.Results[name] = harness.RunResult{Stdout: stdout, ExitCode: exitCode, Termination: harness.Exited}
	return s
}

// Crashes scripts an abnormal termination.
func (s *StubRunner) Crashes(name string) *StubRunner {
	s.Results[name] = harness.RunResult{ExitCode: -1, Termination: harness.Crashed}
	return s
}

// Fails scripts a launch failure.
func (s *StubRunner) Fails(name string, err error) *StubRunner {
	s.Errors[name] = err
	return s
}

// Run implements harness.Runner.
func (s *StubRunner) Run(ctx context.Context, path string) (harness.RunResult, error) {
	name := filepath.Base(path)

	s.mu.Lock()
	s.calls = append(s.calls, path)
	s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return harness.RunResult{}, err
	}
	if err, ok := s.Errors[name]; ok {
		return harness.RunResult{}, err
	}
	if res, ok := s.Results[name]; ok {
		return res, nil
	}
	return s.Default, nil
}

// Calls returns the paths passed to Run, in call order.
func (s *StubRunner) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.calls))
	copy(out, s.calls)
	return out
}
