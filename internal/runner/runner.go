// Package runner launches the program-under-test as a subprocess.
package runner

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os/exec"
	"time"

	"github.com/roach88/parsetest/internal/harness"
)

// waitDelay bounds how long Run waits for stdout to close after the
// process was killed, in case it left children holding the pipe.
const waitDelay = 2 * time.Second

// Config configures a Process runner.
type Config struct {
	// Program is the path (or PATH-resolvable name) of the program-under-test.
	Program string

	// Timeout kills a test that runs longer. Zero disables it.
	Timeout time.Duration

	Logger *slog.Logger
}

// Process runs the program-under-test once per test file.
type Process struct {
	program string
	timeout time.Duration
	logger  *slog.Logger
}

// New resolves the program and returns a runner for it.
// A program that cannot be found or is not executable yields an
// *harness.InvocationError before any test runs.
func New(cfg Config) (*Process, error) {
	if cfg.Program == "" {
		return nil, &harness.InvocationError{Program: cfg.Program, Err: errors.New("empty program path")}
	}

	resolved, err := exec.LookPath(cfg.Program)
	if err != nil {
		return nil, &harness.InvocationError{Program: cfg.Program, Err: err}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	return &Process{
		program: resolved,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// Program returns the resolved program path.
func (p *Process) Program() string {
	return p.program
}

// Run invokes the program with path as its only argument and captures
// its standard output.
//
// Crashes and timeouts are reported in the result's Termination. Errors
// are returned only when the program could not be started or ctx was
// cancelled by the caller.
func (p *Process) Run(ctx context.Context, path string) (harness.RunResult, error) {
	runCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(runCtx, p.program, path)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err := cmd.Run()
	res := harness.RunResult{
		Stdout:   stdout.String(),
		Duration: time.Since(start),
	}

	if err == nil {
		res.Termination = harness.Exited
		return res, nil
	}

	if errors.Is(err, exec.ErrWaitDelay) && cmd.ProcessState != nil {
		// exited, but a child kept stdout open past the wait delay
		res.ExitCode = cmd.ProcessState.ExitCode()
		res.Termination = harness.Exited
		return res, nil
	}

	var exitErr *exec.ExitError
	if !errors.As(err, &exitErr) {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return res, ctxErr
		}
		return res, &harness.InvocationError{Program: p.program, Err: err}
	}

	res.ExitCode = exitErr.ExitCode()
	switch {
	case ctx.Err() != nil:
		return res, ctx.Err()
	case runCtx.Err() != nil:
		res.Termination = harness.TimedOut
	case res.ExitCode == -1:
		// ExitCode is -1 when the process was terminated by a signal.
		res.Termination = harness.Crashed
	default:
		res.Termination = harness.Exited
	}

	if stderr.Len() > 0 {
		p.logger.Debug("program wrote to stderr", "file", path, "stderr", stderr.String())
	}

	return res, nil
}
