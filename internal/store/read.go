package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/parsetest/internal/harness"
)

// ErrRunNotFound is returned when a run ID is not in the store.
var ErrRunNotFound = errors.New("run not found")

const runColumns = `seq, id, program, corpus_root, started_at, passed, attempted`

// ListRuns returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return runs, nil
}

// GetRun returns the run with the given ID.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

// LatestRun returns the most recent run of a program.
// The boolean is false when the program has never been recorded.
func (s *Store) LatestRun(ctx context.Context, program string) (Run, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+runColumns+` FROM runs
		WHERE program = ?
		ORDER BY seq DESC
		LIMIT 1
	`, program)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, false, nil
	}
	if err != nil {
		return Run{}, false, err
	}
	return run, true, nil
}

// ReadCategories returns the category tallies of a run in report order.
func (s *Store) ReadCategories(ctx context.Context, runID string) ([]harness.CategoryTally, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, label, passed, attempted
		FROM run_categories
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	out := []harness.CategoryTally{}
	for rows.Next() {
		var e harness.CategoryTally
		if err := rows.Scan(&e.Category.Name, &e.Category.Label, &e.Tally.Passed, &e.Tally.Attempted); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate categories: %w", err)
	}
	return out, nil
}

// ReadResults returns the graded tests of a run in report order.
func (s *Store) ReadResults(ctx context.Context, runID string) ([]harness.TestResult, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT category, name, expectation, pass, stdout, exit_code, termination, duration_ns
		FROM results
		WHERE run_id = ?
		ORDER BY position ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query results: %w", err)
	}
	defer rows.Close()

	out := []harness.TestResult{}
	for rows.Next() {
		var (
			r           harness.TestResult
			expectation string
			termination string
			pass        int
			durationNS  int64
		)
		if err := rows.Scan(
			&r.Case.Category,
			&r.Case.Name,
			&expectation,
			&pass,
			&r.Run.Stdout,
			&r.Run.ExitCode,
			&termination,
			&durationNS,
		); err != nil {
			return nil, fmt.Errorf("scan result: %w", err)
		}
		if r.Case.Expect, err = harness.ParseExpectation(expectation); err != nil {
			return nil, fmt.Errorf("result %s/%s: %w", r.Case.Category, r.Case.Name, err)
		}
		r.Pass = pass != 0
		r.Run.Termination = harness.ParseTermination(termination)
		r.Run.Duration = time.Duration(durationNS)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate results: %w", err)
	}
	return out, nil
}

// Regressions lists "category/name" keys of tests that passed in the
// given earlier run and fail in rep. Tests absent from the earlier run
// are not regressions.
func (s *Store) Regressions(ctx context.Context, previousRunID string, rep *harness.Report) ([]string, error) {
	previous, err := s.ReadResults(ctx, previousRunID)
	if err != nil {
		return nil, err
	}

	passedBefore := make(map[string]bool, len(previous))
	for _, r := range previous {
		if r.Pass {
			passedBefore[resultKey(r)] = true
		}
	}

	var regressions []string
	for _, r := range rep.Results {
		if !r.Pass && passedBefore[resultKey(r)] {
			regressions = append(regressions, resultKey(r))
		}
	}
	return regressions, nil
}

func resultKey(r harness.TestResult) string {
	return r.Case.Category + "/" + r.Case.Name
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (Run, error) {
	var (
		run       Run
		startedAt string
	)
	err := row.Scan(
		&run.Seq,
		&run.ID,
		&run.Program,
		&run.CorpusRoot,
		&startedAt,
		&run.Total.Passed,
		&run.Total.Attempted,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, err
		}
		return Run{}, fmt.Errorf("scan run: %w", err)
	}
	if run.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return Run{}, fmt.Errorf("run %s: parse started_at: %w", run.ID, err)
	}
	return run, nil
}
