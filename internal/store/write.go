package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/roach88/parsetest/internal/harness"
)

// Run is one recorded harness run.
type Run struct {
	Seq        int64         `json:"seq"`
	ID         string        `json:"id"`
	Program    string        `json:"program"`
	CorpusRoot string        `json:"corpus_root"`
	StartedAt  time.Time     `json:"started_at"`
	Total      harness.Tally `json:"total"`
}

// RecordRun stores a report in one transaction and returns the new run.
func (s *Store) RecordRun(ctx context.Context, program, corpusRoot string, rep *harness.Report) (Run, error) {
	run := Run{
		ID:         s.newID(),
		Program:    program,
		CorpusRoot: corpusRoot,
		StartedAt:  s.clock.Now().UTC(),
		Total:      rep.Totals(),
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, program, corpus_root, started_at, passed, attempted)
		VALUES (?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.Program,
		run.CorpusRoot,
		run.StartedAt.Format(time.RFC3339Nano),
		run.Total.Passed,
		run.Total.Attempted,
	)
	if err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	if run.Seq, err = res.LastInsertId(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}

	if err := writeCategories(ctx, tx, run.ID, rep.Tallies); err != nil {
		return Run{}, err
	}
	if err := writeResults(ctx, tx, run.ID, rep.Results); err != nil {
		return Run{}, err
	}

	if err := tx.Commit(); err != nil {
		return Run{}, fmt.Errorf("record run: %w", err)
	}
	return run, nil
}

func writeCategories(ctx context.Context, tx *sql.Tx, runID string, tallies *harness.Tallies) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO run_categories (run_id, position, name, label, passed, attempted)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write categories: %w", err)
	}
	defer stmt.Close()

	for i, e := range tallies.Entries() {
		if _, err := stmt.ExecContext(ctx,
			runID, i, e.Category.Name, e.Category.Label, e.Tally.Passed, e.Tally.Attempted,
		); err != nil {
			return fmt.Errorf("write category %q: %w", e.Category.Name, err)
		}
	}
	return nil
}

func writeResults(ctx context.Context, tx *sql.Tx, runID string, results []harness.TestResult) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO results
		(run_id, position, category, name, expectation, pass, stdout, exit_code, termination, duration_ns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("write results: %w", err)
	}
	defer stmt.Close()

	for i, r := range results {
		if _, err := stmt.ExecContext(ctx,
			runID,
			i,
			r.Case.Category,
			r.Case.Name,
			r.Case.Expect.String(),
			boolToInt(r.Pass),
			r.Run.Stdout,
			r.Run.ExitCode,
			r.Run.Termination.String(),
			int64(r.Run.Duration),
		); err != nil {
			return fmt.Errorf("write result %s/%s: %w", r.Case.Category, r.Case.Name, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
