package report

import "github.com/roach88/parsetest/internal/harness"

// Document is the JSON form of a harness run.
type Document struct {
	RunID       string          `json:"run_id,omitempty"`
	Program     string          `json:"program"`
	Categories  []CategoryEntry `json:"categories"`
	Total       harness.Tally   `json:"total"`
	Tests       []TestEntry     `json:"tests"`
	Regressions []string        `json:"regressions,omitempty"`
}

// CategoryEntry is one category line of the summary.
type CategoryEntry struct {
	Name      string `json:"name"`
	Label     string `json:"label"`
	Passed    int    `json:"passed"`
	Attempted int    `json:"attempted"`
}

// TestEntry is one graded test.
type TestEntry struct {
	Category    string              `json:"category"`
	Name        string              `json:"name"`
	Expectation harness.Expectation `json:"expectation"`
	Pass        bool                `json:"pass"`
	Stdout      string              `json:"stdout"`
	ExitCode    int                 `json:"exit_code"`
	Termination string              `json:"termination"`
	DurationMS  int64               `json:"duration_ms"`
}

// NewDocument builds the JSON document of a report.
func NewDocument(program string, r *harness.Report) Document {
	doc := Document{
		Program:    program,
		Categories: []CategoryEntry{},
		Total:      r.Totals(),
		Tests:      make([]TestEntry, 0, len(r.Results)),
	}
	for _, e := range r.Tallies.Entries() {
		doc.Categories = append(doc.Categories, CategoryEntry{
			Name:      e.Category.Name,
			Label:     e.Category.Label,
			Passed:    e.Tally.Passed,
			Attempted: e.Tally.Attempted,
		})
	}
	for _, res := range r.Results {
		doc.Tests = append(doc.Tests, TestEntry{
			Category:    res.Case.Category,
			Name:        res.Case.Name,
			Expectation: res.Case.Expect,
			Pass:        res.Pass,
			Stdout:      res.Run.Stdout,
			ExitCode:    res.Run.ExitCode,
			Termination: res.Run.Termination.String(),
			DurationMS:  res.Run.Duration.Milliseconds(),
		})
	}
	return doc
}
