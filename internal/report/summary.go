package report

import (
	"fmt"
	"io"

	"github.com/roach88/parsetest/internal/harness"
)

// WriteSummary writes a blank line, one "<label>: passed/attempted" line per
// category in order, and the total.
func WriteSummary(w io.Writer, tallies *harness.Tallies) {
	fmt.Fprintln(w)
	for _, e := range tallies.Entries() {
		label := e.Category.Label
		if label == "" {
			label = e.Category.Name
		}
		fmt.Fprintf(w, "%s: %s\n", label, e.Tally)
	}
	fmt.Fprintf(w, "Total: %s\n", tallies.Totals())
}

// WriteRegressions lists tests that passed in the previous run and fail now.
// Nothing is written when there are none.
func WriteRegressions(w io.Writer, regressions []string) {
	if len(regressions) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Regressions (%d):\n", len(regressions))
	for _, r := range regressions {
		fmt.Fprintf(w, "  %s\n", r)
	}
}
