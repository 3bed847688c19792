// Package report renders harness progress and results.
//
// Text output streams one line per test while the harness runs and ends
// with a per-category summary:
//
//	Running test_parsing tests...
//	Running test: n1.json OK
//	Running test: y1.json FAILED
//
//	Test parsing: 1/2
//	Total: 1/2
//
// OK and FAILED are colored when the output is a terminal (or color is
// forced). JSON output is a single Document written after the run.
package report
