// Package store keeps a SQLite history of harness runs.
//
// Each run records its program, corpus root, per-category tallies and
// every graded test. The history answers two questions:
//
//   - what did recent runs score (ListRuns)
//   - which tests passed last time and fail now (Regressions)
//
// # Ordering
//
// Runs are ordered by an autoincrement seq column, never by timestamps,
// so two runs started within the same clock tick still have a stable
// order. Results keep the position the harness reported them in.
package store
