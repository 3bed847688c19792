// Package harness runs a program-under-test against a corpus of test files
// and grades every invocation.
//
// # Corpus Layout
//
// The corpus root holds one subdirectory per category:
//
//	tests/
//	  test_parsing/
//	    y_object.json     must be accepted
//	    n_trailing.json   must be rejected
//	    i_big_number.json implementation-defined
//	  test_transform/
//	    ...
//
// The first character of a file name selects its Expectation:
//
//   - 'y': MustSucceed, the program must print exactly "0"
//   - 'n': MustFail, the program must print exactly "1"
//   - anything else: Undefined, any output passes as long as the program
//     does not crash
//
// # Execution
//
// Categories run in declared order. Within a category files run in listing
// order (sorted by default), one subprocess at a time unless Options.Jobs
// allows more. Every graded test is handed to the Observer as soon as it
// finishes, so long suites show progress.
//
// Harness-level failures (an unreadable category directory, a program that
// cannot be launched) abort the run and are returned as *DiscoveryError or
// *InvocationError together with the partial Report. A failing test is never
// an error; it is only counted.
package harness
