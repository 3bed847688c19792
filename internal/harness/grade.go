package harness

// Verdicts the program-under-test prints on stdout.
const (
	VerdictAccept = "0"
	VerdictReject = "1"
)

// GradeOptions tunes grading.
type GradeOptions struct {
	// CheckExitCode additionally requires exit status 0 for MustSucceed
	// and 1 for MustFail.
	CheckExitCode bool
}

// Grade decides whether a run satisfies an expectation.
//
//	MustSucceed  normal termination, stdout exactly "0"   pass
//	MustFail     normal termination, stdout exactly "1"   pass
//	Undefined    normal termination, any stdout           pass
//	any          crash or timeout                         fail
//
// Everything else fails.
func Grade(expect Expectation, run RunResult, opts GradeOptions) bool {
	if !run.Normal() {
		return false
	}
	switch expect {
	case MustSucceed:
		if opts.CheckExitCode && run.ExitCode != 0 {
			return false
		}
		return run.Stdout == VerdictAccept
	case MustFail:
		if opts.CheckExitCode && run.ExitCode != 1 {
			return false
		}
		return run.Stdout == VerdictReject
	default:
		return true
	}
}
