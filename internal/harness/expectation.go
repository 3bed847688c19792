package harness

import "fmt"

// Expectation is the verdict a test file demands from the program-under-test.
type Expectation int

const (
	// Undefined tests only check that the program does not crash.
	Undefined Expectation = iota
	// MustSucceed tests require the program to print "0".
	MustSucceed
	// MustFail tests require the program to print "1".
	MustFail
)

// Classify derives the Expectation of a test file from the first byte of
// its name. This is the only place file name prefixes are interpreted.
func Classify(name string) Expectation {
	if name == "" {
		return Undefined
	}
	switch name[0] {
	case 'y':
		return MustSucceed
	case 'n':
		return MustFail
	default:
		return Undefined
	}
}

func (e Expectation) String() string {
	switch e {
	case MustSucceed:
		return "must_succeed"
	case MustFail:
		return "must_fail"
	default:
		return "undefined"
	}
}

// ParseExpectation is the inverse of Expectation.String.
func ParseExpectation(s string) (Expectation, error) {
	switch s {
	case "must_succeed":
		return MustSucceed, nil
	case "must_fail":
		return MustFail, nil
	case "undefined":
		return Undefined, nil
	default:
		return Undefined, fmt.Errorf("unknown expectation %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (e Expectation) MarshalText() ([]byte, error) {
	return []byte(e.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (e *Expectation) UnmarshalText(text []byte) error {
	v, err := ParseExpectation(string(text))
	if err != nil {
		return err
	}
	*e = v
	return nil
}
