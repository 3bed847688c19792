package harness

import "fmt"

// DiscoveryError reports a category directory that could not be listed.
type DiscoveryError struct {
	Category string
	Path     string
	Err      error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("cannot list category %q at %s: %v", e.Category, e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// InvocationError reports a program-under-test that could not be launched.
type InvocationError struct {
	Program string
	Err     error
}

func (e *InvocationError) Error() string {
	return fmt.Sprintf("cannot run program %s: %v", e.Program, e.Err)
}

func (e *InvocationError) Unwrap() error {
	return e.Err
}
