package reader

import "fmt"

// FatalError is returned for any input/format failure spec.md §7 classes as
// fatal: bad magic/version, or a truncated stream at any phase. It names
// the phase so the CLI layer can produce a file-and-phase diagnostic.
type FatalError struct {
	Phase string
	Err   error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("reader: %s: %v", e.Phase, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

func truncated(phase string, err error) error {
	return &FatalError{Phase: phase, Err: fmt.Errorf("truncated stream: %w", err)}
}
