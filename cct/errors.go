package cct

import "fmt"

// InvariantError reports a violation of one of the structural invariants in
// spec.md §3/§7 (e.g. a node linked under a disallowed parent kind, or a
// begLine/endLine pairing that isn't NULL together). Per spec.md §7 these
// are "Structural inconsistency" errors and are fatal assertions; callers
// that want to convert them into an exit code should recover at the CLI
// boundary rather than attempt local repair.
type InvariantError struct {
	Op      string
	Detail  string
	NodeUID uint64
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("cct: invariant violated in %s (node uid=%d): %s", e.Op, e.NodeUID, e.Detail)
}

func invariantf(op string, uid uint64, format string, args ...interface{}) {
	panic(&InvariantError{Op: op, NodeUID: uid, Detail: fmt.Sprintf(format, args...)})
}
