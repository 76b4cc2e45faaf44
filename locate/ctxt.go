// Package locate implements component G: the per-procedure location
// manager (spec.md §4.4) that turns the order basic blocks emerge from a
// CFG walk into a correctly nested chain of Proc/Alien/Loop scopes in the
// static structure tree (package structure).
package locate

import (
	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/structure"
)

// Ctxt is one frame of the location manager's context stack (spec.md
// §4.4: "A deque of Ctxt{scopeNode, loopNode, fileName, level}, top =
// front").
type Ctxt struct {
	ScopeNode *structure.Scope
	LoopNode  *structure.Scope
	FileName  string
	Level     int
}

// scope returns the context's effective attachment point: its loop if one
// is set, else its scope node (spec.md §4.4: "Each context's scope() is
// its loop if set, else its ctxt").
func (c Ctxt) scope() *structure.Scope {
	if c.LoopNode != nil {
		return c.LoopNode
	}
	return c.ScopeNode
}

// Manager runs the per-procedure location algorithm, owning the context
// stack and the structure tree new scopes are created against.
type Manager struct {
	tree  *structure.Tree
	stack []Ctxt
}

// NewManager creates a Manager writing new scopes into tree.
func NewManager(tree *structure.Tree) *Manager {
	return &Manager{tree: tree}
}

// BegSeq resets the stack and pushes a bottom context for proc (spec.md
// §4.4: "begSeq(proc) resets and pushes a bottom (proc, nil)").
func (m *Manager) BegSeq(proc *structure.Scope) {
	m.stack = []Ctxt{{ScopeNode: proc, FileName: proc.File, Level: 0}}
}

// EndSeq clears the stack (spec.md §4.4: "endSeq clears the stack").
func (m *Manager) EndSeq() {
	m.stack = nil
}

// top returns the current top-of-stack context. Panics via the cct
// invariant-violation convention if called outside a BegSeq/EndSeq
// bracket (spec.md §4.4: "stack non-empty between begSeq and endSeq";
// spec.md §7: "stack empty at locate -> fatal assertion").
func (m *Manager) top() Ctxt {
	if len(m.stack) == 0 {
		panic(&cct.InvariantError{Op: "locate", Detail: "context stack empty outside BegSeq/EndSeq bracket"})
	}
	return m.stack[len(m.stack)-1]
}
