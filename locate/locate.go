package locate

import "github.com/viant/ccprof/structure"

// Locate implements spec.md §4.4's core algorithm: realign the stack to
// proposedParent's ancestor chain, search for the nearest context the new
// node's (file, proc, line) fits, revert to it if it is below the current
// top, or push a synthesized alien context if nothing fits — then create
// and link the new scope under the resolved top of stack.
func (m *Manager) Locate(kind structure.Kind, proposedParent *structure.Scope, filename, proc string, beg, end int) *structure.Scope {
	m.realign(proposedParent)

	idx, _ := m.search(filename, proc, beg)
	if idx < 0 {
		m.pushAlien(proposedParent, filename, proc, beg)
	} else if idx < len(m.stack)-1 {
		m.revert(idx, proposedParent)
	}

	parent := m.top().scope()
	scope := m.tree.New(kind, proc, filename, beg, end)
	parent.AddChild(scope)
	if kind == structure.Loop {
		m.stack[len(m.stack)-1].LoopNode = scope
	}
	return scope
}

// realign leaves the stack untouched if proposedParent is already anchored
// somewhere on it (the common case: the same enclosing Proc/Alien context
// persists across a run of sequential Locate calls within one procedure,
// spec.md §4.4: "a chain of Alien frames may already sit above"), and
// pushes a fresh bottom context for it otherwise (spec.md §4.4 step 1).
func (m *Manager) realign(proposedParent *structure.Scope) {
	for i := len(m.stack) - 1; i >= 0; i-- {
		if m.stack[i].ScopeNode == proposedParent {
			return
		}
	}
	m.stack = append(m.stack, Ctxt{
		ScopeNode: proposedParent,
		FileName:  proposedParent.File,
		Level:     len(m.stack),
	})
}

// matchTiers are spec.md §4.4 step 2's information-quality tiers, checked
// in order: (file,proc,line), then (file,line), then (file,proc) or just
// file, then just line.
var matchTiers = []func(s *structure.Scope, filename, proc string, line int) bool{
	func(s *structure.Scope, filename, proc string, line int) bool {
		return s.File == filename && s.Name == proc && fuzzyMatch(s, line)
	},
	func(s *structure.Scope, filename, proc string, line int) bool {
		return s.File == filename && fuzzyMatch(s, line)
	},
	func(s *structure.Scope, filename, proc string, line int) bool {
		return s.File == filename
	},
	func(s *structure.Scope, filename, proc string, line int) bool {
		return fuzzyMatch(s, line)
	},
}

func fuzzyMatch(s *structure.Scope, line int) bool {
	return fuzzyContainsLine(s, line, beginEpsilon(s.Kind, false), endEpsilon(s.Kind, s.EndLine, s.NextProcBegLine(), false))
}

// search finds the nearest qualifying stack context for (filename, proc,
// line), per spec.md §4.4 step 2: within the best-quality tier that has
// any match at all, prefer the topmost non-alien match, falling back to
// the topmost matching alien only if that tier has no non-alien
// candidate. Returns the matching stack index, or -1 if nothing in any
// tier qualifies.
func (m *Manager) search(filename, proc string, line int) (idx int, isAlien bool) {
	for _, tier := range matchTiers {
		bestAlienIdx := -1
		for i := len(m.stack) - 1; i >= 0; i-- {
			s := m.stack[i].scope()
			if s == nil || !tier(s, filename, proc, line) {
				continue
			}
			if s.Kind == structure.Alien {
				if bestAlienIdx < 0 {
					bestAlienIdx = i
				}
				continue
			}
			return i, false
		}
		if bestAlienIdx >= 0 {
			return bestAlienIdx, true
		}
	}
	return -1, false
}

// revert truncates the stack down to idx — the "pop the context stack
// down to match" half of spec.md §4.4 step 3 — after first fixing the
// scope tree (the alien-cloning half of step 3): walking up from the old
// top's scope to the match's scope, any intermediate Alien frame has its
// children split via SplitAlienSiblings, keeping only the descendant the
// old top chain actually passed through. This protects the chain we are
// unwinding from against being silently merged with whatever a future
// call attaches to the same alien key once the stack no longer anchors it
// (spec.md: "preserving the property that sibling statements belonging to
// different inlining instances are not flattened").
func (m *Manager) revert(idx int, proposedParent *structure.Scope) {
	top := m.stack[len(m.stack)-1]
	matchScope := m.stack[idx].scope()
	for cur := top.scope(); cur != nil && cur != matchScope; cur = cur.Parent {
		if cur.Parent != nil && cur.Parent.Kind == structure.Alien {
			SplitAlienSiblings(m.tree, cur.Parent, cur)
		}
	}
	m.stack = m.stack[:idx+1]
}

// pushAlien finds or creates an alien scope under proposedParent keyed by
// (filename, proc), restricted to fuzzy containment of line, and pushes it
// as a new context (spec.md §4.4 step 4).
func (m *Manager) pushAlien(proposedParent *structure.Scope, filename, proc string, line int) {
	beginEps := beginEpsilon(structure.Alien, true)
	endEps := endEpsilon(structure.Alien, 0, 0, false)
	alien := m.tree.FindOrCreateAlien(proposedParent, filename, proc, line, beginEps, endEps)
	m.stack = append(m.stack, Ctxt{ScopeNode: alien, FileName: filename, Level: len(m.stack)})
}
