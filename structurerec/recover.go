package structurerec

import (
	"github.com/viant/ccprof/locate"
	"github.com/viant/ccprof/structure"
)

// Options configures Recover's handling of cases spec.md §4.5 leaves
// user-selectable.
type Options struct {
	// TreatIrreducibleAsLoop selects between step 2's two irreducible-
	// region modes. This driver only implements the "as loop" mode (see
	// includeIrreducibleRegions); the field still exists so callers have
	// somewhere to record which mode they asked for, and a future second
	// mode has a place to switch on.
	TreatIrreducibleAsLoop bool
}

// Recover runs spec.md §4.5's loop-structure recovery for one procedure:
// it builds the nested strongly-connected-region tree (buildLoopForest),
// then for each loop (outermost first, depth-first into children) creates
// its Loop scope and places the blocks it directly owns, before finally
// appending any block owned by no loop straight under procScope. Callers
// bracket the call with their own mgr.BegSeq(procScope)/mgr.EndSeq() if
// they need the manager positioned there afterward; Recover issues its own
// intermediate BegSeq resets between independent branches (sibling loops
// otherwise leave stale context frames a later branch's fuzzy line match
// can collide with) and does not call EndSeq.
func Recover(p *Procedure, mgr *locate.Manager, procScope *structure.Scope, _ Options) {
	roots, owner := buildLoopForest(p)

	for _, r := range roots {
		placeLoop(p, mgr, r, procScope, owner)
	}

	mgr.BegSeq(procScope)
	for _, b := range p.Blocks {
		if _, ok := owner[b.ID]; ok {
			continue
		}
		placeBlock(mgr, procScope, b)
	}
}

// placeLoop creates l's Loop scope under parentScope, places every block l
// owns directly (excluding blocks owned by a nested child loop), then
// recurses into l's children — each recursion resetting the manager's
// context stack to its own fresh parent anchor first, so one child's
// placements can never be mistaken for another's.
func placeLoop(p *Procedure, mgr *locate.Manager, l *loop, parentScope *structure.Scope, owner map[int]*loop) {
	mgr.BegSeq(parentScope)
	begLine := bestHeaderLine(p, l)
	endLine := maxLine(p, l.blocks)
	scope := mgr.Locate(structure.Loop, parentScope, p.File, p.Name, begLine, endLine)

	for id := range l.blocks {
		if owner[id] != l {
			continue
		}
		placeBlock(mgr, scope, blockByID(p, id))
	}

	for _, c := range l.children {
		placeLoop(p, mgr, c, scope, owner)
	}
}

// placeBlock locates every instruction of b sequentially as a Statement
// scope under parent, one Locate call per instruction at its source line
// (spec.md §4.5 step 3). No VMA interval is recorded on the scopes it
// creates.
func placeBlock(mgr *locate.Manager, parent *structure.Scope, b *BasicBlock) {
	if b == nil {
		return
	}
	for _, instr := range b.Instructions {
		mgr.Locate(structure.Statement, parent, instr.File, instr.Proc, instr.Line, instr.Line)
	}
}

func blockByID(p *Procedure, id int) *BasicBlock {
	for _, b := range p.Blocks {
		if b.ID == id {
			return b
		}
	}
	return nil
}

func maxLine(p *Procedure, blocks map[int]bool) int {
	max := 0
	for id := range blocks {
		b := blockByID(p, id)
		if b == nil {
			continue
		}
		for _, instr := range b.Instructions {
			if instr.Line > max {
				max = instr.Line
			}
		}
	}
	return max
}
