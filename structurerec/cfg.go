// Package structurerec implements spec.md §4.5's per-procedure loop-
// structure recovery: given an already-decoded basic-block control-flow
// graph, it classifies the graph into a nested strongly-connected-region
// tree and drives package locate's context-stack machine (spec.md §4.4) to
// place every loop and instruction into the right nest of real and alien
// scopes of a structure.Tree.
//
// Decoding machine code into basic blocks and edges is explicitly out of
// scope (spec.md §1): Procedure is the abstract view a disassembler or
// debug-info reader would hand this package, the same boundary
// loadmodule.Module draws for the correlator.
package structurerec

// EdgeKind classifies a CFG edge per spec.md §4.5 step 1's taxonomy.
type EdgeKind uint8

const (
	EdgeFallthrough EdgeKind = iota
	EdgeJump
	EdgeCondJump
	EdgeReturn
	EdgeTailCallReturn
)

// Edge is one outgoing control-flow edge from a BasicBlock. Target is the
// index into Procedure.Blocks the edge leads to, or -1 for Return and
// TailCallReturn edges, which leave the procedure (spec.md §4.5 step 1: "a
// branch whose target falls outside the procedure's VMA range is treated
// as a tail-call-return").
type Edge struct {
	Kind   EdgeKind
	Target int
}

// Instruction is one already-attributed instruction: its VMA and the
// (file, proc, line) a loadmodule.Module resolved for it.
type Instruction struct {
	VMA  uint64
	File string
	Proc string
	Line int
}

// BasicBlock is one node of a procedure's control-flow graph.
type BasicBlock struct {
	ID           int
	Instructions []Instruction
	Successors   []Edge
}

// Procedure is the basic-block-iterator-with-attribution view of a
// procedure's machine code that spec.md §4.5 takes as input.
type Procedure struct {
	Name    string
	File    string
	BegLine int
	Blocks  []*BasicBlock
	Entry   int
}

func (p *Procedure) predecessors() map[int][]int {
	preds := make(map[int][]int, len(p.Blocks))
	for _, b := range p.Blocks {
		for _, e := range b.Successors {
			if e.Target >= 0 {
				preds[e.Target] = append(preds[e.Target], b.ID)
			}
		}
	}
	return preds
}

// reversePostorder returns block IDs in reverse postorder from the
// procedure's entry block — the traversal order dominator computation
// converges fastest over, and a stable deterministic order for the
// "disconnected CFG regions" fallback (spec.md §4.5 step 4).
func (p *Procedure) reversePostorder() []int {
	byID := make(map[int]*BasicBlock, len(p.Blocks))
	for _, b := range p.Blocks {
		byID[b.ID] = b
	}
	visited := make(map[int]bool, len(p.Blocks))
	var post []int
	var visit func(id int)
	visit = func(id int) {
		if visited[id] {
			return
		}
		visited[id] = true
		b := byID[id]
		if b != nil {
			for _, e := range b.Successors {
				if e.Target >= 0 {
					visit(e.Target)
				}
			}
		}
		post = append(post, id)
	}
	visit(p.Entry)
	// any block unreachable from Entry still needs a deterministic slot so
	// step 4's "disconnected regions" can append it.
	for _, b := range p.Blocks {
		visit(b.ID)
	}
	rpo := make([]int, len(post))
	for i, id := range post {
		rpo[len(post)-1-i] = id
	}
	return rpo
}
