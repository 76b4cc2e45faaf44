package structurerec

import "sort"

// loop is one node of the nested strongly-connected-region tree spec.md
// §4.5 step 2 calls for — restricted to the interval-loop / irreducible-
// loop classes, since acyclic regions need no Loop scope of their own
// (their blocks are placed directly under whichever loop, or the
// procedure itself, encloses them).
type loop struct {
	header   int
	blocks   map[int]bool
	parent   *loop
	children []*loop
	// backEdgeLines are the source lines attributed to the last
	// instruction of every block with a back edge into header, used to
	// find the loop's best source line (spec.md §4.5 step 3).
	backEdgeLines []int
	irreducible   bool
}

// buildLoopForest runs spec.md §4.5 step 2's nested-SCR analysis via the
// standard dominator-tree / back-edge / natural-loop construction for
// reducible flow graphs, classifying any cyclic region a dominator-based
// back edge cannot explain as irreducible. It returns the roots of the
// loop nesting forest (loops with no enclosing loop) plus a lookup from
// block ID to the innermost loop directly owning it (nil if the block
// belongs to no loop at all).
func buildLoopForest(p *Procedure) (roots []*loop, owner map[int]*loop) {
	rpo := p.reversePostorder()
	preds := p.predecessors()
	idom := computeDominators(p, rpo, preds)

	byHeader := map[int]*loop{}
	var headerOrder []int
	for _, b := range p.Blocks {
		for _, e := range b.Successors {
			if e.Target < 0 {
				continue
			}
			if dominates(idom, e.Target, b.ID) {
				l, ok := byHeader[e.Target]
				if !ok {
					l = &loop{header: e.Target, blocks: map[int]bool{e.Target: true}}
					byHeader[e.Target] = l
					headerOrder = append(headerOrder, e.Target)
				}
				growNaturalLoop(l, b.ID, preds)
				lastLine := lastInstructionLine(p, b.ID)
				if lastLine > 0 {
					l.backEdgeLines = append(l.backEdgeLines, lastLine)
				}
			}
		}
	}
	includeIrreducibleRegions(p, preds, byHeader, &headerOrder)

	loops := make([]*loop, 0, len(headerOrder))
	for _, h := range headerOrder {
		loops = append(loops, byHeader[h])
	}
	nestLoops(loops)

	owner = map[int]*loop{}
	for _, l := range loops {
		for b := range l.blocks {
			if cur, ok := owner[b]; !ok || len(l.blocks) < len(cur.blocks) {
				owner[b] = l
			}
		}
	}
	for _, l := range loops {
		if l.parent == nil {
			roots = append(roots, l)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i].header < roots[j].header })
	return roots, owner
}

// computeDominators runs the classic iterative (Cooper-Harvey-Kennedy)
// dominator algorithm over rpo, converging in a handful of passes for any
// CFG reducible enough to have a meaningful reverse postorder.
func computeDominators(p *Procedure, rpo []int, preds map[int][]int) map[int]int {
	rpoIndex := make(map[int]int, len(rpo))
	for i, id := range rpo {
		rpoIndex[id] = i
	}
	idom := make(map[int]int, len(rpo))
	idom[p.Entry] = p.Entry
	changed := true
	for changed {
		changed = false
		for _, b := range rpo {
			if b == p.Entry {
				continue
			}
			newIdom := -1
			for _, pr := range preds[b] {
				if _, ok := idom[pr]; !ok {
					continue
				}
				if newIdom < 0 {
					newIdom = pr
					continue
				}
				newIdom = intersect(idom, rpoIndex, newIdom, pr)
			}
			if newIdom < 0 {
				continue
			}
			if cur, ok := idom[b]; !ok || cur != newIdom {
				idom[b] = newIdom
				changed = true
			}
		}
	}
	return idom
}

func intersect(idom map[int]int, rpoIndex map[int]int, a, b int) int {
	for a != b {
		for rpoIndex[a] > rpoIndex[b] {
			a = idom[a]
		}
		for rpoIndex[b] > rpoIndex[a] {
			b = idom[b]
		}
	}
	return a
}

// dominates reports whether a dominates b (a == b counts).
func dominates(idom map[int]int, a, b int) bool {
	if _, ok := idom[a]; !ok {
		return false
	}
	for cur := b; ; {
		if cur == a {
			return true
		}
		next, ok := idom[cur]
		if !ok || next == cur {
			return cur == a
		}
		cur = next
	}
}

// growNaturalLoop extends l's block set backward from tail so it includes
// every block that can reach tail without first passing through l.header
// (the standard natural-loop construction for a back edge tail->header).
func growNaturalLoop(l *loop, tail int, preds map[int][]int) {
	if l.blocks[tail] {
		return
	}
	worklist := []int{tail}
	l.blocks[tail] = true
	for len(worklist) > 0 {
		n := worklist[len(worklist)-1]
		worklist = worklist[:len(worklist)-1]
		for _, pr := range preds[n] {
			if !l.blocks[pr] {
				l.blocks[pr] = true
				worklist = append(worklist, pr)
			}
		}
	}
}

// includeIrreducibleRegions catches cyclic regions a dominator-based back
// edge scan misses — multiple-entry SCCs in an irreducible graph (spec.md
// §4.5 step 2: "irreducible-loop", "irreducible as loop is a user-
// selectable mode"; this driver always treats one as a loop, the simpler
// of the two modes, since nothing downstream distinguishes the two scope
// kinds). Any non-trivial strongly-connected component not already fully
// covered by a reducible natural loop becomes its own loop region, headed
// by its lowest-numbered block — an arbitrary but stable and deterministic
// choice given the region has no single dominating entry by construction.
func includeIrreducibleRegions(p *Procedure, preds map[int][]int, byHeader map[int]*loop, headerOrder *[]int) {
	covered := map[int]bool{}
	for _, l := range byHeader {
		for b := range l.blocks {
			covered[b] = true
		}
	}
	for _, scc := range tarjanSCCs(p) {
		if len(scc) < 2 {
			continue
		}
		allCovered := true
		for _, b := range scc {
			if !covered[b] {
				allCovered = false
				break
			}
		}
		if allCovered {
			continue
		}
		header := scc[0]
		for _, b := range scc {
			if b < header {
				header = b
			}
		}
		if _, exists := byHeader[header]; exists {
			continue
		}
		l := &loop{header: header, blocks: map[int]bool{}, irreducible: true}
		for _, b := range scc {
			l.blocks[b] = true
		}
		byHeader[header] = l
		*headerOrder = append(*headerOrder, header)
	}
}

// tarjanSCCs returns every strongly-connected component of p's CFG via
// Tarjan's algorithm.
func tarjanSCCs(p *Procedure) [][]int {
	byID := make(map[int]*BasicBlock, len(p.Blocks))
	for _, b := range p.Blocks {
		byID[b.ID] = b
	}
	index := 0
	indices := map[int]int{}
	lowlink := map[int]int{}
	onStack := map[int]bool{}
	var stack []int
	var sccs [][]int

	var strongconnect func(v int)
	strongconnect = func(v int) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		if b := byID[v]; b != nil {
			for _, e := range b.Successors {
				if e.Target < 0 {
					continue
				}
				w := e.Target
				if _, seen := indices[w]; !seen {
					strongconnect(w)
					if lowlink[w] < lowlink[v] {
						lowlink[v] = lowlink[w]
					}
				} else if onStack[w] {
					if indices[w] < lowlink[v] {
						lowlink[v] = indices[w]
					}
				}
			}
		}

		if lowlink[v] == indices[v] {
			var comp []int
			for {
				n := len(stack) - 1
				w := stack[n]
				stack = stack[:n]
				onStack[w] = false
				comp = append(comp, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, comp)
		}
	}
	for _, b := range p.Blocks {
		if _, seen := indices[b.ID]; !seen {
			strongconnect(b.ID)
		}
	}
	return sccs
}

// nestLoops sets each loop's parent to the smallest other loop whose block
// set strictly contains its own (spec.md §4.5 step 2's "tree of
// intervals"): natural loops built from a reducible CFG are always either
// disjoint or nested, never partially overlapping, so "smallest strict
// superset" is well defined.
func nestLoops(loops []*loop) {
	for _, l := range loops {
		var best *loop
		for _, other := range loops {
			if other == l || len(other.blocks) <= len(l.blocks) {
				continue
			}
			if isSubset(l.blocks, other.blocks) {
				if best == nil || len(other.blocks) < len(best.blocks) {
					best = other
				}
			}
		}
		l.parent = best
		if best != nil {
			best.children = append(best.children, l)
		}
	}
	for _, l := range loops {
		sort.Slice(l.children, func(i, j int) bool { return l.children[i].header < l.children[j].header })
	}
}

func isSubset(a, b map[int]bool) bool {
	for k := range a {
		if !b[k] {
			return false
		}
	}
	return true
}

func lastInstructionLine(p *Procedure, blockID int) int {
	for _, b := range p.Blocks {
		if b.ID == blockID && len(b.Instructions) > 0 {
			return b.Instructions[len(b.Instructions)-1].Line
		}
	}
	return 0
}

// bestHeaderLine implements spec.md §4.5 step 3's "scanning back-edges for
// their source line and picking the smallest valid one... if no back-edge
// is usable, fall back to the first instruction in the header block".
func bestHeaderLine(p *Procedure, l *loop) int {
	best := 0
	for _, ln := range l.backEdgeLines {
		if ln > 0 && (best == 0 || ln < best) {
			best = ln
		}
	}
	if best > 0 {
		return best
	}
	for _, b := range p.Blocks {
		if b.ID == l.header && len(b.Instructions) > 0 {
			return b.Instructions[0].Line
		}
	}
	return 0
}
