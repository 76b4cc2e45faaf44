package correlate

import (
	"strings"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/locate"
)

// normalize runs spec.md §4.3's four post-correlation normalization
// passes in order.
func normalize(tree *cct.Tree) {
	root := tree.Root()
	if root == nil {
		return
	}
	removeBogusAlienFrames(tree, root)
	coalesceDuplicates(tree)
	mergePerfectlyNestedLoops(tree)
	cct.RemoveEmptyNodes(tree.Root())
}

// removeBogusAlienFrames implements normalization step 1: an alien frame
// whose filename matches its enclosing procedure's, whose procedure name
// fuzzily matches the enclosing context's, and whose line sits within the
// parent's fuzzy interval is not really an inlined frame — it is debug-info
// noise — and is merged into its parent.
func removeBogusAlienFrames(tree *cct.Tree, root *cct.Node) {
	var bogus []*cct.Node
	root.Walk(func(n *cct.Node) bool {
		if n.Kind() == cct.ProcedureFrame && n.IsAlien {
			if p := findEnclosingFrame(n); p != nil && isBogusAlien(n, p) {
				bogus = append(bogus, n)
			}
		}
		return true
	})
	for _, f := range bogus {
		p := findEnclosingFrame(f)
		if p == nil {
			continue
		}
		mergeFrameIntoParent(tree, f, p)
	}
}

// findEnclosingFrame returns the nearest ProcedureFrame ancestor of n,
// strictly above n itself.
func findEnclosingFrame(n *cct.Node) *cct.Node {
	if n.Parent() == nil {
		return nil
	}
	return n.Parent().AncestorProcedureFrame()
}

func isBogusAlien(alien, parent *cct.Node) bool {
	if !strings.EqualFold(alien.File, parent.File) {
		return false
	}
	if !fuzzyProcNameMatch(alien.Proc, parent.Proc) {
		return false
	}
	beginEps, endEps := locate.AlienIntervalEpsilons()
	return alien.BegLine >= parent.BegLine-beginEps && alien.BegLine <= parent.BegLine+endEps
}

// fuzzyProcNameMatch implements spec.md §4.3 step 1's "fuzzy: case-
// insensitive substring on a punctuation boundary" procedure name match —
// one name may be a qualified (namespace/template-wrapped) form of the
// other, e.g. "ns::foo" vs "foo".
func fuzzyProcNameMatch(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return true
	}
	return boundarySubstring(a, b) || boundarySubstring(b, a)
}

func boundarySubstring(outer, inner string) bool {
	if inner == "" {
		return false
	}
	idx := strings.Index(outer, inner)
	if idx < 0 {
		return false
	}
	if idx > 0 && isIdentChar(rune(outer[idx-1])) {
		return false
	}
	end := idx + len(inner)
	if end < len(outer) && isIdentChar(rune(outer[end])) {
		return false
	}
	return true
}

func isIdentChar(r rune) bool {
	return r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

// mergeFrameIntoParent moves f's children up to be p's direct children and
// discards f.
func mergeFrameIntoParent(tree *cct.Tree, f, p *cct.Node) {
	for _, c := range f.Children() {
		tree.Unlink(c)
		tree.Link(c, p)
	}
	tree.Unlink(f)
}

// coalesceDuplicates implements normalization step 2. It repeatedly finds
// two Statement leaves sharing a calling context and (file, proc, line),
// sums the shallower one's metrics into the deeper one ("keep the
// deepest" — spec.md §4.3 step 2 case 1, compiler-hoisted loop-invariant
// instructions appearing at two nesting depths), and discards the
// shallower leaf. When the pair's nearest Loop ancestors are distinct
// siblings with identical bounds (case 2: equal lines reached through two
// unrolled copies of the same loop), the loops themselves are also merged
// via mergeSiblingLoops — an actual least-common-ancestor path merge,
// not just the leaf discard — so the now-lighter loop doesn't survive as
// an empty-of-duplicate but still-standing sibling. The scan restarts
// after every merge since removing a leaf can empty out its parent
// loop/frame and expose further duplicates once step 4 would otherwise
// have pruned it (spec.md: "restart coalescing ... because new case-1
// duplicates may have been created").
func coalesceDuplicates(tree *cct.Tree) {
	for {
		a, b := findDuplicateLeafPair(tree.Root())
		if a == nil {
			return
		}
		if depthOf(b) > depthOf(a) {
			a, b = b, a
		}
		a.AddMetrics(b)
		loopA, loopB := a.AncestorLoop(), b.AncestorLoop()
		tree.Remove(b)
		mergeSiblingLoops(tree, loopA, loopB)
	}
}

// mergeSiblingLoops implements the cross-loop / LCA half of spec.md §4.3
// step 2 case 2: keep and drop are the nearest Loop ancestors of a
// just-coalesced duplicate leaf pair. If they are distinct siblings
// (same parent) that are themselves Mergeable (identical bounds and
// StructureID), drop's remaining children are spliced up under keep and
// drop is discarded — the two unrolled loop copies become one, per
// spec.md §8 scenario 4 ("the two loops are merged"). A no-op whenever
// keep/drop are absent, identical, not Loop nodes, not siblings, or not
// Mergeable.
func mergeSiblingLoops(tree *cct.Tree, keep, drop *cct.Node) {
	if keep == nil || drop == nil || keep == drop {
		return
	}
	if keep.Kind() != cct.Loop || drop.Kind() != cct.Loop {
		return
	}
	if keep.Parent() != drop.Parent() || !cct.Mergeable(keep, drop) {
		return
	}
	for _, c := range drop.Children() {
		tree.Unlink(c)
		tree.Link(c, keep)
	}
	tree.Unlink(drop)
}

type leafKey struct {
	ctx  *cct.Node
	file string
	proc string
	line int
}

func findDuplicateLeafPair(root *cct.Node) (*cct.Node, *cct.Node) {
	if root == nil {
		return nil, nil
	}
	seen := make(map[leafKey]*cct.Node)
	var dupA, dupB *cct.Node
	root.Walk(func(n *cct.Node) bool {
		if dupA != nil {
			return false
		}
		if n.Kind() != cct.Statement {
			return true
		}
		k := leafKey{n.CallingContext(), n.File, n.Proc, n.BegLine}
		if first, ok := seen[k]; ok {
			dupA, dupB = first, n
			return false
		}
		seen[k] = n
		return true
	})
	return dupA, dupB
}

func depthOf(n *cct.Node) int {
	d := 0
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		d++
	}
	return d
}

// mergePerfectlyNestedLoops implements normalization step 3: a Loop whose
// only child is another Loop with identical line bounds is redundant
// structure (the same loop header correlated twice at different points in
// the walk); its child's children are spliced up and the child discarded,
// repeating until no such chain remains at each level.
func mergePerfectlyNestedLoops(tree *cct.Tree) {
	if tree.Root() == nil {
		return
	}
	mergeLoopsRec(tree, tree.Root())
}

func mergeLoopsRec(tree *cct.Tree, n *cct.Node) {
	for c := n.FirstChild(); c != nil; {
		next := c.NextSibling()
		mergeLoopsRec(tree, c)
		c = next
	}
	if n.Kind() != cct.Loop {
		return
	}
	for {
		children := n.Children()
		if len(children) != 1 || children[0].Kind() != cct.Loop {
			return
		}
		child := children[0]
		if child.BegLine != n.BegLine || child.EndLine != n.EndLine {
			return
		}
		for _, gc := range child.Children() {
			tree.Unlink(gc)
			tree.Link(gc, n)
		}
		tree.Unlink(child)
	}
}
