package cct

// ExpandMetricsAfter appends `by` zero-valued metric columns to every
// dynamic node's metric vector in n's subtree (spec.md §4.1 step 2,
// "expandMetrics_after"). Binary-zero is used uniformly so the "a metric
// slot is empty" test (spec.md §4.1, "Metric expansion properties") stays
// a plain comparison regardless of metric semantics.
func ExpandMetricsAfter(n *Node, by int) {
	if by == 0 || n == nil {
		return
	}
	n.Walk(func(cur *Node) bool {
		if cur.kind.HasMetrics() {
			cur.Metrics = append(cur.Metrics, make([]uint64, by)...)
		}
		return true
	})
}

// ExpandMetricsBefore prepends `by` zero-valued metric columns to every
// dynamic node's metric vector in n's subtree (spec.md §4.1 step 4,
// "expandMetrics_before") — used when a donor subtree is grafted into a
// recipient tree whose existing metrics occupy the low columns.
func ExpandMetricsBefore(n *Node, by int) {
	if by == 0 || n == nil {
		return
	}
	n.Walk(func(cur *Node) bool {
		if cur.kind.HasMetrics() {
			widened := make([]uint64, by+len(cur.Metrics))
			copy(widened[by:], cur.Metrics)
			cur.Metrics = widened
		}
		return true
	})
}

// Mergeable reports whether a and b represent the same logical tree
// position and so should be unified rather than kept as separate siblings.
//
// For dynamic nodes (CallSite/Statement) this is exactly spec.md §4.1's
// "Dynamic-sample equality for merge": matching assoc-class, unrelocated
// ip, lip bits, and root-note-flag. Static/structural kinds are compared on
// their own identifying fields since the spec only defines dynamic-node
// equality explicitly.
func Mergeable(a, b *Node) bool {
	if a.kind != b.kind {
		return false
	}
	switch a.kind {
	case CallSite, Statement:
		return a.AssocInfo.Class() == b.AssocInfo.Class() &&
			a.IP == b.IP &&
			a.LIP.Equal(b.LIP) &&
			a.AssocInfo.IsRootNote() == b.AssocInfo.IsRootNote()
	case ProcedureFrame:
		return a.File == b.File && a.Proc == b.Proc && a.BegLine == b.BegLine && a.IsAlien == b.IsAlien
	case Loop:
		return a.BegLine == b.BegLine && a.EndLine == b.EndLine && a.StructureID == b.StructureID
	case StmtRange:
		return a.BegLine == b.BegLine && a.EndLine == b.EndLine && a.StructureID == b.StructureID
	case Group:
		return a.Name == b.Name
	case Pgm:
		return a.ProgramName == b.ProgramName
	default:
		return false
	}
}

// Merge grafts tree y into tree x following spec.md §4.1's merge protocol:
// metric vectors in x are widened first, then y's children are folded in
// recursively — matched nodes get their y-side metrics added at the new
// offset, unmatched subtrees are detached from y and relinked into x
// (with their own metrics shifted to the new offset) rather than copied.
// x's root must already be Mergeable with y's root (or one of them nil);
// callers merging whole profiles ensure this by always merging under a
// shared Pgm node. After a successful merge y still holds the nodes that
// matched a node of x; every unmatched subtree has been moved out of y into
// x.
func Merge(x, y *Tree) {
	if y == nil || y.root == nil {
		return
	}
	offsetX := x.numMetric
	if x.root == nil {
		// Nothing to widen; y becomes x's tree wholesale, its own metric
		// vectors shifted into the high columns reserved for it.
		ExpandMetricsBefore(y.root, offsetX)
		x.root = y.root
		x.numMetric = offsetX + y.numMetric
		y.root = nil
		return
	}
	ExpandMetricsAfter(x.root, y.numMetric)
	x.numMetric = offsetX + y.numMetric
	mergeInto(x, y, x.root, y.root, offsetX)
}

func mergeInto(x, y *Tree, xNode, yNode *Node, offsetX int) {
	if yNode == nil {
		return
	}
	idx := newMergeIndex(xNode)
	for c := yNode.firstChild; c != nil; {
		next := c.nextSibling
		match := idx.find(c)
		if match == nil {
			y.Unlink(c)
			ExpandMetricsBefore(c, offsetX)
			x.Link(c, xNode)
			idx.add(c)
		} else {
			if c.kind.HasMetrics() {
				addAtOffset(match, c, offsetX)
			}
			mergeInto(x, y, match, c, offsetX)
		}
		c = next
	}
}

// addAtOffset adds src's metric values into dst starting at column offset —
// dst is assumed already widened to fit.
func addAtOffset(dst, src *Node, offset int) {
	for i, v := range src.Metrics {
		dst.Metrics[offset+i] += v
	}
}
