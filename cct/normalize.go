package cct

// NormalizeLeaves converts every CallSite leaf in t into a Statement,
// preserving its fields, metrics, and position in the tree (spec.md §4.2:
// "every CallSite leaf is replaced by a Statement node with copied fields
// and metrics, then unlinked"; spec.md §8's invariant: "After
// normalization, every leaf is of variant Statement (or explicitly
// partial)"). CallSite and Statement share an identical field layout, so
// the "replace" is a tag flip rather than an allocate/copy/relink. No Link
// call is involved, so the parent check is not re-run: a CallSite leaf
// directly under Pgm (a parent CallSite allows and Statement does not)
// becomes a Statement under Pgm.
func NormalizeLeaves(t *Tree) {
	if t.root == nil {
		return
	}
	t.root.Walk(func(n *Node) bool {
		if n.kind == CallSite && n.IsLeaf() {
			n.kind = Statement
		}
		return true
	})
}

// CoalesceDuplicateLeaves merges Statement siblings under the same parent
// that share (File, Proc, BegLine): their metrics are summed into the
// first-encountered node and the duplicates are removed (spec.md §4.3
// normalization step 2, restricted here to same-parent duplicates; the
// cross-loop / LCA case is handled by the correlate package once loop
// nodes exist). Returns the number of nodes removed.
func CoalesceDuplicateLeaves(parent *Node) int {
	type key struct {
		file string
		proc string
		line int
	}
	seen := make(map[key]*Node)
	removed := 0
	for c := parent.firstChild; c != nil; {
		next := c.nextSibling
		if c.kind == Statement {
			k := key{c.File, c.Proc, c.BegLine}
			if first, ok := seen[k]; ok {
				first.AddMetrics(c)
				unlinkSibling(parent, c)
				removed++
			} else {
				seen[k] = c
			}
		}
		c = next
	}
	return removed
}

// unlinkSibling detaches c from parent without requiring a *Tree handle —
// normalization sometimes operates on a detached subtree mid-correlation.
func unlinkSibling(parent, c *Node) {
	if c.prevSibling != nil {
		c.prevSibling.nextSibling = c.nextSibling
	} else {
		parent.firstChild = c.nextSibling
	}
	if c.nextSibling != nil {
		c.nextSibling.prevSibling = c.prevSibling
	} else {
		parent.lastChild = c.prevSibling
	}
	c.parent, c.prevSibling, c.nextSibling = nil, nil, nil
}

// RemoveEmptyNodes walks n's subtree bottom-up, deleting Group,
// ProcedureFrame and Loop nodes that end up with no children, per spec.md
// §4.3 normalization step 4 ("Remove empty nodes
// bottom-up ... Pgm root is never removed").
func RemoveEmptyNodes(n *Node) {
	for c := n.firstChild; c != nil; {
		next := c.nextSibling
		RemoveEmptyNodes(c)
		c = next
	}
	if n.kind == Pgm {
		return
	}
	if n.IsLeaf() && isEmptyScope(n) {
		if n.parent != nil {
			unlinkSibling(n.parent, n)
		}
	}
}

// isEmptyScope reports whether a non-leaf-bearing scope node (Group,
// ProcedureFrame, Loop) carries no attribution worth keeping once it has
// no children left.
func isEmptyScope(n *Node) bool {
	switch n.kind {
	case Group, ProcedureFrame, Loop:
		return true
	default:
		return false
	}
}
