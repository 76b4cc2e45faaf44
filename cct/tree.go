package cct

// Tree owns a Calling Context Tree: its root plus the uid counter used to
// stamp every node created against it (spec.md §3: "Every node has a
// monotonically assigned uid"). Structural edits — Link, LinkBefore,
// Unlink — always go through the owning Tree so ownership transfer during
// merge (spec.md §3 lifecycles: "Merging transfers ownership of subtrees
// from donor to recipient in place") stays a pointer reassignment, never a
// copy.
type Tree struct {
	root      *Node
	nextUID   uint64
	numMetric int
}

// NewTree creates an empty tree whose dynamic (CallSite/Statement) nodes
// will carry numMetrics-wide metric vectors.
func NewTree(numMetrics int) *Tree {
	return &Tree{numMetric: numMetrics}
}

// Root returns the tree's root node (nil if empty).
func (t *Tree) Root() *Node { return t.root }

// SetRoot replaces the tree's root directly; used by the reader when the
// first node it creates becomes the provisional root before the Pgm root
// is synthesized around it (spec.md §4.2).
func (t *Tree) SetRoot(n *Node) { t.root = n }

// Empty reports whether the tree has no root (spec.md §4.2: "Zero samples
// ... is non-fatal; downstream emits an empty but valid experiment").
func (t *Tree) Empty() bool { return t.root == nil }

// NumMetrics returns the width of every dynamic node's metric vector.
func (t *Tree) NumMetrics() int { return t.numMetric }

// SetNumMetrics updates the tree's declared metric width. Callers that grow
// it must also walk existing nodes with ExpandMetricsAfter/Before; this
// setter alone does not touch existing vectors.
func (t *Tree) SetNumMetrics(n int) { t.numMetric = n }

func (t *Tree) newNode(kind Kind) *Node {
	t.nextUID++
	n := &Node{uid: t.nextUID, kind: kind}
	if kind.HasMetrics() {
		n.Metrics = make([]uint64, t.numMetric)
	}
	return n
}

// NewPgm creates a detached Pgm root node.
func (t *Tree) NewPgm(name string) *Node {
	n := t.newNode(Pgm)
	n.ProgramName = name
	return n
}

// NewGroup creates a detached Group node.
func (t *Tree) NewGroup(name string) *Node {
	n := t.newNode(Group)
	n.Name = name
	return n
}

// NewProcedureFrame creates a detached ProcedureFrame node.
func (t *Tree) NewProcedureFrame(file, proc string, line int, isAlien bool) *Node {
	n := t.newNode(ProcedureFrame)
	n.File, n.Proc = file, proc
	n.SetLineRange(line, line)
	n.IsAlien = isAlien
	return n
}

// NewCallSite creates a detached CallSite node carrying a raw (not yet
// unrelocated) instruction pointer and operation index.
func (t *Tree) NewCallSite(ip uint64, opIdx uint8) *Node {
	n := t.newNode(CallSite)
	n.IP, n.OpIdx = ip, opIdx
	return n
}

// NewStatement creates a detached Statement node.
func (t *Tree) NewStatement(ip uint64, opIdx uint8) *Node {
	n := t.newNode(Statement)
	n.IP, n.OpIdx = ip, opIdx
	return n
}

// NewLoop creates a detached Loop node with the given static line range and
// structure id (spec.md §3 invariant: begLine<=endLine, NULL together).
func (t *Tree) NewLoop(begLine, endLine int, structureID uint64) *Node {
	n := t.newNode(Loop)
	n.SetLineRange(begLine, endLine)
	n.StructureID = structureID
	return n
}

// NewStmtRange creates a detached StmtRange node.
func (t *Tree) NewStmtRange(begLine, endLine int, structureID uint64, sortID int) *Node {
	n := t.newNode(StmtRange)
	n.SetLineRange(begLine, endLine)
	n.StructureID = structureID
	n.SortID = sortID
	return n
}

// Link appends child as the new last child of parent, validating the
// parent-kind restriction in spec.md §3's node table.
func (t *Tree) Link(child, parent *Node) {
	if parent == nil {
		if t.root != nil {
			invariantf("Link", child.uid, "tree already has a root")
		}
		t.root = child
		return
	}
	if !isAllowedParent(child.kind, parent.kind) {
		invariantf("Link", child.uid, "kind %s may not be a child of kind %s", child.kind, parent.kind)
	}
	child.parent = parent
	if parent.lastChild == nil {
		parent.firstChild = child
		parent.lastChild = child
		child.prevSibling = nil
		child.nextSibling = nil
	} else {
		parent.lastChild.nextSibling = child
		child.prevSibling = parent.lastChild
		child.nextSibling = nil
		parent.lastChild = child
	}
}

// LinkBefore inserts child as the immediate predecessor of sibling, under
// sibling's existing parent.
func (t *Tree) LinkBefore(child, sibling *Node) {
	parent := sibling.parent
	if parent == nil {
		invariantf("LinkBefore", child.uid, "sibling has no parent")
	}
	if !isAllowedParent(child.kind, parent.kind) {
		invariantf("LinkBefore", child.uid, "kind %s may not be a child of kind %s", child.kind, parent.kind)
	}
	child.parent = parent
	prev := sibling.prevSibling
	child.prevSibling = prev
	child.nextSibling = sibling
	sibling.prevSibling = child
	if prev == nil {
		parent.firstChild = child
	} else {
		prev.nextSibling = child
	}
}

// Unlink detaches n from its parent and siblings, leaving n's own subtree
// intact so it may be relinked elsewhere (used heavily by correlate's
// re-parenting pass and by normalization).
func (t *Tree) Unlink(n *Node) {
	if n.parent == nil {
		if t.root == n {
			t.root = nil
		}
		return
	}
	p := n.parent
	if n.prevSibling != nil {
		n.prevSibling.nextSibling = n.nextSibling
	} else {
		p.firstChild = n.nextSibling
	}
	if n.nextSibling != nil {
		n.nextSibling.prevSibling = n.prevSibling
	} else {
		p.lastChild = n.prevSibling
	}
	n.parent, n.prevSibling, n.nextSibling = nil, nil, nil
}

// Remove unlinks n and discards its subtree entirely (both the donor-owned
// pointers are dropped; Go's GC reclaims it).
func (t *Tree) Remove(n *Node) {
	t.Unlink(n)
}
