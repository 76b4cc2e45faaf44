package cct

// Node is the single tagged-union type backing every CCT variant in
// spec.md §3's table (Pgm, Group, ProcedureFrame, CallSite, Statement,
// Loop, StmtRange). Every node shares this header; callers check Kind
// before reading a variant-specific field. See DESIGN.md for why a single
// struct replaces the deep multiple-inheritance hierarchy of the original
// implementation (spec.md §9, "Deep multiple inheritance for CCT nodes").
type Node struct {
	uid  uint64
	kind Kind

	parent      *Node
	firstChild  *Node
	lastChild   *Node
	nextSibling *Node
	prevSibling *Node

	// --- CodeNode payload (ProcedureFrame, CallSite, Statement, Loop, StmtRange) ---
	File       string
	FileIsText bool
	Proc       string
	BegLine    int
	EndLine    int
	// StructureID is a reference into the static structure tree (component
	// B); structure nodes are never pointed to directly so they can be
	// freed independently of the CCT (spec.md §3 lifecycles).
	StructureID uint64

	// --- Pgm payload ---
	ProgramName string
	Frozen      bool

	// --- Group payload ---
	Name string

	// --- dynamic (CallSite/Statement) payload ---
	IP          uint64 // unrelocated VMA once cct.Node.Relocate has run
	OpIdx       uint8
	ModuleID    int
	AssocInfo   AssocInfo
	LIP         LIP
	SrcInfoDone bool

	// Metrics holds one u64 count per profile metric descriptor
	// (spec.md §3 invariant: len(Metrics) == profile.numMetrics).
	Metrics []uint64

	// --- ProcedureFrame payload ---
	IsAlien bool

	// --- StmtRange payload ---
	SortID int

	// Synthetic marks nodes created by correlation/normalization rather
	// than read from the binary sample stream, and partial-unwind anchors
	// (spec.md §3: "a leaf ... is either Statement or a node marked
	// 'synthetic'").
	Synthetic bool
}

// UID returns this node's process-wide-unique, monotonically assigned id.
func (n *Node) UID() uint64 { return n.uid }

// Kind returns the node's variant tag.
func (n *Node) Kind() Kind { return n.kind }

// Parent returns the node's parent, or nil for the Pgm root.
func (n *Node) Parent() *Node { return n.parent }

// FirstChild returns the first child in insertion order, or nil if a leaf.
func (n *Node) FirstChild() *Node { return n.firstChild }

// NextSibling returns the next sibling in parent order, or nil if last.
func (n *Node) NextSibling() *Node { return n.nextSibling }

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool { return n.firstChild == nil }

// Children returns a snapshot slice of n's immediate children.
func (n *Node) Children() []*Node {
	var out []*Node
	for c := n.firstChild; c != nil; c = c.nextSibling {
		out = append(out, c)
	}
	return out
}

// Walk performs a pre-order traversal of n's subtree (including n), calling
// fn for each node. If fn returns false, Walk stops descending into that
// node's children but continues with its siblings.
func (n *Node) Walk(fn func(*Node) bool) {
	if n == nil {
		return
	}
	descend := fn(n)
	if !descend {
		return
	}
	for c := n.firstChild; c != nil; {
		next := c.nextSibling // c may be unlinked by fn
		c.Walk(fn)
		c = next
	}
}

// AddMetrics adds o's metric vector into n's element-wise. Panics if the
// vectors differ in length — profile-level code must expand both trees to
// a common width first (cct.ExpandMetricsBefore/After).
func (n *Node) AddMetrics(o *Node) {
	if len(n.Metrics) != len(o.Metrics) {
		invariantf("AddMetrics", n.uid, "metric vector length mismatch: %d vs %d", len(n.Metrics), len(o.Metrics))
	}
	for i := range n.Metrics {
		n.Metrics[i] += o.Metrics[i]
	}
}

// Relocate subtracts the load module's relocation amount from the node's
// raw runtime IP, storing the unrelocated VMA and recording which module it
// belongs to (spec.md §4.2's "Unrelocate every dynamic node's IP").
func (n *Node) Relocate(moduleID int, relocAmt uint64) {
	if n.IP < relocAmt {
		invariantf("Relocate", n.uid, "ip %#x below relocation amount %#x", n.IP, relocAmt)
	}
	n.IP -= relocAmt
	n.ModuleID = moduleID
}

// ContainsLine reports whether ln falls within [BegLine, EndLine] for a
// code node with a non-null line range.
func (n *Node) ContainsLine(ln int) bool {
	if n.BegLine == 0 && n.EndLine == 0 {
		return false
	}
	return ln >= n.BegLine && ln <= n.EndLine
}

// SetLineRange sets BegLine/EndLine, enforcing the spec.md §3 invariant
// that begLine <= endLine and both are NULL (zero) together.
func (n *Node) SetLineRange(beg, end int) {
	if (beg == 0) != (end == 0) {
		invariantf("SetLineRange", n.uid, "begLine=%d endLine=%d must be NULL together", beg, end)
	}
	if beg != 0 && beg > end {
		invariantf("SetLineRange", n.uid, "begLine=%d > endLine=%d", beg, end)
	}
	n.BegLine, n.EndLine = beg, end
}
