package cct

// Ancestor returns the nearest node of the given Kind on the path from n to
// the root, inclusive of n itself (ported from CSProfNode::Ancestor — "a
// node may be an ancestor of itself").
func (n *Node) Ancestor(kind Kind) *Node {
	for cur := n; cur != nil; cur = cur.parent {
		if cur.kind == kind {
			return cur
		}
	}
	return nil
}

// AncestorPgm returns the Pgm root of n's tree.
func (n *Node) AncestorPgm() *Node { return n.Ancestor(Pgm) }

// AncestorProcedureFrame returns the nearest enclosing ProcedureFrame.
func (n *Node) AncestorProcedureFrame() *Node { return n.Ancestor(ProcedureFrame) }

// AncestorLoop returns the nearest enclosing Loop.
func (n *Node) AncestorLoop() *Node { return n.Ancestor(Loop) }

// AncestorCallSite returns the nearest enclosing CallSite.
func (n *Node) AncestorCallSite() *Node { return n.Ancestor(CallSite) }

// AncestorStatement returns the nearest enclosing Statement.
func (n *Node) AncestorStatement() *Node { return n.Ancestor(Statement) }

// CallingContext returns the nearest enclosing "calling context" scope —
// the nearest ProcedureFrame, real or alien — used by the correlator
// (spec.md §4.3 step 3: "From s, climb to its calling context scope c").
func (n *Node) CallingContext() *Node { return n.AncestorProcedureFrame() }
