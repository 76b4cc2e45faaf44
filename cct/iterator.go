package cct

import "sort"

// CompareByLine orders two code nodes by (begLine, endLine, isLeaf),
// breaking ties by putting leaves first — the line-sorted iteration order
// spec.md §4.1 requires ("a line-sorted variant iterates children in
// (begLine, endLine, isLeaf) order, breaking ties by putting leaves
// first"). Ported from the original's CSProfCodeNodeLineComp.
//
// Returns <0 if x sorts before y, 0 if equal order, >0 otherwise.
func CompareByLine(x, y *Node) int {
	if x.BegLine != y.BegLine {
		return x.BegLine - y.BegLine
	}
	if x.EndLine != y.EndLine {
		return x.EndLine - y.EndLine
	}
	xLeaf, yLeaf := x.IsLeaf(), y.IsLeaf()
	if xLeaf == yLeaf {
		return 0
	}
	if xLeaf {
		return -1
	}
	return 1
}

// LineSortedChildren returns n's immediate children ordered by
// CompareByLine. The sort is stable so nodes that compare equal keep their
// original relative order.
func (n *Node) LineSortedChildren() []*Node {
	children := n.Children()
	sort.SliceStable(children, func(i, j int) bool {
		return CompareByLine(children[i], children[j]) < 0
	})
	return children
}

// PreorderWalk collects every node in n's subtree (n included) in
// pre-order. Prefer Walk for large trees where you don't need the full
// slice materialized up front.
func (n *Node) PreorderWalk() []*Node {
	var out []*Node
	n.Walk(func(cur *Node) bool {
		out = append(out, cur)
		return true
	})
	return out
}

// Leaves returns every leaf node in n's subtree, in left-to-right order.
func (n *Node) Leaves() []*Node {
	var out []*Node
	n.Walk(func(cur *Node) bool {
		if cur.IsLeaf() {
			out = append(out, cur)
		}
		return true
	})
	return out
}
