package locate

import "github.com/viant/ccprof/structure"

// SplitAlienSiblings implements the "fix the scope tree" half of spec.md
// §4.4 step 3: when a revert crosses an Alien frame, any of that alien's
// non-ancestor descendants (children not on the direct path down to
// keepChild) are moved into a freshly cloned sibling alien scope with the
// same file/proc/begLine, so that statements from a different sample's
// inlining instance are never flattened into the same alien as statements
// that belong on the path being kept.
func SplitAlienSiblings(tree *structure.Tree, alien *structure.Scope, keepChild *structure.Scope) {
	if alien.Kind != structure.Alien {
		return
	}
	var toMove []*structure.Scope
	for _, c := range alien.Children() {
		if c != keepChild && !isAncestorOf(c, keepChild) {
			toMove = append(toMove, c)
		}
	}
	if len(toMove) == 0 {
		return
	}
	clone := tree.New(structure.Alien, alien.Name, alien.File, alien.BegLine, alien.EndLine)
	alien.Parent.AddChild(clone)
	for _, c := range toMove {
		removeChild(alien, c)
		clone.AddChild(c)
	}
}

func isAncestorOf(maybeAncestor, node *structure.Scope) bool {
	for cur := node; cur != nil; cur = cur.Parent {
		if cur == maybeAncestor {
			return true
		}
	}
	return false
}

func removeChild(parent, child *structure.Scope) {
	children := parent.Children()
	kept := children[:0]
	for _, c := range children {
		if c != child {
			kept = append(kept, c)
		}
	}
	parent.SetChildren(kept)
}
