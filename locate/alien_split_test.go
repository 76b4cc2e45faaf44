package locate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ccprof/structure"
)

func TestSplitAlienSiblingsMovesNonAncestorChildren(t *testing.T) {
	tree := structure.NewTree("a.out")
	proc := tree.New(structure.Proc, "main", "a.c", 1, 100)
	tree.Root.AddChild(proc)

	alien := tree.New(structure.Alien, "foo", "foo.h", 10, 10)
	proc.AddChild(alien)

	keep := tree.New(structure.Statement, "", "foo.h", 10, 10)
	alien.AddChild(keep)
	other := tree.New(structure.Statement, "", "foo.h", 11, 11)
	alien.AddChild(other)

	SplitAlienSiblings(tree, alien, keep)

	if assert.Len(t, alien.Children(), 1) {
		assert.Equal(t, keep, alien.Children()[0])
	}
	siblings := proc.Children()
	assert.Len(t, siblings, 2, "expected proc to gain a cloned alien sibling")

	var clone *structure.Scope
	for _, s := range siblings {
		if s != alien {
			clone = s
		}
	}
	if assert.NotNil(t, clone) {
		assert.Equal(t, structure.Alien, clone.Kind)
		if assert.Len(t, clone.Children(), 1) {
			assert.Equal(t, other, clone.Children()[0])
		}
	}
}

func TestSplitAlienSiblingsNoOpWhenAllDescendOneChild(t *testing.T) {
	tree := structure.NewTree("a.out")
	proc := tree.New(structure.Proc, "main", "a.c", 1, 100)
	tree.Root.AddChild(proc)
	alien := tree.New(structure.Alien, "foo", "foo.h", 10, 10)
	proc.AddChild(alien)
	keep := tree.New(structure.Statement, "", "foo.h", 10, 10)
	alien.AddChild(keep)

	SplitAlienSiblings(tree, alien, keep)

	assert.Len(t, proc.Children(), 1, "expected no clone created")
}
