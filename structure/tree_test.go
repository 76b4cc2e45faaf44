package structure

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFindByVMAReturnsDeepestScope(t *testing.T) {
	tree := NewTree("a.out")
	proc := tree.New(Proc, "foo", "foo.c", 10, 40)
	proc.VMAIntervals.Add(0x1000, 0x2000)
	tree.Root.AddChild(proc)

	loop := tree.New(Loop, "", "foo.c", 15, 30)
	loop.VMAIntervals.Add(0x1100, 0x1500)
	proc.AddChild(loop)

	stmt := tree.New(Statement, "", "foo.c", 20, 20)
	stmt.VMAIntervals.Add(0x1200, 0x1210)
	loop.AddChild(stmt)

	tests := []struct {
		vma     uint64
		want    Kind
		wantNil bool
	}{
		{vma: 0x1205, want: Statement},
		{vma: 0x1300, want: Loop},
		{vma: 0x1050, want: Proc},
		{vma: 0x5000, wantNil: true},
	}
	for _, tt := range tests {
		got := tree.FindByVMA(tt.vma)
		if tt.wantNil {
			assert.Nil(t, got)
			continue
		}
		if assert.NotNil(t, got) {
			assert.Equal(t, tt.want, got.Kind)
		}
	}
}

func TestFindOrCreateAlienWidensAndReuses(t *testing.T) {
	tree := NewTree("a.out")
	proc := tree.New(Proc, "foo", "foo.c", 1, 100)
	tree.Root.AddChild(proc)

	a1 := tree.FindOrCreateAlien(proc, "inlined.h", "helper", 50, 25, 10)
	assert.Equal(t, 50, a1.BegLine)
	assert.Equal(t, 50, a1.EndLine)

	a2 := tree.FindOrCreateAlien(proc, "inlined.h", "helper", 55, 25, 10)
	assert.Equal(t, a1, a2, "expected reuse of existing alien scope")
	assert.Equal(t, 55, a2.EndLine, "alien scope not widened")

	assert.Len(t, proc.Children(), 1)
}

func TestEnclosingLoopsAndAliensOrderedOutermostFirst(t *testing.T) {
	tree := NewTree("a.out")
	proc := tree.New(Proc, "foo", "foo.c", 1, 100)
	tree.Root.AddChild(proc)

	outer := tree.New(Loop, "", "foo.c", 5, 90)
	proc.AddChild(outer)
	inner := tree.New(Loop, "", "foo.c", 10, 80)
	outer.AddChild(inner)
	alien := tree.New(Alien, "bar", "bar.c", 20, 30)
	inner.AddChild(alien)
	stmt := tree.New(Statement, "", "bar.c", 25, 25)
	alien.AddChild(stmt)

	// stmt's calling context is the alien, so the loops above it are not
	// stmt's enclosing loops; inner's calling context is proc.
	assert.Empty(t, stmt.EnclosingLoops(), "expected no loops between stmt and its calling context")
	loops := inner.EnclosingLoops()
	if assert.Len(t, loops, 2) {
		assert.Equal(t, outer, loops[0])
		assert.Equal(t, inner, loops[1])
	}

	aliens := stmt.EnclosingAliens()
	if assert.Len(t, aliens, 1) {
		assert.Equal(t, alien, aliens[0])
	}

	assert.Equal(t, alien, stmt.CallingContext())
	assert.Equal(t, proc, inner.CallingContext())
}

func TestNextProcBegLineFindsNearestFollowingSibling(t *testing.T) {
	tree := NewTree("a.out")
	file := tree.New(File, "a.c", "a.c", 0, 0)
	tree.Root.AddChild(file)

	first := tree.New(Proc, "first", "a.c", 10, 20)
	file.AddChild(first)
	third := tree.New(Proc, "third", "a.c", 60, 70)
	file.AddChild(third)
	second := tree.New(Proc, "second", "a.c", 30, 40)
	file.AddChild(second)

	assert.Equal(t, 30, first.NextProcBegLine(), "expected the nearest following proc, not just the next sibling in slice order")
	assert.Equal(t, 60, second.NextProcBegLine())
	assert.Equal(t, 0, third.NextProcBegLine(), "expected 0 for the last procedure in the file")
}

func TestIntervalSetDisjointAndSpan(t *testing.T) {
	var a, b IntervalSet
	a.Add(0x100, 0x200)
	a.Add(0x300, 0x400)
	b.Add(0x200, 0x300)

	assert.True(t, Disjoint(a, b), "expected a and b to be disjoint")

	b.Add(0x150, 0x180)
	assert.False(t, Disjoint(a, b), "expected a and b to overlap once b claims 0x150-0x180")

	beg, end, ok := a.Span()
	assert.True(t, ok)
	assert.Equal(t, uint64(0x100), beg)
	assert.Equal(t, uint64(0x400), end)
}
