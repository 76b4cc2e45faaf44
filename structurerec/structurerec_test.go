package structurerec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/viant/ccprof/locate"
	"github.com/viant/ccprof/structure"
)

// simpleLoopProcedure builds:
//
//	block0 (entry, line 1) --fallthrough--> block1 (header, line 2)
//	block1 --condjump--> block2 (body, line 3) --jump(back edge)--> block1
//	block1 --fallthrough--> block3 (exit, line 4) --return-->
func simpleLoopProcedure() *Procedure {
	return &Procedure{
		Name: "sum", File: "a.c", BegLine: 1, Entry: 0,
		Blocks: []*BasicBlock{
			{ID: 0, Instructions: []Instruction{{VMA: 0x100, File: "a.c", Proc: "sum", Line: 1}},
				Successors: []Edge{{Kind: EdgeFallthrough, Target: 1}}},
			{ID: 1, Instructions: []Instruction{{VMA: 0x110, File: "a.c", Proc: "sum", Line: 2}},
				Successors: []Edge{{Kind: EdgeCondJump, Target: 2}, {Kind: EdgeFallthrough, Target: 3}}},
			{ID: 2, Instructions: []Instruction{{VMA: 0x120, File: "a.c", Proc: "sum", Line: 3}},
				Successors: []Edge{{Kind: EdgeJump, Target: 1}}},
			{ID: 3, Instructions: []Instruction{{VMA: 0x130, File: "a.c", Proc: "sum", Line: 4}},
				Successors: []Edge{{Kind: EdgeReturn, Target: -1}}},
		},
	}
}

func TestBuildLoopForestFindsSingleNaturalLoop(t *testing.T) {
	p := simpleLoopProcedure()
	roots, owner := buildLoopForest(p)

	require := assert.New(t)
	if require.Len(roots, 1) {
		l := roots[0]
		require.Equal(1, l.header)
		require.Len(l.blocks, 2, "expected loop blocks {1,2}")
		require.True(l.blocks[1])
		require.True(l.blocks[2])
		require.Equal(l, owner[1])
		require.Equal(l, owner[2])
		_, ok0 := owner[0]
		require.False(ok0, "expected entry block to belong to no loop")
		_, ok3 := owner[3]
		require.False(ok3, "expected exit block to belong to no loop")
		require.Equal(3, bestHeaderLine(p, l), "expected best header line 3 (the back edge's source line)")
	}
}

// nestedLoopProcedure wraps simpleLoopProcedure's loop in an outer loop:
//
//	block0 (entry, line 1) -> block1 (outer header, line 2)
//	block1 -condjump-> block2 (inner header, line 3)
//	block2 -condjump-> block3 (inner body, line 4) -jump(back edge)-> block2
//	block2 -fallthrough-> block4 (outer latch, line 5) -jump(back edge)-> block1
//	block1 -fallthrough-> block5 (exit, line 6) -return->
func nestedLoopProcedure() *Procedure {
	return &Procedure{
		Name: "nested", File: "a.c", BegLine: 1, Entry: 0,
		Blocks: []*BasicBlock{
			{ID: 0, Instructions: []Instruction{{File: "a.c", Proc: "nested", Line: 1}},
				Successors: []Edge{{Kind: EdgeFallthrough, Target: 1}}},
			{ID: 1, Instructions: []Instruction{{File: "a.c", Proc: "nested", Line: 2}},
				Successors: []Edge{{Kind: EdgeCondJump, Target: 2}, {Kind: EdgeFallthrough, Target: 5}}},
			{ID: 2, Instructions: []Instruction{{File: "a.c", Proc: "nested", Line: 3}},
				Successors: []Edge{{Kind: EdgeCondJump, Target: 3}, {Kind: EdgeFallthrough, Target: 4}}},
			{ID: 3, Instructions: []Instruction{{File: "a.c", Proc: "nested", Line: 4}},
				Successors: []Edge{{Kind: EdgeJump, Target: 2}}},
			{ID: 4, Instructions: []Instruction{{File: "a.c", Proc: "nested", Line: 5}},
				Successors: []Edge{{Kind: EdgeJump, Target: 1}}},
			{ID: 5, Instructions: []Instruction{{File: "a.c", Proc: "nested", Line: 6}},
				Successors: []Edge{{Kind: EdgeReturn, Target: -1}}},
		},
	}
}

func TestBuildLoopForestNestsInnerLoopUnderOuter(t *testing.T) {
	p := nestedLoopProcedure()
	roots, owner := buildLoopForest(p)

	a := assert.New(t)
	if !a.Len(roots, 1) {
		return
	}
	outer := roots[0]
	a.Equal(1, outer.header)
	for _, b := range []int{1, 2, 3, 4} {
		a.True(outer.blocks[b], "expected outer loop to contain block %d", b)
	}
	if a.Len(outer.children, 1) {
		inner := outer.children[0]
		a.Equal(2, inner.header)
		a.True(inner.blocks[2])
		a.True(inner.blocks[3])
		a.Equal(inner, owner[2])
		a.Equal(inner, owner[3])
	}
	a.Equal(outer, owner[1])
	a.Equal(outer, owner[4])
	_, ok0 := owner[0]
	a.False(ok0, "expected entry block to belong to no loop")
	_, ok5 := owner[5]
	a.False(ok5, "expected exit block to belong to no loop")
}

func TestRecoverPlacesLoopAndStatementScopes(t *testing.T) {
	p := simpleLoopProcedure()
	tree := structure.NewTree("a.out")
	proc := tree.New(structure.Proc, "sum", "a.c", 1, 4)
	tree.Root.AddChild(proc)

	mgr := locate.NewManager(tree)
	mgr.BegSeq(proc)
	Recover(p, mgr, proc, Options{})
	mgr.EndSeq()

	a := assert.New(t)
	var loopScope *structure.Scope
	var directStatements int
	for _, c := range proc.Children() {
		switch c.Kind {
		case structure.Loop:
			loopScope = c
		case structure.Statement:
			directStatements++
		}
	}
	if a.NotNil(loopScope, "expected a Loop scope directly under proc") {
		a.Equal(3, loopScope.BegLine, "expected loop scope begin line 3 (back edge source line)")
	}
	a.Equal(2, directStatements, "expected the entry and exit blocks' statements directly under proc")

	var loopStatements int
	for _, c := range loopScope.Children() {
		if c.Kind == structure.Statement {
			loopStatements++
		}
	}
	a.Equal(2, loopStatements, "expected the header and body blocks' statements under the loop")
}

func TestRecoverNestsInnerLoopScopeUnderOuterLoopScope(t *testing.T) {
	p := nestedLoopProcedure()
	tree := structure.NewTree("a.out")
	proc := tree.New(structure.Proc, "nested", "a.c", 1, 6)
	tree.Root.AddChild(proc)

	mgr := locate.NewManager(tree)
	mgr.BegSeq(proc)
	Recover(p, mgr, proc, Options{})
	mgr.EndSeq()

	a := assert.New(t)
	var outerScope *structure.Scope
	for _, c := range proc.Children() {
		if c.Kind == structure.Loop {
			outerScope = c
		}
	}
	if !a.NotNil(outerScope, "expected an outer Loop scope under proc") {
		return
	}
	var innerScope *structure.Scope
	for _, c := range outerScope.Children() {
		if c.Kind == structure.Loop {
			innerScope = c
		}
	}
	a.NotNil(innerScope, "expected an inner Loop scope under the outer loop")
}
