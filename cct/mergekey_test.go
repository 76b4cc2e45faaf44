package cct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeKeyMatchesForMergeableStatements(t *testing.T) {
	tr := NewTree(1)
	a := tr.NewStatement(0x1000, 0)
	a.File, a.Proc = "a.c", "f"
	a.SetLineRange(5, 5)
	b := tr.NewStatement(0x1000, 0)
	b.File, b.Proc = "a.c", "f"
	b.SetLineRange(5, 5)

	assert.True(t, Mergeable(a, b))
	assert.Equal(t, mergeKey(a), mergeKey(b), "expected equal merge keys for mergeable nodes")
}

func TestMergeKeyDiffersForDistinctIP(t *testing.T) {
	tr := NewTree(1)
	a := tr.NewStatement(0x1000, 0)
	b := tr.NewStatement(0x2000, 0)

	assert.False(t, Mergeable(a, b))
	assert.NotEqual(t, mergeKey(a), mergeKey(b))
}

func TestMergeIndexFindsBucketedMatch(t *testing.T) {
	tr := NewTree(1)
	root := tr.NewPgm("a.out")
	tr.Link(root, nil)
	f := tr.NewProcedureFrame("a.c", "main", 10, false)
	tr.Link(f, root)
	s1 := tr.NewStatement(0x4000, 0)
	s1.File, s1.Proc = "a.c", "main"
	s1.SetLineRange(15, 15)
	tr.Link(s1, f)
	s2 := tr.NewStatement(0x5000, 0)
	s2.File, s2.Proc = "a.c", "main"
	s2.SetLineRange(16, 16)
	tr.Link(s2, f)

	idx := newMergeIndex(f)

	candidate := tr.NewStatement(0x4000, 0)
	candidate.File, candidate.Proc = "a.c", "main"
	candidate.SetLineRange(15, 15)

	assert.Equal(t, s1, idx.find(candidate))

	noMatch := tr.NewStatement(0x6000, 0)
	assert.Nil(t, idx.find(noMatch))
}
