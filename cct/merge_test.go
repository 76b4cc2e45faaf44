package cct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// buildSimpleThread builds a Pgm -> PF(main) -> Statement(line) tree with a
// single metric column holding value v.
func buildSimpleThread(numMetrics int, v uint64, metricSlot int) *Tree {
	tr := NewTree(numMetrics)
	root := tr.NewPgm("a.out")
	tr.Link(root, nil)
	f := tr.NewProcedureFrame("a.c", "main", 10, false)
	tr.Link(f, root)
	s := tr.NewStatement(0x4000, 0)
	s.File, s.Proc = "a.c", "main"
	s.SetLineRange(15, 15)
	s.Metrics[metricSlot] = v
	tr.Link(s, f)
	return tr
}

// TestMergeScenario3 mirrors spec.md §8 scenario 3: two thread profiles
// with metric lists [CYCLES] and [CYCLES, CACHE_MISSES] respectively, each
// sampling the same call path; after merge the common call site carries
// three metric columns.
func TestMergeScenario3(t *testing.T) {
	x := buildSimpleThread(1, 7, 0) // thread0: CYCLES=7
	y := NewTree(2)
	yRoot := y.NewPgm("a.out")
	y.Link(yRoot, nil)
	yFrame := y.NewProcedureFrame("a.c", "main", 10, false)
	y.Link(yFrame, yRoot)
	yStmt := y.NewStatement(0x4000, 0)
	yStmt.File, yStmt.Proc = "a.c", "main"
	yStmt.SetLineRange(15, 15)
	yStmt.Metrics[0] = 3 // thread1 CYCLES
	yStmt.Metrics[1] = 9 // thread1 CACHE_MISSES
	y.Link(yStmt, yFrame)

	Merge(x, y)

	assert.Equal(t, 3, x.NumMetrics(), "expected 3 metric columns after merge")

	frame := x.Root().FirstChild()
	if assert.NotNil(t, frame) {
		assert.Equal(t, ProcedureFrame, frame.Kind())
	}
	assert.Nil(t, frame.FirstChild().NextSibling(), "expected call site to be merged into the existing frame, not appended as a sibling")

	stmt := frame.FirstChild()
	want := []uint64{7, 3, 9}
	assert.Equal(t, want, stmt.Metrics)
}

// TestMergeIdempotenceWithEmptyProfile checks spec.md §8's "Merge
// idempotence at the metric level": merging in an empty profile (zero
// metrics, no samples) leaves x unchanged in shape and values.
func TestMergeIdempotenceWithEmptyProfile(t *testing.T) {
	x := buildSimpleThread(1, 42, 0)
	empty := NewTree(0)

	Merge(x, empty)

	assert.Equal(t, 1, x.NumMetrics(), "expected metric count unchanged")
	stmt := x.Root().FirstChild().FirstChild()
	assert.Equal(t, uint64(42), stmt.Metrics[0])
}

func TestMergeGraftsUnmatchedSubtreeWithShiftedMetrics(t *testing.T) {
	x := buildSimpleThread(1, 1, 0)
	y := NewTree(1)
	yRoot := y.NewPgm("a.out")
	y.Link(yRoot, nil)
	// A different procedure frame entirely: no match in x.
	yFrame := y.NewProcedureFrame("b.c", "helper", 5, false)
	y.Link(yFrame, yRoot)
	yStmt := y.NewStatement(0x8000, 0)
	yStmt.File, yStmt.Proc = "b.c", "helper"
	yStmt.SetLineRange(6, 6)
	yStmt.Metrics[0] = 99
	y.Link(yStmt, yFrame)

	Merge(x, y)

	assert.Equal(t, 2, x.NumMetrics())
	var helper *Node
	for c := x.Root().FirstChild(); c != nil; c = c.NextSibling() {
		if c.Proc == "helper" {
			helper = c
		}
	}
	if assert.NotNil(t, helper, "expected grafted helper frame under root") {
		grafted := helper.FirstChild()
		assert.Equal(t, uint64(0), grafted.Metrics[0])
		assert.Equal(t, uint64(99), grafted.Metrics[1])
	}
}
