package cct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestInsertBacktracePartialUnwind mirrors spec.md §8 scenario 5: a sample
// whose return-address chain aborts should be anchored under
// partial_unw_root, not the main tree, and increment PartialCount.
func TestInsertBacktracePartialUnwind(t *testing.T) {
	tr := NewTree(1)
	stats := &InsertStats{}

	chain := []Frame{ // innermost first
		{IP: 0x300},
		{IP: 0x200},
		{IP: 0x100},
	}
	leaf := InsertBacktrace(tr, chain, nil, InsertOptions{Partial: true}, stats)
	assert.NotNil(t, leaf, "expected a node from partial insertion")
	assert.Equal(t, uint64(1), stats.PartialCount)

	root := tr.Root()
	if assert.NotNil(t, root) {
		assert.Equal(t, Pgm, root.Kind(), "expected synthesized Pgm root")
	}
	var sawPartialRoot bool
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		if c.Kind() == Group && c.Name == "partial_unw_root" {
			sawPartialRoot = true
			assert.NotNil(t, c.FirstChild(), "expected partial_unw_root to have the anchored chain under it")
		}
	}
	assert.True(t, sawPartialRoot, "expected a partial_unw_root child of Pgm")
	// Partial chain must not pollute the main subtree.
	for c := root.FirstChild(); c != nil; c = c.NextSibling() {
		assert.NotEqual(t, CallSite, c.Kind(), "partial unwind leaked into main tree instead of partial_unw_root")
	}
}

// TestInsertBacktraceRecursionCompression mirrors spec.md §8 scenario 6:
// chain main -> r -> r -> r -> leaf should collapse consecutive identical
// functions, but always preserve the first and last frame of the run.
func TestInsertBacktraceRecursionCompression(t *testing.T) {
	tr := NewTree(1)
	const rIP = 0x900
	chain := []Frame{ // innermost first
		{IP: 0x1000}, // leaf
		{IP: rIP},    // r (3rd, innermost recursive call)
		{IP: rIP},    // r (2nd, middle — should collapse)
		{IP: rIP},    // r (1st, outermost recursive call — entry)
		{IP: 0x100},  // main
	}
	InsertBacktrace(tr, chain, nil, InsertOptions{}, nil)

	root := tr.Root()
	main := root.FirstChild()
	if assert.NotNil(t, main) {
		assert.Equal(t, uint64(0x100), main.IP, "expected main frame directly under root")
	}
	rEntry := main.FirstChild()
	if assert.NotNil(t, rEntry) {
		assert.Equal(t, uint64(rIP), rEntry.IP, "expected entry r frame under main")
	}
	rExit := rEntry.FirstChild()
	if assert.NotNil(t, rExit) {
		assert.Equal(t, uint64(rIP), rExit.IP, "expected exit r frame directly under entry r frame (middle collapsed)")
	}
	leaf := rExit.FirstChild()
	if assert.NotNil(t, leaf) {
		assert.Equal(t, uint64(0x1000), leaf.IP, "expected leaf frame under exit r frame")
	}
	assert.Nil(t, leaf.FirstChild(), "expected exactly four nodes in the recursive chain")
}

func TestInsertBacktraceReusesMatchingChild(t *testing.T) {
	tr := NewTree(1)
	chain := []Frame{{IP: 0x200}, {IP: 0x100}}
	first := InsertBacktrace(tr, chain, nil, InsertOptions{}, nil)
	second := InsertBacktrace(tr, chain, nil, InsertOptions{}, nil)
	assert.Equal(t, first, second, "expected repeated identical backtrace to reuse the same node")
	assert.Equal(t, first, first.Parent().Children()[0], "expected single child, not a duplicate sibling")
}

func TestInsertBacktraceFinalizerVeto(t *testing.T) {
	tr := NewTree(1)
	opts := InsertOptions{Finalizers: []BacktraceFinalizer{
		func(chain []Frame) ([]Frame, bool) { return nil, false },
	}}
	leaf := InsertBacktrace(tr, []Frame{{IP: 1}}, nil, opts, nil)
	assert.Nil(t, leaf, "expected vetoed backtrace to insert nothing")
}
