package cct

// This file implements the streaming insertion primitive of spec.md §4.6.
// It is the one piece of sampling-side machinery the CCT model must expose
// even though the sampling runtime itself is out of this spec's scope
// (spec.md §1 Non-goals) — spec.md §4.6 is explicit that "the CCT provides
// a streaming insert-backtrace primitive used by the sampling side at
// runtime" and must be exercised here.

// Frame describes one entry of a raw call chain handed to InsertBacktrace,
// innermost first.
type Frame struct {
	IP        uint64
	OpIdx     uint8
	AssocInfo AssocInfo
	LIP       LIP
}

// BacktraceFinalizer rewrites a raw backtrace before insertion (spec.md
// §4.6: "A cct_backtrace_finalize hook chain allows registered finalizers
// to rewrite the backtrace ... before insertion"). Return the (possibly
// modified) chain; returning ok=false vetoes insertion entirely.
type BacktraceFinalizer func(chain []Frame) (out []Frame, ok bool)

// CursorFinalizer chooses a non-default insertion cursor — the node under
// which the backtrace should be spliced — given the tree and the default
// cursor InsertBacktrace would otherwise use (spec.md §4.6: "A
// cct_cursor_finalize chain can choose a non-default insertion cursor").
type CursorFinalizer func(t *Tree, defaultCursor *Node) *Node

// Trampoline caches the last CCT node a thread inserted into, so the next
// sample that still has that return address live on its stack can stop
// unwinding there and splice only the new suffix (spec.md §4.6).
type Trampoline struct {
	Node       *Node
	ReturnAddr uint64
	depth      int
}

// PartialUnwindRoot returns (creating if absent) the dedicated child of the
// Pgm root, a sibling of the main call-path subtree, under which
// partial/aborted unwinds are anchored (spec.md
// §4.6: "Partial unwinds are anchored under a dedicated partial_unw_root
// sibling to preserve them while marking them incomplete"; also spec.md §8
// scenario 5). It is always a Group node named "partial_unw_root".
func PartialUnwindRoot(t *Tree) *Node {
	pgm := t.root
	if pgm == nil {
		invariantf("PartialUnwindRoot", 0, "tree has no root")
	}
	for c := pgm.firstChild; c != nil; c = c.nextSibling {
		if c.kind == Group && c.Name == "partial_unw_root" {
			return c
		}
	}
	root := t.NewGroup("partial_unw_root")
	t.Link(root, pgm)
	return root
}

// InsertOptions configures one InsertBacktrace call.
type InsertOptions struct {
	// RetainRecursion disables recursion compression: without it,
	// consecutive identical-function frames are collapsed to one node
	// (spec.md §4.4 "Recursion compression"). The first and last frame of
	// any recursive run are always preserved regardless of this setting,
	// so trampoline-based return tracking can anchor the entry correctly
	// (spec.md §4.4, last sentence).
	RetainRecursion bool
	// Finalizers run, in order, before insertion.
	Finalizers []BacktraceFinalizer
	// CursorFinalizers run, in order, after the default cursor is chosen.
	CursorFinalizers []CursorFinalizer
	// Partial marks this chain as an aborted/partial unwind (spec.md §8
	// scenario 5): it is anchored under PartialUnwindRoot instead of the
	// normal call-path subtree, and PartialCount is incremented.
	Partial bool
}

// InsertStats accumulates the counters spec.md §8 scenario 5 references
// (hpcrun_stats_num_samples_partial in the original).
type InsertStats struct {
	PartialCount uint64
	InsertCount  uint64
}

// funcIdentity is the "same function" test recursion compression keys on —
// spec.md §4.4: "same the_function normalized IP". Two frames are the same
// function when their IP fields are equal; no return-address adjustment is
// applied.
func funcIdentity(f Frame) uint64 { return f.IP }

// InsertBacktrace walks chain from outermost to innermost starting at
// cursor (or the tree's Pgm root if cursor is nil and no CursorFinalizer
// overrides it), creating or reusing CallSite children by the spec.md §4.1
// mergeable-equality rule, and returns the innermost node reached (spec.md
// §4.6: "walk from the outermost root down; at each step, find the child
// matching the current address descriptor or create a new one").
func InsertBacktrace(t *Tree, chain []Frame, cursor *Node, opts InsertOptions, stats *InsertStats) *Node {
	for _, fz := range opts.Finalizers {
		out, ok := fz(chain)
		if !ok {
			return nil
		}
		chain = out
	}

	if t.root == nil {
		t.root = t.NewPgm("")
	}

	base := cursor
	if opts.Partial {
		base = PartialUnwindRoot(t)
	} else if base == nil {
		base = t.root
	}
	for _, cf := range opts.CursorFinalizers {
		base = cf(t, base)
	}

	outermostFirst := make([]Frame, len(chain))
	for i, f := range chain {
		outermostFirst[len(chain)-1-i] = f
	}

	cur := base
	for i := 0; i < len(outermostFirst); i++ {
		f := outermostFirst[i]
		isRecursiveMiddle := !opts.RetainRecursion &&
			i > 0 && i < len(outermostFirst)-1 &&
			funcIdentity(outermostFirst[i-1]) == funcIdentity(f) &&
			funcIdentity(f) == funcIdentity(outermostFirst[i+1])
		if isRecursiveMiddle {
			continue
		}
		cur = findOrInsertChild(t, cur, f)
	}

	if stats != nil {
		stats.InsertCount++
		if opts.Partial {
			stats.PartialCount++
		}
	}
	return cur
}

func findOrInsertChild(t *Tree, parent *Node, f Frame) *Node {
	candidate := &Node{kind: CallSite, IP: f.IP, OpIdx: f.OpIdx, AssocInfo: f.AssocInfo, LIP: f.LIP}
	for c := parent.firstChild; c != nil; c = c.nextSibling {
		if c.kind == CallSite && Mergeable(c, candidate) {
			return c
		}
	}
	n := t.NewCallSite(f.IP, f.OpIdx)
	n.AssocInfo, n.LIP = f.AssocInfo, f.LIP
	t.Link(n, parent)
	return n
}
