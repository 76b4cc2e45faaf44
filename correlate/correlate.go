// Package correlate implements component F: the sample-to-structure
// correlator (spec.md §4.3) that rewrites a CCT whose leaves carry only
// (module, unrelocated-ip) into a tree whose interior nodes represent the
// logical call chain — inlined frames and loop nests included — correlated
// to source file/line.
package correlate

import (
	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/internal/rlog"
	"github.com/viant/ccprof/loadmodule"
	"github.com/viant/ccprof/profile"
	"github.com/viant/ccprof/structure"
)

// Options configures a Correlate call.
type Options struct {
	// StructureTrees supplies, for load modules that have one, the static
	// structure root built by the structure recovery pass (spec.md §4.5)
	// or loaded from a precomputed structure file, keyed by the module's
	// declared Name. Modules absent from this map fall back to the
	// module's own SourceLineAtVMA/FirstLineOfProcAtVMA (spec.md §4.3
	// "Fallback path").
	StructureTrees map[string]*structure.Tree
	Logger         *rlog.Logger
}

// Correlate runs spec.md §4.3's per-module correlation pass over prof's
// CCT in place, followed by the post-correlation normalization steps
// (bogus-alien removal, duplicate-leaf coalescing, perfectly-nested-loop
// merging, empty-node removal).
func Correlate(prof *profile.Profile, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = rlog.Default()
	}
	if prof.Epoch == nil || prof.Tree == nil || prof.Tree.Root() == nil {
		return nil
	}

	buckets := bucketByModule(prof.Tree.Root())

	// Process modules in reverse mapaddr order so a module processed
	// earlier never has its already-correlated nodes re-read as if they
	// were still raw dynamic nodes belonging to a later, overlapping
	// module (spec.md §4.3: "per module, in reverse order of mapaddr").
	for i := len(prof.Epoch.Entries) - 1; i >= 0; i-- {
		entry := prof.Epoch.Entries[i]
		nodes := buckets[i]
		if len(nodes) == 0 {
			continue
		}
		structTree := opts.StructureTrees[entry.Name]
		switch {
		case structTree != nil:
			correlateStructural(prof.Tree, nodes, structTree, entry)
		case entry.Module != nil:
			correlateFallback(prof.Tree, nodes, entry.Module, entry, log)
		default:
			log.WarnOnce("nostruct:"+entry.Name, "no structure tree or module available for %q; leaving %d samples unattributed", entry.Name, len(nodes))
		}
	}

	normalize(prof.Tree)
	return nil
}

// bucketByModule snapshots every dynamic node in root, grouped by the
// module index relocateAll recorded on it. Snapshotting once up front
// means the structural edits later passes perform (re-parenting nodes
// under synthesized frames) never disturb which nodes belong to which
// module's worklist.
func bucketByModule(root *cct.Node) map[int][]*cct.Node {
	buckets := make(map[int][]*cct.Node)
	root.Walk(func(n *cct.Node) bool {
		if (n.Kind() == cct.CallSite || n.Kind() == cct.Statement) && n.ModuleID >= 0 {
			buckets[n.ModuleID] = append(buckets[n.ModuleID], n)
		}
		return true
	})
	return buckets
}

// correlateStructural implements spec.md §4.3 steps 1-6 for one module's
// worklist using its static structure tree.
func correlateStructural(tree *cct.Tree, nodes []*cct.Node, structTree *structure.Tree, entry *loadmodule.Entry) {
	fc := newFrameCache()
	for _, n := range nodes {
		s := structTree.FindByVMA(n.IP)
		if s == nil {
			// Soft correlation miss (spec.md §7): leave n's attribution
			// and position untouched.
			continue
		}
		c := s.CallingContext()
		if c == nil {
			n.File = entry.Name
			n.Proc = ""
			n.SetLineRange(0, 0)
			n.FileIsText = false
			n.StructureID = structTree.Root.ID
			continue
		}

		n.File = c.File
		n.Proc = c.Name
		n.SetLineRange(s.BegLine, s.BegLine)
		n.FileIsText = true
		n.StructureID = s.ID

		originalParent := n.Parent()
		attach := originalParent
		for _, sc := range s.MirrorChain() {
			attach = fc.ensure(tree, attach, sc)
		}
		if attach != originalParent {
			tree.Unlink(n)
			tree.Link(n, attach)
		}
	}
}

// frameCache finds-or-creates a ProcedureFrame/Loop CCT node for a
// structure scope, keyed by (attachment point, scope) so that two samples
// reaching the same calling context through the same existing ancestor
// share one synthesized node (spec.md §4.3 step 5: "keyed by c pointer,
// per parent ... remembering the mapping (frame, loop) -> cctLoopNode so
// that sibling samples reuse the same synthetic loop nodes").
type frameCache struct {
	nodes map[frameKey]*cct.Node
}

type frameKey struct {
	parent *cct.Node
	scope  *structure.Scope
}

func newFrameCache() *frameCache {
	return &frameCache{nodes: make(map[frameKey]*cct.Node)}
}

func (fc *frameCache) ensure(tree *cct.Tree, parent *cct.Node, scope *structure.Scope) *cct.Node {
	key := frameKey{parent, scope}
	if n, ok := fc.nodes[key]; ok {
		return n
	}
	var node *cct.Node
	if scope.Kind == structure.Loop {
		node = tree.NewLoop(scope.BegLine, scope.EndLine, scope.ID)
	} else {
		node = tree.NewProcedureFrame(scope.File, scope.Name, scope.BegLine, scope.Kind == structure.Alien)
		node.StructureID = scope.ID
	}
	tree.Link(node, parent)
	fc.nodes[key] = node
	return node
}

// correlateFallback implements spec.md §4.3's simpler fallback path for a
// module with no structure tree: frames are keyed by (file, proc) only,
// loops are not reconstructed, and the frame's line is the first line of
// the enclosing procedure.
func correlateFallback(tree *cct.Tree, nodes []*cct.Node, module loadmodule.Module, entry *loadmodule.Entry, log *rlog.Logger) {
	fc := newFallbackCache()
	for _, n := range nodes {
		sl := module.SourceLineAtVMA(n.IP, n.OpIdx)
		if !sl.Found {
			log.WarnOnce("miss:"+entry.Name, "soft correlation miss in %s at ip %#x", entry.Name, n.IP)
			continue
		}
		n.File = sl.File
		n.Proc = sl.Proc
		n.SetLineRange(sl.Line, sl.Line)
		n.FileIsText = true
		n.StructureID = 0

		firstLine, ok := module.FirstLineOfProcAtVMA(n.IP)
		if !ok {
			firstLine = sl.Line
		}

		originalParent := n.Parent()
		frame := fc.ensure(tree, originalParent, sl.File, sl.Proc, firstLine)
		if frame != originalParent {
			tree.Unlink(n)
			tree.Link(n, frame)
		}
	}
}

type fallbackKey struct {
	parent     *cct.Node
	file, proc string
}

type fallbackCache struct {
	nodes map[fallbackKey]*cct.Node
}

func newFallbackCache() *fallbackCache {
	return &fallbackCache{nodes: make(map[fallbackKey]*cct.Node)}
}

func (fc *fallbackCache) ensure(tree *cct.Tree, parent *cct.Node, file, proc string, line int) *cct.Node {
	key := fallbackKey{parent, file, proc}
	if n, ok := fc.nodes[key]; ok {
		return n
	}
	node := tree.NewProcedureFrame(file, proc, line, false)
	tree.Link(node, parent)
	fc.nodes[key] = node
	return node
}

