package reader

import (
	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/loadmodule"
)

// relocateAll walks every dynamic (CallSite/Statement) node in t, finds its
// load module via the epoch table by raw runtime IP, and "unrelocates" it:
// subtracts the module's relocation amount, records the module's index,
// and marks the module used (spec.md §4.2: "find its load module by ip via
// the epoch table, subtract relocAmt, store the unrelocated IP, record the
// module id, mark the module used"). An IP outside every module's range is
// a soft correlation miss (spec.md §7): the node is left with its raw IP
// and ModuleID -1, not relocated, not fatal.
func relocateAll(root *cct.Node, epoch *loadmodule.Epoch) {
	if root == nil || epoch == nil {
		return
	}
	index := make(map[*loadmodule.Entry]int, len(epoch.Entries))
	for i, e := range epoch.Entries {
		index[e] = i
	}
	root.Walk(func(n *cct.Node) bool {
		if n.Kind() == cct.CallSite || n.Kind() == cct.Statement {
			entry := epoch.Find(n.IP)
			if entry == nil {
				n.ModuleID = -1
			} else {
				n.Relocate(index[entry], entry.RelocAmt)
				entry.MarkUsed()
			}
		}
		return true
	})
}
