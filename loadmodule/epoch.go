package loadmodule

import "sort"

// Entry is one load-module-table row (spec.md §3 "Load module entry"):
// declared base (vaddr), runtime base (mapaddr), whether any sample landed
// in it, and the derived relocation amount.
type Entry struct {
	Name      string
	VAddr     uint64 // declared base, as linked
	MapAddr   uint64 // runtime base, as loaded
	Used      bool
	RelocAmt  uint64
	Module    Module // nil until resolved/attached by the caller
	Executable bool
}

// Epoch is an ordered (by MapAddr) list of load-module entries describing
// one stable configuration of loaded modules (spec.md glossary: "Epoch").
type Epoch struct {
	Entries []*Entry
}

// NewEpoch builds an Epoch from entries, sorting by MapAddr and computing
// each entry's relocation amount: a non-executable module's relocation
// amount equals its mapaddr; an executable image is not relocated
// (spec.md §3).
func NewEpoch(entries []*Entry) *Epoch {
	sorted := append([]*Entry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].MapAddr < sorted[j].MapAddr })
	for _, e := range sorted {
		if e.Executable {
			e.RelocAmt = 0
		} else {
			e.RelocAmt = e.MapAddr
		}
	}
	return &Epoch{Entries: sorted}
}

// Find returns the module entry owning vma: the one with the greatest
// MapAddr <= vma (spec.md §8 law: "Load-module lookup: for sorted modules
// with map-addresses m0 < m1 < ..., find(v) returns the module with
// greatest mi <= v"). Returns nil if vma is below every entry's MapAddr.
func (e *Epoch) Find(vma uint64) *Entry {
	// sort.Search finds the first index where Entries[i].MapAddr > vma;
	// the answer (if any) is the entry just before it.
	idx := sort.Search(len(e.Entries), func(i int) bool {
		return e.Entries[i].MapAddr > vma
	})
	if idx == 0 {
		return nil
	}
	return e.Entries[idx-1]
}

// MarkUsed flags the entry as having attributed at least one sample
// (spec.md §8 invariant: "For every IP stored on a CCT node after
// correlation: the corresponding load-module has used == true").
func (e *Entry) MarkUsed() { e.Used = true }
