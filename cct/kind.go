package cct

// Kind identifies which of the CCT's node variants a Node carries.
//
// The tree is a tagged sum type rather than a class hierarchy: every Node
// shares one header (uid, parent/child/sibling links, metric vector) and
// the Kind-specific payload lives alongside it, unused fields left zero.
// Iteration and normalization dispatch on Kind instead of dynamic_cast.
type Kind uint8

const (
	// Pgm is the program root. Exactly one per tree, no parent.
	Pgm Kind = iota
	// Group is a named, otherwise-opaque grouping scope.
	Group
	// ProcedureFrame represents one logical call frame, real or alien (inlined).
	ProcedureFrame
	// CallSite is a raw, not-yet-normalized call-chain link carrying an IP.
	CallSite
	// Statement is a normalized leaf carrying source attribution.
	Statement
	// Loop is a reconstructed loop nest scope.
	Loop
	// StmtRange is a static statement-range scope (non-CCT-leaf structural use).
	StmtRange
)

var kindNames = [...]string{
	Pgm:            "PGM",
	Group:          "G",
	ProcedureFrame: "PF",
	CallSite:       "C",
	Statement:      "S",
	Loop:           "L",
	StmtRange:      "SR",
}

// String returns the XML element tag used by the writer for this Kind
// (spec.md §6: element tags {PGM, G, PF, C, S, L, SR}).
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "UNKNOWN"
}

// IsCode reports whether this Kind carries source-attribution fields
// (File/Proc/BegLine/EndLine/StructureID) — i.e. it descends from what the
// original implementation called CSProfCodeNode.
func (k Kind) IsCode() bool {
	switch k {
	case ProcedureFrame, CallSite, Statement, Loop, StmtRange:
		return true
	default:
		return false
	}
}

// HasMetrics reports whether this Kind carries a per-sample metric vector.
func (k Kind) HasMetrics() bool {
	switch k {
	case CallSite, Statement:
		return true
	default:
		return false
	}
}

// allowedParents enumerates, for each child Kind, the set of Kinds a parent
// may legally be (spec.md §3, "CCT node" table's Parent restriction column).
var allowedParents = map[Kind][]Kind{
	Pgm:            nil, // root only: no parent
	Group:          {Pgm, Group, ProcedureFrame, Loop, CallSite},
	ProcedureFrame: {Pgm, Group, CallSite, Loop},
	// CallSite also lists Pgm: the reader links the raw stream's
	// provisional root directly under the synthesized Pgm root before any
	// correlation pass has had a chance to promote it to a ProcedureFrame.
	CallSite: {Pgm, ProcedureFrame, CallSite, Loop, Group},
	Statement:      {ProcedureFrame, CallSite, Loop, Group},
	Loop:           {ProcedureFrame, CallSite, Loop},
	StmtRange:      {ProcedureFrame, CallSite, Loop},
}

// isAllowedParent reports whether parentKind may legally parent childKind.
func isAllowedParent(childKind, parentKind Kind) bool {
	allowed, ok := allowedParents[childKind]
	if !ok || allowed == nil {
		return false
	}
	for _, k := range allowed {
		if k == parentKind {
			return true
		}
	}
	return false
}
