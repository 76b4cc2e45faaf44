// Package loadmodule provides the abstract view of a binary the correlator
// consumes (spec.md §2 component A): per-VMA (function, file, line)
// lookup, first-line-of-enclosing-procedure lookup, executable-vs-shared-
// object classification, and relocation. The core correlator (package
// correlate) only ever talks to the Module interface — it never decodes
// machine code itself (spec.md §1 Non-goals).
package loadmodule

// SourceLine is the (file, procedure, line) triple a Module resolves a VMA
// to.
type SourceLine struct {
	File string
	Proc string
	Line int
	// Found is false when the module has no symbol/line info for the VMA
	// at all (spec.md §7: "Soft correlation miss ... attribution stays at
	// 'unknown@<ip>'").
	Found bool
}

// Module is the abstract load-module interface spec.md §1 names as the
// boundary of this spec's scope: "the core consumes an interface offering
// sourceLineAtVMA, firstLineOfProcAtVMA, isExecutableImage, relocate(base)".
type Module interface {
	// Name returns the module's declared name (path as recorded in the
	// epoch table, e.g. "/usr/lib/libc.so.6").
	Name() string

	// SourceLineAtVMA resolves a single unrelocated VMA to source
	// attribution.
	SourceLineAtVMA(vma uint64, opIdx uint8) SourceLine

	// FirstLineOfProcAtVMA returns the first source line of the procedure
	// enclosing vma — used by the correlator's fallback path (spec.md
	// §4.3) when no static structure tree is available.
	FirstLineOfProcAtVMA(vma uint64) (line int, ok bool)

	// IsExecutableImage reports whether this module is the main
	// executable (not relocated) as opposed to a shared object (relocated
	// to its runtime mapaddr).
	IsExecutableImage() bool

	// Relocate returns the unrelocated VMA for a given runtime VMA, using
	// base as the module's runtime mapaddr.
	Relocate(runtimeVMA uint64, base uint64) uint64
}
