// Package profile implements component H: the top-level profile object
// binding a metric-descriptor list, a load-module epoch, and a calling
// context tree together, and the thread-merge orchestration used to fold
// multiple per-thread samples into one profile.
package profile

import (
	"fmt"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/loadmodule"
)

// MetricDescriptor names one column of every CCT node's metric vector —
// spec.md §4.1: "a profile owns an ordered list of metric descriptors; a
// CCT node's metric vector is indexed positionally against that list."
type MetricDescriptor struct {
	Name        string
	Description string
	Period      uint64
	IsDerived   bool
}

// Profile is one correlated call-path profile: a program name, the epoch
// that resolved its samples' VMAs at collection time, the metric
// descriptors columns of every node's metric vector are indexed against,
// and the resulting CCT.
type Profile struct {
	ProgramName string
	Epoch       *loadmodule.Epoch
	Metrics     []MetricDescriptor
	Tree        *cct.Tree
}

// New creates an empty profile with the given metric descriptors; the CCT
// starts empty and is populated by reader.Read or by direct InsertBacktrace
// calls.
func New(programName string, epoch *loadmodule.Epoch, metrics []MetricDescriptor) *Profile {
	return &Profile{
		ProgramName: programName,
		Epoch:       epoch,
		Metrics:     metrics,
		Tree:        cct.NewTree(len(metrics)),
	}
}

// NumMetrics returns the number of metric columns in p.
func (p *Profile) NumMetrics() int { return len(p.Metrics) }

// Merge folds other's CCT into p's, per spec.md §4.1's thread-merge rule: a
// multi-threaded profile is the fold of its per-thread profiles. Merge never
// rejects a merge because the two profiles have differing metric counts
// (spec.md §8 scenario 3: a [CYCLES] profile merged with a
// [CYCLES, CACHE_MISSES] profile ends up with three columns, not a
// reconciled two) — cct.Merge always widens p's tree by other's full
// column count regardless of overlap, so the only precondition here is that
// p.Metrics was already grown to match by the caller, e.g. via
// ConcatMetricDescriptors, before Merge runs.
func (p *Profile) Merge(other *Profile) error {
	want := p.Tree.NumMetrics() + other.Tree.NumMetrics()
	if len(p.Metrics) != want {
		return fmt.Errorf("profile has %d metric descriptors, want %d: caller must append other's descriptors (e.g. via ConcatMetricDescriptors) before merging", len(p.Metrics), want)
	}
	cct.Merge(p.Tree, other.Tree)
	return nil
}

// ConcatMetricDescriptors appends other's descriptors after base unchanged,
// without deduplicating by Name. cct.Merge never unifies a donor tree's
// metric columns with matching names in the recipient — it always widens by
// the donor's full column count (cct/merge.go's Merge) — so the descriptor
// list must grow the same way to stay positionally aligned with every
// node's metric vector (spec.md §8 scenario 3).
func ConcatMetricDescriptors(base, other []MetricDescriptor) []MetricDescriptor {
	out := make([]MetricDescriptor, 0, len(base)+len(other))
	out = append(out, base...)
	out = append(out, other...)
	return out
}
