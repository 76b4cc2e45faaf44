package structure

import "sort"

// Interval is a half-open VMA range [Beg, End).
type Interval struct {
	Beg, End uint64
}

// IntervalSet is a sorted, non-overlapping set of VMA ranges a scope
// claims — spec.md §3: "The structure tree's VMAIntervalSet on a procedure
// is non-empty and spans [begVMA, endVMA)", and §8's sibling-disjointness
// invariant.
type IntervalSet []Interval

// Add inserts [beg,end) into the set, keeping it sorted by Beg. Callers
// building a structure tree from a linear instruction stream naturally add
// intervals in increasing order; Add does not merge adjacent intervals
// since distinct statement/loop boundaries are meaningful even when
// contiguous.
func (s *IntervalSet) Add(beg, end uint64) {
	*s = append(*s, Interval{Beg: beg, End: end})
	sort.Slice(*s, func(i, j int) bool { return (*s)[i].Beg < (*s)[j].Beg })
}

// Contains reports whether vma falls within any interval of the set.
func (s IntervalSet) Contains(vma uint64) bool {
	idx := sort.Search(len(s), func(i int) bool { return s[i].Beg > vma })
	if idx == 0 {
		return false
	}
	iv := s[idx-1]
	return vma >= iv.Beg && vma < iv.End
}

// Empty reports whether the set has no intervals.
func (s IntervalSet) Empty() bool { return len(s) == 0 }

// Span returns the overall [min Beg, max End) bound of a non-empty set.
func (s IntervalSet) Span() (beg, end uint64, ok bool) {
	if len(s) == 0 {
		return 0, 0, false
	}
	beg, end = s[0].Beg, s[0].End
	for _, iv := range s[1:] {
		if iv.Beg < beg {
			beg = iv.Beg
		}
		if iv.End > end {
			end = iv.End
		}
	}
	return beg, end, true
}

// Disjoint reports whether a and b share no VMA.
func Disjoint(a, b IntervalSet) bool {
	for _, x := range a {
		for _, y := range b {
			if x.Beg < y.End && y.Beg < x.End {
				return false
			}
		}
	}
	return true
}
