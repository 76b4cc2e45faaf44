package locate

import "github.com/viant/ccprof/structure"

// infEnd stands in for the "no upper bound" end-epsilon spec.md §4.4's
// table writes as ∞.
const infEnd = 1 << 30

// beginEpsilon and endEpsilon implement spec.md §4.4's fuzzy-containment
// table. Declared procedure start lines from debug info are accurate
// while end lines are unreliable; loop start lines are accurate, loop end
// lines frequently subsume surrounding code — hence the asymmetry.
func beginEpsilon(kind structure.Kind, forIntervalContainment bool) int {
	switch kind {
	case structure.Proc:
		return 2
	case structure.Alien:
		if forIntervalContainment {
			return 10
		}
		return 25
	case structure.Loop:
		return 5
	default:
		return 0
	}
}

// endEpsilon returns the end-epsilon for kind, i.e. the value
// fuzzyContainsLine adds to a scope's own EndLine to get its fuzzy upper
// bound. endLine is that scope's own EndLine (0 for non-Proc callers, which
// ignore it); nextProcBegLine is the begLine of the next procedure in file
// order (0 if none), used for Proc's "up to the next procedure's
// begLine - 1, else 100" rule — expressed relative to endLine so the
// fuzzy upper bound lands exactly at nextProcBegLine-1 rather than
// stacking past it. insideAlien selects Loop's tighter epsilon when
// checking a loop against an alien enclosure rather than standalone.
func endEpsilon(kind structure.Kind, endLine, nextProcBegLine int, insideAlien bool) int {
	switch kind {
	case structure.Proc:
		if nextProcBegLine > 0 {
			return nextProcBegLine - 1 - endLine
		}
		return 100
	case structure.Alien:
		if insideAlien {
			return 10
		}
		return infEnd
	case structure.Loop:
		if insideAlien {
			return 20
		}
		return infEnd
	default:
		return 0
	}
}

// AlienIntervalEpsilons exposes the Alien row's interval-containment
// epsilons (spec.md §4.4 table, "10 for interval-containment") for
// correlate's bogus-alien-frame removal (spec.md §4.3 normalization step
// 1), which reuses this table rather than redeclaring it.
func AlienIntervalEpsilons() (beginEps, endEps int) {
	return beginEpsilon(structure.Alien, true), endEpsilon(structure.Alien, 0, 0, true)
}

// fuzzyContainsLine reports whether line lies within
// [s.BegLine-beginEps, s.EndLine+endEps].
func fuzzyContainsLine(s *structure.Scope, line, beginEps, endEps int) bool {
	if s.BegLine == 0 && s.EndLine == 0 {
		return false
	}
	lo := s.BegLine - beginEps
	hi := s.EndLine + endEps
	return line >= lo && line <= hi
}
