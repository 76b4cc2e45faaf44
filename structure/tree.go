package structure

// Tree owns one load module's static structure scope tree plus the id
// counter used to stamp every Scope (the structureId CCT nodes reference).
type Tree struct {
	Root    *Scope
	nextID  uint64
}

// NewTree creates an empty structure tree rooted at a LoadModuleScope named
// moduleName.
func NewTree(moduleName string) *Tree {
	t := &Tree{}
	t.Root = t.New(LoadModuleScope, moduleName, moduleName, 0, 0)
	return t
}

// New allocates a detached Scope with a fresh id; callers link it in with
// Scope.AddChild.
func (t *Tree) New(kind Kind, name, file string, begLine, endLine int) *Scope {
	t.nextID++
	return &Scope{ID: t.nextID, Kind: kind, Name: name, File: file, BegLine: begLine, EndLine: endLine}
}

// FindByVMA returns the deepest scope in the tree whose VMA-interval set
// contains vma (spec.md §8 law: "Structure lookup: for a VMA in [begVMA,
// endVMA), findByVMA returns the deepest scope whose VMA-interval set
// contains it"). Returns nil if no scope claims vma.
func (t *Tree) FindByVMA(vma uint64) *Scope {
	return findByVMA(t.Root, vma)
}

func findByVMA(s *Scope, vma uint64) *Scope {
	if s == nil {
		return nil
	}
	if !s.VMAIntervals.Empty() && !s.VMAIntervals.Contains(vma) {
		return nil
	}
	var deepest *Scope
	for _, c := range s.children {
		if found := findByVMA(c, vma); found != nil {
			deepest = found
		}
	}
	if deepest != nil {
		return deepest
	}
	if s.VMAIntervals.Contains(vma) || (s.Kind == LoadModuleScope && s.VMAIntervals.Empty()) {
		if s.Kind == LoadModuleScope && s.VMAIntervals.Empty() {
			return nil
		}
		return s
	}
	return nil
}

// FindOrCreateAlien returns the Alien scope keyed by (parent, file, proc)
// under parent, restricted to scopes whose existing line bounds fuzzily
// contain line (spec.md §4.4 step 4: "find or create an alien scope keyed
// by (parentScopeNode, filename, procname) and restricted to those where
// line is within fuzzy containment of the existing bounds"). Creation
// widens the found/new scope's line bounds to include line.
func (t *Tree) FindOrCreateAlien(parent *Scope, file, proc string, line int, beginEps, endEps int) *Scope {
	for _, c := range parent.children {
		if c.Kind != Alien || c.File != file || c.Name != proc {
			continue
		}
		if fuzzyContains(c.BegLine, c.EndLine, line, beginEps, endEps) {
			widen(c, line)
			return c
		}
	}
	alien := t.New(Alien, proc, file, line, line)
	parent.AddChild(alien)
	return alien
}

func widen(s *Scope, line int) {
	if line < s.BegLine {
		s.BegLine = line
	}
	if line > s.EndLine {
		s.EndLine = line
	}
}

// fuzzyContains reports whether line falls within [beg-beginEps,
// end+endEps] (endEps<0 meaning unbounded above is represented by callers
// passing a very large value).
func fuzzyContains(beg, end, line, beginEps, endEps int) bool {
	return line >= beg-beginEps && line <= end+endEps
}
