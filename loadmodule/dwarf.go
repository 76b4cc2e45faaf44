package loadmodule

import (
	"debug/dwarf"
	"debug/elf"
	"debug/macho"
	"fmt"
	"sort"
	"strings"

	"github.com/ianlancetaylor/demangle"
)

// DWARFModule is the one concrete backend for the Module interface: it
// resolves VMAs against a real binary's DWARF line-number program and
// DW_TAG_subprogram DIEs. Everything upstream of this file (the
// correlator, the location manager, the CCT model) never imports
// debug/dwarf directly — they only see the Module interface, matching
// spec.md §1's framing of machine-code decoding as an external concern.
type DWARFModule struct {
	name       string
	executable bool
	lines      []lineRow   // sorted by Addr
	funcs      []funcRange // sorted by Low
}

type lineRow struct {
	Addr uint64
	File string
	Line int
}

type funcRange struct {
	Low, High uint64
	Name      string
	FirstLine int
}

// OpenDWARFModule loads DWARF debug info from an ELF or Mach-O binary at
// path. C++ procedure names are demangled with
// github.com/ianlancetaylor/demangle before being stored (spec.md §9's
// note that attribution should yield readable procedure names; see
// SPEC_FULL.md's domain-stack section for the grounding of this choice).
func OpenDWARFModule(name, path string) (*DWARFModule, error) {
	if ef, err := elf.Open(path); err == nil {
		defer ef.Close()
		dw, err := ef.DWARF()
		if err != nil {
			return nil, fmt.Errorf("loadmodule: %s: no DWARF section: %w", path, err)
		}
		m := &DWARFModule{name: name, executable: ef.Type == elf.ET_EXEC}
		if err := m.load(dw); err != nil {
			return nil, err
		}
		return m, nil
	}
	if mf, err := macho.Open(path); err == nil {
		defer mf.Close()
		dw, err := mf.DWARF()
		if err != nil {
			return nil, fmt.Errorf("loadmodule: %s: no DWARF section: %w", path, err)
		}
		m := &DWARFModule{name: name, executable: mf.Type == macho.TypeExec}
		if err := m.load(dw); err != nil {
			return nil, err
		}
		return m, nil
	}
	return nil, fmt.Errorf("loadmodule: %s: not a recognized ELF or Mach-O image", path)
}

func (m *DWARFModule) load(dw *dwarf.Data) error {
	reader := dw.Reader()
	for {
		entry, err := reader.Next()
		if err != nil {
			return fmt.Errorf("loadmodule: reading DWARF DIEs: %w", err)
		}
		if entry == nil {
			break
		}
		if entry.Tag == dwarf.TagSubprogram {
			m.addSubprogram(dw, entry)
		}
		if entry.Tag == dwarf.TagCompileUnit {
			m.addLineTable(dw, entry)
		}
	}
	sort.Slice(m.funcs, func(i, j int) bool { return m.funcs[i].Low < m.funcs[j].Low })
	sort.Slice(m.lines, func(i, j int) bool { return m.lines[i].Addr < m.lines[j].Addr })
	return nil
}

func (m *DWARFModule) addSubprogram(dw *dwarf.Data, entry *dwarf.Entry) {
	low, lowOK := entry.Val(dwarf.AttrLowpc).(uint64)
	if !lowOK {
		return
	}
	high := highPC(entry, low)
	name, _ := entry.Val(dwarf.AttrName).(string)
	name = demangleName(name)
	m.funcs = append(m.funcs, funcRange{Low: low, High: high, Name: name})
}

// highPC normalizes DWARF's two encodings for AttrHighpc: an absolute
// address (DWARF2-4 typical producers) or an offset from low (DWARF4+
// "constant form").
func highPC(entry *dwarf.Entry, low uint64) uint64 {
	switch v := entry.Val(dwarf.AttrHighpc).(type) {
	case uint64:
		if v < low {
			return low + v
		}
		return v
	case int64:
		return low + uint64(v)
	default:
		return low
	}
}

func demangleName(name string) string {
	if name == "" {
		return name
	}
	if strings.HasPrefix(name, "_Z") || strings.HasPrefix(name, "__Z") {
		if out, err := demangle.ToString(name, demangle.NoParams); err == nil {
			return out
		}
		return demangle.Filter(name)
	}
	return name
}

func (m *DWARFModule) addLineTable(dw *dwarf.Data, cuEntry *dwarf.Entry) {
	lr, err := dw.LineReader(cuEntry)
	if err != nil || lr == nil {
		return
	}
	var le dwarf.LineEntry
	for {
		if err := lr.Next(&le); err != nil {
			break
		}
		if le.IsStmt {
			m.lines = append(m.lines, lineRow{Addr: le.Address, File: fileName(le), Line: le.Line})
		}
	}
}

func fileName(le dwarf.LineEntry) string {
	if le.File == nil {
		return ""
	}
	return le.File.Name
}

func (m *DWARFModule) Name() string { return m.name }

func (m *DWARFModule) funcAt(vma uint64) *funcRange {
	idx := sort.Search(len(m.funcs), func(i int) bool { return m.funcs[i].Low > vma })
	if idx == 0 {
		return nil
	}
	f := &m.funcs[idx-1]
	if vma < f.High || f.High == f.Low {
		return f
	}
	return nil
}

func (m *DWARFModule) SourceLineAtVMA(vma uint64, _ uint8) SourceLine {
	idx := sort.Search(len(m.lines), func(i int) bool { return m.lines[i].Addr > vma })
	if idx == 0 {
		return SourceLine{}
	}
	row := m.lines[idx-1]
	proc := ""
	if f := m.funcAt(vma); f != nil {
		proc = f.Name
	}
	return SourceLine{File: row.File, Proc: proc, Line: row.Line, Found: true}
}

func (m *DWARFModule) FirstLineOfProcAtVMA(vma uint64) (int, bool) {
	f := m.funcAt(vma)
	if f == nil {
		return 0, false
	}
	idx := sort.Search(len(m.lines), func(i int) bool { return m.lines[i].Addr > f.Low })
	if idx == 0 {
		return 0, false
	}
	return m.lines[idx-1].Line, true
}

func (m *DWARFModule) IsExecutableImage() bool { return m.executable }

func (m *DWARFModule) Relocate(runtimeVMA uint64, base uint64) uint64 {
	if m.executable {
		return runtimeVMA
	}
	if runtimeVMA < base {
		return runtimeVMA
	}
	return runtimeVMA - base
}
