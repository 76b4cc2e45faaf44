package loadmodule

import (
	"os"
	"path/filepath"

	"golang.org/x/mod/modfile"
)

// ModulePathFromExecutable walks upward from executablePath looking for a
// go.mod and returns the module path it declares plus the directory it
// lives in (spec.md §4.3's "Fallback path" needs a source root to anchor
// structure/gosource against when an executable carries no -S file and no
// DWARF). Returns ("", "", false) when no go.mod is found within
// maxLevels of the executable's directory.
func ModulePathFromExecutable(executablePath string) (modulePath, rootDir string, ok bool) {
	return findGoModule(filepath.Dir(executablePath), 8)
}

// findGoModule walks up from dir, at most maxLevels times, reading the
// first go.mod it finds.
func findGoModule(dir string, maxLevels int) (modulePath, rootDir string, ok bool) {
	for i := 0; i < maxLevels; i++ {
		goModPath := filepath.Join(dir, "go.mod")
		if content, err := os.ReadFile(goModPath); err == nil {
			if mod, err := modfile.Parse(goModPath, content, nil); err == nil && mod.Module != nil {
				return mod.Module.Mod.Path, dir, true
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", "", false
}
