package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/viant/afs"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/internal/rlog"
	"github.com/viant/ccprof/profile"
)

// MirrorSources copies every distinct source file referenced by prof's CCT
// into <dbPath>/src/, pruned to files actually attributed (spec.md §6:
// "src/ (mirrored source tree, pruned to files actually referenced)").
// Missing source files are logged once and otherwise ignored — this is the
// writer-side analogue of spec.md §7's "source file not found on any -I
// path: warn once per file, attribute to load-module instead" policy; by
// the time the writer runs, correlation has already decided attribution,
// so a missing file here only means the mirror is incomplete, not that
// the database itself is invalid.
func MirrorSources(ctx context.Context, dbPath string, prof *profile.Profile, searchPaths []string, log *rlog.Logger) error {
	if log == nil {
		log = rlog.Default()
	}
	fs := afs.New()
	srcRoot := filepath.Join(dbPath, "src")

	seen := make(map[string]bool)
	root := prof.Tree.Root()
	if root == nil {
		return nil
	}
	root.Walk(func(n *cct.Node) bool {
		if n.Kind().IsCode() && n.File != "" && !seen[n.File] {
			seen[n.File] = true
		}
		return true
	})

	for file := range seen {
		resolved := resolveSource(file, searchPaths)
		if resolved == "" {
			log.WarnOnce(file, "source file %q not found on any search path", file)
			continue
		}
		content, err := fs.DownloadWithURL(ctx, resolved)
		if err != nil {
			log.WarnOnce(file, "source file %q unreadable: %v", file, err)
			continue
		}
		dest := filepath.Join(srcRoot, file)
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return fmt.Errorf("writer: mirroring %s: %w", file, err)
		}
		if err := fs.Upload(ctx, dest, 0o644, bytes.NewReader(content)); err != nil {
			return fmt.Errorf("writer: mirroring %s: %w", file, err)
		}
	}
	return nil
}

// resolveSource finds file on one of searchPaths, or returns it unchanged
// if already absolute and present.
func resolveSource(file string, searchPaths []string) string {
	if filepath.IsAbs(file) {
		if _, err := os.Stat(file); err == nil {
			return file
		}
	}
	for _, sp := range searchPaths {
		candidate := path.Join(sp, file)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	if _, err := os.Stat(file); err == nil {
		return file
	}
	return ""
}
