package writer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/viant/afs"

	"github.com/viant/ccprof/internal/rlog"
	"github.com/viant/ccprof/profile"
)

// Write assembles a complete experiment database at dbPath: dbPath/
// experiment.xml plus dbPath/src/ (spec.md §6's "Experiment database
// layout"). dbPath is created if missing; callers wanting the CLI's
// EEXIST-retry behavior (spec.md §6's "-o defaults to ./experiment-db; if
// the directory exists, the tool retries with a PID suffix") resolve the
// final path before calling Write.
func Write(ctx context.Context, dbPath string, prof *profile.Profile, searchPaths []string, log *rlog.Logger) error {
	if err := os.MkdirAll(dbPath, 0o755); err != nil {
		return fmt.Errorf("writer: creating %s: %w", dbPath, err)
	}

	var buf bytes.Buffer
	if err := WriteXML(&buf, prof); err != nil {
		return fmt.Errorf("writer: serializing experiment.xml: %w", err)
	}

	fs := afs.New()
	xmlPath := filepath.Join(dbPath, "experiment.xml")
	if err := fs.Upload(ctx, xmlPath, 0o644, bytes.NewReader(buf.Bytes())); err != nil {
		return fmt.Errorf("writer: writing %s: %w", xmlPath, err)
	}

	if err := MirrorSources(ctx, dbPath, prof, searchPaths, log); err != nil {
		return err
	}
	return nil
}
