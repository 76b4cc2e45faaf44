package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/correlate"
	"github.com/viant/ccprof/internal/rlog"
	"github.com/viant/ccprof/loadmodule"
	"github.com/viant/ccprof/profile"
	"github.com/viant/ccprof/reader"
	"github.com/viant/ccprof/structure"
	"github.com/viant/ccprof/structure/gosource"
	"github.com/viant/ccprof/writer"
)

// exit codes per spec.md §7's error-kind/disposition table.
const (
	exitOK    = 0
	exitUsage = 1
	exitFatal = 2
)

// config collects the CLI's parsed flags and positional arguments; main
// builds one from the cobra command, runCorrelator only ever sees this.
type config struct {
	executable   string
	profilePaths []string
	searchPaths  []string
	structFiles  []string
	outDir       string
	logger       *rlog.Logger
}

// runCorrelator implements spec.md §6's pipeline: read every profile file
// against the executable, merge them into one profile, correlate it
// against static structure (recovered or precomputed), and write the
// experiment database. Structural-inconsistency panics raised deep in cct
// (cct.InvariantError) are recovered here and reported as exitFatal, same
// as any other internal error; argument and input problems the reader
// itself classifies as reader.FatalError are reported as exitUsage.
func runCorrelator(ctx context.Context, cfg config, stdout, stderr io.Writer) (code int) {
	defer func() {
		if r := recover(); r != nil {
			if ie, ok := r.(*cct.InvariantError); ok {
				fmt.Fprintf(stderr, "ccprof: %v\n", ie)
				code = exitFatal
				return
			}
			panic(r)
		}
	}()

	exeModule, err := loadmodule.OpenDWARFModule(filepath.Base(cfg.executable), cfg.executable)
	if err != nil {
		fmt.Fprintf(stderr, "ccprof: opening executable %s: %v\n", cfg.executable, err)
		return exitUsage
	}

	merged, err := readAndMergeProfiles(cfg, exeModule)
	if err != nil {
		fmt.Fprintf(stderr, "ccprof: %v\n", err)
		return exitUsage
	}

	attachModules(merged, exeModule, cfg.logger)

	structTrees, err := loadStructureFiles(cfg.structFiles)
	if err != nil {
		fmt.Fprintf(stderr, "ccprof: %v\n", err)
		return exitUsage
	}
	attachGoSourceFallback(cfg, merged, structTrees)

	if err := correlate.Correlate(merged, correlate.Options{
		StructureTrees: structTrees,
		Logger:         cfg.logger,
	}); err != nil {
		fmt.Fprintf(stderr, "ccprof: correlate: %v\n", err)
		return exitFatal
	}

	dbPath, err := resolveOutputDir(cfg.outDir)
	if err != nil {
		fmt.Fprintf(stderr, "ccprof: %v\n", err)
		return exitFatal
	}

	if err := writer.Write(ctx, dbPath, merged, cfg.searchPaths, cfg.logger); err != nil {
		fmt.Fprintf(stderr, "ccprof: writing experiment database: %v\n", err)
		return exitFatal
	}

	fmt.Fprintf(stdout, "%s\n", dbPath)
	return exitOK
}

// readAndMergeProfiles reads every profile file in cfg against exeModule's
// name and folds them into a single Profile, per spec.md §8 scenario 3
// ("Merged profiles"). A single profile file skips the merge machinery
// entirely and is returned as read.
func readAndMergeProfiles(cfg config, exeModule *loadmodule.DWARFModule) (*profile.Profile, error) {
	var merged *profile.Profile
	for _, path := range cfg.profilePaths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening profile %s: %w", path, err)
		}
		prof, _, err := reader.Read(f, reader.Options{
			ExecutablePath: cfg.executable,
			Logger:         cfg.logger,
		})
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("reading profile %s: %w", path, err)
		}
		if merged == nil {
			merged = prof
			continue
		}
		merged.Metrics = profile.ConcatMetricDescriptors(merged.Metrics, prof.Metrics)
		if err := merged.Merge(prof); err != nil {
			return nil, fmt.Errorf("merging profile %s: %w", path, err)
		}
	}
	return merged, nil
}

// attachModules resolves exeModule against its epoch entry and
// opportunistically opens a DWARFModule for every other entry whose Name
// resolves to a readable file on disk (spec.md §4.3's fallback path needs
// a Module attached per entry; entries this can't resolve are left nil and
// correlate.Correlate warns once and falls back to "unknown@<ip>" leaves).
func attachModules(prof *profile.Profile, exeModule *loadmodule.DWARFModule, log *rlog.Logger) {
	if prof == nil || prof.Epoch == nil {
		return
	}
	for _, entry := range prof.Epoch.Entries {
		if entry.Executable {
			entry.Module = exeModule
			continue
		}
		if _, err := os.Stat(entry.Name); err != nil {
			continue
		}
		mod, err := loadmodule.OpenDWARFModule(entry.Name, entry.Name)
		if err != nil {
			log.WarnOnce(entry.Name, "ccprof: could not open load module %s: %v", entry.Name, err)
			continue
		}
		entry.Module = mod
	}
}

// loadStructureFiles parses every -S file into a structure.Tree and keys
// it by structureFileModuleName(path): the file's basename with its
// structure-file suffix stripped. The name declared inside the file is not
// consulted.
func loadStructureFiles(paths []string) (map[string]*structure.Tree, error) {
	trees := make(map[string]*structure.Tree)
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("opening structure file %s: %w", path, err)
		}
		moduleName := structureFileModuleName(path)
		tree, err := structure.LoadFile(f, moduleName)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("loading structure file %s: %w", path, err)
		}
		trees[moduleName] = tree
	}
	return trees, nil
}

// structureFileModuleName derives the load-module name a structure file
// describes from its own path: a "<module>.hpcstruct" or
// "<module>.struct.xml" file names the module it was recovered from.
func structureFileModuleName(path string) string {
	base := filepath.Base(path)
	for _, suffix := range []string{".hpcstruct", ".struct.xml", ".xml"} {
		if strings.HasSuffix(base, suffix) {
			return strings.TrimSuffix(base, suffix)
		}
	}
	return base
}

// attachGoSourceFallback fills in a structure.Tree for any epoch entry
// that got neither a DWARF-backed Module (attachModules) nor a -S file
// (loadStructureFiles), by trying structure/gosource against the
// executable's own Go module root and every -I search path in turn — the
// last-resort structure source spec.md §4.3's fallback path allows for a
// Go binary whose debug info could not be opened (spec.md §5's Non-goals
// clarification: gosource gives Proc line ranges only, no loop nests). The
// module root (found by walking up from the executable's directory for a
// go.mod via loadmodule.ModulePathFromExecutable) is resolved with
// gosource.Build's type-checked package load; -I paths are arbitrary
// directories a caller points at rather than necessarily a module root, so
// they're scanned instead with gosource.BuildFast's tree-sitter walk,
// which needs no go.mod to resolve. Entries still unresolved after this
// are left for correlate.Correlate's own module-fallback/"unknown@<ip>"
// handling.
func attachGoSourceFallback(cfg config, prof *profile.Profile, trees map[string]*structure.Tree) {
	if prof == nil || prof.Epoch == nil {
		return
	}
	pending := func() []*loadmodule.Entry {
		var out []*loadmodule.Entry
		for _, entry := range prof.Epoch.Entries {
			if entry.Module == nil {
				if _, ok := trees[entry.Name]; !ok {
					out = append(out, entry)
				}
			}
		}
		return out
	}

	if len(pending()) == 0 {
		return
	}
	if _, rootDir, ok := loadmodule.ModulePathFromExecutable(cfg.executable); ok {
		for _, entry := range pending() {
			if tree, err := gosource.Build(rootDir, entry.Name); err == nil && len(tree.Root.Children()) > 0 {
				trees[entry.Name] = tree
			}
		}
	}

	for _, dir := range cfg.searchPaths {
		remaining := pending()
		if len(remaining) == 0 {
			return
		}
		tree, err := gosource.BuildFast(dir, remaining[0].Name, false)
		if err != nil || len(tree.Root.Children()) == 0 {
			continue
		}
		for _, entry := range remaining {
			trees[entry.Name] = tree
		}
	}
}

// resolveOutputDir implements spec.md §7's "duplicate output dir" rule:
// mkdir the requested path; on EEXIST, retry once with this process's PID
// appended, and fail if that also collides.
func resolveOutputDir(base string) (string, error) {
	if err := os.Mkdir(base, 0o755); err == nil {
		return base, nil
	} else if !os.IsExist(err) {
		return "", fmt.Errorf("creating output directory %s: %w", base, err)
	}
	alt := base + "-" + strconv.Itoa(os.Getpid())
	if err := os.Mkdir(alt, 0o755); err != nil {
		return "", fmt.Errorf("output directory %s exists, retry %s also failed: %w", base, alt, err)
	}
	return alt, nil
}
