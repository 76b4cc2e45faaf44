package reader

import (
	"io"
	"path/filepath"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/internal/rlog"
	"github.com/viant/ccprof/profile"
)

// Options configures a Read call.
type Options struct {
	// ExecutablePath names the profiled executable; its basename becomes
	// the synthesized Pgm root's name (spec.md §4.2).
	ExecutablePath string
	// WideISA selects whether opIP carries a packed opIdx (spec.md §3's
	// opIdx extraction, behind an ISA trait per spec.md §9).
	WideISA bool
	// Logger receives non-fatal diagnostics (multiple epochs, etc). If
	// nil, rlog.Default() is used.
	Logger *rlog.Logger
}

// Stats summarizes one Read call.
type Stats struct {
	NodeCount int
	// ZeroSamples is true when the stream carried no CCT nodes at all
	// (spec.md §4.2: "Zero samples ... is non-fatal; downstream emits an
	// empty but valid experiment").
	ZeroSamples bool
}

// Read parses a full profile stream per spec.md §4.2 and §6: header,
// profile-metadata, epoch table, preorder CCT stream, then Pgm-root
// synthesis, leaf normalization and IP unrelocation.
func Read(r io.Reader, opts Options) (*profile.Profile, Stats, error) {
	log := opts.Logger
	if log == nil {
		log = rlog.Default()
	}

	if _, err := readHeader(r); err != nil {
		return nil, Stats{}, err
	}

	targetName, metrics, err := readMetadata(r)
	if err != nil {
		return nil, Stats{}, err
	}

	epoch, err := readEpochTable(r, log)
	if err != nil {
		return nil, Stats{}, err
	}

	tree := cct.NewTree(len(metrics))
	createNode := defaultCreateNode(tree, opts.WideISA)
	linkParent := defaultLinkParent(tree)
	if err := readCCTStream(r, len(metrics), createNode, linkParent); err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{ZeroSamples: tree.Empty()}

	pgmName := targetName
	if opts.ExecutablePath != "" {
		pgmName = filepath.Base(opts.ExecutablePath)
	}
	oldRoot := tree.Root()
	pgm := tree.NewPgm(pgmName)
	tree.SetRoot(pgm)
	if oldRoot != nil {
		tree.Link(oldRoot, pgm)
	}

	relocateAll(tree.Root(), epoch)
	cct.NormalizeLeaves(tree)

	tree.Root().Walk(func(n *cct.Node) bool {
		stats.NodeCount++
		return true
	})

	prof := &profile.Profile{
		ProgramName: targetName,
		Epoch:       epoch,
		Metrics:     metrics,
		Tree:        tree,
	}
	return prof, stats, nil
}
