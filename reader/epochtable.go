package reader

import (
	"io"

	"github.com/viant/ccprof/internal/rlog"
	"github.com/viant/ccprof/loadmodule"
)

// readEpochTable parses the epoch table (spec.md §6): num-epochs, then per
// epoch a load-module list. Per spec.md §4.2's "more than one epoch ->
// warn, process first epoch only (current design choice; do NOT silently
// merge)" policy, every epoch after the first is parsed (to keep the
// stream cursor correct for the CCT section that follows) but discarded.
func readEpochTable(r io.Reader, log *rlog.Logger) (*loadmodule.Epoch, error) {
	numEpochs, err := readU32(r, "epoch-table.num-epochs")
	if err != nil {
		return nil, err
	}
	if numEpochs == 0 {
		return loadmodule.NewEpoch(nil), nil
	}
	var first *loadmodule.Epoch
	for i := uint32(0); i < numEpochs; i++ {
		entries, err := readOneEpoch(r)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			first = loadmodule.NewEpoch(entries)
		} else if i == 1 {
			log.Warnf("profile stream declares %d epochs; processing only the first", numEpochs)
		}
	}
	return first, nil
}

func readOneEpoch(r io.Reader) ([]*loadmodule.Entry, error) {
	numModules, err := readU32(r, "epoch-table.num-loadmodules")
	if err != nil {
		return nil, err
	}
	entries := make([]*loadmodule.Entry, 0, numModules)
	for i := uint32(0); i < numModules; i++ {
		name, err := readString(r, "epoch-table.module.name")
		if err != nil {
			return nil, err
		}
		vaddr, err := readU64(r, "epoch-table.module.vaddr")
		if err != nil {
			return nil, err
		}
		mapaddr, err := readU64(r, "epoch-table.module.mapaddr")
		if err != nil {
			return nil, err
		}
		entries = append(entries, &loadmodule.Entry{
			Name:       name,
			VAddr:      vaddr,
			MapAddr:    mapaddr,
			Executable: i == 0,
		})
	}
	return entries, nil
}
