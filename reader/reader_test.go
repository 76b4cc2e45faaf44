package reader

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/viant/ccprof/cct"
)

type streamBuilder struct {
	buf bytes.Buffer
}

func (b *streamBuilder) header() *streamBuilder {
	b.buf.Write(Magic[:])
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], Version)
	b.buf.Write(v[:])
	b.buf.WriteByte(EndianLittle)
	b.buf.Write(make([]byte, 11))
	return b
}

func (b *streamBuilder) u32(v uint32) *streamBuilder {
	var raw [4]byte
	binary.LittleEndian.PutUint32(raw[:], v)
	b.buf.Write(raw[:])
	return b
}

func (b *streamBuilder) u64(v uint64) *streamBuilder {
	var raw [8]byte
	binary.LittleEndian.PutUint64(raw[:], v)
	b.buf.Write(raw[:])
	return b
}

func (b *streamBuilder) str(s string) *streamBuilder {
	b.u32(uint32(len(s)))
	b.buf.WriteString(s)
	return b
}

func (b *streamBuilder) metadata(target string, metricNames []string) *streamBuilder {
	b.str(target)
	b.u32(uint32(len(metricNames)))
	for _, name := range metricNames {
		b.str(name).u64(0).u64(1)
	}
	return b
}

func (b *streamBuilder) epochTable(moduleName string, vaddr, mapaddr uint64) *streamBuilder {
	b.u32(1) // num epochs
	b.u32(1) // num modules
	b.str(moduleName).u64(vaddr).u64(mapaddr)
	return b
}

func (b *streamBuilder) node(nodeID, parentID uint32, opIP uint64, numMetrics int, values ...uint64) *streamBuilder {
	b.u32(nodeID).u32(parentID).u64(opIP)
	b.u32(0) // assoc info
	for i := 0; i < lipWords; i++ {
		b.u64(0)
	}
	for i := 0; i < numMetrics; i++ {
		var v uint64
		if i < len(values) {
			v = values[i]
		}
		b.u64(v)
	}
	return b
}

func TestReadMinimalScenario(t *testing.T) {
	var b streamBuilder
	b.header().
		metadata("a.out", []string{"CYCLES"}).
		epochTable("a.out", 0x400000, 0x400000)
	b.node(1, 0, 0x400000+15, 1, 1)

	prof, stats, err := Read(&b.buf, Options{ExecutablePath: "/tmp/a.out"})
	require.NoError(t, err)
	assert.False(t, stats.ZeroSamples, "expected non-zero samples")

	root := prof.Tree.Root()
	require.NotNil(t, root)
	assert.Equal(t, cct.Pgm, root.Kind())
	assert.Equal(t, "a.out", root.ProgramName)

	children := root.Children()
	require.Len(t, children, 1)
	leaf := children[0]
	assert.Equal(t, cct.Statement, leaf.Kind(), "expected leaf normalized to Statement")
	assert.Equal(t, uint64(1), leaf.Metrics[0])
	assert.True(t, prof.Epoch.Entries[0].Used, "expected load module marked used after relocation")
}

func TestReadZeroSamplesIsNonFatal(t *testing.T) {
	var b streamBuilder
	b.header().
		metadata("a.out", []string{"CYCLES"}).
		epochTable("a.out", 0x400000, 0x400000)

	prof, stats, err := Read(&b.buf, Options{ExecutablePath: "/tmp/a.out"})
	require.NoError(t, err)
	assert.True(t, stats.ZeroSamples)

	root := prof.Tree.Root()
	require.NotNil(t, root)
	assert.Equal(t, cct.Pgm, root.Kind())
	assert.Empty(t, root.Children())
}

func TestReadRejectsBadMagic(t *testing.T) {
	var b streamBuilder
	b.buf.Write([]byte("BADMAGIC"))
	var v [4]byte
	binary.LittleEndian.PutUint32(v[:], Version)
	b.buf.Write(v[:])
	b.buf.WriteByte(EndianLittle)
	b.buf.Write(make([]byte, 11))

	_, _, err := Read(&b.buf, Options{})
	require.Error(t, err)
	assert.IsType(t, &FatalError{}, err)
}

func TestReadTruncatedStreamIsFatal(t *testing.T) {
	var b streamBuilder
	b.header().metadata("a.out", []string{"CYCLES"})
	// epoch table missing entirely
	_, _, err := Read(&b.buf, Options{})
	assert.Error(t, err, "expected error for truncated stream")
}
