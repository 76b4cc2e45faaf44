package loadmodule

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEpochFindGreatestMapAddrLE(t *testing.T) {
	e := NewEpoch([]*Entry{
		{Name: "libc.so", MapAddr: 0x1000},
		{Name: "a.out", MapAddr: 0x5000, Executable: true},
		{Name: "libm.so", MapAddr: 0x3000},
	})

	tests := []struct {
		vma  uint64
		want string
	}{
		{0x500, ""},
		{0x1000, "libc.so"},
		{0x2500, "libc.so"},
		{0x3000, "libm.so"},
		{0x4999, "libm.so"},
		{0x5000, "a.out"},
		{0x9999, "a.out"},
	}
	for _, tt := range tests {
		got := e.Find(tt.vma)
		name := ""
		if got != nil {
			name = got.Name
		}
		assert.Equal(t, tt.want, name, "Find(%#x)", tt.vma)
	}
}

func TestEpochRelocationAmount(t *testing.T) {
	e := NewEpoch([]*Entry{
		{Name: "a.out", MapAddr: 0x400000, Executable: true},
		{Name: "libc.so", MapAddr: 0x7f0000},
	})
	for _, entry := range e.Entries {
		if entry.Executable {
			assert.Equal(t, uint64(0), entry.RelocAmt, "executable image should have zero relocation")
		} else {
			assert.Equal(t, entry.MapAddr, entry.RelocAmt, "shared object relocation should equal mapaddr")
		}
	}
}

func TestDecodeOpIPRoundTrip(t *testing.T) {
	for opIdx := uint8(0); opIdx < 4; opIdx++ {
		opIP := EncodeOpIP(0x1000, opIdx, true)
		ip, idx := DecodeOpIP(opIP, true)
		assert.Equal(t, uint64(0x1000), ip, "opIdx=%d", opIdx)
		assert.Equal(t, opIdx, idx, "opIdx=%d", opIdx)
	}
}

func TestDecodeOpIPNonWideISAAlwaysZero(t *testing.T) {
	ip, idx := DecodeOpIP(0x1003, false)
	assert.Equal(t, uint64(0x1003), ip, "non-wide ISA should pass through unchanged")
	assert.Equal(t, uint8(0), idx)
}
