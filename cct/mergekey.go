package cct

import (
	"encoding/binary"

	"github.com/minio/highwayhash"
)

// mergeKeySalt is an arbitrary fixed 32-byte key for the HighwayHash used to
// bucket children by Mergeable-equality class. It never leaves the process
// and carries no security property; any fixed 32 bytes work.
var mergeKeySalt = [32]byte{
	0x4c, 0xcf, 0x03, 0x71, 0x9e, 0x4b, 0x8a, 0x2d,
	0x6f, 0x15, 0xa8, 0xc2, 0x90, 0x33, 0x7e, 0x5b,
	0x11, 0xd4, 0x6a, 0x7c, 0x88, 0x01, 0xf2, 0x3d,
	0x59, 0xbe, 0x24, 0x47, 0xa0, 0x9d, 0x6c, 0x12,
}

// mergeKey reduces a node to the byte encoding Mergeable actually compares,
// then HighwayHashes it down to a uint64 bucket key. Two nodes with the same
// key are merge-candidates; two mergeable nodes always share a key, but a
// shared key does not itself imply Mergeable (hash collisions), so callers
// must still confirm with Mergeable before treating a bucket hit as a match
// (mergeIndex.find does exactly this).
func mergeKey(n *Node) uint64 {
	var buf []byte
	buf = append(buf, byte(n.kind))
	switch n.kind {
	case CallSite, Statement:
		buf = appendUint64(buf, n.IP)
		buf = append(buf, byte(n.AssocInfo.Class()))
		buf = appendBool(buf, n.AssocInfo.IsRootNote())
		for _, w := range n.LIP {
			buf = appendUint64(buf, w)
		}
	case ProcedureFrame:
		buf = append(buf, n.File...)
		buf = append(buf, 0)
		buf = append(buf, n.Proc...)
		buf = append(buf, 0)
		buf = appendUint64(buf, uint64(n.BegLine))
		buf = appendBool(buf, n.IsAlien)
	case Loop, StmtRange:
		buf = appendUint64(buf, uint64(n.BegLine))
		buf = appendUint64(buf, uint64(n.EndLine))
		buf = appendUint64(buf, n.StructureID)
	case Group:
		buf = append(buf, n.Name...)
	case Pgm:
		buf = append(buf, n.ProgramName...)
	}
	return highwayhash.Sum64(buf, mergeKeySalt[:])
}

func appendUint64(buf []byte, v uint64) []byte {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	return append(buf, tmp[:]...)
}

func appendBool(buf []byte, b bool) []byte {
	if b {
		return append(buf, 1)
	}
	return append(buf, 0)
}

// mergeIndex buckets a parent's children by mergeKey so mergeInto can find a
// mergeable candidate without a full linear scan per donor child — the
// parent's children still get compared with Mergeable one by one, but only
// within nodes that already hash to the same bucket (spec.md §4.1's
// "children are searched linearly" is preserved within a bucket; across
// buckets it's skipped entirely since a key mismatch rules out Mergeable).
type mergeIndex struct {
	buckets map[uint64][]*Node
}

func newMergeIndex(parent *Node) *mergeIndex {
	idx := &mergeIndex{buckets: make(map[uint64][]*Node)}
	for c := parent.firstChild; c != nil; c = c.nextSibling {
		k := mergeKey(c)
		idx.buckets[k] = append(idx.buckets[k], c)
	}
	return idx
}

func (idx *mergeIndex) find(candidate *Node) *Node {
	for _, c := range idx.buckets[mergeKey(candidate)] {
		if Mergeable(c, candidate) {
			return c
		}
	}
	return nil
}

func (idx *mergeIndex) add(n *Node) {
	k := mergeKey(n)
	idx.buckets[k] = append(idx.buckets[k], n)
}
