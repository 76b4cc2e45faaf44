package reader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/loadmodule"
)

// NodeData is the raw, not-yet-typed record for one CCT stream entry
// (spec.md §6's preorder CCT stream).
type NodeData struct {
	NodeID    uint32
	ParentID  uint32
	OpIP      uint64
	AssocInfo cct.AssocInfo
	LIP       cct.LIP
	Metrics   []uint64
}

// lipWords is the fixed width of the lush-lip field (spec.md §6: "lush-lip
// bytes (16 u64 or similar)").
const lipWords = 16

func readCCTStream(r io.Reader, numMetrics int, createNode func(NodeData) *cct.Node, linkParent func(child, parent *cct.Node)) error {
	byID := make(map[uint32]*cct.Node)
	for {
		var idBuf [4]byte
		n, err := io.ReadFull(r, idBuf[:])
		if err == io.EOF && n == 0 {
			return nil // clean end of stream
		}
		if err != nil {
			return truncated("cct.node-id", err)
		}
		nodeID := binary.LittleEndian.Uint32(idBuf[:])

		parentID, err := readU32(r, "cct.parent-id")
		if err != nil {
			return err
		}
		opIP, err := readU64(r, "cct.op-ip")
		if err != nil {
			return err
		}
		assocRaw, err := readU32(r, "cct.lush-assoc-info")
		if err != nil {
			return err
		}
		lip := make(cct.LIP, lipWords)
		for i := range lip {
			v, err := readU64(r, "cct.lush-lip")
			if err != nil {
				return err
			}
			lip[i] = v
		}
		metrics := make([]uint64, numMetrics)
		for i := range metrics {
			v, err := readU64(r, "cct.metric-value")
			if err != nil {
				return err
			}
			metrics[i] = v
		}

		data := NodeData{
			NodeID:    nodeID,
			ParentID:  parentID,
			OpIP:      opIP,
			AssocInfo: cct.AssocInfo(assocRaw),
			LIP:       lip,
			Metrics:   metrics,
		}
		node := createNode(data)
		byID[nodeID] = node

		if parentID != 0 {
			parent, ok := byID[parentID]
			if !ok {
				return &FatalError{Phase: "cct.parent-id", Err: errUnknownParent(parentID, nodeID)}
			}
			linkParent(node, parent)
		}
	}
}

func errUnknownParent(parentID, nodeID uint32) error {
	return fmt.Errorf("node %d references unknown parent %d", nodeID, parentID)
}

// defaultCreateNode builds a raw CallSite node carrying opIP decoded via
// loadmodule.DecodeOpIP and the node's metric vector. It is the reader's
// default callback: the tree it produces is later normalized and
// correlated, not a finished logical call tree (spec.md §4.2, §4.3). The
// very first node created becomes the tree's provisional root (spec.md
// §4.2: "On the first created node, set it as the tree root").
func defaultCreateNode(t *cct.Tree, wideISA bool) func(NodeData) *cct.Node {
	first := true
	return func(d NodeData) *cct.Node {
		ip, opIdx := loadmodule.DecodeOpIP(d.OpIP, wideISA)
		n := t.NewCallSite(ip, opIdx)
		n.AssocInfo = d.AssocInfo
		n.LIP = d.LIP
		copy(n.Metrics, d.Metrics)
		if first {
			t.SetRoot(n)
			first = false
		}
		return n
	}
}

func defaultLinkParent(t *cct.Tree) func(child, parent *cct.Node) {
	return func(child, parent *cct.Node) {
		t.Link(child, parent)
	}
}
