// Package writer implements component E: serializing a profile.Profile to
// an experiment database (spec.md §6's "Experiment database layout") —
// an `experiment.xml` document plus a mirrored, pruned source tree.
package writer

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"

	"github.com/viant/ccprof/cct"
	"github.com/viant/ccprof/profile"
)

// Version is the CSPROFILE DTD version this writer emits (spec.md §6).
const Version = "1.0.2"

// WriteXML serializes prof as `<CSPROFILE version="1.0.2">` XML to w
// (spec.md §6): a CSPROFILEPARAMS block naming the target and listing
// metrics, followed by the CCT serialized with element tags {PGM, G, PF,
// C, S, L, SR} and `<M n v/>` metric records for non-zero values.
//
// The CCT is a tagged tree whose element name and attribute set vary per
// node kind, which does not map onto encoding/xml's struct-tag marshaling
// (that API assumes one Go type per element shape); the tree is written by
// hand instead, using encoding/xml only for attribute-value escaping.
func WriteXML(w io.Writer, prof *profile.Profile) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "<?xml version=\"1.0\"?>\n<CSPROFILE version=%q>\n", Version)
	writeParams(bw, prof)
	bw.WriteString("<SECFLATPROFILE>\n")
	if root := prof.Tree.Root(); root != nil {
		writeNode(bw, root, 1)
	}
	bw.WriteString("</SECFLATPROFILE>\n")
	bw.WriteString("</CSPROFILE>\n")
	return bw.Flush()
}

func writeParams(bw *bufio.Writer, prof *profile.Profile) {
	bw.WriteString("<CSPROFILEPARAMS>\n")
	fmt.Fprintf(bw, "<TARGET name=%s/>\n", attr(prof.ProgramName))
	bw.WriteString("<METRICS>\n")
	for i, m := range prof.Metrics {
		flags := 0
		if m.IsDerived {
			flags = 1
		}
		fmt.Fprintf(bw, "<METRIC shortName=%s n=%d nativeName=%s period=%d flags=%d/>\n",
			attr(m.Name), i, attr(m.Description), m.Period, flags)
	}
	bw.WriteString("</METRICS>\n")
	bw.WriteString("</CSPROFILEPARAMS>\n")
}

func writeNode(bw *bufio.Writer, n *cct.Node, indent int) {
	pad(bw, indent)
	tag := n.Kind().String()
	fmt.Fprintf(bw, "<%s", tag)
	writeAttrs(bw, n)
	if n.IsLeaf() && len(n.Metrics) == 0 {
		bw.WriteString("/>\n")
		return
	}
	bw.WriteString(">\n")
	writeMetrics(bw, n, indent+1)
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		writeNode(bw, c, indent+1)
	}
	pad(bw, indent)
	fmt.Fprintf(bw, "</%s>\n", tag)
}

func writeAttrs(bw *bufio.Writer, n *cct.Node) {
	switch n.Kind() {
	case cct.Pgm:
		fmt.Fprintf(bw, " n=%s", attr(n.ProgramName))
	case cct.Group:
		fmt.Fprintf(bw, " n=%s", attr(n.Name))
	case cct.ProcedureFrame:
		fmt.Fprintf(bw, " f=%s l=%d n=%s a=%d", attr(n.File), n.BegLine, attr(n.Proc), boolAttr(n.IsAlien))
	case cct.Loop, cct.StmtRange:
		fmt.Fprintf(bw, " l=%d le=%d s=%d", n.BegLine, n.EndLine, n.StructureID)
	case cct.CallSite, cct.Statement:
		fmt.Fprintf(bw, " f=%s l=%d n=%s it=%s ip=%#x opIdx=%d lip=%d s=%d",
			attr(n.File), n.BegLine, attr(n.Proc), boolAttr(n.FileIsText), n.IP, n.OpIdx, len(n.LIP), n.StructureID)
	}
}

func writeMetrics(bw *bufio.Writer, n *cct.Node, indent int) {
	for i, v := range n.Metrics {
		if v == 0 {
			continue
		}
		pad(bw, indent)
		fmt.Fprintf(bw, "<M n=%d v=%d/>\n", i, v)
	}
}

func pad(bw *bufio.Writer, indent int) {
	for i := 0; i < indent; i++ {
		bw.WriteString("  ")
	}
}

func attr(s string) string {
	var buf []byte
	w := &sliceWriter{&buf}
	xml.EscapeText(w, []byte(s))
	return `"` + string(buf) + `"`
}

func boolAttr(b bool) int {
	if b {
		return 1
	}
	return 0
}

type sliceWriter struct {
	buf *[]byte
}

func (w *sliceWriter) Write(p []byte) (int, error) {
	*w.buf = append(*w.buf, p...)
	return len(p), nil
}
