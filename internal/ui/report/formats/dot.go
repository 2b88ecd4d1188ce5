package formats

import (
	"fmt"
	"strings"

	"radar/internal/engine/analysis"
)

type DOTGenerator struct {
	chunks ChunkGraph
}

func NewDOTGenerator(c ChunkGraph) *DOTGenerator {
	return &DOTGenerator{chunks: c}
}

func (d *DOTGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("digraph chunks {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, style=\"rounded,filled\", fontname=\"Helvetica\", fontsize=10];\n")
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=8, penwidth=1.2];\n\n")

	nodes := d.chunks.nodes()
	clusters := []struct {
		t     analysis.ChunkType
		label string
		fill  string
	}{
		{analysis.ChunkInitial, "Initial (loaded eagerly)", "honeydew"},
		{analysis.ChunkLazy, "Lazy (loaded on demand)", "lightyellow"},
	}
	for _, c := range clusters {
		buf.WriteString(fmt.Sprintf("  subgraph cluster_%s {\n", c.t))
		buf.WriteString(fmt.Sprintf("    label=\"%s\";\n", c.label))
		buf.WriteString("    style=dashed;\n")
		buf.WriteString(fmt.Sprintf("    node [fillcolor=\"%s\"];\n", c.fill))
		for _, n := range nodes {
			if n.Type != c.t {
				continue
			}
			attrs := fmt.Sprintf("label=\"%s\"", escapeLabel(chunkLabel(n)))
			if n.Entry {
				attrs += ", penwidth=2.5, color=\"royalblue\""
			}
			buf.WriteString(fmt.Sprintf("    \"%s\" [%s];\n", n.Output, attrs))
		}
		buf.WriteString("  }\n\n")
	}

	for _, e := range d.chunks.edges() {
		if e.Dynamic {
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [style=dashed, color=\"darkorange\", label=\"import()\"];\n", e.From, e.To))
		} else {
			buf.WriteString(fmt.Sprintf("  \"%s\" -> \"%s\" [color=\"forestgreen\"];\n", e.From, e.To))
		}
	}

	buf.WriteString("}\n")
	return buf.String(), nil
}
