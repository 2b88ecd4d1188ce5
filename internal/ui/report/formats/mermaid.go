package formats

import (
	"fmt"
	"strings"

	"radar/internal/engine/analysis"
)

type MermaidGenerator struct {
	chunks ChunkGraph
}

func NewMermaidGenerator(c ChunkGraph) *MermaidGenerator {
	return &MermaidGenerator{chunks: c}
}

// Generate renders the chunk graph as a flowchart. Initial and lazy chunks
// are grouped into subgraphs; dynamic imports are drawn dotted.
func (m *MermaidGenerator) Generate() (string, error) {
	nodes := m.chunks.nodes()
	names := make([]string, 0, len(nodes))
	for _, n := range nodes {
		names = append(names, n.Output)
	}
	ids := makeIDs(names)

	var b strings.Builder
	b.WriteString("flowchart LR\n")

	for _, group := range []analysis.ChunkType{analysis.ChunkInitial, analysis.ChunkLazy} {
		members := make([]chunkNode, 0, len(nodes))
		for _, n := range nodes {
			if n.Type == group {
				members = append(members, n)
			}
		}
		if len(members) == 0 {
			continue
		}
		b.WriteString(fmt.Sprintf("  subgraph %s[\"%s\"]\n", group, group))
		for _, n := range members {
			b.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", ids[n.Output], escapeLabel(chunkLabel(n))))
		}
		b.WriteString("  end\n")
	}

	if edges := m.chunks.edges(); len(edges) > 0 {
		b.WriteString("\n")
		for _, e := range edges {
			arrow := "-->"
			if e.Dynamic {
				arrow = "-.->|import()|"
			}
			b.WriteString(fmt.Sprintf("  %s %s %s\n", ids[e.From], arrow, ids[e.To]))
		}
	}

	b.WriteString("\n")
	b.WriteString("  classDef initialNode fill:#ecfdf5,stroke:#10b981,color:#000000;\n")
	b.WriteString("  classDef lazyNode fill:#fffbeb,stroke:#f59e0b,color:#000000;\n")
	b.WriteString("  classDef entryNode stroke-width:3px;\n")
	for _, n := range nodes {
		class := "lazyNode"
		if n.Type == analysis.ChunkInitial {
			class = "initialNode"
		}
		b.WriteString(fmt.Sprintf("  class %s %s;\n", ids[n.Output], class))
		if n.Entry {
			b.WriteString(fmt.Sprintf("  class %s entryNode;\n", ids[n.Output]))
		}
	}
	return b.String(), nil
}
