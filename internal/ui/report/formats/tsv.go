package formats

import (
	"fmt"
	"strings"
)

type TSVGenerator struct {
	chunks ChunkGraph
}

func NewTSVGenerator(c ChunkGraph) *TSVGenerator {
	return &TSVGenerator{chunks: c}
}

// Generate writes one row per classified chunk followed by one row per
// chunk-to-chunk import.
func (t *TSVGenerator) Generate() (string, error) {
	var buf strings.Builder

	buf.WriteString("Type\tOutput\tBytes\tInputs\tEntry\n")
	for _, n := range t.chunks.nodes() {
		buf.WriteString(fmt.Sprintf("%s\t%s\t%d\t%d\t%t\n", n.Type, n.Output, n.Bytes, n.Inputs, n.Entry))
	}

	buf.WriteString("\nFrom\tTo\tKind\n")
	for _, e := range t.chunks.edges() {
		kind := "static"
		if e.Dynamic {
			kind = "dynamic"
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\n", e.From, e.To, kind))
	}
	return buf.String(), nil
}

// Generate renders c in the named format: mermaid, dot or tsv.
func Generate(format string, c ChunkGraph) (string, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "mermaid":
		return NewMermaidGenerator(c).Generate()
	case "dot":
		return NewDOTGenerator(c).Generate()
	case "tsv":
		return NewTSVGenerator(c).Generate()
	default:
		return "", fmt.Errorf("unsupported graph format %q (want mermaid, dot or tsv)", format)
	}
}
