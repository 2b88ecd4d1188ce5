package analysis

import (
	"sort"
	"strings"

	"radar/internal/engine/metafile"
)

// Summarize builds one ChunkSummary per output path present in the graph,
// sorted by descending size. Equal sizes keep the order of outputs.
func Summarize(outputs []string, g *metafile.Graph) []ChunkSummary {
	if g == nil {
		return nil
	}
	chunks := make([]ChunkSummary, 0, len(outputs))
	for _, p := range outputs {
		out, ok := g.Outputs[p]
		if !ok || out == nil {
			continue
		}
		chunks = append(chunks, ChunkSummary{
			OutputFile:     p,
			Bytes:          out.Bytes,
			EntryPoint:     out.EntryPoint,
			IsEntry:        out.EntryPoint != "",
			IncludedInputs: out.InputPaths(),
		})
	}
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Bytes > chunks[j].Bytes
	})
	return chunks
}

// OrderInitialFirst moves initial chunks ahead of lazy ones, keeping the
// relative order inside each group. Lookups that take the first chunk
// containing a file rely on this order.
func OrderInitialFirst(chunks []ChunkSummary, summary InitialSummary) []ChunkSummary {
	ordered := make([]ChunkSummary, 0, len(chunks))
	for _, c := range chunks {
		if summary.TypeOf(c.OutputFile) == ChunkInitial {
			ordered = append(ordered, c)
		}
	}
	for _, c := range chunks {
		if summary.TypeOf(c.OutputFile) != ChunkInitial {
			ordered = append(ordered, c)
		}
	}
	return ordered
}

// BuildChunks summarises every classified output, initial chunks first and
// each group sorted by descending size.
func BuildChunks(g *metafile.Graph, summary InitialSummary) []ChunkSummary {
	outputs := make([]string, 0, summary.Initial.Len()+summary.Lazy.Len())
	outputs = append(outputs, summary.Initial.Outputs...)
	outputs = append(outputs, summary.Lazy.Outputs...)
	return OrderInitialFirst(Summarize(outputs, g), summary)
}

// ChunkFilter is the chunk-type toggle and free-text search of a chunk list.
type ChunkFilter struct {
	Initial bool
	Lazy    bool
	Term    string
}

// FilterChunks keeps the chunks whose type is enabled and, when a term is
// set, whose output file or any included input contains the term
// case-insensitively.
func FilterChunks(chunks []ChunkSummary, summary InitialSummary, f ChunkFilter) []ChunkSummary {
	term := strings.ToLower(strings.TrimSpace(f.Term))
	res := make([]ChunkSummary, 0, len(chunks))
	for _, c := range chunks {
		switch summary.TypeOf(c.OutputFile) {
		case ChunkInitial:
			if !f.Initial {
				continue
			}
		case ChunkLazy:
			if !f.Lazy {
				continue
			}
		}
		if term != "" && !chunkMatches(c, term) {
			continue
		}
		res = append(res, c)
	}
	return res
}

func chunkMatches(c ChunkSummary, lowerTerm string) bool {
	if strings.Contains(strings.ToLower(c.OutputFile), lowerTerm) {
		return true
	}
	for _, in := range c.IncludedInputs {
		if strings.Contains(strings.ToLower(in), lowerTerm) {
			return true
		}
	}
	return false
}

// ChunkContaining returns the first chunk, in the given order, that bundles
// input.
func ChunkContaining(chunks []ChunkSummary, input string) (ChunkSummary, bool) {
	for _, c := range chunks {
		if c.Includes(input) {
			return c, true
		}
	}
	return ChunkSummary{}, false
}
