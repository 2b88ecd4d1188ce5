package analysis

import (
	"radar/internal/engine/metafile"
)

type pathEdge struct {
	from string
	imp  metafile.Import
}

// InclusionPath returns the shortest chain of input imports leading from the
// entry output's entry point to target, one step per edge. Among equally
// short chains the one found first by a breadth-first walk over imports in
// declared order wins. The result is empty when target is unknown,
// unreachable, or is the entry point itself.
//
// Each step's chunk type is that of the first chunk in chunks bundling the
// step's file; pass chunks initial-first (see OrderInitialFirst) for stable
// results. A file bundled nowhere is reported as lazy.
func InclusionPath(g *metafile.Graph, entryOutput, target string, chunks []ChunkSummary, summary InitialSummary) []InclusionStep {
	if g == nil {
		return []InclusionStep{}
	}
	entry, ok := g.Outputs[entryOutput]
	if !ok || entry == nil || entry.EntryPoint == "" {
		return []InclusionStep{}
	}
	start := entry.EntryPoint
	if _, ok := g.Inputs[target]; !ok || target == start {
		return []InclusionStep{}
	}
	if _, ok := g.Inputs[start]; !ok {
		return []InclusionStep{}
	}

	visited := map[string]bool{start: true}
	prev := make(map[string]pathEdge)
	queue := []string{start}
	found := false

	for len(queue) > 0 && !found {
		curr := queue[0]
		queue = queue[1:]
		for _, imp := range g.Inputs[curr].Imports {
			if imp.External || visited[imp.Path] {
				continue
			}
			if _, ok := g.Inputs[imp.Path]; !ok {
				continue
			}
			visited[imp.Path] = true
			prev[imp.Path] = pathEdge{from: curr, imp: imp}
			if imp.Path == target {
				found = true
				break
			}
			queue = append(queue, imp.Path)
		}
	}
	if !found {
		return []InclusionStep{}
	}

	edges := make([]pathEdge, 0)
	for node := target; node != start; {
		e := prev[node]
		edges = append(edges, e)
		node = e.from
	}

	steps := make([]InclusionStep, 0, len(edges))
	for i := len(edges) - 1; i >= 0; i-- {
		e := edges[i]
		steps = append(steps, InclusionStep{
			File:              e.from,
			ImportStatement:   importStatement(e.imp),
			IsDynamicImport:   e.imp.IsDynamic(),
			ImporterChunkType: chunkTypeOfInput(chunks, summary, e.from),
		})
	}
	return steps
}

// ImportSources lists every input that imports target directly, one record
// per importer using its first import of target. An importer counts as
// initial when any chunk bundling it is initial, so chunk order does not
// matter. Importers bundled into initial chunks come first; each group keeps
// input key order.
func ImportSources(g *metafile.Graph, target string, chunks []ChunkSummary, initial OutputSet) []ImportSource {
	if g == nil {
		return []ImportSource{}
	}
	if _, ok := g.Inputs[target]; !ok {
		return []ImportSource{}
	}

	eager := make([]ImportSource, 0)
	deferred := make([]ImportSource, 0)
	for _, importer := range g.InputPaths() {
		in := g.Inputs[importer]
		if in == nil {
			continue
		}
		for _, imp := range in.Imports {
			if imp.External || imp.Path != target {
				continue
			}
			src := ImportSource{
				Importer:        importer,
				ImportStatement: importStatement(imp),
				ChunkType:       ChunkLazy,
				IsDynamicImport: imp.IsDynamic(),
			}
			for _, chunk := range chunks {
				if !chunk.Includes(importer) {
					continue
				}
				if initial.Contains(chunk.OutputFile) {
					src.ChunkType = ChunkInitial
				}
				if src.ChunkOutputFile == "" && len(chunk.IncludedInputs) == 1 {
					src.ChunkOutputFile = chunk.OutputFile
					src.ChunkSize = chunk.Bytes
				}
			}
			if src.ChunkType == ChunkInitial {
				eager = append(eager, src)
			} else {
				deferred = append(deferred, src)
			}
			break
		}
	}
	return append(eager, deferred...)
}

func chunkTypeOfInput(chunks []ChunkSummary, summary InitialSummary, input string) ChunkType {
	if chunk, ok := ChunkContaining(chunks, input); ok {
		return summary.TypeOf(chunk.OutputFile)
	}
	return ChunkLazy
}

func importStatement(imp metafile.Import) string {
	if imp.Original != "" {
		return imp.Original
	}
	return imp.Path
}
