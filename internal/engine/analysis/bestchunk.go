package analysis

import (
	"radar/internal/engine/metafile"
)

// FindBestChunk picks the chunk to show for a file: the first chunk bundling
// it, else the first chunk bundling one of its imports in declared order
// (barrel files re-export code they do not contain), else fallback. The
// boolean is false only when all three come up empty.
func FindBestChunk(path string, chunks []ChunkSummary, g *metafile.Graph, fallback *ChunkSummary) (ChunkSummary, bool) {
	if chunk, ok := ChunkContaining(chunks, path); ok {
		return chunk, true
	}
	if g != nil {
		if in, ok := g.Inputs[path]; ok && in != nil {
			for _, imp := range in.Imports {
				if imp.External {
					continue
				}
				if chunk, ok := ChunkContaining(chunks, imp.Path); ok {
					return chunk, true
				}
			}
		}
	}
	if fallback != nil {
		return *fallback, true
	}
	return ChunkSummary{}, false
}
