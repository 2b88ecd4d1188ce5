package formats

import (
	"radar/internal/engine/analysis"
	"radar/internal/engine/metafile"
)

// ChunkGraph is the output-level import graph of one classified build.
type ChunkGraph struct {
	Graph   *metafile.Graph
	Summary analysis.InitialSummary
	Entry   string
}

type chunkNode struct {
	Output string
	Bytes  int64
	Type   analysis.ChunkType
	Inputs int
	Entry  bool
}

type chunkEdge struct {
	From, To string
	Dynamic  bool
}

// nodes returns the classified outputs, initial first, each group in
// graph order.
func (c ChunkGraph) nodes() []chunkNode {
	out := make([]chunkNode, 0, c.Summary.Initial.Len()+c.Summary.Lazy.Len())
	add := func(paths []string, t analysis.ChunkType) {
		for _, p := range paths {
			o := c.Graph.Outputs[p]
			if o == nil {
				continue
			}
			out = append(out, chunkNode{Output: p, Bytes: o.Bytes, Type: t, Inputs: len(o.Inputs), Entry: p == c.Entry})
		}
	}
	add(c.Summary.Initial.Outputs, analysis.ChunkInitial)
	add(c.Summary.Lazy.Outputs, analysis.ChunkLazy)
	return out
}

// edges returns output imports between classified outputs, deduplicated per
// pair. A pair counts as dynamic only when every import between them is.
func (c ChunkGraph) edges() []chunkEdge {
	classified := func(p string) bool {
		return c.Summary.Initial.Contains(p) || c.Summary.Lazy.Contains(p)
	}

	index := make(map[[2]string]int)
	var out []chunkEdge
	for _, n := range c.nodes() {
		for _, imp := range c.Graph.Outputs[n.Output].Imports {
			if imp.External || !classified(imp.Path) {
				continue
			}
			key := [2]string{n.Output, imp.Path}
			if i, ok := index[key]; ok {
				out[i].Dynamic = out[i].Dynamic && imp.IsDynamic()
				continue
			}
			index[key] = len(out)
			out = append(out, chunkEdge{From: n.Output, To: imp.Path, Dynamic: imp.IsDynamic()})
		}
	}
	return out
}
