package metafile

import (
	"sort"
)

// ImportKind is the load timing of an import edge.
type ImportKind int

const (
	KindStatic ImportKind = iota
	KindDynamic
)

func (k ImportKind) String() string {
	if k == KindDynamic {
		return "dynamic"
	}
	return "static"
}

// KindFromEsbuild maps an esbuild metafile import kind onto the two load
// timings the analysis cares about. Only "dynamic-import" defers loading;
// require calls, @import rules, url tokens and entry points are all eager.
func KindFromEsbuild(kind string) ImportKind {
	if kind == "dynamic-import" {
		return KindDynamic
	}
	return KindStatic
}

type Import struct {
	Path     string
	Kind     ImportKind
	External bool
	Original string
}

func (i Import) IsDynamic() bool {
	return i.Kind == KindDynamic
}

type Input struct {
	Bytes   int64
	Imports []Import
}

// Contribution is the number of bytes one input adds to an output.
type Contribution struct {
	Path          string
	BytesInOutput int64
}

type Output struct {
	Bytes      int64
	EntryPoint string
	Imports    []Import
	// Inputs keeps the metafile's key order.
	Inputs  []Contribution
	Exports []string
}

// InputPaths returns the paths of the inputs bundled into this output.
func (o *Output) InputPaths() []string {
	if o == nil {
		return nil
	}
	paths := make([]string, 0, len(o.Inputs))
	for _, c := range o.Inputs {
		paths = append(paths, c.Path)
	}
	return paths
}

// Graph is an immutable snapshot of one build report. Inputs and Outputs are
// keyed by path; insertion order is tracked separately because several
// tie-breaks depend on the order the bundler wrote the keys in.
type Graph struct {
	Inputs  map[string]*Input
	Outputs map[string]*Output

	inputOrder  []string
	outputOrder []string
}

func NewGraph() *Graph {
	return &Graph{
		Inputs:  make(map[string]*Input),
		Outputs: make(map[string]*Output),
	}
}

// AddInput inserts or replaces an input. Replacing keeps the original position.
func (g *Graph) AddInput(path string, in *Input) {
	if _, exists := g.Inputs[path]; !exists {
		g.inputOrder = append(g.inputOrder, path)
	}
	g.Inputs[path] = in
}

// AddOutput inserts or replaces an output. Replacing keeps the original position.
func (g *Graph) AddOutput(path string, out *Output) {
	if _, exists := g.Outputs[path]; !exists {
		g.outputOrder = append(g.outputOrder, path)
	}
	g.Outputs[path] = out
}

// InputPaths lists input keys in insertion order. Keys added to the map
// directly, bypassing AddInput, follow in lexical order.
func (g *Graph) InputPaths() []string {
	return orderedKeys(g.inputOrder, g.Inputs)
}

// OutputPaths lists output keys in insertion order, with the same fallback as
// InputPaths.
func (g *Graph) OutputPaths() []string {
	return orderedKeys(g.outputOrder, g.Outputs)
}

func orderedKeys[V any](order []string, m map[string]V) []string {
	keys := make([]string, 0, len(m))
	seen := make(map[string]bool, len(m))
	for _, k := range order {
		if _, ok := m[k]; !ok || seen[k] {
			continue
		}
		seen[k] = true
		keys = append(keys, k)
	}
	if len(keys) == len(m) {
		return keys
	}
	rest := make([]string, 0, len(m)-len(keys))
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(keys, rest...)
}

// TotalOutputBytes sums the size of every output in the graph.
func (g *Graph) TotalOutputBytes() int64 {
	var total int64
	for _, out := range g.Outputs {
		if out != nil {
			total += out.Bytes
		}
	}
	return total
}
