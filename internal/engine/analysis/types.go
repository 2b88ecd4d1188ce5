package analysis

import (
	"slices"
)

// ChunkType is the load timing of a chunk as seen by the browser.
type ChunkType int

const (
	ChunkInitial ChunkType = iota
	ChunkLazy
)

func (t ChunkType) String() string {
	switch t {
	case ChunkInitial:
		return "initial"
	case ChunkLazy:
		return "lazy"
	default:
		return "unknown"
	}
}

// OutputSet is one side of an InitialSummary. Outputs follow the graph's
// output key order; callers should compare them as sets.
type OutputSet struct {
	Outputs    []string
	TotalBytes int64
}

func (s OutputSet) Contains(path string) bool {
	return slices.Contains(s.Outputs, path)
}

func (s OutputSet) Len() int {
	return len(s.Outputs)
}

// InitialSummary partitions the browser outputs reachable from one entry.
type InitialSummary struct {
	Entry   string
	Initial OutputSet
	Lazy    OutputSet
}

// TypeOf classifies an output. Anything not eagerly loaded is reported as
// lazy, including outputs that were excluded from classification.
func (s InitialSummary) TypeOf(output string) ChunkType {
	if s.Initial.Contains(output) {
		return ChunkInitial
	}
	return ChunkLazy
}

type ChunkSummary struct {
	OutputFile     string
	Bytes          int64
	EntryPoint     string
	IsEntry        bool
	IncludedInputs []string
}

func (c ChunkSummary) Includes(input string) bool {
	return slices.Contains(c.IncludedInputs, input)
}

// InclusionStep is one edge of an inclusion path. File is the importer; the
// imported file is the File of the next step, or the path target for the last.
type InclusionStep struct {
	File              string
	ImportStatement   string
	IsDynamicImport   bool
	ImporterChunkType ChunkType
}

// ImportSource is a direct importer of a file. ChunkOutputFile and ChunkSize
// are only set when the importer is the sole input of its chunk; an empty
// ChunkOutputFile means unset.
type ImportSource struct {
	Importer        string
	ImportStatement string
	ChunkType       ChunkType
	IsDynamicImport bool
	ChunkOutputFile string
	ChunkSize       int64
}
