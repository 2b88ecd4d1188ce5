package compare

import (
	"fmt"
	"path"
	"regexp"
	"sort"

	"radar/internal/engine/analysis"
)

// Side is one independently analysed build.
type Side struct {
	Summary analysis.InitialSummary
	Chunks  []analysis.ChunkSummary
}

// SetDelta compares one load-timing group of two builds.
type SetDelta struct {
	Before  int64
	After   int64
	Delta   int64
	Added   []string
	Removed []string
}

// ChunkDelta pairs a chunk of the first build with its counterpart in the
// second. Before or After is nil when the chunk exists on one side only.
type ChunkDelta struct {
	Key           string
	Before        *analysis.ChunkSummary
	After         *analysis.ChunkSummary
	BytesDelta    int64
	AddedInputs   []string
	RemovedInputs []string
}

type Report struct {
	Initial SetDelta
	Lazy    SetDelta
	Chunks  []ChunkDelta
}

// TotalDelta is the change in classified bytes.
func (r Report) TotalDelta() int64 {
	return r.Initial.Delta + r.Lazy.Delta
}

// Diff compares two builds. Output paths are compared as sets per group;
// chunks are paired by ChunkKey. Chunk deltas are sorted by the magnitude of
// their byte change, largest first, then by key.
func Diff(a, b Side) Report {
	r := Report{
		Initial: diffSet(a.Summary.Initial, b.Summary.Initial),
		Lazy:    diffSet(a.Summary.Lazy, b.Summary.Lazy),
	}

	before := keyed(a.Chunks)
	after := keyed(b.Chunks)
	keys := make([]string, 0, len(before)+len(after))
	for k := range before {
		keys = append(keys, k)
	}
	for k := range after {
		if _, ok := before[k]; !ok {
			keys = append(keys, k)
		}
	}

	for _, k := range keys {
		d := ChunkDelta{Key: k}
		var beforeInputs, afterInputs []string
		if c, ok := before[k]; ok {
			c := c
			d.Before = &c
			d.BytesDelta -= c.Bytes
			beforeInputs = c.IncludedInputs
		}
		if c, ok := after[k]; ok {
			c := c
			d.After = &c
			d.BytesDelta += c.Bytes
			afterInputs = c.IncludedInputs
		}
		d.AddedInputs, d.RemovedInputs = setDifference(beforeInputs, afterInputs)
		r.Chunks = append(r.Chunks, d)
	}

	sort.Slice(r.Chunks, func(i, j int) bool {
		ai, aj := abs(r.Chunks[i].BytesDelta), abs(r.Chunks[j].BytesDelta)
		if ai != aj {
			return ai > aj
		}
		return r.Chunks[i].Key < r.Chunks[j].Key
	})
	return r
}

func diffSet(before, after analysis.OutputSet) SetDelta {
	added, removed := setDifference(before.Outputs, after.Outputs)
	return SetDelta{
		Before:  before.TotalBytes,
		After:   after.TotalBytes,
		Delta:   after.TotalBytes - before.TotalBytes,
		Added:   added,
		Removed: removed,
	}
}

// setDifference returns the sorted elements only in after and only in before.
func setDifference(before, after []string) (added, removed []string) {
	inBefore := make(map[string]bool, len(before))
	for _, s := range before {
		inBefore[s] = true
	}
	inAfter := make(map[string]bool, len(after))
	for _, s := range after {
		inAfter[s] = true
		if !inBefore[s] {
			added = append(added, s)
		}
	}
	for _, s := range before {
		if !inAfter[s] {
			removed = append(removed, s)
		}
	}
	sort.Strings(added)
	sort.Strings(removed)
	return added, removed
}

var contentHash = regexp.MustCompile(`[-.][A-Z0-9]{8}(\.[A-Za-z0-9]+)$`)

// ChunkKey identifies a chunk across builds: its entry point when it has one,
// otherwise its file name with the content hash removed.
func ChunkKey(c analysis.ChunkSummary) string {
	if c.EntryPoint != "" {
		return c.EntryPoint
	}
	base := path.Base(c.OutputFile)
	return path.Join(path.Dir(c.OutputFile), contentHash.ReplaceAllString(base, "$1"))
}

// keyed indexes chunks by ChunkKey. Chunks sharing a key, typically hashed
// shared chunks, are numbered in the order given.
func keyed(chunks []analysis.ChunkSummary) map[string]analysis.ChunkSummary {
	res := make(map[string]analysis.ChunkSummary, len(chunks))
	seen := make(map[string]int, len(chunks))
	for _, c := range chunks {
		k := ChunkKey(c)
		seen[k]++
		if seen[k] > 1 {
			k = fmt.Sprintf("%s#%d", k, seen[k])
		}
		res[k] = c
	}
	return res
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
