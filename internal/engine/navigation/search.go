package navigation

import (
	"strings"

	"radar/internal/engine/analysis"
)

// SearchCursor steps through the inputs matching a search term across every
// chunk that bundles at least one of them. Like History it is an immutable
// value. An empty cursor reports position (-1, -1) and ignores Next/Prev.
type SearchCursor struct {
	term        string
	chunks      []analysis.ChunkSummary
	matches     [][]string
	chunkIndex  int
	resultIndex int
}

// NewSearchCursor keeps the chunks, in the given order, whose included inputs
// contain term case-insensitively. A blank term matches nothing.
func NewSearchCursor(chunks []analysis.ChunkSummary, term string) SearchCursor {
	c := SearchCursor{term: term, chunkIndex: -1, resultIndex: -1}
	needle := strings.ToLower(strings.TrimSpace(term))
	if needle == "" {
		return c
	}
	for _, chunk := range chunks {
		var hits []string
		for _, in := range chunk.IncludedInputs {
			if strings.Contains(strings.ToLower(in), needle) {
				hits = append(hits, in)
			}
		}
		if len(hits) == 0 {
			continue
		}
		c.chunks = append(c.chunks, chunk)
		c.matches = append(c.matches, hits)
	}
	if len(c.chunks) > 0 {
		c.chunkIndex, c.resultIndex = 0, 0
	}
	return c
}

// Next advances within the current chunk and rolls over to the first result
// of the following chunk, wrapping from the last chunk to the first.
func (c SearchCursor) Next() SearchCursor {
	n := len(c.chunks)
	if n == 0 {
		return c
	}
	c.resultIndex = (c.resultIndex + 1) % len(c.matches[c.chunkIndex])
	if c.resultIndex == 0 {
		c.chunkIndex = (c.chunkIndex + 1) % n
	}
	return c
}

// Prev mirrors Next, landing on the last result of the previous chunk when
// stepping back past the first result.
func (c SearchCursor) Prev() SearchCursor {
	n := len(c.chunks)
	if n == 0 {
		return c
	}
	c.resultIndex--
	if c.resultIndex < 0 {
		c.chunkIndex = (c.chunkIndex - 1 + n) % n
		c.resultIndex = len(c.matches[c.chunkIndex]) - 1
	}
	return c
}

// Focus moves to the first result of the matching chunk for output, if any.
func (c SearchCursor) Focus(output string) (SearchCursor, bool) {
	for i, chunk := range c.chunks {
		if chunk.OutputFile == output {
			c.chunkIndex, c.resultIndex = i, 0
			return c, true
		}
	}
	return c, false
}

func (c SearchCursor) Position() (chunk, result int) {
	return c.chunkIndex, c.resultIndex
}

// Current returns the chunk and input under the cursor.
func (c SearchCursor) Current() (analysis.ChunkSummary, string, bool) {
	if len(c.chunks) == 0 {
		return analysis.ChunkSummary{}, "", false
	}
	return c.chunks[c.chunkIndex], c.matches[c.chunkIndex][c.resultIndex], true
}

func (c SearchCursor) Term() string {
	return c.term
}

func (c SearchCursor) Empty() bool {
	return len(c.chunks) == 0
}

func (c SearchCursor) ChunkCount() int {
	return len(c.chunks)
}

func (c SearchCursor) Chunks() []analysis.ChunkSummary {
	return append([]analysis.ChunkSummary(nil), c.chunks...)
}

// Matches returns the matching inputs of the i-th matching chunk.
func (c SearchCursor) Matches(i int) []string {
	if i < 0 || i >= len(c.matches) {
		return nil
	}
	return append([]string(nil), c.matches[i]...)
}

func (c SearchCursor) TotalMatches() int {
	total := 0
	for _, m := range c.matches {
		total += len(m)
	}
	return total
}
