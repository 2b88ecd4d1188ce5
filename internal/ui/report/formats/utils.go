package formats

import (
	"fmt"
	"path"
	"strings"
	"unicode"

	"github.com/dustin/go-humanize"
)

func chunkLabel(n chunkNode) string {
	name := path.Base(n.Output)
	if n.Entry {
		name += " (entry)"
	}
	return fmt.Sprintf("%s\\n%s, %d inputs", name, humanize.Bytes(uint64(n.Bytes)), n.Inputs)
}

func sanitizeID(name string) string {
	if name == "" {
		return "c"
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	out := b.String()
	if unicode.IsDigit(rune(out[0])) {
		return "c_" + out
	}
	return out
}

func makeIDs(names []string) map[string]string {
	ids := make(map[string]string, len(names))
	used := make(map[string]int, len(names))
	for _, name := range names {
		base := sanitizeID(name)
		idx := used[base]
		used[base] = idx + 1
		if idx == 0 {
			ids[name] = base
			continue
		}
		ids[name] = fmt.Sprintf("%s_%d", base, idx+1)
	}
	return ids
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}
