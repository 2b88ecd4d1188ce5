package analysis

import (
	"fmt"
	"strings"

	"radar/internal/engine/metafile"

	"github.com/gobwas/glob"
)

// OutputFilter reports whether an output is a non-browser artifact (server
// rendering bundles and the like). Filtered outputs are never classified. A
// nil OutputFilter excludes nothing.
type OutputFilter func(path string, out *metafile.Output) bool

func (f OutputFilter) excludes(path string, out *metafile.Output) bool {
	return f != nil && f(path, out)
}

// DefaultServerOutputPatterns match the conventional locations and names of
// server-side bundles emitted next to browser bundles.
var DefaultServerOutputPatterns = []string{
	"server/**",
	"**/server/**",
	"*.server.*",
	"**/*.server.*",
	"ssr/**",
	"**/ssr/**",
}

// GlobOutputFilter excludes outputs whose path, or whose entry point path,
// matches any of the patterns. Patterns use '/' as separator, so '*' stays
// within a path segment and '**' crosses segments.
func GlobOutputFilter(patterns []string) (OutputFilter, error) {
	compiled := make([]glob.Glob, 0, len(patterns))
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("compile output pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, g)
	}
	if len(compiled) == 0 {
		return nil, nil
	}

	return func(path string, out *metafile.Output) bool {
		candidates := []string{normalizeSlashes(path)}
		if out != nil && out.EntryPoint != "" {
			candidates = append(candidates, normalizeSlashes(out.EntryPoint))
		}
		for _, c := range candidates {
			for _, g := range compiled {
				if g.Match(c) {
					return true
				}
			}
		}
		return false
	}, nil
}

func normalizeSlashes(path string) string {
	return strings.TrimPrefix(strings.ReplaceAll(path, "\\", "/"), "./")
}
