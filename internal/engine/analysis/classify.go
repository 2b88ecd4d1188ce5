package analysis

import (
	"errors"
	"fmt"
	"path"
	"strings"

	coreerrors "radar/internal/core/errors"
	"radar/internal/engine/metafile"
)

var ErrNoEntry = errors.New("no usable entry output")

// classificationError carries CodeClassificationError and unwraps to ErrNoEntry.
func classificationError(msg string) *coreerrors.DomainError {
	return &coreerrors.DomainError{
		Code:    coreerrors.CodeClassificationError,
		Message: msg,
		Err:     ErrNoEntry,
	}
}

// Classify splits the browser outputs reachable from entryOutput into those
// loaded eagerly (static import closure of the entry, entry included) and
// those loaded on demand (anything further reachable once a dynamic import has
// been crossed). Outputs rejected by filter, external imports and imports of
// unknown outputs take no part.
func Classify(g *metafile.Graph, entryOutput string, filter OutputFilter) (InitialSummary, error) {
	if g == nil {
		return InitialSummary{}, classificationError("graph is nil")
	}
	entry, ok := g.Outputs[entryOutput]
	if !ok || entry == nil {
		return InitialSummary{}, classificationError("entry output not found").
			WithContext(coreerrors.CtxOutput, entryOutput)
	}
	if entry.EntryPoint == "" {
		return InitialSummary{}, classificationError("entry output has no entry point").
			WithContext(coreerrors.CtxOutput, entryOutput)
	}
	if filter.excludes(entryOutput, entry) {
		return InitialSummary{}, classificationError("entry output is not a browser output").
			WithContext(coreerrors.CtxOutput, entryOutput)
	}

	follow := func(imp metafile.Import) (string, bool) {
		if imp.External {
			return "", false
		}
		out, ok := g.Outputs[imp.Path]
		if !ok || out == nil || filter.excludes(imp.Path, out) {
			return "", false
		}
		return imp.Path, true
	}

	initial := map[string]bool{entryOutput: true}
	queue := []string{entryOutput}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, imp := range g.Outputs[curr].Imports {
			if imp.IsDynamic() {
				continue
			}
			next, ok := follow(imp)
			if !ok || initial[next] {
				continue
			}
			initial[next] = true
			queue = append(queue, next)
		}
	}

	// Dynamic edges leaving initial territory seed the lazy walk; past that
	// boundary every edge kind is followed.
	lazy := make(map[string]bool)
	for out := range initial {
		for _, imp := range g.Outputs[out].Imports {
			if !imp.IsDynamic() {
				continue
			}
			next, ok := follow(imp)
			if !ok || initial[next] || lazy[next] {
				continue
			}
			lazy[next] = true
			queue = append(queue, next)
		}
	}
	for len(queue) > 0 {
		curr := queue[0]
		queue = queue[1:]
		for _, imp := range g.Outputs[curr].Imports {
			next, ok := follow(imp)
			if !ok || initial[next] || lazy[next] {
				continue
			}
			lazy[next] = true
			queue = append(queue, next)
		}
	}

	summary := InitialSummary{Entry: entryOutput}
	for _, p := range g.OutputPaths() {
		switch {
		case initial[p]:
			summary.Initial.Outputs = append(summary.Initial.Outputs, p)
			summary.Initial.TotalBytes += g.Outputs[p].Bytes
		case lazy[p]:
			summary.Lazy.Outputs = append(summary.Lazy.Outputs, p)
			summary.Lazy.TotalBytes += g.Outputs[p].Bytes
		}
	}
	return summary, nil
}

// EntryOptions controls PickEntry.
type EntryOptions struct {
	Filter OutputFilter
	// Hints are basenames (without hash or extension) that identify the main
	// bundle when several entry outputs qualify, e.g. "main".
	Hints []string
	// Extensions limits candidates to script outputs. Empty means .js, .mjs and .cjs.
	Extensions []string
}

var defaultScriptExtensions = []string{".js", ".mjs", ".cjs"}

// PickEntry selects the output that bootstraps the browser application. There
// is no fallback guess: when no candidate qualifies, or the hints cannot
// narrow several candidates to one, it fails with CodeClassificationError.
func PickEntry(g *metafile.Graph, opts EntryOptions) (string, error) {
	if g == nil {
		return "", classificationError("graph is nil")
	}
	exts := opts.Extensions
	if len(exts) == 0 {
		exts = defaultScriptExtensions
	}

	candidates := make([]string, 0)
	for _, p := range g.OutputPaths() {
		out := g.Outputs[p]
		if out == nil || out.EntryPoint == "" {
			continue
		}
		if !hasExtension(p, exts) || opts.Filter.excludes(p, out) {
			continue
		}
		candidates = append(candidates, p)
	}

	switch len(candidates) {
	case 0:
		return "", classificationError("no browser output has an entry point")
	case 1:
		return candidates[0], nil
	}

	hinted := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if matchesHint(c, g.Outputs[c].EntryPoint, opts.Hints) {
			hinted = append(hinted, c)
		}
	}
	if len(hinted) == 1 {
		return hinted[0], nil
	}
	return "", classificationError(fmt.Sprintf("%d entry outputs qualify and hints select %d", len(candidates), len(hinted))).
		WithContext(coreerrors.CtxOutput, strings.Join(candidates, ","))
}

func hasExtension(p string, exts []string) bool {
	ext := strings.ToLower(path.Ext(p))
	for _, e := range exts {
		if strings.EqualFold(ext, strings.TrimSpace(e)) {
			return true
		}
	}
	return false
}

func matchesHint(outputPath, entryPoint string, hints []string) bool {
	outBase := path.Base(normalizeSlashes(outputPath))
	entryBase := path.Base(normalizeSlashes(entryPoint))
	entryStem := strings.TrimSuffix(entryBase, path.Ext(entryBase))
	for _, hint := range hints {
		hint = strings.TrimSpace(hint)
		if hint == "" {
			continue
		}
		if entryStem == hint {
			return true
		}
		for _, sep := range []string{".", "-", "_"} {
			if strings.HasPrefix(outBase, hint+sep) {
				return true
			}
		}
	}
	return false
}
