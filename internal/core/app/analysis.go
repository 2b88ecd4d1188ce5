package app

import (
	"bytes"
	"context"
	"fmt"
	"time"

	coreerrors "radar/internal/core/errors"
	"radar/internal/engine/analysis"
	"radar/internal/engine/compare"
	"radar/internal/engine/metafile"
	"radar/internal/engine/navigation"
	"radar/internal/shared/observability"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Analysis is one classified build. It is never mutated after construction,
// so two analyses can be held side by side for comparison.
type Analysis struct {
	Source   string
	Graph    *metafile.Graph
	Raw      []byte
	Entry    string
	Summary  analysis.InitialSummary
	Chunks   []analysis.ChunkSummary
	LoadedAt time.Time
}

// LoadFile reads, analyses and publishes the metafile at path. On failure
// the previous analysis stays current.
func (a *App) LoadFile(ctx context.Context, path string) (*Analysis, error) {
	an, err := a.AnalyzeFile(ctx, path)
	a.setCurrent(an, err)
	return an, err
}

// LoadBytes analyses and publishes an in-memory metafile, e.g. one restored
// from a snapshot.
func (a *App) LoadBytes(ctx context.Context, source string, raw []byte) (*Analysis, error) {
	an, err := a.AnalyzeBytes(ctx, source, raw)
	a.setCurrent(an, err)
	return an, err
}

// AnalyzeFile reads and analyses the metafile at path without publishing it.
func (a *App) AnalyzeFile(ctx context.Context, path string) (*Analysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.AnalyzeFile", trace.WithAttributes(attribute.String("radar.source", path)))
	defer span.End()

	start := time.Now()
	g, raw, err := metafile.Load(path)
	observability.AnalysisDuration.WithLabelValues("load").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, recordFailure(span, coreerrors.AddContext(err, coreerrors.CtxPath, path))
	}
	return analyzeTraced(ctx, span, a, path, g, raw)
}

// AnalyzeBytes decodes and analyses raw without publishing it.
func (a *App) AnalyzeBytes(ctx context.Context, source string, raw []byte) (*Analysis, error) {
	ctx, span := observability.Tracer.Start(ctx, "app.AnalyzeBytes", trace.WithAttributes(attribute.String("radar.source", source)))
	defer span.End()

	g, err := metafile.Parse(bytes.NewReader(raw))
	if err != nil {
		return nil, recordFailure(span, coreerrors.Wrap(err, coreerrors.CodeValidationError, fmt.Sprintf("decode metafile %q", source)))
	}
	if err := g.Validate(); err != nil {
		return nil, recordFailure(span, err)
	}
	return analyzeTraced(ctx, span, a, source, g, raw)
}

func analyzeTraced(ctx context.Context, span trace.Span, a *App, source string, g *metafile.Graph, raw []byte) (*Analysis, error) {
	an, err := a.Analyze(ctx, source, g, raw)
	if err != nil {
		return nil, recordFailure(span, err)
	}

	observability.GraphInputs.Set(float64(len(g.Inputs)))
	observability.GraphOutputs.Set(float64(len(g.Outputs)))
	observability.InitialBytes.Set(float64(an.Summary.Initial.TotalBytes))
	observability.LazyBytes.Set(float64(an.Summary.Lazy.TotalBytes))
	span.SetAttributes(
		attribute.String("radar.entry", an.Entry),
		attribute.Int("radar.outputs", len(g.Outputs)),
	)
	return an, nil
}

func recordFailure(span trace.Span, err error) error {
	observability.AnalysisFailuresTotal.WithLabelValues(string(coreerrors.CodeOf(err))).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// Analyze classifies g without publishing the result. The configured entry
// output wins over automatic selection.
func (a *App) Analyze(ctx context.Context, source string, g *metafile.Graph, raw []byte) (*Analysis, error) {
	_, span := observability.Tracer.Start(ctx, "app.Analyze")
	defer span.End()

	entry := a.Config.Analysis.Entry
	if entry == "" {
		picked, err := analysis.PickEntry(g, a.entryOpts)
		if err != nil {
			return nil, err
		}
		entry = picked
	}

	start := time.Now()
	summary, err := analysis.Classify(g, entry, a.entryOpts.Filter)
	observability.AnalysisDuration.WithLabelValues("classify").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, coreerrors.AddContext(err, coreerrors.CtxEntry, entry)
	}

	start = time.Now()
	chunks := analysis.BuildChunks(g, summary)
	observability.AnalysisDuration.WithLabelValues("summarize").Observe(time.Since(start).Seconds())

	return &Analysis{
		Source:   source,
		Graph:    g,
		Raw:      raw,
		Entry:    entry,
		Summary:  summary,
		Chunks:   chunks,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// InclusionPath is the shortest import chain from the entry output's inputs
// to target.
func (an *Analysis) InclusionPath(target string) []analysis.InclusionStep {
	start := time.Now()
	defer func() {
		observability.AnalysisDuration.WithLabelValues("path").Observe(time.Since(start).Seconds())
	}()
	return analysis.InclusionPath(an.Graph, an.Entry, target, an.Chunks, an.Summary)
}

func (an *Analysis) ImportSources(target string) []analysis.ImportSource {
	return analysis.ImportSources(an.Graph, target, an.Chunks, an.Summary.Initial)
}

func (an *Analysis) BestChunk(path string, fallback *analysis.ChunkSummary) (analysis.ChunkSummary, bool) {
	return analysis.FindBestChunk(path, an.Chunks, an.Graph, fallback)
}

// Search builds a cursor over the chunks currently visible under f.
func (an *Analysis) Search(f analysis.ChunkFilter, term string) navigation.SearchCursor {
	return navigation.NewSearchCursor(an.FilterChunks(f), term)
}

func (an *Analysis) FilterChunks(f analysis.ChunkFilter) []analysis.ChunkSummary {
	return analysis.FilterChunks(an.Chunks, an.Summary, f)
}

// Chunk returns the summary of the named output.
func (an *Analysis) Chunk(output string) (analysis.ChunkSummary, bool) {
	for _, c := range an.Chunks {
		if c.OutputFile == output {
			return c, true
		}
	}
	return analysis.ChunkSummary{}, false
}

func (an *Analysis) TypeOf(output string) analysis.ChunkType {
	return an.Summary.TypeOf(output)
}

// Side adapts the analysis for compare.Diff.
func (an *Analysis) Side() compare.Side {
	return compare.Side{Summary: an.Summary, Chunks: an.Chunks}
}

// Compare diffs two analyses, before first.
func Compare(before, after *Analysis) compare.Report {
	return compare.Diff(before.Side(), after.Side())
}
