package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	coreapp "radar/internal/core/app"
	"radar/internal/data/snapshots"
	"radar/internal/engine/analysis"
	"radar/internal/engine/compare"

	"github.com/dustin/go-humanize"
)

func formatBytes(n int64) string {
	if n < 0 {
		return "-" + humanize.Bytes(uint64(-n))
	}
	return humanize.Bytes(uint64(n))
}

func formatDelta(n int64) string {
	switch {
	case n > 0:
		return "+" + humanize.Bytes(uint64(n))
	case n < 0:
		return "-" + humanize.Bytes(uint64(-n))
	default:
		return "0 B"
	}
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, word)
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), word)
}

func writeSummary(w io.Writer, an *coreapp.Analysis, filter analysis.ChunkFilter) {
	entry := an.Graph.Outputs[an.Entry]
	fmt.Fprintf(w, "Metafile: %s\n", an.Source)
	fmt.Fprintf(w, "Entry:    %s (%s)\n", an.Entry, entry.EntryPoint)
	fmt.Fprintf(w, "Initial:  %s, %s\n", plural(an.Summary.Initial.Len(), "chunk"), formatBytes(an.Summary.Initial.TotalBytes))
	fmt.Fprintf(w, "Lazy:     %s, %s\n", plural(an.Summary.Lazy.Len(), "chunk"), formatBytes(an.Summary.Lazy.TotalBytes))
	fmt.Fprintf(w, "Total:    %s across %s\n", formatBytes(an.Graph.TotalOutputBytes()), plural(len(an.Graph.Outputs), "output"))

	chunks := an.FilterChunks(filter)
	if len(chunks) == 0 {
		fmt.Fprintln(w, "\nNo chunks match the current filter.")
		return
	}
	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, c := range chunks {
		marker := ""
		if c.IsEntry {
			marker = " (entry)"
		}
		fmt.Fprintf(tw, "  [%s]\t%s%s\t%s\t%s\n", an.TypeOf(c.OutputFile), c.OutputFile, marker,
			formatBytes(c.Bytes), plural(len(c.IncludedInputs), "input"))
	}
	_ = tw.Flush()
}

func writeInclusionPath(w io.Writer, an *coreapp.Analysis, target string, steps []analysis.InclusionStep) {
	if len(steps) == 0 {
		if entry := an.Graph.Outputs[an.Entry]; entry != nil && entry.EntryPoint == target {
			fmt.Fprintf(w, "%s is the entry point.\n", target)
			return
		}
		fmt.Fprintf(w, "No inclusion path from %s to %s.\n", an.Entry, target)
		return
	}

	fmt.Fprintf(w, "Inclusion path for %s (%s):\n", target, plural(len(steps), "step"))
	for i, step := range steps {
		kind := "imports"
		if step.IsDynamicImport {
			kind = "dynamically imports"
		}
		fmt.Fprintf(w, "  %d. %s [%s] %s %q\n", i+1, step.File, step.ImporterChunkType, kind, step.ImportStatement)
	}
	fmt.Fprintf(w, "  -> %s\n", target)
}

func writeImportSources(w io.Writer, target string, sources []analysis.ImportSource) {
	if len(sources) == 0 {
		fmt.Fprintf(w, "Nothing imports %s.\n", target)
		return
	}

	fmt.Fprintf(w, "%s is imported by %s:\n", target, plural(len(sources), "file"))
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, src := range sources {
		stmt := fmt.Sprintf("%q", src.ImportStatement)
		if src.IsDynamicImport {
			stmt = "import(" + stmt + ")"
		}
		chunk := ""
		if src.ChunkOutputFile != "" {
			chunk = fmt.Sprintf("%s, %s", src.ChunkOutputFile, formatBytes(src.ChunkSize))
		}
		fmt.Fprintf(tw, "  [%s]\t%s\t%s\t%s\n", src.ChunkType, src.Importer, stmt, chunk)
	}
	_ = tw.Flush()
}

func writeBestChunk(w io.Writer, an *coreapp.Analysis, path string, chunk analysis.ChunkSummary) {
	how := "bundles it"
	if !chunk.Includes(path) {
		how = "bundles one of its imports"
	}
	fmt.Fprintf(w, "%s -> %s [%s, %s] (%s)\n", path, chunk.OutputFile, an.TypeOf(chunk.OutputFile), formatBytes(chunk.Bytes), how)
}

func writeComparison(w io.Writer, before, after *coreapp.Analysis, r compare.Report) {
	fmt.Fprintf(w, "Before: %s (entry %s)\n", before.Source, before.Entry)
	fmt.Fprintf(w, "After:  %s (entry %s)\n\n", after.Source, after.Entry)

	writeSetDelta(w, "Initial", r.Initial)
	writeSetDelta(w, "Lazy", r.Lazy)
	fmt.Fprintf(w, "Total change: %s\n", formatDelta(r.TotalDelta()))

	changed := make([]compare.ChunkDelta, 0, len(r.Chunks))
	for _, d := range r.Chunks {
		if d.BytesDelta != 0 || len(d.AddedInputs) > 0 || len(d.RemovedInputs) > 0 || d.Before == nil || d.After == nil {
			changed = append(changed, d)
		}
	}
	if len(changed) == 0 {
		fmt.Fprintln(w, "\nNo chunk changes.")
		return
	}

	fmt.Fprintln(w, "\nChunks:")
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	for _, d := range changed {
		state := ""
		switch {
		case d.Before == nil:
			state = "new"
		case d.After == nil:
			state = "removed"
		}
		fmt.Fprintf(tw, "  %s\t%s\t+%d/-%d inputs\t%s\n", d.Key, formatDelta(d.BytesDelta), len(d.AddedInputs), len(d.RemovedInputs), state)
	}
	_ = tw.Flush()
}

func writeSetDelta(w io.Writer, label string, d compare.SetDelta) {
	fmt.Fprintf(w, "%s: %s -> %s (%s)\n", label, formatBytes(d.Before), formatBytes(d.After), formatDelta(d.Delta))
	for _, out := range d.Added {
		fmt.Fprintf(w, "  + %s\n", out)
	}
	for _, out := range d.Removed {
		fmt.Fprintf(w, "  - %s\n", out)
	}
}

func writeSnapshots(w io.Writer, list []snapshots.Snapshot, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, "No snapshots saved.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSAVED\tENTRY\tINITIAL\tLAZY\tOUTPUTS")
	for _, s := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%d\n",
			shortID(s.ID),
			s.Name,
			humanize.RelTime(s.Timestamp, now, "ago", "from now"),
			s.Totals.EntryOutput,
			formatBytes(s.Totals.InitialBytes),
			formatBytes(s.Totals.LazyBytes),
			s.Totals.OutputCount,
		)
	}
	_ = tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
