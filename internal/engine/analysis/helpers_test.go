package analysis

import (
	"radar/internal/engine/metafile"
)

func static(path, original string) metafile.Import {
	return metafile.Import{Path: path, Kind: metafile.KindStatic, Original: original}
}

func dynamic(path, original string) metafile.Import {
	return metafile.Import{Path: path, Kind: metafile.KindDynamic, Original: original}
}

func contributions(paths ...string) []metafile.Contribution {
	res := make([]metafile.Contribution, 0, len(paths))
	for _, p := range paths {
		res = append(res, metafile.Contribution{Path: p, BytesInOutput: 1})
	}
	return res
}

// scenarioGraph: main.ts -> app.ts =dynamic=> lazy.ts -> leaf.ts, one output
// per input, plus a server bundle that nothing imports.
func scenarioGraph() *metafile.Graph {
	g := metafile.NewGraph()
	g.AddInput("src/main.ts", &metafile.Input{Bytes: 120, Imports: []metafile.Import{
		static("src/app.ts", "./app"),
		{Path: "react", Kind: metafile.KindStatic, External: true, Original: "react"},
	}})
	g.AddInput("src/app.ts", &metafile.Input{Bytes: 300, Imports: []metafile.Import{dynamic("src/lazy.ts", "./lazy")}})
	g.AddInput("src/lazy.ts", &metafile.Input{Bytes: 80, Imports: []metafile.Import{static("src/leaf.ts", "./leaf")}})
	g.AddInput("src/leaf.ts", &metafile.Input{Bytes: 40})
	g.AddInput("src/server.ts", &metafile.Input{Bytes: 10})

	g.AddOutput("dist/main.js", &metafile.Output{
		Bytes: 1000, EntryPoint: "src/main.ts",
		Imports: []metafile.Import{static("dist/app.js", "")},
		Inputs:  contributions("src/main.ts"),
	})
	g.AddOutput("dist/app.js", &metafile.Output{
		Bytes:   2000,
		Imports: []metafile.Import{dynamic("dist/lazy.js", "")},
		Inputs:  contributions("src/app.ts"),
	})
	g.AddOutput("dist/lazy.js", &metafile.Output{
		Bytes:   500,
		Imports: []metafile.Import{static("dist/leaf.js", "")},
		Inputs:  contributions("src/lazy.ts"),
	})
	g.AddOutput("dist/leaf.js", &metafile.Output{Bytes: 250, Inputs: contributions("src/leaf.ts")})
	g.AddOutput("dist/server/server.mjs", &metafile.Output{
		Bytes: 9000, EntryPoint: "src/server.ts",
		Inputs: contributions("src/server.ts"),
	})
	return g
}

func serverFilter() OutputFilter {
	f, err := GlobOutputFilter(DefaultServerOutputPatterns)
	if err != nil {
		panic(err)
	}
	return f
}
