package cli

import "flag"

const versionString = "0.4.0"
const defaultConfigPath = "./radar.toml"

type cliOptions struct {
	configPath   string
	entry        string
	path         string
	importers    string
	best         string
	graph        string
	compare      bool
	save         bool
	name         string
	list         bool
	fromSnapshot string
	deleteID     string
	filter       string
	search       string
	watch        bool
	ui           bool
	verbose      bool
	version      bool
	args         []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("radar", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.entry, "entry", "", "Entry output to classify from (overrides automatic selection)")
	fs.StringVar(&opts.path, "path", "", "Print the shortest inclusion path from the entry to this input file")
	fs.StringVar(&opts.importers, "importers", "", "Print every input that imports this file")
	fs.StringVar(&opts.best, "best", "", "Print the chunk that best represents this file")
	fs.StringVar(&opts.graph, "graph", "", "Export the classified chunk graph: mermaid, dot or tsv")
	fs.BoolVar(&opts.compare, "compare", false, "Compare two builds: radar --compare <before> <after>")
	fs.BoolVar(&opts.save, "save", false, "Save the analysed metafile as a snapshot")
	fs.StringVar(&opts.name, "name", "", "Snapshot name used with --save")
	fs.BoolVar(&opts.list, "list", false, "List saved snapshots and exit")
	fs.StringVar(&opts.fromSnapshot, "from-snapshot", "", "Analyse a saved snapshot instead of a metafile")
	fs.StringVar(&opts.deleteID, "delete-snapshot", "", "Delete a saved snapshot and exit")
	fs.StringVar(&opts.filter, "filter", "", "Chunk list filter: all, initial or lazy")
	fs.StringVar(&opts.search, "search", "", "Only list chunks whose output or inputs contain this term")
	fs.BoolVar(&opts.watch, "watch", false, "Re-analyse whenever the metafile changes")
	fs.BoolVar(&opts.ui, "ui", false, "Enable terminal UI mode")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
