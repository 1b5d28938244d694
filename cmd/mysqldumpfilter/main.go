package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/jessevdk/go-flags"

	"github.com/abg/mysqldumpfilter/filter"
	"github.com/abg/mysqldumpfilter/internal/logging"
)

var version string

type cliOptions struct {
	Tables           []string `short:"t" long:"table" description:"Include only this db.table (repeatable)" value-name:"db.table"`
	ExcludeTables    []string `short:"T" long:"exclude-table" description:"Exclude this db.table (repeatable)" value-name:"db.table"`
	Databases        []string `short:"d" long:"database" description:"Include only this database (repeatable)" value-name:"name"`
	ExcludeDatabases []string `short:"D" long:"exclude-database" description:"Exclude this database (repeatable)" value-name:"name"`
	Engines          []string `short:"e" long:"engine" description:"Include only this storage engine (repeatable)" value-name:"name"`
	ExcludeEngines   []string `short:"E" long:"exclude-engine" description:"Exclude this storage engine (repeatable)" value-name:"name"`
	NoData           bool     `long:"no-data" description:"Drop every table-dml section, keeping schema only"`
	SkipBinlog       bool     `long:"skip-binlog" description:"Disable binary logging for the restore session"`
	SkipTriggers     bool     `long:"skip-triggers" description:"Drop trigger-recreation statements from table-dml sections"`
	SkipRoutines     bool     `long:"skip-routines" description:"Drop stored function/procedure sections"`
	TOC              bool     `long:"toc" description:"Print a table of contents and exit, instead of writing the filtered dump"`
	Config           string   `long:"config" description:"YAML file with the same filters as the flags above" value-name:"file"`
	Help             bool     `long:"help" description:"Show this help"`
	Version          bool     `long:"version" description:"Show this version"`

	Args struct {
		Files []string `positional-arg-name:"file" description:"dump file(s) to read (- or absent means stdin)"`
	} `positional-args:"yes"`
}

// parseOptions parses args into a merged filter.Config (file config, if
// --config names one, overridden by the flags actually passed), whether
// --toc was given, and the list of input files to process ("-" or an
// empty list means stdin).
func parseOptions(args []string) (cfg filter.Config, toc bool, files []string) {
	var opts cliOptions
	parser := flags.NewParser(&opts, flags.None)
	parser.Usage = "[options] [file...]"

	args, err := parser.ParseArgs(args)
	if err != nil {
		parser.WriteHelp(os.Stderr)
		os.Exit(2)
	}

	if opts.Help {
		parser.WriteHelp(os.Stdout)
		os.Exit(0)
	}
	if opts.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	fileConfig, err := filter.LoadConfig(opts.Config)
	if err != nil {
		slog.Error("failed to read config file", "path", opts.Config, "error", err)
		os.Exit(1)
	}

	flagConfig := filter.Config{
		Tables:           opts.Tables,
		ExcludeTables:    opts.ExcludeTables,
		Databases:        opts.Databases,
		ExcludeDatabases: opts.ExcludeDatabases,
		Engines:          opts.Engines,
		ExcludeEngines:   opts.ExcludeEngines,
		NoData:           opts.NoData,
		SkipBinlog:       opts.SkipBinlog,
		SkipTriggers:     opts.SkipTriggers,
		SkipRoutines:     opts.SkipRoutines,
	}
	cfg = filter.MergeConfig(fileConfig, flagConfig)
	cfg = withImplicitDatabases(cfg)

	files = opts.Args.Files
	if len(files) == 0 {
		files = []string{"-"}
	}
	return cfg, opts.TOC, files
}

// withImplicitDatabases adds the database half of any qualified
// db.table filter that doesn't already have its own database entry,
// logging the addition -- SPEC_FULL.md section 7 item 4, ported from
// holland_restore's setup_database_filters.
func withImplicitDatabases(cfg filter.Config) filter.Config {
	known := make(map[string]bool, len(cfg.Databases))
	for _, db := range cfg.Databases {
		known[db] = true
	}
	knownExcluded := make(map[string]bool, len(cfg.ExcludeDatabases))
	for _, db := range cfg.ExcludeDatabases {
		knownExcluded[db] = true
	}

	addImplicit := func(qualified []string, list *[]string, seen map[string]bool) {
		for _, q := range qualified {
			db, _, ok := strings.Cut(q, ".")
			if !ok || seen[db] {
				continue
			}
			seen[db] = true
			*list = append(*list, db)
			slog.Info("implicitly including database from qualified table filter", "database", db, "table", q)
		}
	}
	addImplicit(cfg.Tables, &cfg.Databases, known)
	addImplicit(cfg.ExcludeTables, &cfg.ExcludeDatabases, knownExcluded)

	return cfg
}

func main() {
	logging.Init()
	cfg, toc, files := parseOptions(os.Args[1:])

	code := 0
	for _, path := range files {
		d, err := buildDispatcher(cfg)
		if err != nil {
			slog.Error("failed to build filters", "error", err)
			os.Exit(1)
		}
		if err := processFile(path, d, toc, os.Stdout); err != nil {
			if isParseFailure(err) {
				slog.Error("parse failure", "file", path, "error", err)
				code = 2
			} else {
				slog.Error("i/o error", "file", path, "error", err)
				code = 1
			}
			break
		}
	}
	os.Exit(code)
}
