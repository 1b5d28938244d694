package main

import (
	"github.com/abg/mysqldumpfilter/filter"
	"github.com/abg/mysqldumpfilter/node"
)

// buildDispatcher wires cfg's filter lists and flags into a Dispatcher,
// one per input file -- mirroring holland_restore's
// setup_database_filters/setup_misc_filters, which register the same
// built-in rewriters against the same node types based on the parsed
// CLI options.
func buildDispatcher(cfg filter.Config) (*filter.Dispatcher, error) {
	d := filter.NewDispatcher()

	if len(cfg.Databases) > 0 || len(cfg.ExcludeDatabases) > 0 {
		g, err := filter.NewGlob(cfg.Databases, cfg.ExcludeDatabases, false)
		if err != nil {
			return nil, err
		}
		rewriter := filter.SkipDatabases(g)
		for _, t := range []node.Type{
			node.DatabaseDDL, node.TableDDL, node.TableDML,
			node.ViewTempDDL, node.ViewDDL, node.ViewFinalizeDB,
			node.DatabaseRoutines, node.DatabaseEvents,
		} {
			d.Register(t, rewriter)
		}
	}

	if len(cfg.Tables) > 0 || len(cfg.ExcludeTables) > 0 {
		g, err := filter.NewGlob(cfg.Tables, cfg.ExcludeTables, false)
		if err != nil {
			return nil, err
		}
		rewriter := filter.SkipTables(g)
		for _, t := range []node.Type{node.TableDDL, node.TableDML, node.ViewTempDDL, node.ViewDDL} {
			d.Register(t, rewriter)
		}
	}

	if len(cfg.Engines) > 0 || len(cfg.ExcludeEngines) > 0 {
		g, err := filter.NewGlob(cfg.Engines, cfg.ExcludeEngines, true)
		if err != nil {
			return nil, err
		}
		rewriter := filter.SkipEngines(g)
		d.Register(node.TableDDL, rewriter)
		d.Register(node.ViewTempDDL, rewriter)
	}

	if cfg.NoData {
		d.Register(node.TableDML, filter.SkipNode())
	}
	if cfg.SkipBinlog {
		d.Register(node.SetupSession, filter.SkipBinlog())
	}
	if cfg.SkipTriggers {
		d.Register(node.TableDML, filter.SkipTriggers())
	}
	if cfg.SkipRoutines {
		d.Register(node.DatabaseRoutines, filter.SkipNode())
	}

	return d, nil
}
