package filter

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/abg/mysqldumpfilter/node"
	"github.com/abg/mysqldumpfilter/token"
)

// asSkip converts a Glob's ErrFilteredItem into ErrSkipNode, the only
// error a rewriter is allowed to recover locally; any other error
// (a compile-time bug surfacing late, a lookup failure) is fatal.
func asSkip(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrFilteredItem) {
		return ErrSkipNode
	}
	return err
}

// SkipDatabases drops every node once the dispatcher's current database
// fails g's include/exclude test.
func SkipDatabases(g *Glob) Rewriter {
	return func(d *Dispatcher, n *node.Node) (*node.Node, error) {
		if err := asSkip(g.Evaluate(d.Database)); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// SkipTables drops a node once "database.table" fails g's test.
func SkipTables(g *Glob) Rewriter {
	return func(d *Dispatcher, n *node.Node) (*node.Node, error) {
		qualified := fmt.Sprintf("%s.%s", d.Database, d.Table)
		if err := asSkip(g.Evaluate(qualified)); err != nil {
			return nil, err
		}
		return n, nil
	}
}

// SkipEngines drops a table-ddl or view-temp-ddl node whose storage
// engine ("view" for view-temp-ddl) fails g's test, and also arranges
// for the node's payload counterpart (the following table-dml for a
// table, or view-ddl for a view) to be dropped: it registers a one-shot
// skip-tables rewriter against that type, unregistering itself the
// first time it fires.
func SkipEngines(g *Glob) Rewriter {
	return func(d *Dispatcher, n *node.Node) (*node.Node, error) {
		engine, ok := n.Engine()
		if !ok {
			return n, nil
		}
		if err := g.Evaluate(engine); err == nil {
			return n, nil
		} else if !errors.Is(err, ErrFilteredItem) {
			return nil, err
		}

		payloadType := node.TableDML
		if n.Type == node.ViewTempDDL {
			payloadType = node.ViewDDL
		}
		qualified := fmt.Sprintf("%s.%s", d.Database, d.Table)
		named, err := NewGlob(nil, []string{qualified}, false)
		if err != nil {
			return nil, err
		}

		var handle Handle
		oneShot := func(dd *Dispatcher, nn *node.Node) (*node.Node, error) {
			dd.Unregister(handle)
			return SkipTables(named)(dd, nn)
		}
		handle = d.Register(payloadType, oneShot)

		return nil, ErrSkipNode
	}
}

// SkipNode unconditionally suppresses every node it runs against.
func SkipNode() Rewriter {
	return func(d *Dispatcher, n *node.Node) (*node.Node, error) {
		return nil, ErrSkipNode
	}
}

var (
	disableBinlogTok = token.New(token.ConditionalComment, "/*!40101 SET @OLD_SQL_LOG_BIN=@@SQL_LOG_BIN */;\n", 0, 0)
	disableLogBinTok = token.New(token.ConditionalComment, "/*!40101 SET SQL_LOG_BIN = 0 */;\n", 0, 0)
)

// SkipBinlog inserts the two fixed SET lines that disable binary
// logging for the restore session into a setup-session node, just
// before its terminating blank line; every other node passes through
// unchanged.
func SkipBinlog() Rewriter {
	return func(d *Dispatcher, n *node.Node) (*node.Node, error) {
		if n.Type != node.SetupSession {
			return n, nil
		}
		tokens := n.Tokens()
		if len(tokens) == 0 {
			return n, nil
		}
		terminator := tokens[len(tokens)-1]
		body := tokens[:len(tokens)-1]

		slog.Info("disabling binary logging for the restore session")
		rebuilt := make([]token.Token, 0, len(tokens)+2)
		rebuilt = append(rebuilt, body...)
		rebuilt = append(rebuilt, disableBinlogTok, disableLogBinTok, terminator)
		return node.NewMaterialized(n.Type, rebuilt), nil
	}
}

// SkipTriggers wraps a table-dml node's stream, dropping CreateTrigger
// and SetVariable tokens that appear after the row-insert section's
// first blank line, without materializing the (potentially huge) row
// data the node carries.
func SkipTriggers() Rewriter {
	return func(d *Dispatcher, n *node.Node) (*node.Node, error) {
		if n.Type != node.TableDML {
			return n, nil
		}
		db, _ := n.Database()
		table, _ := n.Table()
		inner := n

		source := func(emit func(token.Token) error) error {
			pastRowSection := false
			return inner.EachToken(func(tok token.Token) error {
				if pastRowSection && (tok.Symbol == token.CreateTrigger || tok.Symbol == token.SetVariable) {
					return nil
				}
				if tok.Symbol == token.BlankLine {
					pastRowSection = true
				}
				return emit(tok)
			})
		}
		return node.NewStreamed(node.TableDML, db, table, source), nil
	}
}
