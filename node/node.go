// Package node folds a lexer's token stream into typed Nodes, one per
// logical section of a mysqldump, and groups the grouper (Stream) that
// produces them.
package node

import (
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/abg/mysqldumpfilter/lexer"
	"github.com/abg/mysqldumpfilter/token"
)

// Type tags the kind of logical dump section a Node represents.
type Type string

const (
	DumpHeader       Type = "dump-header"
	SetupSession     Type = "setup-session"
	RestoreSession   Type = "restore-session"
	Replication      Type = "replication"
	DatabaseDDL      Type = "database-ddl"
	TableDDL         Type = "table-ddl"
	TableDML         Type = "table-dml"
	ViewTempDDL      Type = "view-temp-ddl"
	ViewDDL          Type = "view-ddl"
	ViewFinalizeDB   Type = "view-finalize-db"
	DatabaseRoutines Type = "database-routines"
	DatabaseEvents   Type = "database-events"
	Final            Type = "final"
)

// AllTypes lists every Type value, in declaration order.
var AllTypes = []Type{
	DumpHeader, SetupSession, RestoreSession, Replication,
	DatabaseDDL, TableDDL, TableDML, ViewTempDDL, ViewDDL,
	ViewFinalizeDB, DatabaseRoutines, DatabaseEvents, Final,
}

// Node is a collection of tokens representing one logical section of a
// mysqldump file. A node is either materialized (all tokens known up
// front) or lazy (its interior is pulled from a cursor on demand --
// only table-dml nodes are lazy, so row data never has to be buffered).
type Node struct {
	Type Type

	tokens     []token.Token
	lazy       *lazyCursor
	stream     func(func(token.Token) error) error
	streamDone bool
	database   string
	table      string
}

// lazyCursor streams tokens from a prefix queue and then from a
// tokenizer, stopping (without consuming) at the first token whose
// symbol is in stop.
type lazyCursor struct {
	prefix   []token.Token
	idx      int
	tz       *lexer.Tokenizer
	stop     token.Symbol
	finished bool
}

func (c *lazyCursor) next() (token.Token, bool, error) {
	if c.finished {
		return token.Token{}, false, nil
	}
	if c.idx < len(c.prefix) {
		tok := c.prefix[c.idx]
		c.idx++
		return tok, true, nil
	}
	tok, err := c.tz.Next()
	if err != nil {
		c.finished = true
		if errors.Is(err, io.EOF) {
			return token.Token{}, false, nil
		}
		return token.Token{}, false, err
	}
	if tok.Symbol == c.stop {
		c.tz.PushBack(tok)
		c.finished = true
		return token.Token{}, false, nil
	}
	return tok, true, nil
}

// NewMaterialized builds a Node whose full token sequence is already
// known.
func NewMaterialized(t Type, tokens []token.Token) *Node {
	return &Node{Type: t, tokens: tokens}
}

// newLazy builds a table-dml Node backed by prefix (the flushed
// soft-queue plus the decision token) followed by tokens pulled live
// from tz, up to (excluding) the next token whose symbol is stop.
func newLazy(t Type, prefix []token.Token, tz *lexer.Tokenizer, stop token.Symbol) *Node {
	return &Node{Type: t, lazy: &lazyCursor{prefix: prefix, tz: tz, stop: stop}}
}

// NewStreamed builds a Node of type t whose interior is produced by
// calling source exactly once with a token-consuming callback. This is
// the general streaming constructor a rewriter uses to wrap (filter,
// truncate, or otherwise derive) another node's token stream without
// materializing it -- e.g. skip-triggers dropping tokens from a
// table-dml node's interior.
func NewStreamed(t Type, database, table string, source func(func(token.Token) error) error) *Node {
	return &Node{Type: t, stream: source, database: database, table: table}
}

// withDatabase attaches an explicit database association tracked by the
// grouper rather than recovered from the node's own tokens.
func (n *Node) withDatabase(db string) *Node {
	n.database = db
	return n
}

// withTable attaches an explicit table association for a table-dml node,
// whose lazy interior never materializes the decision token a regex
// extraction would otherwise need.
func (n *Node) withTable(table string) *Node {
	n.table = table
	return n
}

// IsLazy reports whether the node streams its interior rather than
// holding it materialized.
func (n *Node) IsLazy() bool {
	return n.lazy != nil || n.stream != nil
}

// Tokens returns the node's materialized tokens. It is empty for a lazy
// node -- use EachChunk or EachToken to read a lazy node's interior,
// exactly once.
func (n *Node) Tokens() []token.Token {
	return n.tokens
}

// EachToken calls fn once per token in order. For a lazy node this pulls
// from the tokenizer and may only safely be called once; calling it
// again after full consumption is a no-op, matching the "drain is
// idempotent" contract spec'd for lazy nodes.
func (n *Node) EachToken(fn func(token.Token) error) error {
	if n.stream != nil {
		if n.streamDone {
			return nil
		}
		n.streamDone = true
		return n.stream(fn)
	}
	if n.lazy == nil {
		for _, tok := range n.tokens {
			if err := fn(tok); err != nil {
				return err
			}
		}
		return nil
	}
	for {
		tok, ok, err := n.lazy.next()
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := fn(tok); err != nil {
			return err
		}
	}
}

// EachChunk calls fn once per token's text, in order -- the streaming
// rendering primitive used by the default table-dml emitter.
func (n *Node) EachChunk(fn func(string) error) error {
	return n.EachToken(func(tok token.Token) error {
		return fn(tok.Text)
	})
}

// Render concatenates the text of every token in the node, in order.
// Callers should prefer EachChunk for table-dml nodes, whose interior
// may be unboundedly large.
func (n *Node) Render() (string, error) {
	var b strings.Builder
	err := n.EachChunk(func(s string) error {
		b.WriteString(s)
		return nil
	})
	return b.String(), err
}

// Drain ensures the node's interior is fully consumed, advancing the
// underlying tokenizer to the position a full read would have reached.
// It is idempotent and a no-op for materialized nodes.
func (n *Node) Drain() error {
	if !n.IsLazy() {
		return nil
	}
	return n.EachToken(func(token.Token) error { return nil })
}

// FirstLine reports the source line of the node's first token, when
// that is known without consuming the node's interior (true for every
// node except a stream-constructed one whose first token isn't
// determined until the stream actually runs).
func (n *Node) FirstLine() (int, bool) {
	if n.lazy != nil {
		if len(n.lazy.prefix) > 0 {
			return n.lazy.prefix[0].LineRange.First, true
		}
		return 0, false
	}
	if n.stream != nil {
		return 0, false
	}
	if len(n.tokens) > 0 {
		return n.tokens[0].LineRange.First, true
	}
	return 0, false
}

// FirstOffset reports the byte offset of the node's first token, under
// the same availability rule as FirstLine.
func (n *Node) FirstOffset() (int64, bool) {
	if n.lazy != nil {
		if len(n.lazy.prefix) > 0 {
			return n.lazy.prefix[0].Offset, true
		}
		return 0, false
	}
	if n.stream != nil {
		return 0, false
	}
	if len(n.tokens) > 0 {
		return n.tokens[0].Offset, true
	}
	return 0, false
}

// Find returns the first materialized token with the given symbol.
func (n *Node) Find(symbol token.Symbol) (token.Token, bool) {
	for _, tok := range n.tokens {
		if tok.Symbol == symbol {
			return tok, true
		}
	}
	return token.Token{}, false
}

var (
	backtickNameRE   = regexp.MustCompile("`((?:``|[^`])+)`")
	headerDatabaseRE = regexp.MustCompile(`(?m)Database: (.*)$`)
	quotedDatabaseRE = regexp.MustCompile(`'([^']+)'`)
	viewNameRE       = regexp.MustCompile("(?m)^/[*]!50001 VIEW `((?:``|[^`])+)`")
	functionNameRE   = regexp.MustCompile("FUNCTION (?:IF EXISTS )?`((?:``|[^`])+)`")
	procedureNameRE  = regexp.MustCompile("PROCEDURE (?:IF EXISTS )?`((?:``|[^`])+)`")
	binlogPositionRE = regexp.MustCompile(`MASTER_LOG_FILE='([^']+)'.*?MASTER_LOG_POS=(\d+)`)
)

// Database extracts the node's associated database name, when this
// node type carries one. table-ddl and table-dml nodes don't name their
// database in their own tokens, so the grouper attaches it directly
// (the current_db it was tracking when the node was emitted); every
// other type is recovered by pattern matching the node's own tokens.
func (n *Node) Database() (string, bool) {
	if n.database != "" {
		return n.database, true
	}
	switch n.Type {
	case DumpHeader:
		for _, tok := range n.tokens {
			if strings.Contains(tok.Text, "Database: ") {
				if m := tok.Extract(headerDatabaseRE); m != nil {
					return strings.TrimRight(m[0], "\r\n"), true
				}
			}
		}
	case DatabaseDDL:
		if tok, ok := n.Find(token.CreateDatabase); ok {
			if m := tok.Extract(backtickNameRE); m != nil {
				return m[0], true
			}
		}
	case ViewFinalizeDB:
		if tok, ok := n.Find(token.UseDatabase); ok {
			if m := tok.Extract(backtickNameRE); m != nil {
				return m[0], true
			}
		}
	case DatabaseRoutines:
		for _, tok := range n.tokens {
			if strings.Contains(tok.Text, "'") {
				if m := tok.Extract(quotedDatabaseRE); m != nil {
					return m[0], true
				}
			}
		}
	}
	return "", false
}

// Table extracts the node's associated table (or view) name, when this
// node type carries one. A table-dml node's name is attached explicitly
// by the grouper (withTable) since its lazy interior never materializes
// the decision token a regex extraction would otherwise need.
func (n *Node) Table() (string, bool) {
	if n.table != "" {
		return n.table, true
	}
	switch n.Type {
	case TableDDL:
		if tok, ok := n.Find(token.CreateTable); ok {
			if m := tok.Extract(backtickNameRE); m != nil {
				return m[0], true
			}
		}
	case ViewTempDDL:
		if tok, ok := n.Find(token.CreateTmpView); ok {
			if m := tok.Extract(backtickNameRE); m != nil {
				return m[0], true
			}
		}
	case ViewDDL:
		if tok, ok := n.Find(token.CreateView); ok {
			if m := tok.Extract(viewNameRE); m != nil {
				return m[0], true
			}
		}
	}
	return "", false
}

// Engine extracts the storage engine named by a table-ddl node's
// trailing ") ENGINE=NAME" clause, or the literal "view" for a
// view-temp-ddl node (which has no real engine of its own).
func (n *Node) Engine() (string, bool) {
	switch n.Type {
	case TableDDL:
		if tok, ok := n.Find(token.CreateTable); ok {
			if m := tok.Extract(engineRE); m != nil {
				return m[0], true
			}
		}
	case ViewTempDDL:
		return "view", true
	}
	return "", false
}

var engineRE = regexp.MustCompile(`(?m)^\)\s+ENGINE=([a-zA-Z]+)`)

// Routines yields the stored function/procedure names a database-routines
// node names, either in a "DROP ... IF EXISTS" line or in the CREATE
// body itself. Each name is listed once, in order of first appearance.
func (n *Node) Routines() []string {
	if n.Type != DatabaseRoutines {
		return nil
	}
	var names []string
	seen := make(map[string]bool)
	for _, tok := range n.tokens {
		if strings.Contains(tok.Text, "FUNCTION ") {
			if m := tok.Extract(functionNameRE); m != nil && !seen[m[0]] {
				seen[m[0]] = true
				names = append(names, m[0])
			}
		}
		if strings.Contains(tok.Text, "PROCEDURE ") {
			if m := tok.Extract(procedureNameRE); m != nil && !seen[m[0]] {
				seen[m[0]] = true
				names = append(names, m[0])
			}
		}
	}
	return names
}

// Position decodes a replication node's binlog file and position from
// its ChangeMaster token, e.g. CHANGE MASTER TO MASTER_LOG_FILE='bin-log.000007', MASTER_LOG_POS=296.
func (n *Node) Position() (file string, pos int64, ok bool) {
	if n.Type != Replication {
		return "", 0, false
	}
	tok, found := n.Find(token.ChangeMaster)
	if !found {
		return "", 0, false
	}
	m := tok.Extract(binlogPositionRE)
	if m == nil {
		return "", 0, false
	}
	p, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return m[0], p, true
}
