package filter

import (
	"errors"
	"log/slog"

	"github.com/abg/mysqldumpfilter/node"
)

// Rewriter inspects (and may replace) a node. Returning ErrSkipNode
// suppresses the node; any other error aborts the pipeline after the
// node's interior is drained; otherwise the returned node (which may be
// the same node, unchanged) replaces the current one for the rest of
// the chain.
type Rewriter func(d *Dispatcher, n *node.Node) (*node.Node, error)

// Handle identifies a registered rewriter for Unregister, and for the
// one-shot self-unregistration skip-engines performs on a filter match.
type Handle struct {
	typ node.Type
	id  int
}

type entry struct {
	id int
	fn Rewriter
}

// Dispatcher runs each node it is given through the rewriter chain
// registered for that node's type, then applies the default emitter to
// whatever survives. It also doubles as the per-stream context object
// that header/DDL nodes stash their database and table name into, for
// downstream rewriters (skip-databases, skip-tables, skip-engines) to
// read -- one Dispatcher serves exactly one input stream.
type Dispatcher struct {
	rewriters map[node.Type][]entry
	nextID    int

	Database string
	Table    string
}

// NewDispatcher builds an empty Dispatcher.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{rewriters: make(map[node.Type][]entry)}
}

// Register appends r to the chain run for nodes of type t, returning a
// Handle that Unregister accepts.
func (d *Dispatcher) Register(t node.Type, r Rewriter) Handle {
	d.nextID++
	id := d.nextID
	d.rewriters[t] = append(d.rewriters[t], entry{id: id, fn: r})
	return Handle{typ: t, id: id}
}

// Unregister removes the rewriter identified by h, if still registered.
func (d *Dispatcher) Unregister(h Handle) {
	chain := d.rewriters[h.typ]
	for i, e := range chain {
		if e.id == h.id {
			d.rewriters[h.typ] = append(chain[:i:i], chain[i+1:]...)
			return
		}
	}
}

// captureContext updates the dispatcher's Database/Table fields from
// whatever n's own extractors report, per spec section 4.4: header,
// database-ddl and view-finalize-db carry the database; table-ddl and
// table-dml carry both; view-temp-ddl and view-ddl carry only the table
// (view name).
func (d *Dispatcher) captureContext(n *node.Node) {
	switch n.Type {
	case node.DumpHeader, node.DatabaseDDL, node.ViewFinalizeDB:
		if db, ok := n.Database(); ok {
			d.Database = db
		}
	case node.TableDDL:
		if db, ok := n.Database(); ok {
			d.Database = db
		}
		if table, ok := n.Table(); ok {
			d.Table = table
		}
	case node.ViewTempDDL, node.ViewDDL:
		if table, ok := n.Table(); ok {
			d.Table = table
		}
	case node.TableDML:
		if db, ok := n.Database(); ok {
			d.Database = db
		}
		if table, ok := n.Table(); ok {
			d.Table = table
		}
	}
}

// Emit runs n through its type's registered rewriter chain and, unless
// skipped, applies the default emitter: chunk is called once per output
// byte-run (one call per token for table-dml, one call with the whole
// concatenated text otherwise). A skip-node or any other rewriter error
// still drains whatever node was current at the point of failure, so
// the underlying tokenizer position is left deterministic.
func (d *Dispatcher) Emit(n *node.Node, chunk func(string) error) error {
	cur := n
	for _, e := range d.rewriters[cur.Type] {
		d.captureContext(cur)
		next, err := e.fn(d, cur)
		if err != nil {
			if errors.Is(err, ErrSkipNode) {
				slog.Debug("skipping node", "type", cur.Type, "database", d.Database, "table", d.Table)
				return cur.Drain()
			}
			cur.Drain()
			return err
		}
		cur = next
	}
	d.captureContext(cur)
	return defaultEmit(cur, chunk)
}

// defaultEmit implements spec section 4.4 step 1: table-dml streams
// each token's text individually (bounded memory); every other type
// materializes the full concatenation as one chunk.
func defaultEmit(n *node.Node, chunk func(string) error) error {
	if n.Type == node.TableDML {
		return n.EachChunk(chunk)
	}
	text, err := n.Render()
	if err != nil {
		return err
	}
	return chunk(text)
}
