// Package filter implements the rewriter chain that sits between the
// grouper and the output writer: a Dispatcher runs each Node through its
// registered rewriters, applying the default emitter (streaming for
// table-dml, materializing otherwise) to whatever survives.
package filter

import (
	"errors"
	"fmt"
)

// ErrSkipNode is the control signal a rewriter returns to suppress a
// node entirely. The dispatcher recovers it locally: the node's
// interior is drained and emission moves on to the next node.
var ErrSkipNode = errors.New("skip node")

// ErrFilteredItem is wrapped into a *FilteredItemError by a Glob when a
// name fails its include/exclude test. Built-in rewriters always
// convert this into ErrSkipNode before it reaches the dispatcher.
var ErrFilteredItem = errors.New("filtered item")

// FilteredItemError carries the name that failed the glob test and why.
type FilteredItemError struct {
	Text   string
	Reason string
}

func (e *FilteredItemError) Error() string {
	return fmt.Sprintf("%s: %q (%s)", ErrFilteredItem, e.Text, e.Reason)
}

func (e *FilteredItemError) Unwrap() error { return ErrFilteredItem }
