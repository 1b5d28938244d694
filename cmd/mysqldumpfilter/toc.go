package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/abg/mysqldumpfilter/node"
	"github.com/abg/mysqldumpfilter/token"
)

// typeColumnWidth returns the column width each TOC line's type field
// is padded to (left-aligned, spaces on the right), so sibling lines
// line up visually -- but
// only when out is an interactive terminal. Piped/redirected output
// (the common case for scripting against --toc) stays unpadded so
// field boundaries don't shift with the longest type name seen.
func typeColumnWidth(out io.Writer) int {
	f, ok := out.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width := 0
	for _, t := range node.AllTypes {
		if len(t) > width {
			width = len(t)
		}
	}
	return width
}

// writeTOC prints one line per node to out: type, line range, byte
// offset, and whatever of database/table/binlog-position/routine-names
// apply to that node's type (SPEC_FULL.md section 7 item 1). It walks
// each node's tokens once, one at a time, to find its last line (which
// also drains it), so a multi-gigabyte table-dml section never has to
// be materialized to be listed.
func writeTOC(s *node.Stream, out io.Writer) error {
	typeWidth := typeColumnWidth(out)
	for {
		n, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		firstLine, haveFirst := n.FirstLine()
		firstOffset, _ := n.FirstOffset()
		lastLine := firstLine
		if err := n.EachToken(func(tok token.Token) error {
			lastLine = tok.LineRange.Last
			return nil
		}); err != nil {
			return err
		}

		var b strings.Builder
		fmt.Fprintf(&b, "%-*s", typeWidth, string(n.Type))
		if haveFirst {
			fmt.Fprintf(&b, "  lines=%d-%d", firstLine, lastLine)
		}
		fmt.Fprintf(&b, "  offset=%d", firstOffset)
		if db, ok := n.Database(); ok {
			fmt.Fprintf(&b, "  db=%s", db)
		}
		if table, ok := n.Table(); ok {
			fmt.Fprintf(&b, "  table=%s", table)
		}
		if n.Type == node.Replication {
			if file, pos, ok := n.Position(); ok {
				fmt.Fprintf(&b, "  binlog=%s:%d", file, pos)
			}
		}
		if n.Type == node.DatabaseRoutines {
			if routines := n.Routines(); len(routines) > 0 {
				fmt.Fprintf(&b, "  routines=%s", strings.Join(routines, ","))
			}
		}
		b.WriteByte('\n')
		if _, err := io.WriteString(out, b.String()); err != nil {
			return err
		}
	}
}
