package main

import (
	"bufio"
	"errors"
	"io"
	"os"

	"github.com/abg/mysqldumpfilter/filter"
	"github.com/abg/mysqldumpfilter/lexer"
	"github.com/abg/mysqldumpfilter/node"
	"github.com/abg/mysqldumpfilter/scanner"
)

// isParseFailure reports whether err is one of the grouper/tokenizer's
// fatal parse errors (spec section 7: tokenization-error,
// cannot-handle-token, cannot-categorize-comment), which map to exit
// code 2 rather than the generic I/O exit code 1.
func isParseFailure(err error) bool {
	var tokErr *lexer.TokenizationError
	var handleErr *node.CannotHandleTokenError
	var commentErr *node.CannotCategorizeCommentError
	return errors.As(err, &tokErr) || errors.As(err, &handleErr) || errors.As(err, &commentErr)
}

// processFile reads path ("-" or "" for stdin), runs it through d, and
// writes the surviving bytes to w -- or, in toc mode, writes a table of
// contents instead and never materializes the filtered dump.
func processFile(path string, d *filter.Dispatcher, toc bool, w io.Writer) error {
	f, err := openInput(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := scanner.New(scanner.NewSource(f))
	tz := lexer.New(sc, lexer.Rules)
	s := node.NewStream(tz)

	if toc {
		return writeTOC(s, w)
	}

	out := bufio.NewWriter(w)
	for {
		n, err := s.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return out.Flush()
			}
			return err
		}
		if err := d.Emit(n, func(chunk string) error {
			_, err := out.WriteString(chunk)
			return err
		}); err != nil {
			return err
		}
	}
}

func openInput(path string) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(os.Stdin), nil
	}
	return os.Open(path)
}
