package node

import (
	"errors"
	"fmt"

	"github.com/abg/mysqldumpfilter/token"
)

// ErrCannotHandleToken is wrapped into a *CannotHandleTokenError when the
// grouper pulls a token it has no dispatch rule for (or a SetVariable
// without TIME_ZONE), whether or not the soft-queue holds tokens.
var ErrCannotHandleToken = errors.New("grouper cannot handle token")

// CannotHandleTokenError carries the offending token and the soft-queue
// contents at the time of failure, for diagnostics.
type CannotHandleTokenError struct {
	Symbol token.Symbol
	Text   string
	Queue  []token.Token
}

func (e *CannotHandleTokenError) Error() string {
	return fmt.Sprintf("%s: %s[%s] queue=%d pending token(s)", ErrCannotHandleToken, e.Symbol, e.Text, len(e.Queue))
}

func (e *CannotHandleTokenError) Unwrap() error { return ErrCannotHandleToken }

// ErrCannotCategorizeComment is wrapped into a *CannotCategorizeCommentError
// when an empty-section comment block names neither routines nor events.
var ErrCannotCategorizeComment = errors.New("cannot categorize comment block")

type CannotCategorizeCommentError struct {
	Text string
}

func (e *CannotCategorizeCommentError) Error() string {
	return fmt.Sprintf("%s: %q", ErrCannotCategorizeComment, e.Text)
}

func (e *CannotCategorizeCommentError) Unwrap() error { return ErrCannotCategorizeComment }

// ErrLookup matches the spec's "node.find() for an absent symbol" error.
var ErrLookup = errors.New("no token found for symbol")
