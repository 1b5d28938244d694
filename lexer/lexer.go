// Package lexer drives a scanner.Scanner through an ordered list of
// rules to produce a lazy stream of token.Token values, with one-level
// lookahead (Peek) and a small push-back stack.
package lexer

import (
	"errors"
	"fmt"
	"io"

	"github.com/abg/mysqldumpfilter/scanner"
	"github.com/abg/mysqldumpfilter/token"
)

// ErrNoRuleMatched is wrapped into a *TokenizationError when no rule in
// the catalogue recognizes a line.
var ErrNoRuleMatched = errors.New("no tokenization rule matched")

// TokenizationError reports the line and scanner position at which
// tokenization failed; it is always fatal.
type TokenizationError struct {
	Line   string
	LineNo int
	Offset int64
}

func (e *TokenizationError) Error() string {
	return fmt.Sprintf("%s at line %d, offset %d", ErrNoRuleMatched, e.LineNo, e.Offset)
}

func (e *TokenizationError) Unwrap() error { return ErrNoRuleMatched }

// Rule recognizes (or declines) the current line. It returns ok=false
// when the rule does not apply; the next rule in the catalogue is then
// tried. A rule may read additional lines from sc (multi-line rules).
type Rule func(line string, sc *scanner.Scanner) (tok token.Token, ok bool, err error)

// Tokenizer holds a Scanner, an ordered Rule catalogue, and a push-back
// stack of tokens (nesting in practice never exceeds two).
type Tokenizer struct {
	scanner *scanner.Scanner
	rules   []Rule
	stack   []token.Token
}

// New creates a Tokenizer reading lines from sc and classifying them
// with rules, tried in order; the first rule to match wins.
func New(sc *scanner.Scanner, rules []Rule) *Tokenizer {
	return &Tokenizer{scanner: sc, rules: rules}
}

// Position reports the underlying scanner's current (line, offset).
// Pushing a token back onto the tokenizer does not move it back.
func (t *Tokenizer) Position() (line int, offset int64) {
	return t.scanner.Position()
}

// PushBack places tok at the front of the tokenizer's queue so the next
// call to Next returns it again.
func (t *Tokenizer) PushBack(tok token.Token) {
	t.stack = append(t.stack, tok)
}

// Next returns the next available token, preferring any pushed-back
// token over reading further input. It returns io.EOF when the
// underlying stream is exhausted -- the tokenizer's normal termination.
func (t *Tokenizer) Next() (token.Token, error) {
	if n := len(t.stack); n > 0 {
		tok := t.stack[n-1]
		t.stack = t.stack[:n-1]
		return tok, nil
	}
	return t.tokenize()
}

// Peek returns the next token without consuming it. It is equivalent to
// Next followed by PushBack.
func (t *Tokenizer) Peek() (token.Token, error) {
	tok, err := t.Next()
	if err != nil {
		return token.Token{}, err
	}
	t.PushBack(tok)
	return tok, nil
}

func (t *Tokenizer) tokenize() (token.Token, error) {
	line, err := t.scanner.Next()
	if err != nil {
		return token.Token{}, err
	}
	for _, rule := range t.rules {
		tok, ok, err := rule(line, t.scanner)
		if err != nil {
			return token.Token{}, err
		}
		if ok {
			return tok, nil
		}
	}
	lineno, offset := t.scanner.Position()
	return token.Token{}, &TokenizationError{Line: line, LineNo: lineno, Offset: offset}
}
