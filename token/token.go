// Package token defines the lexical alphabet produced by the lexer: a
// dense Symbol tag plus the verbatim Token value type that carries it.
package token

import "regexp"

// Symbol is the tag of a lexical token recognized in a mysqldump stream.
// It is a dense int rather than an interned string so comparisons are a
// single instruction instead of a string compare.
type Symbol int

const (
	Invalid Symbol = iota
	BlankLine
	SqlComment
	ConditionalComment
	SetVariable
	ChangeMaster
	CreateDatabase
	UseDatabase
	DropTable
	CreateTable
	LockTable
	UnlockTable
	InsertRow
	ReplaceTable
	AlterTable
	DropView
	DropTmpView
	CreateTmpView
	CreateView
	CreateTrigger
	CreateRoutine
)

var names = map[Symbol]string{
	Invalid:             "Invalid",
	BlankLine:           "BlankLine",
	SqlComment:          "SqlComment",
	ConditionalComment:  "ConditionalComment",
	SetVariable:         "SetVariable",
	ChangeMaster:        "ChangeMaster",
	CreateDatabase:      "CreateDatabase",
	UseDatabase:         "UseDatabase",
	DropTable:           "DropTable",
	CreateTable:         "CreateTable",
	LockTable:           "LockTable",
	UnlockTable:         "UnlockTable",
	InsertRow:           "InsertRow",
	ReplaceTable:        "ReplaceTable",
	AlterTable:          "AlterTable",
	DropView:            "DropView",
	DropTmpView:         "DropTmpView",
	CreateTmpView:       "CreateTmpView",
	CreateView:          "CreateView",
	CreateTrigger:       "CreateTrigger",
	CreateRoutine:       "CreateRoutine",
}

// String renders the symbol using the grammar's alphabet name, e.g.
// "CreateTable", so parse errors read like the spec.
func (s Symbol) String() string {
	if name, ok := names[s]; ok {
		return name
	}
	return "Unknown"
}

// Range is an inclusive pair of 1-based source line numbers.
type Range struct {
	First, Last int
}

// Token is an immutable record of one lexical unit: its Symbol, its
// verbatim Text (including any trailing line terminator), the source
// LineRange it was read from, and the byte Offset of its first
// character. Concatenating the Text of every token produced by a lexer
// run, in order, reproduces the input bytes exactly.
type Token struct {
	Symbol    Symbol
	Text      string
	LineRange Range
	Offset    int64
}

// New builds a Token spanning a single line at the scanner's current
// position.
func New(symbol Symbol, text string, line int, offset int64) Token {
	return Token{
		Symbol:    symbol,
		Text:      text,
		LineRange: Range{First: line, Last: line},
		Offset:    offset,
	}
}

// MatchPrefix reports whether the token's text starts with prefix.
func (t Token) MatchPrefix(prefix string) bool {
	return len(t.Text) >= len(prefix) && t.Text[:len(prefix)] == prefix
}

// MatchRegex reports whether re matches the token's text starting at
// its first character, mirroring Python's re.match. Callers should hold
// a package-level precompiled *regexp.Regexp rather than compiling one
// per call.
func (t Token) MatchRegex(re *regexp.Regexp) bool {
	loc := re.FindStringIndex(t.Text)
	return loc != nil && loc[0] == 0
}

// Extract searches the token's text with re and returns the captured
// groups, or nil if re does not match. Like MatchRegex, callers should
// pass a precompiled, purpose-named pattern.
func (t Token) Extract(re *regexp.Regexp) []string {
	match := re.FindStringSubmatch(t.Text)
	if match == nil {
		return nil
	}
	return match[1:]
}
