package lexer

import (
	"regexp"
	"strings"

	"github.com/abg/mysqldumpfilter/scanner"
	"github.com/abg/mysqldumpfilter/token"
)

// Rules is the ordered catalogue from spec.md section 4.2.1. First
// match wins; order is significant (e.g. "--" must be tried before the
// generic CREATE/SET rules so a commented-out CHANGE MASTER is still
// recognized as one).
var Rules = []Rule{
	ruleChangeMaster,
	ruleSQLComment,
	ruleBlank,
	ruleConditionalComment,
	ruleCreateTable,
	ruleCreateDatabase,
	ruleUseDatabase,
	ruleDropTable,
	ruleLockTables,
	ruleUnlockTables,
	ruleDelimiter,
	ruleInsert,
	ruleReplace,
	ruleSetVariable,
}

func makeToken(symbol token.Symbol, line string, sc *scanner.Scanner) token.Token {
	lineno, offset := sc.Position()
	return token.New(symbol, line, lineno, offset)
}

// prefixRule builds a Rule that fires when line has the given prefix,
// delegating token construction to build.
func prefixRule(prefix string, build func(line string, sc *scanner.Scanner) (token.Token, error)) Rule {
	return func(line string, sc *scanner.Scanner) (token.Token, bool, error) {
		if !strings.HasPrefix(line, prefix) {
			return token.Token{}, false, nil
		}
		tok, err := build(line, sc)
		if err != nil {
			return token.Token{}, false, err
		}
		return tok, true, nil
	}
}

func simple(symbol token.Symbol) func(string, *scanner.Scanner) (token.Token, error) {
	return func(line string, sc *scanner.Scanner) (token.Token, error) {
		return makeToken(symbol, line, sc), nil
	}
}

var ruleChangeMaster = prefixRule("CHANGE MASTER", simple(token.ChangeMaster))

func distinguishSQLComment(line string, sc *scanner.Scanner) (token.Token, error) {
	if strings.HasPrefix(line, "-- CHANGE MASTER") {
		return makeToken(token.ChangeMaster, line, sc), nil
	}
	return makeToken(token.SqlComment, line, sc), nil
}

var ruleSQLComment = prefixRule("--", distinguishSQLComment)

func ruleBlank(line string, sc *scanner.Scanner) (token.Token, bool, error) {
	// Minimum non-whitespace line is "--\n".
	if len(line) > 2 {
		return token.Token{}, false, nil
	}
	return makeToken(token.BlankLine, line, sc), true, nil
}

// multiLine reads whole lines verbatim (including terminators) until a
// line, right-trimmed, ends with until; the terminating line is
// included. If the stream ends first, the token carries whatever was
// accumulated -- mirroring the Python generator's silent StopIteration.
func multiLine(symbol token.Symbol, until, firstLine string, sc *scanner.Scanner) token.Token {
	lineno, offset := sc.Position()
	var text strings.Builder
	text.WriteString(firstLine)

	line := firstLine
	for {
		if strings.HasSuffix(strings.TrimRight(line, "\r\n\t "), until) {
			break
		}
		next, err := sc.Next()
		if err != nil {
			break
		}
		text.WriteString(next)
		line = next
	}

	endLine, _ := sc.Position()
	return token.Token{
		Symbol:    symbol,
		Text:      text.String(),
		LineRange: token.Range{First: lineno, Last: endLine},
		Offset:    offset,
	}
}

var ruleCreateTable = prefixRule("CREATE TABLE", func(line string, sc *scanner.Scanner) (token.Token, error) {
	return multiLine(token.CreateTable, ";", line, sc), nil
})

var ruleCreateDatabase = prefixRule("CREATE DATABASE", simple(token.CreateDatabase))
var ruleUseDatabase = prefixRule("USE ", simple(token.UseDatabase))
var ruleDropTable = prefixRule("DROP TABLE", simple(token.DropTable))
var ruleLockTables = prefixRule("LOCK ", simple(token.LockTable))
var ruleUnlockTables = prefixRule("UNLOCK ", simple(token.UnlockTable))
var ruleInsert = prefixRule("INSERT", simple(token.InsertRow))
var ruleReplace = prefixRule("REPLACE", simple(token.ReplaceTable))
var ruleSetVariable = prefixRule("SET ", simple(token.SetVariable))

var conditionalStripSet = "/*!0123456789 "

// stripConditionalPrefix trims leading characters that are part of a
// MySQL conditional-comment opener ("/*!NNNNN "), regardless of exact
// digit count, so the remaining text can be tested for a plain "SET ".
func stripConditionalPrefix(line string) string {
	i := 0
	for i < len(line) && strings.ContainsRune(conditionalStripSet, rune(line[i])) {
		i++
	}
	return line[i:]
}

func distinguishConditional(line string, sc *scanner.Scanner) (token.Token, error) {
	switch {
	case strings.HasPrefix(line, "/*!40000 ALTER"):
		return makeToken(token.AlterTable, line, sc), nil
	case strings.HasPrefix(line, "/*!50001 DROP TABLE"):
		return makeToken(token.DropTmpView, line, sc), nil
	case strings.HasPrefix(line, "/*!50001 DROP VIEW"):
		return makeToken(token.DropView, line, sc), nil
	case strings.HasPrefix(line, "/*!50001 CREATE TABLE"):
		return multiLine(token.CreateTmpView, ";", line, sc), nil
	case strings.HasPrefix(line, "/*!50001 CREATE "):
		return multiLine(token.CreateView, ";", line, sc), nil
	case strings.HasPrefix(stripConditionalPrefix(line), "SET "):
		return makeToken(token.SetVariable, line, sc), nil
	default:
		return makeToken(token.ConditionalComment, line, sc), nil
	}
}

var ruleConditionalComment = prefixRule("/*!", distinguishConditional)

var triggerMarker = regexp.MustCompile(`/\*!50003 TRIGGER`)

func classifyDelimiterBlock(line string, sc *scanner.Scanner) (token.Token, error) {
	tok := multiLine(token.Invalid, "DELIMITER ;", line, sc)
	if triggerMarker.MatchString(tok.Text) {
		tok.Symbol = token.CreateTrigger
	} else {
		tok.Symbol = token.CreateRoutine
	}
	return tok, nil
}

var ruleDelimiter = prefixRule("DELIMITER ;;", classifyDelimiterBlock)
