// Package grammar implements the lexical and syntactic front-end of the
// DSDL line grammar (spec §4.1). Lexing is performed with
// github.com/hucsmn/peg, a LPeg-style PEG combinator engine: each token
// class is a Pattern, matched greedily against the remaining text with
// MatchedPrefix. The token stream produced here feeds a conventional
// precedence-climbing expression parser (expr.go) and a small recursive
// descent statement parser (line.go) — PEG covers the irregular lexical
// surface (numeric literal forms, escaped strings, comments) while the
// classical operator-precedence ladder from spec §4.1 is expressed more
// naturally as an explicit climber than as a combinator tree.
package grammar

import (
	"fmt"
	"strings"

	"github.com/hucsmn/peg"
)

// TokenKind discriminates lexical tokens.
type TokenKind int

const (
	TokEOF TokenKind = iota
	TokComment
	TokIdent
	TokInt
	TokReal
	TokString
	TokBool
	TokOp
	TokPunct
)

// Token is one lexical unit with its 1-based column, used to build
// precise diagnostics alongside the line number tracked by the caller.
type Token struct {
	Kind   TokenKind
	Text   string // original surface text, including quotes for strings
	Column int
}

var (
	digit      = peg.R('0', '9')
	hexDigit   = peg.Alt(peg.R('0', '9'), peg.R('a', 'f'), peg.R('A', 'F'))
	octDigit   = peg.R('0', '7')
	binDigit   = peg.R('0', '1')
	underscore = peg.T("_")
	identStart = peg.Alt(peg.R('a', 'z'), peg.R('A', 'Z'), underscore)
	identCont  = peg.Alt(identStart, digit)

	identifierPat = peg.Seq(identStart, peg.Q0(identCont))

	decDigits = peg.Seq(digit, peg.Q0(peg.Alt(digit, underscore)))
	hexLit    = peg.Seq(peg.TI("0x"), hexDigit, peg.Q0(peg.Alt(hexDigit, underscore)))
	octLit    = peg.Seq(peg.TI("0o"), octDigit, peg.Q0(peg.Alt(octDigit, underscore)))
	binLit    = peg.Seq(peg.TI("0b"), binDigit, peg.Q0(peg.Alt(binDigit, underscore)))
	decLit    = peg.Alt(peg.T("0"), peg.Seq(peg.R('1', '9'), peg.Q0(peg.Alt(digit, underscore))))
	integerPat = peg.Alt(hexLit, octLit, binLit, decLit)

	exponent = peg.Seq(peg.S("eE"), peg.Q01(peg.S("+-")), decDigits)
	fraction = peg.Seq(peg.T("."), decDigits)
	realPat  = peg.Alt(
		peg.Seq(decDigits, fraction, peg.Q01(exponent)),
		peg.Seq(decDigits, exponent),
	)

	escapeSeq    = peg.Seq(peg.T("\\"), peg.Dot)
	dqStringBody = peg.Q0(peg.Alt(escapeSeq, peg.NS("\"\\\n")))
	sqStringBody = peg.Q0(peg.Alt(escapeSeq, peg.NS("'\\\n")))
	dqStringPat  = peg.Seq(peg.T("\""), dqStringBody, peg.T("\""))
	sqStringPat  = peg.Seq(peg.T("'"), sqStringBody, peg.T("'"))
	stringPat    = peg.Alt(dqStringPat, sqStringPat)

	commentPat = peg.Seq(peg.T("#"), peg.Q0(peg.NS("\n")))

	// Multi-character operators must be tried before their single-char
	// prefixes (PEG alternation is ordered, first match wins).
	multiOps = []string{
		"**", "//", "<=", ">=", "==", "!=", "&&", "||",
	}
	singleOps = "+-*/%<>!&|^~."
)

func opPattern() peg.Pattern {
	alts := make([]peg.Pattern, 0, len(multiOps)+1)
	for _, op := range multiOps {
		alts = append(alts, peg.T(op))
	}
	alts = append(alts, peg.S(singleOps))
	return peg.Alt(alts...)
}

var operatorPat = opPattern()

// boolWords are the identifier-shaped words the lexer emits as TokBool.
// Other keywords (e.g. primitive type names) share the identifier syntax
// exactly and are left to the grammar layer as plain TokIdent tokens.
var boolWords = map[string]bool{"true": true, "false": true}

// Tokenize splits one logical source line (terminator already stripped)
// into tokens. The stream always ends with a TokEOF token; a trailing
// comment, if present, is returned as a TokComment token just before it,
// and callers that only care about statements should stop consuming once
// they see it.
func Tokenize(line string) ([]Token, error) {
	var toks []Token
	i := 0
	for i < len(line) {
		for i < len(line) && (line[i] == ' ' || line[i] == '\t' || line[i] == '\r') {
			i++
		}
		if i >= len(line) {
			break
		}
		rest := line[i:]
		col := i + 1

		if prefix, ok := peg.MatchedPrefix(commentPat, rest); ok {
			toks = append(toks, Token{Kind: TokComment, Text: prefix, Column: col})
			i += len(prefix)
			break
		}
		if prefix, ok := peg.MatchedPrefix(stringPat, rest); ok {
			toks = append(toks, Token{Kind: TokString, Text: prefix, Column: col})
			i += len(prefix)
			continue
		}
		// Right after a '.' operator (attribute access or a version suffix
		// such as "ns.T.1.0") digits are integer path components, never
		// the start of a real literal.
		afterDot := len(toks) > 0 && toks[len(toks)-1].Kind == TokOp && toks[len(toks)-1].Text == "."
		if prefix, ok := peg.MatchedPrefix(realPat, rest); ok && !afterDot {
			toks = append(toks, Token{Kind: TokReal, Text: prefix, Column: col})
			i += len(prefix)
			continue
		}
		if prefix, ok := peg.MatchedPrefix(integerPat, rest); ok {
			toks = append(toks, Token{Kind: TokInt, Text: prefix, Column: col})
			i += len(prefix)
			continue
		}
		if prefix, ok := peg.MatchedPrefix(identifierPat, rest); ok {
			kind := TokIdent
			if boolWords[prefix] {
				kind = TokBool
			}
			toks = append(toks, Token{Kind: kind, Text: prefix, Column: col})
			i += len(prefix)
			continue
		}
		if prefix, ok := peg.MatchedPrefix(operatorPat, rest); ok {
			toks = append(toks, Token{Kind: TokOp, Text: prefix, Column: col})
			i += len(prefix)
			continue
		}
		if strings.ContainsRune("{}[](),@=", rune(rest[0])) {
			toks = append(toks, Token{Kind: TokPunct, Text: rest[:1], Column: col})
			i++
			continue
		}
		return nil, fmt.Errorf("unexpected character %q at column %d", rest[0], col)
	}
	toks = append(toks, Token{Kind: TokEOF, Column: len(line) + 1})
	return toks, nil
}

// IsServiceMarker reports whether the raw text of a line is the "---+"
// service request/response separator: three or more '-' characters and
// nothing else apart from surrounding whitespace and a trailing comment.
func IsServiceMarker(line string) bool {
	trimmed := strings.TrimRight(strings.TrimSpace(line), " \t")
	if i := strings.IndexByte(trimmed, '#'); i >= 0 {
		trimmed = strings.TrimRight(trimmed[:i], " \t")
	}
	if len(trimmed) < 3 {
		return false
	}
	for _, r := range trimmed {
		if r != '-' {
			return false
		}
	}
	return true
}
