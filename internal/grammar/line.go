package grammar

import (
	"fmt"
	"strings"
)

// TypeExprKind discriminates a parsed type expression.
type TypeExprKind int

const (
	TypeScalar TypeExprKind = iota
	TypeArray
)

// TypeExpr is the concrete-syntax form of a type reference: either a
// scalar (primitive or versioned composite reference, with an optional
// cast-mode prefix) or an array over another TypeExpr. Resolution into an
// actual dsdltype.Type happens in internal/builder, which alone knows
// about peer composites and the primitive naming grammar.
type TypeExpr struct {
	Kind TypeExprKind
	Line int

	// Scalar
	CastMode   string // "saturated" | "truncated" | ""
	Name       string // primitive keyword, or dotted composite short/full name
	HasVersion bool
	VerMajor   int
	VerMinor   int

	// Array
	Element      *TypeExpr
	ArrayKindTag string // "" (fixed) | "<=" | "<"
	Capacity     *Expr
}

// StatementKind discriminates one parsed source line.
type StatementKind int

const (
	StmtDirective StatementKind = iota
	StmtServiceMarker
	StmtField
	StmtPadding
	StmtConstant
)

// Statement is the concrete-syntax result of parsing one non-empty,
// non-comment-only source line (spec §4.1).
type Statement struct {
	Kind StatementKind
	Line int

	DirectiveName string
	DirectiveArg  *Expr

	Type  *TypeExpr
	Name  string
	Value *Expr
}

type stmtParser struct {
	toks []Token
	pos  int
	line int
}

func (p *stmtParser) peek() Token   { return p.toks[p.pos] }
func (p *stmtParser) advance() Token {
	t := p.toks[p.pos]
	p.pos++
	return t
}
func (p *stmtParser) atPunct(s string) bool {
	t := p.peek()
	return t.Kind == TokPunct && t.Text == s
}
func (p *stmtParser) atOp(s string) bool {
	t := p.peek()
	return t.Kind == TokOp && t.Text == s
}
func (p *stmtParser) atEOF() bool { return p.peek().Kind == TokEOF || p.peek().Kind == TokComment }

func (p *stmtParser) errf(format string, args ...any) error {
	return fmt.Errorf("column %d: %s", p.peek().Column, fmt.Sprintf(format, args...))
}

var castModes = map[string]bool{"saturated": true, "truncated": true}

// ParseLine parses one logical source line (terminator stripped) into a
// Statement. It returns (nil, nil) for a blank or comment-only line,
// matching spec §4.1's Empty line-content variant.
func ParseLine(lineNumber int, text string) (*Statement, error) {
	if IsServiceMarker(text) {
		return &Statement{Kind: StmtServiceMarker, Line: lineNumber}, nil
	}

	toks, err := Tokenize(text)
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNumber, err)
	}
	// Drop a trailing comment token; if nothing else remains the line is
	// effectively empty.
	if n := len(toks); n >= 2 && toks[n-2].Kind == TokComment {
		toks = append(toks[:n-2], toks[n-1])
	}
	if len(toks) == 1 { // only EOF
		return nil, nil
	}

	p := &stmtParser{toks: toks, line: lineNumber}

	if p.atPunct("@") {
		p.advance()
		if p.peek().Kind != TokIdent {
			return nil, fmt.Errorf("line %d: expected directive name after '@'", lineNumber)
		}
		name := p.advance().Text
		stmt := &Statement{Kind: StmtDirective, Line: lineNumber, DirectiveName: name}
		if !p.atEOF() {
			arg, next, err := ParseExpr(p.toks, p.pos, lineNumber)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", lineNumber, err)
			}
			p.pos = next
			stmt.DirectiveArg = arg
		}
		if !p.atEOF() {
			return nil, p.lineErr("unexpected trailing tokens after directive")
		}
		return stmt, nil
	}

	typ, err := p.parseTypeExpr()
	if err != nil {
		return nil, fmt.Errorf("line %d: %w", lineNumber, err)
	}

	if p.atEOF() {
		if isVoidName(typ) {
			return &Statement{Kind: StmtPadding, Line: lineNumber, Type: typ}, nil
		}
		return nil, p.lineErr("expected a field or constant name")
	}

	// A boolean word in name position is passed on as the name so that
	// internal/builder rejects it as a reserved attribute name.
	if p.peek().Kind != TokIdent && p.peek().Kind != TokBool {
		return nil, p.lineErr("expected an identifier")
	}
	name := p.advance().Text

	if p.atPunct("=") {
		p.advance()
		val, next, err := ParseExpr(p.toks, p.pos, lineNumber)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNumber, err)
		}
		p.pos = next
		if !p.atEOF() {
			return nil, p.lineErr("unexpected trailing tokens after constant value")
		}
		return &Statement{Kind: StmtConstant, Line: lineNumber, Type: typ, Name: name, Value: val}, nil
	}

	if !p.atEOF() {
		return nil, p.lineErr("unexpected trailing tokens after field declaration")
	}
	return &Statement{Kind: StmtField, Line: lineNumber, Type: typ, Name: name}, nil
}

func (p *stmtParser) lineErr(msg string) error {
	return fmt.Errorf("line %d, column %d: %s", p.line, p.peek().Column, msg)
}

func isVoidName(t *TypeExpr) bool {
	return t.Kind == TypeScalar && strings.HasPrefix(t.Name, "void")
}

func (p *stmtParser) parseTypeExpr() (*TypeExpr, error) {
	scalar, err := p.parseScalarType()
	if err != nil {
		return nil, err
	}
	cur := scalar
	for p.atPunct("[") {
		p.advance()
		tag := ""
		if p.atOp("<=") {
			p.advance()
			tag = "<="
		} else if p.atOp("<") {
			p.advance()
			tag = "<"
		}
		capacity, next, err := ParseExpr(p.toks, p.pos, p.line)
		if err != nil {
			return nil, err
		}
		p.pos = next
		if !p.atPunct("]") {
			return nil, p.errf("expected ']'")
		}
		p.advance()
		cur = &TypeExpr{
			Kind:         TypeArray,
			Line:         p.line,
			Element:      cur,
			ArrayKindTag: tag,
			Capacity:     capacity,
		}
	}
	return cur, nil
}

func (p *stmtParser) parseScalarType() (*TypeExpr, error) {
	cast := ""
	if p.peek().Kind == TokIdent && castModes[p.peek().Text] {
		cast = p.advance().Text
	}
	if p.peek().Kind != TokIdent {
		return nil, p.errf("expected a type name")
	}
	var b strings.Builder
	b.WriteString(p.advance().Text)
	for p.atOp(".") && p.toks[p.pos+1].Kind == TokIdent {
		p.advance()
		b.WriteByte('.')
		b.WriteString(p.advance().Text)
	}
	te := &TypeExpr{Kind: TypeScalar, Line: p.line, CastMode: cast, Name: b.String()}

	if p.atOp(".") {
		// Possible explicit "<full name>.<major>.<minor>" version suffix:
		// look ahead without committing if it doesn't parse as two ints.
		save := p.pos
		p.advance()
		if p.peek().Kind == TokInt {
			major := p.advance().Text
			if p.atOp(".") {
				p.advance()
				if p.peek().Kind == TokInt {
					minor := p.advance().Text
					te.HasVersion = true
					te.VerMajor = atoiSafe(major)
					te.VerMinor = atoiSafe(minor)
					return te, nil
				}
			}
		}
		p.pos = save
	}
	return te, nil
}

func atoiSafe(s string) int {
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			break
		}
		n = n*10 + int(r-'0')
	}
	return n
}
