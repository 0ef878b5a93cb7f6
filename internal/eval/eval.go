// Package eval implements the constant-expression evaluator of spec §4.2:
// exact-rational arithmetic over the Any value universe (internal/value),
// attribute lookup against already-declared names, and the operator
// algebra in ops.go.
package eval

import (
	"math/big"

	"github.com/OpenCyphal/pydsdl/internal/grammar"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

// MemberResolver resolves a Type.Attr or Type.Major.Minor.Attr reference
// against the namespace registry, which alone knows about peer composites
// (spec §4.2, §4.3). hasVersion is false when no explicit major.minor
// suffix was written; the resolver then applies the registry's own
// closest-version rule.
type MemberResolver func(typeName string, hasVersion bool, major, minor int, attr string, line int) (value.Value, error)

// Environment holds the names visible while evaluating one expression:
// attributes declared strictly above the current statement in the
// enclosing composite (spec §4.2 forbids forward references and
// self-reference), plus primitive type names and a resolver for peer
// type attribute access.
type Environment struct {
	order   []string
	attrs   map[string]value.Value
	resolve MemberResolver
}

// NewEnvironment constructs an environment scoped to one composite body.
// resolve may be nil when the expression being evaluated is guaranteed
// not to contain member access (e.g. a namespace-level directive).
func NewEnvironment(resolve MemberResolver) *Environment {
	return &Environment{attrs: map[string]value.Value{}, resolve: resolve}
}

// Declare makes name visible to every expression evaluated after this
// call, carrying either a field's type (as a Type value) or a constant's
// already-evaluated value. "No hoisting" (spec §4.2) falls out naturally:
// Declare is only ever invoked by the caller after a prior line has been
// fully processed, so a name is never visible to an expression above it.
func (e *Environment) Declare(name string, v value.Value) {
	if _, ok := e.attrs[name]; !ok {
		e.order = append(e.order, name)
	}
	e.attrs[name] = v
}

// Has reports whether name has already been declared in this scope.
func (e *Environment) Has(name string) bool {
	_, ok := e.attrs[name]
	return ok
}

// Evaluate reduces expr to a single Any value against env.
func Evaluate(expr *grammar.Expr, env *Environment) (value.Value, error) {
	switch expr.Kind {
	case grammar.ExprInt:
		i, err := parseIntLiteral(expr.Text)
		if err != nil {
			return value.Value{}, errAt(expr.Line, "%s", err.Error())
		}
		return value.Rational(new(big.Rat).SetInt(i)), nil

	case grammar.ExprReal:
		r, err := parseRealLiteral(expr.Text)
		if err != nil {
			return value.Value{}, errAt(expr.Line, "%s", err.Error())
		}
		return value.Rational(r), nil

	case grammar.ExprString:
		s, err := unquoteString(expr.Text)
		if err != nil {
			return value.Value{}, errAt(expr.Line, "%s", err.Error())
		}
		return value.String(s), nil

	case grammar.ExprBool:
		return value.Boolean(expr.Bool), nil

	case grammar.ExprSet:
		elems := make([]value.Value, 0, len(expr.Elements))
		for _, el := range expr.Elements {
			v, err := Evaluate(el, env)
			if err != nil {
				return value.Value{}, err
			}
			elems = append(elems, v)
		}
		set, err := value.NewSet(elems)
		if err != nil {
			return value.Value{}, errAt(expr.Line, "%s", err.Error())
		}
		return set, nil

	case grammar.ExprIdent:
		return lookupIdent(expr.Text, expr.Line, env)

	case grammar.ExprMember:
		return evalMember(expr, env)

	case grammar.ExprUnary:
		x, err := Evaluate(expr.X, env)
		if err != nil {
			return value.Value{}, err
		}
		return evalUnary(expr.Op, x, expr.Line)

	case grammar.ExprBinary:
		l, err := Evaluate(expr.L, env)
		if err != nil {
			return value.Value{}, err
		}
		r, err := Evaluate(expr.R, env)
		if err != nil {
			return value.Value{}, err
		}
		return evalBinary(expr.Op, l, r, expr.Line)

	default:
		return value.Value{}, errAt(expr.Line, "unsupported expression node")
	}
}
