package eval

import (
	"strconv"
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/grammar"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

// lookupIdent resolves a bare identifier: an already-declared local
// attribute first (fields carry their Type as a value, constants carry
// their evaluated value), then a primitive type keyword used as a type
// value, per spec §4.2/§9.
func lookupIdent(name string, line int, env *Environment) (value.Value, error) {
	if env != nil {
		if v, ok := env.attrs[name]; ok {
			return v, nil
		}
	}
	if t, ok := parsePrimitive(name); ok {
		return value.TypeValue(t), nil
	}
	return value.Value{}, derrors.At(derrors.New(derrors.Semantic, "undefined identifier %q", name), "", line)
}

// flattenChain unwinds a left-associative ExprMember chain into its
// dotted name components, in source order: "ns.T.1.0.X" parses as nested
// ExprMember nodes and flattens to ["ns","T","1","0","X"].
func flattenChain(e *grammar.Expr) []string {
	if e.Kind == grammar.ExprIdent {
		return []string{e.Text}
	}
	return append(flattenChain(e.Target), e.Name)
}

// evalMember evaluates T.X or T.Major.Minor.X member access. Only
// composite type references carry attributes reachable this way; a
// local field/constant name never has members of its own in this
// grammar.
func evalMember(e *grammar.Expr, env *Environment) (value.Value, error) {
	if env == nil || env.resolve == nil {
		return value.Value{}, derrors.At(derrors.New(derrors.Semantic, "attribute access is not available in this context"), "", e.Line)
	}
	components := flattenChain(e)
	attr := components[len(components)-1]
	path := components[:len(components)-1]

	hasVersion := false
	major, minor := 0, 0
	if len(path) >= 2 {
		if m, ok := asUint(path[len(path)-2]); ok {
			if n, ok := asUint(path[len(path)-1]); ok {
				hasVersion = true
				major, minor = m, n
				path = path[:len(path)-2]
			}
		}
	}
	if len(path) == 0 {
		return value.Value{}, derrors.At(derrors.New(derrors.Semantic, "malformed type reference before %q", attr), "", e.Line)
	}
	typeName := strings.Join(path, ".")
	return env.resolve(typeName, hasVersion, major, minor, attr, e.Line)
}

func asUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
