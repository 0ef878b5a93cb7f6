package builder

import (
	"strconv"
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
	"github.com/OpenCyphal/pydsdl/internal/eval"
	"github.com/OpenCyphal/pydsdl/internal/grammar"
)

// TypeResolver resolves a scalar type reference that is not a primitive:
// a composite short/full name, with or without an explicit major.minor
// suffix (spec §4.3's resolution algorithm). It is implemented by
// internal/registry, which alone knows about peer definitions.
type TypeResolver func(name string, hasVersion bool, major, minor int, line int) (dsdltype.Type, error)

// castModeOf maps the grammar's cast-mode keyword to dsdltype.CastMode,
// defaulting to Saturated when the grammar omitted it (spec leaves the
// cast-mode-optional case to implementers; saturation is the safer
// default since it never silently wraps).
func castModeOf(s string) dsdltype.CastMode {
	if s == "truncated" {
		return dsdltype.Truncated
	}
	return dsdltype.Saturated
}

// resolvePrimitive recognizes bool, byte, utf8, void<N>, {cast}{u}int<N>,
// {cast}float<N> (spec §4.1's primitive grammar row).
func resolvePrimitive(name string, cast string) (dsdltype.Type, bool) {
	if name == "bool" {
		return dsdltype.Boolean{}, true
	}
	if name == "byte" || name == "utf8" {
		// byte and utf8 carry no cast-mode keyword of their own; both are
		// conventionally an 8-bit unsigned element (byte: a raw octet,
		// utf8: one UTF-8 code unit).
		return dsdltype.Integer{Signed: false, Width: 8, Cast: dsdltype.Saturated}, true
	}
	if strings.HasPrefix(name, "void") {
		if w, ok := parseWidth(name[len("void"):]); ok && w >= 1 && w <= 64 {
			return dsdltype.Void{Width: uint8(w)}, true
		}
		return nil, false
	}
	switch {
	case strings.HasPrefix(name, "uint"):
		if w, ok := parseWidth(name[len("uint"):]); ok && w >= 1 && w <= 64 {
			return dsdltype.Integer{Signed: false, Width: uint8(w), Cast: castModeOf(cast)}, true
		}
	case strings.HasPrefix(name, "int"):
		if w, ok := parseWidth(name[len("int"):]); ok && w >= 2 && w <= 64 {
			return dsdltype.Integer{Signed: true, Width: uint8(w), Cast: castModeOf(cast)}, true
		}
	case strings.HasPrefix(name, "float"):
		if w, ok := parseWidth(name[len("float"):]); ok && (w == 16 || w == 32 || w == 64) {
			return dsdltype.Float{Width: uint8(w), Cast: castModeOf(cast)}, true
		}
	}
	return nil, false
}

func parseWidth(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

// resolveTypeExpr turns concrete syntax (grammar.TypeExpr) into a
// dsdltype.Type, evaluating any array capacity expression against env.
func resolveTypeExpr(te *grammar.TypeExpr, env *eval.Environment, resolveType TypeResolver) (dsdltype.Type, error) {
	if te.Kind == grammar.TypeArray {
		elem, err := resolveTypeExpr(te.Element, env, resolveType)
		if err != nil {
			return nil, err
		}
		capVal, err := eval.Evaluate(te.Capacity, env)
		if err != nil {
			return nil, err
		}
		if !capVal.IsInteger() {
			return nil, derrors.At(derrors.New(derrors.Semantic, "array capacity must be an integer"), "", te.Line)
		}
		n := capVal.Rat().Num()
		if n.Sign() < 0 || !n.IsUint64() {
			return nil, derrors.At(derrors.New(derrors.Semantic, "array capacity out of range"), "", te.Line)
		}
		capacity := n.Uint64()
		if capacity == 0 {
			return nil, derrors.At(derrors.New(derrors.Semantic, "array capacity must be at least 1"), "", te.Line)
		}
		kind := dsdltype.Fixed
		switch te.ArrayKindTag {
		case "<=":
			kind = dsdltype.VariableInclusive
		case "<":
			kind = dsdltype.VariableExclusive
		}
		return dsdltype.Array{Element: elem, Capacity: capacity, Kind: kind}, nil
	}

	if prim, ok := resolvePrimitive(te.Name, te.CastMode); ok {
		return prim, nil
	}
	if resolveType == nil {
		return nil, derrors.At(derrors.New(derrors.UndefinedType, "undefined type %q", te.Name), "", te.Line)
	}
	return resolveType(te.Name, te.HasVersion, te.VerMajor, te.VerMinor, te.Line)
}
