package eval

import (
	"strconv"
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
)

// parsePrimitive recognizes a bare primitive type keyword (spec §3):
// bool, byte, utf8, void1..64, {saturated,truncated}{int,uint}<width>, and
// {saturated,truncated}float{16,32,64}. It serves identifiers inside
// expressions, so that a primitive name used as a value (e.g. an @assert
// argument referencing a type) resolves without needing the namespace
// registry; type positions in a definition are resolved separately by
// internal/builder's own resolvePrimitive.
func parsePrimitive(name string) (dsdltype.Type, bool) {
	if name == "bool" {
		return dsdltype.Boolean{}, true
	}
	if name == "byte" || name == "utf8" {
		return dsdltype.Integer{Signed: false, Width: 8, Cast: dsdltype.Saturated}, true
	}
	if strings.HasPrefix(name, "void") {
		if w, ok := parseWidth(name[len("void"):]); ok && w >= 1 && w <= 64 {
			return dsdltype.Void{Width: uint8(w)}, true
		}
		return nil, false
	}

	cast := dsdltype.Saturated
	rest := name
	switch {
	case strings.HasPrefix(rest, "saturated"):
		rest = rest[len("saturated"):]
	case strings.HasPrefix(rest, "truncated"):
		cast = dsdltype.Truncated
		rest = rest[len("truncated"):]
	}

	switch {
	case strings.HasPrefix(rest, "uint"):
		if w, ok := parseWidth(rest[len("uint"):]); ok && w >= 1 && w <= 64 {
			return dsdltype.Integer{Signed: false, Width: uint8(w), Cast: cast}, true
		}
	case strings.HasPrefix(rest, "int"):
		if w, ok := parseWidth(rest[len("int"):]); ok && w >= 2 && w <= 64 {
			return dsdltype.Integer{Signed: true, Width: uint8(w), Cast: cast}, true
		}
	case strings.HasPrefix(rest, "float"):
		if w, ok := parseWidth(rest[len("float"):]); ok && (w == 16 || w == 32 || w == 64) {
			return dsdltype.Float{Width: uint8(w), Cast: cast}, true
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
