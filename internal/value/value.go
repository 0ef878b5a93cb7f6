// Package value implements Any, the universe of constant-expression
// results: Rational, Boolean, String, Set and Type. Types themselves are
// values, since a type reference (e.g. ns.T.1.0) is a first-class
// expression term in the grammar — see spec §9.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
)

// Domain discriminates the Any variants.
type Domain int

const (
	DomainRational Domain = iota
	DomainBoolean
	DomainString
	DomainSet
	DomainType
)

func (d Domain) String() string {
	switch d {
	case DomainRational:
		return "rational"
	case DomainBoolean:
		return "bool"
	case DomainString:
		return "string"
	case DomainSet:
		return "set"
	case DomainType:
		return "type"
	default:
		return "unknown"
	}
}

// Type is implemented by the serializable-type package (dsdltype.Type) to
// avoid an import cycle: value needs to hold a type as a value, dsdltype
// needs to hold values as constants.
type Type interface {
	// TypeString renders the canonical reference form of the type, used
	// both for diagnostics and for the round-trip invariant in spec §8.
	TypeString() string
	// Equal reports deep equality between two serializable types.
	Equal(Type) bool
}

// Value is one member of the Any universe. Exactly one of the typed
// accessors below is meaningful, selected by Domain.
type Value struct {
	domain Domain
	rat    *big.Rat
	isInt  bool
	b      bool
	s      string
	set    []Value
	elemOf Domain // element domain of a Set value
	typ    Type
}

// Rational constructs an exact-fraction value.
func Rational(r *big.Rat) Value {
	return Value{domain: DomainRational, rat: r, isInt: r.IsInt()}
}

// Integer constructs an integer-valued Rational from an int64.
func Integer(i int64) Value {
	return Rational(new(big.Rat).SetInt64(i))
}

// Boolean constructs a boolean value.
func Boolean(b bool) Value {
	return Value{domain: DomainBoolean, b: b}
}

// String constructs a string value.
func String(s string) Value {
	return Value{domain: DomainString, s: s}
}

// TypeValue constructs a value wrapping a serializable type.
func TypeValue(t Type) Value {
	return Value{domain: DomainType, typ: t}
}

// NewSet constructs a Set value. elems must be non-empty (spec §3: "empty
// sets are not representable by literal syntax") and homogeneous; NewSet
// deduplicates by Equal and sorts deterministically where an ordering is
// defined, mirroring set display in diagnostics.
func NewSet(elems []Value) (Value, error) {
	if len(elems) == 0 {
		return Value{}, fmt.Errorf("empty sets are not representable by literal syntax")
	}
	elemOf := elems[0].domain
	out := make([]Value, 0, len(elems))
	for _, e := range elems {
		if e.domain != elemOf {
			return Value{}, fmt.Errorf("set elements must share one domain, found %s and %s", elemOf, e.domain)
		}
		dup := false
		for _, existing := range out {
			if existing.Equal(e) {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, e)
		}
	}
	sortSet(out)
	return Value{domain: DomainSet, set: out, elemOf: elemOf}, nil
}

func sortSet(s []Value) {
	sort.SliceStable(s, func(i, j int) bool {
		a, b := s[i], s[j]
		switch a.domain {
		case DomainRational:
			return a.rat.Cmp(b.rat) < 0
		case DomainString:
			return a.s < b.s
		case DomainBoolean:
			return !a.b && b.b
		default:
			return a.String() < b.String()
		}
	})
}

// Domain reports which variant v holds.
func (v Value) Domain() Domain { return v.domain }

// IsInteger reports whether a Rational value carries an exact integer.
func (v Value) IsInteger() bool { return v.domain == DomainRational && v.isInt }

// Rat returns the underlying fraction of a Rational value.
func (v Value) Rat() *big.Rat { return v.rat }

// Bool returns the underlying bool of a Boolean value.
func (v Value) Bool() bool { return v.b }

// Str returns the underlying string of a String value.
func (v Value) Str() string { return v.s }

// Elements returns the (already deduplicated, sorted) members of a Set
// value.
func (v Value) Elements() []Value { return v.set }

// ElementDomain returns the element domain of a Set value.
func (v Value) ElementDomain() Domain { return v.elemOf }

// AsType returns the wrapped Type of a Type value.
func (v Value) AsType() Type { return v.typ }

// Equal reports structural equality between two Any values, used by set
// deduplication, membership, and the == / != operators.
func (v Value) Equal(o Value) bool {
	if v.domain != o.domain {
		return false
	}
	switch v.domain {
	case DomainRational:
		return v.rat.Cmp(o.rat) == 0
	case DomainBoolean:
		return v.b == o.b
	case DomainString:
		return v.s == o.s
	case DomainType:
		return v.typ.Equal(o.typ)
	case DomainSet:
		if len(v.set) != len(o.set) {
			return false
		}
		for i := range v.set {
			if !v.set[i].Equal(o.set[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// String renders v for diagnostics and @print output.
func (v Value) String() string {
	switch v.domain {
	case DomainRational:
		if v.isInt {
			return v.rat.RatString()
		}
		return v.rat.RatString()
	case DomainBoolean:
		if v.b {
			return "true"
		}
		return "false"
	case DomainString:
		return fmt.Sprintf("%q", v.s)
	case DomainType:
		return v.typ.TypeString()
	case DomainSet:
		parts := make([]string, len(v.set))
		for i, e := range v.set {
			parts[i] = e.String()
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<invalid>"
	}
}
