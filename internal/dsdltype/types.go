// Package dsdltype implements the serializable type system of spec §3:
// Void, Boolean, Integer, Float, Array, Composite and Service, plus the
// Attribute kinds (Field, PaddingField, Constant) that make up a
// Composite's body.
package dsdltype

import (
	"fmt"

	"github.com/OpenCyphal/pydsdl/internal/bitlen"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

// CastMode controls what happens when an expression's value does not fit
// the representable range of an Integer or Float.
type CastMode int

const (
	Saturated CastMode = iota
	Truncated
)

func (m CastMode) String() string {
	if m == Saturated {
		return "saturated"
	}
	return "truncated"
}

// ArrayKind discriminates fixed from variable-length arrays, and the two
// variable-length capacity conventions.
type ArrayKind int

const (
	Fixed ArrayKind = iota
	VariableInclusive
	VariableExclusive
)

// StructureKind discriminates a Composite's field-layout discipline.
type StructureKind int

const (
	Structure StructureKind = iota
	Union
)

// Type is the common interface every serializable-type variant satisfies.
// It also implements value.Type so that a type can appear as an Any value
// inside expressions (spec §9).
type Type interface {
	value.Type
	// BitLengthSet returns the exact set of possible serialized lengths.
	BitLengthSet() bitlen.Set
}

// ---- Void ----------------------------------------------------------------

// Void is an unnamed padding primitive of a fixed bit width; it cannot
// appear in expressions except as a type reference (spec §3).
type Void struct {
	Width uint8 // 1..64
}

func (v Void) BitLengthSet() bitlen.Set { return bitlen.Singleton(uint64(v.Width)) }
func (v Void) TypeString() string       { return fmt.Sprintf("void%d", v.Width) }
func (v Void) Equal(o value.Type) bool {
	ov, ok := o.(Void)
	return ok && ov.Width == v.Width
}

// ---- Boolean --------------------------------------------------------------

// Boolean is the 1-bit primitive boolean type.
type Boolean struct{}

func (Boolean) BitLengthSet() bitlen.Set { return bitlen.Singleton(1) }
func (Boolean) TypeString() string       { return "bool" }
func (Boolean) Equal(o value.Type) bool   { _, ok := o.(Boolean); return ok }

// ---- Integer ---------------------------------------------------------------

// Integer is a fixed-width signed or unsigned integer primitive.
type Integer struct {
	Signed bool
	Width  uint8 // signed: 2..64, unsigned: 1..64
	Cast   CastMode
}

func (i Integer) BitLengthSet() bitlen.Set { return bitlen.Singleton(uint64(i.Width)) }
func (i Integer) TypeString() string {
	kind := "uint"
	if i.Signed {
		kind = "int"
	}
	return fmt.Sprintf("%s %s%d", i.Cast, kind, i.Width)
}
func (i Integer) Equal(o value.Type) bool {
	oi, ok := o.(Integer)
	return ok && oi.Signed == i.Signed && oi.Width == i.Width && oi.Cast == i.Cast
}

// Bounds returns the smallest and largest representable values for this
// integer's range.
func (i Integer) Bounds() (min, max int64) {
	if i.Signed {
		bits := uint(i.Width)
		max = (int64(1) << (bits - 1)) - 1
		min = -(int64(1) << (bits - 1))
		return
	}
	return 0, int64((uint64(1) << i.Width) - 1)
}

// ---- Float -----------------------------------------------------------------

// Float is a fixed-width IEEE-754 floating point primitive.
type Float struct {
	Width uint8 // 16, 32, 64
	Cast  CastMode
}

func (f Float) BitLengthSet() bitlen.Set { return bitlen.Singleton(uint64(f.Width)) }
func (f Float) TypeString() string       { return fmt.Sprintf("%s float%d", f.Cast, f.Width) }
func (f Float) Equal(o value.Type) bool {
	of, ok := o.(Float)
	return ok && of.Width == f.Width && of.Cast == f.Cast
}

// ---- Array -----------------------------------------------------------------

// Array is a fixed- or variable-length sequence of a single element type.
type Array struct {
	Element  Type
	Capacity uint64
	Kind     ArrayKind
}

// lengthTagWidth returns the number of bits needed to index [0, Capacity]
// inclusive, i.e. ceil(log2(Capacity+1)), with a minimum of 1 (matching
// the byte-aligned tag conventions used for small capacities is a
// deployment choice left to code generators, not this front-end).
func lengthTagWidth(capacity uint64) uint64 {
	if capacity == 0 {
		return 1
	}
	width := uint64(0)
	for (uint64(1) << width) <= capacity {
		width++
	}
	if width == 0 {
		width = 1
	}
	return width
}

func (a Array) BitLengthSet() bitlen.Set {
	elem := a.Element.BitLengthSet()
	switch a.Kind {
	case Fixed:
		k := int(a.Capacity)
		return bitlen.UnifyOver(k, func(i int) bitlen.Set {
			if i != k {
				return bitlen.Set{}
			}
			return repeat(elem, k)
		})
	case VariableInclusive:
		tag := bitlen.Singleton(lengthTagWidth(a.Capacity))
		body := bitlen.UnifyOver(int(a.Capacity), func(k int) bitlen.Set { return repeat(elem, k) })
		return bitlen.Concat(tag, body)
	case VariableExclusive:
		kMax := int(a.Capacity) - 1
		if kMax < 0 {
			kMax = 0
		}
		tag := bitlen.Singleton(lengthTagWidth(a.Capacity))
		body := bitlen.UnifyOver(kMax, func(k int) bitlen.Set { return repeat(elem, k) })
		return bitlen.Concat(tag, body)
	default:
		return bitlen.Set{}
	}
}

func repeat(elem bitlen.Set, k int) bitlen.Set {
	acc := bitlen.Singleton(0)
	for i := 0; i < k; i++ {
		acc = bitlen.Concat(acc, elem)
	}
	return acc
}

func (a Array) TypeString() string {
	switch a.Kind {
	case Fixed:
		return fmt.Sprintf("%s[%d]", a.Element.TypeString(), a.Capacity)
	case VariableInclusive:
		return fmt.Sprintf("%s[<=%d]", a.Element.TypeString(), a.Capacity)
	case VariableExclusive:
		return fmt.Sprintf("%s[<%d]", a.Element.TypeString(), a.Capacity)
	default:
		return a.Element.TypeString() + "[?]"
	}
}

func (a Array) Equal(o value.Type) bool {
	oa, ok := o.(Array)
	return ok && oa.Capacity == a.Capacity && oa.Kind == a.Kind && oa.Element.Equal(a.Element)
}

// ---- Attributes -------------------------------------------------------------

// AttributeKind discriminates a Composite attribute.
type AttributeKind int

const (
	FieldAttr AttributeKind = iota
	PaddingAttr
	ConstantAttr
)

// Attribute is one line of a Composite's body.
type Attribute struct {
	Kind  AttributeKind
	Type  Type
	Name  string       // empty for PaddingAttr
	Value value.Value  // only meaningful for ConstantAttr
	Line  int
}

// ---- Composite / Service ----------------------------------------------------

// Version is a (major, minor) pair; spec §3 requires (full_name, major,
// minor) to be globally unique and all same-major versions bit-compatible.
type Version struct {
	Major, Minor uint8
}

func (v Version) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

// Composite is a named, versioned record: either a Structure (fields in
// declaration order) or a Union (tagged, exactly one field active).
type Composite struct {
	FullName      string // dot-separated, e.g. "uavcan.node.Heartbeat"
	Version       Version
	Kind          StructureKind
	Attributes    []Attribute
	FixedPortID   *uint32
	Deprecated    bool
	Extensible    bool // true when sealed by @extent rather than implicit/@sealed
	Extent        uint64
	Path          string
}

// ShortName is the last dotted component of FullName (spec §3, ≤ 50
// chars, enforced at build time rather than here).
func (c *Composite) ShortName() string {
	last := c.FullName
	for i := len(c.FullName) - 1; i >= 0; i-- {
		if c.FullName[i] == '.' {
			last = c.FullName[i+1:]
			break
		}
	}
	return last
}

// Fields returns only the Field/PaddingField attributes, in declaration
// order, excluding constants.
func (c *Composite) Fields() []Attribute {
	out := make([]Attribute, 0, len(c.Attributes))
	for _, a := range c.Attributes {
		if a.Kind == FieldAttr || a.Kind == PaddingAttr {
			out = append(out, a)
		}
	}
	return out
}

// Constants returns only the Constant attributes, in declaration order.
func (c *Composite) Constants() []Attribute {
	out := make([]Attribute, 0, len(c.Attributes))
	for _, a := range c.Attributes {
		if a.Kind == ConstantAttr {
			out = append(out, a)
		}
	}
	return out
}

// unionTagWidth returns ceil(log2(n)) with a floor of 1, per spec §3.
func unionTagWidth(n int) uint64 {
	w := uint64(0)
	for (1 << w) < n {
		w++
	}
	if w == 0 {
		w = 1
	}
	return w
}

// BitLengthSet implements spec §8 invariants 2 and 3: a structure folds ⊕
// over its fields (constants excluded); a union prepends the implicit
// discriminator tag to the union of each field's own set.
func (c *Composite) BitLengthSet() bitlen.Set {
	fields := c.Fields()
	if c.Kind == Union {
		tag := bitlen.Singleton(unionTagWidth(len(fields)))
		acc := bitlen.Set{}
		for _, f := range fields {
			acc = bitlen.Union(acc, f.Type.BitLengthSet())
		}
		return bitlen.Concat(tag, acc)
	}
	acc := bitlen.Singleton(0)
	for _, f := range fields {
		acc = bitlen.Concat(acc, f.Type.BitLengthSet())
	}
	return acc
}

func (c *Composite) TypeString() string {
	return fmt.Sprintf("%s.%s", c.FullName, c.Version)
}

func (c *Composite) Equal(o value.Type) bool {
	oc, ok := o.(*Composite)
	return ok && oc.FullName == c.FullName && oc.Version == c.Version
}

// Service is a (request, response) Composite pair; it is not itself
// serializable (spec §3).
type Service struct {
	FullName    string
	Version     Version
	Request     *Composite
	Response    *Composite
	FixedPortID *uint32
	Deprecated  bool
	Path        string
}

func (s *Service) TypeString() string { return fmt.Sprintf("%s.%s", s.FullName, s.Version) }
func (s *Service) Equal(o value.Type) bool {
	os, ok := o.(*Service)
	return ok && os.FullName == s.FullName && os.Version == s.Version
}
