// Package builder interprets lowered lines (internal/cst) into a sealed
// dsdltype.Composite: directive dispatch, field/constant/padding
// attribute construction, and the composite invariants of spec §4.3.
package builder

import (
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/cst"
	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
	"github.com/OpenCyphal/pydsdl/internal/eval"
	"github.com/OpenCyphal/pydsdl/internal/grammar"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

// Options carries the build settings the builder itself consults: the
// port-ID and deprecation flags (also found in internal/config's
// ReadNamespaceOptions) and the print callback.
type Options struct {
	AllowUnregulatedFixedPortID bool
	ElevateDeprecationWarnings  bool
	Print                       func(text, path string, line int)
}

// Build interprets one definition's lowered lines into a sealed
// Composite. lines must already have any service marker stripped by the
// caller (internal/registry splits a service file into request/response
// halves before calling Build on each).
func Build(
	path, fullName string,
	major, minor uint8,
	portID *uint32,
	lines []cst.Line,
	resolveType TypeResolver,
	resolveMember eval.MemberResolver,
	opts Options,
) (*dsdltype.Composite, error) {
	if err := validateFullName(fullName); err != nil {
		return nil, err
	}

	env := eval.NewEnvironment(resolveMember)
	declared := map[string]bool{}
	shortName := lastComponent(fullName)

	print := func(text string, line int) {
		if opts.Print != nil {
			opts.Print(text, path, line)
		}
	}

	var attrs []dsdltype.Attribute
	var st state

	for _, ln := range lines {
		if ln.Stmt == nil {
			continue
		}
		switch ln.Stmt.Kind {
		case grammar.StmtDirective:
			if err := st.applyDirective(ln.Stmt, env, print); err != nil {
				return nil, err
			}

		case grammar.StmtField:
			st.sawAnyField = true
			typ, err := resolveTypeExpr(ln.Stmt.Type, env, resolveType)
			if err != nil {
				return nil, err
			}
			name := ln.Stmt.Name
			if err := checkName(name, shortName, declared, ln.Number); err != nil {
				return nil, err
			}
			declared[name] = true
			env.Declare(name, value.TypeValue(typ))
			attrs = append(attrs, dsdltype.Attribute{Kind: dsdltype.FieldAttr, Type: typ, Name: name, Line: ln.Number})

		case grammar.StmtPadding:
			st.sawAnyField = true
			typ, err := resolveTypeExpr(ln.Stmt.Type, env, resolveType)
			if err != nil {
				return nil, err
			}
			if _, ok := typ.(dsdltype.Void); !ok {
				return nil, derrors.At(derrors.New(derrors.Semantic, "padding field must have a void type"), "", ln.Number)
			}
			attrs = append(attrs, dsdltype.Attribute{Kind: dsdltype.PaddingAttr, Type: typ, Line: ln.Number})

		case grammar.StmtConstant:
			typ, err := resolveTypeExpr(ln.Stmt.Type, env, resolveType)
			if err != nil {
				return nil, err
			}
			name := ln.Stmt.Name
			if err := checkName(name, shortName, declared, ln.Number); err != nil {
				return nil, err
			}
			val, err := eval.Evaluate(ln.Stmt.Value, env)
			if err != nil {
				return nil, err
			}
			if err := checkConstantFits(typ, val, ln.Number); err != nil {
				return nil, err
			}
			declared[name] = true
			env.Declare(name, val)
			attrs = append(attrs, dsdltype.Attribute{Kind: dsdltype.ConstantAttr, Type: typ, Name: name, Value: val, Line: ln.Number})

		case grammar.StmtServiceMarker:
			return nil, derrors.At(derrors.New(derrors.Internal, "unexpected service marker reached the builder"), "", ln.Number)
		}
	}

	kind := dsdltype.Structure
	if st.isUnion {
		kind = dsdltype.Union
		fields := 0
		for _, a := range attrs {
			if a.Kind == dsdltype.PaddingAttr {
				return nil, derrors.New(derrors.Semantic, "union may not contain padding fields")
			}
			if a.Kind == dsdltype.FieldAttr {
				fields++
			}
		}
		if fields < 2 {
			return nil, derrors.New(derrors.Semantic, "union must declare at least 2 fields")
		}
	}

	composite := &dsdltype.Composite{
		FullName:    fullName,
		Version:     dsdltype.Version{Major: major, Minor: minor},
		Kind:        kind,
		Attributes:  attrs,
		FixedPortID: portID,
		Deprecated:  st.deprecated,
		Path:        path,
	}

	if !composite.Deprecated {
		for _, a := range attrs {
			dep, ref := deprecatedReference(a.Type)
			if !dep {
				continue
			}
			msg := "attribute references deprecated type " + ref
			if a.Name != "" {
				msg = "attribute " + a.Name + " references deprecated type " + ref
			}
			if opts.ElevateDeprecationWarnings {
				return nil, derrors.At(derrors.New(derrors.DeprecationWarningElevated, "%s", msg), "", a.Line)
			}
			print(msg, a.Line)
		}
	}

	maxBits := composite.BitLengthSet().Max()
	switch st.seal {
	case sealSealed:
		composite.Extensible = false
		composite.Extent = maxBits
	case sealExtent:
		if st.extentBits < maxBits {
			return nil, derrors.New(derrors.Semantic, "@extent %d is smaller than the maximum serialized length %d", st.extentBits, maxBits)
		}
		composite.Extensible = true
		composite.Extent = st.extentBits
	default:
		// Open Question (i): absent an explicit @sealed/@extent, the
		// legacy implicit-extent rule treats the type as sealed at its
		// own maximum serialized length.
		composite.Extensible = false
		composite.Extent = maxBits
	}

	if portID != nil && !IsRegulatedPortID(*portID, false) && !opts.AllowUnregulatedFixedPortID {
		return nil, derrors.New(derrors.PortID, "fixed port ID %d is outside the regulated subject-ID range", *portID)
	}

	return composite, nil
}

func checkName(name, shortName string, declared map[string]bool, line int) error {
	if declared[name] {
		return derrors.At(derrors.New(derrors.Naming, "duplicate attribute name %q", name), "", line)
	}
	if isReservedName(name, shortName) {
		return derrors.At(derrors.New(derrors.Naming, "attribute name %q is reserved", name), "", line)
	}
	return nil
}

func checkConstantFits(t dsdltype.Type, v value.Value, line int) error {
	switch typ := t.(type) {
	case dsdltype.Integer:
		if !v.IsInteger() {
			return derrors.At(derrors.New(derrors.InvalidOperand, "constant value is not an integer"), "", line)
		}
		min, max := typ.Bounds()
		n := v.Rat().Num().Int64()
		if n < min || n > max {
			return derrors.At(derrors.New(derrors.InvalidOperand, "constant value %d is out of range [%d, %d]", n, min, max), "", line)
		}
		return nil
	case dsdltype.Float:
		if v.Domain() != value.DomainRational {
			return derrors.At(derrors.New(derrors.InvalidOperand, "constant value is not numeric"), "", line)
		}
		return nil
	case dsdltype.Boolean:
		if v.Domain() != value.DomainBoolean {
			return derrors.At(derrors.New(derrors.InvalidOperand, "constant value is not boolean"), "", line)
		}
		return nil
	case dsdltype.Void:
		return derrors.At(derrors.New(derrors.Semantic, "void cannot be a constant's type"), "", line)
	default:
		return nil
	}
}

// deprecatedReference reports whether t directly references a deprecated
// composite, unwrapping array element types (spec §4.3: "no non-deprecated
// type may reference a deprecated one without warning"; only a direct
// reference is checked, not a deprecated type's own further references).
func deprecatedReference(t dsdltype.Type) (bool, string) {
	for {
		arr, ok := t.(dsdltype.Array)
		if !ok {
			break
		}
		t = arr.Element
	}
	c, ok := t.(*dsdltype.Composite)
	if !ok || !c.Deprecated {
		return false, ""
	}
	return true, c.TypeString()
}

func lastComponent(fullName string) string {
	if i := strings.LastIndexByte(fullName, '.'); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
