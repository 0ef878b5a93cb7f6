package builder

import (
	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/eval"
	"github.com/OpenCyphal/pydsdl/internal/grammar"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

// sealMode tracks which of @sealed/@extent (spec §9 Open Question i) has
// been applied to the composite under construction.
type sealMode int

const (
	sealDefault sealMode = iota // no directive seen: implicit extent
	sealSealed
	sealExtent
)

// state accumulates the effect of directives seen so far while walking a
// composite's lines, in source order.
type state struct {
	isUnion      bool
	unionLocked  bool // set together with isUnion by @union; the @union-after-field check uses sawAnyField
	deprecated   bool
	seal         sealMode
	extentBits   uint64
	sawAnyField  bool
}

// applyDirective dispatches one @directive line (spec §4.3's table).
func (s *state) applyDirective(stmt *grammar.Statement, env *eval.Environment, print func(text string, line int)) error {
	switch stmt.DirectiveName {
	case "deprecated":
		s.deprecated = true
		return nil
	case "union":
		if s.sawAnyField {
			return derrors.At(derrors.New(derrors.Semantic, "@union must precede all fields"), "", stmt.Line)
		}
		s.isUnion = true
		s.unionLocked = true
		return nil
	case "sealed":
		if stmt.DirectiveArg != nil {
			return derrors.At(derrors.New(derrors.Semantic, "@sealed takes no argument"), "", stmt.Line)
		}
		s.seal = sealSealed
		return nil
	case "extent":
		s.seal = sealExtent
		if stmt.DirectiveArg == nil {
			return derrors.At(derrors.New(derrors.Semantic, "@extent requires a bit-length argument"), "", stmt.Line)
		}
		v, err := eval.Evaluate(stmt.DirectiveArg, env)
		if err != nil {
			return err
		}
		if !v.IsInteger() || v.Rat().Sign() < 0 {
			return derrors.At(derrors.New(derrors.Semantic, "@extent argument must be a non-negative integer"), "", stmt.Line)
		}
		s.extentBits = v.Rat().Num().Uint64()
		return nil
	case "print":
		if stmt.DirectiveArg == nil {
			return derrors.At(derrors.New(derrors.Semantic, "@print requires an argument"), "", stmt.Line)
		}
		v, err := eval.Evaluate(stmt.DirectiveArg, env)
		if err != nil {
			return err
		}
		if print != nil {
			print(v.String(), stmt.Line)
		}
		return nil
	case "assert":
		if stmt.DirectiveArg == nil {
			return derrors.At(derrors.New(derrors.Semantic, "@assert requires a boolean argument"), "", stmt.Line)
		}
		v, err := eval.Evaluate(stmt.DirectiveArg, env)
		if err != nil {
			return err
		}
		if v.Domain() != value.DomainBoolean {
			return derrors.At(derrors.New(derrors.Semantic, "@assert argument must be boolean"), "", stmt.Line)
		}
		if !v.Bool() {
			return derrors.At(derrors.New(derrors.Semantic, "assertion failed"), "", stmt.Line)
		}
		return nil
	default:
		return derrors.At(derrors.New(derrors.Semantic, "unknown directive %q", stmt.DirectiveName), "", stmt.Line)
	}
}
