package eval

import (
	"math/big"

	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

func errAt(line int, format string, args ...any) error {
	return derrors.At(derrors.New(derrors.InvalidOperand, format, args...), "", line)
}

func evalBinary(op string, l, r value.Value, line int) (value.Value, error) {
	if l.Domain() == value.DomainSet && r.Domain() == value.DomainSet && isPureSetOp(op) {
		return setOp(op, l, r, line)
	}
	if l.Domain() == value.DomainSet || r.Domain() == value.DomainSet {
		return broadcast(op, l, r, line)
	}
	return scalarOp(op, l, r, line)
}

func isPureSetOp(op string) bool {
	switch op {
	case "|", "&", "==", "!=", "<", "<=":
		return true
	}
	return false
}

func broadcast(op string, l, r value.Value, line int) (value.Value, error) {
	ls := asElements(l)
	rs := asElements(r)
	results := make([]value.Value, 0, len(ls)*len(rs))
	for _, a := range ls {
		for _, b := range rs {
			res, err := scalarOp(op, a, b, line)
			if err != nil {
				return value.Value{}, err
			}
			results = append(results, res)
		}
	}
	set, err := value.NewSet(results)
	if err != nil {
		return value.Value{}, errAt(line, "%s", err.Error())
	}
	return set, nil
}

func asElements(v value.Value) []value.Value {
	if v.Domain() == value.DomainSet {
		return v.Elements()
	}
	return []value.Value{v}
}

func setOp(op string, l, r value.Value, line int) (value.Value, error) {
	if l.ElementDomain() != r.ElementDomain() {
		return value.Value{}, errAt(line, "set operator %q requires operands of one element domain, found %s and %s", op, l.ElementDomain(), r.ElementDomain())
	}
	switch op {
	case "==":
		return value.Boolean(l.Equal(r)), nil
	case "!=":
		return value.Boolean(!l.Equal(r)), nil
	case "|":
		union, err := value.NewSet(append(append([]value.Value{}, l.Elements()...), r.Elements()...))
		if err != nil {
			return value.Value{}, errAt(line, "%s", err.Error())
		}
		return union, nil
	case "&":
		var out []value.Value
		for _, a := range l.Elements() {
			for _, b := range r.Elements() {
				if a.Equal(b) {
					out = append(out, a)
					break
				}
			}
		}
		if len(out) == 0 {
			return value.Value{}, errAt(line, "intersection is empty; empty sets are not representable")
		}
		inter, err := value.NewSet(out)
		if err != nil {
			return value.Value{}, errAt(line, "%s", err.Error())
		}
		return inter, nil
	case "<", "<=":
		subset := isSubset(l, r)
		if op == "<" {
			return value.Boolean(subset && !l.Equal(r)), nil
		}
		return value.Boolean(subset), nil
	}
	return value.Value{}, errAt(line, "unsupported set operator %q", op)
}

func isSubset(l, r value.Value) bool {
	for _, a := range l.Elements() {
		found := false
		for _, b := range r.Elements() {
			if a.Equal(b) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func scalarOp(op string, l, r value.Value, line int) (value.Value, error) {
	switch op {
	case "&&", "||":
		if l.Domain() != value.DomainBoolean || r.Domain() != value.DomainBoolean {
			return value.Value{}, errAt(line, "operator %q requires boolean operands", op)
		}
		if op == "&&" {
			return value.Boolean(l.Bool() && r.Bool()), nil
		}
		return value.Boolean(l.Bool() || r.Bool()), nil
	case "==":
		return value.Boolean(l.Equal(r)), nil
	case "!=":
		return value.Boolean(!l.Equal(r)), nil
	}

	if l.Domain() == value.DomainBoolean || r.Domain() == value.DomainBoolean {
		return value.Value{}, errAt(line, "operator %q is not defined for boolean operands", op)
	}

	if l.Domain() == value.DomainString && r.Domain() == value.DomainString {
		switch op {
		case "+":
			return value.String(l.Str() + r.Str()), nil
		case "<":
			return value.Boolean(l.Str() < r.Str()), nil
		case "<=":
			return value.Boolean(l.Str() <= r.Str()), nil
		case ">":
			return value.Boolean(l.Str() > r.Str()), nil
		case ">=":
			return value.Boolean(l.Str() >= r.Str()), nil
		default:
			return value.Value{}, errAt(line, "operator %q is not defined for strings", op)
		}
	}

	if l.Domain() == value.DomainRational && r.Domain() == value.DomainRational {
		return rationalOp(op, l, r, line)
	}

	return value.Value{}, errAt(line, "operator %q requires operands of the same domain, found %s and %s", op, l.Domain(), r.Domain())
}

func rationalOp(op string, l, r value.Value, line int) (value.Value, error) {
	a, b := l.Rat(), r.Rat()
	switch op {
	case "+":
		return value.Rational(new(big.Rat).Add(a, b)), nil
	case "-":
		return value.Rational(new(big.Rat).Sub(a, b)), nil
	case "*":
		return value.Rational(new(big.Rat).Mul(a, b)), nil
	case "/":
		if b.Sign() == 0 {
			return value.Value{}, errAt(line, "division by zero")
		}
		return value.Rational(new(big.Rat).Quo(a, b)), nil
	case "<":
		return value.Boolean(a.Cmp(b) < 0), nil
	case "<=":
		return value.Boolean(a.Cmp(b) <= 0), nil
	case ">":
		return value.Boolean(a.Cmp(b) > 0), nil
	case ">=":
		return value.Boolean(a.Cmp(b) >= 0), nil
	case "//", "%", "|", "^", "&":
		if !l.IsInteger() || !r.IsInteger() {
			return value.Value{}, errAt(line, "operator %q requires integer operands", op)
		}
		return integerOp(op, a, b, line)
	case "**":
		return ratPow(a, b, line)
	default:
		return value.Value{}, errAt(line, "unsupported operator %q", op)
	}
}

func integerOp(op string, a, b *big.Rat, line int) (value.Value, error) {
	x, y := a.Num(), b.Num()
	if y.Sign() == 0 && (op == "//" || op == "%") {
		return value.Value{}, errAt(line, "division by zero")
	}
	switch op {
	case "//":
		return value.Rational(new(big.Rat).SetInt(floorDiv(x, y))), nil
	case "%":
		return value.Rational(new(big.Rat).SetInt(trueMod(x, y))), nil
	case "|":
		return value.Rational(new(big.Rat).SetInt(new(big.Int).Or(x, y))), nil
	case "^":
		return value.Rational(new(big.Rat).SetInt(new(big.Int).Xor(x, y))), nil
	case "&":
		return value.Rational(new(big.Rat).SetInt(new(big.Int).And(x, y))), nil
	default:
		return value.Value{}, errAt(line, "unsupported integer operator %q", op)
	}
}

// floorDiv implements floor division (result rounds toward negative
// infinity), matching the "//" semantics from spec §4.2.
func floorDiv(x, y *big.Int) *big.Int {
	q, m := new(big.Int), new(big.Int)
	q.QuoRem(x, y, m)
	if m.Sign() != 0 && (m.Sign() < 0) != (y.Sign() < 0) {
		q.Sub(q, big.NewInt(1))
	}
	return q
}

// trueMod implements modulo with the sign of the divisor, matching the
// "%" semantics from spec §4.2.
func trueMod(x, y *big.Int) *big.Int {
	m := new(big.Int).Mod(x, new(big.Int).Abs(y))
	if y.Sign() < 0 && m.Sign() != 0 {
		m.Add(m, y)
	}
	return m
}

func evalUnary(op string, x value.Value, line int) (value.Value, error) {
	switch op {
	case "!":
		if x.Domain() != value.DomainBoolean {
			return value.Value{}, errAt(line, "operator '!' requires a boolean operand")
		}
		return value.Boolean(!x.Bool()), nil
	case "+":
		if x.Domain() != value.DomainRational {
			return value.Value{}, errAt(line, "unary '+' requires a rational operand")
		}
		return x, nil
	case "-":
		if x.Domain() != value.DomainRational {
			return value.Value{}, errAt(line, "unary '-' requires a rational operand")
		}
		return value.Rational(new(big.Rat).Neg(x.Rat())), nil
	default:
		return value.Value{}, errAt(line, "unsupported unary operator %q", op)
	}
}
