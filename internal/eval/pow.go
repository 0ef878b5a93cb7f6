package eval

import (
	"errors"
	"math/big"

	"github.com/OpenCyphal/pydsdl/internal/value"
)

// ratPow implements "**" (spec §4.2): integer exponents always succeed;
// non-integer exponents succeed only when the result is exactly
// representable as a rational (i.e. base is a perfect root of the
// appropriate order), otherwise InvalidOperand.
func ratPow(base, exp *big.Rat, line int) (value.Value, error) {
	if exp.IsInt() {
		r, err := ratIntPow(base, exp.Num())
		if err != nil {
			return value.Value{}, errAt(line, "%s", err.Error())
		}
		return value.Rational(r), nil
	}

	p := new(big.Int).Set(exp.Num())
	q := new(big.Int).Set(exp.Denom()) // always > 0 for a reduced big.Rat

	powered, err := ratIntPow(base, p)
	if err != nil {
		return value.Value{}, errAt(line, "%s", err.Error())
	}
	root, ok := exactRatRoot(powered, q)
	if !ok {
		return value.Value{}, errAt(line, "exponent %s does not yield an exact rational result", exp.RatString())
	}
	return value.Rational(root), nil
}

// ratIntPow computes base^exp for an arbitrary-sign integer exponent.
func ratIntPow(base *big.Rat, exp *big.Int) (*big.Rat, error) {
	if exp.Sign() == 0 {
		return big.NewRat(1, 1), nil
	}
	neg := exp.Sign() < 0
	e := new(big.Int).Abs(exp)
	if !e.IsUint64() {
		return nil, errTooLarge()
	}
	num := new(big.Int).Exp(base.Num(), e, nil)
	den := new(big.Int).Exp(base.Denom(), e, nil)
	r := new(big.Rat).SetFrac(num, den)
	if neg {
		if r.Sign() == 0 {
			return nil, errDivZero()
		}
		r.Inv(r)
	}
	return r, nil
}

func errTooLarge() error { return errors.New("exponent magnitude too large to evaluate") }
func errDivZero() error  { return errors.New("division by zero") }

// exactRatRoot computes x^(1/q) for a positive integer q, succeeding
// only when both numerator and denominator of x have an exact integer
// q-th root (with sign handled when q is odd).
func exactRatRoot(x *big.Rat, q *big.Int) (*big.Rat, bool) {
	if !q.IsUint64() || q.Uint64() == 0 {
		return nil, false
	}
	qq := q.Uint64()
	neg := x.Sign() < 0
	if neg && qq%2 == 0 {
		return nil, false
	}
	num := new(big.Int).Abs(x.Num())
	den := new(big.Int).Abs(x.Denom())
	rn, ok := exactIntRoot(num, qq)
	if !ok {
		return nil, false
	}
	rd, ok := exactIntRoot(den, qq)
	if !ok {
		return nil, false
	}
	r := new(big.Rat).SetFrac(rn, rd)
	if neg {
		r.Neg(r)
	}
	return r, true
}

// exactIntRoot finds y such that y^q == n exactly, for n >= 0, via binary
// search over the candidate range, verifying exactness at the end.
func exactIntRoot(n *big.Int, q uint64) (*big.Int, bool) {
	if n.Sign() == 0 {
		return big.NewInt(0), true
	}
	if q == 1 {
		return new(big.Int).Set(n), true
	}
	lo := big.NewInt(0)
	hi := new(big.Int).Set(n)
	one := big.NewInt(1)
	for lo.Cmp(hi) < 0 {
		mid := new(big.Int).Add(lo, hi)
		mid.Add(mid, one)
		mid.Rsh(mid, 1)
		p := new(big.Int).Exp(mid, new(big.Int).SetUint64(q), nil)
		switch p.Cmp(n) {
		case 0:
			return mid, true
		case 1:
			hi = new(big.Int).Sub(mid, one)
		default:
			lo = mid
		}
	}
	p := new(big.Int).Exp(lo, new(big.Int).SetUint64(q), nil)
	if p.Cmp(n) == 0 {
		return lo, true
	}
	return nil, false
}
