package eval

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCyphal/pydsdl/internal/value"
)

func rat(n, d int64) value.Value { return value.Rational(big.NewRat(n, d)) }

func TestRationalArithmetic(t *testing.T) {
	cases := []struct {
		name string
		op   string
		l, r value.Value
		want value.Value
	}{
		{"add", "+", rat(1, 2), rat(1, 3), rat(5, 6)},
		{"sub", "-", rat(1, 2), rat(1, 3), rat(1, 6)},
		{"mul", "*", rat(2, 3), rat(3, 4), rat(1, 2)},
		{"div", "/", rat(1, 2), rat(1, 4), rat(2, 1)},
		{"floordiv_pos", "//", rat(7, 1), rat(2, 1), rat(3, 1)},
		{"floordiv_neg", "//", rat(-7, 1), rat(2, 1), rat(-4, 1)},
		{"mod_neg_divisor", "%", rat(7, 1), rat(-2, 1), rat(-1, 1)},
		{"bitwise_and", "&", rat(6, 1), rat(3, 1), rat(2, 1)},
		{"bitwise_or", "|", rat(4, 1), rat(1, 1), rat(5, 1)},
		{"bitwise_xor", "^", rat(6, 1), rat(3, 1), rat(5, 1)},
		{"pow_int", "**", rat(2, 1), rat(10, 1), rat(1024, 1)},
		{"pow_neg_exp", "**", rat(2, 1), rat(-1, 1), rat(1, 2)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := evalBinary(c.op, c.l, c.r, 1)
			require.NoError(t, err)
			assert.True(t, c.want.Equal(got), "got %s", got.String())
		})
	}
}

func TestDivisionByZero(t *testing.T) {
	_, err := evalBinary("/", rat(1, 1), rat(0, 1), 1)
	assert.Error(t, err)
}

func TestExactRootSucceedsAndFails(t *testing.T) {
	got, err := evalBinary("**", rat(4, 1), rat(1, 2), 1)
	require.NoError(t, err)
	assert.True(t, rat(2, 1).Equal(got))

	_, err = evalBinary("**", rat(2, 1), rat(1, 2), 1)
	assert.Error(t, err, "sqrt(2) is not exactly representable as a rational")
}

func TestSetOperators(t *testing.T) {
	a, err := value.NewSet([]value.Value{rat(1, 1), rat(2, 1)})
	require.NoError(t, err)
	b, err := value.NewSet([]value.Value{rat(2, 1), rat(3, 1)})
	require.NoError(t, err)

	union, err := evalBinary("|", a, b, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, len(union.Elements()))

	inter, err := evalBinary("&", a, b, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, len(inter.Elements()))
	assert.True(t, inter.Elements()[0].Equal(rat(2, 1)))

	sub, err := evalBinary("<=", a, a, 1)
	require.NoError(t, err)
	assert.True(t, sub.Bool())

	strictSub, err := evalBinary("<", a, a, 1)
	require.NoError(t, err)
	assert.False(t, strictSub.Bool())
}

func TestSetIntersectionEmptyIsError(t *testing.T) {
	a, err := value.NewSet([]value.Value{rat(1, 1)})
	require.NoError(t, err)
	b, err := value.NewSet([]value.Value{rat(2, 1)})
	require.NoError(t, err)
	_, err = evalBinary("&", a, b, 1)
	assert.Error(t, err)
}

func TestBroadcastOverSet(t *testing.T) {
	a, err := value.NewSet([]value.Value{rat(1, 1), rat(2, 1)})
	require.NoError(t, err)
	got, err := evalBinary("+", a, rat(10, 1), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, len(got.Elements()))
	assert.True(t, got.Elements()[0].Equal(rat(11, 1)))
	assert.True(t, got.Elements()[1].Equal(rat(12, 1)))
}

func TestArithmeticDoesNotMixDomains(t *testing.T) {
	_, err := evalBinary("+", value.Boolean(true), rat(1, 1), 1)
	assert.Error(t, err)
}

func TestUnaryOperators(t *testing.T) {
	got, err := evalUnary("-", rat(3, 1), 1)
	require.NoError(t, err)
	assert.True(t, rat(-3, 1).Equal(got))

	got, err = evalUnary("!", value.Boolean(false), 1)
	require.NoError(t, err)
	assert.True(t, got.Bool())
}

func TestStringConcatAndOrdering(t *testing.T) {
	got, err := evalBinary("+", value.String("a"), value.String("b"), 1)
	require.NoError(t, err)
	assert.Equal(t, "ab", got.Str())

	lt, err := evalBinary("<", value.String("a"), value.String("b"), 1)
	require.NoError(t, err)
	assert.True(t, lt.Bool())
}
