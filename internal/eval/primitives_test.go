package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
)

func TestParsePrimitiveByteAndUtf8(t *testing.T) {
	want := dsdltype.Integer{Signed: false, Width: 8, Cast: dsdltype.Saturated}

	byteType, ok := parsePrimitive("byte")
	assert.True(t, ok)
	assert.Equal(t, want, byteType)

	utf8Type, ok := parsePrimitive("utf8")
	assert.True(t, ok)
	assert.Equal(t, want, utf8Type)
}

func TestParsePrimitiveUnknownNameFails(t *testing.T) {
	_, ok := parsePrimitive("frobnicate")
	assert.False(t, ok)
}
