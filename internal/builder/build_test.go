package builder

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCyphal/pydsdl/internal/cst"
	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
)

func build(t *testing.T, source string) *dsdltype.Composite {
	t.Helper()
	lines, err := cst.Lower("test.dsdl", source)
	require.NoError(t, err)
	c, err := Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.NoError(t, err)
	return c
}

func TestBuildStructureBitLength(t *testing.T) {
	c := build(t, "saturated uint8 a\nsaturated uint16 b\n")
	assert.Equal(t, []uint64{24}, c.BitLengthSet().Lengths())
	assert.False(t, c.Extensible)
	assert.Equal(t, uint64(24), c.Extent)
}

func TestBuildSealedDirective(t *testing.T) {
	c := build(t, "@sealed\nsaturated uint8 a\n")
	assert.False(t, c.Extensible)
	assert.Equal(t, uint64(8), c.Extent)
}

func TestBuildExtentDirective(t *testing.T) {
	c := build(t, "@extent 64\nsaturated uint8 a\n")
	assert.True(t, c.Extensible)
	assert.Equal(t, uint64(64), c.Extent)
}

func TestBuildExtentSmallerThanMaxIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "@extent 4\nsaturated uint8 a\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildUnionRequiresTwoFields(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "@union\nsaturated uint8 a\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildUnionBitLength(t *testing.T) {
	c := build(t, "@union\nsaturated uint8 a\nsaturated uint16 b\n")
	assert.Equal(t, dsdltype.Union, c.Kind)
	// tag ceil(log2(2))=1 bit, union of {8,16}
	assert.Equal(t, []uint64{9, 17}, c.BitLengthSet().Lengths())
}

func TestBuildUnionAfterFieldIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 a\n@union\nsaturated uint16 b\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildDuplicateFieldNameIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 a\nsaturated uint8 a\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildReservedNameIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 true\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildConstantOutOfRangeIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 X = 256\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildConstantDoesNotCountAsField(t *testing.T) {
	c := build(t, "saturated uint8 X = 5\nsaturated uint8 a\n")
	require.Len(t, c.Fields(), 1)
	require.Len(t, c.Constants(), 1)
}

func TestBuildPaddingField(t *testing.T) {
	c := build(t, "saturated uint8 a\nvoid8\n")
	fields := c.Fields()
	require.Len(t, fields, 2)
	assert.Equal(t, dsdltype.PaddingAttr, fields[1].Kind)
}

func TestBuildDeprecatedDirective(t *testing.T) {
	c := build(t, "@deprecated\nsaturated uint8 a\n")
	assert.True(t, c.Deprecated)
}

func TestBuildConstantUsableInLaterExpression(t *testing.T) {
	c := build(t, "saturated uint8 SIZE = 4\nsaturated uint8[SIZE] data\n")
	fields := c.Fields()
	require.Len(t, fields, 1)
	arr, ok := fields[0].Type.(dsdltype.Array)
	require.True(t, ok)
	assert.Equal(t, uint64(4), arr.Capacity)
}

func TestRegulatedPortIDRanges(t *testing.T) {
	assert.True(t, IsRegulatedPortID(0, false))
	assert.True(t, IsRegulatedPortID(regulatedSubjectMax, false))
	assert.False(t, IsRegulatedPortID(regulatedSubjectMax+1, false))
	assert.True(t, IsRegulatedPortID(0, true))
	assert.True(t, IsRegulatedPortID(regulatedServiceMax, true))
	assert.False(t, IsRegulatedPortID(regulatedServiceMax+1, true))
}

func TestUnregulatedFixedPortIDRejectedByDefault(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 a\n")
	require.NoError(t, err)
	portID := uint32(regulatedSubjectMax + 1)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, &portID, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestUnregulatedFixedPortIDAllowedWhenOptedIn(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 a\n")
	require.NoError(t, err)
	portID := uint32(regulatedSubjectMax + 1)
	c, err := Build("test.dsdl", "ns.Msg", 1, 0, &portID, lines, nil, nil, Options{AllowUnregulatedFixedPortID: true})
	require.NoError(t, err)
	assert.Equal(t, portID, *c.FixedPortID)
}

func TestBuildByteAndUtf8PrimitivesResolve(t *testing.T) {
	c := build(t, "byte a\nutf8 b\n")
	fields := c.Fields()
	require.Len(t, fields, 2)
	want := dsdltype.Integer{Signed: false, Width: 8, Cast: dsdltype.Saturated}
	assert.Equal(t, want, fields[0].Type)
	assert.Equal(t, want, fields[1].Type)
}

func TestBuildSealedWithArgumentIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "@sealed 64\nsaturated uint8 a\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.Msg", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildFullNameComponentTooLongIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 a\n")
	require.NoError(t, err)
	long := strings.Repeat("a", 51)
	_, err = Build("test.dsdl", "ns."+long, 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

func TestBuildFullNameInvalidCharsetIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "saturated uint8 a\n")
	require.NoError(t, err)
	_, err = Build("test.dsdl", "ns.1Bad", 1, 0, nil, lines, nil, nil, Options{})
	require.Error(t, err)
}

// deprecatedComposite builds a minimal sealed composite with Deprecated
// set, used by the deprecation-reference tests below as the type a field
// resolves to.
func deprecatedComposite() *dsdltype.Composite {
	return &dsdltype.Composite{
		FullName:   "ns.Old",
		Version:    dsdltype.Version{Major: 1, Minor: 0},
		Deprecated: true,
		Attributes: []dsdltype.Attribute{
			{Kind: dsdltype.FieldAttr, Type: dsdltype.Integer{Signed: false, Width: 8}, Name: "x"},
		},
	}
}

func TestBuildFieldReferencingDeprecatedTypeEmitsWarning(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "ns.Old old_field\n@sealed\n")
	require.NoError(t, err)
	resolveType := func(name string, hasVersion bool, major, minor int, line int) (dsdltype.Type, error) {
		return deprecatedComposite(), nil
	}
	var printed []string
	print := func(text, path string, line int) { printed = append(printed, text) }
	c, err := Build("test.dsdl", "ns.New", 1, 0, nil, lines, resolveType, nil, Options{Print: print})
	require.NoError(t, err)
	assert.False(t, c.Deprecated)
	require.Len(t, printed, 1)
}

func TestBuildFieldReferencingDeprecatedTypeElevatedIsError(t *testing.T) {
	lines, err := cst.Lower("test.dsdl", "ns.Old old_field\n@sealed\n")
	require.NoError(t, err)
	resolveType := func(name string, hasVersion bool, major, minor int, line int) (dsdltype.Type, error) {
		return deprecatedComposite(), nil
	}
	_, err = Build("test.dsdl", "ns.New", 1, 0, nil, lines, resolveType, nil, Options{ElevateDeprecationWarnings: true})
	require.Error(t, err)
}
