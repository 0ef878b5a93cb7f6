package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

// nsRoot returns a fresh namespace root directory whose own basename is
// "ns", so that a reference written inside a definition as "ns.X" matches
// the full name built from that root (rootBase + short name).
func nsRoot(t *testing.T) string {
	return filepath.Join(t.TempDir(), "ns")
}

func TestBuildAllSimpleNamespace(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "Empty.1.0.dsdl", "@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	composites, err := reg.BuildAll()
	require.NoError(t, err)
	require.Len(t, composites, 1)
	assert.Equal(t, "ns.Empty", composites[0].FullName)
}

func TestBuildAllResolvesCrossReference(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "Point.1.0.dsdl", "saturated uint16 x\nsaturated uint16 y\n@sealed\n")
	writeFile(t, root, "Line.1.0.dsdl", "ns.Point.1.0 a\nns.Point.1.0 b\n@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	composites, err := reg.BuildAll()
	require.NoError(t, err)
	require.Len(t, composites, 2)

	var found bool
	for _, c := range composites {
		if c.ShortName() == "Line" {
			found = true
			assert.Equal(t, []uint64{64}, c.BitLengthSet().Lengths())
		}
	}
	assert.True(t, found)
}

func TestBuildAllLatestCompatibleVersionIsUsedWhenUnversioned(t *testing.T) {
	root := nsRoot(t)
	// Both versions are 16 bits long, as same-major versions must be
	// bit-compatible.
	writeFile(t, root, "Point.1.0.dsdl", "saturated uint16 x\n@sealed\n")
	writeFile(t, root, "Point.1.3.dsdl", "saturated uint8 x\nsaturated uint8 y\n@sealed\n")
	writeFile(t, root, "Box.1.0.dsdl", "ns.Point a\n@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	composites, err := reg.BuildAll()
	require.NoError(t, err)

	var found bool
	for _, c := range composites {
		if c.ShortName() == "Box" {
			found = true
			point, ok := c.Fields()[0].Type.(*dsdltype.Composite)
			require.True(t, ok)
			// Point 1.3 is the highest minor under major 1.
			assert.Equal(t, dsdltype.Version{Major: 1, Minor: 3}, point.Version)
		}
	}
	assert.True(t, found)
}

func TestBuildAllDetectsCyclicReference(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "A.1.0.dsdl", "ns.B.1.0 b\n@sealed\n")
	writeFile(t, root, "B.1.0.dsdl", "ns.A.1.0 a\n@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	_, err = reg.BuildAll()
	require.Error(t, err)
}

func TestBuildAllRejectsBitIncompatibleSameMajorVersions(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "V.1.0.dsdl", "saturated uint8 a\n@sealed\n")
	writeFile(t, root, "V.1.1.dsdl", "saturated uint16 a\n@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	_, err = reg.BuildAll()
	require.Error(t, err)
}

func TestBuildAllSplitsServiceIntoRequestResponse(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "Get.1.0.dsdl", "saturated uint8 request_field\n@sealed\n---\nsaturated uint8 response_field\n@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	composites, err := reg.BuildAll()
	require.NoError(t, err)
	require.Len(t, composites, 2)
	assert.Contains(t, composites[0].FullName, "Get.Request")
	assert.Contains(t, composites[1].FullName, "Get.Response")
}

func TestBuildAllRejectsUnregulatedServicePortID(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "600.Get.1.0.dsdl", "saturated uint8 in\n@sealed\n---\nsaturated uint8 out\n@sealed\n")

	reg, err := New(root, nil, Options{})
	require.NoError(t, err)
	_, err = reg.BuildAll()
	require.Error(t, err)
}

func TestBuildAllAllowsUnregulatedServicePortIDWhenOptedIn(t *testing.T) {
	root := nsRoot(t)
	writeFile(t, root, "600.Get.1.0.dsdl", "saturated uint8 in\n@sealed\n---\nsaturated uint8 out\n@sealed\n")

	reg, err := New(root, nil, Options{AllowUnregulatedFixedPortID: true})
	require.NoError(t, err)
	composites, err := reg.BuildAll()
	require.NoError(t, err)
	require.Len(t, composites, 2)
}

// TestBuildAllAmbiguousFullNameAcrossLookupRootsIsError puts two "ns"
// namespace roots (the target and one lookup directory) both containing
// "ns.Shared", which must be rejected as ambiguous once referenced.
func TestBuildAllAmbiguousFullNameAcrossLookupRootsIsError(t *testing.T) {
	root := nsRoot(t)
	lookup := nsRoot(t)
	writeFile(t, root, "A.1.0.dsdl", "ns.Shared.1.0 s\n@sealed\n")
	writeFile(t, root, "Shared.1.0.dsdl", "saturated uint8 x\n@sealed\n")
	writeFile(t, lookup, "Shared.1.0.dsdl", "saturated uint8 y\n@sealed\n")

	reg, err := New(root, []string{lookup}, Options{})
	require.NoError(t, err)
	_, err = reg.BuildAll()
	require.Error(t, err)
}
