package dsdl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func TestReadNamespaceBuildsWholeTree(t *testing.T) {
	root := filepath.Join(t.TempDir(), "acme")
	writeFile(t, root, "node/Heartbeat.1.0.dsdl",
		"saturated uint32 uptime\nsaturated uint8 health\n@sealed\n")
	writeFile(t, root, "node/GetInfo.1.0.dsdl",
		"@sealed\n---\nsaturated uint8 ok\n@sealed\n")

	composites, err := ReadNamespace(root, nil)
	require.NoError(t, err)
	require.Len(t, composites, 3)

	var names []string
	for _, c := range composites {
		names = append(names, c.FullName)
	}
	assert.Contains(t, names, "acme.node.Heartbeat")
	assert.Contains(t, names, "acme.node.GetInfo.Request")
	assert.Contains(t, names, "acme.node.GetInfo.Response")
}

func TestReadNamespacePropagatesFirstError(t *testing.T) {
	root := filepath.Join(t.TempDir(), "acme")
	writeFile(t, root, "Bad.1.0.dsdl", "saturated uint8 X = 256\n")

	_, err := ReadNamespace(root, nil)
	require.Error(t, err)
}

func TestReadNamespaceElevatesDeprecationWarnings(t *testing.T) {
	root := filepath.Join(t.TempDir(), "acme")
	writeFile(t, root, "Old.1.0.dsdl", "saturated uint8 x\n@deprecated\n@sealed\n")
	writeFile(t, root, "New.1.0.dsdl", "acme.Old.1.0 old_field\n@sealed\n")

	composites, err := ReadNamespace(root, nil)
	require.NoError(t, err)
	require.Len(t, composites, 2)

	_, err = ReadNamespace(root, nil, WithElevateDeprecationWarnings(true))
	require.Error(t, err)
}

func TestReadNamespaceAllowUnregulatedFixedPortID(t *testing.T) {
	root := filepath.Join(t.TempDir(), "acme")
	writeFile(t, root, "8000.Wide.1.0.dsdl", "saturated uint8 a\n@sealed\n")

	_, err := ReadNamespace(root, nil)
	require.Error(t, err)

	composites, err := ReadNamespace(root, nil, WithAllowUnregulatedFixedPortID(true))
	require.NoError(t, err)
	require.Len(t, composites, 1)
	require.NotNil(t, composites[0].FixedPortID)
	assert.Equal(t, uint32(8000), *composites[0].FixedPortID)
}
