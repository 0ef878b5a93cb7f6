package builder

import (
	"fmt"
	"strings"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/OpenCyphal/pydsdl/internal/bitlen"
	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
)

// renderLayout renders one line per field (name, type, bit-length-set),
// the form diffed by CheckBitCompatible below.
func renderLayout(c *dsdltype.Composite) []string {
	lines := make([]string, 0, len(c.Attributes))
	for _, a := range c.Fields() {
		name := a.Name
		if a.Kind == dsdltype.PaddingAttr {
			name = "<padding>"
		}
		lines = append(lines, fmt.Sprintf("%s %s bits=%v", a.Type.TypeString(), name, a.Type.BitLengthSet().Lengths()))
	}
	return lines
}

// CheckBitCompatible returns nil when a and b (two versions of the same
// full_name/major) share a bit-length set and extent; otherwise an error
// whose message embeds a unified diff of their field layouts so the
// caller can see exactly what changed (spec §3, §4.3, §8 invariant 4).
func CheckBitCompatible(a, b *dsdltype.Composite) error {
	if bitlen.Equal(a.BitLengthSet(), b.BitLengthSet()) && a.Extent == b.Extent {
		return nil
	}
	diff := difflib.UnifiedDiff{
		A:        renderLayout(a),
		B:        renderLayout(b),
		FromFile: a.TypeString(),
		ToFile:   b.TypeString(),
		Context:  2,
	}
	text, _ := difflib.GetUnifiedDiffString(diff)
	return fmt.Errorf("versions %s and %s of %s are not bit-compatible:\n%s", a.Version, b.Version, a.FullName, strings.TrimRight(text, "\n"))
}
