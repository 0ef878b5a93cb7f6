// Package registry discovers DSDL definition files within a root
// namespace and its lookup namespaces, and resolves cross-references
// between them (spec §4.3's resolution algorithm and §5's single-call
// build model), invoking internal/builder to turn each file into a
// sealed dsdltype.Composite, with on-stack cycle detection and
// same-major bit-compatibility checks across the versions it builds.
package registry

import (
	"os"
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/builder"
	"github.com/OpenCyphal/pydsdl/internal/cst"
	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
	"github.com/OpenCyphal/pydsdl/internal/eval"
	"github.com/OpenCyphal/pydsdl/internal/grammar"
	"github.com/OpenCyphal/pydsdl/internal/value"
)

// Options holds the settings the registry and builder consult directly:
// the extension and flags of internal/config.ReadNamespaceOptions plus the
// print callback.
type Options struct {
	Extension                   string // default "dsdl"
	AllowUnregulatedFixedPortID bool
	ElevateDeprecationWarnings  bool
	Print                       func(text, path string, line int)
}

type verKey struct {
	FullName string
	Major    uint8
	Minor    uint8
}

type majorKey struct {
	FullName string
	Major    uint8
}

// Registry holds one read_namespace call's worth of state: the target
// root, its lookup roots, and the build cache/on-stack set shared by
// every recursive reference resolved during that call (spec §5: a single
// logical recursion, never reused across calls).
type Registry struct {
	target  *rootIndex
	lookups []*rootIndex
	opts    Options

	built   map[verKey]*dsdltype.Composite
	onStack map[verKey]bool
	byMajor map[majorKey][]*dsdltype.Composite
}

// New discovers rootDir and every lookupDir and returns a Registry ready
// to build the target namespace.
func New(rootDir string, lookupDirs []string, opts Options) (*Registry, error) {
	if opts.Extension == "" {
		opts.Extension = "dsdl"
	}
	target, err := discoverRoot(rootDir, opts.Extension)
	if err != nil {
		return nil, err
	}
	lookups := make([]*rootIndex, 0, len(lookupDirs))
	for _, d := range lookupDirs {
		li, err := discoverRoot(d, opts.Extension)
		if err != nil {
			return nil, err
		}
		lookups = append(lookups, li)
	}
	return &Registry{
		target:  target,
		lookups: lookups,
		opts:    opts,
		built:   map[verKey]*dsdltype.Composite{},
		onStack: map[verKey]bool{},
		byMajor: map[majorKey][]*dsdltype.Composite{},
	}, nil
}

// BuildAll builds every definition in the target namespace and its nested
// namespace directories, in deterministic (full_name, major, minor) order, returning
// every resulting Composite (a service definition contributes its
// Request and Response halves; the Service pairing itself is not
// serializable and so is not part of this sequence, per spec §3/§6).
func (r *Registry) BuildAll() ([]*dsdltype.Composite, error) {
	var out []*dsdltype.Composite
	for _, pair := range r.target.sortedEntries() {
		composites, err := r.buildDefinition(r.target, pair.FullName, pair.Entry)
		if err != nil {
			return nil, err
		}
		out = append(out, composites...)
	}
	return out, nil
}

// buildDefinition builds the file backing (fullName, entry) within root,
// splitting it into request/response composites if it is a service
// definition.
func (r *Registry) buildDefinition(root *rootIndex, fullName string, entry fileEntry) ([]*dsdltype.Composite, error) {
	data, err := os.ReadFile(entry.Path)
	if err != nil {
		return nil, derrors.Wrap(derrors.Internal, err, "reading %s", entry.Path)
	}
	lines, err := cst.Lower(entry.Path, string(data))
	if err != nil {
		return nil, err
	}

	if idx := serviceMarkerIndex(lines); idx >= 0 {
		if entry.PortID != nil && !builder.IsRegulatedPortID(*entry.PortID, true) && !r.opts.AllowUnregulatedFixedPortID {
			return nil, derrors.At(derrors.New(derrors.PortID, "fixed port ID %d is outside the regulated service-ID range", *entry.PortID), entry.Path, 0)
		}
		reqName := fullName + ".Request"
		respName := fullName + ".Response"
		req, err := r.buildOnce(root, reqName, entry.Major, entry.Minor, nil, entry.Path, lines[:idx])
		if err != nil {
			return nil, err
		}
		resp, err := r.buildOnce(root, respName, entry.Major, entry.Minor, nil, entry.Path, lines[idx+1:])
		if err != nil {
			return nil, err
		}
		return []*dsdltype.Composite{req, resp}, nil
	}

	c, err := r.buildOnce(root, fullName, entry.Major, entry.Minor, entry.PortID, entry.Path, lines)
	if err != nil {
		return nil, err
	}
	return []*dsdltype.Composite{c}, nil
}

func serviceMarkerIndex(lines []cst.Line) int {
	for i, ln := range lines {
		if ln.Stmt != nil && ln.Stmt.Kind == grammar.StmtServiceMarker {
			return i
		}
	}
	return -1
}

// buildOnce builds and caches one (fullName, major, minor), detecting
// cycles and checking bit-compatibility against already-built siblings
// sharing the same (full_name, major).
func (r *Registry) buildOnce(root *rootIndex, fullName string, major, minor uint8, portID *uint32, path string, lines []cst.Line) (*dsdltype.Composite, error) {
	key := verKey{fullName, major, minor}
	if c, ok := r.built[key]; ok {
		return c, nil
	}
	if r.onStack[key] {
		return nil, derrors.At(derrors.New(derrors.CyclicDependency, "cyclic reference involving %s.%d.%d", fullName, major, minor), path, 0)
	}
	r.onStack[key] = true
	defer delete(r.onStack, key)

	resolveType := func(name string, hasVersion bool, rmajor, rminor int, line int) (dsdltype.Type, error) {
		c, err := r.resolve(root, name, hasVersion, rmajor, rminor)
		if err != nil {
			return nil, derrors.At(err, path, line)
		}
		return c, nil
	}
	resolveMember := eval.MemberResolver(func(name string, hasVersion bool, rmajor, rminor int, attr string, line int) (value.Value, error) {
		c, err := r.resolve(root, name, hasVersion, rmajor, rminor)
		if err != nil {
			return value.Value{}, derrors.At(err, path, line)
		}
		for _, con := range c.Constants() {
			if con.Name == attr {
				return con.Value, nil
			}
		}
		return value.Value{}, derrors.At(derrors.New(derrors.UndefinedAttribute, "undefined attribute %q on %s", attr, c.TypeString()), path, line)
	})

	composite, err := builder.Build(path, fullName, major, minor, portID, lines, resolveType, resolveMember, builder.Options{
		AllowUnregulatedFixedPortID: r.opts.AllowUnregulatedFixedPortID,
		ElevateDeprecationWarnings:  r.opts.ElevateDeprecationWarnings,
		Print:                       r.opts.Print,
	})
	if err != nil {
		return nil, derrors.At(err, path, 0)
	}

	mk := majorKey{fullName, major}
	for _, sibling := range r.byMajor[mk] {
		if sibling.Version.Minor == minor {
			continue
		}
		if err := builder.CheckBitCompatible(sibling, composite); err != nil {
			return nil, derrors.At(derrors.Wrap(derrors.BitCompatibility, err, "%s", err.Error()), path, 0)
		}
	}
	r.byMajor[mk] = append(r.byMajor[mk], composite)
	r.built[key] = composite
	return composite, nil
}

// resolve implements spec §4.3's resolution algorithm steps 2-4 for a
// non-primitive type reference named from the context of root (the
// definition doing the referencing): locate the owning root (ambiguous
// if more than one root defines fullName), pick the requested or latest
// compatible version, and recursively build it.
func (r *Registry) resolve(root *rootIndex, fullName string, hasVersion bool, major, minor int) (*dsdltype.Composite, error) {
	if base, half, ok := splitServiceHalf(fullName); ok {
		owner, entry, m, n, err := r.locateVersion(base, hasVersion, major, minor)
		if err != nil {
			return nil, err
		}
		composites, err := r.buildDefinition(owner, base, fileEntry{Path: entry.Path, Major: m, Minor: n, PortID: entry.PortID})
		if err != nil {
			return nil, err
		}
		if half == "Request" {
			return composites[0], nil
		}
		return composites[len(composites)-1], nil
	}

	owner, entry, m, n, err := r.locateVersion(fullName, hasVersion, major, minor)
	if err != nil {
		return nil, err
	}
	if c, ok := r.built[verKey{fullName, m, n}]; ok {
		return c, nil
	}
	composites, err := r.buildDefinition(owner, fullName, fileEntry{Path: entry.Path, Major: m, Minor: n, PortID: entry.PortID})
	if err != nil {
		return nil, err
	}
	return composites[0], nil
}

func splitServiceHalf(fullName string) (base, half string, ok bool) {
	switch {
	case strings.HasSuffix(fullName, ".Request"):
		return strings.TrimSuffix(fullName, ".Request"), "Request", true
	case strings.HasSuffix(fullName, ".Response"):
		return strings.TrimSuffix(fullName, ".Response"), "Response", true
	default:
		return "", "", false
	}
}

// locateVersion finds which root defines fullName and which of its file
// entries satisfies the requested (or latest-compatible) version.
func (r *Registry) locateVersion(fullName string, hasVersion bool, major, minor int) (owner *rootIndex, entry fileEntry, m, n uint8, err error) {
	var owners []*rootIndex
	roots := append([]*rootIndex{r.target}, r.lookups...)
	for _, root := range roots {
		if _, ok := root.files[fullName]; ok {
			owners = append(owners, root)
		}
	}
	if len(owners) == 0 {
		return nil, fileEntry{}, 0, 0, derrors.New(derrors.UndefinedType, "undefined type %q", fullName)
	}
	if len(owners) > 1 {
		return nil, fileEntry{}, 0, 0, derrors.New(derrors.Semantic, "ambiguous type reference %q: defined in more than one namespace root", fullName)
	}
	owner = owners[0]
	entries := owner.files[fullName]

	if hasVersion {
		for _, e := range entries {
			if int(e.Major) == major && int(e.Minor) == minor {
				return owner, e, e.Major, e.Minor, nil
			}
		}
		return nil, fileEntry{}, 0, 0, derrors.New(derrors.Version, "no version %d.%d of %q", major, minor, fullName)
	}

	best := entries[0]
	for _, e := range entries[1:] {
		if e.Major > best.Major || (e.Major == best.Major && e.Minor > best.Minor) {
			best = e
		}
	}
	return owner, best, best.Major, best.Minor, nil
}
