package registry

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// rootIndex is one namespace root directory (the target, or one lookup
// namespace), indexed by full type name. Discovery is a single synchronous
// glob (spec §5: no background tasks), unlike the teacher's worker-pool
// FileWalker.
type rootIndex struct {
	dir   string // absolute
	base  string // root namespace name: filepath.Base(dir)
	files map[string][]fileEntry
}

func discoverRoot(dir, ext string) (*rootIndex, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	pattern := filepath.ToSlash(filepath.Join(absDir, "**", "*."+ext))
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, err
	}

	idx := &rootIndex{dir: absDir, base: filepath.Base(absDir), files: map[string][]fileEntry{}}
	for _, m := range matches {
		base := filepath.Base(m)
		if strings.HasPrefix(base, ".") || strings.HasPrefix(base, "_") {
			continue
		}
		if pathHasIgnoredComponent(absDir, m) {
			continue
		}
		fullName, major, minor, portID, ok := parseFilename(absDir, idx.base, m, ext)
		if !ok {
			continue
		}
		idx.files[fullName] = append(idx.files[fullName], fileEntry{Path: m, Major: major, Minor: minor, PortID: portID})
	}
	return idx, nil
}

// pathHasIgnoredComponent reports whether any directory component between
// root and the file (exclusive of the root itself) begins with '.' or
// '_', extending spec §6's file-naming ignore rule to directories.
func pathHasIgnoredComponent(root, path string) bool {
	rel, err := filepath.Rel(root, filepath.Dir(path))
	if err != nil || rel == "." {
		return false
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if strings.HasPrefix(part, ".") || strings.HasPrefix(part, "_") {
			return true
		}
	}
	return false
}

// sortedEntries returns every (fullName, fileEntry) pair in idx, ordered
// deterministically by full name then version, for stable ReadNamespace
// output.
func (idx *rootIndex) sortedEntries() []struct {
	FullName string
	Entry    fileEntry
} {
	var out []struct {
		FullName string
		Entry    fileEntry
	}
	names := make([]string, 0, len(idx.files))
	for name := range idx.files {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entries := append([]fileEntry(nil), idx.files[name]...)
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Major != entries[j].Major {
				return entries[i].Major < entries[j].Major
			}
			return entries[i].Minor < entries[j].Minor
		})
		for _, e := range entries {
			out = append(out, struct {
				FullName string
				Entry    fileEntry
			}{name, e})
		}
	}
	return out
}
