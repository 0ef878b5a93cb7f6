package registry

import (
	"path/filepath"
	"strconv"
	"strings"
)

// fileEntry is one discovered definition file: its full type name derived
// from directory nesting plus filename, its declared version, and an
// optional fixed port ID parsed from the filename (spec §6's on-disk
// format: "(PORT_ID.)? SHORT_NAME . MAJOR . MINOR . EXT").
type fileEntry struct {
	Path   string
	Major  uint8
	Minor  uint8
	PortID *uint32
}

// parseFilename extracts (fullName, major, minor, portID) from path,
// which is known to live somewhere under rootDir (whose own basename,
// rootBase, is the first component of every full name it contains).
func parseFilename(rootDir, rootBase, path, ext string) (fullName string, major, minor uint8, portID *uint32, ok bool) {
	rel, err := filepath.Rel(rootDir, path)
	if err != nil {
		return "", 0, 0, nil, false
	}
	relDir := filepath.Dir(rel)
	filename := filepath.Base(rel)

	segments := strings.Split(filename, ".")
	if len(segments) < 4 {
		return "", 0, 0, nil, false
	}
	if segments[len(segments)-1] != ext {
		return "", 0, 0, nil, false
	}
	minorStr := segments[len(segments)-2]
	majorStr := segments[len(segments)-3]
	minorN, err := strconv.Atoi(minorStr)
	if err != nil || minorN < 0 || minorN > 255 {
		return "", 0, 0, nil, false
	}
	majorN, err := strconv.Atoi(majorStr)
	if err != nil || majorN < 0 || majorN > 255 {
		return "", 0, 0, nil, false
	}

	namePart := segments[:len(segments)-3]
	var short string
	switch len(namePart) {
	case 1:
		short = namePart[0]
	case 2:
		if !isAllDigits(namePart[0]) {
			return "", 0, 0, nil, false
		}
		id, err := strconv.ParseUint(namePart[0], 10, 32)
		if err != nil {
			return "", 0, 0, nil, false
		}
		v := uint32(id)
		portID = &v
		short = namePart[1]
	default:
		return "", 0, 0, nil, false
	}
	if short == "" || strings.HasPrefix(short, ".") || strings.HasPrefix(short, "_") {
		return "", 0, 0, nil, false
	}

	components := []string{rootBase}
	if relDir != "." {
		components = append(components, strings.Split(filepath.ToSlash(relDir), "/")...)
	}
	components = append(components, short)
	fullName = strings.Join(components, ".")
	return fullName, uint8(majorN), uint8(minorN), portID, true
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
