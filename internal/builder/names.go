package builder

import (
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/derrors"
)

const (
	maxNameComponentLen = 50
	maxFullNameLen      = 255
)

// validateFullName enforces spec §3's identity rules: every full-name
// component (and the short name, its last component) is an ASCII
// identifier of at most 50 characters, and the dotted full name is at
// most 255 characters overall.
func validateFullName(fullName string) error {
	if len(fullName) > maxFullNameLen {
		return derrors.New(derrors.Naming, "full name %q exceeds %d characters", fullName, maxFullNameLen)
	}
	for _, c := range strings.Split(fullName, ".") {
		if len(c) > maxNameComponentLen {
			return derrors.New(derrors.Naming, "name component %q exceeds %d characters", c, maxNameComponentLen)
		}
		if !isIdentifier(c) {
			return derrors.New(derrors.Naming, "name component %q is not a valid identifier", c)
		}
	}
	return nil
}

// isIdentifier reports whether s is an ASCII identifier: a letter or
// underscore followed by letters, digits, or underscores.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		isAlpha := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		isDigit := c >= '0' && c <= '9'
		if i == 0 {
			if !isAlpha {
				return false
			}
		} else if !isAlpha && !isDigit {
			return false
		}
	}
	return true
}

// reservedKeywords collects the built-in type keywords plus the handful
// of names the grammar treats specially; none of these may be used as a
// field or constant name (spec §4.3: "reserved names ... are rejected").
// validateFullName does not check a type's short name against this list.
var reservedKeywords = map[string]bool{
	"bool": true, "true": true, "false": true,
	"saturated": true, "truncated": true,
	"byte": true, "utf8": true,
}

func isReservedName(name, shortName string) bool {
	if reservedKeywords[name] {
		return true
	}
	if name == shortName {
		return true
	}
	if strings.HasPrefix(name, "void") && isAllDigitsAfter(name, "void") {
		return true
	}
	if strings.HasPrefix(name, "uint") && isAllDigitsAfter(name, "uint") {
		return true
	}
	if strings.HasPrefix(name, "int") && isAllDigitsAfter(name, "int") {
		return true
	}
	if strings.HasPrefix(name, "float") && isAllDigitsAfter(name, "float") {
		return true
	}
	return false
}

func isAllDigitsAfter(s, prefix string) bool {
	rest := s[len(prefix):]
	if rest == "" {
		return false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
