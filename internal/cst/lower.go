// Package cst implements the concrete-syntax lowering pass of spec §4.1:
// splitting a definition file into physical lines and parsing each one
// into a Line record (Empty, Attribute, Directive, or ServiceMarker),
// attaching precise file/line location to the first failure.
package cst

import (
	"strings"

	"github.com/OpenCyphal/pydsdl/internal/derrors"
	"github.com/OpenCyphal/pydsdl/internal/grammar"
)

// Line is one physical source line after concrete-syntax parsing.
type Line struct {
	Number int
	Stmt   *grammar.Statement // nil for a blank or comment-only line
}

// Lower splits source (already read fully into memory, per spec §9's
// "scoped resources" note) into Lines, in order, for path.
func Lower(path string, source string) ([]Line, error) {
	raw := strings.Split(source, "\n")
	lines := make([]Line, 0, len(raw))
	for i, text := range raw {
		number := i + 1
		text = strings.TrimSuffix(text, "\r")
		if i == len(raw)-1 && text == "" {
			// Trailing newline at EOF produces one synthetic empty
			// element from strings.Split; it is not a real line.
			continue
		}
		stmt, err := grammar.ParseLine(number, text)
		if err != nil {
			return nil, derrors.At(derrors.Wrap(derrors.Parse, err, "%s", err.Error()), path, number)
		}
		lines = append(lines, Line{Number: number, Stmt: stmt})
	}
	return lines, nil
}
