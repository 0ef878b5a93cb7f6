// Package logging is a thin wrapper around the CLI consumer's structured
// logger. The core library (internal/registry, internal/builder, ...)
// never imports this package: it reports everything through returned
// errors and the caller-supplied print handler (spec.md §6/§7).
package logging

import (
	"os"

	"charm.land/log/v2"
)

// New returns a logger writing human-readable, leveled output to stderr,
// for cmd/dsdl's own diagnostics (build progress, option resolution) —
// never for core diagnostics, which are FrontendError values.
func New(debug bool) *log.Logger {
	l := log.NewWithOptions(os.Stderr, log.Options{ReportTimestamp: false})
	if debug {
		l.SetLevel(log.DebugLevel)
	} else {
		l.SetLevel(log.InfoLevel)
	}
	return l
}
