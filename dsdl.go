// Package dsdl exposes the single public entry point of this module:
// ReadNamespace, which parses, resolves and builds an entire DSDL
// namespace tree into annotated composite types (spec.md §6).
package dsdl

import (
	"github.com/OpenCyphal/pydsdl/internal/dsdltype"
	"github.com/OpenCyphal/pydsdl/internal/registry"
)

// Option configures a ReadNamespace call.
type Option func(*registry.Options)

// WithExtension overrides the definition-file extension (default "dsdl").
func WithExtension(ext string) Option {
	return func(o *registry.Options) { o.Extension = ext }
}

// WithAllowUnregulatedFixedPortID disables the regulated-port-ID range
// check for fixed port identifiers (spec.md §3/§4.3).
func WithAllowUnregulatedFixedPortID(allow bool) Option {
	return func(o *registry.Options) { o.AllowUnregulatedFixedPortID = allow }
}

// WithElevateDeprecationWarnings promotes deprecation warnings (a
// non-deprecated type directly referencing a deprecated one) from a
// diagnostic-callback notice into a hard DeprecationWarningElevated error
// that aborts the build (spec.md §4.3/§7).
func WithElevateDeprecationWarnings(elevate bool) Option {
	return func(o *registry.Options) { o.ElevateDeprecationWarnings = elevate }
}

// WithPrintHandler installs the callback invoked by @print directives.
// text is the rendered expression, path and line locate the directive.
func WithPrintHandler(fn func(text, path string, line int)) Option {
	return func(o *registry.Options) { o.Print = fn }
}

// ReadNamespace builds every definition in rootNamespaceDir and its
// nested namespace directories, resolving cross-references against rootNamespaceDir
// itself and, in order, against each of lookupDirs. It returns the
// composites in deterministic (full_name, major, minor) order, or the
// first diagnostic encountered (spec.md §5: first-error-aborts).
func ReadNamespace(rootNamespaceDir string, lookupDirs []string, opts ...Option) ([]*dsdltype.Composite, error) {
	var o registry.Options
	for _, apply := range opts {
		apply(&o)
	}
	reg, err := registry.New(rootNamespaceDir, lookupDirs, o)
	if err != nil {
		return nil, err
	}
	return reg.BuildAll()
}
