// Package config defines ReadNamespaceOptions, the library-wide option
// set, and an optional dsdl.yaml project-file loader used only by the
// cmd/dsdl consumer (spec.md §6: "No CLI, no environment variables, no
// persisted state" binds the core; this file never runs on that path).
package config

import (
	"os"

	"github.com/goccy/go-yaml"
)

// ReadNamespaceOptions carries the CLI consumer's option set, possibly
// pre-populated from a project file; cmd/dsdl turns it into dsdl.Option
// values. It has no print handler, and library callers configure
// ReadNamespace through dsdl.Option values directly.
type ReadNamespaceOptions struct {
	RootNamespaceDir            string   `yaml:"root_namespace_dir"`
	LookupDirs                  []string `yaml:"lookup_dirs"`
	Extension                   string   `yaml:"extension"`
	AllowUnregulatedFixedPortID bool     `yaml:"allow_unregulated_fixed_port_id"`
	ElevateDeprecationWarnings  bool     `yaml:"elevate_deprecation_warnings"`
}

// Default returns the option set ReadNamespace uses absent any Option.
func Default() ReadNamespaceOptions {
	return ReadNamespaceOptions{Extension: "dsdl"}
}

// LoadProjectFile reads a dsdl.yaml project file from path and merges its
// fields over a fresh Default(), for use by cmd/dsdl only.
func LoadProjectFile(path string) (ReadNamespaceOptions, error) {
	opts := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return opts, err
	}
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return opts, err
	}
	if opts.Extension == "" {
		opts.Extension = "dsdl"
	}
	return opts, nil
}
