package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/OpenCyphal/pydsdl"
	"github.com/OpenCyphal/pydsdl/internal/config"
	"github.com/OpenCyphal/pydsdl/internal/logging"
)

var (
	lookupDirs       []string
	extension        string
	allowUnregPort   bool
	elevateDeprecate bool
	projectFile      string
	debug            bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "dsdl",
		Short: "Parse and build a DSDL namespace",
		Long:  "Reads a root DSDL namespace directory and prints every composite type it builds.",
	}
	rootCmd.PersistentFlags().StringSliceVarP(&lookupDirs, "lookup", "I", nil, "additional lookup namespace directory (repeatable)")
	rootCmd.PersistentFlags().StringVar(&extension, "ext", "dsdl", "definition file extension")
	rootCmd.PersistentFlags().BoolVar(&allowUnregPort, "allow-unregulated-fixed-port-id", false, "permit fixed port IDs outside the regulated range")
	rootCmd.PersistentFlags().BoolVar(&elevateDeprecate, "elevate-deprecation-warnings", false, "treat deprecation warnings as build errors")
	rootCmd.PersistentFlags().StringVar(&projectFile, "project-file", "", "dsdl.yaml project file to pre-populate options from")
	rootCmd.PersistentFlags().BoolVarP(&debug, "verbose", "v", false, "enable debug logging")

	buildCmd := &cobra.Command{
		Use:   "build <root-namespace-dir>",
		Short: "Build every definition in a namespace",
		Args:  cobra.ExactArgs(1),
		RunE:  runBuild,
	}
	rootCmd.AddCommand(buildCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runBuild(cmd *cobra.Command, args []string) error {
	log := logging.New(debug)

	opts := config.Default()
	if projectFile != "" {
		loaded, err := config.LoadProjectFile(projectFile)
		if err != nil {
			return fmt.Errorf("loading project file: %w", err)
		}
		opts = loaded
	}
	if changed(cmd.Flags(), "ext") {
		opts.Extension = extension
	}
	if changed(cmd.Flags(), "allow-unregulated-fixed-port-id") {
		opts.AllowUnregulatedFixedPortID = allowUnregPort
	}
	if changed(cmd.Flags(), "elevate-deprecation-warnings") {
		opts.ElevateDeprecationWarnings = elevateDeprecate
	}
	if changed(cmd.Flags(), "lookup") {
		opts.LookupDirs = lookupDirs
	}

	log.Debug("building namespace", "root", args[0], "lookups", strings.Join(opts.LookupDirs, ","))

	composites, err := dsdl.ReadNamespace(args[0], opts.LookupDirs,
		dsdl.WithExtension(opts.Extension),
		dsdl.WithAllowUnregulatedFixedPortID(opts.AllowUnregulatedFixedPortID),
		dsdl.WithElevateDeprecationWarnings(opts.ElevateDeprecationWarnings),
		dsdl.WithPrintHandler(func(text, path string, line int) {
			fmt.Printf("%s:%d: %s\n", path, line, text)
		}),
	)
	if err != nil {
		return err
	}

	for _, c := range composites {
		fmt.Printf("%s (%d bits)\n", c.TypeString(), c.BitLengthSet().Max())
	}
	log.Info("build complete", "count", len(composites))
	return nil
}

func changed(fs *pflag.FlagSet, name string) bool {
	f := fs.Lookup(name)
	return f != nil && f.Changed
}
