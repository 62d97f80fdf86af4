// clifgen turns a declaration tree into pybind11 extension module sources.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/malkia/clif/manifest"
)

func main() {
	verbose := flag.Bool("v", false, "Verbose output")
	configDir := flag.String("config", "", "Directory containing clif.toml (default: search upwards from the current directory)")
	modulePath := flag.String("module", "", "Module path; required without clif.toml, overrides [module].path otherwise")
	input := flag.String("in", "", "Declaration tree (.pb, .textpb or .cbor)")
	sourceOut := flag.String("o", "", "Output source file (overrides [module].source)")
	headerOut := flag.String("header", "", "Output header file (overrides [module].header)")
	treeOut := flag.String("tree-out", "", "Also write the loaded tree as canonical CBOR")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: clifgen [options] -in tree.pb\n\n")
		fmt.Fprintf(os.Stderr, "Generates the pybind11 source and header of one extension module.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  clifgen -in shapes.pb                         # settings from clif.toml\n")
		fmt.Fprintf(os.Stderr, "  clifgen -module geo.shapes -in shapes.textpb  # no clif.toml\n")
		fmt.Fprintf(os.Stderr, "  clifgen -in shapes.pb -tree-out shapes.cbor   # cache the decoded tree\n")
	}
	flag.Parse()

	verbosity := 0
	if *verbose {
		verbosity = 2
	}
	commonlog.Configure(verbosity, nil)

	if *input == "" {
		fmt.Fprintln(os.Stderr, "Error: -in is required")
		flag.Usage()
		os.Exit(1)
	}

	m, err := loadManifest(*configDir, *modulePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	j := job{
		manifest:  m,
		input:     *input,
		sourceOut: *sourceOut,
		headerOut: *headerOut,
		treeOut:   *treeOut,
		verbose:   *verbose,
	}
	if err := run(j); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadManifest reads clif.toml from dir, or searches for one, or builds a
// minimal configuration from modulePath. An explicit module path wins
// over the configured one.
func loadManifest(dir, modulePath string) (*manifest.Manifest, error) {
	var m *manifest.Manifest
	var err error
	if dir != "" {
		m, err = manifest.Load(dir)
	} else {
		m, err = manifest.FindAndLoad(".")
	}
	if err != nil {
		return nil, err
	}

	if m == nil {
		if modulePath == "" {
			return nil, fmt.Errorf("no %s found and no -module given", manifest.FileName)
		}
		m, err = manifest.Parse([]byte(fmt.Sprintf("[module]\npath = %q\n", modulePath)))
		if err != nil {
			return nil, err
		}
		if m.Dir, err = filepath.Abs("."); err != nil {
			return nil, err
		}
		return m, nil
	}
	if modulePath != "" {
		if err := m.SetModulePath(modulePath); err != nil {
			return nil, fmt.Errorf("-module: %w", err)
		}
	}
	return m, nil
}
