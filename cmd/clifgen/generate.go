package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"github.com/malkia/clif/decl"
	"github.com/malkia/clif/manifest"
	"github.com/malkia/clif/pybind"
	"github.com/malkia/clif/typeindex"
)

var log = commonlog.GetLogger("clif.clifgen")

type job struct {
	manifest  *manifest.Manifest
	input     string
	sourceOut string
	headerOut string
	treeOut   string
	verbose   bool
}

func run(j job) error {
	opts := j.manifest.Options()

	var index *typeindex.Index
	if path := j.manifest.TypeIndexPath(); path != "" {
		var err error
		if index, err = typeindex.Open(path); err != nil {
			return err
		}
		defer index.Close()
		known, err := index.KnownTypes(opts.ModulePath)
		if err != nil {
			return err
		}
		opts.KnownTypes = append(opts.KnownTypes, known...)
		log.Debugf("%d known types from %s", len(known), path)
	}

	u, err := loadUnit(j.input)
	if err != nil {
		return fmt.Errorf("loading %s: %w", j.input, err)
	}
	if j.verbose {
		fmt.Printf("Loaded %s: %d top-level declarations\n", j.input, len(u.Decls))
	}
	if j.treeOut != "" {
		data, err := decl.MarshalUnit(u)
		if err != nil {
			return fmt.Errorf("encoding tree: %w", err)
		}
		if err := writeFile(j.treeOut, data); err != nil {
			return err
		}
	}

	g := pybind.New(u, opts)
	source, err := g.Source()
	if err != nil {
		return fmt.Errorf("generating %s: %w", opts.ModulePath, err)
	}
	header, err := g.Header()
	if err != nil {
		return fmt.Errorf("generating %s header: %w", opts.ModulePath, err)
	}

	sourcePath := firstNonEmpty(j.sourceOut, j.manifest.SourcePath())
	headerPath := firstNonEmpty(j.headerOut, j.manifest.HeaderPath())
	if err := writeFile(sourcePath, []byte(pybind.Text(source))); err != nil {
		return err
	}
	if err := writeFile(headerPath, []byte(pybind.Text(header))); err != nil {
		return err
	}
	if j.verbose {
		fmt.Printf("  Wrote %s\n", sourcePath)
		fmt.Printf("  Wrote %s\n", headerPath)
	}

	if index != nil {
		reg, err := g.Registry()
		if err != nil {
			return err
		}
		if err := index.Record(opts.ModulePath, reg.Entries()); err != nil {
			return err
		}
	}
	log.Infof("generated %s", opts.ModulePath)
	return nil
}

// loadUnit decodes a tree, choosing the format by file extension.
func loadUnit(path string) (*decl.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pb", ".binpb":
		return decl.LoadProto(data)
	case ".textpb", ".txtpb":
		return decl.LoadProtoText(data)
	case ".cbor":
		return decl.UnmarshalUnit(data)
	}
	return nil, fmt.Errorf("unknown tree format %q", filepath.Ext(path))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
