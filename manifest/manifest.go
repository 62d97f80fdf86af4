// Package manifest handles clif.toml generator configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/malkia/clif/pybind"
)

// FileName is the configuration file looked up by FindAndLoad.
const FileName = "clif.toml"

// DefaultIndent is the indentation width, in spaces, of generated code.
const DefaultIndent = 2

// Manifest represents a clif.toml configuration.
type Manifest struct {
	Module   Module   `toml:"module"`
	Generate Generate `toml:"generate"`
	Imports  Imports  `toml:"imports"`

	// Dir is the directory containing the clif.toml file (set at load time).
	Dir string `toml:"-"`
}

// Module names the generated extension module and its outputs.
type Module struct {
	Path   string `toml:"path"`
	Header string `toml:"header"`
	Source string `toml:"source"`
	Doc    string `toml:"doc"`
}

// Generate tunes code generation.
type Generate struct {
	Indent       int      `toml:"indent"`
	IncludePaths []string `toml:"include-paths"`
	TypeIndex    string   `toml:"type-index"`
}

// Imports lists collaborators defined outside the compilation unit.
type Imports struct {
	Modules []string `toml:"modules"`
	Types   []string `toml:"types"`
}

// Load parses a clif.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	return m, nil
}

// Parse decodes and validates a configuration document and applies
// defaults. Dir is left empty.
func Parse(data []byte) (*Manifest, error) {
	var raw map[string]interface{}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := validate(raw); err != nil {
		return nil, err
	}

	var m Manifest
	md, err := toml.Decode(string(data), &m)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	if err := checkModulePath(m.Module.Path); err != nil {
		return nil, err
	}

	// Defaults
	name := m.Module.Path[strings.LastIndex(m.Module.Path, ".")+1:]
	if m.Module.Source == "" {
		m.Module.Source = name + ".cc"
	}
	if m.Module.Header == "" {
		m.Module.Header = name + ".h"
	}
	if !md.IsDefined("generate", "indent") {
		m.Generate.Indent = DefaultIndent
	}
	return &m, nil
}

// FindAndLoad walks up from startDir to find a clif.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// SetModulePath replaces the configured module path after validating
// it. Output paths keep their configured or defaulted values.
func (m *Manifest) SetModulePath(path string) error {
	if err := ValidateModulePath(path); err != nil {
		return err
	}
	m.Module.Path = path
	return nil
}

// SourcePath returns the absolute path of the generated source file.
func (m *Manifest) SourcePath() string { return m.resolve(m.Module.Source) }

// HeaderPath returns the absolute path of the generated header file.
func (m *Manifest) HeaderPath() string { return m.resolve(m.Module.Header) }

// TypeIndexPath returns the absolute path of the type index database, or
// "" when none is configured.
func (m *Manifest) TypeIndexPath() string {
	if m.Generate.TypeIndex == "" {
		return ""
	}
	return m.resolve(m.Generate.TypeIndex)
}

func (m *Manifest) resolve(p string) string {
	if filepath.IsAbs(p) || m.Dir == "" {
		return p
	}
	return filepath.Join(m.Dir, p)
}

// Options returns the generator options described by m. Include paths
// are resolved against the manifest directory; known types from the
// type index are appended by the caller.
func (m *Manifest) Options() pybind.Options {
	includes := make([]string, len(m.Generate.IncludePaths))
	for i, p := range m.Generate.IncludePaths {
		includes[i] = m.resolve(p)
	}
	return pybind.Options{
		ModulePath:   m.Module.Path,
		HeaderPath:   m.Module.Header,
		Indent:       strings.Repeat(" ", m.Generate.Indent),
		IncludePaths: includes,
		KnownTypes:   append([]string(nil), m.Imports.Types...),
		Imports:      append([]string(nil), m.Imports.Modules...),
		Doc:          m.Module.Doc,
	}
}
