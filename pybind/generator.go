package pybind

import (
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/malkia/clif/decl"
	"github.com/malkia/clif/registry"
)

var importDirective = regexp.MustCompile(`module_path:(.*)`)

var pybindHeaders = []string{
	"third_party/pybind11/include/pybind11/complex.h",
	"third_party/pybind11/include/pybind11/functional.h",
	"third_party/pybind11/include/pybind11/operators.h",
	"third_party/pybind11/include/pybind11/smart_holder.h",
	"third_party/pybind11/include/pybind11/stl.h",
}

var runtimeHeaders = []string{
	"clif/pybind11/runtime.h",
	"clif/pybind11/type_casters.h",
	"third_party/pybind11_protobuf/native_proto_caster.h",
}

const smartHolderHeader = "third_party/pybind11/include/pybind11/smart_holder.h"

// Generator produces the extension module source and header of one
// compilation unit.
type Generator struct {
	unit *decl.Unit
	opts Options

	prepared    bool
	reg         *registry.Registry
	trampolines map[string]string // class native name → trampoline type
	overrides   []string          // rendered trampoline types
}

// New returns a generator for u. The unit must not be modified while the
// generator is in use.
func New(u *decl.Unit, opts Options) *Generator {
	return &Generator{unit: u, opts: opts}
}

// Generate is a convenience wrapper returning both outputs.
func Generate(u *decl.Unit, opts Options) (source, header []string, err error) {
	g := New(u, opts)
	if source, err = g.Source(); err != nil {
		return nil, nil, err
	}
	if header, err = g.Header(); err != nil {
		return nil, nil, err
	}
	return source, header, nil
}

// Prepare builds the registry and synthesizes all trampolines. It runs
// once; Source and Header call it implicitly.
func (g *Generator) Prepare() error {
	if g.prepared {
		return nil
	}
	if g.opts.ModulePath == "" {
		return ErrNoModulePath
	}
	reg, err := registry.Build(g.unit, g.opts.KnownTypes...)
	if err != nil {
		return err
	}

	trampolines := map[string]string{}
	owners := map[string]string{} // trampoline type → class native name
	w := newWriter(g.opts.indent())
	for _, d := range g.unit.Decls {
		c, ok := d.(*decl.Class)
		if !ok || len(overridable(c)) == 0 {
			continue
		}
		if _, dup := trampolines[c.Name.Native]; dup {
			return decl.Errorf(c.Name.Native, ErrDuplicateTrampoline, "class declared twice")
		}
		name := trampolineName(c)
		if other, dup := owners[name]; dup {
			return decl.Errorf(c.Name.Native, ErrDuplicateTrampoline, "%s already adapts %s", name, other)
		}
		owners[name] = c.Name.Native
		trampolines[c.Name.Native] = name
		writeTrampoline(w, c, name)
	}

	g.reg = reg
	g.trampolines = trampolines
	g.overrides = w.Lines()
	g.prepared = true
	log.Debugf("prepared %s: %d registry entries, %d trampolines",
		g.opts.ModulePath, len(reg.Entries()), len(trampolines))
	return nil
}

// Registry returns the registry built by Prepare.
func (g *Generator) Registry() (*registry.Registry, error) {
	if err := g.Prepare(); err != nil {
		return nil, err
	}
	return g.reg, nil
}

// Source returns the lines of the extension module source.
func (g *Generator) Source() ([]string, error) {
	if err := g.Prepare(); err != nil {
		return nil, err
	}
	w := newWriter(g.opts.indent())

	for _, h := range pybindHeaders {
		w.linef(`#include "%s"`, h)
	}
	w.line("")
	for _, h := range runtimeHeaders {
		w.linef(`#include "%s"`, h)
	}
	w.line("")
	for _, h := range g.includes(true) {
		w.linef(`#include "%s"`, h)
	}
	if g.opts.HeaderPath != "" {
		w.linef(`#include "%s"`, g.opts.HeaderPath)
	}
	w.line("")
	w.line("namespace py = pybind11;")
	w.line("")

	w.lines = append(w.lines, g.overrides...)
	w.line("")
	forEachNamespace(w, g.reg.Groups(), func(e registry.Entry) {
		writeDeclarations(w, e, g.opts.ModulePath)
	})

	w.open("PYBIND11_MODULE(" + moduleName(g.opts.ModulePath) + ", m) {")
	for _, m := range g.imports() {
		w.linef(`py::module_::import("%s");`, m)
	}
	doc := g.opts.Doc
	if doc == "" {
		doc = "CLIF-generated pybind11-based module for " + g.unit.Source
	}
	w.linef("m.doc() = %s;", cppString(doc))
	w.line("py::google::ImportStatusModule();")
	w.line("pybind11_protobuf::ImportNativeProtoCasters();")

	e := &emitter{w: w, reg: g.reg, trampolines: g.trampolines}
	for _, d := range g.unit.Decls {
		if err := e.topLevel(d); err != nil {
			return nil, err
		}
	}
	w.close("}")
	w.line("")
	forEachNamespace(w, g.reg.Groups(), func(e registry.Entry) {
		writeDefinitions(w, e, g.opts.ModulePath)
	})

	log.Debugf("generated %d source lines for %s", len(w.lines), g.opts.ModulePath)
	return w.Lines(), nil
}

// Header returns the lines of the header other modules include to use
// the types exposed here.
func (g *Generator) Header() ([]string, error) {
	if err := g.Prepare(); err != nil {
		return nil, err
	}
	w := newWriter(g.opts.indent())
	w.linef(`#include "%s"`, smartHolderHeader)
	for _, h := range g.includes(false) {
		w.linef(`#include "%s"`, h)
	}
	w.line("")
	for _, e := range g.reg.Entries() {
		if s, ok := typeCaster(e); ok {
			w.line(s)
		}
	}
	w.line("")
	forEachNamespace(w, g.reg.Groups(), func(e registry.Entry) {
		writeDeclarations(w, e, g.opts.ModulePath)
	})
	w.line("")
	w.line("// CLIF init_module module_path:" + g.opts.ModulePath)
	return w.Lines(), nil
}

// imports lists the Python modules the body depends on, in first-seen
// order: import directives, configured imports, then the owning modules
// of bases resolved through the namemap.
func (g *Generator) imports() []string {
	seen := map[string]bool{g.opts.ModulePath: true}
	var out []string
	add := func(m string) {
		m = strings.TrimSpace(m)
		if m == "" || seen[m] {
			return
		}
		seen[m] = true
		out = append(out, m)
	}
	for _, init := range g.unit.ExtraInit {
		if m := importDirective.FindStringSubmatch(init); m != nil {
			add(m[1])
		}
	}
	for _, m := range g.opts.Imports {
		add(m)
	}
	for _, e := range g.reg.Entries() {
		if e.Kind != registry.KindClass {
			continue
		}
		for _, b := range e.Bases {
			if it, ok := g.reg.Lookup(b); ok {
				add(it.Module())
			}
		}
	}
	return out
}

// includes returns the sorted declaring headers of the top-level
// declarations, optionally with the usertype includes.
func (g *Generator) includes(usertypes bool) []string {
	set := map[string]bool{}
	for _, d := range g.unit.Decls {
		if f := decl.MetaOf(d).File; f != "" {
			set[g.includePath(f)] = true
		}
	}
	if usertypes {
		for _, f := range g.unit.UsertypeIncludes {
			if f != "" {
				set[f] = true
			}
		}
	}
	out := make([]string, 0, len(set))
	for f := range set {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// includePath strips the longest matching include directory from file.
func (g *Generator) includePath(file string) string {
	best := ""
	for _, dir := range g.opts.IncludePaths {
		dir = path.Clean(dir)
		if strings.HasPrefix(file, dir+"/") && len(dir) > len(best) {
			best = dir
		}
	}
	if best == "" {
		return file
	}
	return strings.TrimPrefix(file, best+"/")
}
