package pybind

import (
	"fmt"
	"strings"

	"github.com/malkia/clif/registry"
)

// defaultNamespace holds declarations of types outside any namespace.
const defaultNamespace = "clif"

// converter is one Clif_PyObjAs or Clif_PyObjFrom overload of an
// exposed type.
type converter struct {
	as    bool
	param string // parameter type
	value string // Clif_PyObjAs: type passed to py::cast
	field string // Clif_PyObjAs: member read from the cast result
	expr  string // Clif_PyObjFrom: arguments of py::cast
}

func (c converter) signature() string {
	if c.as {
		return fmt.Sprintf("bool Clif_PyObjAs(PyObject* input, %s output)", c.param)
	}
	return fmt.Sprintf("PyObject* Clif_PyObjFrom(%s c, const ::clif::py::PostConv&)", c.param)
}

// converters lists the conversion overloads declared for an entry.
func converters(e registry.Entry) []converter {
	t := e.Native
	switch e.Kind {
	case registry.KindClass:
		out := []converter{
			{as: true, param: t + "**", value: t + "*"},
			{as: true, param: "std::shared_ptr<" + t + ">*", value: "std::shared_ptr<" + t + ">"},
			{as: true, param: "std::unique_ptr<" + t + ">*", value: "std::unique_ptr<" + t + ">"},
			{param: t + "*", expr: "c, py::return_value_policy::reference"},
			{param: "std::shared_ptr<" + t + ">", expr: "c"},
			{param: "std::unique_ptr<" + t + ">", expr: "std::move(c)"},
		}
		if e.PublicDestructor {
			out = append(out,
				converter{as: true, param: t + "*", value: t},
				converter{param: "const " + t + "&", expr: "c, py::return_value_policy::copy"},
			)
		}
		return out
	case registry.KindEnum:
		return []converter{
			{as: true, param: t + "*", value: t},
			{param: "const " + t + "&", expr: "c"},
		}
	case registry.KindCapsule:
		return []converter{
			{as: true, param: t + "**", value: "clif::CapsuleWrapper<" + t + "*>", field: ".ptr"},
			{param: t + "*", expr: "clif::CapsuleWrapper<" + t + "*>(c)"},
		}
	}
	return nil
}

// typeCaster is the smart-holder caster declaration of a class entry.
func typeCaster(e registry.Entry) (string, bool) {
	if e.Kind != registry.KindClass {
		return "", false
	}
	return "PYBIND11_SMART_HOLDER_TYPE_CASTERS(" + e.Native + ")", true
}

// forEachNamespace writes one namespace block per registry group.
func forEachNamespace(w *writer, groups []registry.Group, each func(registry.Entry)) {
	for _, g := range groups {
		ns := g.Namespace
		if ns == "" {
			ns = defaultNamespace
		}
		parts := strings.Split(ns, "::")
		opens := make([]string, len(parts))
		for i, p := range parts {
			opens[i] = "namespace " + p + " {"
		}
		w.line(strings.Join(opens, " "))
		for _, e := range g.Entries {
			each(e)
		}
		w.line(strings.Repeat("} ", len(parts)) + " // namespace " + ns)
	}
}

// writeDeclarations writes the forward declarations of the converters
// of e, introduced by a CLIF use marker mapping the native type to its
// Python path.
func writeDeclarations(w *writer, e registry.Entry, modulePath string) {
	w.line("")
	w.linef("// CLIF use `%s` as %s.%s", e.Native, modulePath, e.Path)
	for _, c := range converters(e) {
		w.line(c.signature() + ";")
	}
}

// writeDefinitions writes the converter bodies of e.
func writeDefinitions(w *writer, e registry.Entry, modulePath string) {
	w.line("")
	w.linef("// %s.%s to/from Python conversion", modulePath, e.Path)
	for _, c := range converters(e) {
		w.open(c.signature() + " {")
		if c.as {
			w.open("try {")
			w.linef("*output = py::cast<%s>(py::handle(input))%s;", c.value, c.field)
			w.close("} catch (const py::cast_error&) {")
			w.indent()
			w.line("return false;")
			w.close("}")
			w.line("return true;")
		} else {
			w.linef("return py::cast(%s).release().ptr();", c.expr)
		}
		w.close("}")
	}
}
