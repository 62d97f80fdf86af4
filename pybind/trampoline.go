package pybind

import (
	"strings"

	"github.com/malkia/clif/decl"
)

// overridePolicy selects what an override does when Python does not
// implement the method.
type overridePolicy int

const (
	// fallbackToBase calls the native implementation.
	fallbackToBase overridePolicy = iota
	// noFallback raises; used for pure virtual methods.
	noFallback
)

func policyOf(f *decl.Func) overridePolicy {
	if f.PureVirtual {
		return noFallback
	}
	return fallbackToBase
}

func (p overridePolicy) macro() string {
	if p == noFallback {
		return "PYBIND11_OVERRIDE_PURE_NAME"
	}
	return "PYBIND11_OVERRIDE_NAME"
}

// overridable lists the virtual methods of c a trampoline overrides.
// Extend functions are free functions and have nothing to override.
func overridable(c *decl.Class) []*decl.Func {
	var out []*decl.Func
	for _, f := range c.VirtualMembers() {
		if !f.Extend {
			out = append(out, f)
		}
	}
	return out
}

// writeTrampoline emits the override adapter of c named name. Python
// subclasses of c are instances of the adapter; the self-life-support
// base keeps the Python object alive while C++ holds the instance.
func writeTrampoline(w *writer, c *decl.Class, name string) {
	w.open("struct " + name + " : " + c.Name.Native + ", py::trampoline_self_life_support {")
	w.line("using " + c.Name.Native + "::" + c.Name.Unqualified() + ";")
	for _, f := range overridable(c) {
		writeOverride(w, c, f)
	}
	w.close("};")
}

func writeOverride(w *writer, c *decl.Class, f *decl.Func) {
	method := f.Name.Unqualified()
	decls := make([]string, len(f.Params))
	args := []string{returnType(f), c.Name.Native, `"` + bindingName(f) + `"`, method}
	for i, p := range f.Params {
		decls[i] = paramType(p) + " " + paramName(p)
		args = append(args, paramName(p))
	}
	qual := ""
	if f.ConstMethod {
		qual = " const"
	}

	w.open(returnType(f) + " " + method + "(" + strings.Join(decls, ", ") + ")" + qual + " override {")
	w.open(policyOf(f).macro() + "(")
	for i, a := range args {
		if i == len(args)-1 {
			w.line(a + ");")
		} else {
			w.line(a + ",")
		}
	}
	w.dedent()
	w.close("}")
}
