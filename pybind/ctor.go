package pybind

import (
	"strings"

	"github.com/malkia/clif/decl"
)

// constructor emits the bindings of a constructor of cls. It reports
// whether one of them takes no arguments, named factories included.
func (e *emitter) constructor(handle string, f *decl.Func, cls *decl.Class) (bool, error) {
	nullary := false
	err := explode(f, func(f *decl.Func) error {
		sig, names := typedParams(f.Params)
		switch {
		case f.Name.Exposed == "__init__" && f.Extend:
			e.w.linef("%s.def(py::init([](%s) {", handle, sig)
			e.w.indent()
			e.w.linef("return %s(%s);", f.Name.Native, names)
			e.w.dedent()
			e.w.line("})" + tail(suffixes(f)))
		case f.Name.Exposed == "__init__":
			types := make([]string, len(f.Params))
			for i, p := range f.Params {
				types[i] = paramType(p)
			}
			e.w.linef("%s.def(py::init<%s>()%s", handle, strings.Join(types, ", "), tail(suffixes(f)))
		default:
			e.w.linef(`%s.def_static("%s", [](%s) {`, handle, bindingName(f), sig)
			e.w.indent()
			e.w.linef("return %s(%s);", cls.Name.Native, names)
			e.w.dedent()
			e.w.line("}" + tail(suffixes(f)))
		}
		if len(f.Params) == 0 {
			nullary = true
		}
		return nil
	})
	return nullary, err
}

// typedParams renders a parameter list with the matcher's types and the
// argument list forwarding it.
func typedParams(params []decl.Param) (sig, names string) {
	decls := make([]string, len(params))
	args := make([]string, len(params))
	for i, p := range params {
		t := p.Type.Native
		if t == "" {
			t = callbackSignature(p.Type.Callable)
		}
		decls[i] = t + " " + paramName(p)
		args[i] = paramName(p)
		if p.Owned() != decl.OwnershipNone {
			args[i] = "std::move(" + args[i] + ")"
		}
	}
	return strings.Join(decls, ", "), strings.Join(args, ", ")
}
