package pybind

import (
	"fmt"
	"strings"

	"github.com/malkia/clif/decl"
)

// function emits every binding of f on handle; cls is the enclosing
// class, nil for module functions.
func (e *emitter) function(handle string, f *decl.Func, cls *decl.Class) error {
	return explode(f, func(f *decl.Func) error {
		switch {
		case e.needsClosure(f, cls):
			return e.closure(handle, f, cls)
		case isOperator(f):
			e.direct(handle, f, cls, "py::is_operator()")
		default:
			e.direct(handle, f, cls)
		}
		return nil
	})
}

// explode calls emit once per unknown-default count: for k unknown
// defaults, first with the last k parameters dropped, then k-1, down to
// the full parameter list. Shorter signatures are registered first so
// that overload resolution tries them first.
func explode(f *decl.Func, emit func(*decl.Func) error) error {
	n := len(f.Params)
	for i := f.UnknownDefaults(); i >= 1; i-- {
		if err := emit(truncated(f, n-i)); err != nil {
			return err
		}
	}
	return emit(f)
}

// truncated returns a copy of f exposing only its first n parameters.
// The native parameter count is pinned so the copy still calls the full
// native signature.
func truncated(f *decl.Func, n int) *decl.Func {
	c := f.Clone()
	c.NativeParams = f.NativeParamCount()
	c.Params = c.Params[:n]
	return c
}

// direct binds a pointer to the native function.
func (e *emitter) direct(handle string, f *decl.Func, cls *decl.Class, extra ...string) {
	e.w.linef(`%s.%s("%s",`, handle, defName(f, cls), bindingName(f))
	e.w.indent()
	e.w.linef("static_cast<%s>(&%s)%s", pointerType(f, cls), f.Name.Native, tail(suffixes(f, extra...)))
	e.w.dedent()
}

func defName(f *decl.Func, cls *decl.Class) string {
	if cls != nil && f.ClassMethod {
		return "def_static"
	}
	return "def"
}

// isInstanceMethod reports whether f is called on an instance of cls.
func isInstanceMethod(f *decl.Func, cls *decl.Class) bool {
	return cls != nil && !f.ClassMethod && !f.Extend
}

// returnType is the C++ return type of the native declaration.
func returnType(f *decl.Func) string {
	if f.NativeVoidReturn || len(f.Returns) == 0 {
		return "void"
	}
	return paramType(f.Returns[0])
}

// pointerType spells the function pointer type used to select one
// native overload.
func pointerType(f *decl.Func, cls *decl.Class) string {
	args := make([]string, len(f.Params))
	for i, p := range f.Params {
		args[i] = paramType(p)
	}
	if isInstanceMethod(f, cls) {
		s := fmt.Sprintf("%s (%s::*)(%s)", returnType(f), cls.Name.Native, strings.Join(args, ", "))
		if f.ConstMethod {
			s += " const"
		}
		return s
	}
	return fmt.Sprintf("%s (*)(%s)", returnType(f), strings.Join(args, ", "))
}

// paramType is the C++ type of p at the call site.
func paramType(p decl.Param) string {
	if t := p.NativeType(); t != "" {
		return t
	}
	return callbackSignature(p.Type.Callable)
}

// callbackSignature spells the std::function type of a behavioral
// parameter.
func callbackSignature(c *decl.Callable) string {
	if c == nil {
		return "::std::function<void()>"
	}
	ret := "void"
	if len(c.Returns) > 0 {
		ret = paramType(c.Returns[0])
	}
	args := make([]string, len(c.Params))
	for i, p := range c.Params {
		args[i] = paramType(p)
	}
	return fmt.Sprintf("::std::function<%s(%s)>", ret, strings.Join(args, ", "))
}

func paramName(p decl.Param) string {
	if p.Name.Native != "" {
		return p.Name.Native
	}
	return p.Name.Exposed
}

// suffixes are the trailing arguments of a def call: keyword names and
// renderable defaults, extra annotations, then the docstring.
func suffixes(f *decl.Func, extra ...string) []string {
	out := make([]string, 0, len(f.Params)+len(extra)+1)
	for _, p := range f.Params {
		name := p.Name.Exposed
		if name == "" {
			name = p.Name.Native
		}
		arg := `py::arg("` + name + `")`
		if p.Default != "" && p.Default != decl.DefaultUnknown {
			arg += " = " + p.Default
		}
		out = append(out, arg)
	}
	out = append(out, extra...)
	if f.Docstring != "" {
		out = append(out, cppString(f.Docstring))
	}
	return out
}

// tail closes a def call after its callable argument.
func tail(suffixes []string) string {
	if len(suffixes) == 0 {
		return ");"
	}
	return ", " + strings.Join(suffixes, ", ") + ");"
}
