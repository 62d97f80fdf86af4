package pybind

import (
	"fmt"
	"strings"

	"github.com/malkia/clif/decl"
)

// needsClosure reports whether f must be bound through a lambda that
// marshals its parameters and results.
func (e *emitter) needsClosure(f *decl.Func, cls *decl.Class) bool {
	if cls != nil && !f.Extend && hasInheritedVirtual(cls) {
		return true
	}
	if f.Postproc != "" || f.NativeParamCount() != len(f.Params) {
		return true
	}
	if n := len(f.Returns); n >= 2 || (n == 1 && f.NativeVoidReturn) {
		return true
	}
	if implicitlyConverted(f) {
		return true
	}
	for _, p := range f.Params {
		if e.reg.IsCapsule(p.Type.Lang) || isFallible(p) || isObject(p) {
			return true
		}
	}
	for _, r := range f.Returns {
		if e.reg.IsCapsule(r.Type.Lang) || isFallible(r) || isObject(r) || isBytes(r) {
			return true
		}
	}
	return false
}

// hasInheritedVirtual reports whether cls lists a virtual method that a
// native base class declares. Such methods go through a closure so that
// Python overrides stay reachable.
func hasInheritedVirtual(cls *decl.Class) bool {
	if len(cls.NativeBases) == 0 {
		return false
	}
	for _, f := range cls.VirtualMembers() {
		if f.Extend {
			continue
		}
		if owner := f.Name.Owner(); owner != "" && owner != cls.Name.Native {
			return true
		}
	}
	return false
}

// implicitlyConverted reports a single parameter that the matcher found
// through an implicit pointer conversion.
func implicitlyConverted(f *decl.Func) bool {
	if len(f.Params) != 1 {
		return false
	}
	p := f.Params[0]
	if !p.HasExactType() {
		return false
	}
	return bareType(p.ExactType) != bareType(p.Type.Native) &&
		p.Type.ToPtrConversion && p.Type.ToUniquePtrConversion
}

// bareType drops a leading const and a trailing reference or pointer
// token.
func bareType(t string) string {
	fields := strings.Split(t, " ")
	if fields[0] == "const" {
		fields = fields[1:]
	}
	if n := len(fields); n > 0 && (fields[n-1] == "&" || fields[n-1] == "*") {
		fields = fields[:n-1]
	}
	return strings.Join(fields, " ")
}

func isObject(p decl.Param) bool { return p.Type.Lang == "object" }
func isBytes(p decl.Param) bool  { return p.Type.Lang == "bytes" }

func isStringView(p decl.Param) bool {
	switch p.NativeType() {
	case "::std::string_view", "::absl::string_view":
		return true
	}
	return false
}

func isPyObjectPointer(t string) bool {
	t = strings.TrimPrefix(strings.ReplaceAll(t, " ", ""), "::")
	return t == "PyObject*"
}

// objectCastType is the type an object parameter is cast to before the
// native call.
func objectCastType(p decl.Param) string {
	if t := p.NativeType(); t != "" {
		return t
	}
	return "py::object"
}

// closureParam is one parameter of a generated lambda.
type closureParam struct {
	typ  string // type in the lambda signature
	name string
	arg  string // expression forwarded to the native call
}

func (e *emitter) closureParam(p decl.Param) closureParam {
	name := paramName(p)
	cp := closureParam{typ: p.Type.Native, name: name, arg: name}
	switch {
	case isObject(p):
		cp.typ = "py::object"
		if t := objectCastType(p); isPyObjectPointer(t) {
			cp.arg = name + ".ptr()"
		} else {
			cp.arg = fmt.Sprintf("%s.cast<%s>()", name, t)
		}
	case p.Type.Native == "":
		cp.typ = callbackSignature(p.Type.Callable)
	case p.Owned() != decl.OwnershipNone:
		cp.arg = "std::move(" + name + ")"
	case !p.Type.RawPointer && strings.HasSuffix(p.ExactType, "&") && !strings.HasSuffix(p.Type.Native, "&"):
		cp.typ = p.ExactType
	}
	if e.reg.IsCapsule(p.Type.Lang) {
		cp.typ = "clif::CapsuleWrapper<" + cp.typ + ">"
		cp.arg = name + ".ptr"
	}
	return cp
}

// closure binds f through a lambda.
func (e *emitter) closure(handle string, f *decl.Func, cls *decl.Class) error {
	self := isInstanceMethod(f, cls)
	result, err := e.closureResult(f, self)
	if err != nil {
		return err
	}

	var sig, args []string
	if self {
		sig = append(sig, cls.Name.Native+" &self")
	}
	for _, p := range f.Params {
		cp := e.closureParam(p)
		sig = append(sig, cp.typ+" "+cp.name)
		args = append(args, cp.arg)
	}

	e.w.linef(`%s.%s("%s", [](%s) {`, handle, defName(f, cls), bindingName(f), strings.Join(sig, ", "))
	e.w.indent()
	for i, r := range f.Returns {
		switch {
		case isObject(r):
			e.w.linef("py::object ret%d{};", i)
		case isFallible(r):
			e.w.linef("pybind11::google::PyCLIFStatus<%s> ret%d{};", r.ExactType, i)
		default:
			e.w.linef("%s ret%d{};", r.Type.Native, i)
		}
	}

	target := f.Name.Native
	if self {
		target = "self." + f.Name.Unqualified()
	}
	first := 0
	if !f.NativeVoidReturn && len(f.Returns) > 0 {
		first = 1
	}
	for i := first; i < len(f.Returns); i++ {
		args = append(args, fmt.Sprintf("&ret%d", i))
	}
	call := target + "(" + strings.Join(args, ", ") + ")"
	switch {
	case first == 1 && isObject(f.Returns[0]):
		e.w.linef("ret0 = clif::ConvertPyObject(%s);", call)
	case first == 1:
		e.w.linef("ret0 = %s;", call)
	default:
		e.w.line(call + ";")
	}

	for _, l := range result {
		e.w.line(l)
	}
	e.w.dedent()
	e.w.line("}" + tail(suffixes(f)))
	return nil
}

// closureResult builds the statements that end a lambda body.
func (e *emitter) closureResult(f *decl.Func, self bool) ([]string, error) {
	values := make([]string, len(f.Returns))
	for i, r := range f.Returns {
		values[i] = e.wrapReturn(r, i)
	}
	joined := strings.Join(values, ", ")

	switch {
	case f.Postproc == "->self" || f.Postproc == "self":
		if !self {
			return nil, decl.Errorf(f.Name.Native, ErrInvalidPostproc, "%q outside an instance method", f.Postproc)
		}
		return []string{"return self;"}, nil
	case f.Postproc != "":
		i := strings.LastIndex(f.Postproc, ".")
		if i <= 0 || i == len(f.Postproc)-1 {
			return nil, decl.Errorf(f.Name.Native, ErrInvalidPostproc, "%q", f.Postproc)
		}
		return []string{
			fmt.Sprintf(`auto mod = py::module_::import("%s");`, f.Postproc[:i]),
			fmt.Sprintf(`py::object result_ = mod.attr("%s")(%s);`, f.Postproc[i+1:], joined),
			"return result_;",
		}, nil
	case len(values) > 1:
		return []string{"return std::make_tuple(" + joined + ");"}, nil
	case len(values) == 1:
		return []string{"return " + joined + ";"}, nil
	}
	return nil, nil
}

// wrapReturn converts the i-th result slot into the value handed back
// to Python.
func (e *emitter) wrapReturn(r decl.Param, i int) string {
	slot := fmt.Sprintf("ret%d", i)
	switch {
	case isBytes(r) && isStringView(r):
		return fmt.Sprintf("py::bytes(%s.data(), %s.size())", slot, slot)
	case isBytes(r):
		return "py::bytes(" + slot + ")"
	case e.reg.IsCapsule(r.Type.Lang):
		return fmt.Sprintf("clif::CapsuleWrapper<%s>(%s)", r.Type.Native, slot)
	}
	return slot
}
