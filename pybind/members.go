package pybind

import (
	"fmt"

	"github.com/malkia/clif/decl"
)

func (e *emitter) constant(handle string, c *decl.Const) {
	e.w.linef(`%s.attr("%s") = py::cast(static_cast<%s>(%s));`, handle, c.Name.Exposed, c.Type.Native, c.Name.Native)
}

// enum emits a py::enum_ chain. Unscoped enumerators are also exported
// into the enclosing scope, as in C++.
func (e *emitter) enum(handle string, en *decl.Enum) {
	head := fmt.Sprintf(`py::enum_<%s>(%s, "%s"`, en.Name.Native, handle, en.Name.Exposed)
	if en.Docstring != "" {
		head += ", " + cppString(en.Docstring)
	}
	head += ")"

	var chain []string
	for _, m := range en.Members {
		native := m.Native
		if native == "" {
			native = m.Exposed
		}
		chain = append(chain, fmt.Sprintf(`.value("%s", %s)`, m.Exposed, qualify(en.Name.Native, native)))
	}
	if !en.Scoped {
		chain = append(chain, ".export_values()")
	}
	if len(chain) == 0 {
		e.w.line(head + ";")
		return
	}
	e.w.line(head)
	e.w.indent()
	e.w.indent()
	for i, s := range chain {
		if i == len(chain)-1 {
			s += ";"
		}
		e.w.line(s)
	}
	e.w.dedent()
	e.w.dedent()
}

// variable exposes a data member as a property, through accessors when
// the declaration names them.
func (e *emitter) variable(handle string, v *decl.Var, cls *decl.Class) {
	owner := cls.Name.Native
	switch {
	case v.Getter != nil && v.Setter != nil && !v.ReadOnly:
		e.w.linef(`%s.def_property("%s", &%s, &%s);`, handle, v.Name.Exposed,
			qualify(owner, v.Getter.Name.Native), qualify(owner, v.Setter.Name.Native))
	case v.Getter != nil:
		e.w.linef(`%s.def_property_readonly("%s", &%s);`, handle, v.Name.Exposed, qualify(owner, v.Getter.Name.Native))
	case v.ReadOnly:
		e.w.linef(`%s.def_readonly("%s", &%s);`, handle, v.Name.Exposed, qualify(owner, v.Name.Native))
	default:
		e.w.linef(`%s.def_readwrite("%s", &%s);`, handle, v.Name.Exposed, qualify(owner, v.Name.Native))
	}
}
