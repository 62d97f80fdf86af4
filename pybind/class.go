package pybind

import (
	"fmt"
	"strings"

	"github.com/malkia/clif/decl"
)

// class emits the registration of c and its members inside a scope of
// their own. parent is the handle c is registered on.
func (e *emitter) class(parent string, c *decl.Class) error {
	handle := handleName(c)
	e.w.open("{")
	e.w.line(e.classDefinition(parent, c))

	nullary := false
	for _, m := range c.Members {
		switch m := m.(type) {
		case *decl.Const:
			e.constant(handle, m)
		case *decl.Func:
			if m.Constructor {
				ok, err := e.constructor(handle, m, c)
				if err != nil {
					return err
				}
				nullary = nullary || ok
				continue
			}
			if err := e.function(handle, m, c); err != nil {
				return err
			}
		case *decl.Var:
			e.variable(handle, m, c)
		case *decl.Enum:
			e.enum(handle, m)
		case *decl.Class:
			if err := e.class(handle, m); err != nil {
				return err
			}
		case *decl.Opaque:
			// Capsules need converters only.
		default:
			return decl.Errorf(c.Name.Exposed, decl.ErrUnhandled, "member %T", m)
		}
	}

	_, overridable := e.trampolines[c.Name.Native]
	if !nullary && c.ImplicitDefaultCtor && (!c.Abstract || overridable) {
		e.w.linef("%s.def(py::init<>());", handle)
	}
	e.w.close("}")
	return nil
}

// classDefinition builds the py::classh declaration of c.
func (e *emitter) classDefinition(parent string, c *decl.Class) string {
	types := []string{c.Name.Native}
	if !c.SuppressUpcasts {
		seen := map[string]bool{}
		for _, b := range c.Bases {
			if b.Native == "" || seen[b.Native] || !e.reg.IsRegistered(b.Native) {
				continue
			}
			seen[b.Native] = true
			types = append(types, b.Native)
		}
	}
	if t, ok := e.trampolines[c.Name.Native]; ok {
		types = append(types, t)
	}

	var b strings.Builder
	fmt.Fprintf(&b, `py::classh<%s> %s(%s, "%s"`, strings.Join(types, ", "), handleName(c), parent, c.Name.Exposed)
	if c.Docstring != "" {
		b.WriteString(", " + cppString(c.Docstring))
	}
	if c.DynamicAttributes {
		b.WriteString(", py::dynamic_attr()")
	}
	if c.Final {
		b.WriteString(", py::is_final()")
	}
	b.WriteString(");")
	return b.String()
}
