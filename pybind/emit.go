package pybind

import (
	"github.com/malkia/clif/decl"
	"github.com/malkia/clif/registry"
)

// moduleHandle is the PYBIND11_MODULE parameter.
const moduleHandle = "m"

// emitter writes the body of the module entry point. It only reads the
// registry and the trampoline table, both fixed by Prepare.
type emitter struct {
	w           *writer
	reg         *registry.Registry
	trampolines map[string]string // class native name → trampoline type
}

// topLevel dispatches one declaration of the unit.
func (e *emitter) topLevel(d decl.Decl) error {
	switch d := d.(type) {
	case *decl.Func:
		return e.function(moduleHandle, d, nil)
	case *decl.Class:
		return e.class(moduleHandle, d)
	case *decl.Const:
		e.constant(moduleHandle, d)
	case *decl.Enum:
		e.enum(moduleHandle, d)
	case *decl.Opaque:
		// Capsules need converters only.
	case *decl.Var:
		return decl.Errorf(d.Name.Exposed, decl.ErrUnhandled, "variable outside a class")
	default:
		return decl.Errorf(d.DeclName().Exposed, decl.ErrUnhandled, "%T", d)
	}
	return nil
}
