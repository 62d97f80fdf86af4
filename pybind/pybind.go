// Package pybind generates pybind11 (smart_holder) extension module
// sources from a declaration tree.
//
// Generation runs in two phases. Prepare builds the type registry and
// synthesizes every trampoline; Source and Header then emit text from
// that frozen state. Output is a deterministic function of the unit and
// the options.
package pybind

import (
	"errors"

	"github.com/tliron/commonlog"
)

var log = commonlog.GetLogger("clif.pybind")

var (
	// ErrDuplicateTrampoline is returned when two trampolines would be
	// synthesized for one class, or two classes share a trampoline name.
	ErrDuplicateTrampoline = errors.New("duplicate trampoline")
	// ErrInvalidPostproc is returned for a post-processing hook that is
	// neither "self" nor "<module>.<attribute>".
	ErrInvalidPostproc = errors.New("invalid postproc hook")
	// ErrNoModulePath is returned when Options.ModulePath is empty.
	ErrNoModulePath = errors.New("module path is required")
)

// DefaultIndent is one level of indentation in generated code.
const DefaultIndent = "  "

// Options controls generation.
type Options struct {
	// ModulePath is the dotted Python path of the generated module. Its
	// last segment names the PYBIND11_MODULE entry point.
	ModulePath string
	// HeaderPath is the generated header included by the source.
	HeaderPath string
	// Indent is one indentation step; DefaultIndent when empty.
	Indent string
	// IncludePaths are stripped from declaring-header paths so that
	// #include lines are relative to a search directory.
	IncludePaths []string
	// KnownTypes are native types registered by other modules.
	KnownTypes []string
	// Imports are extra Python modules imported before the body.
	Imports []string
	// Doc replaces the default module docstring.
	Doc string
}

func (o Options) indent() string {
	if o.Indent == "" {
		return DefaultIndent
	}
	return o.Indent
}
