package pybind

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/malkia/clif/decl"
)

// trampolineName names the override adapter synthesized for a class.
func trampolineName(c *decl.Class) string {
	return c.Name.Exposed + "_pybase"
}

// handleName names the local variable holding a class registration.
func handleName(c *decl.Class) string {
	return c.Name.Exposed + "_class"
}

// bindingName is the exposed function name without the trailing "#"
// markers that tell same-named source overloads apart.
func bindingName(f *decl.Func) string {
	return strings.TrimRight(f.Name.Exposed, "#")
}

// moduleName is the last segment of a dotted module path.
func moduleName(path string) string {
	if i := strings.LastIndex(path, "."); i >= 0 {
		return path[i+1:]
	}
	return path
}

// qualify prefixes name with owner unless it is already qualified.
func qualify(owner, name string) string {
	if strings.Contains(name, "::") || owner == "" {
		return name
	}
	return owner + "::" + name
}

// cppString renders s as a C++ narrow string literal. Text is NFC
// normalized first so equivalent docstrings produce identical bytes.
func cppString(s string) string {
	s = norm.NFC.String(s)
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		default:
			if c < 0x20 || c == 0x7f {
				fmt.Fprintf(&b, `\%03o`, c)
			} else {
				b.WriteByte(c)
			}
		}
	}
	b.WriteByte('"')
	return b.String()
}

// operatorNames are the Python special methods bound with
// py::is_operator() so that NotImplemented falls through to the
// reflected operation.
var operatorNames = map[string]bool{
	"__eq__": true, "__ne__": true,
	"__lt__": true, "__le__": true, "__gt__": true, "__ge__": true,
	"__add__": true, "__sub__": true, "__mul__": true, "__matmul__": true,
	"__truediv__": true, "__floordiv__": true, "__mod__": true,
	"__pow__": true, "__lshift__": true, "__rshift__": true,
	"__and__": true, "__or__": true, "__xor__": true,
	"__radd__": true, "__rsub__": true, "__rmul__": true,
	"__rtruediv__": true, "__rfloordiv__": true, "__rmod__": true,
	"__rpow__": true, "__rlshift__": true, "__rrshift__": true,
	"__rand__": true, "__ror__": true, "__rxor__": true,
	"__iadd__": true, "__isub__": true, "__imul__": true,
	"__itruediv__": true, "__ifloordiv__": true, "__imod__": true,
	"__ipow__": true, "__ilshift__": true, "__irshift__": true,
	"__iand__": true, "__ior__": true, "__ixor__": true,
	"__neg__": true, "__pos__": true, "__abs__": true, "__invert__": true,
}

func isOperator(f *decl.Func) bool {
	return operatorNames[bindingName(f)]
}
