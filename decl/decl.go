// Package decl is the in-memory representation of a native interface
// description: the declaration tree consumed by the binding generator.
package decl

import "strings"

// DefaultUnknown marks a parameter whose default value exists natively
// but cannot be rendered in generated code.
const DefaultUnknown = "default"

// Name pairs the identifier visible to Python with the fully qualified
// C++ identifier it binds to.
type Name struct {
	Exposed string `cbor:"exposed,omitempty"`
	Native  string `cbor:"native,omitempty"`
}

// Unqualified returns the last segment of the native name
// (e.g. "::ns::Foo::bar" → "bar").
func (n Name) Unqualified() string {
	if i := strings.LastIndex(n.Native, "::"); i >= 0 {
		return n.Native[i+2:]
	}
	return n.Native
}

// Owner returns the enclosing scope of the native name, or "" when the
// name is unqualified.
func (n Name) Owner() string {
	if i := strings.LastIndex(n.Native, "::"); i > 0 {
		return n.Native[:i]
	}
	return ""
}

// Meta holds the annotations shared by every declaration.
type Meta struct {
	Namespace string `cbor:"namespace,omitempty"` // C++ namespace annotation
	File      string `cbor:"file,omitempty"`      // header declaring the entity
}

func (m *Meta) meta() *Meta { return m }

// Kind identifies a declaration variant.
type Kind int

const (
	KindFunc Kind = iota + 1
	KindClass
	KindConst
	KindEnum
	KindVar
	KindOpaque
)

func (k Kind) String() string {
	switch k {
	case KindFunc:
		return "func"
	case KindClass:
		return "class"
	case KindConst:
		return "const"
	case KindEnum:
		return "enum"
	case KindVar:
		return "var"
	case KindOpaque:
		return "opaque"
	}
	return "unknown"
}

// Decl is one node of the declaration tree. The set of implementations
// is closed: *Func, *Class, *Const, *Enum, *Var and *Opaque.
type Decl interface {
	Kind() Kind
	DeclName() Name
	meta() *Meta
}

// MetaOf returns the shared annotations of d.
func MetaOf(d Decl) Meta { return *d.meta() }

// Ownership describes how a pointer parameter owns its pointee.
type Ownership int

const (
	OwnershipNone Ownership = iota
	OwnershipUnique
	OwnershipShared
)

// Type is the nominal type of a parameter or return value as inferred by
// the upstream matcher.
type Type struct {
	Lang   string `cbor:"lang,omitempty"`   // Python-side type name ("int", "bytes", "object", ...)
	Native string `cbor:"native,omitempty"` // C++ type; empty for callables

	RawPointer            bool `cbor:"raw_ptr,omitempty"`
	ToPtrConversion       bool `cbor:"to_ptr,omitempty"`
	ToUniquePtrConversion bool `cbor:"to_uniqptr,omitempty"`

	// Callable is set for behavioral parameters (callbacks).
	Callable *Callable `cbor:"callable,omitempty"`
}

// Callable is the signature of a callback parameter.
type Callable struct {
	Params  []Param `cbor:"params,omitempty"`
	Returns []Param `cbor:"returns,omitempty"`
}

// Param is a function parameter or return value.
type Param struct {
	Name      Name      `cbor:"name"`
	Type      Type      `cbor:"type"`
	ExactType string    `cbor:"exact,omitempty"` // type at the C++ call site
	Ownership Ownership `cbor:"own,omitempty"`
	Default   string    `cbor:"default,omitempty"`
}

// Owned reports the ownership of the parameter, deriving it from the
// exact type when the loader left it unset.
func (p Param) Owned() Ownership {
	if p.Ownership != OwnershipNone {
		return p.Ownership
	}
	t := strings.TrimPrefix(p.ExactType, "::")
	switch {
	case strings.HasPrefix(t, "std::unique_ptr"):
		return OwnershipUnique
	case strings.HasPrefix(t, "std::shared_ptr"):
		return OwnershipShared
	}
	return OwnershipNone
}

// HasExactType reports whether the matcher recorded a usable call-site
// type for the parameter.
func (p Param) HasExactType() bool { return usableExactType(p.ExactType) }

// NativeType is the most precise C++ type known for the parameter.
func (p Param) NativeType() string {
	if usableExactType(p.ExactType) {
		return p.ExactType
	}
	return p.Type.Native
}

// usableExactType rejects exact types the matcher could not spell.
func usableExactType(t string) bool {
	return t != "" && !strings.Contains(t, "type-parameter-") && !strings.Contains(t, "(lambda at")
}

// Func is a free function, method or constructor.
type Func struct {
	Meta
	Name    Name    `cbor:"name"`
	Params  []Param `cbor:"params,omitempty"`
	Returns []Param `cbor:"returns,omitempty"`

	NativeVoidReturn bool `cbor:"void,omitempty"`
	// NativeParams is the number of parameters the C++ function declares.
	// Zero means "same as len(Params)".
	NativeParams int `cbor:"nparams,omitempty"`

	Virtual     bool `cbor:"virtual,omitempty"`
	PureVirtual bool `cbor:"pure,omitempty"`
	Constructor bool `cbor:"ctor,omitempty"`
	ClassMethod bool `cbor:"classmethod,omitempty"`
	Extend      bool `cbor:"extend,omitempty"`
	ConstMethod bool `cbor:"const,omitempty"`

	Postproc  string `cbor:"postproc,omitempty"`
	Docstring string `cbor:"doc,omitempty"`
}

func (*Func) Kind() Kind { return KindFunc }
func (f *Func) DeclName() Name { return f.Name }

// NativeParamCount is the number of parameters of the C++ declaration.
func (f *Func) NativeParamCount() int {
	if f.NativeParams > 0 {
		return f.NativeParams
	}
	return len(f.Params)
}

// UnknownDefaults counts parameters whose default cannot be rendered.
func (f *Func) UnknownDefaults() int {
	n := 0
	for _, p := range f.Params {
		if p.Default == DefaultUnknown {
			n++
		}
	}
	return n
}

// Clone returns a copy whose parameter and return slices may be
// modified without affecting f.
func (f *Func) Clone() *Func {
	c := *f
	c.Params = append([]Param(nil), f.Params...)
	c.Returns = append([]Param(nil), f.Returns...)
	return &c
}

// Base is one entry of a class's base list. An alias placeholder has an
// exposed name but no native name and is resolved by the entry that
// immediately follows it.
type Base struct {
	Exposed string `cbor:"exposed,omitempty"`
	Native  string `cbor:"native,omitempty"`
}

// IsAlias reports whether b is an alias placeholder.
func (b Base) IsAlias() bool { return b.Exposed != "" && b.Native == "" }

// Class is a C++ class or struct.
type Class struct {
	Meta
	Name        Name   `cbor:"name"`
	Members     Decls  `cbor:"members,omitempty"`
	Bases       []Base `cbor:"bases,omitempty"`
	NativeBases []Base `cbor:"native_bases,omitempty"`

	Final               bool `cbor:"final,omitempty"`
	Abstract            bool `cbor:"abstract,omitempty"`
	PublicDestructor    bool `cbor:"public_dtor,omitempty"`
	SuppressUpcasts     bool `cbor:"suppress_upcasts,omitempty"`
	DynamicAttributes   bool `cbor:"dynamic_attr,omitempty"`
	ImplicitDefaultCtor bool `cbor:"default_ctor,omitempty"`

	Docstring string `cbor:"doc,omitempty"`
}

func (*Class) Kind() Kind { return KindClass }
func (c *Class) DeclName() Name { return c.Name }

// VirtualMembers returns the virtual functions declared directly in c.
func (c *Class) VirtualMembers() []*Func {
	var out []*Func
	for _, m := range c.Members {
		if f, ok := m.(*Func); ok && f.Virtual {
			out = append(out, f)
		}
	}
	return out
}

// Const is a named constant.
type Const struct {
	Meta
	Name Name `cbor:"name"`
	Type Type `cbor:"type"`
}

func (*Const) Kind() Kind { return KindConst }
func (c *Const) DeclName() Name { return c.Name }

// Enum is a C++ enumeration.
type Enum struct {
	Meta
	Name      Name   `cbor:"name"`
	Members   []Name `cbor:"members,omitempty"`
	Scoped    bool   `cbor:"scoped,omitempty"` // enum class
	Docstring string `cbor:"doc,omitempty"`
}

func (*Enum) Kind() Kind { return KindEnum }
func (e *Enum) DeclName() Name { return e.Name }

// Var is a data member, exposed as a property.
type Var struct {
	Meta
	Name     Name  `cbor:"name"`
	Type     Type  `cbor:"type"`
	ReadOnly bool  `cbor:"readonly,omitempty"`
	Getter   *Func `cbor:"getter,omitempty"`
	Setter   *Func `cbor:"setter,omitempty"`
}

func (*Var) Kind() Kind { return KindVar }
func (v *Var) DeclName() Name { return v.Name }

// Opaque is a type exposed only as an opaque capsule handle.
type Opaque struct {
	Meta
	Name Name `cbor:"name"`
}

func (*Opaque) Kind() Kind { return KindOpaque }
func (o *Opaque) DeclName() Name { return o.Name }

// Decls is an ordered list of declarations.
type Decls []Decl

// NamemapEntry maps a top-level exposed identifier to its dotted path.
type NamemapEntry struct {
	Name     string `cbor:"name"`
	FullPath string `cbor:"path"`
}

// Unit is one compilation unit: the root of the declaration tree plus
// the collaborator inputs that accompany it.
type Unit struct {
	Source           string         `cbor:"source,omitempty"`
	Decls            Decls          `cbor:"decls,omitempty"`
	Namemaps         []NamemapEntry `cbor:"namemaps,omitempty"`
	ExtraInit        []string       `cbor:"extra_init,omitempty"`
	UsertypeIncludes []string       `cbor:"usertype_includes,omitempty"`
	// KnownTypes are native types registered by other compilation units.
	KnownTypes []string `cbor:"known_types,omitempty"`
}
