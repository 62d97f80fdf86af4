package decl

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"github.com/jhump/protoreflect/dynamic"
	"github.com/tliron/commonlog"
)

//go:embed ast.proto
var astProto string

const (
	astProtoFile = "clif/ast.proto"
	astMessage   = "clif.ast.AST"
)

var log = commonlog.GetLogger("clif.decl")

var (
	schemaOnce sync.Once
	schemaDesc *desc.MessageDescriptor
	schemaErr  error
)

// astDescriptor parses the embedded schema once.
func astDescriptor() (*desc.MessageDescriptor, error) {
	schemaOnce.Do(func() {
		parser := protoparse.Parser{
			Accessor: protoparse.FileContentsFromMap(map[string]string{astProtoFile: astProto}),
		}
		fds, err := parser.ParseFiles(astProtoFile)
		if err != nil {
			schemaErr = fmt.Errorf("decl: parsing %s: %w", astProtoFile, err)
			return
		}
		schemaDesc = fds[0].FindMessage(astMessage)
		if schemaDesc == nil {
			schemaErr = fmt.Errorf("decl: message %s not found in %s", astMessage, astProtoFile)
		}
	})
	return schemaDesc, schemaErr
}

// LoadProto decodes a binary protobuf AST.
func LoadProto(data []byte) (*Unit, error) {
	md, err := astDescriptor()
	if err != nil {
		return nil, err
	}
	msg := dynamic.NewMessage(md)
	if err := msg.Unmarshal(data); err != nil {
		return nil, fmt.Errorf("decl: unmarshal AST: %w", err)
	}
	return unitFromMessage(msg)
}

// LoadProtoText decodes a protobuf AST in text format.
func LoadProtoText(data []byte) (*Unit, error) {
	md, err := astDescriptor()
	if err != nil {
		return nil, err
	}
	msg := dynamic.NewMessage(md)
	if err := msg.UnmarshalText(data); err != nil {
		return nil, fmt.Errorf("decl: parse AST text: %w", err)
	}
	return unitFromMessage(msg)
}

// fields reads a dynamic message by field name. Unset fields read as
// zero values.
type fields struct {
	m *dynamic.Message
}

func (f fields) get(name string) interface{} {
	if f.m == nil {
		return nil
	}
	v, err := f.m.TryGetFieldByName(name)
	if err != nil {
		return nil
	}
	return v
}

func (f fields) str(name string) string {
	s, _ := f.get(name).(string)
	return s
}

func (f fields) flag(name string) bool {
	b, _ := f.get(name).(bool)
	return b
}

func (f fields) int(name string) int {
	n, _ := f.get(name).(int32)
	return int(n)
}

func (f fields) msg(name string) *dynamic.Message {
	if f.m == nil || !f.m.HasFieldName(name) {
		return nil
	}
	m, _ := f.get(name).(*dynamic.Message)
	return m
}

func (f fields) msgs(name string) []*dynamic.Message {
	items, _ := f.get(name).([]interface{})
	out := make([]*dynamic.Message, 0, len(items))
	for _, it := range items {
		if m, ok := it.(*dynamic.Message); ok {
			out = append(out, m)
		}
	}
	return out
}

func (f fields) strs(name string) []string {
	items, _ := f.get(name).([]interface{})
	var out []string
	for _, it := range items {
		if s, ok := it.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func unitFromMessage(m *dynamic.Message) (*Unit, error) {
	f := fields{m}
	u := &Unit{
		Source:           f.str("source"),
		ExtraInit:        f.strs("extra_init"),
		UsertypeIncludes: f.strs("usertype_includes"),
		KnownTypes:       f.strs("known_types"),
	}
	for _, nm := range f.msgs("namemaps") {
		nf := fields{nm}
		u.Namemaps = append(u.Namemaps, NamemapEntry{Name: nf.str("name"), FullPath: nf.str("full_path")})
	}
	decls, err := declsFromMessages(f.msgs("decls"), "")
	if err != nil {
		return nil, err
	}
	u.Decls = decls
	log.Debugf("loaded %d top-level declarations from %q", len(u.Decls), u.Source)
	return u, nil
}

func declsFromMessages(ms []*dynamic.Message, scope string) (Decls, error) {
	out := make(Decls, 0, len(ms))
	for i, m := range ms {
		d, err := declFromMessage(m)
		if err != nil {
			return nil, fmt.Errorf("%sdecl %d: %w", scope, i, err)
		}
		out = append(out, d)
	}
	return out, nil
}

func declFromMessage(m *dynamic.Message) (Decl, error) {
	f := fields{m}
	meta := Meta{Namespace: f.str("cpp_namespace"), File: f.str("file")}
	switch {
	case f.msg("func_decl") != nil:
		fn := funcFromMessage(f.msg("func_decl"))
		fn.Meta = meta
		return fn, nil
	case f.msg("class_decl") != nil:
		c, err := classFromMessage(f.msg("class_decl"))
		if err != nil {
			return nil, err
		}
		c.Meta = meta
		return c, nil
	case f.msg("const_decl") != nil:
		cf := fields{f.msg("const_decl")}
		return &Const{Meta: meta, Name: nameOf(cf.msg("name")), Type: typeOf(cf.msg("type"))}, nil
	case f.msg("enum_decl") != nil:
		ef := fields{f.msg("enum_decl")}
		e := &Enum{Meta: meta, Name: nameOf(ef.msg("name")), Scoped: ef.flag("scoped"), Docstring: ef.str("docstring")}
		for _, nm := range ef.msgs("members") {
			e.Members = append(e.Members, nameOf(nm))
		}
		return e, nil
	case f.msg("var_decl") != nil:
		vf := fields{f.msg("var_decl")}
		v := &Var{Meta: meta, Name: nameOf(vf.msg("name")), Type: typeOf(vf.msg("type")), ReadOnly: vf.flag("read_only")}
		if g := vf.msg("getter"); g != nil {
			v.Getter = funcFromMessage(g)
		}
		if s := vf.msg("setter"); s != nil {
			v.Setter = funcFromMessage(s)
		}
		return v, nil
	case f.msg("opaque_decl") != nil:
		of := fields{f.msg("opaque_decl")}
		return &Opaque{Meta: meta, Name: nameOf(of.msg("name"))}, nil
	}
	return nil, fmt.Errorf("declaration has no variant set")
}

func nameOf(m *dynamic.Message) Name {
	f := fields{m}
	return Name{Exposed: f.str("exposed"), Native: f.str("native")}
}

func typeOf(m *dynamic.Message) Type {
	f := fields{m}
	t := Type{
		Lang:                  f.str("lang"),
		Native:                f.str("native"),
		RawPointer:            f.flag("raw_pointer"),
		ToPtrConversion:       f.flag("to_ptr_conversion"),
		ToUniquePtrConversion: f.flag("to_unique_ptr_conversion"),
	}
	if c := f.msg("callable"); c != nil {
		cf := fields{c}
		t.Callable = &Callable{Params: paramsOf(cf.msgs("params")), Returns: paramsOf(cf.msgs("returns"))}
	}
	return t
}

func paramsOf(ms []*dynamic.Message) []Param {
	var out []Param
	for _, m := range ms {
		f := fields{m}
		own, _ := f.get("ownership").(int32)
		out = append(out, Param{
			Name:      nameOf(f.msg("name")),
			Type:      typeOf(f.msg("type")),
			ExactType: f.str("exact_type"),
			Default:   f.str("default_value"),
			Ownership: Ownership(own),
		})
	}
	return out
}

func funcFromMessage(m *dynamic.Message) *Func {
	f := fields{m}
	return &Func{
		Name:             nameOf(f.msg("name")),
		Params:           paramsOf(f.msgs("params")),
		Returns:          paramsOf(f.msgs("returns")),
		NativeVoidReturn: f.flag("native_void_return"),
		NativeParams:     f.int("native_params"),
		Virtual:          f.flag("is_virtual"),
		PureVirtual:      f.flag("is_pure_virtual"),
		Constructor:      f.flag("is_constructor"),
		ClassMethod:      f.flag("is_classmethod"),
		Extend:           f.flag("is_extend"),
		ConstMethod:      f.flag("is_const"),
		Postproc:         f.str("postproc"),
		Docstring:        f.str("docstring"),
	}
}

func basesOf(ms []*dynamic.Message) []Base {
	var out []Base
	for _, m := range ms {
		f := fields{m}
		out = append(out, Base{Exposed: f.str("exposed"), Native: f.str("native")})
	}
	return out
}

func classFromMessage(m *dynamic.Message) (*Class, error) {
	f := fields{m}
	c := &Class{
		Name:                nameOf(f.msg("name")),
		Bases:               basesOf(f.msgs("bases")),
		NativeBases:         basesOf(f.msgs("native_bases")),
		Final:               f.flag("is_final"),
		Abstract:            f.flag("is_abstract"),
		PublicDestructor:    f.flag("public_destructor"),
		SuppressUpcasts:     f.flag("suppress_upcasts"),
		DynamicAttributes:   f.flag("dynamic_attributes"),
		ImplicitDefaultCtor: f.flag("implicit_default_ctor"),
		Docstring:           f.str("docstring"),
	}
	members, err := declsFromMessages(f.msgs("members"), c.Name.Exposed+": ")
	if err != nil {
		return nil, err
	}
	c.Members = members
	return c, nil
}
