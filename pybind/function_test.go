package pybind

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/malkia/clif/decl"
)

func unknownDefault(p decl.Param) decl.Param {
	p.Default = decl.DefaultUnknown
	return p
}

func TestExplode_ShortestFirst(t *testing.T) {
	f := &decl.Func{
		Name:   decl.Name{Exposed: "f", Native: "::f"},
		Params: []decl.Param{intParam("a"), unknownDefault(intParam("b")), unknownDefault(intParam("c"))},
	}
	var lengths, native []int
	err := explode(f, func(f *decl.Func) error {
		lengths = append(lengths, len(f.Params))
		native = append(native, f.NativeParamCount())
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, lengths); diff != "" {
		t.Errorf("overload lengths (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 3, 3}, native); diff != "" {
		t.Errorf("native parameter counts (-want +got):\n%s", diff)
	}
	if len(f.Params) != 3 || f.NativeParams != 0 {
		t.Error("explode must not modify its input")
	}
}

func TestExplode_StopsOnError(t *testing.T) {
	f := &decl.Func{Params: []decl.Param{unknownDefault(intParam("a"))}}
	boom := errors.New("boom")
	calls := 0
	err := explode(f, func(*decl.Func) error {
		calls++
		return boom
	})
	if !errors.Is(err, boom) || calls != 1 {
		t.Errorf("err = %v after %d calls", err, calls)
	}
}

func TestFunction_ScenarioB(t *testing.T) {
	e := newTestEmitter(t, &decl.Unit{})
	f := &decl.Func{
		Name:   decl.Name{Exposed: "f", Native: "::f"},
		Params: []decl.Param{intParam("a"), unknownDefault(intParam("b")), unknownDefault(intParam("c"))},
	}
	if err := e.function("m", f, nil); err != nil {
		t.Fatal(err)
	}
	want := []string{
		`m.def("f", [](int a) {`,
		`  ::f(a);`,
		`}, py::arg("a"));`,
		`m.def("f", [](int a, int b) {`,
		`  ::f(a, b);`,
		`}, py::arg("a"), py::arg("b"));`,
		`m.def("f",`,
		`  static_cast<void (*)(int, int, int)>(&::f), py::arg("a"), py::arg("b"), py::arg("c"));`,
	}
	if diff := cmp.Diff(want, e.w.Lines()); diff != "" {
		t.Errorf("bindings (-want +got):\n%s", diff)
	}
}

func TestFunction_DirectBinding(t *testing.T) {
	owner := &decl.Class{Name: decl.Name{Exposed: "Shape", Native: "::geo::Shape"}}
	tests := []struct {
		name     string
		fn       *decl.Func
		cls      *decl.Class
		expected []string
	}{
		{
			name: "free function with default and doc",
			fn: &decl.Func{
				Name: decl.Name{Exposed: "add#", Native: "::geo::Add"},
				Params: []decl.Param{intParam("x"), func() decl.Param {
					p := intParam("y")
					p.Default = "1"
					return p
				}()},
				Returns:   []decl.Param{intParam("")},
				Docstring: "Adds.",
			},
			expected: []string{
				`m.def("add",`,
				`  static_cast<int (*)(int, int)>(&::geo::Add), py::arg("x"), py::arg("y") = 1, "Adds.");`,
			},
		},
		{
			name: "const method",
			fn: &decl.Func{
				Name:        decl.Name{Exposed: "area", Native: "::geo::Shape::area"},
				ConstMethod: true,
				Returns:     []decl.Param{{Type: decl.Type{Lang: "float", Native: "double"}}},
			},
			cls: owner,
			expected: []string{
				`Shape_class.def("area",`,
				`  static_cast<double (::geo::Shape::*)() const>(&::geo::Shape::area));`,
			},
		},
		{
			name: "static method",
			fn: &decl.Func{
				Name:        decl.Name{Exposed: "unit", Native: "::geo::Shape::Unit"},
				ClassMethod: true,
				Returns:     []decl.Param{{Type: decl.Type{Lang: "float", Native: "double"}}},
			},
			cls: owner,
			expected: []string{
				`Shape_class.def_static("unit",`,
				`  static_cast<double (*)()>(&::geo::Shape::Unit));`,
			},
		},
		{
			name: "operator",
			fn: &decl.Func{
				Name:        decl.Name{Exposed: "__eq__", Native: "::geo::Shape::operator=="},
				ConstMethod: true,
				Params: []decl.Param{{
					Name:      decl.Name{Exposed: "other", Native: "other"},
					Type:      decl.Type{Lang: "Shape", Native: "::geo::Shape"},
					ExactType: "const ::geo::Shape &",
				}},
				Returns: []decl.Param{{Type: decl.Type{Lang: "bool", Native: "bool"}}},
			},
			cls: owner,
			expected: []string{
				`Shape_class.def("__eq__",`,
				`  static_cast<bool (::geo::Shape::*)(const ::geo::Shape &) const>(&::geo::Shape::operator==), py::arg("other"), py::is_operator());`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmitter(t, &decl.Unit{})
			handle := "m"
			if tt.cls != nil {
				handle = handleName(tt.cls)
			}
			if err := e.function(handle, tt.fn, tt.cls); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, e.w.Lines()); diff != "" {
				t.Errorf("binding (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNeedsClosure(t *testing.T) {
	unit := &decl.Unit{Decls: decl.Decls{
		&decl.Opaque{Name: decl.Name{Exposed: "Handle", Native: "::Handle"}},
	}}
	base := &decl.Class{
		Name:        decl.Name{Exposed: "Derived", Native: "::Derived"},
		NativeBases: []decl.Base{{Native: "::Base"}},
		Members: decl.Decls{
			&decl.Func{Name: decl.Name{Exposed: "run", Native: "::Base::run"}, Virtual: true},
		},
	}
	local := &decl.Class{
		Name: decl.Name{Exposed: "Local", Native: "::Local"},
		Members: decl.Decls{
			&decl.Func{Name: decl.Name{Exposed: "run", Native: "::Local::run"}, Virtual: true},
		},
	}
	orphan := &decl.Class{
		Name: decl.Name{Exposed: "Orphan", Native: "::Orphan"},
		Members: decl.Decls{
			&decl.Func{Name: decl.Name{Exposed: "run", Native: "::Base::run"}, Virtual: true},
		},
	}
	ret := func(lang, native, exact string) []decl.Param {
		return []decl.Param{{Type: decl.Type{Lang: lang, Native: native}, ExactType: exact}}
	}
	tests := []struct {
		name     string
		fn       decl.Func
		cls      *decl.Class
		expected bool
	}{
		{"plain", decl.Func{Params: []decl.Param{intParam("a")}}, nil, false},
		{"postproc", decl.Func{Postproc: "->self"}, nil, true},
		{"capsule param", decl.Func{Params: []decl.Param{{Type: decl.Type{Lang: "Handle", Native: "::Handle *"}}}}, nil, true},
		{"capsule return", decl.Func{Returns: ret("Handle", "::Handle *", "")}, nil, true},
		{"status return", decl.Func{Returns: ret("Status", "::absl::Status", "::absl::Status")}, nil, true},
		{"two returns", decl.Func{Returns: append(ret("int", "int", ""), ret("int", "int", "")...)}, nil, true},
		{"void with output", decl.Func{NativeVoidReturn: true, Returns: ret("int", "int", "")}, nil, true},
		{"single return", decl.Func{Returns: ret("int", "int", "int")}, nil, false},
		{"object param", decl.Func{Params: []decl.Param{{Type: decl.Type{Lang: "object", Native: "PyObject *"}}}}, nil, true},
		{"bytes return", decl.Func{Returns: ret("bytes", "::std::string", "::std::string")}, nil, true},
		{"hidden native params", decl.Func{Params: []decl.Param{intParam("a")}, NativeParams: 2}, nil, true},
		{"implicit conversion", decl.Func{Params: []decl.Param{{
			Type:      decl.Type{Lang: "Foo", Native: "::Foo", ToPtrConversion: true, ToUniquePtrConversion: true},
			ExactType: "::Bar *",
		}}}, nil, true},
		{"inherited virtual", decl.Func{Name: decl.Name{Native: "::Derived::get"}}, base, true},
		{"inherited virtual, extend", decl.Func{Name: decl.Name{Native: "::get"}, Extend: true}, base, false},
		{"local virtual", decl.Func{Name: decl.Name{Native: "::Local::get"}}, local, false},
		{"foreign virtual without native bases", decl.Func{Name: decl.Name{Native: "::Orphan::get"}}, orphan, false},
		{"status param", decl.Func{Params: []decl.Param{{
			Name:      decl.Name{Exposed: "s", Native: "s"},
			Type:      decl.Type{Lang: "StatusOr", Native: "::absl::StatusOr<int>"},
			ExactType: "::absl::StatusOr<int>",
		}}}, nil, true},
		{"object return", decl.Func{Returns: ret("object", "PyObject *", "PyObject *")}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmitter(t, unit)
			fn := tt.fn
			if got := e.needsClosure(&fn, tt.cls); got != tt.expected {
				t.Errorf("needsClosure = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestClosure_ScenarioD(t *testing.T) {
	e := newTestEmitter(t, &decl.Unit{})
	f := &decl.Func{
		Name:             decl.Name{Exposed: "pack", Native: "::io::Pack"},
		NativeVoidReturn: true,
		Params:           []decl.Param{intParam("n")},
		Returns: []decl.Param{
			{Name: decl.Name{Exposed: "data"}, Type: decl.Type{Lang: "bytes", Native: "::std::string"}},
			{Name: decl.Name{Exposed: "count"}, Type: decl.Type{Lang: "int", Native: "int"}},
		},
	}
	if err := e.function("m", f, nil); err != nil {
		t.Fatal(err)
	}
	want := []string{
		`m.def("pack", [](int n) {`,
		`  ::std::string ret0{};`,
		`  int ret1{};`,
		`  ::io::Pack(n, &ret0, &ret1);`,
		`  return std::make_tuple(py::bytes(ret0), ret1);`,
		`}, py::arg("n"));`,
	}
	if diff := cmp.Diff(want, e.w.Lines()); diff != "" {
		t.Errorf("closure (-want +got):\n%s", diff)
	}
}

func TestClosure_Marshaling(t *testing.T) {
	unit := &decl.Unit{Decls: decl.Decls{
		&decl.Opaque{Name: decl.Name{Exposed: "Handle", Native: "::io::Handle"}},
	}}
	cls := &decl.Class{Name: decl.Name{Exposed: "File", Native: "::io::File"}}
	tests := []struct {
		name     string
		fn       *decl.Func
		cls      *decl.Class
		expected []string
	}{
		{
			name: "owned and callback params with status result",
			fn: &decl.Func{
				Name: decl.Name{Exposed: "run", Native: "::io::Run"},
				Params: []decl.Param{
					{
						Name:      decl.Name{Exposed: "job", Native: "job"},
						Type:      decl.Type{Lang: "Job", Native: "::std::unique_ptr<::io::Job>"},
						ExactType: "::std::unique_ptr<::io::Job>",
					},
					{
						Name: decl.Name{Exposed: "done", Native: "done"},
						Type: decl.Type{Lang: "Callable", Callable: &decl.Callable{
							Params: []decl.Param{intParam("code")},
						}},
					},
				},
				Returns: []decl.Param{{Type: decl.Type{Lang: "Status", Native: "::absl::Status"}, ExactType: "::absl::Status"}},
			},
			expected: []string{
				`m.def("run", [](::std::unique_ptr<::io::Job> job, ::std::function<void(int)> done) {`,
				`  pybind11::google::PyCLIFStatus<::absl::Status> ret0{};`,
				`  ret0 = ::io::Run(std::move(job), done);`,
				`  return ret0;`,
				`}, py::arg("job"), py::arg("done"));`,
			},
		},
		{
			name: "capsule param and string view result",
			fn: &decl.Func{
				Name: decl.Name{Exposed: "peek", Native: "::io::Peek"},
				Params: []decl.Param{{
					Name: decl.Name{Exposed: "h", Native: "h"},
					Type: decl.Type{Lang: "Handle", Native: "::io::Handle *", RawPointer: true},
				}},
				Returns: []decl.Param{{Type: decl.Type{Lang: "bytes", Native: "::absl::string_view"}}},
			},
			expected: []string{
				`m.def("peek", [](clif::CapsuleWrapper<::io::Handle *> h) {`,
				`  ::absl::string_view ret0{};`,
				`  ret0 = ::io::Peek(h.ptr);`,
				`  return py::bytes(ret0.data(), ret0.size());`,
				`}, py::arg("h"));`,
			},
		},
		{
			name: "object params and capsule result",
			fn: &decl.Func{
				Name: decl.Name{Exposed: "wrap", Native: "::io::Wrap"},
				Params: []decl.Param{
					{Name: decl.Name{Exposed: "raw", Native: "raw"}, Type: decl.Type{Lang: "object"}, ExactType: "::PyObject *"},
					{Name: decl.Name{Exposed: "n", Native: "n"}, Type: decl.Type{Lang: "object"}, ExactType: "int"},
				},
				Returns: []decl.Param{{Type: decl.Type{Lang: "Handle", Native: "::io::Handle *"}}},
			},
			expected: []string{
				`m.def("wrap", [](py::object raw, py::object n) {`,
				`  ::io::Handle * ret0{};`,
				`  ret0 = ::io::Wrap(raw.ptr(), n.cast<int>());`,
				`  return clif::CapsuleWrapper<::io::Handle *>(ret0);`,
				`}, py::arg("raw"), py::arg("n"));`,
			},
		},
		{
			name: "object params without exact types",
			fn: &decl.Func{
				Name: decl.Name{Exposed: "use", Native: "::io::Use"},
				Params: []decl.Param{
					{Name: decl.Name{Exposed: "o", Native: "o"}, Type: decl.Type{Lang: "object", Native: "::io::Config"}},
					{Name: decl.Name{Exposed: "q", Native: "q"}, Type: decl.Type{Lang: "object"}, ExactType: "type-parameter-0-0"},
				},
			},
			expected: []string{
				`m.def("use", [](py::object o, py::object q) {`,
				`  ::io::Use(o.cast<::io::Config>(), q.cast<py::object>());`,
				`}, py::arg("o"), py::arg("q"));`,
			},
		},
		{
			name: "fluent method with reference param",
			fn: &decl.Func{
				Name:     decl.Name{Exposed: "rename", Native: "::io::File::Rename"},
				Postproc: "->self",
				Params: []decl.Param{{
					Name:      decl.Name{Exposed: "name", Native: "name"},
					Type:      decl.Type{Lang: "str", Native: "::std::string"},
					ExactType: "const ::std::string &",
				}},
			},
			cls: cls,
			expected: []string{
				`File_class.def("rename", [](::io::File &self, const ::std::string & name) {`,
				`  self.Rename(name);`,
				`  return self;`,
				`}, py::arg("name"));`,
			},
		},
		{
			name: "module hook on object result",
			fn: &decl.Func{
				Name:     decl.Name{Exposed: "stat", Native: "::io::File::Stat"},
				Postproc: "io.post.wrap",
				Returns:  []decl.Param{{Type: decl.Type{Lang: "object"}, ExactType: "::PyObject *"}},
			},
			cls: cls,
			expected: []string{
				`File_class.def("stat", [](::io::File &self) {`,
				`  py::object ret0{};`,
				`  ret0 = clif::ConvertPyObject(self.Stat());`,
				`  auto mod = py::module_::import("io.post");`,
				`  py::object result_ = mod.attr("wrap")(ret0);`,
				`  return result_;`,
				`});`,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmitter(t, unit)
			handle := "m"
			if tt.cls != nil {
				handle = handleName(tt.cls)
			}
			if err := e.function(handle, tt.fn, tt.cls); err != nil {
				t.Fatal(err)
			}
			if diff := cmp.Diff(tt.expected, e.w.Lines()); diff != "" {
				t.Errorf("closure (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClosure_InvalidPostproc(t *testing.T) {
	tests := []struct {
		name     string
		postproc string
	}{
		{"no module", "wrap"},
		{"trailing dot", "mod."},
		{"self outside method", "->self"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEmitter(t, &decl.Unit{})
			f := &decl.Func{Name: decl.Name{Exposed: "f", Native: "::f"}, Postproc: tt.postproc}
			err := e.function("m", f, nil)
			if !errors.Is(err, ErrInvalidPostproc) {
				t.Fatalf("err = %v, want ErrInvalidPostproc", err)
			}
			var de *decl.DeclError
			if !errors.As(err, &de) || de.Decl != "::f" {
				t.Errorf("error should name the function: %v", err)
			}
		})
	}
}

func TestFunction_OverloadsCarryDocstring(t *testing.T) {
	e := newTestEmitter(t, &decl.Unit{})
	f := &decl.Func{
		Name:      decl.Name{Exposed: "g", Native: "::g"},
		Params:    []decl.Param{unknownDefault(intParam("a"))},
		Docstring: "Doc.",
	}
	if err := e.function("m", f, nil); err != nil {
		t.Fatal(err)
	}
	lines := e.w.Lines()
	if n := count(lines, `"Doc."`); n != 2 {
		t.Errorf("docstring appears %d times, want 2:\n%s", n, strings.Join(lines, "\n"))
	}
	if !strings.HasPrefix(lines[0], `m.def("g", []() {`) {
		t.Errorf("first overload should take no arguments: %q", lines[0])
	}
}
