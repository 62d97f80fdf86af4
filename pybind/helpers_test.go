package pybind

import (
	"strings"
	"testing"

	"github.com/malkia/clif/decl"
	"github.com/malkia/clif/registry"
)

// newTestEmitter returns an emitter over the registry of u with no
// trampolines.
func newTestEmitter(t *testing.T, u *decl.Unit) *emitter {
	t.Helper()
	reg, err := registry.Build(u)
	if err != nil {
		t.Fatalf("registry.Build: %v", err)
	}
	return &emitter{w: newWriter(DefaultIndent), reg: reg, trampolines: map[string]string{}}
}

// trimmedLines splits s into lines with surrounding blanks removed,
// dropping empty ones.
func trimmedLines(s string) []string {
	var out []string
	for _, l := range strings.Split(s, "\n") {
		if l = strings.TrimSpace(l); l != "" {
			out = append(out, l)
		}
	}
	return out
}

// assertInOrder checks that every want line occurs in got, after the
// previous match, ignoring indentation.
func assertInOrder(t *testing.T, got, want []string) {
	t.Helper()
	pos := 0
	for _, w := range want {
		found := false
		for pos < len(got) {
			l := strings.TrimSpace(got[pos])
			pos++
			if l == w {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("line not found in order: %q\noutput:\n%s", w, strings.Join(got, "\n"))
			return
		}
	}
}

func count(lines []string, sub string) int {
	n := 0
	for _, l := range lines {
		if strings.Contains(l, sub) {
			n++
		}
	}
	return n
}

func intParam(name string) decl.Param {
	return decl.Param{
		Name:      decl.Name{Exposed: name, Native: name},
		Type:      decl.Type{Lang: "int", Native: "int"},
		ExactType: "int",
	}
}
