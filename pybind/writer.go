package pybind

import (
	"fmt"
	"strings"
)

// writer accumulates generated lines at a current indentation depth.
type writer struct {
	step  string
	depth int
	lines []string
}

func newWriter(step string) *writer {
	return &writer{step: step}
}

func (w *writer) indent() { w.depth++ }

func (w *writer) dedent() {
	if w.depth > 0 {
		w.depth--
	}
}

// line appends s at the current depth. An empty s appends a blank line.
func (w *writer) line(s string) {
	if s == "" {
		w.lines = append(w.lines, "")
		return
	}
	w.lines = append(w.lines, strings.Repeat(w.step, w.depth)+s)
}

func (w *writer) linef(format string, args ...any) {
	w.line(fmt.Sprintf(format, args...))
}

// open writes s and indents the lines that follow.
func (w *writer) open(s string) {
	w.line(s)
	w.indent()
}

// close dedents and writes s.
func (w *writer) close(s string) {
	w.dedent()
	w.line(s)
}

func (w *writer) Lines() []string {
	return w.lines
}

// Text joins generated lines into file contents.
func Text(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}
