// Package emit is the Emitter (spec.md §4.5): it produces two Go source
// artifacts from a validated Grammar and its action/goto Table — typed
// AST declarations and a table-driven (nested-switch) parser — the way
// code_generator.cpp's CodeGenerator produces a header and a source
// file from the same two inputs.
package emit

import (
	"fmt"
	"strings"
)

// codeWriter is an indent-tracking string builder, the Go translation of
// CodeGenerator's new_line/open_brace/close_brace/write helpers: every
// emitted file is built by repeated calls to Line and Block rather than
// ad hoc string concatenation, so nesting depth always matches brace
// depth.
type codeWriter struct {
	b      strings.Builder
	indent int
}

func newCodeWriter() *codeWriter { return &codeWriter{} }

// Line writes one indented, newline-terminated statement.
func (w *codeWriter) Line(format string, args ...interface{}) {
	w.b.WriteString(strings.Repeat("\t", w.indent))
	fmt.Fprintf(&w.b, format, args...)
	w.b.WriteByte('\n')
}

// Blank writes an empty line.
func (w *codeWriter) Blank() { w.b.WriteByte('\n') }

// Block writes "format... {", runs body at one deeper indent level, then
// writes the matching "}", mirroring open_brace/close_brace.
func (w *codeWriter) Block(format string, args ...interface{}) func() {
	w.Line(format+" {", args...)
	w.indent++
	return func() {
		w.indent--
		w.Line("}")
	}
}

func (w *codeWriter) String() string { return w.b.String() }

// exportIdent renders a grammar identifier (already restricted to
// [A-Za-z0-9_]+ by GrammarLoader's scanner) as an exported Go
// identifier by upper-casing its first byte.
func exportIdent(name string) string {
	if name == "" {
		return name
	}
	if name[0] >= 'a' && name[0] <= 'z' {
		return string(name[0]-'a'+'A') + name[1:]
	}
	return name
}
