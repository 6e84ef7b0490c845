// Package error defines the accumulated, human-readable error types
// shared by the grammar-processing stages: a grammar file can fail to
// load, fail validation, or the table builder can detect one or more
// LALR conflicts, all via the same reporting shape.
package error

import (
	"fmt"
	"strings"
)

// Kind distinguishes the error categories of spec §7. TableBuilder
// conflicts are defects of the grammar; a FIRST-computation failure is
// either a grammar defect (a self-recursive rule A -> A) or an internal
// invariant violation (left recursion left over after elimination). All
// are reported the same way as everything else: formatted text, no
// partial output.
type Kind string

const (
	KindGrammarSyntax     = Kind("grammar syntax error")
	KindGrammarValidation = Kind("grammar validation error")
	KindLeftRecursionBug  = Kind("left-recursion elimination bug")
	KindFirstCycle        = Kind("cycle in FIRST computation")
	KindASTCycle          = Kind("AST dependency cycle")
	KindLALRConflict      = Kind("LALR conflict")
	KindIO                = Kind("I/O error")
)

// GenError is a single diagnostic: a Kind plus a message, and for
// grammar-file errors the 1-based line on which the offending symbol
// starts (0 when not applicable, e.g. for a conflict report that spans
// multiple states).
type GenError struct {
	Kind    Kind
	Message string
	Line    int
}

func (e *GenError) Error() string {
	var b strings.Builder
	if e.Line > 0 {
		fmt.Fprintf(&b, "line %d: ", e.Line)
	}
	fmt.Fprintf(&b, "%s: %s", e.Kind, e.Message)
	return b.String()
}

// New constructs a GenError with a formatted message and no line
// attribution.
func New(kind Kind, format string, args ...interface{}) *GenError {
	return &GenError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// NewAt is New, attributing the error to a source line.
func NewAt(kind Kind, line int, format string, args ...interface{}) *GenError {
	return &GenError{Kind: kind, Message: fmt.Sprintf(format, args...), Line: line}
}

// List accumulates more than one GenError, as TableBuilder does for
// batched conflict reports.
type List []*GenError

func (l List) Error() string {
	var b strings.Builder
	for i, e := range l {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(e.Error())
	}
	return b.String()
}
