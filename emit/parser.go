package emit

import (
	"strings"

	"github.com/clorolang/lalrgen/grammar"
)

// ruleMeta is the per-rule bookkeeping reduce() generation needs: its
// global id (spec.md §4.4's numbering, reused here per supplemented
// feature 1), which non-terminal it belongs to, and the rule itself.
type ruleMeta struct {
	id          int
	nonTerminal int
	altName     string // "" for a single-rule non-terminal
	rule        grammar.Rule
}

func collectRules(g *grammar.Grammar) []ruleMeta {
	base := grammar.RuleIDBase(g)
	var metas []ruleMeta
	for nt := 1; nt < len(g.Rules); nt++ {
		rules := g.Rules[nt]
		multi := len(rules) > 1
		for j, rule := range rules {
			m := ruleMeta{id: base[nt] + j, nonTerminal: nt, rule: rule}
			if multi {
				m.altName = altTypeName(g.NonTerminalNames[nt], rule, j)
			}
			metas = append(metas, m)
		}
	}
	return metas
}

// popExprFor renders the expression that reconstructs one retained
// field's value from the node stack: popTerminal/popNonTerminal/
// popIndirect are this module's generic translation of the original's
// move_top_token<T>/move_top<T>/make_unique_from_top<T> templates.
func popExprFor(g *grammar.Grammar, term grammar.Term, offset int) string {
	switch t := term.(type) {
	case grammar.TerminalTerm:
		return "popTerminal[lex." + exportIdent(g.TokenTypes[t.TokenIndex].Name) + "](p, " + itoa(offset) + ")"
	case grammar.NonTerminalTerm:
		typeName := exportIdent(g.NonTerminalNames[t.NonTerminalIndex])
		if t.Indirect {
			return "popIndirect[" + typeName + "](p, " + itoa(offset) + ")"
		}
		return "popNonTerminal[" + typeName + "](p, " + itoa(offset) + ")"
	}
	return "nil"
}

// writeReduceCase emits one "case <id>:" arm of reduce(), constructing
// the target non-terminal's node (or its tagged alternative) from the
// terms retainedTerms says survive, then popping every term (pop_n in
// the original: the stack-pop count and the retained-field count are
// independent, supplemented feature 4).
func writeReduceCase(w *codeWriter, g *grammar.Grammar, m ruleMeta) {
	w.Line("case %d:", m.id)
	w.indent++
	typeName := m.altName
	if typeName == "" {
		typeName = exportIdent(g.NonTerminalNames[m.nonTerminal])
	}

	fields := retainedTerms(m.rule)
	if len(fields) == 0 {
		w.Line("node := %s{}", typeName)
	} else {
		literalClose := w.Block("node := %s", typeName)
		for k, term := range m.rule.Terms {
			if tt, ok := term.(grammar.TerminalTerm); ok && tt.IsEnum {
				continue
			}
			offset := len(m.rule.Terms) - 1 - k
			var varName string
			switch t := term.(type) {
			case grammar.NonTerminalTerm:
				varName = t.Var
			case grammar.TerminalTerm:
				varName = t.Var
			}
			w.Line("%s: %s,", exportIdent(varName), popExprFor(g, term, offset))
		}
		literalClose()
	}
	w.Line("p.popN(%d)", len(m.rule.Terms))
	w.Line("p.nodeStack = append(p.nodeStack, node)")
	w.Line("p.goTo()")
	w.indent--
}

// writeReduce emits Parser.reduce, the Go translation of
// CodeGenerator::define_reduce: a flat switch over global rule id.
func writeReduce(w *codeWriter, g *grammar.Grammar, metas []ruleMeta) {
	fnClose := w.Block("func (p *Parser) reduce(rule int)")
	switchClose := w.Block("switch rule")
	for _, m := range metas {
		writeReduceCase(w, g, m)
	}
	w.Line("default:")
	w.indent++
	w.Line("panic(\"lalrgen: reduce: unknown rule id\")")
	w.indent--
	switchClose()
	fnClose()
}

// gotoCaseTypes returns the concrete Go type(s) a goto on non-terminal
// nt must match: a single-rule non-terminal has exactly one concrete
// type, but a multi-rule (tagged-union) non-terminal's interface has
// one concrete type per alternative, any of which must route to the
// same destination state.
func gotoCaseTypes(g *grammar.Grammar, nt int) []string {
	rules := g.Rules[nt]
	name := exportIdent(g.NonTerminalNames[nt])
	if len(rules) == 1 {
		return []string{name}
	}
	var out []string
	for i, rule := range rules {
		out = append(out, altTypeName(g.NonTerminalNames[nt], rule, i))
	}
	return out
}

func allNoGoto(row []int) bool {
	for _, v := range row {
		if v >= 0 {
			return false
		}
	}
	return true
}

// writeGoTo emits Parser.goTo, the Go translation of
// CodeGenerator::define_go_to: for each state with at least one goto
// entry, switch on the state, then on the reduced node's concrete type
// (spec.md §4.4's two-level dispatch, supplemented feature 5), pushing
// the destination state.
func writeGoTo(w *codeWriter, g *grammar.Grammar, table *grammar.Table) {
	fnClose := w.Block("func (p *Parser) goTo()")
	outerClose := w.Block("switch p.stateStack[len(p.stateStack)-1]")
	for state, row := range table.GoTo {
		if allNoGoto(row) {
			continue
		}
		w.Line("case %d:", state)
		w.indent++
		innerClose := w.Block("switch p.currentNode().(type)")
		for nt, dest := range row {
			if dest < 0 {
				continue
			}
			w.Line("case %s:", strings.Join(gotoCaseTypes(g, nt), ", "))
			w.indent++
			w.Line("p.stateStack = append(p.stateStack, %d)", dest)
			w.indent--
		}
		w.Line("default:")
		w.indent++
		w.Line("panic(\"lalrgen: goTo: unexpected node type\")")
		w.indent--
		innerClose()
		w.indent--
	}
	w.Line("default:")
	w.indent++
	w.Line("panic(\"lalrgen: goTo: unexpected state\")")
	w.indent--
	outerClose()
	fnClose()
}

func writeActionBody(w *codeWriter, a grammar.Action, startType string) {
	switch a.Kind {
	case grammar.ActionShift:
		w.Line("p.shift(%d)", a.State)
		w.Line("continue")
	case grammar.ActionReduce:
		w.Line("p.reduce(%d)", a.RuleID)
		w.Line("continue")
	case grammar.ActionAccept:
		w.Line("return popNonTerminal[%s](p, 0), nil", startType)
	}
}

// tokenRun is a maximal run of adjacent token columns sharing one
// dispatch group (tokenGroups), the "grouping optimization" of spec.md
// §4.3 applied to the emitted parse() dispatch instead of closure
// expansion.
type tokenRun struct {
	group  int
	isEnum bool
	cols   []int
}

func tokenRuns(g *grammar.Grammar, row []grammar.Action, groups []int, eofCol int) []tokenRun {
	var runs []tokenRun
	for col, action := range row {
		if action.Kind == grammar.ActionError {
			continue
		}
		group := groups[col]
		isEnum := col != eofCol && g.TokenTypes[col].IsEnumerator()
		if n := len(runs); n > 0 && runs[n-1].group == group && runs[n-1].isEnum == isEnum {
			runs[n-1].cols = append(runs[n-1].cols, col)
		} else {
			runs = append(runs, tokenRun{group: group, isEnum: isEnum, cols: []int{col}})
		}
	}
	return runs
}

// writeParse emits Parser.Parse, the Go translation of
// CodeGenerator::define_parse: for each state, switch on the current
// token's group (tokenGroups, supplemented feature 3), nesting a switch
// on the enumerator tag when that group is a discriminated-value
// terminal, then apply the action.
func writeParse(w *codeWriter, g *grammar.Grammar, table *grammar.Table, startType string) {
	groups := tokenGroups(g)
	tags := enumTags(g)
	eofCol := g.EOFIndex()

	w.Line("// Parse consumes p's tokens and returns the root %s node, or a", startType)
	w.Line("// parse error annotated with the offending token's source position.")
	fnClose := w.Block("func (p *Parser) Parse() (%s, error)", startType)
	w.Line("var zero %s", startType)
	loopClose := w.Block("for")
	stateClose := w.Block("switch p.stateStack[len(p.stateStack)-1]")

	for state, row := range table.Actions {
		w.Line("case %d:", state)
		w.indent++
		groupClose := w.Block("switch p.currentTokenGroup()")

		for _, run := range tokenRuns(g, row, groups, eofCol) {
			w.Line("case %d:", run.group)
			w.indent++
			if run.isEnum {
				tagClose := w.Block("switch p.currentEnumTag()")
				for _, col := range run.cols {
					w.Line("case %d:", tags[col])
					w.indent++
					w.Line("// %s.%s", g.TokenTypes[col].Name, g.TokenTypes[col].Enumerator)
					writeActionBody(w, row[col], startType)
					w.indent--
				}
				w.Line("default:")
				w.indent++
				w.Line("return zero, p.syntaxError()")
				w.indent--
				tagClose()
			} else {
				writeActionBody(w, row[run.cols[0]], startType)
			}
			w.indent--
		}

		w.Line("default:")
		w.indent++
		w.Line("return zero, p.syntaxError()")
		w.indent--
		groupClose()
		w.indent--
	}
	w.Line("default:")
	w.indent++
	w.Line("return zero, p.syntaxError()")
	w.indent--
	stateClose()
	loopClose()
	fnClose()
}

// GenerateParser is the parser half of the Emitter (spec.md §4.5): a
// stack-of-states/stack-of-nodes Parser type plus shift/reduce/goTo/
// Parse, every dispatch a direct nested switch compiled into the
// source rather than data consulted by a generic interpreter.
func GenerateParser(g *grammar.Grammar, table *grammar.Table, pkgName string) string {
	startType := exportIdent(g.NonTerminalNames[grammar.StartNonTerminal])
	metas := collectRules(g)
	groups := tokenGroups(g)
	eofCol := g.EOFIndex()

	w := newCodeWriter()
	w.Line("// Code generated by lalrgen. DO NOT EDIT.")
	w.Blank()
	w.Line("package %s", pkgName)
	w.Blank()
	w.Line("import \"fmt\"")
	w.Blank()

	w.Line("// Node is the union of values the parser's stacks hold during a")
	w.Line("// parse: any AST type this package declares, or a raw Token.")
	w.Line("type Node = interface{}")
	w.Blank()

	w.Line("// Parser drives a shift-reduce parse over a fixed token stream,")
	w.Line("// using the action/goto table baked into shift/reduce/goTo/Parse")
	w.Line("// below as direct nested switch statements.")
	structClose := w.Block("type Parser struct")
	w.Line("tokens     []Token")
	w.Line("inputPos   int")
	w.Line("stateStack []int")
	w.Line("nodeStack  []Node")
	structClose()
	w.Blank()

	funcClose := w.Block("func NewParser(tokens []Token) *Parser")
	w.Line("return &Parser{tokens: tokens, stateStack: []int{0}}")
	funcClose()
	w.Blank()

	w.Line("// popTerminal asserts the node offset frames from the top of the")
	w.Line("// stack back to the payload terminal type T, the translation of")
	w.Line("// move_top_token<T> from the original code generator.")
	popTermClose := w.Block("func popTerminal[T Token](p *Parser, offset int) T")
	w.Line("return p.nodeStack[len(p.nodeStack)-1-offset].(T)")
	popTermClose()
	w.Blank()

	w.Line("// popNonTerminal asserts a reduced non-terminal node back to its")
	w.Line("// value type T, the translation of move_top<T>.")
	popNTClose := w.Block("func popNonTerminal[T any](p *Parser, offset int) T")
	w.Line("return p.nodeStack[len(p.nodeStack)-1-offset].(T)")
	popNTClose()
	w.Blank()

	w.Line("// popIndirect is popNonTerminal followed by taking its address, the")
	w.Line("// translation of make_unique_from_top<T>: it materializes the heap")
	w.Line("// indirection an indirect grammar edge requires.")
	popIndClose := w.Block("func popIndirect[T any](p *Parser, offset int) *T")
	w.Line("v := popNonTerminal[T](p, offset)")
	w.Line("return &v")
	popIndClose()
	w.Blank()

	popNClose := w.Block("func (p *Parser) popN(n int)")
	w.Line("p.nodeStack = p.nodeStack[:len(p.nodeStack)-n]")
	w.Line("p.stateStack = p.stateStack[:len(p.stateStack)-n]")
	popNClose()
	w.Blank()

	errClose := w.Block("func (p *Parser) syntaxError() error")
	w.Line("if p.inputPos >= len(p.tokens) {")
	w.indent++
	w.Line("return fmt.Errorf(\"parse error: unexpected end of input\")")
	w.indent--
	w.Line("}")
	w.Line("line, column := p.tokens[p.inputPos].Pos()")
	w.Line("return fmt.Errorf(\"parse error at line %%d, column %%d\", line, column)")
	errClose()
	w.Blank()

	w.Line("// currentTokenGroup reports the dispatch group of the token under")
	w.Line("// the input cursor, or the synthetic end-of-stream group once every")
	w.Line("// real token has been consumed.")
	groupFnClose := w.Block("func (p *Parser) currentTokenGroup() int")
	w.Line("if p.inputPos >= len(p.tokens) {")
	w.indent++
	w.Line("return %d", groups[eofCol])
	w.indent--
	w.Line("}")
	w.Line("return p.tokens[p.inputPos].TermIndex()")
	groupFnClose()
	w.Blank()

	w.Line("func (p *Parser) currentEnumTag() int { return p.tokens[p.inputPos].EnumTag() }")
	w.Line("func (p *Parser) currentNode() Node   { return p.nodeStack[len(p.nodeStack)-1] }")
	w.Blank()

	shiftClose := w.Block("func (p *Parser) shift(newState int)")
	w.Line("p.nodeStack = append(p.nodeStack, p.tokens[p.inputPos])")
	w.Line("p.stateStack = append(p.stateStack, newState)")
	w.Line("p.inputPos++")
	shiftClose()
	w.Blank()

	writeReduce(w, g, metas)
	w.Blank()
	writeGoTo(w, g, table)
	w.Blank()
	writeParse(w, g, table, startType)

	return w.String()
}
