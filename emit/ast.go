package emit

import (
	"sort"

	gerr "github.com/clorolang/lalrgen/error"
	"github.com/clorolang/lalrgen/grammar"
)

// astTopoOrder generalizes DependencyGraph::topological_traversal from
// code_generator.cpp to Go: Go's compiler does not need type
// declarations in dependency order the way the original's C++ header
// does (a struct may reference a type declared later in the same
// package), so the traversal here exists only to (a) detect a
// non-indirect structural cycle, which would need an infinitely-sized
// Go struct exactly as it would a C++ one, and (b) choose a readable,
// dependency-first emission order. Self-dependency and any cycle not
// broken by an indirect ('*') edge are AST-cycle errors (spec.md §4.5,
// §7).
func astTopoOrder(g *grammar.Grammar) ([]int, error) {
	n := len(g.NonTerminalNames)
	deps := make([]map[int]bool, n)
	for i := range deps {
		deps[i] = map[int]bool{}
	}
	for nt := 1; nt < n; nt++ {
		for _, rule := range g.Rules[nt] {
			for _, term := range rule.Terms {
				ntTerm, ok := term.(grammar.NonTerminalTerm)
				if !ok || ntTerm.Indirect {
					continue
				}
				if ntTerm.NonTerminalIndex == nt {
					return nil, gerr.New(gerr.KindASTCycle,
						"non-terminal %s depends on itself; mark the edge indirect with '*'", g.NonTerminalNames[nt])
				}
				deps[nt][ntTerm.NonTerminalIndex] = true
			}
		}
	}

	indegree := make([]int, n)
	for nt := 1; nt < n; nt++ {
		indegree[nt] = len(deps[nt])
	}

	var queue []int
	for nt := 1; nt < n; nt++ {
		if indegree[nt] == 0 {
			queue = append(queue, nt)
		}
	}
	sort.Ints(queue)

	var order []int
	for len(queue) > 0 {
		nt := queue[0]
		queue = queue[1:]
		order = append(order, nt)
		var unlocked []int
		for other := 1; other < n; other++ {
			if deps[other][nt] {
				indegree[other]--
				if indegree[other] == 0 {
					unlocked = append(unlocked, other)
				}
			}
		}
		sort.Ints(unlocked)
		queue = append(queue, unlocked...)
	}

	if len(order) != n-1 {
		return nil, gerr.New(gerr.KindASTCycle,
			"non-terminal dependency graph contains a cycle not broken by an indirect edge; mark one edge with '*' in the grammar")
	}
	return order, nil
}

// tokenGroups reproduces get_token_indices from code_generator.cpp: it
// collapses every run of terminals sharing one enclosing enumerator
// type into a single group index, used by the emitted parser's token
// dispatch (supplemented feature 3 of SPEC_FULL.md §4). The synthetic
// end-of-stream column always gets its own trailing group.
func tokenGroups(g *grammar.Grammar) []int {
	groups := make([]int, len(g.TokenTypes)+1)
	enumType := ""
	idx := -1
	for i, t := range g.TokenTypes {
		if enumType == "" || !t.IsEnumerator() || enumType != t.Name {
			if t.IsEnumerator() {
				enumType = t.Name
			} else {
				enumType = ""
			}
			idx++
		}
		groups[i] = idx
	}
	idx++
	groups[len(g.TokenTypes)] = idx
	return groups
}

// enumTags assigns each discriminated-value terminal a 0-based tag,
// counted within its contiguous enumerator run; a payload terminal's
// entry is unused. GrammarLoader's single-block rule for enumerators
// (Open Question decision 1) guarantees a type's enumerators are always
// contiguous, so this matches tokenGroups' notion of a run exactly.
func enumTags(g *grammar.Grammar) []int {
	tags := make([]int, len(g.TokenTypes))
	tag := -1
	prevType := ""
	for i, t := range g.TokenTypes {
		if !t.IsEnumerator() {
			prevType = ""
			continue
		}
		if t.Name != prevType {
			tag = 0
			prevType = t.Name
		} else {
			tag++
		}
		tags[i] = tag
	}
	return tags
}

// goFieldType renders the Go type of a retained field: a pointer for an
// indirect non-terminal edge (the heap indirection that breaks a
// structural cycle, spec.md §9), a bare non-terminal type otherwise, or
// the companion lexer's payload type for a terminal (assumed to live in
// a sibling package imported as "lex", the external collaborator
// spec.md §1 and §6 describe).
func goFieldType(g *grammar.Grammar, term grammar.Term) string {
	switch t := term.(type) {
	case grammar.NonTerminalTerm:
		name := exportIdent(g.NonTerminalNames[t.NonTerminalIndex])
		if t.Indirect {
			return "*" + name
		}
		return name
	case grammar.TerminalTerm:
		return "lex." + exportIdent(g.TokenTypes[t.TokenIndex].Name)
	}
	return "interface{}"
}

// retainedTerms returns the terms of rule that keep a field (every
// non-terminal term, every non-enumerator terminal term).
func retainedTerms(rule grammar.Rule) []grammar.Term {
	var out []grammar.Term
	for _, t := range rule.Terms {
		if tt, ok := t.(grammar.TerminalTerm); ok && tt.IsEnum {
			continue
		}
		out = append(out, t)
	}
	return out
}

// writeFields emits one struct field per retained term of rule, field
// names taken from each term's bound variable name.
func writeFields(w *codeWriter, g *grammar.Grammar, rule grammar.Rule) {
	for _, term := range retainedTerms(rule) {
		var varName string
		switch t := term.(type) {
		case grammar.NonTerminalTerm:
			varName = t.Var
		case grammar.TerminalTerm:
			varName = t.Var
		}
		w.Line("%s %s", exportIdent(varName), goFieldType(g, term))
	}
}

// altTypeName picks the Go type name for one alternative of a
// multi-rule non-terminal: its declared tag if present, otherwise a
// name derived from the non-terminal and the alternative's position
// (spec.md §4.5 names tagged aggregates by "[Tag]"). The original
// scopes a tag inside its owning non-terminal (nt_name::type_name);
// Go has no nested type scope, so every alternative name here is
// qualified with its non-terminal's name to keep the same tag legal
// under two different non-terminals (Grammar.Validate only forbids a
// duplicate tag within one non-terminal).
func altTypeName(ntName string, rule grammar.Rule, idx int) string {
	if rule.Tag != "" {
		return exportIdent(ntName) + exportIdent(rule.Tag)
	}
	return exportIdent(ntName) + "Alt" + itoa(idx)
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var digits []byte
	for i > 0 {
		digits = append([]byte{byte('0' + i%10)}, digits...)
		i /= 10
	}
	if neg {
		return "-" + string(digits)
	}
	return string(digits)
}

// GenerateAST is the AST-declaration half of the Emitter (spec.md
// §4.5): for every non-terminal (skipping the augmented start) it
// emits a struct aggregate (single rule) or an interface with one
// concrete struct per alternative (multiple rules), the tagged-union
// shape spec.md's DESIGN NOTES describe as a closed sum type.
func GenerateAST(g *grammar.Grammar, pkgName string) (string, error) {
	order, err := astTopoOrder(g)
	if err != nil {
		return "", err
	}

	w := newCodeWriter()
	w.Line("// Code generated by lalrgen. DO NOT EDIT.")
	w.Blank()
	w.Line("package %s", pkgName)
	w.Blank()

	w.Line("// Token is the contract a companion lexer (spec.md's external")
	w.Line("// collaborator) must satisfy for the generated parser below to")
	w.Line("// consume its output.")
	tokenClose := w.Block("type Token interface")
	w.Line("// TermIndex identifies a token's terminal dispatch group: the group")
	w.Line("// number tokenGroups assigned a payload terminal's own declared")
	w.Line("// index, or the group number shared by every enumerator of its")
	w.Line("// enclosing type for a discriminated-value one. This is a group")
	w.Line("// index, not the terminal's raw declared index.")
	w.Line("TermIndex() int")
	w.Line("// EnumTag reports which enumerator, in declaration order within")
	w.Line("// its group, a discriminated-value token carries. Unused otherwise.")
	w.Line("EnumTag() int")
	w.Line("// Pos reports the token's source position for parse-error reporting.")
	w.Line("Pos() (line, column int)")
	tokenClose()
	w.Blank()

	if hasEnumTags(g) {
		w.Line("// Enum tag values a companion lexer's Token.EnumTag() must return")
		w.Line("// for each discriminated-value terminal below.")
		w.Line("const (")
		w.indent++
		tags := enumTags(g)
		for i, t := range g.TokenTypes {
			if t.IsEnumerator() {
				w.Line("%s%sTag = %d", exportIdent(t.Name), exportIdent(t.Enumerator), tags[i])
			}
		}
		w.indent--
		w.Line(")")
		w.Blank()
	}

	for _, nt := range order {
		writeNonTerminalType(w, g, nt)
		w.Blank()
	}

	return w.String(), nil
}

func hasEnumTags(g *grammar.Grammar) bool {
	for _, t := range g.TokenTypes {
		if t.IsEnumerator() {
			return true
		}
	}
	return false
}

func writeNonTerminalType(w *codeWriter, g *grammar.Grammar, nt int) {
	name := exportIdent(g.NonTerminalNames[nt])
	rules := g.Rules[nt]

	if len(rules) == 1 {
		fields := retainedTerms(rules[0])
		if nt == grammar.StartNonTerminal {
			w.Line("// %s is the root of the parse tree returned by Parser.Parse.", name)
		}
		if len(fields) == 0 {
			w.Line("type %s struct{}", name)
			return
		}
		structClose := w.Block("type %s struct", name)
		writeFields(w, g, rules[0])
		structClose()
		return
	}

	markerClose := w.Block("type %s interface", name)
	w.Line("is%s()", name)
	markerClose()
	w.Blank()

	for i, rule := range rules {
		altName := altTypeName(g.NonTerminalNames[nt], rule, i)
		fields := retainedTerms(rule)
		if len(fields) == 0 {
			w.Line("type %s struct{}", altName)
		} else {
			structClose := w.Block("type %s struct", altName)
			writeFields(w, g, rule)
			structClose()
		}
		w.Line("func (%s) is%s() {}", altName, name)
		w.Blank()
	}
}
