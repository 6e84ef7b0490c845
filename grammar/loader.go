package grammar

import (
	gerr "github.com/clorolang/lalrgen/error"
)

// isIdentByte reports whether b belongs to the sub-scanner's identifier
// alphabet [A-Za-z0-9_] (spec §4.1); every other non-whitespace byte is
// its own one-character symbol.
func isIdentByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z':
		return true
	case b >= 'A' && b <= 'Z':
		return true
	case b >= '0' && b <= '9':
		return true
	case b == '_':
		return true
	}
	return false
}

func isSpace(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

// loader turns the textual grammar description of spec §6 into a
// validated Grammar. It mirrors the three-pass structure of the C++
// grammar_parser.cpp this module's algorithms are grounded on: a
// token-type pass, a non-terminal discovery pass, and a rule-reading
// pass, all driven by the same "next symbol" sub-scanner.
type loader struct {
	text string
	pos  int
	line int

	tokenTypes []TokenType
	nonTerms   []string
	// tokenTypeDeclared records, for a declared outer type name, that at
	// least one TokenType entry has been produced for it — used to
	// enforce Open Question #1: enumerators sharing an outer type name
	// must be declared in a single '{ ... }' block.
	tokenTypeDeclared map[string]bool

	rules [][]Rule
}

// LoadGrammar parses text (the full contents of a grammar file) into a
// Grammar, or returns the first error encountered: a *GenError from the
// reader, or the plain error Grammar.Validate reports.
func LoadGrammar(text string) (*Grammar, error) {
	l := &loader{
		text:              text,
		line:              1,
		tokenTypeDeclared: map[string]bool{},
	}

	if err := l.processTokenTypeList(); err != nil {
		return nil, err
	}

	l.nonTerms = append(l.nonTerms, "")
	if err := l.extractNonTerminals(); err != nil {
		return nil, err
	}
	if len(l.nonTerms) < 2 {
		return nil, gerr.New(gerr.KindGrammarValidation, "grammar declares no non-terminals")
	}

	l.rules = make([][]Rule, len(l.nonTerms))
	l.rules[AugmentedStart] = []Rule{{
		NonTerminal: AugmentedStart,
		Terms:       []Term{NonTerminalTerm{NonTerminalIndex: StartNonTerminal, Var: "start"}},
	}}

	lastNonTerminal := -1
	for {
		rule, ok, err := l.readRule(&lastNonTerminal)
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		l.rules[rule.NonTerminal] = append(l.rules[rule.NonTerminal], rule)
	}

	g := &Grammar{
		TokenTypes:       l.tokenTypes,
		NonTerminalNames: l.nonTerms,
		Rules:            l.rules,
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// cutPrefix consumes and returns the next count bytes, tracking newlines
// for error attribution.
func (l *loader) cutPrefix(count int) string {
	prefix := l.text[l.pos : l.pos+count]
	for i := 0; i < count; i++ {
		if l.text[l.pos+i] == '\n' {
			l.line++
		}
	}
	l.pos += count
	return prefix
}

// nextSymbol returns the next maximal run of identifier bytes, or a
// single punctuation byte, skipping whitespace. It returns "" at end of
// input.
func (l *loader) nextSymbol() string {
	for l.pos < len(l.text) && isSpace(l.text[l.pos]) {
		l.cutPrefix(1)
	}
	if l.pos >= len(l.text) {
		return ""
	}
	if !isIdentByte(l.text[l.pos]) {
		return l.cutPrefix(1)
	}
	length := 0
	for l.pos+length < len(l.text) && isIdentByte(l.text[l.pos+length]) {
		length++
	}
	return l.cutPrefix(length)
}

func (l *loader) tokenIndexByName(name string) (int, bool) {
	for i, t := range l.tokenTypes {
		if t.Name == name {
			return i, true
		}
	}
	return 0, false
}

func (l *loader) enumTokenIndex(typeName, enumName string) (int, bool) {
	for i, t := range l.tokenTypes {
		if t.Name == typeName && t.Enumerator == enumName {
			return i, true
		}
	}
	return 0, false
}

func (l *loader) nonTerminalIndexByName(name string) (int, bool) {
	for i, n := range l.nonTerms {
		if n == name {
			return i, true
		}
	}
	return 0, false
}

// processTokenTypeList reads pass 1: TokenTypeList := (TokenDecl)* '$'.
func (l *loader) processTokenTypeList() error {
	for {
		name := l.nextSymbol()
		if name == "$" {
			return nil
		}
		if name == "" {
			return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "end of input inside the token-type list")
		}
		if !isIdentByte(name[0]) {
			return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "expected a token-type name, found %q", name)
		}
		if l.tokenTypeDeclared[name] {
			return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "token type %q is declared more than once; all enumerators of one type must share a single '{ ... }' block", name)
		}
		l.tokenTypeDeclared[name] = true

		next := l.nextSymbol()
		switch next {
		case ",":
			l.tokenTypes = append(l.tokenTypes, TokenType{Name: name})
		case "{":
			for {
				enumName := l.nextSymbol()
				if enumName == "" {
					return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "end of input inside an enumerator list")
				}
				l.tokenTypes = append(l.tokenTypes, TokenType{Name: name, Enumerator: enumName})
				sep := l.nextSymbol()
				if sep == "}" {
					break
				}
				if sep != "," {
					return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "enumerator list not finished, expected ',' or '}', found %q", sep)
				}
			}
			if l.nextSymbol() != "," {
				return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "token type list not finished: expected ',' after enumerator block")
			}
		default:
			return gerr.NewAt(gerr.KindGrammarSyntax, l.line, "token type list not finished: expected ',' or '{' after %q, found %q", name, next)
		}
	}
}

// extractNonTerminals is pass 2: scan the remaining text once, without
// consuming it, collecting every symbol immediately followed by ':'.
func (l *loader) extractNonTerminals() error {
	restore := l.pos
	restoreLine := l.line
	prev := ""
	for {
		cur := l.nextSymbol()
		if cur == "" {
			break
		}
		if cur == ":" && prev != "" {
			l.nonTerms = append(l.nonTerms, prev)
		}
		prev = cur
	}
	l.pos = restore
	l.line = restoreLine
	return nil
}

// readTerm is Term := NTName '(' var ')' | NTName '*' '(' var ')' |
// TermName '(' var ')' | TermName '.' Enum. It returns ok=false on ';'.
func (l *loader) readTerm() (Term, bool, error) {
	name := l.nextSymbol()
	if name == ";" {
		return nil, false, nil
	}
	if name == "" {
		return nil, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "end of input inside a rule")
	}

	if ntIdx, ok := l.nonTerminalIndexByName(name); ok {
		next := l.nextSymbol()
		indirect := false
		if next == "*" {
			indirect = true
			next = l.nextSymbol()
		}
		if next != "(" {
			return nil, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "non-terminal %q must be followed by a parenthesized variable name", name)
		}
		varName := l.nextSymbol()
		if l.nextSymbol() != ")" {
			return nil, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "variable name %q must be enclosed in parentheses", varName)
		}
		return NonTerminalTerm{NonTerminalIndex: ntIdx, Var: varName, Indirect: indirect}, true, nil
	}

	tokIdx, ok := l.tokenIndexByName(name)
	if !ok {
		return nil, false, gerr.NewAt(gerr.KindGrammarValidation, l.line, "unknown type name %q", name)
	}

	next := l.nextSymbol()
	if next == "." {
		enumName := l.nextSymbol()
		enumIdx, ok := l.enumTokenIndex(name, enumName)
		if !ok {
			return nil, false, gerr.NewAt(gerr.KindGrammarValidation, l.line, "unknown enumerator %q.%q", name, enumName)
		}
		return TerminalTerm{TokenIndex: enumIdx, IsEnum: true}, true, nil
	}
	if next != "(" {
		return nil, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "terminal %q must be followed by a parenthesized variable name", name)
	}
	varName := l.nextSymbol()
	if l.nextSymbol() != ")" {
		return nil, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "variable name %q must be enclosed in parentheses", varName)
	}
	return TerminalTerm{TokenIndex: tokIdx, Var: varName}, true, nil
}

// readRule is RuleGroup := Name ':' Alt (';' | ('|' Alt)*) ';'. lastNT
// tracks the head across '|' continuations, mirroring non_terminal_index_
// in the original grammar parser.
func (l *loader) readRule(lastNT *int) (Rule, bool, error) {
	first := l.nextSymbol()
	if first == "" {
		return Rule{}, false, nil
	}
	if first != "|" {
		nt, ok := l.nonTerminalIndexByName(first)
		if !ok {
			return Rule{}, false, gerr.NewAt(gerr.KindGrammarValidation, l.line, "unknown non-terminal %q", first)
		}
		if l.nextSymbol() != ":" {
			return Rule{}, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "non-terminal %q must be followed by ':'", first)
		}
		*lastNT = nt
	}
	if *lastNT < 0 {
		return Rule{}, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "missing the first alternative")
	}

	rule := Rule{NonTerminal: *lastNT}

	restore, restoreLine := l.pos, l.line
	if l.nextSymbol() == "[" {
		rule.Tag = l.nextSymbol()
		if l.nextSymbol() != "]" {
			return Rule{}, false, gerr.NewAt(gerr.KindGrammarSyntax, l.line, "alternative tag %q must be enclosed in '[' ']'", rule.Tag)
		}
	} else {
		l.pos, l.line = restore, restoreLine
	}

	for {
		term, ok, err := l.readTerm()
		if err != nil {
			return Rule{}, false, err
		}
		if !ok {
			break
		}
		rule.Terms = append(rule.Terms, term)
	}
	return rule, true, nil
}
