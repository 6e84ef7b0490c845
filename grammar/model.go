// Package grammar holds the in-memory grammar representation and the
// stages that derive a parsing table from it: loading, FIRST-set
// computation, canonical LR(1) item-set construction with LALR merging,
// and action/goto table generation.
package grammar

import "fmt"

// TokenType is a terminal category. A payload terminal carries data from
// the lexer (Enumerator is empty); a discriminated-value terminal is
// matched on the enumerator value of a shared enclosing type (Enumerator
// is non-empty).
type TokenType struct {
	Name       string
	Enumerator string
}

// IsEnumerator reports whether t is a discriminated-value terminal.
func (t TokenType) IsEnumerator() bool {
	return t.Enumerator != ""
}

// String renders the terminal the way conflict reports and item-set dumps
// name it: "Name" for a payload terminal, "Name.Enumerator" otherwise.
func (t TokenType) String() string {
	if t.IsEnumerator() {
		return fmt.Sprintf("%v.%v", t.Name, t.Enumerator)
	}
	return t.Name
}

// TermIndex is the flattened symbol identity used by FIRST sets, items,
// and tables: a dense index plus a terminal/non-terminal discriminant.
type TermIndex struct {
	Index      int
	IsTerminal bool
}

func terminalIndex(i int) TermIndex    { return TermIndex{Index: i, IsTerminal: true} }
func nonTerminalIndex(i int) TermIndex { return TermIndex{Index: i, IsTerminal: false} }

// Term is one element of a rule's body: either a terminal occurrence or a
// non-terminal occurrence.
type Term interface {
	termIndex() TermIndex
	variable() string
}

// TerminalTerm references a TokenType by index. Var is empty when the
// referenced TokenType is an enumerator (there is nothing to bind: the
// match result is the alternative tag itself). IsEnum mirrors
// TokenTypes[TokenIndex].IsEnumerator() at the time the term was read, so
// later stages don't need the owning Grammar to classify a term.
type TerminalTerm struct {
	TokenIndex int
	Var        string
	IsEnum     bool
}

func (t TerminalTerm) termIndex() TermIndex { return terminalIndex(t.TokenIndex) }
func (t TerminalTerm) variable() string     { return t.Var }

// NonTerminalTerm references a non-terminal by index. Indirect marks an
// edge the emitted AST must break with heap indirection to avoid a
// structural cycle.
type NonTerminalTerm struct {
	NonTerminalIndex int
	Var              string
	Indirect         bool
}

func (t NonTerminalTerm) termIndex() TermIndex { return nonTerminalIndex(t.NonTerminalIndex) }
func (t NonTerminalTerm) variable() string     { return t.Var }

// Rule belongs to one non-terminal. Tag is the optional alternative name
// from "[ Tag ]". When the owning non-terminal has more than one rule,
// the Emitter names every alternative's struct after its tag (or a
// positional default), whatever its retained-term count; a one-field
// alternative is not inlined into the union. A single-rule
// non-terminal's tag is unused.
type Rule struct {
	NonTerminal int
	Tag         string
	Terms       []Term
}

// RetainedTermCount returns the number of terms that keep a field in the
// emitted AST: every non-terminal term, and every terminal term that is
// not an enumerator match.
func (r Rule) RetainedTermCount() int {
	n := 0
	for _, t := range r.Terms {
		if tt, ok := t.(TerminalTerm); ok {
			if tt.IsEnum {
				continue
			}
		}
		n++
	}
	return n
}

// Grammar is the immutable, validated in-memory representation produced
// once by GrammarLoader. TokenTypes and NonTerminalNames are in
// declaration order; Rules is grouped by non-terminal index, non-terminal
// 0 being the synthetic augmented start symbol S' whose single rule is
// S' -> S.
type Grammar struct {
	TokenTypes       []TokenType
	NonTerminalNames []string
	Rules            [][]Rule
}

// EOFIndex is the synthetic end-of-stream terminal's TermIndex: it sits
// one past the last declared token type.
func (g *Grammar) EOFIndex() int {
	return len(g.TokenTypes)
}

// RuleAt returns the rule-within-non-terminal addressed by (nt, idx).
func (g *Grammar) RuleAt(nt, idx int) *Rule {
	return &g.Rules[nt][idx]
}

// StartNonTerminal is the non-terminal augmented by S' -> S (index 1 in a
// valid Grammar).
const StartNonTerminal = 1

// AugmentedStart is the index of the synthetic S' non-terminal.
const AugmentedStart = 0

// Validate checks the invariants listed in spec §3 / §8.1: every term
// index is in range, every non-terminal has at least one rule, rule 0 is
// S' -> S, every non-terminal is reachable from the start symbol, and no
// two alternatives of a non-terminal share an alternative tag name.
func (g *Grammar) Validate() error {
	numNT := len(g.NonTerminalNames)
	numTok := len(g.TokenTypes)

	if numNT == 0 || len(g.Rules) != numNT {
		return fmt.Errorf("grammar validation: non-terminal table and rule table sizes disagree")
	}
	for nt := 0; nt < numNT; nt++ {
		if len(g.Rules[nt]) == 0 {
			return fmt.Errorf("grammar validation: non-terminal #%d (%s) has no rules", nt, g.NonTerminalNames[nt])
		}
	}

	aug := g.Rules[AugmentedStart]
	if len(aug) != 1 {
		return fmt.Errorf("grammar validation: augmented start symbol must have exactly one rule")
	}
	if len(aug[0].Terms) != 1 {
		return fmt.Errorf("grammar validation: augmented rule S' -> S must have exactly one term")
	}
	if nt, ok := aug[0].Terms[0].(NonTerminalTerm); !ok || nt.NonTerminalIndex != StartNonTerminal {
		return fmt.Errorf("grammar validation: augmented rule S' -> S must reference non-terminal #%d", StartNonTerminal)
	}

	for nt, rules := range g.Rules {
		tags := map[string]bool{}
		for ri, rule := range rules {
			if rule.Tag != "" {
				if tags[rule.Tag] {
					return fmt.Errorf("grammar validation: non-terminal %s has two alternatives tagged %q", g.NonTerminalNames[nt], rule.Tag)
				}
				tags[rule.Tag] = true
			}
			for _, term := range rules[ri].Terms {
				idx := term.termIndex()
				if idx.IsTerminal {
					if idx.Index < 0 || idx.Index >= numTok {
						return fmt.Errorf("grammar validation: terminal index %d out of range in rule %d of %s", idx.Index, ri, g.NonTerminalNames[nt])
					}
				} else {
					if idx.Index < 0 || idx.Index >= numNT {
						return fmt.Errorf("grammar validation: non-terminal index %d out of range in rule %d of %s", idx.Index, ri, g.NonTerminalNames[nt])
					}
				}
			}
		}
	}

	reachable := make([]bool, numNT)
	var mark func(nt int)
	mark = func(nt int) {
		if reachable[nt] {
			return
		}
		reachable[nt] = true
		for _, rule := range g.Rules[nt] {
			for _, term := range rule.Terms {
				if idx := term.termIndex(); !idx.IsTerminal {
					mark(idx.Index)
				}
			}
		}
	}
	mark(StartNonTerminal)
	for nt := 1; nt < numNT; nt++ {
		if !reachable[nt] {
			return fmt.Errorf("grammar validation: non-terminal %s is not reachable from the start symbol", g.NonTerminalNames[nt])
		}
	}

	return nil
}
