package grammar

import (
	"fmt"
	"sort"
	"strings"
)

// termName renders a terminal column the way conflict reports and
// item-set dumps do (grounded in table_generator.cpp's term_to_string):
// a token type prints its TokenType.String(), and the synthetic
// end-of-stream column (one past the last token type) prints as "$".
// termIndexName extends it to non-terminals, which print their declared
// name.
func termName(g *Grammar, tokenIndex int) string {
	if tokenIndex == g.EOFIndex() {
		return "$"
	}
	return g.TokenTypes[tokenIndex].String()
}

func termIndexName(g *Grammar, idx TermIndex) string {
	if idx.IsTerminal {
		return termName(g, idx.Index)
	}
	return g.NonTerminalNames[idx.Index]
}

// formatAction renders an Action as action_to_string does: "s<state>",
// "r<ruleid>", or "accept".
func formatAction(a Action) string {
	switch a.Kind {
	case ActionShift:
		return fmt.Sprintf("s%d", a.State)
	case ActionReduce:
		return fmt.Sprintf("r%d", a.RuleID)
	case ActionAccept:
		return "accept"
	default:
		return "e"
	}
}

// formatItemSet pretty-prints every item of s as "A -> a . b, la1/la2"
// (grounded in table_generator.cpp's item_set_to_string): one line per
// LR(0) core, dot rendered in place, lookaheads slash-joined in a
// deterministic order.
func formatItemSet(g *Grammar, s *state) string {
	var b strings.Builder
	for _, core := range s.cores {
		rule := g.RuleAt(core.nonTerminal, core.rule)
		fmt.Fprintf(&b, "  %s ->", g.NonTerminalNames[core.nonTerminal])
		for i, term := range rule.Terms {
			if i == core.dot {
				b.WriteString(" .")
			}
			b.WriteByte(' ')
			b.WriteString(termIndexName(g, term.termIndex()))
		}
		if core.dot == len(rule.Terms) {
			b.WriteString(" .")
		}
		b.WriteString(", ")

		var las []int
		for _, v := range s.lookahead[core.id()].Values() {
			las = append(las, v.(int))
		}
		sort.Ints(las)
		for i, tok := range las {
			if i != 0 {
				b.WriteByte('/')
			}
			b.WriteString(termName(g, tok))
		}
		b.WriteByte('\n')
	}
	return b.String()
}
