package grammar

import (
	gerr "github.com/clorolang/lalrgen/error"
)

// ActionKind distinguishes the four action-table cell shapes of spec §3.
type ActionKind int

const (
	ActionError ActionKind = iota
	ActionShift
	ActionReduce
	ActionAccept
)

// Action is one action-table cell. State is meaningful only for
// ActionShift; RuleID only for ActionReduce.
type Action struct {
	Kind   ActionKind
	State  int
	RuleID int
}

// noGoto is the goto-table sentinel of spec §3 ("no-goto").
const noGoto = -1

// Table is the row-per-state action/goto table produced by TableBuilder
// (spec §4.4).
type Table struct {
	Actions [][]Action // [state][token index, trailing eof column]
	GoTo    [][]int    // [state][non-terminal index]
}

// ruleIDBase maps non-terminal index to the global id of its first rule,
// computed the way table_generator.cpp's rule_total_ exclusive scan
// does: a running sum over rule-count-per-non-terminal, including the
// augmented non-terminal's single rule in the scan so rule ids for
// non-terminal 1 start at 1 (id 0 is consumed by the augmented rule,
// which is never emitted as a reduce since it always maps to accept).
// RuleIDBase exposes ruleIDBase to the Emitter, which needs the same
// per-non-terminal rule-id numbering to label reduce actions in
// generated source (spec.md §4.5, supplemented feature 1).
func RuleIDBase(g *Grammar) []int { return ruleIDBase(g) }

func ruleIDBase(g *Grammar) []int {
	base := make([]int, len(g.Rules))
	total := 0
	for nt, rules := range g.Rules {
		base[nt] = total
		total += len(rules)
	}
	return base
}

// BuildTable is TableBuilder (spec §4.4): it fills shift/goto entries
// from sets' transitions and reduce/accept entries from each state's
// reduce items, accumulating every conflict, and fails with the
// accumulated report if any conflict was recorded.
func BuildTable(g *Grammar, sets *ItemSets) (*Table, error) {
	numTok := len(g.TokenTypes) + 1 // + synthetic end-of-stream column
	numNT := len(g.NonTerminalNames)
	base := ruleIDBase(g)

	t := &Table{
		Actions: make([][]Action, len(sets.States)),
		GoTo:    make([][]int, len(sets.States)),
	}
	for i := range sets.States {
		t.Actions[i] = make([]Action, numTok)
		row := make([]int, numNT)
		for j := range row {
			row[j] = noGoto
		}
		t.GoTo[i] = row
	}

	var conflicts gerr.List

	// Reduce / accept filling runs first so a later shift in the same
	// cell is recorded as the conflicting write, matching the original
	// generator's fill_reduce-then-fill_shift ordering.
	for si, s := range sets.States {
		for _, core := range s.cores {
			rule := g.RuleAt(core.nonTerminal, core.rule)
			if core.dot != len(rule.Terms) {
				continue
			}
			var newAction Action
			if core.nonTerminal == AugmentedStart {
				newAction = Action{Kind: ActionAccept}
			} else {
				newAction = Action{Kind: ActionReduce, RuleID: core.rule + base[core.nonTerminal]}
			}
			for _, laVal := range s.lookahead[core.id()].Values() {
				col := laVal.(int)
				existing := t.Actions[si][col]
				if existing.Kind != ActionError {
					conflicts = append(conflicts, gerr.New(gerr.KindLALRConflict,
						"reduce-reduce conflict in state %d on %s:\n%sconflicting actions %s, %s",
						si, termName(g, col), formatItemSet(g, s), formatAction(existing), formatAction(newAction)))
				}
				t.Actions[si][col] = newAction
			}
		}
	}

	for si, s := range sets.States {
		for x, dest := range s.transitions {
			if x.IsTerminal {
				col := x.Index
				newAction := Action{Kind: ActionShift, State: dest}
				existing := t.Actions[si][col]
				if existing == newAction {
					continue
				}
				if existing.Kind != ActionError {
					conflicts = append(conflicts, gerr.New(gerr.KindLALRConflict,
						"shift-reduce conflict in state %d on %s:\n%sconflicting actions %s, %s",
						si, termName(g, col), formatItemSet(g, s), formatAction(existing), formatAction(newAction)))
				}
				t.Actions[si][col] = newAction
			} else {
				t.GoTo[si][x.Index] = dest
			}
		}
	}

	if len(conflicts) > 0 {
		return nil, conflicts
	}
	return t, nil
}
