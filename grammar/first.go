package grammar

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/emirpasic/gods/utils"

	gerr "github.com/clorolang/lalrgen/error"
)

// epsilon is the sentinel slot of a workingRules entry's FIRST set that
// stands for the empty string. It is chosen out of band of any real
// TermIndex.Index value (terminal indices and non-terminal indices are
// both non-negative, so -1 never collides).
const epsilon = -1

// workingTerm is a scratch-copy TermIndex, flattened from Term the way
// SetGenerator's constructor flattens Terminal/NonTerminal into
// TermIndex before eliminating left recursion.
type workingTerm struct {
	index      int
	isTerminal bool
}

// workingRules is FirstSetComputer's scratch rules vector. It starts as
// a copy of the Grammar's rule bodies, grows as left-recursion
// elimination introduces helper non-terminals, and is discarded once
// FIRST sets are computed; the original Grammar is never mutated.
type workingRules struct {
	bodies [][][]workingTerm
}

func newWorkingRules(g *Grammar) *workingRules {
	w := &workingRules{bodies: make([][][]workingTerm, len(g.NonTerminalNames))}
	for nt, rules := range g.Rules {
		for _, rule := range rules {
			body := make([]workingTerm, 0, len(rule.Terms))
			for _, term := range rule.Terms {
				idx := term.termIndex()
				body = append(body, workingTerm{index: idx.Index, isTerminal: idx.IsTerminal})
			}
			w.bodies[nt] = append(w.bodies[nt], body)
		}
	}
	return w
}

func (w *workingRules) addNonTerminal() int {
	w.bodies = append(w.bodies, nil)
	return len(w.bodies) - 1
}

// eliminateDirectLeftRecursion rewrites non-terminal index's own rules
// per spec §4.2 step 1: A -> A b1 | ... | A bm | g1 | ... | gn becomes
// A -> g1 A' | ... | gn A', A' -> b1 A' | ... | bm A' | epsilon. It is a
// no-op if index has no directly left-recursive rule.
func (w *workingRules) eliminateDirectLeftRecursion(index int) error {
	rules := w.bodies[index]
	hasDirect := false
	for _, body := range rules {
		if len(body) > 0 && body[0].index == index && !body[0].isTerminal {
			hasDirect = true
			break
		}
	}
	if !hasDirect {
		return nil
	}

	helper := w.addNonTerminal()
	var kept [][]workingTerm
	for _, body := range rules {
		if len(body) > 0 && body[0].index == index && !body[0].isTerminal {
			if len(body) == 1 {
				return gerr.New(gerr.KindLeftRecursionBug, "non-terminal #%d has a self-recursive rule A -> A", index)
			}
			helperBody := append([]workingTerm{}, body[1:]...)
			helperBody = append(helperBody, workingTerm{index: helper, isTerminal: false})
			w.bodies[helper] = append(w.bodies[helper], helperBody)
		} else {
			kept = append(kept, append(append([]workingTerm{}, body...), workingTerm{index: helper, isTerminal: false}))
		}
	}
	w.bodies[index] = kept
	w.bodies[helper] = append(w.bodies[helper], nil) // A' -> epsilon
	return nil
}

// containsNonTerminal reports whether body references non-terminal j at
// any position.
func containsNonTerminal(body []workingTerm, j int) bool {
	for _, t := range body {
		if !t.isTerminal && t.index == j {
			return true
		}
	}
	return false
}

// substituteNonTerminal replaces every occurrence of non-terminal j in
// body with each of j's alternatives in turn, producing the cross
// product of substitutions (spec §4.2 step 2).
func substituteNonTerminal(body []workingTerm, j int, alternatives [][]workingTerm) [][]workingTerm {
	results := [][]workingTerm{{}}
	for _, t := range body {
		if t.isTerminal || t.index != j {
			for i := range results {
				results[i] = append(results[i], t)
			}
			continue
		}
		next := make([][]workingTerm, 0, len(results)*len(alternatives))
		for _, prefix := range results {
			for _, alt := range alternatives {
				combined := append(append([]workingTerm{}, prefix...), alt...)
				next = append(next, combined)
			}
		}
		results = next
	}
	return results
}

// eliminateAllLeftRecursion runs spec §4.2 steps 1-2 over every
// non-terminal in index order, including the synthetic non-terminal 0
// (its single rule S' -> S is never left-recursive, so this is a no-op
// for it, matching the original's uniform treatment of index 0).
func (w *workingRules) eliminateAllLeftRecursion() error {
	if err := w.eliminateDirectLeftRecursion(0); err != nil {
		return err
	}
	// w.bodies grows as helper non-terminals are appended; the loop bound
	// is re-read on every iteration, so helpers introduced for earlier
	// indices are themselves processed (substituted into and checked for
	// direct left recursion) once the loop reaches them.
	for i := 1; i < len(w.bodies); i++ {
		for j := 0; j < i; j++ {
			var rewritten [][]workingTerm
			for _, body := range w.bodies[i] {
				if containsNonTerminal(body, j) {
					rewritten = append(rewritten, substituteNonTerminal(body, j, w.bodies[j])...)
				} else {
					rewritten = append(rewritten, body)
				}
			}
			w.bodies[i] = rewritten
		}
		if err := w.eliminateDirectLeftRecursion(i); err != nil {
			return err
		}
	}
	return nil
}

// FirstSet maps each original non-terminal index to its FIRST set:
// treeset.Set of terminal TermIndex.Index values (and epsilon).
type FirstSet struct {
	sets []*treeset.Set
}

// Contains reports whether terminal tokenIndex is in FIRST(nt).
func (f *FirstSet) Contains(nt, tokenIndex int) bool {
	return f.sets[nt].Contains(tokenIndex)
}

// ContainsEpsilon reports whether nt is nullable.
func (f *FirstSet) ContainsEpsilon(nt int) bool {
	return f.sets[nt].Contains(epsilon)
}

// Terminals returns FIRST(nt) as a sorted slice of terminal indices,
// excluding epsilon.
func (f *FirstSet) Terminals(nt int) []int {
	var out []int
	for _, v := range f.sets[nt].Values() {
		if i := v.(int); i != epsilon {
			out = append(out, i)
		}
	}
	return out
}

func intComparator(a, b interface{}) int { return utils.IntComparator(a, b) }

// ComputeFirstSets is FirstSetComputer (spec §4.2): it eliminates left
// recursion on a scratch copy of g's rules, then computes FIRST
// recursively with a traversal stack to detect residual left recursion
// and any deeper cycle, and finally truncates the result to g's original
// non-terminal count.
func ComputeFirstSets(g *Grammar) (*FirstSet, error) {
	w := newWorkingRules(g)
	originalCount := len(w.bodies)
	if err := w.eliminateAllLeftRecursion(); err != nil {
		return nil, err
	}

	sets := make([]*treeset.Set, len(w.bodies))
	for i := range sets {
		sets[i] = treeset.NewWith(intComparator)
	}
	finished := make([]bool, len(w.bodies))
	var stack []int
	onStack := make(map[int]bool)

	var recurse func(nt int) error
	addSubset := func(nt, other int) error {
		if other == nt {
			return gerr.New(gerr.KindLeftRecursionBug, "grammar still contains left recursion at non-terminal #%d", nt)
		}
		if !finished[other] {
			if onStack[other] {
				return gerr.New(gerr.KindFirstCycle, "cycle in FIRST computation reaches non-terminal #%d", other)
			}
			if err := recurse(other); err != nil {
				return err
			}
		}
		for _, v := range sets[other].Values() {
			if i := v.(int); i != epsilon {
				sets[nt].Add(i)
			}
		}
		return nil
	}

	recurse = func(nt int) error {
		stack = append(stack, nt)
		onStack[nt] = true

		for _, body := range w.bodies[nt] {
			if len(body) == 0 {
				sets[nt].Add(epsilon)
				continue
			}
			allEpsilon := true
			for _, term := range body {
				if term.isTerminal {
					sets[nt].Add(term.index)
					allEpsilon = false
					break
				}
				if err := addSubset(nt, term.index); err != nil {
					return err
				}
				if !sets[term.index].Contains(epsilon) {
					allEpsilon = false
					break
				}
			}
			if allEpsilon {
				sets[nt].Add(epsilon)
			}
		}

		finished[nt] = true
		onStack[nt] = false
		stack = stack[:len(stack)-1]
		return nil
	}

	for nt := range w.bodies {
		if !finished[nt] {
			if err := recurse(nt); err != nil {
				return nil, err
			}
		}
	}

	return &FirstSet{sets: sets[:originalCount]}, nil
}
