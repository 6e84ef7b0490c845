package grammar

import (
	"crypto/sha256"
	"encoding/binary"
	"sort"

	"github.com/emirpasic/gods/sets/hashset"
)

// coreID identifies an LR(0) core (non-terminal, rule-within-non-terminal,
// dot position) independent of lookahead, the way lr0ItemID hashes a
// production id and dot together in the teacher's item construction.
type coreID [32]byte

type itemCore struct {
	nonTerminal int
	rule        int
	dot         int
}

func (c itemCore) id() coreID {
	var b [24]byte
	binary.LittleEndian.PutUint64(b[0:8], uint64(c.nonTerminal))
	binary.LittleEndian.PutUint64(b[8:16], uint64(c.rule))
	binary.LittleEndian.PutUint64(b[16:24], uint64(c.dot))
	return sha256.Sum256(b[:])
}

// dottedSymbol returns the term immediately after the dot and whether
// one exists (false for a reduce item).
func (c itemCore) dottedSymbol(g *Grammar) (TermIndex, bool) {
	rule := g.RuleAt(c.nonTerminal, c.rule)
	if c.dot >= len(rule.Terms) {
		return TermIndex{}, false
	}
	return rule.Terms[c.dot].termIndex(), true
}

// state is one member of the canonical collection: a set of LR(0) cores,
// each carrying a lookahead set that only ever grows (spec §4.3 "the
// LR(0) core of each state is fixed once created"). lookahead is keyed
// by coreID so merging by core equality is a map lookup, not a scan.
type state struct {
	num        int
	cores      []itemCore         // stable order, first-seen
	coreIndex  map[coreID]int     // coreID -> index into cores
	lookahead  map[coreID]*hashset.Set
	// transitions maps the TermIndex a core's dot can advance across to
	// the destination state number.
	transitions map[TermIndex]int
}

func newState(num int) *state {
	return &state{
		num:         num,
		coreIndex:   map[coreID]int{},
		lookahead:   map[coreID]*hashset.Set{},
		transitions: map[TermIndex]int{},
	}
}

// addItem merges [core, lookahead terminal la] into s. It returns
// whether the core was new to s and whether an existing core's
// lookahead set grew.
func (s *state) addItem(core itemCore, la int) (isNewCore, grew bool) {
	id := core.id()
	idx, known := s.coreIndex[id]
	if !known {
		idx = len(s.cores)
		s.cores = append(s.cores, core)
		s.coreIndex[id] = idx
		s.lookahead[id] = hashset.New()
		isNewCore = true
	}
	set := s.lookahead[id]
	if !set.Contains(la) {
		set.Add(la)
		grew = true
	}
	return isNewCore, grew
}

// coreSetID hashes the sorted set of core ids a state currently holds;
// two states with the same coreSetID have the same LR(0) core set
// regardless of build order, which is the LALR merge key of spec §4.3.
func (s *state) coreSetID() coreID {
	ids := make([][32]byte, len(s.cores))
	for i, c := range s.cores {
		ids[i] = c.id()
	}
	sort.Slice(ids, func(i, j int) bool {
		return string(ids[i][:]) < string(ids[j][:])
	})
	var flat []byte
	for _, id := range ids {
		flat = append(flat, id[:]...)
	}
	return sha256.Sum256(flat)
}

// ItemSets is the canonical collection produced by ItemSetBuilder
// (spec §4.3): states in creation order and the transition graph.
type ItemSets struct {
	States []*state
}

// closure expands s in place, per spec §4.3's Closure(I): repeat until
// stable, for every item [A -> a . B b, x] with B a non-terminal, for
// every rule B -> g and every terminal t in FIRST(b x), merge
// [B -> . g, t].
func closure(g *Grammar, first *FirstSet, s *state) error {
	worklist := make([]itemCore, len(s.cores))
	copy(worklist, s.cores)

	for len(worklist) > 0 {
		core := worklist[0]
		worklist = worklist[1:]

		sym, ok := core.dottedSymbol(g)
		if !ok || sym.IsTerminal {
			continue
		}
		id := core.id()
		las := s.lookahead[id].Values()

		for _, laVal := range las {
			la := laVal.(int)
			lookaheads, err := firstOfSuffix(g, first, core.nonTerminal, core.rule, core.dot+1, la)
			if err != nil {
				return err
			}
			for ruleIdx := range g.Rules[sym.Index] {
				for _, t := range lookaheads {
					newCore := itemCore{nonTerminal: sym.Index, rule: ruleIdx, dot: 0}
					isNew, grew := s.addItem(newCore, t)
					if isNew || grew {
						worklist = append(worklist, newCore)
					}
				}
			}
		}
	}
	return nil
}

// firstOfSuffix computes FIRST(beta a) where beta is the body of
// (nt, rule) starting at position from, and a is the single lookahead
// terminal la (spec §4.3's "FIRST(beta a)"): every terminal that can
// begin beta, plus a itself if beta is nullable (or empty).
func firstOfSuffix(g *Grammar, first *FirstSet, nt, rule, from, la int) ([]int, error) {
	body := g.RuleAt(nt, rule).Terms
	var out []int
	seen := map[int]bool{}
	add := func(t int) {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}

	for i := from; i < len(body); i++ {
		idx := body[i].termIndex()
		if idx.IsTerminal {
			add(idx.Index)
			return out, nil
		}
		for _, t := range first.Terminals(idx.Index) {
			add(t)
		}
		if !first.ContainsEpsilon(idx.Index) {
			return out, nil
		}
	}
	add(la)
	return out, nil
}

// gotoState computes Goto(s, X) (spec §4.3): advance the dot across X
// in every item of s whose dotted symbol is X, then close the result.
func gotoState(g *Grammar, first *FirstSet, s *state, x TermIndex) (*state, error) {
	next := newState(-1)
	for _, core := range s.cores {
		sym, ok := core.dottedSymbol(g)
		if !ok || sym != x {
			continue
		}
		advanced := itemCore{nonTerminal: core.nonTerminal, rule: core.rule, dot: core.dot + 1}
		for _, laVal := range s.lookahead[core.id()].Values() {
			next.addItem(advanced, laVal.(int))
		}
	}
	if len(next.cores) == 0 {
		return nil, nil
	}
	if err := closure(g, first, next); err != nil {
		return nil, err
	}
	return next, nil
}

// symbolsAfterDot returns the distinct TermIndex values some item of s
// has immediately after its dot: terminals first, then non-terminals,
// each in first-seen order, so shift targets are numbered before goto
// targets (spec §4.3's grouping optimization: process items sharing a
// next-symbol together).
func symbolsAfterDot(g *Grammar, s *state) []TermIndex {
	var terminals, nonTerminals []TermIndex
	seen := map[TermIndex]bool{}
	for _, core := range s.cores {
		sym, ok := core.dottedSymbol(g)
		if !ok || seen[sym] {
			continue
		}
		seen[sym] = true
		if sym.IsTerminal {
			terminals = append(terminals, sym)
		} else {
			nonTerminals = append(nonTerminals, sym)
		}
	}
	return append(terminals, nonTerminals...)
}

// BuildItemSets is ItemSetBuilder (spec §4.3): the canonical collection
// of LR(1) item sets with LALR-style core-based merging, and the
// transition graph on terminals and non-terminals.
func BuildItemSets(g *Grammar, first *FirstSet) (*ItemSets, error) {
	eof := g.EOFIndex()

	initial := newState(0)
	initial.addItem(itemCore{nonTerminal: AugmentedStart, rule: 0, dot: 0}, eof)
	if err := closure(g, first, initial); err != nil {
		return nil, err
	}

	sets := &ItemSets{States: []*state{initial}}
	byCoreSet := map[coreID]int{initial.coreSetID(): 0}

	worklist := []int{0}
	for len(worklist) > 0 {
		next := worklist[:0:0]
		for _, si := range worklist {
			s := sets.States[si]
			for _, x := range symbolsAfterDot(g, s) {
				candidate, err := gotoState(g, first, s, x)
				if err != nil {
					return nil, err
				}
				if candidate == nil {
					continue
				}
				candID := candidate.coreSetID()
				if existingIdx, known := byCoreSet[candID]; known {
					existing := sets.States[existingIdx]
					grewAny := false
					for _, core := range candidate.cores {
						for _, laVal := range candidate.lookahead[core.id()].Values() {
							_, grew := existing.addItem(core, laVal.(int))
							if grew {
								grewAny = true
							}
						}
					}
					s.transitions[x] = existingIdx
					if grewAny {
						next = append(next, existingIdx)
					}
				} else {
					newIdx := len(sets.States)
					candidate.num = newIdx
					sets.States = append(sets.States, candidate)
					byCoreSet[candID] = newIdx
					s.transitions[x] = newIdx
					next = append(next, newIdx)
				}
			}
		}
		worklist = dedupInts(next)
	}

	return sets, nil
}

func dedupInts(in []int) []int {
	seen := map[int]bool{}
	var out []int
	for _, v := range in {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
