package grammar

import "testing"

func buildSets(t *testing.T, src string) (*Grammar, *ItemSets) {
	t.Helper()
	g := mustLoad(t, src)
	first, err := ComputeFirstSets(g)
	if err != nil {
		t.Fatalf("ComputeFirstSets failed: %v", err)
	}
	sets, err := BuildItemSets(g, first)
	if err != nil {
		t.Fatalf("BuildItemSets failed: %v", err)
	}
	return g, sets
}

func TestBuildItemSets_S1StateCount(t *testing.T) {
	src := `
Symbol{plus}, Identifier, $
E : [BinOp] E*(expr) Symbol.plus T(term) ; | T(term) ;
T : Identifier(id) ;
`
	_, sets := buildSets(t, src)
	if len(sets.States) != 7 {
		t.Errorf("expected 7 states for the worked S1 grammar, got %d", len(sets.States))
	}
}

func TestBuildItemSets_S6AcceptState(t *testing.T) {
	g, sets := buildSets(t, "A, $\nS : A(a) ;\n")
	if len(sets.States) != 3 {
		t.Fatalf("expected 3 states, got %d", len(sets.States))
	}
	a := tokenIndexOf(t, g, "A")
	dest, ok := sets.States[0].transitions[terminalIndex(a)]
	if !ok || dest != 1 {
		t.Fatalf("expected state 0 to shift on A into state 1, got %d, %v", dest, ok)
	}
}

func TestBuildItemSets_SingleTransitionPerSymbol(t *testing.T) {
	_, sets := buildSets(t, "A, B, $\nS : A(a) S(s) ; | B(b) ;\n")
	for _, s := range sets.States {
		seen := map[TermIndex]bool{}
		for x := range s.transitions {
			if seen[x] {
				t.Fatalf("state %d has more than one transition on %+v", s.num, x)
			}
			seen[x] = true
		}
	}
}
