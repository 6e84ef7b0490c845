package grammar

import "testing"

func tokenIndexOf(t *testing.T, g *Grammar, name string) int {
	t.Helper()
	for i, tt := range g.TokenTypes {
		if tt.Name == name && !tt.IsEnumerator() {
			return i
		}
	}
	t.Fatalf("token type %q not found", name)
	return -1
}

func TestComputeFirstSets_S2Nullable(t *testing.T) {
	g := mustLoad(t, "A, $\nS : A(a) ; | ;\n")
	first, err := ComputeFirstSets(g)
	if err != nil {
		t.Fatalf("ComputeFirstSets failed: %v", err)
	}
	a := tokenIndexOf(t, g, "A")
	if !first.Contains(StartNonTerminal, a) {
		t.Errorf("expected FIRST(S) to contain A")
	}
	if !first.ContainsEpsilon(StartNonTerminal) {
		t.Errorf("expected FIRST(S) to contain epsilon")
	}
}

func TestComputeFirstSets_DirectLeftRecursion(t *testing.T) {
	src := `
Plus, Identifier, $
E : E(l) Plus(p) E2(r) ; | T(t) ;
E2 : Identifier(id) ;
T : Identifier(id) ;
`
	g := mustLoad(t, src)
	first, err := ComputeFirstSets(g)
	if err != nil {
		t.Fatalf("ComputeFirstSets failed on a left-recursive grammar: %v", err)
	}
	id := tokenIndexOf(t, g, "Identifier")
	if !first.Contains(StartNonTerminal, id) {
		t.Errorf("expected FIRST(E) to contain Identifier")
	}
	if first.ContainsEpsilon(StartNonTerminal) {
		t.Errorf("did not expect FIRST(E) to contain epsilon")
	}
}

func TestComputeFirstSets_SelfRecursiveRuleIsAnError(t *testing.T) {
	src := `
A, $
S : S(s) ;
`
	g := mustLoad(t, src)
	if _, err := ComputeFirstSets(g); err == nil {
		t.Fatal("expected an error for a self-recursive rule S -> S")
	}
}

func TestComputeFirstSets_IndirectLeftRecursion(t *testing.T) {
	src := `
X, $
A : B(b) X(x) ; | X(x) ;
B : A(a) ;
`
	g := mustLoad(t, src)
	first, err := ComputeFirstSets(g)
	if err != nil {
		t.Fatalf("ComputeFirstSets failed on an indirectly left-recursive grammar: %v", err)
	}
	x := tokenIndexOf(t, g, "X")
	if !first.Contains(StartNonTerminal, x) {
		t.Errorf("expected FIRST(A) to contain X")
	}
}
