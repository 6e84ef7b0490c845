package grammar

import "testing"

func buildTable(t *testing.T, src string) (*Grammar, *Table, error) {
	t.Helper()
	g, sets := buildSets(t, src)
	table, err := BuildTable(g, sets)
	return g, table, err
}

func TestBuildTable_S6AcceptAndReduce(t *testing.T) {
	g, table, err := buildTable(t, "A, $\nS : A(a) ;\n")
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	a := tokenIndexOf(t, g, "A")
	if table.Actions[0][a].Kind != ActionShift {
		t.Fatalf("expected a shift on A in state 0, got %+v", table.Actions[0][a])
	}
	eof := g.EOFIndex()
	reduceState := table.Actions[0][a].State
	if table.Actions[reduceState][eof].Kind != ActionReduce {
		t.Fatalf("expected a reduce on $ after shifting A, got %+v", table.Actions[reduceState][eof])
	}
	acceptState := table.GoTo[0][StartNonTerminal]
	if table.Actions[acceptState][eof].Kind != ActionAccept {
		t.Fatalf("expected accept on $ in the post-goto state, got %+v", table.Actions[acceptState][eof])
	}
}

func TestBuildTable_S4ShiftReduceConflict(t *testing.T) {
	src := `
If, Then, Else, Expr, $
S : If(i) Expr(e) Then(t) S(s) ; | If(i) Expr(e) Then(t) S(s) Else(el) S(s2) ; | Expr(e) ;
`
	_, _, err := buildTable(t, src)
	if err == nil {
		t.Fatal("expected a shift-reduce conflict on Else")
	}
}

func TestBuildTable_S5ReduceReduceConflict(t *testing.T) {
	src := `
A, $
S : X(x) ; | Y(y) ; X : A(x) ; Y : A(x) ;
`
	_, _, err := buildTable(t, src)
	if err == nil {
		t.Fatal("expected a reduce-reduce conflict after shifting A")
	}
}
