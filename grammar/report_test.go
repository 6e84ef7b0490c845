package grammar

import (
	"strings"
	"testing"
)

func TestTermName_EndOfStream(t *testing.T) {
	g, _ := buildSets(t, "A, $\nS : A(a) ;\n")
	if got := termName(g, g.EOFIndex()); got != "$" {
		t.Fatalf("expected the synthetic end-of-stream column to render as $, got %q", got)
	}
}

func TestTermName_Enumerator(t *testing.T) {
	src := `
Symbol{plus}, Identifier, $
E : [BinOp] E*(expr) Symbol.plus T(term) ; | T(term) ;
T : Identifier(id) ;
`
	g, _ := buildSets(t, src)
	a := -1
	for i, tt := range g.TokenTypes {
		if tt.Name == "Symbol" && tt.Enumerator == "plus" {
			a = i
		}
	}
	if a < 0 {
		t.Fatalf("enumerator token type Symbol.plus not found")
	}
	if got := termName(g, a); got != "Symbol.plus" {
		t.Fatalf("expected an enumerator terminal to render as Name.Enumerator, got %q", got)
	}
}

func TestFormatAction(t *testing.T) {
	cases := []struct {
		a    Action
		want string
	}{
		{Action{Kind: ActionShift, State: 3}, "s3"},
		{Action{Kind: ActionReduce, RuleID: 2}, "r2"},
		{Action{Kind: ActionAccept}, "accept"},
		{Action{Kind: ActionError}, "e"},
	}
	for _, c := range cases {
		if got := formatAction(c.a); got != c.want {
			t.Errorf("formatAction(%+v) = %q, want %q", c.a, got, c.want)
		}
	}
}

func TestFormatItemSet_DotAndLookaheadsRendered(t *testing.T) {
	g, sets := buildSets(t, "A, $\nS : A(a) ;\n")
	out := formatItemSet(g, sets.States[0])
	if !strings.Contains(out, "S -> . A") {
		t.Fatalf("expected the dot to render before the first symbol, got:\n%s", out)
	}
	if !strings.Contains(out, "$") {
		t.Fatalf("expected the end-of-stream lookahead in state 0's item set, got:\n%s", out)
	}
}

func TestFormatItemSet_ReportsWholeSetOnConflict(t *testing.T) {
	src := `
If, Then, Else, Expr, $
S : If(i) Expr(e) Then(t) S(s) ; | If(i) Expr(e) Then(t) S(s) Else(el) S(s2) ; | Expr(e) ;
`
	_, _, err := buildTable(t, src)
	if err == nil {
		t.Fatal("expected a shift-reduce conflict on Else")
	}
	msg := err.Error()
	if strings.Count(msg, "->") < 2 {
		t.Fatalf("expected the conflict message to print the entire item set (multiple items), got:\n%s", msg)
	}
}
