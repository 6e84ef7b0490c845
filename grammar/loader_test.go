package grammar

import (
	"strings"
	"testing"
)

func mustLoad(t *testing.T, src string) *Grammar {
	t.Helper()
	g, err := LoadGrammar(src)
	if err != nil {
		t.Fatalf("LoadGrammar failed: %v", err)
	}
	return g
}

func TestLoadGrammar_S1SingleProductionExpression(t *testing.T) {
	src := `
Symbol{plus}, Identifier, $
E : [BinOp] E*(expr) Symbol.plus T(term) ; | T(term) ;
T : Identifier(id) ;
`
	g := mustLoad(t, src)

	if len(g.TokenTypes) != 2 {
		t.Fatalf("expected 2 token types, got %d", len(g.TokenTypes))
	}
	if g.TokenTypes[0].Name != "Symbol" || g.TokenTypes[0].Enumerator != "plus" {
		t.Fatalf("unexpected token type 0: %+v", g.TokenTypes[0])
	}
	if g.TokenTypes[1].Name != "Identifier" || g.TokenTypes[1].IsEnumerator() {
		t.Fatalf("unexpected token type 1: %+v", g.TokenTypes[1])
	}
	if g.NonTerminalNames[StartNonTerminal] != "E" {
		t.Fatalf("expected start non-terminal E, got %q", g.NonTerminalNames[StartNonTerminal])
	}

	eRules := g.Rules[StartNonTerminal]
	if len(eRules) != 2 {
		t.Fatalf("expected 2 rules for E, got %d", len(eRules))
	}
	if eRules[0].Tag != "BinOp" || len(eRules[0].Terms) != 3 {
		t.Fatalf("unexpected first E rule: %+v", eRules[0])
	}
	if nt, ok := eRules[0].Terms[0].(NonTerminalTerm); !ok || nt.NonTerminalIndex != StartNonTerminal || !nt.Indirect {
		t.Fatalf("expected first term to be an indirect recursion on E, got %+v", eRules[0].Terms[0])
	}
	if tt, ok := eRules[0].Terms[1].(TerminalTerm); !ok || !tt.IsEnum {
		t.Fatalf("expected second term to be the enumerator terminal, got %+v", eRules[0].Terms[1])
	}
	if eRules[0].RetainedTermCount() != 2 {
		t.Fatalf("expected 2 retained terms (enum terminal drops its field), got %d", eRules[0].RetainedTermCount())
	}
}

func TestLoadGrammar_S2EmptyAlternative(t *testing.T) {
	g := mustLoad(t, "A, $\nS : A(a) ; | ;\n")
	sRules := g.Rules[StartNonTerminal]
	if len(sRules) != 2 {
		t.Fatalf("expected 2 rules for S, got %d", len(sRules))
	}
	if len(sRules[1].Terms) != 0 {
		t.Fatalf("expected the second S rule to be empty, got %+v", sRules[1].Terms)
	}
}

func TestLoadGrammar_S3IndirectRecursion(t *testing.T) {
	src := `
L, R, $
Outer : L(l) Inner*(inner) R(r) ;
Inner : Outer(o) ; | ;
`
	g := mustLoad(t, src)
	outer := g.Rules[StartNonTerminal][0]
	if nt, ok := outer.Terms[1].(NonTerminalTerm); !ok || !nt.Indirect {
		t.Fatalf("expected the Inner term of Outer to be marked indirect, got %+v", outer.Terms[1])
	}
}

func TestLoadGrammar_AugmentedRule(t *testing.T) {
	g := mustLoad(t, "A, $\nS : A(a) ;\n")
	aug := g.Rules[AugmentedStart]
	if len(aug) != 1 || len(aug[0].Terms) != 1 {
		t.Fatalf("expected a single augmented rule with one term, got %+v", aug)
	}
	if nt, ok := aug[0].Terms[0].(NonTerminalTerm); !ok || nt.NonTerminalIndex != StartNonTerminal {
		t.Fatalf("expected the augmented rule to reference the start non-terminal, got %+v", aug[0].Terms[0])
	}
}

func TestLoadGrammar_UnknownTypeName(t *testing.T) {
	_, err := LoadGrammar("A, $\nS : B(b) ;\n")
	if err == nil {
		t.Fatal("expected an error for an unknown type name")
	}
}

func TestLoadGrammar_MissingFirstAlternative(t *testing.T) {
	_, err := LoadGrammar("A, $\n| A(a) ;\nS : A(a) ;\n")
	if err == nil {
		t.Fatal("expected an error for a missing first alternative")
	}
}

func TestLoadGrammar_DuplicateEnumBlock(t *testing.T) {
	_, err := LoadGrammar("Symbol{plus}, Symbol{minus}, $\nS : Symbol.plus ;\n")
	if err == nil {
		t.Fatal("expected an error: enumerators sharing a type name must share one block")
	}
}

func TestLoadGrammar_DuplicateAlternativeTag(t *testing.T) {
	_, err := LoadGrammar("A, $\nS : [X] A(a) ; | [X] A(a) A(b) ;\n")
	if err == nil {
		t.Fatal("expected a validation error for a duplicated alternative tag")
	}
	if !strings.Contains(err.Error(), "tagged") {
		t.Fatalf("expected a tag-collision message, got: %v", err)
	}
}
