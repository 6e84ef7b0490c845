package emit

import (
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/clorolang/lalrgen/grammar"
)

func buildAll(t *testing.T, src string) (*grammar.Grammar, *grammar.Table) {
	t.Helper()
	g, err := grammar.LoadGrammar(src)
	if err != nil {
		t.Fatalf("LoadGrammar failed: %v", err)
	}
	first, err := grammar.ComputeFirstSets(g)
	if err != nil {
		t.Fatalf("ComputeFirstSets failed: %v", err)
	}
	sets, err := grammar.BuildItemSets(g, first)
	if err != nil {
		t.Fatalf("BuildItemSets failed: %v", err)
	}
	table, err := grammar.BuildTable(g, sets)
	if err != nil {
		t.Fatalf("BuildTable failed: %v", err)
	}
	return g, table
}

// mustParseGo checks that src is syntactically valid Go, the way a
// reviewer would sanity-check a code generator's output without
// invoking the full toolchain.
func mustParseGo(t *testing.T, label, src string) {
	t.Helper()
	fset := token.NewFileSet()
	if _, err := parser.ParseFile(fset, label, src, 0); err != nil {
		t.Fatalf("%s is not syntactically valid Go: %v\n---\n%s", label, err, src)
	}
}

func TestGenerateAST_S1SingleProductionExpression(t *testing.T) {
	src := `
Symbol{plus}, Identifier, $
E : [BinOp] E*(expr) Symbol.plus T(term) ; | T(term) ;
T : Identifier(id) ;
`
	g, _ := buildAll(t, src)
	out, err := GenerateAST(g, "ast")
	if err != nil {
		t.Fatalf("GenerateAST failed: %v", err)
	}
	mustParseGo(t, "s1_ast.go", out)

	for _, want := range []string{
		"type T struct",
		"type E interface",
		"type EBinOp struct",
		"Expr *E",
		"Term T",
		"func (EBinOp) isE() {}",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected generated AST to contain %q:\n%s", want, out)
		}
	}
}

func TestGenerateAST_S2EmptyAlternative(t *testing.T) {
	g, _ := buildAll(t, "A, $\nS : A(a) ; | ;\n")
	out, err := GenerateAST(g, "ast")
	if err != nil {
		t.Fatalf("GenerateAST failed: %v", err)
	}
	mustParseGo(t, "s2_ast.go", out)
	if !strings.Contains(out, "type S interface") {
		t.Errorf("expected S to be a tagged union with an empty alternative:\n%s", out)
	}
}

func TestGenerateAST_S3IndirectRecursionRequired(t *testing.T) {
	src := `
L, R, $
Outer : L(l) Inner(inner) R(r) ;
Inner : Outer(o) ; | ;
`
	g, err := grammar.LoadGrammar(src)
	if err != nil {
		t.Fatalf("LoadGrammar failed: %v", err)
	}
	if _, err := GenerateAST(g, "ast"); err == nil {
		t.Fatal("expected an AST-cycle error when the Outer/Inner edge is not marked indirect")
	}
}

func TestGenerateAST_S3IndirectRecursionBreaksCycle(t *testing.T) {
	src := `
L, R, $
Outer : L(l) Inner*(inner) R(r) ;
Inner : Outer(o) ; | ;
`
	g, err := grammar.LoadGrammar(src)
	if err != nil {
		t.Fatalf("LoadGrammar failed: %v", err)
	}
	out, err := GenerateAST(g, "ast")
	if err != nil {
		t.Fatalf("GenerateAST failed with the indirect edge present: %v", err)
	}
	mustParseGo(t, "s3_ast.go", out)
	if !strings.Contains(out, "Inner *Inner") {
		t.Errorf("expected Outer's Inner field to be a pointer:\n%s", out)
	}
}

func TestGenerateParser_S6AcceptState(t *testing.T) {
	g, table := buildAll(t, "A, $\nS : A(a) ;\n")
	out := GenerateParser(g, table, "ast")
	mustParseGo(t, "s6_parser.go", out)
	for _, want := range []string{
		"func (p *Parser) Parse() (S, error)",
		"func (p *Parser) reduce(rule int)",
		"func (p *Parser) goTo()",
		"p.shift(",
		"return popNonTerminal[S](p, 0), nil",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected generated parser to contain %q:\n%s", want, out)
		}
	}
}

func TestGenerateParser_S1EnumeratorDispatch(t *testing.T) {
	src := `
Symbol{plus}, Identifier, $
E : [BinOp] E*(expr) Symbol.plus T(term) ; | T(term) ;
T : Identifier(id) ;
`
	g, table := buildAll(t, src)
	out := GenerateParser(g, table, "ast")
	mustParseGo(t, "s1_parser.go", out)
	if !strings.Contains(out, "switch p.currentEnumTag()") {
		t.Errorf("expected a nested enum-tag switch for the Symbol terminal:\n%s", out)
	}
}

func TestEmit_WritesBothFiles(t *testing.T) {
	g, table := buildAll(t, "A, $\nS : A(a) ;\n")
	dir := t.TempDir()
	if err := Emit(g, table, dir+"/out", "ast"); err != nil {
		t.Fatalf("Emit failed: %v", err)
	}
}
