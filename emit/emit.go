package emit

import (
	"fmt"
	"os"

	gerr "github.com/clorolang/lalrgen/error"
	"github.com/clorolang/lalrgen/grammar"
)

// Emit is the Emitter's entry point (spec.md §4.5, §6): it renders the
// AST declarations and the parser source from g and table and writes
// them to "<outPrefix>_ast.go" and "<outPrefix>_parser.go", the way
// CodeGenerator::write_code opens one stream per artifact and writes
// both before returning. No partial output is written if rendering
// either artifact fails; an I/O error on either file is fatal (spec.md
// §5, §7).
func Emit(g *grammar.Grammar, table *grammar.Table, outPrefix, pkgName string) error {
	astSrc, err := GenerateAST(g, pkgName)
	if err != nil {
		return err
	}
	parserSrc := GenerateParser(g, table, pkgName)

	if err := writeFile(outPrefix+"_ast.go", astSrc); err != nil {
		return err
	}
	if err := writeFile(outPrefix+"_parser.go", parserSrc); err != nil {
		return err
	}
	return nil
}

func writeFile(path, contents string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return gerr.New(gerr.KindIO, "cannot open %s for writing: %v", path, err)
	}
	defer f.Close()
	if _, err := fmt.Fprint(f, contents); err != nil {
		return gerr.New(gerr.KindIO, "cannot write %s: %v", path, err)
	}
	return nil
}
