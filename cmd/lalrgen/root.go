package main

import (
	"fmt"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/clorolang/lalrgen/emit"
	"github.com/clorolang/lalrgen/grammar"
)

// usageError marks an argument-count failure, the one case spec.md §6
// exits non-zero for; every other failure prints and returns 0, the
// way the teacher's SilenceErrors/SilenceUsage RunE chain only ever
// distinguishes "bad invocation" from "ran and failed".
type usageError string

func (e usageError) Error() string { return string(e) }

var packageName string

var rootCmd = &cobra.Command{
	Use:   "lalrgen <grammar-file> <output-prefix>",
	Short: "Generate a Go AST and LALR parser from a grammar description",
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) != 2 {
			fmt.Fprintln(os.Stderr, cmd.UsageString())
			return usageError(fmt.Sprintf("expected exactly 2 arguments (grammar path, output prefix), got %d", len(args)))
		}
		return nil
	},
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE:          runGenerate,
}

func init() {
	rootCmd.Flags().StringVarP(&packageName, "package", "p", "main", "name of the emitted Go package")
}

// Execute runs the root command and returns the process exit code:
// 1 for a malformed invocation, 0 otherwise (spec.md §6 — a failed
// generation still prints its message and exits 0).
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	if _, ok := err.(usageError); ok {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runGenerate(cmd *cobra.Command, args []string) error {
	start := time.Now()

	grmPath, outPrefix := args[0], args[1]
	// report prints a failed-run banner and the accumulated message; it
	// never turns into a non-zero exit (spec.md §6: generation failures
	// print and exit 0, unlike a malformed invocation).
	report := func(err error) {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "failed")
		fmt.Fprintln(os.Stderr, err)
	}

	src, err := os.ReadFile(grmPath)
	if err != nil {
		report(fmt.Errorf("cannot read grammar file %s: %w", grmPath, err))
		return nil
	}

	g, err := grammar.LoadGrammar(string(src))
	if err != nil {
		report(err)
		return nil
	}

	first, err := grammar.ComputeFirstSets(g)
	if err != nil {
		report(err)
		return nil
	}

	sets, err := grammar.BuildItemSets(g, first)
	if err != nil {
		report(err)
		return nil
	}

	table, err := grammar.BuildTable(g, sets)
	if err != nil {
		report(err)
		return nil
	}

	if err := emit.Emit(g, table, outPrefix, packageName); err != nil {
		report(err)
		return nil
	}

	elapsed := time.Since(start)
	color.New(color.FgGreen, color.Bold).Fprintf(os.Stdout, "Completed in %dµs\n", elapsed.Microseconds())
	return nil
}
