// Package grammar holds no executable code of its own; it keeps the
// language's context-free grammar as a checked-in EBNF document and
// verifies, via golang.org/x/exp/ebnf, that the grammar is well-formed and
// every production is reachable from the start symbol. This is the same
// package the Go spec itself uses to keep its own grammar honest.
package grammar

import (
	"os"
	"testing"

	"golang.org/x/exp/ebnf"
)

func TestGrammarIsWellFormed(t *testing.T) {
	f, err := os.Open("grammar.ebnf")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	g, err := ebnf.Parse("grammar.ebnf", f)
	if err != nil {
		t.Fatal(err)
	}
	if err := ebnf.Verify(g, "Program"); err != nil {
		t.Fatal(err)
	}
}
