package compiler_test

import (
	"testing"

	"github.com/kylelemons/godebug/diff"
	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/machine"
)

// TestDisassembleRoundTripIsStable compiles the same source twice and
// disassembles both chunks, using godebug/diff to produce a readable patch
// if the two ever diverge — the same tool the package's golden-file tests
// (see internal/filetest) use to report mismatches.
func TestDisassembleRoundTripIsStable(t *testing.T) {
	const src = `class Greeter {
	init(name) { this.name = name; }
	greet() { print "hi " + this.name; }
}
var g = Greeter("world");
g.greet();
`
	vm1 := machine.New()
	fn1, err := compiler.Compile(src, vm1)
	require.NoError(t, err)

	vm2 := machine.New()
	fn2, err := compiler.Compile(src, vm2)
	require.NoError(t, err)

	got1 := compiler.Disassemble(fn1.Chunk, "script")
	got2 := compiler.Disassemble(fn2.Chunk, "script")

	if patch := diff.Diff(got1, got2); patch != "" {
		t.Fatalf("two compilations of the same source disassembled differently:\n%s", patch)
	}
}
