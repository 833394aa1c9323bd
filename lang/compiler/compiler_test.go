package compiler_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/compiler"
	"github.com/ember-lang/ember/lang/machine"
)

func run(t *testing.T, src string) (string, error) {
	t.Helper()
	vm := machine.New()
	var out bytes.Buffer
	vm.Stdout = &out

	fn, err := compiler.Compile(src, vm)
	if err != nil {
		return "", err
	}
	_, rerr := vm.Interpret(fn)
	return out.String(), rerr
}

func TestArithmeticPrecedence(t *testing.T) {
	out, err := run(t, `print 1 + 2 * 3;`)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestStringConcatenation(t *testing.T) {
	out, err := run(t, `var a = "foo"; var b = "bar"; print a + b;`)
	require.NoError(t, err)
	require.Equal(t, "foobar\n", out)
}

func TestClosureOverLocal(t *testing.T) {
	out, err := run(t, `fun mk(x) { fun get() { return x; } return get; } var g = mk(42); print g();`)
	require.NoError(t, err)
	require.Equal(t, "42\n", out)
}

func TestClosureMutatesSharedUpvalue(t *testing.T) {
	src := `fun c() { var a = 1; fun inc() { a = a + 1; return a; } return inc; }
	var f = c(); print f(); print f(); print f();`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "2\n3\n4\n", out)
}

func TestClassMethod(t *testing.T) {
	out, err := run(t, `class A { greet() { print "hi"; } } A().greet();`)
	require.NoError(t, err)
	require.Equal(t, "hi\n", out)
}

func TestInheritanceAndSuper(t *testing.T) {
	src := `class A { init(n) { this.n = n; } }
	class B < A { init(n) { super.init(n); } show() { print this.n; } }
	B(7).show();`
	out, err := run(t, src)
	require.NoError(t, err)
	require.Equal(t, "7\n", out)
}

func TestWhileLoop(t *testing.T) {
	out, err := run(t, `var i = 0; var s = 0; while (i < 5) { s = s + i; i = i + 1; } print s;`)
	require.NoError(t, err)
	require.Equal(t, "10\n", out)
}

func TestForLoop(t *testing.T) {
	out, err := run(t, `var s = 0; for (var i = 0; i < 5; i = i + 1) { s = s + i; } print s;`)
	require.NoError(t, err)
	require.Equal(t, "10\n", out)
}

func TestUndefinedGlobalIsRuntimeError(t *testing.T) {
	_, err := run(t, `print a;`)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'a'.")
}

func TestGlobalSelfReferenceInInitializerIsAllowed(t *testing.T) {
	out, err := run(t, `var a = a; print "ok";`)
	require.NoError(t, err)
	require.Equal(t, "ok\n", out)
}

func TestGlobalRedeclarationSelfReferenceKeepsPriorValue(t *testing.T) {
	out, err := run(t, `var a = 1; var a = a; print a;`)
	require.NoError(t, err)
	require.Equal(t, "1\n", out)
}

func TestLocalSelfReferenceInInitializerIsCompileError(t *testing.T) {
	vm := machine.New()
	_, err := compiler.Compile(`{ var a = a; }`, vm)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Can't read local variable in its own initializer.")
}

func TestClockIsANonNegativeNumber(t *testing.T) {
	out, err := run(t, `print clock() >= 0;`)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}

func TestCantInheritFromSelf(t *testing.T) {
	vm := machine.New()
	_, err := compiler.Compile(`class A < A {}`, vm)
	require.Error(t, err)
	require.Contains(t, err.Error(), "A class can't inherit from itself.")
}

func TestSynchronizeAllowsMultipleDiagnostics(t *testing.T) {
	vm := machine.New()
	_, err := compiler.Compile(`var ; var ;`, vm)
	require.Error(t, err)
	cerr, ok := err.(*machine.CompileError)
	require.True(t, ok)
	require.Len(t, cerr.Diagnostics, 2)
}

func TestDisassembleIsDeterministic(t *testing.T) {
	vm := machine.New()
	fn, err := compiler.Compile(`print 1 + 2;`, vm)
	require.NoError(t, err)

	first := compiler.Disassemble(fn.Chunk, "script")
	second := compiler.Disassemble(fn.Chunk, "script")
	require.Equal(t, first, second)
	require.Contains(t, first, "OP_PRINT")
}
