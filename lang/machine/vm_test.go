package machine_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ember-lang/ember/lang/machine"
)

// buildScript hand-assembles a trivial script Function: `print 1;` — just
// enough bytecode to exercise VM.Interpret without going through the
// compiler package (which depends on machine, so machine's own tests must
// stay compiler-free to avoid an import cycle).
func buildScript(vm *machine.VM) *machine.ObjFunction {
	fn := vm.Heap.NewFunction()
	idx := fn.Chunk.AddConstant(vm, machine.Number(1))
	fn.Chunk.WriteOp(machine.OpConstant, 1)
	fn.Chunk.Write(byte(idx), 1)
	fn.Chunk.WriteOp(machine.OpPrint, 1)
	fn.Chunk.WriteOp(machine.OpNil, 1)
	fn.Chunk.WriteOp(machine.OpReturn, 1)
	return fn
}

func TestInterpretLeavesStackAndFramesEmpty(t *testing.T) {
	vm := machine.New()
	var out bytes.Buffer
	vm.Stdout = &out

	_, err := vm.Interpret(buildScript(vm))
	require.NoError(t, err)
	require.Equal(t, "1\n", out.String())
	require.Equal(t, 0, vm.StackDepth())
	require.Equal(t, 0, vm.FrameDepth())
}

func TestUndefinedGlobalProducesRuntimeError(t *testing.T) {
	vm := machine.New()
	fn := vm.Heap.NewFunction()
	name := vm.Heap.InternCopy("missing")
	idx := fn.Chunk.AddConstant(vm, name)
	fn.Chunk.WriteOp(machine.OpGetGlobal, 1)
	fn.Chunk.Write(byte(idx), 1)
	fn.Chunk.WriteOp(machine.OpReturn, 1)

	_, err := vm.Interpret(fn)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Undefined variable 'missing'.")

	var rerr *machine.RuntimeError
	require.ErrorAs(t, err, &rerr)
	require.Len(t, rerr.Trace, 1)
	require.Equal(t, "script", rerr.Trace[0].FuncName)

	// A runtime error resets the VM so a subsequent Interpret call (as in a
	// REPL session) starts clean.
	require.Equal(t, 0, vm.StackDepth())
	require.Equal(t, 0, vm.FrameDepth())
}

func TestClockNativeReturnsNonNegativeNumber(t *testing.T) {
	vm := machine.New()
	v, ok := vm.Globals.Get(vm.Heap.InternCopy("clock"))
	require.True(t, ok)

	native, ok := v.(*machine.ObjNative)
	require.True(t, ok)

	result := native.Fn(nil)
	n, ok := result.(machine.Number)
	require.True(t, ok)
	require.GreaterOrEqual(t, float64(n), 0.0)
}
