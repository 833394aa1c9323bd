package machine

import (
	"time"

	"github.com/dolthub/swiss"
)

var processStart = time.Now()

// nativeRegistry stages the built-in functions a fresh VM should expose
// before they are copied, one at a time, into the VM's own open-addressed
// globals Table. There is only one entry today, clock(), but keeping a
// registry — rather than a single inline Globals.Set call — describes the
// whole native surface in one place and leaves room to grow it. A plain Go
// map would do as well functionally; this uses swiss.Map instead, since a
// small lookup built once at process startup, keyed by plain Go strings
// that exist before any Heap does, is exactly the shape it's built for —
// the language's own Table is tuned for a different job (interned keys
// living on a running heap) and would be the wrong tool here.
var nativeRegistry = func() *swiss.Map[string, NativeFn] {
	m := swiss.NewMap[string, NativeFn](4)
	m.Put("clock", nativeClock)
	return m
}()

func nativeClock(args []Value) Value {
	return Number(time.Since(processStart).Seconds())
}

// registerNatives copies every entry of nativeRegistry into vm's globals,
// interning each name through vm.Heap exactly as any other global
// definition would.
func registerNatives(vm *VM) {
	nativeRegistry.Iter(func(name string, fn NativeFn) bool {
		interned := vm.Heap.InternCopy(name)
		native := vm.Heap.NewNative(name, fn)
		vm.Globals.Set(interned, native)
		return false
	})
}
