package machine

// NativeFn is the signature of a built-in function implemented in Go
// rather than compiled Ember bytecode. Natives cannot themselves fail at
// the language level — there is no exception handling — so they simply
// return a Value.
type NativeFn func(args []Value) Value

// ObjNative wraps a NativeFn as a callable heap object so it can live in
// the globals table and be invoked through OP_CALL like any other callee.
type ObjNative struct {
	objHeader
	Name string
	Fn   NativeFn
}

var (
	_ Value = (*ObjNative)(nil)
	_ Obj   = (*ObjNative)(nil)
)

func (*ObjNative) String() string { return "<native fn>" }
func (*ObjNative) Type() string   { return "native" }
