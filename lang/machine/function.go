package machine

// ObjFunction is a compiled function body: its arity, the number of
// upvalues its closures must carry, the Chunk holding its bytecode and
// constant pool, and an optional name used for printing and stack traces.
// Functions are created by the compiler and sealed once the function body
// has been fully compiled; nothing mutates a Function after that point.
type ObjFunction struct {
	objHeader
	Arity        int
	UpvalueCount int
	Chunk        *Chunk
	Name         *ObjString // nil for the top-level script
}

var (
	_ Value = (*ObjFunction)(nil)
	_ Obj   = (*ObjFunction)(nil)
)

func (f *ObjFunction) String() string {
	if f.Name == nil {
		return "<script>"
	}
	return "<fn " + f.Name.Chars + ">"
}
func (*ObjFunction) Type() string { return "function" }

// NewFunction allocates a fresh, empty function with its own Chunk. The
// caller fills in Arity/UpvalueCount/Name as compilation of its body
// proceeds.
func NewFunction() *ObjFunction {
	return &ObjFunction{Chunk: NewChunk()}
}
