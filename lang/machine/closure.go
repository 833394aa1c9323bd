package machine

// ObjUpvalue is a storage cell for a variable captured by a closure. While
// open, Location points directly at the stack slot that owns the variable
// (safe in Go here because the VM's value stack is a fixed-size array that
// is never reallocated, so a slot's address stays stable while open). Once
// the owning frame returns, CloseUpvalue copies the current
// value into Closed and repoints Location at it, and the upvalue is said to
// be closed.
type ObjUpvalue struct {
	objHeader
	Location *Value
	Closed   Value
	slot     int         // stack slot index, used only while open (for list ordering)
	Next     *ObjUpvalue // next entry in the VM's open-upvalue list
}

var (
	_ Value = (*ObjUpvalue)(nil)
	_ Obj   = (*ObjUpvalue)(nil)
)

func (u *ObjUpvalue) String() string { return "upvalue" }
func (*ObjUpvalue) Type() string     { return "upvalue" }

func (u *ObjUpvalue) isOpen() bool { return u.Location != &u.Closed }

func (u *ObjUpvalue) close() {
	u.Closed = *u.Location
	u.Location = &u.Closed
}

// ObjClosure pairs a compiled Function with the upvalues it captured at
// creation time. len(Upvalues) always equals Function.UpvalueCount.
type ObjClosure struct {
	objHeader
	Function *ObjFunction
	Upvalues []*ObjUpvalue
}

var (
	_ Value = (*ObjClosure)(nil)
	_ Obj   = (*ObjClosure)(nil)
)

func (c *ObjClosure) String() string { return c.Function.String() }
func (*ObjClosure) Type() string     { return "closure" }

func NewClosure(fn *ObjFunction) *ObjClosure {
	return &ObjClosure{Function: fn, Upvalues: make([]*ObjUpvalue, fn.UpvalueCount)}
}
