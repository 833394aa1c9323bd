package machine

// ObjClass is a class declaration: its name and its method table, mapping
// method-name Strings to the Closures that implement them. Single
// inheritance is implemented by copying the superclass's method table into
// the subclass's at the OP_INHERIT instruction (see vm.go), so method
// lookup on an instance never has to walk a class hierarchy at call time.
type ObjClass struct {
	objHeader
	Name    *ObjString
	Methods *Table
}

var (
	_ Value = (*ObjClass)(nil)
	_ Obj   = (*ObjClass)(nil)
)

func (c *ObjClass) String() string { return c.Name.Chars }
func (*ObjClass) Type() string     { return "class" }

func NewClass(name *ObjString) *ObjClass {
	return &ObjClass{Name: name, Methods: NewTable()}
}

// ObjInstance is a runtime instance of a class: a reference to its class
// plus an open-addressed table of its fields.
type ObjInstance struct {
	objHeader
	Class  *ObjClass
	Fields *Table
}

var (
	_ Value = (*ObjInstance)(nil)
	_ Obj   = (*ObjInstance)(nil)
)

func (i *ObjInstance) String() string { return i.Class.Name.Chars + " instance" }
func (*ObjInstance) Type() string     { return "instance" }

func NewInstance(class *ObjClass) *ObjInstance {
	return &ObjInstance{Class: class, Fields: NewTable()}
}

// ObjBoundMethod pairs a receiver Value with the Closure it should be
// invoked against, produced when a method is accessed (but not
// immediately invoked via OP_INVOKE) as `instance.method`.
type ObjBoundMethod struct {
	objHeader
	Receiver Value
	Method   *ObjClosure
}

var (
	_ Value = (*ObjBoundMethod)(nil)
	_ Obj   = (*ObjBoundMethod)(nil)
)

func (b *ObjBoundMethod) String() string { return b.Method.String() }
func (*ObjBoundMethod) Type() string     { return "bound method" }
