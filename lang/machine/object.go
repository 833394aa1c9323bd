package machine

// Obj is implemented by every heap-allocated value. It carries a shared
// header: a mark bit for the collector and an intrusive link to the next
// object on the heap, so the collector can sweep the whole heap without a
// separate registry.
type Obj interface {
	Value
	header() *objHeader
}

// objHeader is the common prefix embedded in every concrete object type,
// playing the role of clox's `Obj` struct (tag + mark bit + intrusive
// `next` pointer). Go gives us the "tag" for free via the dynamic type held
// in an Obj interface value, so objHeader only needs the mark bit and the
// linked-list pointer.
type objHeader struct {
	marked bool
	next   Obj
}

func (h *objHeader) header() *objHeader { return h }

// asObj is a tiny helper that type-asserts a Value down to Obj, reporting
// whether the Value is heap-allocated at all.
func asObj(v Value) (Obj, bool) {
	o, ok := v.(Obj)
	return o, ok
}
