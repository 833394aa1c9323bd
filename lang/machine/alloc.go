package machine

// HashString exposes the FNV-1a hash used for string interning so callers
// that need to probe the intern table without allocating (e.g. looking up
// a compile-time constant that might already exist) can compute it.
func HashString(s string) uint32 { return fnv1a32(s) }

// InternCopy returns the interned *ObjString for s, allocating and
// interning a new one if no equal-content string already exists. The
// caller still owns s (e.g. a token lexeme slice into the source buffer);
// Ember makes its own copy only if one doesn't already exist.
func (h *Heap) InternCopy(s string) *ObjString {
	hash := fnv1a32(s)
	if existing := h.strings.FindString(s, hash); existing != nil {
		return existing
	}
	return h.internNew(s, hash)
}

// InternTake returns the interned *ObjString for s, exactly like
// InternCopy, but documents that the caller is transferring ownership of a
// freshly-built string (e.g. the result of concatenation) rather than
// borrowing one that outlives the call. When s is already interned, the
// freshly-built string is simply discarded in favor of the canonical one —
// Go's GC (not Ember's) reclaims it since nothing keeps it reachable.
func (h *Heap) InternTake(s string) *ObjString {
	hash := fnv1a32(s)
	if existing := h.strings.FindString(s, hash); existing != nil {
		return existing
	}
	return h.internNew(s, hash)
}

func (h *Heap) internNew(s string, hash uint32) *ObjString {
	str := &ObjString{Chars: s, Hash: hash}
	h.track(str, len(s)+16)
	// Mark str for the duration of the table insertion below, then clear the
	// bit again. Set grows the table with make rather than through track, so
	// the insertion itself never starts a collection.
	str.marked = true
	h.strings.Set(str, NilValue)
	str.marked = false
	return str
}

func (h *Heap) NewFunction() *ObjFunction {
	fn := NewFunction()
	h.track(fn, 64)
	return fn
}

func (h *Heap) NewClosure(fn *ObjFunction) *ObjClosure {
	c := NewClosure(fn)
	h.track(c, 32+len(c.Upvalues)*8)
	return c
}

func (h *Heap) NewUpvalue(slot int, location *Value) *ObjUpvalue {
	uv := &ObjUpvalue{Location: location, slot: slot}
	h.track(uv, 24)
	return uv
}

func (h *Heap) NewNative(name string, fn NativeFn) *ObjNative {
	n := &ObjNative{Name: name, Fn: fn}
	h.track(n, 24)
	return n
}

func (h *Heap) NewClass(name *ObjString) *ObjClass {
	c := NewClass(name)
	h.track(c, 32)
	return c
}

func (h *Heap) NewInstance(class *ObjClass) *ObjInstance {
	i := NewInstance(class)
	h.track(i, 32)
	return i
}

func (h *Heap) NewBoundMethod(receiver Value, method *ObjClosure) *ObjBoundMethod {
	b := &ObjBoundMethod{Receiver: receiver, Method: method}
	h.track(b, 24)
	return b
}
