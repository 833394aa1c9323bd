package machine

import (
	"fmt"
	"os"
)

// Heap owns every object ever allocated by the compiler or the VM: the
// intrusive linked list of live objects, the string intern table, and the
// mark-sweep collector's byte-accounting state.
//
// Heap itself does not know how to find GC roots — those live on whichever
// VM or Compiler is currently alive, and both must be marked at once (a
// compiler can trigger GC while building the constant pool of a function
// the VM has not even seen yet, so VM roots alone would under-mark).
// Rather than import the VM or Compiler types here (which would cycle,
// since both import Heap), any owner registers a root source with
// PushRootSource and unregisters it with the returned pop function;
// Collect calls every currently-registered source in turn. This gives an
// explicit, non-global root set without needing a shared "interpreter
// context" struct that every package would otherwise import.
type Heap struct {
	objects Obj
	strings *Table

	bytesAllocated int
	nextGC         int
	gray           []Obj

	StressGC bool
	LogGC    bool

	rootSources []func(mark func(Value))
}

const initialNextGC = 1 << 20 // 1 MiB, matching clox's default threshold

// NewHeap returns an empty heap with no objects and an empty intern table.
func NewHeap() *Heap {
	return &Heap{strings: NewTable(), nextGC: initialNextGC}
}

func (h *Heap) Strings() *Table { return h.strings }

// PushRootSource registers fn as a source of GC roots until the returned
// function is called. fn is invoked with a mark callback every time Collect
// runs while it is registered.
func (h *Heap) PushRootSource(fn func(mark func(Value))) (pop func()) {
	h.rootSources = append(h.rootSources, fn)
	idx := len(h.rootSources) - 1
	return func() {
		h.rootSources = append(h.rootSources[:idx], h.rootSources[idx+1:]...)
	}
}

func (h *Heap) track(o Obj, size int) {
	hdr := o.header()
	hdr.next = h.objects
	h.objects = o
	h.bytesAllocated += size
	h.maybeCollect()
}

func (h *Heap) maybeCollect() {
	if h.StressGC || h.bytesAllocated > h.nextGC {
		h.Collect()
	}
}

// Collect runs one full mark-sweep cycle unconditionally. It is exposed so
// callers (and tests) can force a deterministic collection point in
// addition to the threshold/stress-mode triggers in maybeCollect.
func (h *Heap) Collect() {
	if h.LogGC {
		fmt.Fprintln(os.Stderr, "-- gc begin")
	}
	before := h.bytesAllocated

	for _, src := range h.rootSources {
		src(h.MarkValue)
	}
	h.traceReferences()
	h.strings.DeleteUnmarkedKeys()
	h.sweep()
	h.nextGC = h.bytesAllocated * 2
	if h.nextGC < initialNextGC {
		h.nextGC = initialNextGC
	}

	if h.LogGC {
		fmt.Fprintf(os.Stderr, "-- gc end: collected %d bytes (from %d to %d), next at %d\n",
			before-h.bytesAllocated, before, h.bytesAllocated, h.nextGC)
	}
}

// MarkValue marks v if it is a heap Object; Nil, Bool and Number need no
// marking.
func (h *Heap) MarkValue(v Value) {
	if o, ok := asObj(v); ok {
		h.MarkObject(o)
	}
}

// MarkObject grays o: if it wasn't already marked, flip its mark bit and
// push it on the gray worklist for traceReferences to blacken later.
func (h *Heap) MarkObject(o Obj) {
	if o == nil {
		return
	}
	hdr := o.header()
	if hdr.marked {
		return
	}
	hdr.marked = true
	h.gray = append(h.gray, o)
}

// traceReferences pops the gray worklist until empty, blackening each
// object by marking everything it directly references.
func (h *Heap) traceReferences() {
	for len(h.gray) > 0 {
		n := len(h.gray) - 1
		o := h.gray[n]
		h.gray = h.gray[:n]
		h.blacken(o)
	}
}

func (h *Heap) blacken(o Obj) {
	switch o := o.(type) {
	case *ObjString, *ObjNative:
		// no outgoing references
	case *ObjUpvalue:
		h.MarkValue(o.Closed)
		if o.isOpen() {
			h.MarkValue(*o.Location)
		}
	case *ObjFunction:
		if o.Name != nil {
			h.MarkObject(o.Name)
		}
		for _, c := range o.Chunk.Constants {
			h.MarkValue(c)
		}
	case *ObjClosure:
		h.MarkObject(o.Function)
		for _, uv := range o.Upvalues {
			h.MarkObject(uv)
		}
	case *ObjClass:
		h.MarkObject(o.Name)
		o.Methods.Each(func(k *ObjString, v Value) {
			h.MarkObject(k)
			h.MarkValue(v)
		})
	case *ObjInstance:
		h.MarkObject(o.Class)
		o.Fields.Each(func(k *ObjString, v Value) {
			h.MarkObject(k)
			h.MarkValue(v)
		})
	case *ObjBoundMethod:
		h.MarkValue(o.Receiver)
		h.MarkObject(o.Method)
	}
}

// sweep frees every unmarked object on the heap's linked list and clears
// the mark bit of every survivor, readying the heap for the next cycle.
func (h *Heap) sweep() {
	var prev Obj
	cur := h.objects
	for cur != nil {
		hdr := cur.header()
		if hdr.marked {
			hdr.marked = false
			prev = cur
			cur = hdr.next
			continue
		}
		unreached := cur
		cur = hdr.next
		if prev != nil {
			prev.header().next = cur
		} else {
			h.objects = cur
		}
		h.free(unreached)
	}
}

func (h *Heap) free(o Obj) {
	h.bytesAllocated -= approxSize(o)
}

// approxSize is a coarse per-object byte estimate used only to decide when
// to trigger a collection; it need not be exact, only monotonic with an
// object's real footprint.
func approxSize(o Obj) int {
	const headerSize = 16
	switch o := o.(type) {
	case *ObjString:
		return headerSize + len(o.Chars)
	case *ObjUpvalue:
		return headerSize + 8
	case *ObjFunction:
		return headerSize + len(o.Chunk.Code) + len(o.Chunk.Constants)*8
	case *ObjClosure:
		return headerSize + len(o.Upvalues)*8
	case *ObjNative:
		return headerSize
	case *ObjClass:
		return headerSize + o.Methods.Count()*16
	case *ObjInstance:
		return headerSize + o.Fields.Count()*16
	case *ObjBoundMethod:
		return headerSize
	default:
		return headerSize
	}
}
