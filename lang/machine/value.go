// Package machine is the runtime half of Ember: the tagged Value model, the
// heap object variants, the open-addressed Table, the mark-sweep garbage
// collector, the bytecode Chunk and Opcode set, and the stack-based virtual
// machine that executes it. The object model and the bytecode constant pool
// are tightly coupled — a Function object owns a Chunk, and a Chunk's
// constant pool can hold Function and String objects — so both halves of
// that cycle live in one package, and the compiler package depends on this
// one rather than the other way around.
package machine

import (
	"fmt"
	"math"
)

// Value is any value the virtual machine can hold on its stack, store in a
// local, global, field, or upvalue, or place in a Chunk's constant pool. It
// is implemented by Nil, Bool, Number, and every heap Object variant.
type Value interface {
	String() string
	Type() string
}

// Nil is the value of the "nil" literal. There is exactly one Nil value.
type Nil struct{}

func (Nil) String() string { return "nil" }
func (Nil) Type() string   { return "nil" }

// NilValue is the singleton Nil value, returned wherever the VM or compiler
// needs "no value" (e.g. an implicit function return).
var NilValue = Nil{}

// Bool is a boolean value.
type Bool bool

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (Bool) Type() string { return "bool" }

// Number is a double-precision float, the language's only numeric type.
type Number float64

func (n Number) String() string { return formatNumber(float64(n)) }
func (Number) Type() string     { return "number" }

// formatNumber renders n with Go's %g verb: the shortest decimal
// representation that round-trips back to n (C's printf("%g") instead
// rounds to six significant digits), with infinities and NaN spelled
// "inf", "-inf" and "nan".
func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return fmt.Sprintf("%g", n)
}

// IsFalsey reports the language's truthiness rule: nil and false are
// falsey, everything else — including 0 and the empty string — is truthy.
func IsFalsey(v Value) bool {
	switch v := v.(type) {
	case Nil:
		return true
	case Bool:
		return !bool(v)
	default:
		return false
	}
}

// Equal implements the language's Value equality: structural for nil/bool,
// IEEE-754 equality for Number (so NaN != NaN and -0.0 == 0.0, exactly what
// Go's built-in float64 == already gives us), and identity for every heap
// Object — which is sound for Strings only because they are interned (see
// InternCopy/InternTake in alloc.go): two strings with equal content are always the same
// *ObjString, so pointer identity and content equality coincide.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case Nil:
		_, ok := b.(Nil)
		return ok
	case Bool:
		bb, ok := b.(Bool)
		return ok && a == bb
	case Number:
		bb, ok := b.(Number)
		return ok && float64(a) == float64(bb)
	default:
		return a == b
	}
}
