package machine

import (
	"fmt"
	"io"
	"os"
)

const (
	FramesMax = 64
	StackMax  = FramesMax * 256
)

// CallFrame is a per-invocation record: which Closure is running, the
// program counter into its Chunk, and the base stack slot its locals start
// at (slot 0 of a frame is always the callee itself).
type CallFrame struct {
	closure   *ObjClosure
	ip        int
	slotsBase int
}

// VM is the stack-based virtual machine that executes compiled bytecode.
// One VM instance persists across an entire REPL session (or a single file run),
// which is exactly why its Heap's GC roots must include everything it
// currently holds live: the value stack, the frame stack, globals, open
// upvalues and the cached "init" string.
type VM struct {
	Heap    *Heap
	Stdout  io.Writer
	Globals *Table

	stack      [StackMax]Value
	stackTop   int
	frames     [FramesMax]CallFrame
	frameCount int

	openUpvalues *ObjUpvalue
	initString   *ObjString

	// lastCallError carries the error built by callValue/invoke/
	// invokeFromClass when they return false, since the run loop's dispatch
	// can only check a bool inline without awkward multi-value plumbing
	// through every OP_CALL-family case.
	lastCallError error
}

// New returns a VM with a fresh Heap, globals table, and the "clock"
// native already registered in globals.
func New() *VM {
	h := NewHeap()
	vm := &VM{
		Heap:    h,
		Stdout:  os.Stdout,
		Globals: NewTable(),
	}
	h.PushRootSource(vm.markRoots)
	vm.initString = h.InternCopy("init")
	registerNatives(vm)
	return vm
}

func (vm *VM) markRoots(mark func(Value)) {
	for i := 0; i < vm.stackTop; i++ {
		mark(vm.stack[i])
	}
	for i := 0; i < vm.frameCount; i++ {
		mark(vm.frames[i].closure)
	}
	for uv := vm.openUpvalues; uv != nil; uv = uv.Next {
		mark(uv)
	}
	vm.Globals.Each(func(k *ObjString, v Value) {
		mark(k)
		mark(v)
	})
	if vm.initString != nil {
		mark(vm.initString)
	}
}

// Push and Pop satisfy the rootStack interface Chunk.AddConstant needs, and
// are also exactly the stack primitives the run loop itself uses.
func (vm *VM) Push(v Value) {
	vm.stack[vm.stackTop] = v
	vm.stackTop++
}

func (vm *VM) Pop() Value {
	vm.stackTop--
	return vm.stack[vm.stackTop]
}

func (vm *VM) peek(distance int) Value {
	return vm.stack[vm.stackTop-1-distance]
}

// StackDepth and FrameDepth expose the value stack depth and call frame
// count, both of which should read 0 once run returns after a successful
// top-level Interpret.
func (vm *VM) StackDepth() int { return vm.stackTop }
func (vm *VM) FrameDepth() int { return vm.frameCount }

// Interpret runs fn (the top-level Function produced by the compiler) to
// completion. It resets the stack and frame count first so that a prior
// runtime error in a REPL session cannot leave the VM in a bad state for
// the next line.
func (vm *VM) Interpret(fn *ObjFunction) (Value, error) {
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil

	closure := vm.Heap.NewClosure(fn)
	vm.Push(closure)
	vm.callClosure(closure, 0)

	return vm.run()
}

func (vm *VM) runtimeError(format string, args ...interface{}) *RuntimeError {
	msg := fmt.Sprintf(format, args...)
	trace := make([]TraceFrame, 0, vm.frameCount)
	for i := vm.frameCount - 1; i >= 0; i-- {
		fr := &vm.frames[i]
		fn := fr.closure.Function
		line := 0
		if fr.ip-1 >= 0 && fr.ip-1 < len(fn.Chunk.Lines) {
			line = fn.Chunk.Lines[fr.ip-1]
		}
		name := "script"
		if fn.Name != nil {
			name = fn.Name.Chars + "()"
		}
		trace = append(trace, TraceFrame{Line: line, FuncName: name})
	}
	vm.stackTop = 0
	vm.frameCount = 0
	vm.openUpvalues = nil
	return &RuntimeError{Message: msg, Trace: trace}
}

func (vm *VM) run() (Value, error) {
	frame := &vm.frames[vm.frameCount-1]

	readByte := func() byte {
		b := frame.closure.Function.Chunk.Code[frame.ip]
		frame.ip++
		return b
	}
	readShort := func() int {
		hi := frame.closure.Function.Chunk.Code[frame.ip]
		lo := frame.closure.Function.Chunk.Code[frame.ip+1]
		frame.ip += 2
		return int(hi)<<8 | int(lo)
	}
	readConstant := func() Value {
		return frame.closure.Function.Chunk.Constants[readByte()]
	}
	readString := func() *ObjString {
		return readConstant().(*ObjString)
	}

	for {
		op := Opcode(readByte())
		switch op {
		case OpConstant:
			vm.Push(readConstant())

		case OpNil:
			vm.Push(NilValue)
		case OpTrue:
			vm.Push(Bool(true))
		case OpFalse:
			vm.Push(Bool(false))
		case OpPop:
			vm.Pop()

		case OpGetLocal:
			slot := int(readByte())
			vm.Push(vm.stack[frame.slotsBase+slot])
		case OpSetLocal:
			slot := int(readByte())
			vm.stack[frame.slotsBase+slot] = vm.peek(0)

		case OpGetGlobal:
			name := readString()
			v, ok := vm.Globals.Get(name)
			if !ok {
				return nil, vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}
			vm.Push(v)
		case OpDefineGlobal:
			name := readString()
			vm.Globals.Set(name, vm.peek(0))
			vm.Pop()
		case OpDefineGlobalIfAbsent:
			name := readString()
			if _, ok := vm.Globals.Get(name); !ok {
				vm.Globals.Set(name, vm.peek(0))
			}
			vm.Pop()
		case OpSetGlobal:
			name := readString()
			if vm.Globals.Set(name, vm.peek(0)) {
				// define-only-if-exists: a Set on a brand new key means the
				// global didn't already exist, so undo it and error instead.
				vm.Globals.Delete(name)
				return nil, vm.runtimeError("Undefined variable '%s'.", name.Chars)
			}

		case OpGetUpvalue:
			slot := int(readByte())
			vm.Push(*frame.closure.Upvalues[slot].Location)
		case OpSetUpvalue:
			slot := int(readByte())
			*frame.closure.Upvalues[slot].Location = vm.peek(0)

		case OpGetProperty:
			inst, ok := vm.peek(0).(*ObjInstance)
			if !ok {
				return nil, vm.runtimeError("Only instances have properties.")
			}
			name := readString()
			if v, ok := inst.Fields.Get(name); ok {
				vm.Pop()
				vm.Push(v)
				break
			}
			bound, ok := vm.bindMethod(inst.Class, name)
			if !ok {
				return nil, vm.runtimeError("Undefined property '%s'.", name.Chars)
			}
			vm.Pop()
			vm.Push(bound)

		case OpSetProperty:
			inst, ok := vm.peek(1).(*ObjInstance)
			if !ok {
				return nil, vm.runtimeError("Only instances have fields.")
			}
			name := readString()
			inst.Fields.Set(name, vm.peek(0))
			v := vm.Pop()
			vm.Pop()
			vm.Push(v)

		case OpGetSuper:
			name := readString()
			super := vm.Pop().(*ObjClass)
			bound, ok := vm.bindMethod(super, name)
			if !ok {
				return nil, vm.runtimeError("Undefined property '%s'.", name.Chars)
			}
			vm.Pop()
			vm.Push(bound)

		case OpEqual:
			b := vm.Pop()
			a := vm.Pop()
			vm.Push(Bool(Equal(a, b)))
		case OpGreater:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return Bool(a > b) }); err != nil {
				return nil, err
			}
		case OpLess:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return Bool(a < b) }); err != nil {
				return nil, err
			}

		case OpAdd:
			if err := vm.add(); err != nil {
				return nil, err
			}
		case OpSubtract:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return Number(a - b) }); err != nil {
				return nil, err
			}
		case OpMultiply:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return Number(a * b) }); err != nil {
				return nil, err
			}
		case OpDivide:
			if err := vm.binaryNumberOp(func(a, b float64) Value { return Number(a / b) }); err != nil {
				return nil, err
			}

		case OpNot:
			vm.Push(Bool(IsFalsey(vm.Pop())))
		case OpNegate:
			n, ok := vm.peek(0).(Number)
			if !ok {
				return nil, vm.runtimeError("Operand must be a number.")
			}
			vm.Pop()
			vm.Push(-n)

		case OpPrint:
			fmt.Fprintln(vm.Stdout, vm.Pop().String())

		case OpJump:
			offset := readShort()
			frame.ip += offset
		case OpJumpIfFalse:
			offset := readShort()
			if IsFalsey(vm.peek(0)) {
				frame.ip += offset
			}
		case OpLoop:
			offset := readShort()
			frame.ip -= offset

		case OpCall:
			argCount := int(readByte())
			if !vm.callValue(vm.peek(argCount), argCount) {
				return nil, vm.lastCallError
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpInvoke:
			name := readString()
			argCount := int(readByte())
			if !vm.invoke(name, argCount) {
				return nil, vm.lastCallError
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpSuperInvoke:
			name := readString()
			argCount := int(readByte())
			super := vm.Pop().(*ObjClass)
			if !vm.invokeFromClass(super, name, argCount) {
				return nil, vm.lastCallError
			}
			frame = &vm.frames[vm.frameCount-1]

		case OpClosure:
			fn := readConstant().(*ObjFunction)
			closure := vm.Heap.NewClosure(fn)
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := readByte()
				index := int(readByte())
				if isLocal != 0 {
					closure.Upvalues[i] = vm.captureUpvalue(frame.slotsBase + index)
				} else {
					closure.Upvalues[i] = frame.closure.Upvalues[index]
				}
			}
			vm.Push(closure)

		case OpCloseUpvalue:
			vm.closeUpvalues(vm.stackTop - 1)
			vm.Pop()

		case OpReturn:
			result := vm.Pop()
			vm.closeUpvalues(frame.slotsBase)
			vm.frameCount--
			if vm.frameCount == 0 {
				vm.Pop()
				return result, nil
			}
			vm.stackTop = frame.slotsBase
			vm.Push(result)
			frame = &vm.frames[vm.frameCount-1]

		case OpClass:
			name := readString()
			vm.Push(vm.Heap.NewClass(name))

		case OpInherit:
			super, ok := vm.peek(1).(*ObjClass)
			if !ok {
				return nil, vm.runtimeError("Superclass must be a class.")
			}
			sub := vm.peek(0).(*ObjClass)
			super.Methods.AddAllTo(sub.Methods)
			vm.Pop() // subclass

		case OpMethod:
			name := readString()
			vm.defineMethod(name)

		default:
			return nil, vm.runtimeError("Unknown opcode %d.", byte(op))
		}
	}
}

func (vm *VM) add() error {
	b := vm.peek(0)
	a := vm.peek(1)
	switch a := a.(type) {
	case Number:
		bn, ok := b.(Number)
		if !ok {
			return vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.Pop()
		vm.Pop()
		vm.Push(a + bn)
		return nil
	case *ObjString:
		bs, ok := b.(*ObjString)
		if !ok {
			return vm.runtimeError("Operands must be two numbers or two strings.")
		}
		vm.Pop()
		vm.Pop()
		vm.Push(vm.Heap.InternTake(a.Chars + bs.Chars))
		return nil
	default:
		return vm.runtimeError("Operands must be two numbers or two strings.")
	}
}

func (vm *VM) binaryNumberOp(op func(a, b float64) Value) error {
	b, bok := vm.peek(0).(Number)
	a, aok := vm.peek(1).(Number)
	if !aok || !bok {
		return vm.runtimeError("Operands must be numbers.")
	}
	vm.Pop()
	vm.Pop()
	vm.Push(op(float64(a), float64(b)))
	return nil
}
