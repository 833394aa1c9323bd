package machine

// callValue dispatches OP_CALL against whatever kind of value sits at the
// callee slot.
func (vm *VM) callValue(callee Value, argCount int) bool {
	switch c := callee.(type) {
	case *ObjClosure:
		return vm.callClosure(c, argCount)

	case *ObjNative:
		args := vm.stack[vm.stackTop-argCount : vm.stackTop]
		result := c.Fn(args)
		vm.stackTop -= argCount + 1
		vm.Push(result)
		return true

	case *ObjClass:
		vm.stack[vm.stackTop-argCount-1] = vm.Heap.NewInstance(c)
		if initVal, ok := c.Methods.Get(vm.initString); ok {
			return vm.callClosure(initVal.(*ObjClosure), argCount)
		}
		if argCount != 0 {
			vm.lastCallError = vm.runtimeError("Expected 0 arguments but got %d.", argCount)
			return false
		}
		return true

	case *ObjBoundMethod:
		vm.stack[vm.stackTop-argCount-1] = c.Receiver
		return vm.callClosure(c.Method, argCount)

	default:
		vm.lastCallError = vm.runtimeError("Can only call functions and classes.")
		return false
	}
}

func (vm *VM) callClosure(closure *ObjClosure, argCount int) bool {
	if argCount != closure.Function.Arity {
		vm.lastCallError = vm.runtimeError("Expected %d arguments but got %d.", closure.Function.Arity, argCount)
		return false
	}
	if vm.frameCount == FramesMax {
		vm.lastCallError = vm.runtimeError("Stack overflow.")
		return false
	}
	frame := &vm.frames[vm.frameCount]
	vm.frameCount++
	frame.closure = closure
	frame.ip = 0
	frame.slotsBase = vm.stackTop - argCount - 1
	return true
}

// invoke fuses "get the field or method named name off the receiver at
// stack depth argCount, then call it with argCount arguments" into one
// step: a field holding a callable wins over a method of the same name.
func (vm *VM) invoke(name *ObjString, argCount int) bool {
	receiver, ok := vm.peek(argCount).(*ObjInstance)
	if !ok {
		vm.lastCallError = vm.runtimeError("Only instances have methods.")
		return false
	}
	if v, ok := receiver.Fields.Get(name); ok {
		vm.stack[vm.stackTop-argCount-1] = v
		return vm.callValue(v, argCount)
	}
	return vm.invokeFromClass(receiver.Class, name, argCount)
}

func (vm *VM) invokeFromClass(class *ObjClass, name *ObjString, argCount int) bool {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		vm.lastCallError = vm.runtimeError("Undefined property '%s'.", name.Chars)
		return false
	}
	return vm.callClosure(methodVal.(*ObjClosure), argCount)
}

// bindMethod looks method up on class and, if found, wraps it with the
// current stack-top receiver (the caller is responsible for popping the
// receiver and pushing the bound method in its place).
func (vm *VM) bindMethod(class *ObjClass, name *ObjString) (*ObjBoundMethod, bool) {
	methodVal, ok := class.Methods.Get(name)
	if !ok {
		return nil, false
	}
	return vm.Heap.NewBoundMethod(vm.peek(0), methodVal.(*ObjClosure)), true
}

func (vm *VM) defineMethod(name *ObjString) {
	method := vm.peek(0).(*ObjClosure)
	class := vm.peek(1).(*ObjClass)
	class.Methods.Set(name, method)
	vm.Pop()
}

// captureUpvalue returns the open upvalue for the given absolute stack
// slot, creating and inserting one in descending-slot order (no duplicate
// slots) if none exists yet.
func (vm *VM) captureUpvalue(absoluteSlot int) *ObjUpvalue {
	var prev *ObjUpvalue
	cur := vm.openUpvalues
	for cur != nil && cur.slot > absoluteSlot {
		prev = cur
		cur = cur.Next
	}
	if cur != nil && cur.slot == absoluteSlot {
		return cur
	}

	created := vm.Heap.NewUpvalue(absoluteSlot, &vm.stack[absoluteSlot])
	created.Next = cur
	if prev == nil {
		vm.openUpvalues = created
	} else {
		prev.Next = created
	}
	return created
}

// closeUpvalues closes every open upvalue pointing at or above
// lastAbsoluteSlot, copying its current value onto the heap and unlinking
// it from the open list.
func (vm *VM) closeUpvalues(lastAbsoluteSlot int) {
	for vm.openUpvalues != nil && vm.openUpvalues.slot >= lastAbsoluteSlot {
		uv := vm.openUpvalues
		uv.close()
		vm.openUpvalues = uv.Next
	}
}
