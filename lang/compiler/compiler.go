// Package compiler implements the single-pass Pratt compiler: it consumes a
// token stream from lang/scanner and emits bytecode directly into a
// lang/machine Chunk, with no intermediate AST. Locals and upvalues are
// resolved as each name is encountered, exactly the way lang/machine's VM
// expects to find them at run time.
package compiler

import (
	"fmt"

	"github.com/ember-lang/ember/lang/machine"
	"github.com/ember-lang/ember/lang/scanner"
	"github.com/ember-lang/ember/lang/token"
)

const (
	maxLocals    = 256
	maxUpvalues  = 256
	maxArguments = 255
	maxJump      = 1<<16 - 1
)

// FunctionKind distinguishes the four shapes a compiled function body can
// take, since each affects what slot 0 means and what "return" may do.
type FunctionKind int

const (
	KindScript FunctionKind = iota
	KindFunction
	KindMethod
	KindInitializer
)

type local struct {
	name       string
	depth      int // -1 means declared but not yet initialized
	isCaptured bool
}

type upvalueRef struct {
	index   int
	isLocal bool
}

// classState is one entry of the linked stack of classes currently being
// compiled. A class declared inside a method body pushes a new entry, and
// the link restores the outer class once that inner declaration ends.
type classState struct {
	enclosing     *classState
	hasSuperclass bool
}

// fnCompiler holds everything scoped to one function body being compiled:
// its own locals and upvalues, the Function it is building, and a link to
// the compiler for the lexically enclosing function (script, function, or
// method) so upvalue resolution can walk outward.
type fnCompiler struct {
	enclosing *fnCompiler
	fn        *machine.ObjFunction
	kind      FunctionKind

	locals     []local
	upvalues   []upvalueRef
	scopeDepth int
}

func newFnCompiler(enclosing *fnCompiler, kind FunctionKind, name *machine.ObjString, vm *machine.VM) *fnCompiler {
	fn := vm.Heap.NewFunction()
	fn.Name = name
	fc := &fnCompiler{enclosing: enclosing, fn: fn, kind: kind}

	// Slot 0 is reserved: "this" for methods/initializers (so `this` resolves
	// as an ordinary local), an empty-named placeholder for the callee
	// otherwise.
	slot0 := local{depth: 0}
	if kind == KindMethod || kind == KindInitializer {
		slot0.name = "this"
	}
	fc.locals = append(fc.locals, slot0)
	return fc
}

// parser is the single-pass compiler's full transient state for one
// Compile call: the token cursor, error/panic-mode bookkeeping, the chain
// of in-progress function compilers, and the chain of in-progress class
// compilers. None of this lives in package-level globals; threading an
// explicit *parser through every method means two Compile calls never share
// parser state. They do share the heap of the VM passed in, which is not
// safe for concurrent use.
type parser struct {
	sc      *scanner.Scanner
	current token.Token
	prev    token.Token

	hadError  bool
	panicMode bool

	diagnostics []string

	vm    *machine.VM
	fc    *fnCompiler
	class *classState
}

// Compile compiles source into a top-level script Function, or returns a
// *machine.CompileError listing every diagnostic collected. vm supplies the
// heap (for interning names and allocating the Function/Chunk objects) and
// doubles as the GC's value-stack root while constants are being added.
func Compile(source string, vm *machine.VM) (*machine.ObjFunction, error) {
	p := &parser{sc: scanner.New(source), vm: vm}
	p.fc = newFnCompiler(nil, KindScript, nil, vm)

	pop := vm.Heap.PushRootSource(p.markRoots)
	defer pop()

	p.advance()
	for !p.match(token.EOF) {
		p.declaration()
	}

	fn := p.endFnCompiler()
	if p.hadError {
		return nil, &machine.CompileError{Diagnostics: p.diagnostics}
	}
	return fn, nil
}

// markRoots marks the Function under construction in every fnCompiler
// currently on the chain ("every active compiler's
// Function — walk the compiler chain"). A function only becomes reachable
// from the VM once its enclosing OP_CLOSURE has run, so without this a GC
// triggered by, say, Chunk.AddConstant while compiling a deeply nested
// function body could free the very Function being built.
func (p *parser) markRoots(mark func(machine.Value)) {
	for fc := p.fc; fc != nil; fc = fc.enclosing {
		mark(fc.fn)
	}
}

// --- token stream -----------------------------------------------------

func (p *parser) advance() {
	p.prev = p.current
	for {
		p.current = p.sc.Scan()
		if p.current.Kind != token.ILLEGAL {
			break
		}
		p.errorAtCurrent(p.current.Lexeme)
	}
}

func (p *parser) check(k token.Kind) bool { return p.current.Kind == k }

func (p *parser) match(k token.Kind) bool {
	if !p.check(k) {
		return false
	}
	p.advance()
	return true
}

func (p *parser) consume(k token.Kind, msg string) {
	if p.current.Kind == k {
		p.advance()
		return
	}
	p.errorAtCurrent(msg)
}

func (p *parser) errorAtCurrent(msg string) { p.errorAt(p.current, msg) }
func (p *parser) error(msg string)          { p.errorAt(p.prev, msg) }

func (p *parser) errorAt(tok token.Token, msg string) {
	if p.panicMode {
		return
	}
	p.panicMode = true
	p.hadError = true

	// A scanner error token carries the message itself as its lexeme, so it
	// gets no "at X" part.
	where := " at '" + tok.Lexeme + "'"
	switch tok.Kind {
	case token.EOF:
		where = " at end"
	case token.ILLEGAL:
		where = ""
	}
	p.diagnostics = append(p.diagnostics, fmt.Sprintf("[line %d] Error%s: %s", tok.Line, where, msg))
}

// synchronize advances past the current error to the next likely statement
// boundary, so compilation keeps going and can surface later diagnostics
// too: it surfaces every diagnostic instead of aborting at the first one.
func (p *parser) synchronize() {
	p.panicMode = false
	for p.current.Kind != token.EOF {
		if p.prev.Kind == token.SEMI {
			return
		}
		switch p.current.Kind {
		case token.CLASS, token.FUN, token.VAR, token.FOR, token.IF, token.WHILE, token.PRINT, token.RETURN:
			return
		}
		p.advance()
	}
}

// --- bytecode emission -------------------------------------------------

func (p *parser) chunk() *machine.Chunk { return p.fc.fn.Chunk }

func (p *parser) emitByte(b byte)          { p.chunk().Write(b, p.prev.Line) }
func (p *parser) emitOp(op machine.Opcode) { p.chunk().WriteOp(op, p.prev.Line) }

func (p *parser) emitBytes(a, b byte) {
	p.emitByte(a)
	p.emitByte(b)
}

func (p *parser) emitOpByte(op machine.Opcode, b byte) {
	p.emitOp(op)
	p.emitByte(b)
}

// emitJump writes op followed by a two-byte placeholder offset and returns
// the offset of the first placeholder byte, to be patched once the jump
// target is known.
func (p *parser) emitJump(op machine.Opcode) int {
	p.emitOp(op)
	p.emitByte(0xff)
	p.emitByte(0xff)
	return len(p.chunk().Code) - 2
}

// patchJump backpatches the two-byte operand at offset with the distance
// from just past it to the current code position.
func (p *parser) patchJump(offset int) {
	jump := len(p.chunk().Code) - offset - 2
	if jump > maxJump {
		p.error("Too much code to jump over.")
		return
	}
	p.chunk().Code[offset] = byte(jump >> 8)
	p.chunk().Code[offset+1] = byte(jump)
}

// emitLoop emits OP_LOOP with the backward offset to loopStart.
func (p *parser) emitLoop(loopStart int) {
	p.emitOp(machine.OpLoop)
	offset := len(p.chunk().Code) - loopStart + 2
	if offset > maxJump {
		p.error("Loop body too large.")
		return
	}
	p.emitByte(byte(offset >> 8))
	p.emitByte(byte(offset))
}

func (p *parser) emitReturn() {
	if p.fc.kind == KindInitializer {
		// "Initializer always returns this": load slot 0 instead of nil.
		p.emitOpByte(machine.OpGetLocal, 0)
	} else {
		p.emitOp(machine.OpNil)
	}
	p.emitOp(machine.OpReturn)
}

// makeConstant pools value in the current chunk and returns its index as a
// single operand byte, enforcing a 256-entry constant pool cap.
func (p *parser) makeConstant(value machine.Value) byte {
	idx := p.chunk().AddConstant(p.vm, value)
	if idx > 255 {
		p.error("Too many constants in one chunk.")
		return 0
	}
	return byte(idx)
}

func (p *parser) emitConstant(value machine.Value) {
	p.emitOpByte(machine.OpConstant, p.makeConstant(value))
}

// identifierConstant interns name and pools it as a constant, for use as
// the operand of any name-carrying opcode (globals, properties, methods).
func (p *parser) identifierConstant(name string) byte {
	return p.makeConstant(p.vm.Heap.InternCopy(name))
}

// endFnCompiler seals the current function (emitting its implicit return if
// the body fell off the end), restores the enclosing compiler, and returns
// the finished Function. The caller is responsible for emitting the
// OP_CLOSURE that makes it available to the enclosing function, since that
// requires the just-finished fnCompiler's upvalue list, which is gone once
// p.fc has been restored here.
func (p *parser) endFnCompiler() *machine.ObjFunction {
	p.emitReturn()
	fn := p.fc.fn
	fn.UpvalueCount = len(p.fc.upvalues)

	enclosing := p.fc.enclosing
	if enclosing != nil {
		p.fc = enclosing
	}
	return fn
}

// --- scopes -------------------------------------------------------------

func (p *parser) beginScope() { p.fc.scopeDepth++ }

// endScope pops every local that belongs to the scope just exited. A local
// that was captured by a closure is instead moved to the heap with
// OP_CLOSE_UPVALUE so the closure keeps seeing updates after its owning
// frame is gone.
func (p *parser) endScope() {
	p.fc.scopeDepth--
	locals := p.fc.locals
	for len(locals) > 0 && locals[len(locals)-1].depth > p.fc.scopeDepth {
		if locals[len(locals)-1].isCaptured {
			p.emitOp(machine.OpCloseUpvalue)
		} else {
			p.emitOp(machine.OpPop)
		}
		locals = locals[:len(locals)-1]
	}
	p.fc.locals = locals
}
