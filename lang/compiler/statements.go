package compiler

import (
	"github.com/ember-lang/ember/lang/machine"
	"github.com/ember-lang/ember/lang/token"
)

// declaration is the entry point for every top-of-block construct: a
// variable, function, or class declaration falls through to the matching
// statement otherwise. On error it synchronizes so one bad declaration
// does not swallow the rest of the file.
func (p *parser) declaration() {
	switch {
	case p.match(token.VAR):
		p.varDeclaration()
	case p.match(token.FUN):
		p.funDeclaration()
	case p.match(token.CLASS):
		p.classDeclaration()
	default:
		p.statement()
	}
	if p.panicMode {
		p.synchronize()
	}
}

func (p *parser) statement() {
	switch {
	case p.match(token.PRINT):
		p.printStatement()
	case p.match(token.IF):
		p.ifStatement()
	case p.match(token.WHILE):
		p.whileStatement()
	case p.match(token.FOR):
		p.forStatement()
	case p.match(token.RETURN):
		p.returnStatement()
	case p.match(token.LBRACE):
		p.beginScope()
		p.block()
		p.endScope()
	default:
		p.expressionStatement()
	}
}

func (p *parser) block() {
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.declaration()
	}
	p.consume(token.RBRACE, "Expect '}' after block.")
}

func (p *parser) printStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after value.")
	p.emitOp(machine.OpPrint)
}

func (p *parser) expressionStatement() {
	p.expression()
	p.consume(token.SEMI, "Expect ';' after expression.")
	p.emitOp(machine.OpPop)
}

func (p *parser) ifStatement() {
	p.consume(token.LPAREN, "Expect '(' after 'if'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	thenJump := p.emitJump(machine.OpJumpIfFalse)
	p.emitOp(machine.OpPop)
	p.statement()

	elseJump := p.emitJump(machine.OpJump)
	p.patchJump(thenJump)
	p.emitOp(machine.OpPop)

	if p.match(token.ELSE) {
		p.statement()
	}
	p.patchJump(elseJump)
}

func (p *parser) whileStatement() {
	loopStart := len(p.chunk().Code)
	p.consume(token.LPAREN, "Expect '(' after 'while'.")
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after condition.")

	exitJump := p.emitJump(machine.OpJumpIfFalse)
	p.emitOp(machine.OpPop)
	p.statement()
	p.emitLoop(loopStart)

	p.patchJump(exitJump)
	p.emitOp(machine.OpPop)
}

// forStatement lowers a C-style for loop onto the same jump/loop primitives
// as while, with the increment clause compiled "out of order" (emitted
// once, after the body, but jumped to before it).
func (p *parser) forStatement() {
	p.beginScope()
	p.consume(token.LPAREN, "Expect '(' after 'for'.")

	switch {
	case p.match(token.SEMI):
		// no initializer
	case p.match(token.VAR):
		p.varDeclaration()
	default:
		p.expressionStatement()
	}

	loopStart := len(p.chunk().Code)
	exitJump := -1
	if !p.match(token.SEMI) {
		p.expression()
		p.consume(token.SEMI, "Expect ';' after loop condition.")
		exitJump = p.emitJump(machine.OpJumpIfFalse)
		p.emitOp(machine.OpPop)
	}

	if !p.match(token.RPAREN) {
		bodyJump := p.emitJump(machine.OpJump)
		incrStart := len(p.chunk().Code)
		p.expression()
		p.emitOp(machine.OpPop)
		p.consume(token.RPAREN, "Expect ')' after for clauses.")

		p.emitLoop(loopStart)
		loopStart = incrStart
		p.patchJump(bodyJump)
	}

	p.statement()
	p.emitLoop(loopStart)

	if exitJump != -1 {
		p.patchJump(exitJump)
		p.emitOp(machine.OpPop)
	}
	p.endScope()
}

func (p *parser) returnStatement() {
	if p.fc.kind == KindScript {
		p.error("Can't return from top-level code.")
	}
	if p.match(token.SEMI) {
		p.emitReturn()
		return
	}
	if p.fc.kind == KindInitializer {
		p.error("Can't return a value from an initializer.")
	}
	p.expression()
	p.consume(token.SEMI, "Expect ';' after return value.")
	p.emitOp(machine.OpReturn)
}

// --- variable declarations ----------------------------------------------

func (p *parser) varDeclaration() {
	isGlobal := p.fc.scopeDepth == 0
	global := p.parseVariable("Expect variable name.")

	if isGlobal {
		// Predefine the global as nil before compiling the initializer so a
		// self-referencing one (`var a = a;`) resolves instead of erroring:
		// globals permit self-reference, only locals forbid it. Using the
		// if-absent form means a second `var` for an already-defined global
		// (`var a = 1; var a = a;`) still sees its prior value while compiling
		// the initializer, instead of being clobbered to nil first.
		p.emitOp(machine.OpNil)
		p.emitOpByte(machine.OpDefineGlobalIfAbsent, global)
	}

	if p.match(token.EQ) {
		p.expression()
	} else {
		p.emitOp(machine.OpNil)
	}
	p.consume(token.SEMI, "Expect ';' after variable declaration.")
	p.defineVariable(global)
}

// parseVariable consumes the name token and, for a local, declares it
// immediately (uninitialized); for a global, returns the name's constant
// index for DefineGlobal to use later.
func (p *parser) parseVariable(msg string) byte {
	p.consume(token.IDENT, msg)
	p.declareVariable()
	if p.fc.scopeDepth > 0 {
		return 0
	}
	return p.identifierConstant(p.prev.Lexeme)
}

// declareVariable registers the current token as a new local in the
// current scope, rejecting a duplicate name at the same depth. Globals are
// not declared here; they are resolved dynamically by name at run time.
func (p *parser) declareVariable() {
	if p.fc.scopeDepth == 0 {
		return
	}
	name := p.prev.Lexeme
	for i := len(p.fc.locals) - 1; i >= 0; i-- {
		l := p.fc.locals[i]
		if l.depth != -1 && l.depth < p.fc.scopeDepth {
			break
		}
		if l.name == name {
			p.error("Already a variable with this name in this scope.")
		}
	}
	p.addLocal(name)
}

func (p *parser) addLocal(name string) {
	if len(p.fc.locals) >= maxLocals {
		p.error("Too many local variables in function.")
		return
	}
	p.fc.locals = append(p.fc.locals, local{name: name, depth: -1})
}

// markInitialized flips the most recently declared local's depth from -1
// (declared) to the current scope depth (initialized), so a subsequent
// reference to it inside its own initializer can be diagnosed.
func (p *parser) markInitialized() {
	if p.fc.scopeDepth == 0 {
		return
	}
	p.fc.locals[len(p.fc.locals)-1].depth = p.fc.scopeDepth
}

func (p *parser) defineVariable(global byte) {
	if p.fc.scopeDepth > 0 {
		p.markInitialized()
		return
	}
	p.emitOpByte(machine.OpDefineGlobal, global)
}

// --- functions ------------------------------------------------------

func (p *parser) funDeclaration() {
	global := p.parseVariable("Expect function name.")
	p.markInitialized()
	p.function(KindFunction)
	p.defineVariable(global)
}

// function compiles a complete function body (parameters through closing
// brace) in a fresh fnCompiler, then emits the enclosing OP_CLOSURE with
// its upvalue operand pairs.
func (p *parser) function(kind FunctionKind) {
	name := p.vm.Heap.InternCopy(p.prev.Lexeme)
	p.fc = newFnCompiler(p.fc, kind, name, p.vm)
	p.beginScope()

	p.consume(token.LPAREN, "Expect '(' after function name.")
	if !p.check(token.RPAREN) {
		for {
			p.fc.fn.Arity++
			if p.fc.fn.Arity > maxArguments {
				p.errorAtCurrent("Can't have more than 255 parameters.")
			}
			constant := p.parseVariable("Expect parameter name.")
			p.defineVariable(constant)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after parameters.")
	p.consume(token.LBRACE, "Expect '{' before function body.")
	p.block()

	finished := p.fc
	fn := p.endFnCompiler()
	upvalues := finished.upvalues

	constIdx := p.makeConstant(fn)
	p.emitOpByte(machine.OpClosure, constIdx)
	for _, uv := range upvalues {
		p.emitByte(boolByte(uv.isLocal))
		p.emitByte(byte(uv.index))
	}
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
