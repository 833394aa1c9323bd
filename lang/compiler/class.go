package compiler

import (
	"github.com/ember-lang/ember/lang/machine"
	"github.com/ember-lang/ember/lang/token"
)

// classDeclaration compiles `class Name [< Super] { methods... }`: the
// class itself is emitted and bound like any other variable before its
// body is compiled, so methods can reference the class by name (including
// recursively).
func (p *parser) classDeclaration() {
	p.consume(token.IDENT, "Expect class name.")
	className := p.prev
	nameConst := p.identifierConstant(className.Lexeme)
	p.declareVariable()

	p.emitOpByte(machine.OpClass, nameConst)
	p.defineVariable(nameConst)

	cs := &classState{enclosing: p.class}
	p.class = cs

	if p.match(token.LT) {
		p.consume(token.IDENT, "Expect superclass name.")
		superName := p.prev
		if superName.Lexeme == className.Lexeme {
			p.error("A class can't inherit from itself.")
		}
		p.variable(false)

		p.beginScope()
		p.addLocal("super")
		p.defineVariable(0)

		p.namedVariable(className, false)
		p.emitOp(machine.OpInherit)
		cs.hasSuperclass = true
	}

	p.namedVariable(className, false)
	p.consume(token.LBRACE, "Expect '{' before class body.")
	for !p.check(token.RBRACE) && !p.check(token.EOF) {
		p.method()
	}
	p.consume(token.RBRACE, "Expect '}' after class body.")
	p.emitOp(machine.OpPop)

	if cs.hasSuperclass {
		p.endScope()
	}
	p.class = cs.enclosing
}

func (p *parser) method() {
	p.consume(token.IDENT, "Expect method name.")
	name := p.prev.Lexeme
	nameConst := p.identifierConstant(name)

	kind := KindMethod
	if name == "init" {
		kind = KindInitializer
	}
	p.function(kind)
	p.emitOpByte(machine.OpMethod, nameConst)
}

func (p *parser) this_(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'this' outside of a class.")
		return
	}
	p.variable(false)
}

// super_ compiles `super.name` (OP_GET_SUPER) or `super.name(...)`
// (fused OP_SUPER_INVOKE), pushing the receiver `this` and the captured
// `super` upvalue/local first.
func (p *parser) super_(canAssign bool) {
	if p.class == nil {
		p.error("Can't use 'super' outside of a class.")
	} else if !p.class.hasSuperclass {
		p.error("Can't use 'super' in a class with no superclass.")
	}

	p.consume(token.DOT, "Expect '.' after 'super'.")
	p.consume(token.IDENT, "Expect superclass method name.")
	name := p.identifierConstant(p.prev.Lexeme)

	p.namedVariable(token.Token{Kind: token.IDENT, Lexeme: "this"}, false)
	if p.match(token.LPAREN) {
		argCount := p.argumentList()
		p.namedVariable(token.Token{Kind: token.IDENT, Lexeme: "super"}, false)
		p.emitOp(machine.OpSuperInvoke)
		p.emitByte(name)
		p.emitByte(argCount)
	} else {
		p.namedVariable(token.Token{Kind: token.IDENT, Lexeme: "super"}, false)
		p.emitOp(machine.OpGetSuper)
		p.emitByte(name)
	}
}
