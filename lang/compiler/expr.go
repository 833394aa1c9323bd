package compiler

import (
	"strconv"

	"github.com/ember-lang/ember/lang/machine"
	"github.com/ember-lang/ember/lang/token"
)

// precedence orders binding power from loosest to tightest.
type precedence int

const (
	precNone       precedence = iota
	precAssignment            // =
	precOr                    // or
	precAnd                   // and
	precEquality              // == !=
	precComparison            // < > <= >=
	precTerm                  // + -
	precFactor                // * /
	precUnary                 // ! -
	precCall                  // . ()
	precPrimary
)

type parseFn func(p *parser, canAssign bool)

type rule struct {
	prefix     parseFn
	infix      parseFn
	precedence precedence
}

// rules is the static Pratt table: one row per token kind, giving its
// prefix parse function (if it can start an expression), its infix parse
// function (if it can continue one), and the precedence of that infix use.
var rules = map[token.Kind]rule{
	token.LPAREN:   {prefix: (*parser).grouping, infix: (*parser).call, precedence: precCall},
	token.DOT:      {infix: (*parser).dot, precedence: precCall},
	token.MINUS:    {prefix: (*parser).unary, infix: (*parser).binary, precedence: precTerm},
	token.PLUS:     {infix: (*parser).binary, precedence: precTerm},
	token.SLASH:    {infix: (*parser).binary, precedence: precFactor},
	token.STAR:     {infix: (*parser).binary, precedence: precFactor},
	token.BANG:     {prefix: (*parser).unary},
	token.BANG_EQ:  {infix: (*parser).binary, precedence: precEquality},
	token.EQ_EQ:    {infix: (*parser).binary, precedence: precEquality},
	token.GT:       {infix: (*parser).binary, precedence: precComparison},
	token.GT_EQ:    {infix: (*parser).binary, precedence: precComparison},
	token.LT:       {infix: (*parser).binary, precedence: precComparison},
	token.LT_EQ:    {infix: (*parser).binary, precedence: precComparison},
	token.IDENT:    {prefix: (*parser).variable},
	token.STRING:   {prefix: (*parser).string},
	token.NUMBER:   {prefix: (*parser).number},
	token.AND:      {infix: (*parser).and_, precedence: precAnd},
	token.OR:       {infix: (*parser).or_, precedence: precOr},
	token.FALSE:    {prefix: (*parser).literal},
	token.TRUE:     {prefix: (*parser).literal},
	token.NIL:      {prefix: (*parser).literal},
	token.THIS:     {prefix: (*parser).this_},
	token.SUPER:    {prefix: (*parser).super_},
}

func getRule(k token.Kind) rule { return rules[k] }

func (p *parser) expression() { p.parsePrecedence(precAssignment) }

// parsePrecedence is the heart of the Pratt parser: dispatch the current
// token's prefix rule, then keep consuming infix operators whose
// precedence is at least min.
func (p *parser) parsePrecedence(min precedence) {
	p.advance()
	prefix := getRule(p.prev.Kind).prefix
	if prefix == nil {
		p.error("Expect expression.")
		return
	}

	canAssign := min <= precAssignment
	prefix(p, canAssign)

	for min <= getRule(p.current.Kind).precedence {
		p.advance()
		infix := getRule(p.prev.Kind).infix
		infix(p, canAssign)
	}

	if canAssign && p.match(token.EQ) {
		p.error("Invalid assignment target.")
	}
}

func (p *parser) grouping(canAssign bool) {
	p.expression()
	p.consume(token.RPAREN, "Expect ')' after expression.")
}

func (p *parser) number(canAssign bool) {
	n, err := strconv.ParseFloat(p.prev.Lexeme, 64)
	if err != nil {
		p.error("Invalid number literal.")
		return
	}
	p.emitConstant(machine.Number(n))
}

func (p *parser) string(canAssign bool) {
	// Lexeme includes the surrounding quotes; strip them.
	raw := p.prev.Lexeme
	p.emitConstant(p.vm.Heap.InternCopy(raw[1 : len(raw)-1]))
}

func (p *parser) literal(canAssign bool) {
	switch p.prev.Kind {
	case token.FALSE:
		p.emitOp(machine.OpFalse)
	case token.TRUE:
		p.emitOp(machine.OpTrue)
	case token.NIL:
		p.emitOp(machine.OpNil)
	}
}

func (p *parser) unary(canAssign bool) {
	op := p.prev.Kind
	p.parsePrecedence(precUnary)
	switch op {
	case token.BANG:
		p.emitOp(machine.OpNot)
	case token.MINUS:
		p.emitOp(machine.OpNegate)
	}
}

func (p *parser) binary(canAssign bool) {
	op := p.prev.Kind
	r := getRule(op)
	p.parsePrecedence(r.precedence + 1)

	switch op {
	case token.BANG_EQ:
		p.emitOp(machine.OpEqual)
		p.emitOp(machine.OpNot)
	case token.EQ_EQ:
		p.emitOp(machine.OpEqual)
	case token.GT:
		p.emitOp(machine.OpGreater)
	case token.GT_EQ:
		p.emitOp(machine.OpLess)
		p.emitOp(machine.OpNot)
	case token.LT:
		p.emitOp(machine.OpLess)
	case token.LT_EQ:
		p.emitOp(machine.OpGreater)
		p.emitOp(machine.OpNot)
	case token.PLUS:
		p.emitOp(machine.OpAdd)
	case token.MINUS:
		p.emitOp(machine.OpSubtract)
	case token.STAR:
		p.emitOp(machine.OpMultiply)
	case token.SLASH:
		p.emitOp(machine.OpDivide)
	}
}

// and_ and or_ compile the short-circuiting forms directly as jumps rather
// than as calls to emitted boolean logic.
func (p *parser) and_(canAssign bool) {
	endJump := p.emitJump(machine.OpJumpIfFalse)
	p.emitOp(machine.OpPop)
	p.parsePrecedence(precAnd)
	p.patchJump(endJump)
}

func (p *parser) or_(canAssign bool) {
	elseJump := p.emitJump(machine.OpJumpIfFalse)
	endJump := p.emitJump(machine.OpJump)
	p.patchJump(elseJump)
	p.emitOp(machine.OpPop)
	p.parsePrecedence(precOr)
	p.patchJump(endJump)
}

// call compiles a `(`-started argument list against whatever callee
// expression already sits on the stack, emitting plain OP_CALL (property
// calls are instead fused into OP_INVOKE by dot, below).
func (p *parser) call(canAssign bool) {
	argCount := p.argumentList()
	p.emitOpByte(machine.OpCall, argCount)
}

func (p *parser) argumentList() byte {
	var count int
	if !p.check(token.RPAREN) {
		for {
			p.expression()
			if count == maxArguments {
				p.error("Can't have more than 255 arguments.")
			}
			count++
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	p.consume(token.RPAREN, "Expect ')' after arguments.")
	return byte(count)
}

// dot compiles `.name`, fusing a trailing call into OP_INVOKE and an
// assignment into OP_SET_PROPERTY; a bare property read/reference emits
// OP_GET_PROPERTY.
func (p *parser) dot(canAssign bool) {
	p.consume(token.IDENT, "Expect property name after '.'.")
	name := p.identifierConstant(p.prev.Lexeme)

	switch {
	case canAssign && p.match(token.EQ):
		p.expression()
		p.emitOpByte(machine.OpSetProperty, name)
	case p.match(token.LPAREN):
		argCount := p.argumentList()
		p.emitOp(machine.OpInvoke)
		p.emitByte(name)
		p.emitByte(argCount)
	default:
		p.emitOpByte(machine.OpGetProperty, name)
	}
}

func (p *parser) variable(canAssign bool) { p.namedVariable(p.prev, canAssign) }

// namedVariable resolves name against locals, then upvalues, then falls
// back to a global, and emits the matching get/set opcode.
func (p *parser) namedVariable(name token.Token, canAssign bool) {
	var getOp, setOp machine.Opcode
	arg := p.resolveLocal(p.fc, name.Lexeme)
	if arg != -1 {
		getOp, setOp = machine.OpGetLocal, machine.OpSetLocal
	} else if arg = p.resolveUpvalue(p.fc, name.Lexeme); arg != -1 {
		getOp, setOp = machine.OpGetUpvalue, machine.OpSetUpvalue
	} else {
		arg = int(p.identifierConstant(name.Lexeme))
		getOp, setOp = machine.OpGetGlobal, machine.OpSetGlobal
	}

	if canAssign && p.match(token.EQ) {
		p.expression()
		p.emitOpByte(setOp, byte(arg))
	} else {
		p.emitOpByte(getOp, byte(arg))
	}
}

// resolveLocal walks fc's locals backward (so shadowing in nested blocks
// finds the innermost declaration first) and returns its slot, or -1 if
// name is not a local of fc.
func (p *parser) resolveLocal(fc *fnCompiler, name string) int {
	for i := len(fc.locals) - 1; i >= 0; i-- {
		if fc.locals[i].name == name {
			if fc.locals[i].depth == -1 {
				p.error("Can't read local variable in its own initializer.")
			}
			return i
		}
	}
	return -1
}

// resolveUpvalue recursively walks the enclosing compiler chain looking
// for name as a local; the first hit marks that local captured, and every
// intermediate compiler on the way back out records an indirect upvalue
// (isLocal=false) pointing at the previous compiler's upvalue slot.
func (p *parser) resolveUpvalue(fc *fnCompiler, name string) int {
	if fc.enclosing == nil {
		return -1
	}
	if local := p.resolveLocal(fc.enclosing, name); local != -1 {
		fc.enclosing.locals[local].isCaptured = true
		return p.addUpvalue(fc, local, true)
	}
	if up := p.resolveUpvalue(fc.enclosing, name); up != -1 {
		return p.addUpvalue(fc, up, false)
	}
	return -1
}

// addUpvalue deduplicates by (index, isLocal) within fc before appending a
// new upvalue slot.
func (p *parser) addUpvalue(fc *fnCompiler, index int, isLocal bool) int {
	for i, uv := range fc.upvalues {
		if uv.index == index && uv.isLocal == isLocal {
			return i
		}
	}
	if len(fc.upvalues) >= maxUpvalues {
		p.error("Too many closure variables in function.")
		return 0
	}
	fc.upvalues = append(fc.upvalues, upvalueRef{index: index, isLocal: isLocal})
	return len(fc.upvalues) - 1
}
