package machine

import "fmt"

// Opcode identifies one bytecode instruction. All multi-byte operands are
// big-endian with a fixed, statically-known width per opcode: the
// instruction set is small and fixed-width end to end, so no varint
// decoding is needed at dispatch time.
type Opcode uint8

//nolint:revive
const (
	OpConstant Opcode = iota // 1 (constant idx)         -> v
	OpNil                    // -                         -> v
	OpTrue                   // -                         -> v
	OpFalse                  // -                         -> v
	OpPop                    // v                          ->

	OpGetLocal             // 1 (slot)
	OpSetLocal             // 1 (slot)
	OpGetGlobal            // 1 (name idx)
	OpDefineGlobal         // 1 (name idx)
	OpDefineGlobalIfAbsent // 1 (name idx)
	OpSetGlobal            // 1 (name idx)
	OpGetUpvalue           // 1 (slot)
	OpSetUpvalue           // 1 (slot)
	OpGetProperty          // 1 (name idx)
	OpSetProperty          // 1 (name idx)
	OpGetSuper             // 1 (name idx)

	OpEqual
	OpGreater
	OpLess
	OpAdd
	OpSubtract
	OpMultiply
	OpDivide
	OpNot
	OpNegate

	OpPrint

	OpJump        // 2 (big-endian offset)
	OpJumpIfFalse // 2 (big-endian offset)
	OpLoop        // 2 (big-endian offset)

	OpCall        // 1 (argc)
	OpInvoke      // 2 (name idx, argc)
	OpSuperInvoke // 2 (name idx, argc)

	OpClosure      // 1 (function const idx) + 2*upvalueCount
	OpCloseUpvalue // -

	OpReturn // result stays

	OpClass   // 1 (name idx)
	OpInherit // -
	OpMethod  // 1 (name idx)

	opcodeMax
)

var opcodeNames = [...]string{
	OpConstant:             "OP_CONSTANT",
	OpNil:                  "OP_NIL",
	OpTrue:                 "OP_TRUE",
	OpFalse:                "OP_FALSE",
	OpPop:                  "OP_POP",
	OpGetLocal:             "OP_GET_LOCAL",
	OpSetLocal:             "OP_SET_LOCAL",
	OpGetGlobal:            "OP_GET_GLOBAL",
	OpDefineGlobal:         "OP_DEFINE_GLOBAL",
	OpDefineGlobalIfAbsent: "OP_DEFINE_GLOBAL_IF_ABSENT",
	OpSetGlobal:            "OP_SET_GLOBAL",
	OpGetUpvalue:           "OP_GET_UPVALUE",
	OpSetUpvalue:           "OP_SET_UPVALUE",
	OpGetProperty:          "OP_GET_PROPERTY",
	OpSetProperty:          "OP_SET_PROPERTY",
	OpGetSuper:             "OP_GET_SUPER",
	OpEqual:                "OP_EQUAL",
	OpGreater:              "OP_GREATER",
	OpLess:                 "OP_LESS",
	OpAdd:                  "OP_ADD",
	OpSubtract:             "OP_SUBTRACT",
	OpMultiply:             "OP_MULTIPLY",
	OpDivide:               "OP_DIVIDE",
	OpNot:                  "OP_NOT",
	OpNegate:               "OP_NEGATE",
	OpPrint:                "OP_PRINT",
	OpJump:                 "OP_JUMP",
	OpJumpIfFalse:          "OP_JUMP_IF_FALSE",
	OpLoop:                 "OP_LOOP",
	OpCall:                 "OP_CALL",
	OpInvoke:               "OP_INVOKE",
	OpSuperInvoke:          "OP_SUPER_INVOKE",
	OpClosure:              "OP_CLOSURE",
	OpCloseUpvalue:         "OP_CLOSE_UPVALUE",
	OpReturn:               "OP_RETURN",
	OpClass:                "OP_CLASS",
	OpInherit:              "OP_INHERIT",
	OpMethod:               "OP_METHOD",
}

func (op Opcode) String() string {
	if op < opcodeMax {
		return opcodeNames[op]
	}
	return fmt.Sprintf("illegal opcode (%d)", op)
}
