package compiler

import (
	"fmt"
	"strings"

	"github.com/ember-lang/ember/lang/machine"
)

// Disassemble renders every instruction in chunk as a deterministic,
// human-readable listing: one line per instruction, offset-prefixed, with
// operands resolved to their constant or jump-target form. Compiling the
// same source twice and disassembling both results is expected to produce
// byte-identical output; it is also useful on its own as a debugging aid
// for anyone embedding the compiler.
func Disassemble(chunk *machine.Chunk, name string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "== %s ==\n", name)
	for offset := 0; offset < len(chunk.Code); {
		var line string
		line, offset = disassembleInstruction(chunk, offset)
		b.WriteString(line)
		b.WriteByte('\n')
	}
	return b.String()
}

func disassembleInstruction(chunk *machine.Chunk, offset int) (string, int) {
	op := machine.Opcode(chunk.Code[offset])
	lineCol := fmt.Sprintf("%4d", chunk.Lines[offset])
	if offset > 0 && chunk.Lines[offset] == chunk.Lines[offset-1] {
		lineCol = "   |"
	}
	prefix := fmt.Sprintf("%04d %s %s", offset, lineCol, op)

	switch op {
	case machine.OpConstant, machine.OpGetGlobal, machine.OpDefineGlobal, machine.OpDefineGlobalIfAbsent, machine.OpSetGlobal,
		machine.OpGetProperty, machine.OpSetProperty, machine.OpGetSuper, machine.OpClass, machine.OpMethod:
		return constantInstruction(chunk, prefix, offset)

	case machine.OpGetLocal, machine.OpSetLocal, machine.OpGetUpvalue, machine.OpSetUpvalue, machine.OpCall:
		idx := chunk.Code[offset+1]
		return fmt.Sprintf("%s %4d", prefix, idx), offset + 2

	case machine.OpJump, machine.OpJumpIfFalse:
		return jumpInstruction(chunk, prefix, offset, 1)
	case machine.OpLoop:
		return jumpInstruction(chunk, prefix, offset, -1)

	case machine.OpInvoke, machine.OpSuperInvoke:
		nameIdx := chunk.Code[offset+1]
		argc := chunk.Code[offset+2]
		constant := chunk.Constants[nameIdx]
		return fmt.Sprintf("%s %4d (%s) argc=%d", prefix, nameIdx, constant.String(), argc), offset + 3

	case machine.OpClosure:
		constIdx := chunk.Code[offset+1]
		offset += 2
		fn, _ := chunk.Constants[constIdx].(*machine.ObjFunction)
		line := fmt.Sprintf("%s %4d %s", prefix, constIdx, chunk.Constants[constIdx].String())
		if fn != nil {
			for i := 0; i < fn.UpvalueCount; i++ {
				isLocal := chunk.Code[offset]
				index := chunk.Code[offset+1]
				kind := "upvalue"
				if isLocal != 0 {
					kind = "local"
				}
				line += fmt.Sprintf("\n%04d      |                     %s %d", offset, kind, index)
				offset += 2
			}
		}
		return line, offset

	default:
		return prefix, offset + 1
	}
}

func constantInstruction(chunk *machine.Chunk, prefix string, offset int) (string, int) {
	idx := chunk.Code[offset+1]
	return fmt.Sprintf("%s %4d '%s'", prefix, idx, chunk.Constants[idx].String()), offset + 2
}

func jumpInstruction(chunk *machine.Chunk, prefix string, offset int, sign int) (string, int) {
	jump := int(chunk.Code[offset+1])<<8 | int(chunk.Code[offset+2])
	target := offset + 3 + sign*jump
	return fmt.Sprintf("%s %4d -> %d", prefix, offset, target), offset + 3
}
