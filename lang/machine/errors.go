package machine

import (
	"fmt"
	"strings"
)

// TraceFrame is one line of a runtime stack trace: the source line active
// in that frame when the error was raised, and the function running there,
// written as its name followed by "()" ("script" for the top-level frame).
type TraceFrame struct {
	Line     int
	FuncName string
}

// RuntimeError is returned by VM.Interpret when execution fails after
// compiling successfully. Its Error() string is the message, then one
// "[line N] in FUNCNAME" line per frame, newest frame first.
type RuntimeError struct {
	Message string
	Trace   []TraceFrame
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, fr := range e.Trace {
		fmt.Fprintf(&b, "\n[line %d] in %s", fr.Line, fr.FuncName)
	}
	return b.String()
}

// CompileError is returned by Compile (see lang/compiler) when one or more
// diagnostics were reported; Error() joins them with newlines, each already
// formatted as "[line N] Error [at X]: MSG" by the compiler (the at-part
// is left out for a scanner error).
type CompileError struct {
	Diagnostics []string
}

func (e *CompileError) Error() string { return strings.Join(e.Diagnostics, "\n") }
