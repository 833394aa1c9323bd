package driver

import (
	"bufio"
	"fmt"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/lang/machine"
)

// runREPL prints one `> ` prompt per line, compiling and running each
// line as an independent script against a single long-lived VM (so
// globals and the intern table persist across lines). EOF exits cleanly,
// and neither a compile nor a runtime error terminates the session.
func runREPL(stdio mainer.Stdio, stressGC, logGC bool) {
	vm := machine.New()
	vm.Stdout = stdio.Stdout
	vm.Heap.StressGC = stressGC
	vm.Heap.LogGC = logGC

	scanner := bufio.NewScanner(stdio.Stdin)
	for {
		fmt.Fprint(stdio.Stdout, "> ")
		if !scanner.Scan() {
			return
		}
		interpret(vm, stdio, scanner.Text())
	}
}
