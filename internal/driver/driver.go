// Package driver implements the command-line entry point for Ember: flag
// parsing and the REPL/file-run dispatch, built on the
// github.com/mna/mainer flag-parsing and exit-code library.
package driver

import (
	"fmt"

	"github.com/mna/mainer"
)

const binName = "ember"

// Exit codes, following the BSD sysexits.h convention mainer's callers
// typically use.
const (
	exitSuccess      = mainer.ExitCode(0)
	exitUsage        = mainer.ExitCode(64)
	exitCompileError = mainer.ExitCode(65)
	exitRuntimeError = mainer.ExitCode(70)
	exitIOError      = mainer.ExitCode(74)
)

var (
	shortUsage = fmt.Sprintf("usage: %s [script]\nRun '%[1]s --help' for details.\n", binName)

	longUsage = fmt.Sprintf(`usage: %s [script]
       %[1]s -h|--help
       %[1]s -v|--version

A bytecode interpreter and REPL for the Ember scripting language.

With no arguments, starts an interactive REPL. With one argument, reads
and runs the given script file. More than one argument is a usage error.

Valid flag options are:
       -h --help                 Show this help and exit.
       -v --version              Print version and exit.
       --stress-gc               Run a GC collection before every
                                 allocation (for testing the collector).
       --log-gc                  Log every GC collection to stderr.
`, binName)
)

// Cmd is the top-level command, populated from CLI flags by
// mainer.Parser.Parse. The struct-tag-driven flag binding and the
// Validate/SetArgs/SetFlags trio satisfy the mainer.Command interface.
type Cmd struct {
	BuildVersion string
	BuildDate    string

	Help     bool `flag:"h,help"`
	Version  bool `flag:"v,version"`
	StressGC bool `flag:"stress-gc"`
	LogGC    bool `flag:"log-gc"`

	args []string
}

func (c *Cmd) SetArgs(args []string)          { c.args = args }
func (c *Cmd) SetFlags(flags map[string]bool) {}

func (c *Cmd) Validate() error {
	if c.Help || c.Version {
		return nil
	}
	if len(c.args) > 1 {
		return fmt.Errorf("too many arguments: expected at most one script path")
	}
	return nil
}

// Main is the process entry point invoked from cmd/ember/main.go.
func (c *Cmd) Main(args []string, stdio mainer.Stdio) mainer.ExitCode {
	p := mainer.Parser{
		EnvVars:   false,
		EnvPrefix: binName + "_",
	}
	if err := p.Parse(args, c); err != nil {
		fmt.Fprintf(stdio.Stderr, "invalid arguments: %s\n%s", err, shortUsage)
		return exitUsage
	}

	switch {
	case c.Help:
		fmt.Fprint(stdio.Stdout, longUsage)
		return exitSuccess
	case c.Version:
		fmt.Fprintf(stdio.Stdout, "%s %s %s\n", binName, c.BuildVersion, c.BuildDate)
		return exitSuccess
	}

	if len(c.args) == 0 {
		runREPL(stdio, c.StressGC, c.LogGC)
		return exitSuccess
	}
	return runFile(stdio, c.args[0], c.StressGC, c.LogGC)
}
