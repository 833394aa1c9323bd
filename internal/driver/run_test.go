package driver

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/mna/mainer"

	"github.com/ember-lang/ember/internal/filetest"
	"github.com/ember-lang/ember/lang/machine"
)

var update = flag.Bool("test.update-golden", false, "update the golden .want files in testdata")

// TestRunScriptsAgainstGolden compiles and runs every *.ember file in
// testdata against a fresh VM and diffs its stdout against the matching
// *.ember.want golden file using the filetest/godebug-diff harness.
func TestRunScriptsAgainstGolden(t *testing.T) {
	dir := "testdata"
	for _, fi := range filetest.SourceFiles(t, dir, ".ember") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(dir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			vm := machine.New()
			var out bytes.Buffer
			vm.Stdout = &out

			stdio := mainer.Stdio{Stdout: &out, Stderr: &out}
			if code := interpret(vm, stdio, string(src)); code != exitSuccess {
				t.Fatalf("interpret returned exit code %d:\n%s", code, out.String())
			}

			filetest.DiffOutput(t, fi, out.String(), dir, update)
		})
	}
}

// TestCompileErrorsAgainstGolden compiles every *.ember file in
// testdata/errors, expecting each to fail to compile, and diffs the
// combined diagnostic text written to stderr against the matching
// *.ember.err golden file.
func TestCompileErrorsAgainstGolden(t *testing.T) {
	dir := "testdata/errors"
	for _, fi := range filetest.SourceFiles(t, dir, ".ember") {
		fi := fi
		t.Run(fi.Name(), func(t *testing.T) {
			src, err := os.ReadFile(filepath.Join(dir, fi.Name()))
			if err != nil {
				t.Fatal(err)
			}

			vm := machine.New()
			var out bytes.Buffer
			stdio := mainer.Stdio{Stdout: &out, Stderr: &out}
			if code := interpret(vm, stdio, string(src)); code != exitCompileError {
				t.Fatalf("interpret returned exit code %d, want %d:\n%s", code, exitCompileError, out.String())
			}

			filetest.DiffErrors(t, fi, out.String(), dir, update)
		})
	}
}
