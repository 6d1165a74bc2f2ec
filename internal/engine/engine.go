// Package engine wraps invocation of the external foldseek binary.
// The orchestrator never parses foldseek's stdout; it only cares about
// exit status, so output is streamed straight through to the operator.
package engine

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// Binary is the engine executable looked up on PATH.
const Binary = "foldseek"

// Runner executes one engine invocation and reports its exit status.
// The production implementation shells out; tests substitute a recorder.
type Runner interface {
	Run(args ...string) error
}

// ExecRunner runs the real engine, streaming output to the operator.
type ExecRunner struct {
	// Bin overrides the executable name; empty means Binary.
	Bin string
}

func (r *ExecRunner) Run(args ...string) error {
	c := exec.Command(r.binary(), args...)
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	return c.Run()
}

func (r *ExecRunner) binary() string {
	if r.Bin != "" {
		return r.Bin
	}
	return Binary
}

// Available returns a clear error if foldseek is not found on PATH.
func Available() error {
	if _, err := exec.LookPath(Binary); err != nil {
		return fmt.Errorf("foldseek is not installed or not on PATH\n" +
			"  foldmap drives foldseek for database build, indexing and search.\n" +
			"  Install it from https://github.com/steineggerlab/foldseek and try again.")
	}
	return nil
}

// Version reports the engine's version string, e.g. for doctor output.
func Version() (string, error) {
	out, err := exec.Command(Binary, "version").Output()
	if err != nil {
		return "", fmt.Errorf("cannot query foldseek version: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
