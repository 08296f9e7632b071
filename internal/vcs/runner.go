package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultBinary is the git executable looked up on PATH when none is configured.
const DefaultBinary = "git"

// ExecRunner implements Runner by executing a real git binary. It is the
// default runner used in production.
type ExecRunner struct {
	// Binary is the git executable name or path.
	Binary string

	// Timeout bounds each invocation. Zero means no timeout; a hung git
	// process then hangs the caller until the context is cancelled.
	Timeout time.Duration
}

// NewExecRunner returns an ExecRunner for binary. An empty binary selects
// DefaultBinary. Unlike a strict lookup, a missing binary is not reported
// here: it surfaces as a Run error that the Git adapter absorbs.
func NewExecRunner(binary string, timeout time.Duration) *ExecRunner {
	if binary == "" {
		binary = DefaultBinary
	}
	return &ExecRunner{Binary: binary, Timeout: timeout}
}

// Run executes `git [args...]` in dir and returns the captured stdout,
// stderr, and exit code.
func (r *ExecRunner) Run(ctx context.Context, dir string, args ...string) (*RunResult, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, r.Binary, args...)
	cmd.Dir = dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("vcs: failed to run %s: %w", r.Binary, err)
		}
		exitCode = exitErr.ExitCode()
	}

	return &RunResult{
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: exitCode,
	}, nil
}
