// Package vcs provides the version-control capability the resolver depends on.
// Every query failure is absorbed at this boundary: callers only ever see an
// absent tag or the "unknown" branch, never an error.
package vcs

import (
	"context"
)

// UnknownBranch is returned by CurrentBranch when the branch cannot be read.
const UnknownBranch = "unknown"

// Repository is the narrow version-control capability consumed by the
// resolver. Implementations must not return errors; failures map to an
// absent tag and UnknownBranch respectively.
type Repository interface {
	// TagAtHead returns the tag bound to the checked-out commit, if any.
	TagAtHead(ctx context.Context) (string, bool)

	// CurrentBranch returns the checked-out branch name, or UnknownBranch.
	CurrentBranch(ctx context.Context) string
}

// RunResult holds the output of a single git invocation.
type RunResult struct {
	// Stdout is the standard output captured from the git process.
	Stdout string

	// Stderr is the standard error captured from the git process.
	Stderr string

	// ExitCode is the process exit code (0 = success).
	ExitCode int
}

// Runner executes git subcommands. Abstracting this allows tests to inject a
// fake runner without spawning real git processes.
type Runner interface {
	// Run executes git with args in dir. A non-nil error means the process
	// could not be started at all; a non-zero ExitCode is not an error.
	Run(ctx context.Context, dir string, args ...string) (*RunResult, error)
}
