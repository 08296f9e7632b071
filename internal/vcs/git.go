package vcs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ilove8790/nextplay/internal/logging"
)

// Query names used in logs and failure callbacks.
const (
	QueryTag    = "tag"
	QueryBranch = "branch"
)

// Git is a Repository backed by git subcommands run through a Runner.
type Git struct {
	// runner executes git.
	runner Runner

	// dir is the working directory every query runs in.
	dir string

	// onFailure, if set, is called with the query name whenever a query
	// degrades to its default value because git failed.
	onFailure func(query string)
}

// Option configures a Git repository handle.
type Option func(*Git)

// WithFailureHook registers fn to be notified of degraded queries.
func WithFailureHook(fn func(query string)) Option {
	return func(g *Git) { g.onFailure = fn }
}

// NewGit returns a Git handle that runs queries in dir using runner.
func NewGit(runner Runner, dir string, opts ...Option) *Git {
	g := &Git{runner: runner, dir: dir}
	for _, o := range opts {
		o(g)
	}
	return g
}

// TagAtHead runs `git tag --points-at HEAD`. When several tags point at HEAD
// only the first listed is returned so the version stays a single line.
// An empty listing is the normal untagged case, not a failure.
func (g *Git) TagAtHead(ctx context.Context) (string, bool) {
	out, err := g.query(ctx, "tag", "--points-at", "HEAD")
	if err != nil {
		g.degraded(ctx, QueryTag, err)
		return "", false
	}
	first, _, _ := strings.Cut(out, "\n")
	first = strings.TrimSpace(first)
	if first == "" {
		return "", false
	}
	return first, true
}

// CurrentBranch runs `git rev-parse --abbrev-ref HEAD`, returning
// UnknownBranch when git is unavailable, the query fails, or it prints
// nothing.
func (g *Git) CurrentBranch(ctx context.Context) string {
	out, err := g.query(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err == nil && out == "" {
		err = errors.New("vcs: empty branch name")
	}
	if err != nil {
		g.degraded(ctx, QueryBranch, err)
		return UnknownBranch
	}
	return out
}

// query runs git and returns its trimmed stdout. A start failure or a
// non-zero exit is returned as an error for the caller to absorb.
func (g *Git) query(ctx context.Context, args ...string) (string, error) {
	res, err := g.runner.Run(ctx, g.dir, args...)
	if err != nil {
		return "", err
	}
	if res.ExitCode != 0 {
		return "", fmt.Errorf("vcs: git %s exited %d: %s",
			args[0], res.ExitCode, strings.TrimSpace(res.Stderr))
	}
	return strings.TrimSpace(res.Stdout), nil
}

// degraded logs a swallowed query failure and notifies the failure hook.
func (g *Git) degraded(ctx context.Context, query string, err error) {
	logging.FromContext(ctx).Debug("vcs: query degraded to default",
		slog.String("query", query),
		slog.String("dir", g.dir),
		slog.String("error", err.Error()),
	)
	if g.onFailure != nil {
		g.onFailure(query)
	}
}
