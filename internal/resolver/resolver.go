// Package resolver derives a project version string from version-control
// state. The decision procedure is pure: repository state and the calendar
// date arrive through injected capabilities.
package resolver

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/ilove8790/nextplay/internal/logging"
	"github.com/ilove8790/nextplay/internal/vcs"
)

// DateLayout formats the date token as two-digit year, month, and day (YYMMDD).
const DateLayout = "060102"

// Source identifies which path of the decision procedure produced a version.
type Source string

const (
	// SourceTag is a tag shaped <digits>.<digits>.<6 digits>[...].
	SourceTag Source = "tag"
	// SourceTagVerbatim is any other tag, also used unmodified.
	SourceTagVerbatim Source = "tag-verbatim"
	// SourceBranchDate is <major>.<minor> from the branch plus today's date.
	SourceBranchDate Source = "branch-date"
	// SourceBranch is a non-numeric branch name used unmodified.
	SourceBranch Source = "branch"
	// SourceFallback is the "unknown" branch placeholder.
	SourceFallback Source = "fallback"
)

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to the Clock interface.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the local wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Resolution is the outcome of a single resolve.
type Resolution struct {
	// Version is the resolved version string.
	Version string
	// Source is the decision path that produced Version.
	Source Source
	// Tag is the tag found at HEAD, empty if none.
	Tag string
	// Branch is the branch consulted when no tag exists.
	Branch string
	// Date is the YYMMDD token used, empty unless Source is SourceBranchDate.
	Date string
}

// Resolver computes versions from a repository and a clock.
type Resolver struct {
	repo  vcs.Repository
	clock Clock
}

// New returns a Resolver. A nil clock selects SystemClock.
func New(repo vcs.Repository, clock Clock) *Resolver {
	if clock == nil {
		clock = SystemClock
	}
	return &Resolver{repo: repo, clock: clock}
}

// Resolve runs the decision procedure. It never fails: version-control
// problems have already been mapped to defaults by the repository.
func (r *Resolver) Resolve(ctx context.Context) Resolution {
	log := logging.FromContext(ctx)

	if tag, ok := r.repo.TagAtHead(ctx); ok {
		res := Resolution{Version: tag, Tag: tag, Source: SourceTagVerbatim}
		if isDatedTag(tag) {
			res.Source = SourceTag
		}
		log.Debug("resolver: using tag at HEAD", slog.String("tag", tag), slog.String("source", string(res.Source)))
		return res
	}

	branch := r.repo.CurrentBranch(ctx)
	res := Resolution{Branch: branch}

	parts := strings.Split(branch, ".")
	switch {
	case len(parts) >= 2 && allDigits(parts[0]) && allDigits(parts[1]):
		res.Date = r.clock.Now().Format(DateLayout)
		res.Version = parts[0] + "." + parts[1] + "." + res.Date
		res.Source = SourceBranchDate
	case branch == vcs.UnknownBranch:
		res.Version = branch
		res.Source = SourceFallback
	default:
		res.Version = branch
		res.Source = SourceBranch
	}

	log.Debug("resolver: using branch",
		slog.String("branch", branch),
		slog.String("version", res.Version),
		slog.String("source", string(res.Source)),
	)
	return res
}

// Version is shorthand for Resolve(ctx).Version.
func (r *Resolver) Version(ctx context.Context) string {
	return r.Resolve(ctx).Version
}

// isDatedTag reports whether tag looks like <major>.<minor>.<YYMMDD>, with
// any number of extra tokens after the date. Such tags are kept whole;
// the check only classifies the source.
func isDatedTag(tag string) bool {
	parts := strings.Split(tag, ".")
	if len(parts) < 3 {
		return false
	}
	for _, p := range parts[:3] {
		if !allDigits(p) {
			return false
		}
	}
	return len([]rune(parts[2])) == 6
}

// allDigits reports whether s is non-empty and made only of decimal digits.
func allDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
