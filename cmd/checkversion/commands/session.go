package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/ilove8790/nextplay/internal/config"
	"github.com/ilove8790/nextplay/internal/history"
	"github.com/ilove8790/nextplay/internal/logging"
	"github.com/ilove8790/nextplay/internal/metrics"
	"github.com/ilove8790/nextplay/internal/resolver"
	"github.com/ilove8790/nextplay/internal/vcs"
	"github.com/ilove8790/nextplay/internal/versionfile"
)

// session wires settings, the git repository, the resolver, and the
// optional side outputs for a single command run.
type session struct {
	settings *config.Settings

	// dir is the absolute project directory.
	dir string
	// project is the effective project name.
	project string
	// path is the version file path.
	path string

	clock    resolver.Clock
	resolver *resolver.Resolver
	registry *prometheus.Registry
	recorder *metrics.Recorder

	// ledger is nil unless a history database is configured. It is opened
	// lazily so history problems never block the version file write.
	ledger history.Ledger
}

// newSession resolves settings (flags over env over YAML) and builds the
// collaborators. Failing here means the project location itself is unusable.
func newSession(ctx context.Context, opts *rootOptions, d deps) (*session, error) {
	settings, err := config.FromEnv()
	if err != nil {
		return nil, err
	}
	applyFlags(settings, opts)

	dir, err := filepath.Abs(settings.Dir)
	if err != nil {
		return nil, fmt.Errorf("resolve project dir %s: %w", settings.Dir, err)
	}
	project := settings.Project
	if project == "" {
		if project, err = versionfile.ProjectName(dir); err != nil {
			return nil, err
		}
	}

	clock := d.clock
	if clock == nil {
		clock = resolver.SystemClock
	}
	runner := d.runner
	if runner == nil {
		runner = vcs.NewExecRunner(settings.GitBinary, settings.GitTimeout)
	}

	reg := prometheus.NewRegistry()
	rec := metrics.New(reg)
	repo := vcs.NewGit(runner, dir, vcs.WithFailureHook(rec.ObserveVCSFailure))

	s := &session{
		settings: settings,
		dir:      dir,
		project:  project,
		path:     versionfile.Path(dir, project),
		clock:    clock,
		resolver: resolver.New(repo, clock),
		registry: reg,
		recorder: rec,
	}

	logging.FromContext(ctx).Debug("session ready",
		slog.String("dir", s.dir),
		slog.String("project", s.project),
		slog.String("path", s.path),
	)
	return s, nil
}

// applyFlags overlays non-empty flag values onto settings.
func applyFlags(s *config.Settings, opts *rootOptions) {
	if opts.dir != "" {
		s.Dir = opts.dir
	}
	if opts.project != "" {
		s.Project = opts.project
	}
	if opts.historyDB != "" {
		s.HistoryDB = opts.historyDB
	}
	if opts.metricsFile != "" {
		s.MetricsFile = opts.metricsFile
	}
}

// resolve computes the version and counts it.
func (s *session) resolve(ctx context.Context) resolver.Resolution {
	res := s.resolver.Resolve(ctx)
	s.recorder.ObserveResolution(string(res.Source))
	return res
}

// openLedger opens the history ledger on first use. It returns nil when no
// ledger is configured.
func (s *session) openLedger() (history.Ledger, error) {
	if s.ledger != nil || s.settings.HistoryDB == "" {
		return s.ledger, nil
	}
	l, err := history.Open(s.settings.HistoryDB)
	if err != nil {
		return nil, err
	}
	s.ledger = l
	return l, nil
}

// recordWrite updates metrics and the history ledger after a successful
// version file write. Ledger failures are logged, never returned.
func (s *session) recordWrite(ctx context.Context, res resolver.Resolution) {
	log := logging.FromContext(ctx)
	now := s.clock.Now()
	s.recorder.ObserveWrite(s.project, res.Version, now)

	l, err := s.openLedger()
	if err != nil {
		log.Warn("history: ledger unavailable", slog.String("error", err.Error()))
		return
	}
	if l == nil {
		return
	}
	entry := history.Entry{
		Project:   s.project,
		Version:   res.Version,
		Source:    string(res.Source),
		Dir:       s.dir,
		CreatedAt: now,
	}
	if err := l.Append(ctx, entry); err != nil {
		log.Warn("history: append failed", slog.String("error", err.Error()))
	}
}

// flushMetrics writes the textfile if one is configured. Failures are
// logged, never returned.
func (s *session) flushMetrics(ctx context.Context) {
	if s.settings.MetricsFile == "" {
		return
	}
	if err := metrics.WriteTextfile(s.settings.MetricsFile, s.registry); err != nil {
		logging.FromContext(ctx).Warn("metrics: textfile not written", slog.String("error", err.Error()))
	}
}

// close releases the ledger, if open.
func (s *session) close(ctx context.Context) {
	if s.ledger == nil {
		return
	}
	if err := s.ledger.Close(); err != nil {
		logging.FromContext(ctx).Warn("history: close failed", slog.String("error", err.Error()))
	}
}
