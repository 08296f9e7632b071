// Package commands defines all Cobra CLI commands for the checkversion binary.
package commands

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ilove8790/nextplay/internal/audit"
	"github.com/ilove8790/nextplay/internal/config"
	"github.com/ilove8790/nextplay/internal/logging"
	"github.com/ilove8790/nextplay/internal/resolver"
	"github.com/ilove8790/nextplay/internal/vcs"
	"github.com/ilove8790/nextplay/internal/versionfile"
)

// rootOptions holds persistent flag values shared by every subcommand.
type rootOptions struct {
	// configPath is the --config flag value for YAML config file override.
	configPath string
	// dir overrides the project directory.
	dir string
	// project overrides the project name.
	project string
	// historyDB overrides the history ledger path.
	historyDB string
	// metricsFile overrides the Prometheus textfile path.
	metricsFile string
}

// deps are the process-level collaborators a command run uses. Zero values
// select the production implementations.
type deps struct {
	// runner executes git. Nil selects an ExecRunner built from settings.
	runner vcs.Runner
	// clock supplies the date token and timestamps. Nil selects the system clock.
	clock resolver.Clock
}

// NewRootCmd constructs the root Cobra command that all subcommands attach to.
func NewRootCmd() *cobra.Command {
	return newRootCmd(deps{})
}

// newRootCmd builds the command tree around d.
func newRootCmd(d deps) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "checkversion",
		Short: "Write <project>.version from the current git tag or branch",
		Long: `checkversion derives a version string from git and writes it, followed by a
single newline, to <project>.version in the project directory.

  - If a tag points at HEAD, the tag is used verbatim.
  - Otherwise, if the branch looks like <major>.<minor>[...] with numeric
    major and minor, the version is <major>.<minor>.<YYMMDD> for today.
  - Otherwise the branch name is used verbatim ("unknown" outside a repo).

git failures never fail the run. Only a failed version file write does.

Configuration is read from --config, CHECKVERSION_CONFIG,
~/.checkversion/config.yaml or ./checkversion.yaml; environment variables
override the file and flags override both.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.Load(opts.configPath, logging.New())
			if err != nil {
				return err
			}

			// Re-read the logger so YAML logging settings take effect.
			log := logging.New()
			cmd.SetContext(logging.WithLogger(cmd.Context(), log))

			audit.LogCommandStart(log, cmd.Name(), path)
			return nil
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)

			s, err := newSession(ctx, opts, d)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			res := s.resolve(ctx)
			if err := versionfile.Write(s.path, res.Version); err != nil {
				s.flushMetrics(ctx)
				return err
			}

			log.Info("version file written",
				slog.String("path", s.path),
				slog.String("version", res.Version),
				slog.String("source", string(res.Source)),
			)
			s.recordWrite(ctx, res)
			s.flushMetrics(ctx)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", "", "Path to YAML config file (default: ~/.checkversion/config.yaml)")
	pf.StringVar(&opts.dir, "dir", "", "Project directory to query and write into (default: working directory)")
	pf.StringVar(&opts.project, "project", "", "Project name used for the file name (default: base name of --dir)")
	pf.StringVar(&opts.historyDB, "history-db", "", `SQLite history ledger path, or "default" for ~/.checkversion/history.db`)
	pf.StringVar(&opts.metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")

	root.AddCommand(
		newShowCmd(opts, d),
		newCheckCmd(opts, d),
		newHistoryCmd(opts, d),
		NewVersionCmd(),
	)

	return root
}
