package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ilove8790/nextplay/internal/logging"
	"github.com/ilove8790/nextplay/internal/versionfile"
)

// ErrStale is returned by `checkversion check` when the version file does
// not hold the currently resolved version.
var ErrStale = errors.New("version file is stale")

// newCheckCmd constructs `checkversion check`, which fails when the version
// file is missing or differs from what a run would write now. Use it in CI
// to catch a forgotten regeneration.
func newCheckCmd(opts *rootOptions, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the version file matches the currently resolved version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, opts, d)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			res := s.resolve(ctx)
			defer s.flushMetrics(ctx)

			have, err := versionfile.Read(s.path)
			if errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("check: %s does not exist, want %q", s.path, res.Version)
			}
			if err != nil {
				return fmt.Errorf("check: %w", err)
			}
			if have != res.Version {
				return fmt.Errorf("check: %s has %q, want %q: %w", s.path, have, res.Version, ErrStale)
			}

			logging.FromContext(ctx).Info("version file up to date",
				slog.String("path", s.path),
				slog.String("version", have),
			)
			return nil
		},
	}
}
