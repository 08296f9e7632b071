package commands

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

// errNoHistory is returned when `checkversion history` runs without a ledger.
var errNoHistory = errors.New("history: no ledger configured (set --history-db or CHECKVERSION_HISTORY_DB)")

// newHistoryCmd constructs `checkversion history`, which lists recent
// version file writes recorded in the ledger.
func newHistoryCmd(opts *rootOptions, d deps) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent version file writes for the project",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if limit <= 0 {
				return fmt.Errorf("history: --limit must be positive, got %d", limit)
			}

			s, err := newSession(ctx, opts, d)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			l, err := s.openLedger()
			if err != nil {
				return err
			}
			if l == nil {
				return errNoHistory
			}

			entries, err := l.Recent(ctx, s.project, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				if _, err := fmt.Fprintf(out, "%s\t%s\t%s\n",
					e.CreatedAt.UTC().Format(time.RFC3339), e.Version, e.Source); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Maximum number of entries to show")
	return cmd
}
