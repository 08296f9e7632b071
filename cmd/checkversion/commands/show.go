package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newShowCmd constructs `checkversion show`, which prints the resolved
// version on stdout without touching the version file.
func newShowCmd(opts *rootOptions, d deps) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved version without writing the version file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			s, err := newSession(ctx, opts, d)
			if err != nil {
				return err
			}
			defer s.close(ctx)

			res := s.resolve(ctx)
			s.flushMetrics(ctx)

			out := cmd.OutOrStdout()
			if verbose {
				_, err = fmt.Fprintf(out, "version: %s\nsource:  %s\nfile:    %s\n", res.Version, res.Source, s.path)
				return err
			}
			_, err = fmt.Fprintln(out, res.Version)
			return err
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Also print the decision source and target file")
	return cmd
}
