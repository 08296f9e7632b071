package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ilove8790/nextplay/internal/version"
)

// NewVersionCmd constructs the `checkversion version` subcommand.
// It prints the binary version, git commit, and build date injected at
// build time via -ldflags, falling back to embedded VCS build info.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the checkversion version, git commit, and build date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), version.Get().String())
			return err
		},
	}
}
