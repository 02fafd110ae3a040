// Package man generates the application's man page from its cobra command
// tree.
package man

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

// NewManCmd returns a hidden command that writes the root command's man page
// in roff format to stdout.
func NewManCmd() *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates the command's man page",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			page, err := Build(cmd.Root())
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), page)
			return err
		},
	}
}

// Build renders the man page for root.
func Build(root *cobra.Command) (string, error) {
	manPage, err := mcobra.NewManPage(1, root)
	if err != nil {
		return "", fmt.Errorf("failed to build man page: %w", err)
	}
	return manPage.Build(roff.NewDocument()), nil
}
