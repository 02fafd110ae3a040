package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Log in and print the current user",
		Args:  cobra.NoArgs,
		RunE:  runWhoami,
	}
}

func runWhoami(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	s, cleanup, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	user := s.User()
	if err := pump(ctx, s, "Loading profile...", func() bool { return settled(user) }); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "👤 %s\n", user.DisplayName())
	fmt.Fprintf(out, "   name: %s\n", user.CanonicalName())
	fmt.Fprintf(out, "   link: %s\n", user.Link())
	fmt.Fprintf(out, "   connection: %s\n", s.ConnectionState())
	return nil
}
