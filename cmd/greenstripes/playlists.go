package cmd

import (
	"fmt"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/greenstripes/internal/greenstripes"
)

func newPlaylistsCmd() *cobra.Command {
	var withTracks bool
	cmd := &cobra.Command{
		Use:   "playlists",
		Short: "List the current user's playlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlaylists(cmd, withTracks)
		},
	}
	cmd.Flags().BoolVarP(&withTracks, "tracks", "t", false, "Also list each playlist's tracks")
	return cmd
}

func runPlaylists(cmd *cobra.Command, withTracks bool) error {
	ctx := cmd.Context()
	s, cleanup, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	container := s.PlaylistContainer()
	if err := pump(ctx, s, "Loading playlists...", func() bool { return settled(container) }); err != nil {
		return err
	}
	if code := container.Error(); code != greenstripes.OK {
		return codeError("playlists", code)
	}

	playlists := container.Playlists()
	if withTracks {
		err := pump(ctx, s, "Loading tracks...", func() bool {
			for _, p := range playlists.All() {
				if !settled(p) {
					return false
				}
				for _, t := range p.Tracks().All() {
					if !settled(t) {
						return false
					}
				}
			}
			return true
		})
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🎵 %d playlists for %s\n", playlists.Len(), container.Owner().DisplayName())
	for i, p := range playlists.All() {
		marker := ""
		if p.Collaborative() {
			marker = " (collaborative)"
		}
		owner := ""
		if o := p.Owner(); o != nil {
			owner = " by " + o.DisplayName()
		}
		fmt.Fprintf(out, "%2d. %s%s%s\n    %s\n", i+1, p.Name(), owner, marker, p.Link())

		if !withTracks {
			continue
		}
		if code := p.Error(); code != greenstripes.OK {
			log.WithFields(log.Fields{
				"component":   "cli",
				"playlist_id": p.ID(),
				"code":        code,
			}).Warn("Failed to load playlist")
			fmt.Fprintf(out, "    <unavailable: %s>\n", code.Message())
			continue
		}
		for j, t := range p.Tracks().All() {
			printTrack(out, j+1, t)
		}
	}
	return nil
}
