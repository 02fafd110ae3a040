package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toozej/greenstripes/internal/greenstripes"
	"github.com/toozej/greenstripes/pkg/link"
)

func newLinkCmd() *cobra.Command {
	var resolve bool
	cmd := &cobra.Command{
		Use:   "link <link>",
		Short: "Parse and normalize a catalog link",
		Long: `link parses a spotify: URI or open.spotify.com URL and prints its canonical
form. With --resolve it logs in and loads the object the link names.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLink(cmd, args[0], resolve)
		},
	}
	cmd.Flags().BoolVarP(&resolve, "resolve", "r", false, "Log in and load the linked object")
	return cmd
}

func runLink(cmd *cobra.Command, raw string, resolve bool) error {
	l, err := link.Parse(raw)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "link: %s\n", l)
	fmt.Fprintf(out, "type: %s\n", l.Type)
	if web := l.WebURL(); web != "" {
		fmt.Fprintf(out, "web:  %s\n", web)
	}
	if !resolve {
		return nil
	}

	ctx := cmd.Context()
	s, cleanup, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	obj, err := s.Resolve(l)
	if err != nil {
		return err
	}
	target, ok := obj.(settler)
	if ok {
		if err := pump(ctx, s, "Resolving link...", func() bool { return settled(target) }); err != nil {
			return err
		}
		if code := target.Error(); code != greenstripes.OK {
			return codeError("resolve", code)
		}
	}
	describe(out, obj)
	return nil
}

// describe prints the name of a resolved object.
func describe(out io.Writer, obj link.Linker) {
	switch v := obj.(type) {
	case *greenstripes.Track:
		fmt.Fprintf(out, "name: %s - %s\n", artistNames(v), v.Name())
	case *greenstripes.Album:
		fmt.Fprintf(out, "name: %s\n", v.Name())
	case *greenstripes.Artist:
		fmt.Fprintf(out, "name: %s\n", v.Name())
	case *greenstripes.Playlist:
		fmt.Fprintf(out, "name: %s (%d tracks)\n", v.Name(), v.Tracks().Len())
	case *greenstripes.User:
		fmt.Fprintf(out, "name: %s\n", v.DisplayName())
	case *greenstripes.Search:
		fmt.Fprintf(out, "results: %d artists, %d albums, %d tracks\n", v.TotalArtists(), v.TotalAlbums(), v.TotalTracks())
	}
}
