package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/toozej/greenstripes/internal/greenstripes"
	"github.com/toozej/greenstripes/pkg/link"
)

// ErrNotBrowsable is returned for links that name neither an artist, an
// album nor a track.
var ErrNotBrowsable = errors.New("only artist, album and track links can be browsed")

func newBrowseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "browse <link>",
		Short: "Show extended metadata for an artist or album",
		Long: `browse loads an artist's top tracks, albums, similar artists and biography, or
an album's tracks, copyrights and review. A track link browses the track's album.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, args[0])
		},
	}
}

func runBrowse(cmd *cobra.Command, raw string) error {
	l, err := link.Parse(raw)
	if err != nil {
		return err
	}
	switch l.Type {
	case link.Artist, link.Album, link.Track:
	default:
		return fmt.Errorf("%w: got %s", ErrNotBrowsable, l.Type)
	}

	ctx := cmd.Context()
	s, cleanup, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	out := cmd.OutOrStdout()
	switch l.Type {
	case link.Artist:
		artist, err := s.ArtistFromLink(l)
		if err != nil {
			return err
		}
		browse, err := greenstripes.NewArtistBrowse(s, artist)
		if err != nil {
			return err
		}
		if err := pump(ctx, s, "Browsing artist...", browse.Loaded); err != nil {
			return err
		}
		if code := browse.Error(); code != greenstripes.OK {
			return codeError("artist browse", code)
		}
		displayArtistBrowse(out, browse)
		return nil

	case link.Track:
		track, err := s.TrackFromLink(l)
		if err != nil {
			return err
		}
		if err := pump(ctx, s, "Loading track...", func() bool { return settled(track) }); err != nil {
			return err
		}
		if code := track.Error(); code != greenstripes.OK {
			return codeError("track", code)
		}
		return browseAlbum(cmd, s, track.Album())

	default:
		album, err := s.AlbumFromLink(l)
		if err != nil {
			return err
		}
		return browseAlbum(cmd, s, album)
	}
}

func browseAlbum(cmd *cobra.Command, s *greenstripes.Session, album *greenstripes.Album) error {
	browse, err := greenstripes.NewAlbumBrowse(s, album)
	if err != nil {
		return err
	}
	if err := pump(cmd.Context(), s, "Browsing album...", browse.Loaded); err != nil {
		return err
	}
	if code := browse.Error(); code != greenstripes.OK {
		return codeError("album browse", code)
	}
	displayAlbumBrowse(cmd.OutOrStdout(), browse)
	return nil
}

func displayArtistBrowse(out io.Writer, browse *greenstripes.ArtistBrowse) {
	artist := browse.Artist()
	fmt.Fprintf(out, "🎤 %s  %s\n", artist.Name(), artist.Link())
	if bio := browse.Biography(); bio != "" {
		fmt.Fprintf(out, "\n%s\n", bio)
	}

	fmt.Fprintf(out, "\nTop tracks (%d)\n", browse.Tracks().Len())
	for i, t := range browse.Tracks().All() {
		printTrack(out, i+1, t)
	}
	fmt.Fprintf(out, "\nAlbums (%d)\n", browse.Albums().Len())
	for i, a := range browse.Albums().All() {
		printAlbum(out, i+1, a)
	}
	fmt.Fprintf(out, "\nSimilar artists (%d)\n", browse.SimilarArtists().Len())
	for i, a := range browse.SimilarArtists().All() {
		printArtist(out, i+1, a)
	}
}

func displayAlbumBrowse(out io.Writer, browse *greenstripes.AlbumBrowse) {
	album := browse.Album()
	artist := ""
	if a := browse.Artist(); a != nil {
		artist = a.Name() + " - "
	}
	fmt.Fprintf(out, "💿 %s%s (%d, %s)  %s\n", artist, album.Name(), album.Year(), album.Type(), album.Link())

	fmt.Fprintf(out, "\nTracks (%d)\n", browse.Tracks().Len())
	for i, t := range browse.Tracks().All() {
		printTrack(out, i+1, t)
	}
	if browse.Copyrights().Len() > 0 {
		fmt.Fprintln(out)
		for _, c := range browse.Copyrights().All() {
			fmt.Fprintf(out, "© %s\n", c)
		}
	}
	if review := browse.Review(); review != "" {
		fmt.Fprintf(out, "\nReview: %s\n", review)
	}
}
