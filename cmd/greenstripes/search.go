package cmd

import (
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/greenstripes/internal/greenstripes"
)

func newSearchCmd() *cobra.Command {
	var offset, count int
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the catalog for artists, albums and tracks",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, strings.Join(args, " "), offset, count)
		},
	}
	cmd.Flags().IntVarP(&offset, "offset", "o", 0, "Index of the first result in each list")
	cmd.Flags().IntVarP(&count, "count", "n", greenstripes.DefaultSearchCount, "Maximum results per list")
	return cmd
}

func runSearch(cmd *cobra.Command, query string, offset, count int) error {
	ctx := cmd.Context()
	s, cleanup, err := openSession(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	log.WithFields(log.Fields{
		"component": "cli",
		"operation": "search",
		"query":     query,
		"offset":    offset,
		"count":     count,
	}).Debug("Starting search")

	search, err := greenstripes.NewSearch(s, query, offset, count)
	if err != nil {
		return err
	}
	if err := pump(ctx, s, "Searching...", search.Loaded); err != nil {
		return err
	}
	if code := search.Error(); code != greenstripes.OK {
		return codeError("search", code)
	}

	// tracks arrive with their metadata, but albums and artists may load later
	if err := pump(ctx, s, "Loading results...", func() bool {
		for _, a := range search.Albums().All() {
			if !settled(a) {
				return false
			}
		}
		return true
	}); err != nil {
		return err
	}

	displaySearchResults(cmd, search)
	return nil
}

func displaySearchResults(cmd *cobra.Command, search *greenstripes.Search) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "🔍 Results for %q  %s\n", search.Query(), search.Link())
	if dym := search.DidYouMean(); dym != "" {
		fmt.Fprintf(out, "   Did you mean %q?\n", dym)
	}

	fmt.Fprintf(out, "\nArtists (%d of %d)\n", search.Artists().Len(), search.TotalArtists())
	for i, a := range search.Artists().All() {
		printArtist(out, search.Offset()+i+1, a)
	}
	fmt.Fprintf(out, "\nAlbums (%d of %d)\n", search.Albums().Len(), search.TotalAlbums())
	for i, a := range search.Albums().All() {
		printAlbum(out, search.Offset()+i+1, a)
	}
	fmt.Fprintf(out, "\nTracks (%d of %d)\n", search.Tracks().Len(), search.TotalTracks())
	for i, t := range search.Tracks().All() {
		printTrack(out, search.Offset()+i+1, t)
	}
}
