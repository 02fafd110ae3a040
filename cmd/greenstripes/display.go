package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/toozej/greenstripes/internal/greenstripes"
)

// ErrRequestFailed wraps result codes of failed catalog requests.
var ErrRequestFailed = errors.New("request failed")

func codeError(what string, code greenstripes.Error) error {
	return fmt.Errorf("%w: %s: %s (%s)", ErrRequestFailed, what, code.Message(), code)
}

// formatDuration renders d as m:ss.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), int(d.Seconds())%60)
}

func artistNames(t *greenstripes.Track) string {
	names := make([]string, 0, t.Artists().Len())
	for _, a := range t.Artists().All() {
		names = append(names, a.Name())
	}
	return strings.Join(names, ", ")
}

func printTrack(out io.Writer, n int, t *greenstripes.Track) {
	if !t.Loaded() {
		fmt.Fprintf(out, "  %2d. <unavailable: %s> %s\n", n, t.Error().Message(), t.Link())
		return
	}
	album := ""
	if a := t.Album(); a != nil && a.Name() != "" {
		album = " [" + a.Name() + "]"
	}
	fmt.Fprintf(out, "  %2d. %s - %s%s (%s)\n", n, artistNames(t), t.Name(), album, formatDuration(t.Duration()))
}

func printAlbum(out io.Writer, n int, a *greenstripes.Album) {
	artist := ""
	if ar := a.Artist(); ar != nil && ar.Name() != "" {
		artist = ar.Name() + " - "
	}
	year := ""
	if a.Year() > 0 {
		year = fmt.Sprintf(" (%d)", a.Year())
	}
	fmt.Fprintf(out, "  %2d. %s%s%s [%s]\n", n, artist, a.Name(), year, a.Type())
}

func printArtist(out io.Writer, n int, a *greenstripes.Artist) {
	fmt.Fprintf(out, "  %2d. %s %s\n", n, a.Name(), a.Link())
}
