package types

import (
	"fmt"
	"strings"
)

// IsValid reports whether the record carries enough metadata to be shown.
func (a ArtistRecord) IsValid() bool {
	return a.ID != "" && a.Name != ""
}

// IsValid reports whether the record carries enough metadata to be shown.
func (a AlbumRecord) IsValid() bool {
	return a.ID != "" && a.Name != ""
}

// IsValid reports whether the record carries enough metadata to be shown.
func (t TrackRecord) IsValid() bool {
	return t.ID != "" && t.Name != "" && len(t.Artists) > 0
}

// ArtistNames joins the track's artist names with ", ".
func (t TrackRecord) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return strings.Join(names, ", ")
}

// String returns a human readable representation of the track.
func (t TrackRecord) String() string {
	if t.Album.Name != "" {
		return fmt.Sprintf("%s - %s (%s)", t.ArtistNames(), t.Name, t.Album.Name)
	}
	return fmt.Sprintf("%s - %s", t.ArtistNames(), t.Name)
}

// Empty reports whether the search returned no results at all.
func (s SearchRecord) Empty() bool {
	return len(s.Artists) == 0 && len(s.Albums) == 0 && len(s.Tracks) == 0
}
