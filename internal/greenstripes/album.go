package greenstripes

import (
	"context"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// AlbumType classifies an album.
type AlbumType int

const (
	AlbumTypeUnknown AlbumType = iota
	AlbumTypeAlbum
	AlbumTypeSingle
	AlbumTypeCompilation
)

func (t AlbumType) String() string {
	switch t {
	case AlbumTypeAlbum:
		return "album"
	case AlbumTypeSingle:
		return "single"
	case AlbumTypeCompilation:
		return "compilation"
	}
	return "unknown"
}

func parseAlbumType(s string) AlbumType {
	switch s {
	case "album":
		return AlbumTypeAlbum
	case "single", "ep":
		return AlbumTypeSingle
	case "compilation":
		return AlbumTypeCompilation
	}
	return AlbumTypeUnknown
}

// Album is a catalog album.
type Album struct {
	session   *Session
	id        string
	name      string
	artist    *Artist
	year      int
	albumType AlbumType
	loaded    bool
	loading   bool
	err       Error
}

// ID returns the album's base62 id.
func (a *Album) ID() string {
	return a.id
}

// Name returns the album's name, or "" until loaded.
func (a *Album) Name() string {
	return a.name
}

// Artist returns the album's primary artist, or nil when unknown.
func (a *Album) Artist() *Artist {
	return a.artist
}

// Year returns the release year, or 0 when unknown.
func (a *Album) Year() int {
	return a.year
}

// Type returns the album's type.
func (a *Album) Type() AlbumType {
	return a.albumType
}

// Loaded reports whether the album's metadata is known.
func (a *Album) Loaded() bool {
	return a.loaded
}

// Error returns IsLoading while a load is in flight, the code of a failed
// load, or OK.
func (a *Album) Error() Error {
	if a.loading {
		return IsLoading
	}
	return a.err
}

// Link returns the album's link.
func (a *Album) Link() link.Link {
	return link.Of(link.Album, a.id)
}

func (a *Album) update(rec types.AlbumRecord) {
	if rec.ArtistID != "" {
		a.artist = a.session.artistFor(types.ArtistRecord{ID: rec.ArtistID, Name: rec.ArtistName})
	}
	if rec.Year != 0 {
		a.year = rec.Year
	}
	if rec.Type != "" {
		a.albumType = parseAlbumType(rec.Type)
	}
	if rec.Name == "" {
		return
	}
	a.name = rec.Name
	if !a.loaded {
		a.loaded = true
		a.session.markUpdated()
	}
}

func (a *Album) load() {
	if a.loaded || a.loading {
		return
	}
	a.loading = true
	s := a.session
	submit(s, "album", func(ctx context.Context) (types.AlbumRecord, error) {
		return s.backend.Album(ctx, a.id)
	}, func(rec types.AlbumRecord, err error) {
		a.loading = false
		if err != nil {
			a.err = codeFor(err)
			return
		}
		a.err = OK
		a.update(rec)
	})
}

// albumFor returns the interned album for rec without scheduling a load.
func (s *Session) albumFor(rec types.AlbumRecord) *Album {
	a, ok := s.albums[rec.ID]
	if !ok {
		a = &Album{session: s, id: rec.ID}
		s.albums[rec.ID] = a
	}
	a.update(rec)
	return a
}

func (s *Session) albumsFor(recs []types.AlbumRecord) []*Album {
	out := make([]*Album, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			continue
		}
		out = append(out, s.albumFor(rec))
	}
	return out
}
