package greenstripes

import (
	"context"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// Artist is a catalog artist.
type Artist struct {
	session *Session
	id      string
	name    string
	loaded  bool
	loading bool
	err     Error
}

// ID returns the artist's base62 id.
func (a *Artist) ID() string {
	return a.id
}

// Name returns the artist's name, or "" until loaded.
func (a *Artist) Name() string {
	return a.name
}

// Loaded reports whether the artist's metadata is known.
func (a *Artist) Loaded() bool {
	return a.loaded
}

// Error returns IsLoading while a load is in flight, the code of a failed
// load, or OK.
func (a *Artist) Error() Error {
	if a.loading {
		return IsLoading
	}
	return a.err
}

// Link returns the artist's link.
func (a *Artist) Link() link.Link {
	return link.Of(link.Artist, a.id)
}

func (a *Artist) update(rec types.ArtistRecord) {
	if rec.Name == "" {
		return
	}
	a.name = rec.Name
	if !a.loaded {
		a.loaded = true
		a.session.markUpdated()
	}
}

func (a *Artist) load() {
	if a.loaded || a.loading {
		return
	}
	a.loading = true
	s := a.session
	submit(s, "artist", func(ctx context.Context) (types.ArtistRecord, error) {
		return s.backend.Artist(ctx, a.id)
	}, func(rec types.ArtistRecord, err error) {
		a.loading = false
		if err != nil {
			a.err = codeFor(err)
			return
		}
		a.err = OK
		a.update(rec)
	})
}

// artistFor returns the interned artist for rec without scheduling a load.
func (s *Session) artistFor(rec types.ArtistRecord) *Artist {
	a, ok := s.artists[rec.ID]
	if !ok {
		a = &Artist{session: s, id: rec.ID}
		s.artists[rec.ID] = a
	}
	a.update(rec)
	return a
}

func (s *Session) artistsFor(recs []types.ArtistRecord) []*Artist {
	out := make([]*Artist, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			continue
		}
		out = append(out, s.artistFor(rec))
	}
	return out
}
