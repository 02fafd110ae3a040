package greenstripes

import (
	"fmt"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

func checkLink(l link.Link, want link.Type) error {
	if l.Type != want {
		return fmt.Errorf("%w: want %s, got %s", ErrLinkType, want, l.Type)
	}
	return nil
}

// TrackFromLink returns the track l points to, loading it if needed.
func (s *Session) TrackFromLink(l link.Link) (*Track, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if err := checkLink(l, link.Track); err != nil {
		return nil, err
	}
	return s.trackFor(l.ID), nil
}

// AlbumFromLink returns the album l points to, loading it if needed.
func (s *Session) AlbumFromLink(l link.Link) (*Album, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if err := checkLink(l, link.Album); err != nil {
		return nil, err
	}
	a := s.albumFor(types.AlbumRecord{ID: l.ID})
	a.load()
	return a, nil
}

// ArtistFromLink returns the artist l points to, loading it if needed.
func (s *Session) ArtistFromLink(l link.Link) (*Artist, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if err := checkLink(l, link.Artist); err != nil {
		return nil, err
	}
	a := s.artistFor(types.ArtistRecord{ID: l.ID})
	a.load()
	return a, nil
}

// UserFromLink returns the user l points to, loading the profile if needed.
func (s *Session) UserFromLink(l link.Link) (*User, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if err := checkLink(l, link.Profile); err != nil {
		return nil, err
	}
	return s.userFor(types.UserRecord{ID: l.User}), nil
}

// PlaylistFromLink returns the playlist l points to, loading it if needed.
func (s *Session) PlaylistFromLink(l link.Link) (*Playlist, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if err := checkLink(l, link.Playlist); err != nil {
		return nil, err
	}
	p := s.playlistFor(types.PlaylistRecord{ID: l.ID, Owner: types.UserRecord{ID: l.User}})
	p.load()
	return p, nil
}

// SearchFromLink starts the search l describes with default paging.
func (s *Session) SearchFromLink(l link.Link, opts ...SearchOption) (*Search, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if err := checkLink(l, link.Search); err != nil {
		return nil, err
	}
	return NewSearch(s, l.Query, 0, 0, opts...)
}

// Resolve returns the object l points to. Searches are started with
// default paging.
func (s *Session) Resolve(l link.Link) (link.Linker, error) {
	switch l.Type {
	case link.Track:
		return linker(s.TrackFromLink(l))
	case link.Album:
		return linker(s.AlbumFromLink(l))
	case link.Artist:
		return linker(s.ArtistFromLink(l))
	case link.Profile:
		return linker(s.UserFromLink(l))
	case link.Playlist:
		return linker(s.PlaylistFromLink(l))
	case link.Search:
		return linker(s.SearchFromLink(l))
	}
	return nil, fmt.Errorf("%w: %s", ErrLinkType, l.Type)
}

// linker keeps a failed lookup from becoming a non-nil interface.
func linker[T link.Linker](v T, err error) (link.Linker, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}
