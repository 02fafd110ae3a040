package greenstripes

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// ArtistBrowse is the asynchronously loaded extended metadata of an artist.
type ArtistBrowse struct {
	session   *Session
	artist    *Artist
	err       Error
	tracks    []*Track
	albums    []*Album
	similar   []*Artist
	biography string
	loaded    bool
	callback  func(*ArtistBrowse)
}

// ArtistBrowseOption configures NewArtistBrowse.
type ArtistBrowseOption func(*ArtistBrowse)

// WithArtistBrowseCallback registers fn to run once when the browse completes.
func WithArtistBrowseCallback(fn func(*ArtistBrowse)) ArtistBrowseOption {
	return func(b *ArtistBrowse) {
		b.callback = fn
	}
}

// NewArtistBrowse starts browsing artist.
func NewArtistBrowse(s *Session, artist *Artist, opts ...ArtistBrowseOption) (*ArtistBrowse, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if artist == nil {
		return nil, ErrNilObject
	}

	b := &ArtistBrowse{session: s, artist: artist, err: IsLoading}
	for _, opt := range opts {
		opt(b)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": "artist_browse",
		"artist_id": artist.id,
	}).Debug("Browsing artist")

	id := artist.id
	submit(s, "artist_browse", func(ctx context.Context) (types.ArtistBrowseRecord, error) {
		return s.backend.ArtistBrowse(ctx, id)
	}, b.complete)

	return b, nil
}

func (b *ArtistBrowse) complete(rec types.ArtistBrowseRecord, err error) {
	s := b.session
	b.err = codeFor(err)
	if err == nil {
		b.artist.update(rec.Artist)
		b.tracks = s.tracksFromRecords(rec.Tracks)
		b.albums = s.albumsFor(rec.Albums)
		b.similar = s.artistsFor(rec.SimilarArtists)
		b.biography = rec.Biography
	}
	b.loaded = true
	s.markUpdated()

	s.logger.WithFields(logrus.Fields{
		"component":     "session",
		"operation":     "artist_browse",
		"artist_id":     b.artist.id,
		"code":          b.err,
		"track_count":   len(b.tracks),
		"similar_count": len(b.similar),
	}).Debug("Artist browse completed")

	if cb := b.callback; cb != nil {
		b.callback = nil
		cb(b)
	}
}

// Artist returns the browsed artist.
func (b *ArtistBrowse) Artist() *Artist {
	return b.artist
}

// Error returns IsLoading until the browse completes, then its result code.
func (b *ArtistBrowse) Error() Error {
	return b.err
}

// Tracks returns the artist's tracks.
func (b *ArtistBrowse) Tracks() Sequence[*Track] {
	return sequenceOf(&b.tracks)
}

// Albums returns the artist's albums.
func (b *ArtistBrowse) Albums() Sequence[*Album] {
	return sequenceOf(&b.albums)
}

// SimilarArtists returns related artists.
func (b *ArtistBrowse) SimilarArtists() Sequence[*Artist] {
	return sequenceOf(&b.similar)
}

// Biography returns the artist's biography, or "" when the catalog has none.
func (b *ArtistBrowse) Biography() string {
	return b.biography
}

// Loaded reports whether the browse has completed.
func (b *ArtistBrowse) Loaded() bool {
	return b.loaded
}

// Link returns the browsed artist's link.
func (b *ArtistBrowse) Link() link.Link {
	return b.artist.Link()
}

// AlbumBrowse is the asynchronously loaded extended metadata of an album.
type AlbumBrowse struct {
	session    *Session
	album      *Album
	artist     *Artist
	err        Error
	tracks     []*Track
	copyrights []string
	review     string
	loaded     bool
	callback   func(*AlbumBrowse)
}

// AlbumBrowseOption configures NewAlbumBrowse.
type AlbumBrowseOption func(*AlbumBrowse)

// WithAlbumBrowseCallback registers fn to run once when the browse completes.
func WithAlbumBrowseCallback(fn func(*AlbumBrowse)) AlbumBrowseOption {
	return func(b *AlbumBrowse) {
		b.callback = fn
	}
}

// NewAlbumBrowse starts browsing album.
func NewAlbumBrowse(s *Session, album *Album, opts ...AlbumBrowseOption) (*AlbumBrowse, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if album == nil {
		return nil, ErrNilObject
	}

	b := &AlbumBrowse{session: s, album: album, err: IsLoading}
	for _, opt := range opts {
		opt(b)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": "album_browse",
		"album_id":  album.id,
	}).Debug("Browsing album")

	id := album.id
	submit(s, "album_browse", func(ctx context.Context) (types.AlbumBrowseRecord, error) {
		return s.backend.AlbumBrowse(ctx, id)
	}, b.complete)

	return b, nil
}

func (b *AlbumBrowse) complete(rec types.AlbumBrowseRecord, err error) {
	s := b.session
	b.err = codeFor(err)
	if err == nil {
		if rec.Album.ArtistID == "" && rec.Artist.ID != "" {
			rec.Album.ArtistID = rec.Artist.ID
			rec.Album.ArtistName = rec.Artist.Name
		}
		b.album.update(rec.Album)
		if rec.Artist.ID != "" {
			b.artist = s.artistFor(rec.Artist)
		} else {
			b.artist = b.album.artist
		}
		b.tracks = s.tracksFromRecords(rec.Tracks)
		b.copyrights = rec.Copyrights
		b.review = rec.Review
	}
	b.loaded = true
	s.markUpdated()

	s.logger.WithFields(logrus.Fields{
		"component":   "session",
		"operation":   "album_browse",
		"album_id":    b.album.id,
		"code":        b.err,
		"track_count": len(b.tracks),
	}).Debug("Album browse completed")

	if cb := b.callback; cb != nil {
		b.callback = nil
		cb(b)
	}
}

// Album returns the browsed album.
func (b *AlbumBrowse) Album() *Album {
	return b.album
}

// Artist returns the album's artist, or nil until loaded.
func (b *AlbumBrowse) Artist() *Artist {
	return b.artist
}

// Error returns IsLoading until the browse completes, then its result code.
func (b *AlbumBrowse) Error() Error {
	return b.err
}

// Tracks returns the album's tracks in disc order.
func (b *AlbumBrowse) Tracks() Sequence[*Track] {
	return sequenceOf(&b.tracks)
}

// Copyrights returns the album's copyright notices.
func (b *AlbumBrowse) Copyrights() Sequence[string] {
	return sequenceOf(&b.copyrights)
}

// Review returns the album review, or "" when the catalog has none.
func (b *AlbumBrowse) Review() string {
	return b.review
}

// Loaded reports whether the browse has completed.
func (b *AlbumBrowse) Loaded() bool {
	return b.loaded
}

// Link returns the browsed album's link.
func (b *AlbumBrowse) Link() link.Link {
	return b.album.Link()
}
