package greenstripes

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// Search is an asynchronous catalog query.
type Search struct {
	session    *Session
	query      string
	offset     int
	count      int
	err        Error
	didYouMean string
	artists    []*Artist
	albums     []*Album
	tracks     []*Track

	totalArtists int
	totalAlbums  int
	totalTracks  int

	loaded   bool
	callback func(*Search)
}

// SearchOption configures NewSearch.
type SearchOption func(*Search)

// WithSearchCallback registers fn to run once when the search completes.
func WithSearchCallback(fn func(*Search)) SearchOption {
	return func(se *Search) {
		se.callback = fn
	}
}

// NewSearch starts a query. offset and count apply to each result list; a
// zero count uses DefaultSearchCount. A query of only white space has no
// link form and is rejected with ErrEmptyQuery.
func NewSearch(s *Session, query string, offset, count int, opts ...SearchOption) (*Search, error) {
	if err := s.requireUsable(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(query) == "" {
		return nil, ErrEmptyQuery
	}
	if offset < 0 || count < 0 {
		return nil, ErrInvalidRange
	}
	if count == 0 {
		count = DefaultSearchCount
	}

	se := &Search{
		session: s,
		query:   query,
		offset:  offset,
		count:   count,
		err:     IsLoading,
	}
	for _, opt := range opts {
		opt(se)
	}

	s.logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": "search",
		"query":     query,
		"offset":    offset,
		"count":     count,
	}).Debug("Starting search")

	req := types.SearchRequest{Query: query, Offset: offset, Limit: count}
	submit(s, "search", func(ctx context.Context) (types.SearchRecord, error) {
		return s.backend.Search(ctx, req)
	}, se.complete)

	return se, nil
}

func (se *Search) complete(rec types.SearchRecord, err error) {
	s := se.session
	se.err = codeFor(err)
	if err == nil {
		se.artists = s.artistsFor(rec.Artists)
		se.albums = s.albumsFor(rec.Albums)
		se.tracks = s.tracksFromRecords(rec.Tracks)
		se.totalArtists = max(rec.TotalArtists, len(se.artists))
		se.totalAlbums = max(rec.TotalAlbums, len(se.albums))
		se.totalTracks = max(rec.TotalTracks, len(se.tracks))
		se.didYouMean = rec.DidYouMean
		if se.didYouMean == "" {
			se.didYouMean = s.matcher.Suggest(se.query, resultNames(rec))
		}
	}

	se.loaded = true
	s.markUpdated()

	s.logger.WithFields(logrus.Fields{
		"component":    "session",
		"operation":    "search",
		"query":        se.query,
		"code":         se.err,
		"artist_count": len(se.artists),
		"album_count":  len(se.albums),
		"track_count":  len(se.tracks),
		"did_you_mean": se.didYouMean,
	}).Debug("Search completed")

	if cb := se.callback; cb != nil {
		se.callback = nil
		cb(se)
	}
}

func resultNames(rec types.SearchRecord) []string {
	names := make([]string, 0, len(rec.Artists)+len(rec.Albums)+len(rec.Tracks))
	for _, a := range rec.Artists {
		names = append(names, a.Name)
	}
	for _, a := range rec.Albums {
		names = append(names, a.Name)
	}
	for _, t := range rec.Tracks {
		names = append(names, t.Name)
	}
	return names
}

// Query returns the query string.
func (se *Search) Query() string {
	return se.query
}

// Offset returns the requested offset into each result list.
func (se *Search) Offset() int {
	return se.offset
}

// Count returns the requested number of results per list.
func (se *Search) Count() int {
	return se.count
}

// Error returns IsLoading until the search completes, then its result code.
func (se *Search) Error() Error {
	return se.err
}

// DidYouMean returns a spelling suggestion, or "" when there is none.
func (se *Search) DidYouMean() string {
	return se.didYouMean
}

// Artists returns the matching artists.
func (se *Search) Artists() Sequence[*Artist] {
	return sequenceOf(&se.artists)
}

// Albums returns the matching albums.
func (se *Search) Albums() Sequence[*Album] {
	return sequenceOf(&se.albums)
}

// Tracks returns the matching tracks.
func (se *Search) Tracks() Sequence[*Track] {
	return sequenceOf(&se.tracks)
}

// TotalArtists returns the number of matching artists in the catalog.
func (se *Search) TotalArtists() int {
	return se.totalArtists
}

// TotalAlbums returns the number of matching albums in the catalog.
func (se *Search) TotalAlbums() int {
	return se.totalAlbums
}

// TotalTracks returns the number of matching tracks in the catalog.
func (se *Search) TotalTracks() int {
	return se.totalTracks
}

// Loaded reports whether the search has completed, successfully or not.
func (se *Search) Loaded() bool {
	return se.loaded
}

// Link returns the search's link.
func (se *Search) Link() link.Link {
	return link.ForSearch(se.query)
}
