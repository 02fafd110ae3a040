package spotify

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"

	"github.com/toozej/greenstripes/internal/types"
)

const (
	// maxTracksPerRequest is the Web API limit for GET /tracks.
	maxTracksPerRequest = 50
	// maxSearchLimit is the Web API limit for a search page.
	maxSearchLimit = 50
	pageLimit      = 50
)

var errClosed = errors.New("spotify backend closed")

// Backend serves catalog requests from the Spotify Web API.
//
// The Web API authenticates with the OAuth token rather than a password, so
// Login ignores the password and application key. A non-empty username must
// match the account the token belongs to.
type Backend struct {
	api    *spotify.Client
	logger *logrus.Logger
	market string

	mu      sync.Mutex
	current *types.UserRecord
	closed  bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger used by the backend.
func WithLogger(logger *logrus.Logger) Option {
	return func(b *Backend) { b.logger = logger }
}

// WithMarket sets the country code used to resolve track availability.
func WithMarket(market string) Option {
	return func(b *Backend) { b.market = market }
}

// NewBackend wraps a Web API client.
func NewBackend(api *spotify.Client, opts ...Option) *Backend {
	b := &Backend{
		api:    api,
		logger: logrus.StandardLogger(),
		market: spotify.CountryUSA,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Backend) log(operation string) *logrus.Entry {
	return b.logger.WithFields(logrus.Fields{
		"component": "spotify_backend",
		"operation": operation,
	})
}

func (b *Backend) enter() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return errors.Join(types.ErrUnavailable, errClosed)
	}
	return nil
}

func (b *Backend) enterLoggedIn() error {
	if err := b.enter(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.current == nil {
		return types.ErrNotLoggedIn
	}
	return nil
}

func (b *Backend) options(extra ...spotify.RequestOption) []spotify.RequestOption {
	if b.market == "" {
		return extra
	}
	return append([]spotify.RequestOption{spotify.Market(b.market)}, extra...)
}

// Login verifies the stored token by fetching the current user.
func (b *Backend) Login(ctx context.Context, creds types.Credentials) (types.UserRecord, error) {
	if err := b.enter(); err != nil {
		return types.UserRecord{}, err
	}

	user, err := b.api.CurrentUser(ctx)
	if err != nil {
		b.log("login").WithError(err).Warn("Failed to fetch current user")
		return types.UserRecord{}, translate(err)
	}
	if creds.Username != "" && creds.Username != user.ID {
		b.log("login").WithFields(logrus.Fields{
			"username": creds.Username,
			"user_id":  user.ID,
		}).Warn("Token belongs to a different user")
		return types.UserRecord{}, types.ErrBadCredentials
	}

	rec := userRecord(user.User)
	b.mu.Lock()
	b.current = &rec
	b.mu.Unlock()

	b.log("login").WithField("user_id", rec.ID).Debug("Logged in")
	return rec, nil
}

// Logout forgets the current user. The token stays on disk.
func (b *Backend) Logout(_ context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current = nil
	return nil
}

// Close marks the backend closed; later calls fail as unavailable.
func (b *Backend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	b.current = nil
	return nil
}

// User fetches a public profile.
func (b *Backend) User(ctx context.Context, name string) (types.UserRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.UserRecord{}, err
	}
	user, err := b.api.GetUsersPublicProfile(ctx, spotify.ID(name))
	if err != nil {
		return types.UserRecord{}, translate(err)
	}
	return userRecord(*user), nil
}

// Playlists lists the current user's playlists, following every page.
func (b *Backend) Playlists(ctx context.Context) ([]types.PlaylistRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return nil, err
	}

	page, err := b.api.CurrentUsersPlaylists(ctx, spotify.Limit(pageLimit))
	if err != nil {
		return nil, translate(err)
	}

	var out []types.PlaylistRecord
	for {
		for _, p := range page.Playlists {
			out = append(out, playlistRecord(p))
		}
		if err := b.api.NextPage(ctx, page); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				break
			}
			return nil, translate(err)
		}
	}

	b.log("playlists").WithField("count", len(out)).Debug("Listed playlists")
	return out, nil
}

// Playlist fetches a playlist with its track ids. Local files and podcast
// episodes have no catalog track and are skipped. A non-empty owner must
// match the playlist's owner.
func (b *Backend) Playlist(ctx context.Context, owner, id string) (types.PlaylistRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.PlaylistRecord{}, err
	}

	pl, err := b.api.GetPlaylist(ctx, spotify.ID(id), b.options()...)
	if err != nil {
		return types.PlaylistRecord{}, translate(err)
	}
	if owner != "" && pl.Owner.ID != owner {
		return types.PlaylistRecord{}, types.ErrNotFound
	}

	items, err := b.api.GetPlaylistItems(ctx, spotify.ID(id), b.options(spotify.Limit(100))...)
	if err != nil {
		return types.PlaylistRecord{}, translate(err)
	}

	rec := playlistRecord(pl.SimplePlaylist)
	rec.TrackIDs = []string{}
	for {
		for _, item := range items.Items {
			if item.Track.Track == nil || item.Track.Track.ID == "" {
				continue
			}
			rec.TrackIDs = append(rec.TrackIDs, string(item.Track.Track.ID))
		}
		if err := b.api.NextPage(ctx, items); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				break
			}
			return types.PlaylistRecord{}, translate(err)
		}
	}
	return rec, nil
}

// Tracks fetches tracks in request order, skipping ids the Web API does not
// know.
func (b *Backend) Tracks(ctx context.Context, ids []string) ([]types.TrackRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return nil, err
	}

	out := make([]types.TrackRecord, 0, len(ids))
	for chunk := range slices.Chunk(ids, maxTracksPerRequest) {
		spotifyIDs := make([]spotify.ID, len(chunk))
		for i, id := range chunk {
			spotifyIDs[i] = spotify.ID(id)
		}
		tracks, err := b.api.GetTracks(ctx, spotifyIDs, b.options()...)
		if err != nil {
			return nil, translate(err)
		}
		for _, t := range tracks {
			if t == nil || t.ID == "" {
				continue
			}
			out = append(out, trackRecord(*t))
		}
	}
	return out, nil
}

// Artist fetches an artist.
func (b *Backend) Artist(ctx context.Context, id string) (types.ArtistRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.ArtistRecord{}, err
	}
	a, err := b.api.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return types.ArtistRecord{}, translate(err)
	}
	return artistRecord(a.SimpleArtist), nil
}

// Album fetches an album.
func (b *Backend) Album(ctx context.Context, id string) (types.AlbumRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.AlbumRecord{}, err
	}
	a, err := b.api.GetAlbum(ctx, spotify.ID(id), b.options()...)
	if err != nil {
		return types.AlbumRecord{}, translate(err)
	}
	return albumRecord(a.SimpleAlbum), nil
}

// Search queries artists, albums and tracks in one request. The Web API
// offers no spelling suggestion, so DidYouMean is always empty.
func (b *Backend) Search(ctx context.Context, req types.SearchRequest) (types.SearchRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.SearchRecord{}, err
	}
	if req.Query == "" {
		return types.SearchRecord{}, types.ErrInvalidInput
	}

	limit := min(max(req.Limit, 1), maxSearchLimit)
	res, err := b.api.Search(ctx, req.Query,
		spotify.SearchTypeArtist|spotify.SearchTypeAlbum|spotify.SearchTypeTrack,
		b.options(spotify.Limit(limit), spotify.Offset(max(req.Offset, 0)))...)
	if err != nil {
		b.log("search").WithError(err).WithField("query", req.Query).Warn("Search failed")
		return types.SearchRecord{}, translate(err)
	}

	var rec types.SearchRecord
	if res.Artists != nil {
		rec.TotalArtists = int(res.Artists.Total)
		for _, a := range res.Artists.Artists {
			rec.Artists = append(rec.Artists, artistRecord(a.SimpleArtist))
		}
	}
	if res.Albums != nil {
		rec.TotalAlbums = int(res.Albums.Total)
		for _, a := range res.Albums.Albums {
			rec.Albums = append(rec.Albums, albumRecord(a))
		}
	}
	if res.Tracks != nil {
		rec.TotalTracks = int(res.Tracks.Total)
		for _, t := range res.Tracks.Tracks {
			rec.Tracks = append(rec.Tracks, trackRecord(t))
		}
	}

	b.log("search").WithFields(logrus.Fields{
		"query":   req.Query,
		"artists": len(rec.Artists),
		"albums":  len(rec.Albums),
		"tracks":  len(rec.Tracks),
	}).Debug("Search completed")
	return rec, nil
}

// ArtistBrowse gathers an artist's top tracks, albums and related artists.
// Related artists are best effort since the endpoint is not available to
// every application; a failure there leaves the list empty. The Web API
// carries no biographies.
func (b *Backend) ArtistBrowse(ctx context.Context, id string) (types.ArtistBrowseRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.ArtistBrowseRecord{}, err
	}

	artist, err := b.api.GetArtist(ctx, spotify.ID(id))
	if err != nil {
		return types.ArtistBrowseRecord{}, translate(err)
	}
	rec := types.ArtistBrowseRecord{Artist: artistRecord(artist.SimpleArtist)}

	top, err := b.api.GetArtistsTopTracks(ctx, artist.ID, b.marketOrDefault())
	if err != nil {
		return types.ArtistBrowseRecord{}, translate(err)
	}
	for _, t := range top {
		rec.Tracks = append(rec.Tracks, trackRecord(t))
	}

	albums, err := b.api.GetArtistAlbums(ctx, artist.ID,
		[]spotify.AlbumType{spotify.AlbumTypeAlbum, spotify.AlbumTypeSingle, spotify.AlbumTypeCompilation},
		b.options(spotify.Limit(pageLimit))...)
	if err != nil {
		return types.ArtistBrowseRecord{}, translate(err)
	}
	for _, a := range albums.Albums {
		rec.Albums = append(rec.Albums, albumRecord(a))
	}

	related, err := b.api.GetRelatedArtists(ctx, artist.ID)
	if err != nil {
		b.log("artist_browse").WithError(err).WithField("artist_id", id).Debug("Related artists unavailable")
	}
	for _, a := range related {
		rec.SimilarArtists = append(rec.SimilarArtists, artistRecord(a.SimpleArtist))
	}
	return rec, nil
}

// AlbumBrowse fetches an album with its full track list and copyrights.
// The Web API carries no reviews.
func (b *Backend) AlbumBrowse(ctx context.Context, id string) (types.AlbumBrowseRecord, error) {
	if err := b.enterLoggedIn(); err != nil {
		return types.AlbumBrowseRecord{}, err
	}

	album, err := b.api.GetAlbum(ctx, spotify.ID(id), b.options()...)
	if err != nil {
		return types.AlbumBrowseRecord{}, translate(err)
	}

	rec := types.AlbumBrowseRecord{Album: albumRecord(album.SimpleAlbum)}
	if len(album.Artists) > 0 {
		rec.Artist = artistRecord(album.Artists[0])
	}
	for _, c := range album.Copyrights {
		rec.Copyrights = append(rec.Copyrights, c.Text)
	}

	page := &album.Tracks
	for {
		for _, t := range page.Tracks {
			rec.Tracks = append(rec.Tracks, simpleTrackRecord(t, rec.Album))
		}
		if err := b.api.NextPage(ctx, page); err != nil {
			if errors.Is(err, spotify.ErrNoMorePages) {
				break
			}
			return types.AlbumBrowseRecord{}, translate(err)
		}
	}
	return rec, nil
}

func (b *Backend) marketOrDefault() string {
	if b.market == "" {
		return spotify.CountryUSA
	}
	return b.market
}

func userRecord(u spotify.User) types.UserRecord {
	return types.UserRecord{ID: u.ID, DisplayName: u.DisplayName}
}

func artistRecord(a spotify.SimpleArtist) types.ArtistRecord {
	return types.ArtistRecord{ID: string(a.ID), Name: a.Name}
}

func albumRecord(a spotify.SimpleAlbum) types.AlbumRecord {
	rec := types.AlbumRecord{
		ID:   string(a.ID),
		Name: a.Name,
		Year: releaseYear(a.ReleaseDate),
		Type: a.AlbumType,
	}
	if len(a.Artists) > 0 {
		rec.ArtistID = string(a.Artists[0].ID)
		rec.ArtistName = a.Artists[0].Name
	}
	return rec
}

func trackRecord(t spotify.FullTrack) types.TrackRecord {
	rec := simpleTrackRecord(t.SimpleTrack, albumRecord(t.Album))
	rec.Popularity = int(t.Popularity)
	return rec
}

func simpleTrackRecord(t spotify.SimpleTrack, album types.AlbumRecord) types.TrackRecord {
	rec := types.TrackRecord{
		ID:       string(t.ID),
		Name:     t.Name,
		Album:    album,
		Duration: time.Duration(t.Duration) * time.Millisecond,
		Disc:     int(t.DiscNumber),
		Index:    int(t.TrackNumber),
	}
	for _, a := range t.Artists {
		rec.Artists = append(rec.Artists, artistRecord(a))
	}
	return rec
}

func playlistRecord(p spotify.SimplePlaylist) types.PlaylistRecord {
	return types.PlaylistRecord{
		ID:            string(p.ID),
		Name:          p.Name,
		Owner:         userRecord(p.Owner),
		Collaborative: p.Collaborative,
		Description:   p.Description,
	}
}

// releaseYear extracts the year from a release date of day, month or year
// precision ("2009-04-21", "2009-04", "2009").
func releaseYear(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

var _ types.Backend = (*Backend)(nil)
