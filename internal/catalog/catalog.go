// Package catalog implements an in-memory catalog backend loaded from JSON.
//
// It serves the bundled demo catalog for offline use of the CLI and acts as
// the backend of the session tests. Failure modes of a remote service can be
// simulated with WithLatency and SetUnavailable.
package catalog

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/toozej/greenstripes/internal/search"
	"github.com/toozej/greenstripes/internal/types"
)

// Backend serves catalog data from memory.
type Backend struct {
	logger  *logrus.Logger
	matcher *search.Matcher
	latency time.Duration
	appKey  string

	users     map[string]User
	artists   map[string]Artist
	albums    map[string]Album
	tracks    map[string]Track
	playlists map[string]Playlist

	// ordered views used by search and browse
	artistList []Artist
	albumList  []Album
	trackList  []Track

	unavailable atomic.Bool

	mu      sync.RWMutex
	current string
	closed  bool
}

// Option configures a Backend.
type Option func(*Backend)

// WithLogger sets the logger.
func WithLogger(logger *logrus.Logger) Option {
	return func(b *Backend) {
		b.logger = logger
	}
}

// WithLatency delays every call by d.
func WithLatency(d time.Duration) Option {
	return func(b *Backend) {
		b.latency = d
	}
}

// WithApplicationKey makes Login reject any other application key.
func WithApplicationKey(key string) Option {
	return func(b *Backend) {
		b.appKey = key
	}
}

// New validates data and builds a backend serving it.
func New(data *Data, opts ...Option) (*Backend, error) {
	if data == nil {
		return nil, fmt.Errorf("%w: no data", ErrInvalidCatalog)
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	b := &Backend{
		users:      make(map[string]User, len(data.Users)),
		artists:    make(map[string]Artist, len(data.Artists)),
		albums:     make(map[string]Album, len(data.Albums)),
		tracks:     make(map[string]Track, len(data.Tracks)),
		playlists:  make(map[string]Playlist, len(data.Playlists)),
		artistList: slices.Clone(data.Artists),
		albumList:  slices.Clone(data.Albums),
		trackList:  slices.Clone(data.Tracks),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = logrus.StandardLogger()
	}
	b.matcher = search.NewMatcher(b.logger)

	for _, u := range data.Users {
		b.users[u.ID] = u
	}
	for _, a := range data.Artists {
		b.artists[a.ID] = a
	}
	for _, a := range data.Albums {
		b.albums[a.ID] = a
	}
	for _, t := range data.Tracks {
		b.tracks[t.ID] = t
	}
	for _, p := range data.Playlists {
		b.playlists[p.ID] = p
	}

	b.logger.WithFields(logrus.Fields{
		"component": "catalog",
		"users":     len(b.users),
		"artists":   len(b.artists),
		"albums":    len(b.albums),
		"tracks":    len(b.tracks),
		"playlists": len(b.playlists),
	}).Debug("Loaded catalog")

	return b, nil
}

// SetUnavailable makes every call fail with types.ErrUnavailable until it
// is reset.
func (b *Backend) SetUnavailable(down bool) {
	b.unavailable.Store(down)
}

// enter simulates the round trip every call makes.
func (b *Backend) enter(ctx context.Context, op string) error {
	b.logger.WithFields(logrus.Fields{
		"component": "catalog",
		"operation": op,
	}).Trace("Handling request")

	if b.latency > 0 {
		timer := time.NewTimer(b.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if b.unavailable.Load() {
		return fmt.Errorf("%s: %w", op, types.ErrUnavailable)
	}

	b.mu.RLock()
	closed := b.closed
	b.mu.RUnlock()
	if closed {
		return fmt.Errorf("%s: backend closed: %w", op, types.ErrUnavailable)
	}
	return nil
}

// enterLoggedIn is enter for calls that need a login.
func (b *Backend) enterLoggedIn(ctx context.Context, op string) (string, error) {
	if err := b.enter(ctx, op); err != nil {
		return "", err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.current == "" {
		return "", fmt.Errorf("%s: %w", op, types.ErrNotLoggedIn)
	}
	return b.current, nil
}

// Login checks the credentials against the catalog's users.
func (b *Backend) Login(ctx context.Context, creds types.Credentials) (types.UserRecord, error) {
	if err := b.enter(ctx, "login"); err != nil {
		return types.UserRecord{}, err
	}
	if b.appKey != "" && creds.ApplicationKey != b.appKey {
		return types.UserRecord{}, fmt.Errorf("login: %w", types.ErrBadApplicationKey)
	}

	u, ok := b.users[creds.Username]
	if !ok || u.Password != creds.Password {
		return types.UserRecord{}, fmt.Errorf("login as %q: %w", creds.Username, types.ErrBadCredentials)
	}

	b.mu.Lock()
	b.current = u.ID
	b.mu.Unlock()

	b.logger.WithFields(logrus.Fields{
		"component": "catalog",
		"operation": "login",
		"user_id":   u.ID,
	}).Debug("User logged in")

	return userRecord(u), nil
}

// Logout ends the current login.
func (b *Backend) Logout(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	b.current = ""
	b.mu.Unlock()
	return nil
}

// Close makes every later call fail.
func (b *Backend) Close() error {
	b.mu.Lock()
	b.current = ""
	b.closed = true
	b.mu.Unlock()
	return nil
}

// User returns the profile of name.
func (b *Backend) User(ctx context.Context, name string) (types.UserRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "user"); err != nil {
		return types.UserRecord{}, err
	}
	u, ok := b.users[name]
	if !ok {
		return types.UserRecord{}, fmt.Errorf("user %q: %w", name, types.ErrNoSuchUser)
	}
	return userRecord(u), nil
}

// Playlists returns summaries of the current user's playlists.
func (b *Backend) Playlists(ctx context.Context) ([]types.PlaylistRecord, error) {
	current, err := b.enterLoggedIn(ctx, "playlists")
	if err != nil {
		return nil, err
	}
	ids := b.users[current].Playlists
	out := make([]types.PlaylistRecord, 0, len(ids))
	for _, id := range ids {
		rec := b.playlistRecord(b.playlists[id])
		rec.TrackIDs = nil
		out = append(out, rec)
	}
	return out, nil
}

// Playlist returns a playlist with its track ids. An empty owner matches
// any owner.
func (b *Backend) Playlist(ctx context.Context, owner, id string) (types.PlaylistRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "playlist"); err != nil {
		return types.PlaylistRecord{}, err
	}
	p, ok := b.playlists[id]
	if !ok || (owner != "" && owner != p.Owner) {
		return types.PlaylistRecord{}, fmt.Errorf("playlist %s/%s: %w", owner, id, types.ErrNotFound)
	}
	return b.playlistRecord(p), nil
}

// Tracks returns the known tracks among ids, in request order.
func (b *Backend) Tracks(ctx context.Context, ids []string) ([]types.TrackRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "tracks"); err != nil {
		return nil, err
	}
	out := make([]types.TrackRecord, 0, len(ids))
	for _, id := range ids {
		if t, ok := b.tracks[id]; ok {
			out = append(out, b.trackRecord(t))
		}
	}
	return out, nil
}

// Artist returns one artist.
func (b *Backend) Artist(ctx context.Context, id string) (types.ArtistRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "artist"); err != nil {
		return types.ArtistRecord{}, err
	}
	a, ok := b.artists[id]
	if !ok {
		return types.ArtistRecord{}, fmt.Errorf("artist %s: %w", id, types.ErrNotFound)
	}
	return artistRecord(a), nil
}

// Album returns one album.
func (b *Backend) Album(ctx context.Context, id string) (types.AlbumRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "album"); err != nil {
		return types.AlbumRecord{}, err
	}
	a, ok := b.albums[id]
	if !ok {
		return types.AlbumRecord{}, fmt.Errorf("album %s: %w", id, types.ErrNotFound)
	}
	return b.albumRecord(a), nil
}

// Search ranks artists, albums and tracks by how well their names match
// the query and returns one page of each.
func (b *Backend) Search(ctx context.Context, req types.SearchRequest) (types.SearchRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "search"); err != nil {
		return types.SearchRecord{}, err
	}
	if req.Query == "" {
		return types.SearchRecord{}, fmt.Errorf("search: empty query: %w", types.ErrInvalidInput)
	}
	if req.Offset < 0 || req.Limit < 0 {
		return types.SearchRecord{}, fmt.Errorf("search: negative paging: %w", types.ErrInvalidInput)
	}

	artists := rank(b.matcher, req.Query, b.artistList, func(a Artist) string { return a.Name })
	albums := rank(b.matcher, req.Query, b.albumList, func(a Album) string { return a.Name })
	tracks := rank(b.matcher, req.Query, b.trackList, func(t Track) string { return t.Name })

	rec := types.SearchRecord{
		TotalArtists: len(artists),
		TotalAlbums:  len(albums),
		TotalTracks:  len(tracks),
	}
	for _, a := range page(artists, req.Offset, req.Limit) {
		rec.Artists = append(rec.Artists, artistRecord(a))
	}
	for _, a := range page(albums, req.Offset, req.Limit) {
		rec.Albums = append(rec.Albums, b.albumRecord(a))
	}
	for _, t := range page(tracks, req.Offset, req.Limit) {
		rec.Tracks = append(rec.Tracks, b.trackRecord(t))
	}

	if rec.TotalArtists+rec.TotalAlbums+rec.TotalTracks == 0 {
		rec.DidYouMean = b.matcher.Suggest(req.Query, b.names())
	}

	b.logger.WithFields(logrus.Fields{
		"component":     "catalog",
		"operation":     "search",
		"query":         req.Query,
		"total_artists": rec.TotalArtists,
		"total_albums":  rec.TotalAlbums,
		"total_tracks":  rec.TotalTracks,
	}).Debug("Search handled")

	return rec, nil
}

// ArtistBrowse returns an artist with its tracks, albums and similar artists.
func (b *Backend) ArtistBrowse(ctx context.Context, id string) (types.ArtistBrowseRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "artist_browse"); err != nil {
		return types.ArtistBrowseRecord{}, err
	}
	a, ok := b.artists[id]
	if !ok {
		return types.ArtistBrowseRecord{}, fmt.Errorf("artist %s: %w", id, types.ErrNotFound)
	}

	rec := types.ArtistBrowseRecord{
		Artist:    artistRecord(a),
		Biography: a.Biography,
	}
	for _, t := range b.trackList {
		if slices.Contains(t.ArtistIDs, id) {
			rec.Tracks = append(rec.Tracks, b.trackRecord(t))
		}
	}
	for _, al := range b.albumList {
		if al.ArtistID == id {
			rec.Albums = append(rec.Albums, b.albumRecord(al))
		}
	}
	for _, sid := range a.Similar {
		rec.SimilarArtists = append(rec.SimilarArtists, artistRecord(b.artists[sid]))
	}
	return rec, nil
}

// AlbumBrowse returns an album with its artist and tracks in disc order.
func (b *Backend) AlbumBrowse(ctx context.Context, id string) (types.AlbumBrowseRecord, error) {
	if _, err := b.enterLoggedIn(ctx, "album_browse"); err != nil {
		return types.AlbumBrowseRecord{}, err
	}
	al, ok := b.albums[id]
	if !ok {
		return types.AlbumBrowseRecord{}, fmt.Errorf("album %s: %w", id, types.ErrNotFound)
	}

	var tracks []Track
	for _, t := range b.trackList {
		if t.AlbumID == id {
			tracks = append(tracks, t)
		}
	}
	slices.SortStableFunc(tracks, func(x, y Track) int {
		return cmp.Or(cmp.Compare(x.Disc, y.Disc), cmp.Compare(x.Index, y.Index))
	})

	rec := types.AlbumBrowseRecord{
		Album:      b.albumRecord(al),
		Artist:     artistRecord(b.artists[al.ArtistID]),
		Copyrights: slices.Clone(al.Copyrights),
		Review:     al.Review,
	}
	for _, t := range tracks {
		rec.Tracks = append(rec.Tracks, b.trackRecord(t))
	}
	return rec, nil
}

func (b *Backend) names() []string {
	names := make([]string, 0, len(b.artistList)+len(b.albumList)+len(b.trackList))
	for _, a := range b.artistList {
		names = append(names, a.Name)
	}
	for _, a := range b.albumList {
		names = append(names, a.Name)
	}
	for _, t := range b.trackList {
		names = append(names, t.Name)
	}
	return names
}

func userRecord(u User) types.UserRecord {
	return types.UserRecord{ID: u.ID, DisplayName: u.DisplayName}
}

func artistRecord(a Artist) types.ArtistRecord {
	return types.ArtistRecord{ID: a.ID, Name: a.Name}
}

func (b *Backend) albumRecord(a Album) types.AlbumRecord {
	return types.AlbumRecord{
		ID:         a.ID,
		Name:       a.Name,
		ArtistID:   a.ArtistID,
		ArtistName: b.artists[a.ArtistID].Name,
		Year:       a.Year,
		Type:       a.Type,
	}
}

func (b *Backend) trackRecord(t Track) types.TrackRecord {
	rec := types.TrackRecord{
		ID:         t.ID,
		Name:       t.Name,
		Album:      b.albumRecord(b.albums[t.AlbumID]),
		Duration:   time.Duration(t.DurationMS) * time.Millisecond,
		Popularity: t.Popularity,
		Disc:       t.Disc,
		Index:      t.Index,
	}
	for _, id := range t.ArtistIDs {
		rec.Artists = append(rec.Artists, artistRecord(b.artists[id]))
	}
	return rec
}

func (b *Backend) playlistRecord(p Playlist) types.PlaylistRecord {
	return types.PlaylistRecord{
		ID:            p.ID,
		Name:          p.Name,
		Owner:         userRecord(b.users[p.Owner]),
		Collaborative: p.Collaborative,
		Description:   p.Description,
		TrackIDs:      slices.Clone(p.TrackIDs),
	}
}

func rank[T any](m *search.Matcher, query string, items []T, name func(T) string) []T {
	names := make([]string, len(items))
	for i, item := range items {
		names[i] = name(item)
	}
	matches := m.Rank(query, names)
	out := make([]T, 0, len(matches))
	for _, match := range matches {
		out = append(out, items[match.Index])
	}
	return out
}

func page[T any](items []T, offset, limit int) []T {
	if offset >= len(items) {
		return nil
	}
	end := len(items)
	if limit > 0 {
		end = min(offset+limit, end)
	}
	return items[offset:end]
}
