// Package types defines the catalog backend contract shared by the session
// layer and its backends, along with the records exchanged across it.
package types

import (
	"context"
	"time"
)

// Backend is the catalog service a session talks to. Every method may block
// on I/O; the session calls them from worker goroutines only.
//
// Tracks returns records for the ids it could resolve, in request order,
// and silently skips unknown ids.
type Backend interface {
	Login(ctx context.Context, creds Credentials) (UserRecord, error)
	Logout(ctx context.Context) error
	Close() error

	User(ctx context.Context, name string) (UserRecord, error)
	Playlists(ctx context.Context) ([]PlaylistRecord, error)
	Playlist(ctx context.Context, owner, id string) (PlaylistRecord, error)
	Tracks(ctx context.Context, ids []string) ([]TrackRecord, error)
	Artist(ctx context.Context, id string) (ArtistRecord, error)
	Album(ctx context.Context, id string) (AlbumRecord, error)

	Search(ctx context.Context, req SearchRequest) (SearchRecord, error)
	ArtistBrowse(ctx context.Context, id string) (ArtistBrowseRecord, error)
	AlbumBrowse(ctx context.Context, id string) (AlbumBrowseRecord, error)
}

// Credentials identify the application and the user logging in.
type Credentials struct {
	ApplicationKey string
	Username       string
	Password       string // #nosec G117 -- user supplied login secret
}

// UserRecord describes a user profile.
type UserRecord struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}

// ArtistRecord describes an artist.
type ArtistRecord struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AlbumRecord describes an album. ArtistID names the primary artist.
type AlbumRecord struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ArtistID   string `json:"artist_id"`
	ArtistName string `json:"artist_name"`
	Year       int    `json:"year"`
	Type       string `json:"album_type"`
}

// TrackRecord describes a track with its artists and album.
type TrackRecord struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Artists    []ArtistRecord `json:"artists"`
	Album      AlbumRecord    `json:"album"`
	Duration   time.Duration  `json:"duration"`
	Popularity int            `json:"popularity"`
	Disc       int            `json:"disc"`
	Index      int            `json:"index"`
}

// PlaylistRecord describes a playlist. TrackIDs is nil in container
// summaries and populated when the playlist itself is fetched.
type PlaylistRecord struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Owner         UserRecord `json:"owner"`
	Collaborative bool       `json:"collaborative"`
	Description   string     `json:"description"`
	TrackIDs      []string   `json:"track_ids"`
}

// SearchRequest is a catalog query. Offset and Limit apply to each of the
// artist, album and track result lists independently.
type SearchRequest struct {
	Query  string
	Offset int
	Limit  int
}

// SearchRecord is the result of a catalog query.
type SearchRecord struct {
	Artists      []ArtistRecord `json:"artists"`
	Albums       []AlbumRecord  `json:"albums"`
	Tracks       []TrackRecord  `json:"tracks"`
	TotalArtists int            `json:"total_artists"`
	TotalAlbums  int            `json:"total_albums"`
	TotalTracks  int            `json:"total_tracks"`
	DidYouMean   string         `json:"did_you_mean"`
}

// ArtistBrowseRecord is the extended metadata of an artist.
type ArtistBrowseRecord struct {
	Artist         ArtistRecord   `json:"artist"`
	Tracks         []TrackRecord  `json:"tracks"`
	Albums         []AlbumRecord  `json:"albums"`
	SimilarArtists []ArtistRecord `json:"similar_artists"`
	Biography      string         `json:"biography"`
}

// AlbumBrowseRecord is the extended metadata of an album.
type AlbumBrowseRecord struct {
	Album      AlbumRecord   `json:"album"`
	Artist     ArtistRecord  `json:"artist"`
	Tracks     []TrackRecord `json:"tracks"`
	Copyrights []string      `json:"copyrights"`
	Review     string        `json:"review"`
}
