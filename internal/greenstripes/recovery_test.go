package greenstripes

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/greenstripes/internal/catalog"
	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

const (
	unlistedTrackLink = "spotify:track:oQoaF1LlqsajAIxNKu8iS2"
	quietArtistID     = "Qu1etHarb0urArt1st0001"
	quietAlbumID      = "Qu1etHarb0urA1bum00001"
	quietPlaylistID   = "Qu1etP1ay1istNad1a0001"
	quietUser         = "nadia"
)

// addQuietHarbour adds catalog entries that nothing in the demo user's
// playlists refers to, so they are only ever loaded on request.
func addQuietHarbour(d *catalog.Data) {
	d.Users = append(d.Users, catalog.User{
		ID:          quietUser,
		DisplayName: "Nadia Okafor",
		Password:    "tide",
		Playlists:   []string{quietPlaylistID},
	})
	d.Artists = append(d.Artists, catalog.Artist{ID: quietArtistID, Name: "Quiet Harbour"})
	d.Albums = append(d.Albums, catalog.Album{
		ID:       quietAlbumID,
		Name:     "Low Water",
		ArtistID: quietArtistID,
		Year:     2012,
		Type:     "album",
	})
	d.Playlists = append(d.Playlists, catalog.Playlist{
		ID:       quietPlaylistID,
		Name:     "Slack Tide",
		Owner:    quietUser,
		TrackIDs: []string{"5zr3QA7YeEEBY3ABp3e2zS"},
	})
}

func notLoading(objects ...settleable) func() bool {
	return func() bool {
		for _, o := range objects {
			if o.Error() == IsLoading {
				return false
			}
		}
		return true
	}
}

func allLoaded(objects ...settleable) func() bool {
	return func() bool {
		for _, o := range objects {
			if !o.Loaded() {
				return false
			}
		}
		return true
	}
}

type settleable interface {
	Loaded() bool
	Error() Error
}

func TestTrackRetriedOnAccessAfterOutage(t *testing.T) {
	s, backend := loggedInSession(t)
	pump(t, s, func() bool { return s.Pending() == 0 })

	backend.SetUnavailable(true)
	track, err := s.TrackFromLink(link.MustParse(unlistedTrackLink))
	require.NoError(t, err)
	pump(t, s, notLoading(track))

	assert.False(t, track.Loaded())
	assert.Equal(t, UnableToContactServer, track.Error())
	assert.Equal(t, Disconnected, s.ConnectionState())

	backend.SetUnavailable(false)
	again, err := s.TrackFromLink(link.MustParse(unlistedTrackLink))
	require.NoError(t, err)
	assert.Same(t, track, again)
	assert.Equal(t, IsLoading, again.Error())

	pump(t, s, again.Loaded)
	assert.Equal(t, OK, again.Error())
	assert.Equal(t, "Satellite Heart", again.Name())
	assert.Equal(t, LoggedIn, s.ConnectionState())
}

func TestNotFoundTrackIsNotRetried(t *testing.T) {
	s, _ := loggedInSession(t)
	pump(t, s, func() bool { return s.Pending() == 0 })

	missing, err := s.TrackFromLink(link.Of(link.Track, missingID))
	require.NoError(t, err)
	pump(t, s, notLoading(missing))
	require.Equal(t, NotFound, missing.Error())

	_, err = s.TrackFromLink(link.Of(link.Track, missingID))
	require.NoError(t, err)
	s.ProcessEvents()
	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, NotFound, missing.Error())
}

func TestLoadsResumeAfterReconnect(t *testing.T) {
	backend := newBackend(t, addQuietHarbour)
	s := newSession(t, backend, nil)
	login(t, s)
	pump(t, s, func() bool { return s.Pending() == 0 })

	backend.SetUnavailable(true)
	track, err := s.TrackFromLink(link.MustParse(unlistedTrackLink))
	require.NoError(t, err)
	album, err := s.AlbumFromLink(link.Of(link.Album, quietAlbumID))
	require.NoError(t, err)
	artist, err := s.ArtistFromLink(link.Of(link.Artist, quietArtistID))
	require.NoError(t, err)
	user, err := s.UserFromLink(link.ForUser(quietUser))
	require.NoError(t, err)
	playlist, err := s.PlaylistFromLink(link.ForPlaylist(quietUser, quietPlaylistID))
	require.NoError(t, err)

	objects := map[string]settleable{
		"track":    track,
		"album":    album,
		"artist":   artist,
		"user":     user,
		"playlist": playlist,
	}
	for kind, o := range objects {
		assert.Equal(t, IsLoading, o.Error(), kind)
	}

	all := []settleable{track, album, artist, user, playlist}
	pump(t, s, notLoading(all...))
	for kind, o := range objects {
		assert.False(t, o.Loaded(), kind)
		assert.Equal(t, UnableToContactServer, o.Error(), kind)
	}
	assert.Equal(t, Disconnected, s.ConnectionState())

	backend.SetUnavailable(false)
	search, err := NewSearch(s, "lanterns", 0, 1)
	require.NoError(t, err)
	pump(t, s, search.Loaded)
	assert.Equal(t, LoggedIn, s.ConnectionState())

	pump(t, s, allLoaded(all...))
	for kind, o := range objects {
		assert.Equal(t, OK, o.Error(), kind)
	}
	assert.Equal(t, "Low Water", album.Name())
	assert.Equal(t, "Quiet Harbour", artist.Name())
	assert.Equal(t, "Nadia Okafor", user.DisplayName())
	assert.Equal(t, "Slack Tide", playlist.Name())
	assert.Equal(t, 1, playlist.Tracks().Len())
}

// flakyPlaylists fails the first Playlists calls as if the network dropped.
type flakyPlaylists struct {
	*catalog.Backend
	failures atomic.Int32
}

func (b *flakyPlaylists) Playlists(ctx context.Context) ([]types.PlaylistRecord, error) {
	if b.failures.Add(-1) >= 0 {
		return nil, fmt.Errorf("playlists: %w", types.ErrUnavailable)
	}
	return b.Backend.Playlists(ctx)
}

func TestContainerReloadsAfterTransientFailure(t *testing.T) {
	tests := []struct {
		name    string
		recover func(t *testing.T, s *Session)
	}{
		{
			name: "on access",
			recover: func(t *testing.T, s *Session) {
				pump(t, s, func() bool { return s.PlaylistContainer().Loaded() })
			},
		},
		{
			name: "on reconnect",
			recover: func(t *testing.T, s *Session) {
				search, err := NewSearch(s, "radar", 0, 1)
				require.NoError(t, err)
				pump(t, s, search.Loaded)
				assert.Equal(t, LoggedIn, s.ConnectionState())
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := &flakyPlaylists{Backend: newBackend(t, nil)}
			backend.failures.Store(1)
			s := newSession(t, backend, nil)
			login(t, s)

			c := s.PlaylistContainer()
			require.NotNil(t, c)
			pump(t, s, notLoading(c))
			assert.False(t, c.Loaded())
			assert.Equal(t, UnableToContactServer, c.Error())
			assert.Equal(t, Disconnected, s.ConnectionState())

			tt.recover(t, s)

			pump(t, s, c.Loaded)
			assert.Same(t, c, s.PlaylistContainer())
			assert.Equal(t, OK, c.Error())
			assert.Equal(t, 3, c.Playlists().Len())
			assert.Equal(t, LoggedIn, s.ConnectionState())
		})
	}
}
