package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/greenstripes/internal/cache"
	"github.com/toozej/greenstripes/internal/catalog"
	"github.com/toozej/greenstripes/pkg/config"
	"github.com/toozej/greenstripes/pkg/link"
)

func TestWhoami(t *testing.T) {
	isolate(t)

	out, err := execute(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Jesper Sarnesjo")
	assert.Contains(t, out, "spotify:user:sarnesjo")
	assert.Contains(t, out, "connection: logged_in")
}

func TestLoginFailure(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{
			name: "wrong password",
			env:  map[string]string{"SESSION_PASSWORD": "hunter2"},
			want: "bad_username_or_password",
		},
		{
			name: "unknown user",
			env:  map[string]string{"SESSION_USERNAME": "nobody"},
			want: "bad_username_or_password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := execute(t, "whoami")
			require.ErrorIs(t, err, ErrLoginFailed)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestPlaylists(t *testing.T) {
	isolate(t)

	out, err := execute(t, "playlists")
	require.NoError(t, err)
	assert.Contains(t, out, "3 playlists for Jesper Sarnesjo")
	assert.Contains(t, out, "Rainy Day Radio by Jesper Sarnesjo")
	assert.Contains(t, out, "Late Night Drive by Jesper Sarnesjo (collaborative)")
	assert.Contains(t, out, demoPlaylistLink)
	assert.NotContains(t, out, "Paper Planes at Dawn")

	out, err = execute(t, "playlists", "--tracks")
	require.NoError(t, err)
	assert.Contains(t, out, "The Paper Satellites - Paper Planes at Dawn [Static Bloom] (3:34)")
}

func TestSearch(t *testing.T) {
	isolate(t)

	out, err := execute(t, "search", "a", "--count", "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Results for "a"`)
	assert.Contains(t, out, "spotify:search:a")
	assert.Contains(t, out, "Artists (1 of 4)")
	assert.Contains(t, out, "Albums (1 of 6)")
	assert.Contains(t, out, "Tracks (1 of 13)")

	out, err = execute(t, "search", "lanternz")
	require.NoError(t, err)
	assert.Contains(t, out, `Did you mean "Lanterns"?`)

	_, err = execute(t, "search", "a", "--offset=-1")
	assert.Error(t, err)
}

func TestBrowse(t *testing.T) {
	tests := []struct {
		name     string
		link     string
		contains []string
	}{
		{
			name: "artist",
			link: demoArtistLink,
			contains: []string{
				"The Paper Satellites",
				"Four-piece from Gothenburg",
				"Albums (3)",
				"Similar artists (2)",
			},
		},
		{
			name: "album",
			link: demoAlbumLink,
			contains: []string{
				"The Paper Satellites - Static Bloom (2009, album)",
				"Tracks (3)",
				"© (C) 2009 Satellite Records",
				"Review: A debut",
			},
		},
		{
			name:     "track browses its album",
			link:     link.MustParse(demoTrackLink).WebURL(),
			contains: []string{"Static Bloom", "Tracks (3)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)

			out, err := execute(t, "browse", tt.link)
			require.NoError(t, err)
			for _, want := range tt.contains {
				assert.Contains(t, out, want)
			}
		})
	}
}

func TestBrowseErrors(t *testing.T) {
	isolate(t)

	_, err := execute(t, "browse", demoPlaylistLink)
	assert.ErrorIs(t, err, ErrNotBrowsable)

	_, err = execute(t, "browse", "not a link")
	assert.ErrorIs(t, err, link.ErrInvalidLink)

	_, err = execute(t, "browse", "spotify:album:zzzzzzzzzzzzzzzzzzzzzz")
	require.ErrorIs(t, err, ErrRequestFailed)
	assert.Contains(t, err.Error(), "not_found")
}

func TestLink(t *testing.T) {
	isolate(t)

	out, err := execute(t, "link", "https://open.spotify.com/track/3DTrAmImiol2ugB5wsqFcx")
	require.NoError(t, err)
	assert.Contains(t, out, "link: "+demoTrackLink)
	assert.Contains(t, out, "type: track")
	assert.Contains(t, out, "web:  https://open.spotify.com/track/3DTrAmImiol2ugB5wsqFcx")

	_, err = execute(t, "link", "spotify:bogus")
	assert.ErrorIs(t, err, link.ErrInvalidLink)
}

func TestLinkResolve(t *testing.T) {
	tests := []struct {
		link string
		want string
	}{
		{demoTrackLink, "name: The Paper Satellites - Paper Planes at Dawn"},
		{demoAlbumLink, "name: Static Bloom"},
		{demoArtistLink, "name: The Paper Satellites"},
		{demoPlaylistLink, "name: Rainy Day Radio (5 tracks)"},
		{"spotify:user:marla", "name: Marla Vance"},
		{"spotify:search:a", "results: 4 artists, 6 albums, 13 tracks"},
	}

	for _, tt := range tests {
		t.Run(tt.link, func(t *testing.T) {
			isolate(t)

			out, err := execute(t, "link", tt.link, "--resolve")
			require.NoError(t, err)
			assert.Contains(t, out, tt.want)
		})
	}
}

func TestCatalogFile(t *testing.T) {
	dir := isolate(t)

	data, err := catalog.Demo()
	require.NoError(t, err)
	data.Users[0].DisplayName = "Custom Catalog User"
	path := filepath.Join(dir, "catalog.json")
	require.NoError(t, writeCatalog(path, data))

	out, err := execute(t, "whoami", "--catalog", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Custom Catalog User")

	_, err = execute(t, "whoami", "--catalog", filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestBuildBackendWithCache(t *testing.T) {
	dir := isolate(t)

	cfg, err := config.Load()
	require.NoError(t, err)
	cfg.Cache.Enabled = true
	cfg.Cache.TTL = time.Hour

	backend, err := buildBackend(cfg, log.StandardLogger())
	require.NoError(t, err)
	defer backend.Close()

	_, ok := backend.(*cache.Backend)
	assert.True(t, ok, "cache wraps the catalog backend")
	_, err = os.Stat(filepath.Join(dir, "cache", "metadata.db"))
	assert.NoError(t, err)
}

func TestLoginRequiresSpotifyBackend(t *testing.T) {
	isolate(t)

	_, err := execute(t, "login")
	assert.ErrorIs(t, err, ErrLoginBackend)
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{214 * time.Second, "3:34"},
		{59*time.Second + 600*time.Millisecond, "1:00"},
		{61 * time.Minute, "61:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, formatDuration(tt.in))
	}
}

func writeCatalog(path string, data *catalog.Data) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}
