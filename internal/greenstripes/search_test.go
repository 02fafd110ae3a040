package greenstripes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/greenstripes/pkg/link"
)

func TestSearch(t *testing.T) {
	s, _ := loggedInSession(t)

	search, err := NewSearch(s, "a", 0, 1)
	require.NoError(t, err)
	assert.False(t, search.Loaded())
	assert.Equal(t, IsLoading, search.Error())
	assert.Equal(t, 0, search.Artists().Len(), "results are empty until loaded")

	pump(t, s, search.Loaded)

	assert.Equal(t, OK, search.Error())
	assert.Equal(t, "a", search.Query())
	assert.Equal(t, 0, search.Offset())
	assert.Equal(t, 1, search.Count())
	assert.NotEmpty(t, search.DidYouMean())

	assert.Equal(t, 1, search.Artists().Len())
	assert.Equal(t, 1, search.Albums().Len())
	assert.Equal(t, 1, search.Tracks().Len())
	assert.Equal(t, 4, search.TotalArtists())
	assert.Equal(t, 6, search.TotalAlbums())
	assert.Equal(t, 13, search.TotalTracks())

	assertSequence(t, search.Artists())
	assertSequence(t, search.Albums())
	assertSequence(t, search.Tracks())

	track, ok := search.Tracks().At(0)
	require.True(t, ok)
	assert.True(t, track.Loaded(), "search results carry full track metadata")
}

func TestSearchDefaults(t *testing.T) {
	s, _ := loggedInSession(t)

	search, err := NewSearch(s, "a", 0, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultSearchCount, search.Count())
	pump(t, s, search.Loaded)
	assert.Equal(t, 13, search.Tracks().Len())

	for _, tt := range []struct{ offset, count int }{{-1, 1}, {0, -1}} {
		_, err := NewSearch(s, "a", tt.offset, tt.count)
		assert.ErrorIs(t, err, ErrInvalidRange)
	}
}

func TestSearchFailures(t *testing.T) {
	s, _ := loggedInSession(t)

	for _, query := range []string{"", " ", "\t\n"} {
		_, err := NewSearch(s, query, 0, 1)
		assert.ErrorIs(t, err, ErrEmptyQuery, "query %q", query)
	}

	spaced, err := NewSearch(s, " lanterns ", 0, 5)
	require.NoError(t, err)
	parsed, err := link.Parse(spaced.Link().String())
	require.NoError(t, err)
	assert.Equal(t, spaced.Link(), parsed)
	pump(t, s, spaced.Loaded)

	typo, err := NewSearch(s, "lanternz", 0, 5)
	require.NoError(t, err)
	pump(t, s, typo.Loaded)
	assert.Equal(t, OK, typo.Error())
	assert.Equal(t, 0, typo.Tracks().Len())
	assert.Equal(t, "Lanterns", typo.DidYouMean())
}

func TestSearchCallback(t *testing.T) {
	s, _ := loggedInSession(t)

	var (
		calls        int
		got          *Search
		loadedInside bool
	)
	search, err := NewSearch(s, "radar", 0, 2, WithSearchCallback(func(se *Search) {
		calls++
		got = se
		loadedInside = se.Loaded()
	}))
	require.NoError(t, err)
	assert.Equal(t, 0, calls)

	pump(t, s, search.Loaded)
	for range 3 {
		s.ProcessEvents()
	}

	assert.Equal(t, 1, calls)
	assert.Same(t, search, got)
	assert.True(t, loadedInside)
}

func TestSearchNotLoggedIn(t *testing.T) {
	backend := newBackend(t, nil)
	s := newSession(t, backend, nil)
	_, err := NewSearch(s, "a", 0, 1)
	assert.ErrorIs(t, err, ErrNotLoggedIn)
}
