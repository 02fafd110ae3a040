package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTrackRecord_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		track    TrackRecord
		expected bool
	}{
		{
			name: "valid track with artist and album",
			track: TrackRecord{
				ID:      "3DTrAmImiol2ugB5wsqFcx",
				Name:    "So What",
				Artists: []ArtistRecord{{ID: "3mvkWMe6swnknwscwvGCHO", Name: "Miles Davis"}},
				Album:   AlbumRecord{ID: "57SkIVhE1QfVnShjmvKw3O", Name: "Kind of Blue"},
			},
			expected: true,
		},
		{
			name: "invalid track missing artists",
			track: TrackRecord{
				ID:   "3DTrAmImiol2ugB5wsqFcx",
				Name: "So What",
			},
			expected: false,
		},
		{
			name: "invalid track missing name",
			track: TrackRecord{
				ID:      "3DTrAmImiol2ugB5wsqFcx",
				Artists: []ArtistRecord{{ID: "3mvkWMe6swnknwscwvGCHO", Name: "Miles Davis"}},
			},
			expected: false,
		},
		{
			name:     "empty track",
			track:    TrackRecord{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.IsValid())
		})
	}
}

func TestTrackRecord_String(t *testing.T) {
	tests := []struct {
		name     string
		track    TrackRecord
		expected string
	}{
		{
			name: "with album",
			track: TrackRecord{
				Name:    "So What",
				Artists: []ArtistRecord{{Name: "Miles Davis"}},
				Album:   AlbumRecord{Name: "Kind of Blue"},
			},
			expected: "Miles Davis - So What (Kind of Blue)",
		},
		{
			name: "multiple artists without album",
			track: TrackRecord{
				Name:    "Blue Train",
				Artists: []ArtistRecord{{Name: "John Coltrane"}, {Name: "Lee Morgan"}},
			},
			expected: "John Coltrane, Lee Morgan - Blue Train",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.track.String())
		})
	}
}

func TestRecordValidity(t *testing.T) {
	assert.True(t, ArtistRecord{ID: "x", Name: "y"}.IsValid())
	assert.False(t, ArtistRecord{ID: "x"}.IsValid())
	assert.True(t, AlbumRecord{ID: "x", Name: "y"}.IsValid())
	assert.False(t, AlbumRecord{Name: "y"}.IsValid())
}

func TestSearchRecord_Empty(t *testing.T) {
	assert.True(t, SearchRecord{}.Empty())
	assert.False(t, SearchRecord{Tracks: []TrackRecord{{ID: "t"}}}.Empty())
}

func TestSentinelErrorsWrap(t *testing.T) {
	err := fmt.Errorf("lookup artist: %w", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrUnavailable))
}
