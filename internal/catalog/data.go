package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/toozej/greenstripes/pkg/link"
)

//go:embed demo.json
var demoJSON []byte

// ErrInvalidCatalog is returned when catalog data is malformed or refers to
// resources it does not define.
var ErrInvalidCatalog = errors.New("invalid catalog")

// Data is the on-disk catalog format.
type Data struct {
	Users     []User     `json:"users"`
	Artists   []Artist   `json:"artists"`
	Albums    []Album    `json:"albums"`
	Tracks    []Track    `json:"tracks"`
	Playlists []Playlist `json:"playlists"`
}

// User is a catalog account. Playlists lists the ids of the user's
// playlist container in order.
type User struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Password    string   `json:"password"` // #nosec G117 -- demo catalog credentials
	Playlists   []string `json:"playlists"`
}

// Artist is a catalog artist. Similar holds artist ids.
type Artist struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Biography string   `json:"biography"`
	Similar   []string `json:"similar"`
}

// Album is a catalog album.
type Album struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ArtistID   string   `json:"artist_id"`
	Year       int      `json:"year"`
	Type       string   `json:"album_type"`
	Copyrights []string `json:"copyrights"`
	Review     string   `json:"review"`
}

// Track is a catalog track.
type Track struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	ArtistIDs  []string `json:"artist_ids"`
	AlbumID    string   `json:"album_id"`
	DurationMS int      `json:"duration_ms"`
	Popularity int      `json:"popularity"`
	Disc       int      `json:"disc"`
	Index      int      `json:"index"`
}

// Playlist is a catalog playlist owned by a user id.
type Playlist struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Owner         string   `json:"owner"`
	Collaborative bool     `json:"collaborative"`
	Description   string   `json:"description"`
	TrackIDs      []string `json:"track_ids"`
}

// Demo returns the catalog bundled with the binary.
func Demo() (*Data, error) {
	return Decode(demoJSON)
}

// Decode parses catalog JSON.
func Decode(raw []byte) (*Data, error) {
	var data Data
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidCatalog, err)
	}
	return &data, nil
}

// LoadFile reads catalog JSON from path.
func LoadFile(path string) (*Data, error) {
	raw, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	return Decode(raw)
}

// Validate checks ids and cross references.
func (d *Data) Validate() error {
	users := make(map[string]bool, len(d.Users))
	for _, u := range d.Users {
		if u.ID == "" {
			return fmt.Errorf("%w: user without id", ErrInvalidCatalog)
		}
		if users[u.ID] {
			return fmt.Errorf("%w: duplicate user %q", ErrInvalidCatalog, u.ID)
		}
		users[u.ID] = true
	}

	artists, err := collectIDs("artist", d.Artists, func(a Artist) string { return a.ID })
	if err != nil {
		return err
	}
	albums, err := collectIDs("album", d.Albums, func(a Album) string { return a.ID })
	if err != nil {
		return err
	}
	if _, err := collectIDs("track", d.Tracks, func(t Track) string { return t.ID }); err != nil {
		return err
	}
	playlists, err := collectIDs("playlist", d.Playlists, func(p Playlist) string { return p.ID })
	if err != nil {
		return err
	}

	for _, a := range d.Artists {
		if err := refs("artist "+a.ID, "similar artist", a.Similar, artists); err != nil {
			return err
		}
	}
	for _, a := range d.Albums {
		if err := refs("album "+a.ID, "artist", []string{a.ArtistID}, artists); err != nil {
			return err
		}
	}
	for _, t := range d.Tracks {
		if len(t.ArtistIDs) == 0 {
			return fmt.Errorf("%w: track %s has no artists", ErrInvalidCatalog, t.ID)
		}
		if err := refs("track "+t.ID, "artist", t.ArtistIDs, artists); err != nil {
			return err
		}
		if err := refs("track "+t.ID, "album", []string{t.AlbumID}, albums); err != nil {
			return err
		}
	}
	for _, p := range d.Playlists {
		if err := refs("playlist "+p.ID, "owner", []string{p.Owner}, users); err != nil {
			return err
		}
		// playlists may reference tracks that have gone from the catalog
	}
	for _, u := range d.Users {
		if err := refs("user "+u.ID, "playlist", u.Playlists, playlists); err != nil {
			return err
		}
	}
	return nil
}

func collectIDs[T any](kind string, items []T, id func(T) string) (map[string]bool, error) {
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		key := id(item)
		if !link.ValidID(key) {
			return nil, fmt.Errorf("%w: bad %s id %q", ErrInvalidCatalog, kind, key)
		}
		if seen[key] {
			return nil, fmt.Errorf("%w: duplicate %s %s", ErrInvalidCatalog, kind, key)
		}
		seen[key] = true
	}
	return seen, nil
}

func refs(owner, kind string, ids []string, known map[string]bool) error {
	for _, id := range ids {
		if !known[id] {
			return fmt.Errorf("%w: %s refers to unknown %s %q", ErrInvalidCatalog, owner, kind, id)
		}
	}
	return nil
}
