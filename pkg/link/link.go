// Package link parses and formats canonical catalog links.
//
// A Link addresses one remote resource: an artist, album, track, user,
// playlist or search. Links are comparable values, so two links naming the
// same resource are equal with ==, whether they were parsed from a string
// or derived from a loaded object.
//
// Supported string forms:
//
//	spotify:artist:<id>
//	spotify:album:<id>
//	spotify:track:<id>
//	spotify:search:<query>
//	spotify:user:<user>
//	spotify:user:<user>:playlist:<id>
//	spotify:playlist:<id>
//	https://open.spotify.com/<type>/<id>
package link

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// Scheme is the prefix of every canonical link string.
const Scheme = "spotify"

// IDLength is the length of a base62 resource identifier.
const IDLength = 22

const webPrefix = "open.spotify.com/"

// ErrInvalidLink is returned when a string is not a well-formed link.
var ErrInvalidLink = errors.New("invalid link")

// Type identifies the kind of resource a Link points to.
type Type int

const (
	Invalid Type = iota
	Track
	Album
	Artist
	Search
	Playlist
	Profile
)

var typeNames = map[Type]string{
	Invalid:  "invalid",
	Track:    "track",
	Album:    "album",
	Artist:   "artist",
	Search:   "search",
	Playlist: "playlist",
	Profile:  "user",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("Type(%d)", int(t))
}

// Link is a normalized resource identifier.
type Link struct {
	Type  Type
	ID    string
	User  string
	Query string
}

// Linker is implemented by every object that can be addressed by a Link.
type Linker interface {
	Link() Link
}

// From returns the link of v. It is equivalent to v.Link().
func From(v Linker) Link {
	return v.Link()
}

// Of builds a track, album or artist link without validating the id.
func Of(t Type, id string) Link {
	return Link{Type: t, ID: id}
}

// ForPlaylist builds a playlist link owned by user.
func ForPlaylist(user, id string) Link {
	return Link{Type: Playlist, User: user, ID: id}
}

// ForUser builds a user profile link.
func ForUser(user string) Link {
	return Link{Type: Profile, User: user}
}

// ForSearch builds a search link for query.
func ForSearch(query string) Link {
	return Link{Type: Search, Query: query}
}

// Parse converts a link string into a Link. Web links on open.spotify.com
// are accepted and normalized to the canonical form.
func Parse(s string) (Link, error) {
	raw := strings.TrimSpace(s)
	if web, ok := fromWeb(raw); ok {
		raw = web
	}

	rest, ok := strings.CutPrefix(raw, Scheme+":")
	if !ok {
		return Link{}, fmt.Errorf("%w: %q has no %s: prefix", ErrInvalidLink, s, Scheme)
	}

	kind, body, _ := strings.Cut(rest, ":")
	switch kind {
	case "artist", "album", "track":
		if !ValidID(body) {
			return Link{}, fmt.Errorf("%w: bad %s id in %q", ErrInvalidLink, kind, s)
		}
		t := map[string]Type{"artist": Artist, "album": Album, "track": Track}[kind]
		return Link{Type: t, ID: body}, nil

	case "playlist":
		if !ValidID(body) {
			return Link{}, fmt.Errorf("%w: bad playlist id in %q", ErrInvalidLink, s)
		}
		return Link{Type: Playlist, ID: body}, nil

	case "search":
		query, err := url.QueryUnescape(body)
		if err != nil || strings.TrimSpace(query) == "" {
			return Link{}, fmt.Errorf("%w: bad search query in %q", ErrInvalidLink, s)
		}
		return Link{Type: Search, Query: query}, nil

	case "user":
		parts := strings.Split(body, ":")
		user, err := url.QueryUnescape(parts[0])
		if err != nil || user == "" {
			return Link{}, fmt.Errorf("%w: bad user in %q", ErrInvalidLink, s)
		}
		switch {
		case len(parts) == 1:
			return Link{Type: Profile, User: user}, nil
		case len(parts) == 3 && parts[1] == "playlist" && ValidID(parts[2]):
			return Link{Type: Playlist, User: user, ID: parts[2]}, nil
		}
		return Link{}, fmt.Errorf("%w: unsupported user link %q", ErrInvalidLink, s)
	}

	return Link{}, fmt.Errorf("%w: unknown link type %q", ErrInvalidLink, kind)
}

// MustParse is like Parse but panics on error. It is meant for constants.
func MustParse(s string) Link {
	l, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return l
}

// String returns the canonical link string, or "" for an invalid link.
func (l Link) String() string {
	switch l.Type {
	case Track, Album, Artist:
		return Scheme + ":" + l.Type.String() + ":" + l.ID
	case Search:
		return Scheme + ":search:" + url.QueryEscape(l.Query)
	case Profile:
		return Scheme + ":user:" + url.QueryEscape(l.User)
	case Playlist:
		if l.User == "" {
			return Scheme + ":playlist:" + l.ID
		}
		return Scheme + ":user:" + url.QueryEscape(l.User) + ":playlist:" + l.ID
	}
	return ""
}

// IsZero reports whether l is the zero Link.
func (l Link) IsZero() bool {
	return l == Link{}
}

// WebURL returns the open.spotify.com address for l, or "" when the link
// type has no web form.
func (l Link) WebURL() string {
	switch l.Type {
	case Track, Album, Artist, Playlist:
		return "https://" + webPrefix + l.Type.String() + "/" + l.ID
	case Profile:
		return "https://" + webPrefix + "user/" + url.PathEscape(l.User)
	case Search:
		return "https://" + webPrefix + "search/" + url.PathEscape(l.Query)
	}
	return ""
}

// ValidID reports whether id is a 22 character base62 identifier.
func ValidID(id string) bool {
	if len(id) != IDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z') {
			return false
		}
	}
	return true
}

// fromWeb rewrites an open.spotify.com URL into colon form.
func fromWeb(raw string) (string, bool) {
	trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
	path, ok := strings.CutPrefix(trimmed, webPrefix)
	if !ok {
		return "", false
	}
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for i, seg := range segments {
		if unescaped, err := url.PathUnescape(seg); err == nil {
			segments[i] = url.QueryEscape(unescaped)
		}
	}
	return Scheme + ":" + strings.Join(segments, ":"), true
}
