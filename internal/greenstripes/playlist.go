package greenstripes

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// PlaylistContainer is the ordered list of a user's playlists.
type PlaylistContainer struct {
	session   *Session
	owner     *User
	playlists []*Playlist
	loaded    bool
	loading   bool
	err       Error
}

func newPlaylistContainer(s *Session, owner *User) *PlaylistContainer {
	return &PlaylistContainer{session: s, owner: owner}
}

// Owner returns the user the container belongs to.
func (c *PlaylistContainer) Owner() *User {
	return c.owner
}

// Playlists returns the container's playlists in order.
func (c *PlaylistContainer) Playlists() Sequence[*Playlist] {
	return sequenceOf(&c.playlists)
}

// Loaded reports whether the playlist list has been fetched. A container
// whose load failed transiently is requested again by
// Session.PlaylistContainer and when the session reconnects.
func (c *PlaylistContainer) Loaded() bool {
	return c.loaded
}

// Error returns IsLoading while a load is in flight, the code of a failed
// load, or OK.
func (c *PlaylistContainer) Error() Error {
	if c.loading {
		return IsLoading
	}
	return c.err
}

func (c *PlaylistContainer) load() {
	if c.loaded || c.loading {
		return
	}
	c.loading = true
	s := c.session
	submit(s, "playlists", func(ctx context.Context) ([]types.PlaylistRecord, error) {
		return s.backend.Playlists(ctx)
	}, func(recs []types.PlaylistRecord, err error) {
		c.loading = false
		if err != nil {
			c.err = codeFor(err)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"component": "session",
				"operation": "playlists",
				"code":      c.err,
			}).Warn("Failed to load playlist container")
			return
		}

		playlists := make([]*Playlist, 0, len(recs))
		for _, rec := range recs {
			p := s.playlistFor(rec)
			p.load()
			playlists = append(playlists, p)
		}
		c.playlists = playlists
		c.err = OK
		c.loaded = true
		s.markUpdated()

		s.logger.WithFields(logrus.Fields{
			"component":      "session",
			"operation":      "playlists",
			"playlist_count": len(playlists),
		}).Debug("Loaded playlist container")
	})
}

// Playlist is an ordered, named list of tracks.
type Playlist struct {
	session       *Session
	id            string
	name          string
	owner         *User
	collaborative bool
	description   string
	tracks        []*Track
	loaded        bool
	loading       bool
	err           Error

	// bare playlists were first reached through an owner-less link and
	// keep that form
	bare bool
}

// ID returns the playlist's base62 id.
func (p *Playlist) ID() string {
	return p.id
}

// Name returns the playlist's name. It may be known before Loaded.
func (p *Playlist) Name() string {
	return p.name
}

// Owner returns the playlist's owner, or nil when unknown.
func (p *Playlist) Owner() *User {
	return p.owner
}

// Collaborative reports whether users other than the owner may edit it.
func (p *Playlist) Collaborative() bool {
	return p.collaborative
}

// Description returns the playlist's description.
func (p *Playlist) Description() string {
	return p.description
}

// Tracks returns the playlist's tracks in order.
func (p *Playlist) Tracks() Sequence[*Track] {
	return sequenceOf(&p.tracks)
}

// Loaded reports whether the playlist's track list has been fetched.
func (p *Playlist) Loaded() bool {
	return p.loaded
}

// Error returns IsLoading while a load is in flight, the code of a failed
// load, or OK.
func (p *Playlist) Error() Error {
	if p.loading {
		return IsLoading
	}
	return p.err
}

// Link returns the playlist's link. It is qualified by owner unless the
// playlist was first obtained from an owner-less link, and it does not
// change once the playlist has loaded.
func (p *Playlist) Link() link.Link {
	if p.bare || p.owner == nil {
		return link.ForPlaylist("", p.id)
	}
	return link.ForPlaylist(p.owner.CanonicalName(), p.id)
}

func (p *Playlist) update(rec types.PlaylistRecord) {
	s := p.session
	if rec.Name != "" {
		p.name = rec.Name
	}
	if rec.Owner.ID != "" {
		p.owner = s.userFor(rec.Owner)
	}
	p.collaborative = rec.Collaborative
	if rec.Description != "" {
		p.description = rec.Description
	}
}

func (p *Playlist) load() {
	if p.loaded || p.loading {
		return
	}
	p.loading = true
	s := p.session
	owner := ""
	if p.owner != nil {
		owner = p.owner.CanonicalName()
	}

	submit(s, "playlist", func(ctx context.Context) (types.PlaylistRecord, error) {
		return s.backend.Playlist(ctx, owner, p.id)
	}, func(rec types.PlaylistRecord, err error) {
		p.loading = false
		if err != nil {
			p.err = codeFor(err)
			s.logger.WithError(err).WithFields(logrus.Fields{
				"component":   "session",
				"operation":   "playlist",
				"playlist_id": p.id,
				"code":        p.err,
			}).Warn("Failed to load playlist")
			return
		}

		p.update(rec)
		p.tracks = s.tracksFor(rec.TrackIDs)
		p.err = OK
		p.loaded = true
		s.markUpdated()

		s.logger.WithFields(logrus.Fields{
			"component":     "session",
			"operation":     "playlist",
			"playlist_id":   p.id,
			"playlist_name": p.name,
			"track_count":   len(p.tracks),
		}).Debug("Loaded playlist")
	})
}

// playlistFor returns the interned playlist for rec without loading it.
func (s *Session) playlistFor(rec types.PlaylistRecord) *Playlist {
	p, ok := s.playlists[rec.ID]
	if !ok {
		p = &Playlist{session: s, id: rec.ID, bare: rec.Owner.ID == ""}
		s.playlists[rec.ID] = p
	}
	p.update(rec)
	return p
}
