package greenstripes

import (
	"context"
	"slices"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/link"
)

// Track is a catalog track. Tracks referenced by playlists, searches and
// browses start unloaded and are fetched in batches by the session.
type Track struct {
	session    *Session
	id         string
	name       string
	artists    []*Artist
	album      *Album
	duration   time.Duration
	popularity int
	disc       int
	index      int
	loaded     bool
	err        Error
}

// ID returns the track's base62 id.
func (t *Track) ID() string {
	return t.id
}

// Name returns the track's title, or "" until loaded.
func (t *Track) Name() string {
	return t.name
}

// Artists returns the track's artists in credit order.
func (t *Track) Artists() Sequence[*Artist] {
	return sequenceOf(&t.artists)
}

// Album returns the track's album, or nil until loaded.
func (t *Track) Album() *Album {
	return t.album
}

// Duration returns the track's length.
func (t *Track) Duration() time.Duration {
	return t.duration
}

// Popularity returns a score between 0 and 100.
func (t *Track) Popularity() int {
	return t.popularity
}

// Disc returns the disc number, starting at 1.
func (t *Track) Disc() int {
	return t.disc
}

// Index returns the position on the disc, starting at 1.
func (t *Track) Index() int {
	return t.index
}

// Loaded reports whether the track's metadata is known.
func (t *Track) Loaded() bool {
	return t.loaded
}

// Error returns IsLoading while a load is pending, the code of a failed
// load, or OK.
func (t *Track) Error() Error {
	if !t.loaded && t.err == OK {
		return IsLoading
	}
	return t.err
}

// Link returns the track's link.
func (t *Track) Link() link.Link {
	return link.Of(link.Track, t.id)
}

func (t *Track) update(rec types.TrackRecord) bool {
	if !rec.IsValid() {
		return false
	}
	s := t.session
	t.name = rec.Name
	t.artists = s.artistsFor(rec.Artists)
	if rec.Album.ID != "" {
		t.album = s.albumFor(rec.Album)
	}
	t.duration = rec.Duration
	t.popularity = rec.Popularity
	t.disc = rec.Disc
	t.index = rec.Index
	t.err = OK
	if !t.loaded {
		t.loaded = true
		s.markUpdated()
	}
	return true
}

// trackFor returns the interned track with id, queueing a load if needed.
func (s *Session) trackFor(id string) *Track {
	t, ok := s.tracks[id]
	if !ok {
		t = &Track{session: s, id: id}
		s.tracks[id] = t
	}
	if !t.loaded {
		s.queueTrackLoad(t)
	}
	return t
}

// trackFromRecord interns rec, queueing a load when it is incomplete.
func (s *Session) trackFromRecord(rec types.TrackRecord) *Track {
	t := s.trackFor(rec.ID)
	t.update(rec)
	return t
}

func (s *Session) tracksFromRecords(recs []types.TrackRecord) []*Track {
	out := make([]*Track, 0, len(recs))
	for _, rec := range recs {
		if rec.ID == "" {
			continue
		}
		out = append(out, s.trackFromRecord(rec))
	}
	return out
}

func (s *Session) tracksFor(ids []string) []*Track {
	out := make([]*Track, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.trackFor(id))
	}
	return out
}

// queueTrackLoad schedules t for the next batch. Tracks that failed for
// good stay failed; transient failures are cleared and retried.
func (s *Session) queueTrackLoad(t *Track) {
	if s.trackPending[t.id] {
		return
	}
	switch {
	case t.err == OK:
	case t.err.transient():
		t.err = OK
	default:
		return
	}
	s.trackPending[t.id] = true
	s.trackQueue = append(s.trackQueue, t.id)
}

// flushTrackLoads turns queued track ids into batched backend requests.
// Queued tracks that got loaded in the meantime are skipped.
func (s *Session) flushTrackLoads() {
	var ids []string
	for _, id := range s.trackQueue {
		if t, ok := s.tracks[id]; ok && !t.loaded {
			ids = append(ids, id)
		} else {
			delete(s.trackPending, id)
		}
	}
	s.trackQueue = nil

	for chunk := range slices.Chunk(ids, maxTrackBatch) {
		batch := slices.Clone(chunk)
		s.logger.WithFields(logrus.Fields{
			"component":   "session",
			"operation":   "tracks",
			"track_count": len(batch),
		}).Debug("Loading track metadata")

		submit(s, "tracks", func(ctx context.Context) ([]types.TrackRecord, error) {
			return s.backend.Tracks(ctx, batch)
		}, func(recs []types.TrackRecord, err error) {
			s.completeTrackBatch(batch, recs, err)
		})
	}
}

func (s *Session) completeTrackBatch(ids []string, recs []types.TrackRecord, err error) {
	for _, id := range ids {
		delete(s.trackPending, id)
	}

	if err != nil {
		code := codeFor(err)
		s.logger.WithError(err).WithFields(logrus.Fields{
			"component":   "session",
			"operation":   "tracks",
			"track_count": len(ids),
			"code":        code,
		}).Warn("Failed to load track metadata")
		for _, id := range ids {
			if t, ok := s.tracks[id]; ok && !t.loaded {
				t.err = code
			}
		}
		return
	}

	found := make(map[string]bool, len(recs))
	for _, rec := range recs {
		t, ok := s.tracks[rec.ID]
		if !ok {
			continue
		}
		if t.update(rec) {
			found[rec.ID] = true
		}
	}
	for _, id := range ids {
		if t, ok := s.tracks[id]; ok && !t.loaded && !found[id] {
			t.err = NotFound
		}
	}
}
