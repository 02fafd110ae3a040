package greenstripes

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/toozej/greenstripes/internal/catalog"
	"github.com/toozej/greenstripes/internal/types"
)

const (
	testAppKey   = "test-application-key"
	demoUser     = "sarnesjo"
	demoPassword = "greenstripes"

	demoArtistLink   = "spotify:artist:3mvkWMe6swnknwscwvGCHO"
	demoAlbumLink    = "spotify:album:57SkIVhE1QfVnShjmvKw3O"
	demoTrackLink    = "spotify:track:3DTrAmImiol2ugB5wsqFcx"
	demoPlaylistLink = "spotify:user:sarnesjo:playlist:3nCwOiwDiZtv9xsuEIFw4q"
	demoSearchLink   = "spotify:search:a"

	missingID = "zzzzzzzzzzzzzzzzzzzzzz"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newBackend(t *testing.T, mutate func(*catalog.Data), opts ...catalog.Option) *catalog.Backend {
	t.Helper()
	data, err := catalog.Demo()
	require.NoError(t, err)
	if mutate != nil {
		mutate(data)
	}
	opts = append([]catalog.Option{catalog.WithLogger(quietLogger())}, opts...)
	backend, err := catalog.New(data, opts...)
	require.NoError(t, err)
	return backend
}

func newSession(t *testing.T, backend types.Backend, mutate func(*Config)) *Session {
	t.Helper()
	cfg := Config{
		ApplicationKey: testAppKey,
		PollInterval:   2 * time.Millisecond,
		IdleInterval:   10 * time.Millisecond,
		Logger:         quietLogger(),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	s, err := NewSession(cfg, backend)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.Release()
	})
	return s
}

func pump(t *testing.T, s *Session, cond func() bool) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.PumpUntil(ctx, cond))
}

func login(t *testing.T, s *Session) {
	t.Helper()
	require.NoError(t, s.Login(demoUser, demoPassword))
	pump(t, s, func() bool { return s.ConnectionState() == LoggedIn })
}

func loggedInSession(t *testing.T) (*Session, *catalog.Backend) {
	t.Helper()
	backend := newBackend(t, nil)
	s := newSession(t, backend, nil)
	login(t, s)
	return s, backend
}

// firstPlaylist waits for the container and returns its loaded first playlist.
func firstPlaylist(t *testing.T, s *Session) *Playlist {
	t.Helper()
	c := s.PlaylistContainer()
	require.NotNil(t, c)
	pump(t, s, func() bool { return c.Loaded() && c.Playlists().Len() > 0 })
	p, ok := c.Playlists().At(0)
	require.True(t, ok)
	pump(t, s, p.Loaded)
	return p
}

func firstTrack(t *testing.T, s *Session) *Track {
	t.Helper()
	p := firstPlaylist(t, s)
	track, ok := p.Tracks().At(0)
	require.True(t, ok)
	pump(t, s, track.Loaded)
	return track
}

type recordingMetrics struct {
	mu       sync.Mutex
	started  map[string]int
	finished map[string]int
	results  map[string]int
	events   int
	states   []string
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		started:  make(map[string]int),
		finished: make(map[string]int),
		results:  make(map[string]int),
	}
}

func (r *recordingMetrics) RequestStarted(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.started[op]++
}

func (r *recordingMetrics) RequestFinished(op, result string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished[op]++
	r.results[result]++
}

func (r *recordingMetrics) EventsProcessed(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events += n
}

func (r *recordingMetrics) ConnectionState(state string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, state)
}
