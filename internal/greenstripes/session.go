// Package greenstripes is an event driven client for a music catalog.
//
// A Session logs in to a catalog Backend and hands out loadable objects:
// the user, their playlist container and playlists, tracks, albums,
// artists, searches and browses. Remote work runs in the background, but
// its results only become visible when the caller pumps the session:
//
//	session, err := greenstripes.NewSession(cfg, backend)
//	...
//	_ = session.Login(username, password)
//	err = session.PumpUntil(ctx, func() bool {
//		return session.ConnectionState() == greenstripes.LoggedIn
//	})
//
// A Session and every object it returns must be used from one goroutine.
package greenstripes

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/toozej/greenstripes/internal/search"
	"github.com/toozej/greenstripes/internal/types"
)

// Session owns a backend handle and every object loaded through it.
type Session struct {
	cfg     Config
	backend types.Backend
	logger  *logrus.Logger
	metrics Recorder
	matcher *search.Matcher
	sem     *semaphore.Weighted

	// queue and notify are shared with worker goroutines
	mu       sync.Mutex
	queue    []completion
	notify   chan struct{}
	inflight atomic.Int64

	// everything below is owned by the pumping goroutine
	ctx      context.Context
	cancel   context.CancelFunc
	gen      uint64
	state    ConnectionState
	loginErr Error
	released bool
	updated  bool

	user      *User
	container *PlaylistContainer

	users     map[string]*User
	artists   map[string]*Artist
	albums    map[string]*Album
	tracks    map[string]*Track
	playlists map[string]*Playlist

	trackQueue   []string
	trackPending map[string]bool
}

// NewSession creates a logged out session on top of backend.
func NewSession(cfg Config, backend types.Backend) (*Session, error) {
	if cfg.ApplicationKey == "" {
		return nil, ErrMissingApplicationKey
	}
	if backend == nil {
		return nil, ErrMissingBackend
	}
	cfg = cfg.withDefaults()

	s := &Session{
		cfg:     cfg,
		backend: backend,
		logger:  cfg.Logger,
		metrics: cfg.Metrics,
		matcher: search.NewMatcher(cfg.Logger),
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrentRequests)),
		notify:  make(chan struct{}, 1),
		state:   LoggedOut,
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.resetObjects()

	s.logger.WithFields(logrus.Fields{
		"component":               "session",
		"user_agent":              cfg.UserAgent,
		"max_concurrent_requests": cfg.MaxConcurrentRequests,
		"request_timeout":         cfg.RequestTimeout,
	}).Debug("Created session")

	return s, nil
}

// ConnectionState returns the current login state.
func (s *Session) ConnectionState() ConnectionState {
	return s.state
}

// LoginError returns the code of the last failed login, or OK.
func (s *Session) LoginError() Error {
	return s.loginErr
}

// UserAgent returns the configured user agent.
func (s *Session) UserAgent() string {
	return s.cfg.UserAgent
}

// User returns the logged in user, or nil before login completes.
func (s *Session) User() *User {
	return s.user
}

// PlaylistContainer returns the logged in user's playlists, or nil before
// login completes. A container whose load failed transiently is requested
// again.
func (s *Session) PlaylistContainer() *PlaylistContainer {
	if c := s.container; c != nil && !c.loaded && c.err.transient() {
		c.load()
	}
	return s.container
}

// Login starts logging in. Completion is observed through
// ConnectionState, LoginError and the LoggedIn callback.
func (s *Session) Login(username, password string) error {
	if s.released {
		return ErrSessionReleased
	}
	if s.state != LoggedOut {
		return ErrAlreadyLoggedIn
	}

	s.loginErr = OK
	s.setState(LoggingIn)

	creds := types.Credentials{
		ApplicationKey: s.cfg.ApplicationKey,
		Username:       username,
		Password:       password,
	}

	s.logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": "login",
		"username":  username,
	}).Info("Logging in")

	submit(s, "login", func(ctx context.Context) (types.UserRecord, error) {
		return s.backend.Login(ctx, creds)
	}, s.completeLogin)

	return nil
}

func (s *Session) completeLogin(rec types.UserRecord, err error) {
	if err != nil {
		s.loginErr = codeFor(err)
		s.logger.WithFields(logrus.Fields{
			"component": "session",
			"operation": "login",
			"code":      s.loginErr,
		}).WithError(err).Warn("Login failed")
		s.setState(LoggedOut)
		if s.cfg.Callbacks.LoggedIn != nil {
			s.cfg.Callbacks.LoggedIn(s.loginErr)
		}
		return
	}

	s.user = s.userFor(rec)
	s.container = newPlaylistContainer(s, s.user)
	s.setState(LoggedIn)
	s.container.load()

	s.logger.WithFields(logrus.Fields{
		"component":    "session",
		"operation":    "login",
		"user_id":      rec.ID,
		"display_name": rec.DisplayName,
	}).Info("Logged in")

	if s.cfg.Callbacks.LoggedIn != nil {
		s.cfg.Callbacks.LoggedIn(OK)
	}
}

// Logout starts logging out. Once the state reaches LoggedOut every object
// obtained during the login is invalid.
func (s *Session) Logout() error {
	if s.released {
		return ErrSessionReleased
	}
	if !s.state.usable() {
		return ErrNotLoggedIn
	}

	s.setState(LoggingOut)
	s.logger.WithFields(logrus.Fields{
		"component": "session",
		"operation": "logout",
	}).Info("Logging out")

	submit(s, "logout", func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.backend.Logout(ctx)
	}, func(_ struct{}, err error) {
		if err != nil {
			s.logger.WithError(err).WithFields(logrus.Fields{
				"component": "session",
				"operation": "logout",
			}).Warn("Backend logout failed, dropping session state anyway")
		}
		s.teardown()
		s.setState(LoggedOut)
		if s.cfg.Callbacks.LoggedOut != nil {
			s.cfg.Callbacks.LoggedOut()
		}
	})

	return nil
}

// Release tears the session down permanently and closes the backend. It
// does not wait for a logout round trip.
func (s *Session) Release() error {
	if s.released {
		return ErrSessionReleased
	}
	s.teardown()
	s.released = true
	s.state = LoggedOut

	s.mu.Lock()
	s.queue = nil
	s.mu.Unlock()

	s.logger.WithField("component", "session").Debug("Released session")
	return s.backend.Close()
}

// teardown invalidates every object of the current login.
func (s *Session) teardown() {
	s.cancel()
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.gen++
	s.user = nil
	s.container = nil
	s.resetObjects()
}

func (s *Session) resetObjects() {
	s.users = make(map[string]*User)
	s.artists = make(map[string]*Artist)
	s.albums = make(map[string]*Album)
	s.tracks = make(map[string]*Track)
	s.playlists = make(map[string]*Playlist)
	s.trackQueue = nil
	s.trackPending = make(map[string]bool)
}

func (s *Session) setState(state ConnectionState) {
	if s.state == state {
		return
	}
	s.logger.WithFields(logrus.Fields{
		"component": "session",
		"from":      s.state,
		"to":        state,
	}).Debug("Connection state changed")
	s.state = state
	s.metrics.ConnectionState(state.String())
	if s.cfg.Callbacks.ConnectionStateUpdated != nil {
		s.cfg.Callbacks.ConnectionStateUpdated(state)
	}
}

// observe tracks connectivity from the outcome of any backend call.
func (s *Session) observe(err error) {
	code := codeFor(err)
	switch {
	case code == UnableToContactServer && s.state == LoggedIn:
		s.setState(Disconnected)
		if s.cfg.Callbacks.ConnectionError != nil {
			s.cfg.Callbacks.ConnectionError(code)
		}
	case err == nil && s.state == Disconnected:
		s.setState(LoggedIn)
		s.retryFailedLoads()
	}
}

// retryFailedLoads requests again every object of the current login whose
// load failed transiently.
func (s *Session) retryFailedLoads() {
	retried := 0
	if c := s.container; c != nil && !c.loaded && c.err.transient() {
		c.load()
		retried++
	}
	for _, p := range s.playlists {
		if !p.loaded && p.err.transient() {
			p.load()
			retried++
		}
	}
	for _, t := range s.tracks {
		if !t.loaded && t.err.transient() {
			s.queueTrackLoad(t)
			retried++
		}
	}
	for _, a := range s.albums {
		if !a.loaded && a.err.transient() {
			a.load()
			retried++
		}
	}
	for _, a := range s.artists {
		if !a.loaded && a.err.transient() {
			a.load()
			retried++
		}
	}
	for _, u := range s.users {
		if !u.loaded && u.err.transient() {
			u.load()
			retried++
		}
	}

	if retried > 0 {
		s.logger.WithFields(logrus.Fields{
			"component":    "session",
			"operation":    "reconnect",
			"object_count": retried,
		}).Info("Retrying loads that failed while disconnected")
	}
}

func (s *Session) requireUsable() error {
	if s.released {
		return ErrSessionReleased
	}
	if !s.state.usable() {
		return ErrNotLoggedIn
	}
	return nil
}
