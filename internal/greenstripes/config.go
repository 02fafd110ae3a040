package greenstripes

import (
	"time"

	"github.com/sirupsen/logrus"
)

// Defaults applied by NewSession to zero Config fields.
const (
	DefaultMaxConcurrentRequests = 4
	DefaultRequestTimeout        = 30 * time.Second
	DefaultPollInterval          = 50 * time.Millisecond
	DefaultIdleInterval          = time.Second
	DefaultSearchCount           = 20
	DefaultUserAgent             = "GreenStripes"

	maxTrackBatch = 50
)

// Config configures a Session.
type Config struct {
	// ApplicationKey identifies the application to the backend. Required.
	ApplicationKey string

	// UserAgent names the application in logs and backend requests.
	UserAgent string

	// MaxConcurrentRequests bounds the backend calls in flight at once.
	MaxConcurrentRequests int

	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration

	// PollInterval is the pump hint while requests are in flight.
	PollInterval time.Duration

	// IdleInterval is the pump hint when nothing is pending.
	IdleInterval time.Duration

	Logger    *logrus.Logger
	Metrics   Recorder
	Callbacks Callbacks
}

// Callbacks run on the goroutine that drives the session, mostly from inside
// ProcessEvents. Every field is optional.
type Callbacks struct {
	LoggedIn               func(Error)
	LoggedOut              func()
	ConnectionError        func(Error)
	ConnectionStateUpdated func(ConnectionState)
	MetadataUpdated        func()
}

// Recorder receives operational measurements. Implementations must be safe
// for concurrent use because requests finish on worker goroutines.
type Recorder interface {
	RequestStarted(op string)
	RequestFinished(op, result string, elapsed time.Duration)
	EventsProcessed(n int)
	ConnectionState(state string)
}

type nopRecorder struct{}

func (nopRecorder) RequestStarted(string)                        {}
func (nopRecorder) RequestFinished(string, string, time.Duration) {}
func (nopRecorder) EventsProcessed(int)                           {}
func (nopRecorder) ConnectionState(string)                        {}

func (c Config) withDefaults() Config {
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxConcurrentRequests <= 0 {
		c.MaxConcurrentRequests = DefaultMaxConcurrentRequests
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = DefaultRequestTimeout
	}
	if c.PollInterval <= 0 {
		c.PollInterval = DefaultPollInterval
	}
	if c.IdleInterval <= 0 {
		c.IdleInterval = DefaultIdleInterval
	}
	if c.Logger == nil {
		c.Logger = logrus.StandardLogger()
	}
	if c.Metrics == nil {
		c.Metrics = nopRecorder{}
	}
	return c
}
