package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/huh/spinner"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"

	"github.com/toozej/greenstripes/internal/cache"
	"github.com/toozej/greenstripes/internal/catalog"
	"github.com/toozej/greenstripes/internal/greenstripes"
	"github.com/toozej/greenstripes/internal/metrics"
	"github.com/toozej/greenstripes/internal/spotify"
	"github.com/toozej/greenstripes/internal/types"
	"github.com/toozej/greenstripes/pkg/config"
	"github.com/toozej/greenstripes/pkg/useragent"
	"github.com/toozej/greenstripes/pkg/version"
)

// ErrLoginFailed is returned when the session could not log in.
var ErrLoginFailed = errors.New("login failed")

// settler is any session object that finishes loading asynchronously.
type settler interface {
	Loaded() bool
	Error() greenstripes.Error
}

// settled reports whether o has loaded or failed for good.
func settled(o settler) bool {
	if o.Loaded() {
		return true
	}
	code := o.Error()
	return code != greenstripes.OK && code != greenstripes.IsLoading
}

// buildBackend constructs the configured catalog backend, wrapped in the
// metadata cache when caching is enabled.
func buildBackend(cfg config.Config, logger *log.Logger) (types.Backend, error) {
	var backend types.Backend

	switch cfg.Session.Backend {
	case config.BackendSpotify:
		client, err := spotify.NewClient(cfg.Spotify, logger,
			spotify.WithUserAgent(useragent.Build(cfg.Session.UserAgent, version.Version)))
		if err != nil {
			return nil, fmt.Errorf("failed to create Spotify client: %w", err)
		}
		b, err := client.Backend(spotify.WithLogger(logger))
		if err != nil {
			return nil, err
		}
		backend = b
	default:
		data, err := loadCatalog(cfg.Session.CatalogFile)
		if err != nil {
			return nil, err
		}
		b, err := catalog.New(data,
			catalog.WithLogger(logger),
			catalog.WithApplicationKey(cfg.Session.ApplicationKey))
		if err != nil {
			return nil, fmt.Errorf("failed to build catalog: %w", err)
		}
		backend = b
	}

	if !cfg.Cache.Enabled {
		return backend, nil
	}

	path, err := cfg.Session.CachePath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache path: %w", err)
	}
	cached, err := cache.Open(path, backend, cache.WithTTL(cfg.Cache.TTL), cache.WithLogger(logger))
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("failed to open metadata cache: %w", err)
	}
	return cached, nil
}

func loadCatalog(path string) (*catalog.Data, error) {
	if path == "" {
		return catalog.Demo()
	}
	data, err := catalog.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load catalog file %s: %w", path, err)
	}
	return data, nil
}

// startMetrics serves prometheus metrics on addr until the returned stop
// function is called.
func startMetrics(addr string) (*metrics.Collector, func(), error) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	collector := metrics.New(reg)

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to listen for metrics on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           metricsRouter(reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Warn("Metrics server stopped")
		}
	}()
	log.WithField("address", ln.Addr().String()).Info("Serving metrics")

	stop := func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			log.WithError(err).Warn("Error shutting down metrics server")
		}
	}
	return collector, stop, nil
}

func metricsRouter(g prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Handle("/metrics", metrics.Handler(g))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// wait runs action, behind a spinner when stdout is a terminal.
func wait(ctx context.Context, title string, action func(context.Context) error) error {
	if noSpinner || !isatty.IsTerminal(os.Stdout.Fd()) {
		return action(ctx)
	}
	return spinner.New().Title(title).Context(ctx).ActionWithErr(action).Run()
}

// pump drives s until cond holds.
func pump(ctx context.Context, s *greenstripes.Session, title string, cond func() bool) error {
	return wait(ctx, title, func(ctx context.Context) error {
		return s.PumpUntil(ctx, cond)
	})
}

// openSession builds the backend, logs in and waits for the login to
// complete. The returned cleanup releases the session and stops the
// metrics server.
func openSession(ctx context.Context) (*greenstripes.Session, func(), error) {
	logger := log.StandardLogger()

	backend, err := buildBackend(conf, logger)
	if err != nil {
		return nil, nil, err
	}

	sessionConf := greenstripes.Config{
		ApplicationKey:        conf.Session.ApplicationKey,
		UserAgent:             useragent.Build(conf.Session.UserAgent, version.Version),
		MaxConcurrentRequests: conf.Session.MaxConcurrentRequests,
		RequestTimeout:        conf.Session.RequestTimeout,
		Logger:                logger,
	}

	stopMetrics := func() {}
	if conf.Metrics.Address != "" {
		collector, stop, err := startMetrics(conf.Metrics.Address)
		if err != nil {
			_ = backend.Close()
			return nil, nil, err
		}
		sessionConf.Metrics = collector
		stopMetrics = stop
	}

	s, err := greenstripes.NewSession(sessionConf, backend)
	if err != nil {
		stopMetrics()
		_ = backend.Close()
		return nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	cleanup := func() {
		if err := s.Release(); err != nil {
			log.WithError(err).Debug("Error releasing session")
		}
		stopMetrics()
	}

	if err := s.Login(conf.Session.Username, conf.Session.Password); err != nil {
		cleanup()
		return nil, nil, err
	}
	err = pump(ctx, s, "Logging in...", func() bool {
		return s.ConnectionState() != greenstripes.LoggingIn
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if s.ConnectionState() != greenstripes.LoggedIn {
		code := s.LoginError()
		cleanup()
		return nil, nil, fmt.Errorf("%w: %s (%s)", ErrLoginFailed, code.Message(), code)
	}

	return s, cleanup, nil
}
