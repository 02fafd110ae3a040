package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/toozej/greenstripes/internal/spotify"
	"github.com/toozej/greenstripes/pkg/config"
	"github.com/toozej/greenstripes/pkg/useragent"
	"github.com/toozej/greenstripes/pkg/version"
)

// authTimeout bounds how long login waits for the browser callback.
const authTimeout = 5 * time.Minute

var (
	// ErrLoginBackend is returned when login is run for a backend without OAuth.
	ErrLoginBackend = errors.New("login is only needed for the spotify backend")
	// ErrAuthTimeout is returned when no callback arrives in time.
	ErrAuthTimeout = errors.New("authentication timeout")
	// ErrNoAuthCode is returned when the callback carries no authorization code.
	ErrNoAuthCode = errors.New("no authorization code received")
)

// authCompleter is the part of the Spotify client the callback server needs.
type authCompleter interface {
	AuthURL() string
	CompleteAuth(ctx context.Context, code, state string) (spotify.UserInfo, error)
}

// authResult is delivered by the callback handler once the flow ends.
type authResult struct {
	user spotify.UserInfo
	err  error
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Authorize greenstripes to read your Spotify library",
		Long: `login runs the OAuth authorization code flow: it prints an authorization URL,
waits for the browser to return to the configured redirect URL and stores the
token for later runs.`,
		Args: cobra.NoArgs,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	if conf.Session.Backend != config.BackendSpotify {
		return ErrLoginBackend
	}

	client, err := spotify.NewClient(conf.Spotify, log.StandardLogger(),
		spotify.WithUserAgent(useragent.Build(conf.Session.UserAgent, version.Version)))
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), authTimeout)
	defer cancel()

	user, err := authenticate(ctx, cmd.OutOrStdout(), client, conf.Server.Address(), callbackPath(conf.Spotify.RedirectURL))
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "✅ Logged in to Spotify as %s (%s)\n", user.DisplayName, user.ID)
	return nil
}

// callbackPath returns the path component of the redirect URL.
func callbackPath(redirectURL string) string {
	u, err := url.Parse(redirectURL)
	if err != nil || u.Path == "" {
		return "/callback"
	}
	return u.Path
}

// authenticate serves the OAuth callback on addr until the flow completes
// or ctx ends.
func authenticate(ctx context.Context, out io.Writer, auth authCompleter, addr, path string) (spotify.UserInfo, error) {
	authURL := auth.AuthURL()
	log.WithField("auth_url", authURL).Debug("Generated Spotify authorization URL")
	fmt.Fprintf(out, "\n🔐 Spotify Authentication Required\n")
	fmt.Fprintf(out, "Please visit this URL to authenticate:\n%s\n\n", authURL)
	fmt.Fprintf(out, "Waiting for authentication... (Press Ctrl+C to cancel)\n")

	results := make(chan authResult, 1)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return spotify.UserInfo{}, fmt.Errorf("failed to listen for the OAuth callback on %s: %w", addr, err)
	}

	server := &http.Server{
		Handler:           callbackRouter(ctx, auth, path, results),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.WithField("address", ln.Addr().String()).Info("Starting temporary server for OAuth callback")
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			deliver(results, authResult{err: fmt.Errorf("server error: %w", err)})
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("Error shutting down authentication server")
		}
	}()

	select {
	case res := <-results:
		if res.err != nil {
			return spotify.UserInfo{}, fmt.Errorf("authentication failed: %w", res.err)
		}
		return res.user, nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return spotify.UserInfo{}, ErrAuthTimeout
		}
		return spotify.UserInfo{}, ctx.Err()
	}
}

// deliver sends res unless a result is already waiting.
func deliver(results chan<- authResult, res authResult) {
	select {
	case results <- res:
	default:
	}
}

func callbackRouter(ctx context.Context, auth authCompleter, path string, results chan<- authResult) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Get(path, func(w http.ResponseWriter, req *http.Request) {
		handleCallback(ctx, w, req, auth, results)
	})
	return r
}

// handleCallback handles the OAuth redirect from Spotify.
func handleCallback(ctx context.Context, w http.ResponseWriter, r *http.Request, auth authCompleter, results chan<- authResult) {
	query := r.URL.Query()
	code := query.Get("code")
	state := query.Get("state")
	errorParam := query.Get("error")

	if errorParam != "" {
		log.WithField("error", errorParam).Error("Spotify authentication error")
		http.Error(w, "Authentication failed: "+errorParam, http.StatusBadRequest)
		deliver(results, authResult{err: fmt.Errorf("spotify authentication error: %s", errorParam)})
		return
	}

	if code == "" {
		log.Error("No authorization code received")
		http.Error(w, "No authorization code received", http.StatusBadRequest)
		deliver(results, authResult{err: ErrNoAuthCode})
		return
	}

	user, err := auth.CompleteAuth(ctx, code, state)
	if err != nil {
		log.WithError(err).Error("Failed to complete Spotify authentication")
		http.Error(w, "Authentication failed", http.StatusInternalServerError)
		deliver(results, authResult{err: fmt.Errorf("failed to complete authentication: %w", err)})
		return
	}

	w.Header().Set("Content-Type", "text/html")
	w.WriteHeader(http.StatusOK)
	if _, err := io.WriteString(w, successHTML); err != nil {
		log.WithError(err).Warn("Failed to write success response")
	}

	log.Info("Spotify authentication completed successfully via callback")
	deliver(results, authResult{user: user})
}

const successHTML = `<!DOCTYPE html>
<html>
<head>
	<title>Authentication Successful</title>
	<style>
		body { font-family: Arial, sans-serif; text-align: center; padding: 50px; }
		.success { color: #28a745; font-size: 24px; margin-bottom: 20px; }
		.message { color: #6c757d; font-size: 16px; }
	</style>
</head>
<body>
	<div class="success">✅ Authentication Successful!</div>
	<div class="message">You can now close this window and return to the terminal.</div>
</body>
</html>
`
