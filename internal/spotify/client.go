// Package spotify implements the catalog backend on top of the Spotify Web
// API. Client owns the OAuth authorization code flow and the stored token;
// Backend adapts the Web API to the session's backend contract.
package spotify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/zmb3/spotify/v2"
	spotifyauth "github.com/zmb3/spotify/v2/auth"
	"golang.org/x/oauth2"

	"github.com/toozej/greenstripes/pkg/config"
	"github.com/toozej/greenstripes/pkg/useragent"
)

// refreshMargin is how long before expiry a token is refreshed.
const refreshMargin = 5 * time.Minute

var (
	// ErrMissingCredentials is returned when the client id or secret is unset.
	ErrMissingCredentials = errors.New("spotify client ID and secret are required")
	// ErrMissingRedirectURL is returned when no OAuth redirect URL is configured.
	ErrMissingRedirectURL = errors.New("spotify redirect URL is required")
	// ErrNotAuthenticated is returned when no token is available.
	ErrNotAuthenticated = errors.New("spotify: not authenticated, run the login command first")
	// ErrStateMismatch is returned when the OAuth callback carries an unexpected state.
	ErrStateMismatch = errors.New("spotify: invalid state parameter")
)

// Client owns the OAuth configuration and the user's token. It implements
// oauth2.TokenSource, refreshing and persisting the token as it nears expiry.
type Client struct {
	config    config.SpotifyConfig
	logger    *logrus.Logger
	auth      *spotifyauth.Authenticator
	ctx       context.Context
	state     string
	tokenFile string
	userAgent string

	tokenMu sync.RWMutex
	token   *oauth2.Token
}

// TokenData represents the stored token information
type TokenData struct {
	AccessToken  string    `json:"access_token"`  // #nosec G117 -- persisted OAuth token
	RefreshToken string    `json:"refresh_token"` // #nosec G117 -- persisted OAuth token
	TokenType    string    `json:"token_type"`
	Expiry       time.Time `json:"expiry"`
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithUserAgent sets the User-Agent sent with Web API requests.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// NewClient creates a client for the authorization code flow and loads any
// previously stored token.
func NewClient(cfg config.SpotifyConfig, logger *logrus.Logger, opts ...ClientOption) (*Client, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrMissingCredentials
	}
	if cfg.RedirectURL == "" {
		return nil, ErrMissingRedirectURL
	}

	auth := spotifyauth.New(
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(
			spotifyauth.ScopeUserReadPrivate,
			spotifyauth.ScopePlaylistReadPrivate,
			spotifyauth.ScopePlaylistReadCollaborative,
		),
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
	)

	tokenFile, err := cfg.GetTokenFilePath()
	if err != nil {
		logger.WithError(err).Warn("Could not determine token file path, authentication will be required each time")
	}

	c := &Client{
		config:    cfg,
		logger:    logger,
		auth:      auth,
		ctx:       context.Background(),
		state:     uuid.NewString(),
		tokenFile: tokenFile,
		userAgent: useragent.Build(useragent.DefaultProduct, ""),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.loadToken() {
		logger.WithField("token_file", tokenFile).Debug("Loaded stored Spotify token")
	}

	logger.WithFields(logrus.Fields{
		"component":    "spotify_client",
		"redirect_url": cfg.RedirectURL,
		"token_loaded": c.HasToken(),
	}).Debug("Spotify client initialized")

	return c, nil
}

// AuthURL returns the URL the user visits to grant access.
func (c *Client) AuthURL() string {
	return c.auth.AuthURL(c.state)
}

// HasToken reports whether a token is loaded.
func (c *Client) HasToken() bool {
	c.tokenMu.RLock()
	defer c.tokenMu.RUnlock()
	return c.token != nil
}

// CompleteAuth exchanges the authorization code from the OAuth callback for
// a token, verifies it and stores it for later runs.
func (c *Client) CompleteAuth(ctx context.Context, code, state string) (UserInfo, error) {
	if state != c.state {
		return UserInfo{}, ErrStateMismatch
	}

	token, err := c.auth.Exchange(ctx, code)
	if err != nil {
		return UserInfo{}, fmt.Errorf("failed to exchange code for token: %w", err)
	}

	c.tokenMu.Lock()
	c.token = token
	c.tokenMu.Unlock()

	user, err := c.API().CurrentUser(ctx)
	if err != nil {
		return UserInfo{}, fmt.Errorf("authentication verification failed: %w", translate(err))
	}

	c.logger.WithFields(logrus.Fields{
		"user_id":           user.ID,
		"user_display_name": user.DisplayName,
	}).Info("Spotify authentication verified")

	c.tokenMu.Lock()
	saveErr := c.saveTokenUnsafe()
	c.tokenMu.Unlock()
	if saveErr != nil {
		c.logger.WithError(saveErr).Warn("Failed to save authentication token, will require re-authentication next time")
	} else {
		c.logger.WithField("token_file", c.tokenFile).Info("Authentication token saved")
	}

	return UserInfo{ID: user.ID, DisplayName: user.DisplayName}, nil
}

// UserInfo identifies the account a token belongs to.
type UserInfo struct {
	ID          string
	DisplayName string
}

// Token implements oauth2.TokenSource. The token is refreshed when it is
// within refreshMargin of expiring and the refreshed token is saved.
func (c *Client) Token() (*oauth2.Token, error) {
	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	if c.token == nil {
		return nil, ErrNotAuthenticated
	}
	if c.token.Expiry.IsZero() || time.Until(c.token.Expiry) > refreshMargin {
		return c.token, nil
	}

	c.logger.Debug("Refreshing Spotify access token")
	newToken, err := c.auth.RefreshToken(c.ctx, c.token)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh token: %w", err)
	}
	c.token = newToken

	if err := c.saveTokenUnsafe(); err != nil {
		c.logger.WithError(err).Warn("Failed to save refreshed token")
	}
	return c.token, nil
}

// HTTPClient returns an http.Client that authorizes requests with the
// client's token and sets the configured User-Agent.
func (c *Client) HTTPClient() *http.Client {
	return &http.Client{
		Transport: &oauth2.Transport{
			Source: c,
			Base:   &useragent.Transport{UserAgent: c.userAgent},
		},
	}
}

// API returns a Web API client authorized by this client's token.
func (c *Client) API(opts ...spotify.ClientOption) *spotify.Client {
	return spotify.New(c.HTTPClient(), opts...)
}

// Backend returns a catalog backend using this client's token. It fails with
// ErrNotAuthenticated when no token has been stored yet.
func (c *Client) Backend(opts ...Option) (*Backend, error) {
	if !c.HasToken() {
		return nil, ErrNotAuthenticated
	}
	opts = append([]Option{WithMarket(c.config.Market)}, opts...)
	return NewBackend(c.API(), opts...), nil
}

// loadToken attempts to load a stored token from disk
func (c *Client) loadToken() bool {
	if c.tokenFile == "" {
		return false
	}

	c.tokenMu.Lock()
	defer c.tokenMu.Unlock()

	data, err := os.ReadFile(c.tokenFile)
	if err != nil {
		if !os.IsNotExist(err) {
			c.logger.WithError(err).Debug("Failed to read token file")
		}
		return false
	}

	var tokenData TokenData
	if err := json.Unmarshal(data, &tokenData); err != nil {
		c.logger.WithError(err).Debug("Failed to parse token file")
		return false
	}
	if tokenData.AccessToken == "" && tokenData.RefreshToken == "" {
		return false
	}

	c.token = &oauth2.Token{
		AccessToken:  tokenData.AccessToken,
		RefreshToken: tokenData.RefreshToken,
		TokenType:    tokenData.TokenType,
		Expiry:       tokenData.Expiry,
	}
	return true
}

// saveTokenUnsafe saves the current token to disk without acquiring locks.
// The caller must hold tokenMu.
func (c *Client) saveTokenUnsafe() error {
	if c.tokenFile == "" || c.token == nil {
		return nil
	}

	tokenData := TokenData{
		AccessToken:  c.token.AccessToken,
		RefreshToken: c.token.RefreshToken,
		TokenType:    c.token.TokenType,
		Expiry:       c.token.Expiry,
	}

	data, err := json.MarshalIndent(tokenData, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal token data: %w", err)
	}

	// Write to temporary file first, then rename for atomic operation
	tempFile := c.tokenFile + ".tmp"
	if err := os.WriteFile(tempFile, data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	if err := os.Rename(tempFile, c.tokenFile); err != nil {
		_ = os.Remove(tempFile)
		return fmt.Errorf("failed to rename token file: %w", err)
	}

	c.logger.Debug("Successfully saved token to file")
	return nil
}
