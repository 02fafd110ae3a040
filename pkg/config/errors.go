// Package config provides error definitions for configuration-related errors.
package config

import "errors"

// Configuration validation errors
var (
	// ErrMissingSpotifyClientID is returned when Spotify Client ID is not provided
	ErrMissingSpotifyClientID = errors.New("spotify client ID is required")

	// ErrMissingSpotifyClientSecret is returned when Spotify Client Secret is not provided
	ErrMissingSpotifyClientSecret = errors.New("spotify client secret is required")

	// ErrMissingApplicationKey is returned when the session application key is empty
	ErrMissingApplicationKey = errors.New("session application key is required")

	// ErrUnknownBackend is returned when SESSION_BACKEND names no known backend
	ErrUnknownBackend = errors.New("unknown session backend")

	// ErrInvalidServerPort is returned when the callback server port is out of range
	ErrInvalidServerPort = errors.New("server port must be between 1 and 65535")

	// ErrInvalidConcurrency is returned when fewer than one concurrent request is allowed
	ErrInvalidConcurrency = errors.New("max concurrent requests must be at least 1")

	// ErrInvalidTimeout is returned when the request timeout is not positive
	ErrInvalidTimeout = errors.New("request timeout must be greater than 0")

	// ErrInvalidCacheTTL is returned when the cache is enabled with a non-positive TTL
	ErrInvalidCacheTTL = errors.New("cache TTL must be greater than 0")

	// ErrEnvPathTraversal is returned when the .env path escapes the working directory
	ErrEnvPathTraversal = errors.New(".env file path traversal detected")
)
