// Package config provides secure configuration management for greenstripes.
//
// This package handles loading configuration from environment variables and .env files
// with built-in security measures to prevent path traversal attacks. It uses the
// github.com/caarlos0/env library for environment variable parsing and
// github.com/joho/godotenv for .env file loading.
//
// The configuration loading follows a priority order:
//  1. Environment variables (highest priority)
//  2. .env file in current working directory
//  3. Default values (if any)
//
// Configuration is grouped by prefix:
//   - SPOTIFY_: Web API application credentials and token storage
//   - SESSION_: application key, login, backend selection and request limits
//   - CACHE_: the local metadata cache
//   - SERVER_: the OAuth callback listener
//   - METRICS_: the prometheus endpoint
//
// Example usage:
//
//	import "github.com/toozej/greenstripes/pkg/config"
//
//	func main() {
//		conf := config.GetEnvVars()
//		fmt.Printf("Backend: %s\n", conf.Session.Backend)
//	}
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Backend names accepted by SESSION_BACKEND.
const (
	BackendCatalog = "catalog"
	BackendSpotify = "spotify"
)

// Config represents the main application configuration with nested service configurations.
type Config struct {
	Spotify SpotifyConfig `envPrefix:"SPOTIFY_"`
	Session SessionConfig `envPrefix:"SESSION_"`
	Cache   CacheConfig   `envPrefix:"CACHE_"`
	Server  ServerConfig  `envPrefix:"SERVER_"`
	Metrics MetricsConfig `envPrefix:"METRICS_"`
}

// SpotifyConfig represents the configuration for Spotify Web API integration.
type SpotifyConfig struct {
	// ClientID is the Spotify application client ID.
	ClientID string `env:"CLIENT_ID"`

	// ClientSecret is the Spotify application client secret.
	ClientSecret string `env:"CLIENT_SECRET"` // #nosec G117 -- OAuth client secret, expected in config

	// RedirectURL is the callback URL for OAuth authentication.
	RedirectURL string `env:"REDIRECT_URI" envDefault:"http://127.0.0.1:8080/callback"`

	// TokenFilePath is the path where the Spotify authentication token is stored.
	TokenFilePath string `env:"TOKEN_FILE_PATH" envDefault:"~/.config/greenstripes/spotify_token.json"`

	// Market is the country code used to resolve track availability.
	Market string `env:"MARKET" envDefault:"US"`
}

// SessionConfig configures the catalog session.
type SessionConfig struct {
	// ApplicationKey identifies the application to the backend.
	ApplicationKey string `env:"APPLICATION_KEY" envDefault:"greenstripes"`

	// UserAgent names the application in backend requests.
	UserAgent string `env:"USER_AGENT" envDefault:"GreenStripes"`

	// Username and Password log in to the catalog backend. The Spotify
	// backend authenticates with the stored OAuth token instead and only
	// checks Username, when set, against the token's account.
	Username string `env:"USERNAME" envDefault:"sarnesjo"`
	Password string `env:"PASSWORD" envDefault:"greenstripes"` // #nosec G117 -- demo catalog password

	// Backend selects the catalog implementation: "catalog" or "spotify".
	Backend string `env:"BACKEND" envDefault:"catalog"`

	// CatalogFile replaces the bundled demo catalog with a JSON file.
	CatalogFile string `env:"CATALOG_FILE"`

	// CacheLocation holds the metadata cache database.
	CacheLocation string `env:"CACHE_LOCATION" envDefault:"~/.cache/greenstripes"`

	// SettingsLocation holds persistent settings such as tokens.
	SettingsLocation string `env:"SETTINGS_LOCATION" envDefault:"~/.config/greenstripes"`

	// MaxConcurrentRequests bounds the backend calls in flight at once.
	MaxConcurrentRequests int `env:"MAX_CONCURRENT_REQUESTS" envDefault:"4"`

	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
}

// CacheConfig configures the sqlite metadata cache.
type CacheConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"false"`
	TTL     time.Duration `env:"TTL" envDefault:"24h"`
}

// ServerConfig represents the OAuth callback server configuration.
type ServerConfig struct {
	Host string `env:"HOST" envDefault:"127.0.0.1"`
	Port int    `env:"PORT" envDefault:"8080"`
}

// MetricsConfig configures the prometheus endpoint. An empty address
// disables it.
type MetricsConfig struct {
	Address string `env:"ADDRESS"`
}

// GetEnvVars loads and returns the application configuration from environment
// variables and .env files with comprehensive security validation.
//
// The function will terminate the program with os.Exit(1) if any critical
// errors occur during configuration loading, such as:
//   - Current directory access failures
//   - Path traversal attempts detected
//   - .env file parsing errors
//   - Environment variable parsing failures
//   - Configuration validation errors
//
// Use Load to handle these errors instead.
func GetEnvVars() Config {
	conf, err := Load()
	if err != nil {
		fmt.Printf("Configuration error: %s\n", err)
		fmt.Println("Please check your configuration and try again.")
		os.Exit(1)
	}
	return conf
}

// Load reads the .env file in the current directory, if any, parses the
// environment and validates the result.
//
// Security measures implemented:
//   - Path traversal detection and prevention using filepath.Rel
//   - Absolute path resolution for secure path operations
//   - Safe file existence checking before loading
func Load() (Config, error) {
	// Get current working directory for secure file operations
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("error getting current working directory: %w", err)
	}

	// Construct secure path for .env file within current directory
	envPath := filepath.Join(cwd, ".env")

	// Ensure the path is within our expected directory (prevent traversal)
	cleanEnvPath, err := filepath.Abs(envPath)
	if err != nil {
		return Config{}, fmt.Errorf("error resolving .env file path: %w", err)
	}
	cleanCwd, err := filepath.Abs(cwd)
	if err != nil {
		return Config{}, fmt.Errorf("error resolving current directory: %w", err)
	}
	relPath, err := filepath.Rel(cleanCwd, cleanEnvPath)
	if err != nil || strings.Contains(relPath, "..") {
		return Config{}, ErrEnvPathTraversal
	}

	// Load .env file if it exists
	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			return Config{}, fmt.Errorf("error loading .env file: %w", err)
		}
	}

	// Parse environment variables into config struct
	var conf Config
	if err := env.Parse(&conf); err != nil {
		return Config{}, fmt.Errorf("error parsing configuration from environment: %w", err)
	}

	if err := validateConfig(&conf); err != nil {
		return Config{}, err
	}

	return conf, nil
}

// Address returns the server address
func (s ServerConfig) Address() string {
	if s.Host == "" {
		s.Host = "127.0.0.1"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetTokenFilePath returns the resolved token file path, handling tilde expansion
// and ensuring the directory exists.
func (s SpotifyConfig) GetTokenFilePath() (string, error) {
	return ensureParent(s.TokenFilePath)
}

// CachePath returns the metadata cache database path, creating its
// directory.
func (s SessionConfig) CachePath() (string, error) {
	dir, err := expandHome(s.CacheLocation)
	if err != nil {
		return "", err
	}
	return ensureParent(filepath.Join(dir, "metadata.db"))
}

func expandHome(path string) (string, error) {
	if !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, path[2:]), nil
}

// ensureParent expands and absolutizes path and creates its directory.
func ensureParent(path string) (string, error) {
	expanded, err := expandHome(path)
	if err != nil {
		return "", err
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	dir := filepath.Dir(absPath)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	return absPath, nil
}

// Validate checks the configuration after command line overrides have been
// applied.
func (c Config) Validate() error {
	return validateConfig(&c)
}

// validateConfig validates the configuration
func validateConfig(conf *Config) error {
	var errs []error

	if conf.Server.Port < 1 || conf.Server.Port > 65535 {
		errs = append(errs, ErrInvalidServerPort)
	}

	switch conf.Session.Backend {
	case BackendCatalog:
	case BackendSpotify:
		// Spotify credentials are only needed when that backend is selected
		if conf.Spotify.ClientID == "" {
			errs = append(errs, ErrMissingSpotifyClientID)
		}
		if conf.Spotify.ClientSecret == "" {
			errs = append(errs, ErrMissingSpotifyClientSecret)
		}
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrUnknownBackend, conf.Session.Backend))
	}

	if conf.Session.ApplicationKey == "" {
		errs = append(errs, ErrMissingApplicationKey)
	}
	if conf.Session.MaxConcurrentRequests < 1 {
		errs = append(errs, ErrInvalidConcurrency)
	}
	if conf.Session.RequestTimeout <= 0 {
		errs = append(errs, ErrInvalidTimeout)
	}
	if conf.Cache.Enabled && conf.Cache.TTL <= 0 {
		errs = append(errs, ErrInvalidCacheTTL)
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %w", errors.Join(errs...))
	}

	return nil
}
