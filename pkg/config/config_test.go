package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedVars = []string{
	"SPOTIFY_CLIENT_ID", "SPOTIFY_CLIENT_SECRET", "SPOTIFY_REDIRECT_URI", "SPOTIFY_TOKEN_FILE_PATH", "SPOTIFY_MARKET",
	"SESSION_APPLICATION_KEY", "SESSION_USER_AGENT", "SESSION_USERNAME", "SESSION_PASSWORD", "SESSION_BACKEND",
	"SESSION_CATALOG_FILE", "SESSION_CACHE_LOCATION", "SESSION_SETTINGS_LOCATION",
	"SESSION_MAX_CONCURRENT_REQUESTS", "SESSION_REQUEST_TIMEOUT",
	"CACHE_ENABLED", "CACHE_TTL", "SERVER_HOST", "SERVER_PORT", "METRICS_ADDRESS",
}

// isolate runs the test in an empty directory with no managed variables set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range managedVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return dir
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name          string
		mockEnv       map[string]string
		mockEnvFile   string
		expectErr     error
		expectBackend string
		expectID      string
		expectTimeout time.Duration
	}{
		{
			name:          "defaults",
			expectBackend: BackendCatalog,
			expectTimeout: 30 * time.Second,
		},
		{
			name: "spotify backend from environment",
			mockEnv: map[string]string{
				"SESSION_BACKEND":       "spotify",
				"SPOTIFY_CLIENT_ID":     "env-client-id",
				"SPOTIFY_CLIENT_SECRET": "env-secret",
			},
			expectBackend: BackendSpotify,
			expectID:      "env-client-id",
			expectTimeout: 30 * time.Second,
		},
		{
			name:          "values from .env file",
			mockEnvFile:   "SESSION_REQUEST_TIMEOUT=5s\nSPOTIFY_CLIENT_ID=file-client-id\n",
			expectBackend: BackendCatalog,
			expectID:      "file-client-id",
			expectTimeout: 5 * time.Second,
		},
		{
			name:          "environment variable overrides .env file",
			mockEnv:       map[string]string{"SPOTIFY_CLIENT_ID": "env-client-id"},
			mockEnvFile:   "SPOTIFY_CLIENT_ID=file-client-id\n",
			expectBackend: BackendCatalog,
			expectID:      "env-client-id",
			expectTimeout: 30 * time.Second,
		},
		{
			name:      "spotify backend without credentials",
			mockEnv:   map[string]string{"SESSION_BACKEND": "spotify"},
			expectErr: ErrMissingSpotifyClientID,
		},
		{
			name:      "unknown backend",
			mockEnv:   map[string]string{"SESSION_BACKEND": "napster"},
			expectErr: ErrUnknownBackend,
		},
		{
			name:      "port out of range",
			mockEnv:   map[string]string{"SERVER_PORT": "70000"},
			expectErr: ErrInvalidServerPort,
		},
		{
			name:      "no concurrency",
			mockEnv:   map[string]string{"SESSION_MAX_CONCURRENT_REQUESTS": "0"},
			expectErr: ErrInvalidConcurrency,
		},
		{
			name:      "enabled cache without ttl",
			mockEnv:   map[string]string{"CACHE_ENABLED": "true", "CACHE_TTL": "0s"},
			expectErr: ErrInvalidCacheTTL,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)

			if tt.mockEnvFile != "" {
				err := os.WriteFile(filepath.Join(dir, ".env"), []byte(tt.mockEnvFile), 0600)
				require.NoError(t, err, "Failed to write mock .env file")
			}
			for key, value := range tt.mockEnv {
				t.Setenv(key, value)
			}

			conf, err := Load()
			if tt.expectErr != nil {
				assert.ErrorIs(t, err, tt.expectErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectBackend, conf.Session.Backend)
			assert.Equal(t, tt.expectID, conf.Spotify.ClientID)
			assert.Equal(t, tt.expectTimeout, conf.Session.RequestTimeout)
		})
	}
}

func TestGetEnvVarsDefaults(t *testing.T) {
	isolate(t)

	conf := GetEnvVars()
	assert.Equal(t, "greenstripes", conf.Session.ApplicationKey)
	assert.Equal(t, "GreenStripes", conf.Session.UserAgent)
	assert.Equal(t, 4, conf.Session.MaxConcurrentRequests)
	assert.False(t, conf.Cache.Enabled)
	assert.Equal(t, 24*time.Hour, conf.Cache.TTL)
	assert.Equal(t, "US", conf.Spotify.Market)
	assert.Empty(t, conf.Metrics.Address)
	assert.Equal(t, "127.0.0.1:8080", conf.Server.Address())
}

func TestValidateOverrides(t *testing.T) {
	isolate(t)
	conf, err := Load()
	require.NoError(t, err)
	require.NoError(t, conf.Validate())

	conf.Session.Backend = BackendSpotify
	err = conf.Validate()
	assert.ErrorIs(t, err, ErrMissingSpotifyClientID)
	assert.ErrorIs(t, err, ErrMissingSpotifyClientSecret)

	conf.Spotify.ClientID = "id"
	conf.Spotify.ClientSecret = "secret"
	assert.NoError(t, conf.Validate())

	conf.Session.Backend = "tape"
	assert.ErrorIs(t, conf.Validate(), ErrUnknownBackend)
}

func TestServerAddress(t *testing.T) {
	tests := []struct {
		name   string
		server ServerConfig
		want   string
	}{
		{"configured", ServerConfig{Host: "0.0.0.0", Port: 9000}, "0.0.0.0:9000"},
		{"zero value", ServerConfig{}, "127.0.0.1:8080"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.server.Address())
		})
	}
}

func TestPaths(t *testing.T) {
	dir := t.TempDir()

	spotify := SpotifyConfig{TokenFilePath: filepath.Join(dir, "tokens", "spotify_token.json")}
	tokenPath, err := spotify.GetTokenFilePath()
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(tokenPath))
	assert.DirExists(t, filepath.Join(dir, "tokens"))

	session := SessionConfig{CacheLocation: filepath.Join(dir, "cache")}
	cachePath, err := session.CachePath()
	require.NoError(t, err)
	assert.Equal(t, "metadata.db", filepath.Base(cachePath))
	assert.DirExists(t, filepath.Join(dir, "cache"))

	t.Setenv("HOME", dir)
	home := SpotifyConfig{TokenFilePath: "~/.config/greenstripes/spotify_token.json"}
	homePath, err := home.GetTokenFilePath()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(homePath, dir))
}
