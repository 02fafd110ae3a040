package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toozej/greenstripes/internal/metrics"
	"github.com/toozej/greenstripes/internal/spotify"
)

// fakeAuth stands in for the Spotify client during the callback flow.
type fakeAuth struct {
	err   error
	codes []string
}

func (f *fakeAuth) AuthURL() string {
	return "https://accounts.spotify.com/authorize?client_id=test&state=expected"
}

func (f *fakeAuth) CompleteAuth(_ context.Context, code, state string) (spotify.UserInfo, error) {
	f.codes = append(f.codes, code)
	if f.err != nil {
		return spotify.UserInfo{}, f.err
	}
	if state != "expected" {
		return spotify.UserInfo{}, spotify.ErrStateMismatch
	}
	return spotify.UserInfo{ID: "sarnesjo", DisplayName: "Jesper Sarnesjo"}, nil
}

func TestCallbackPath(t *testing.T) {
	assert.Equal(t, "/callback", callbackPath("http://127.0.0.1:8080/callback"))
	assert.Equal(t, "/oauth/done", callbackPath("http://localhost:9000/oauth/done"))
	assert.Equal(t, "/callback", callbackPath("http://localhost:9000"))
	assert.Equal(t, "/callback", callbackPath("://bad"))
}

func TestHandleCallback(t *testing.T) {
	tests := []struct {
		name           string
		query          string
		authErr        error
		expectedStatus int
		expectedErr    error
		expectedBody   string
	}{
		{
			name:           "success",
			query:          "?code=abc&state=expected",
			expectedStatus: http.StatusOK,
			expectedBody:   "Authentication Successful",
		},
		{
			name:           "provider error",
			query:          "?error=access_denied",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   "access_denied",
		},
		{
			name:           "missing code",
			query:          "?state=expected",
			expectedStatus: http.StatusBadRequest,
			expectedErr:    ErrNoAuthCode,
		},
		{
			name:           "state mismatch",
			query:          "?code=abc&state=forged",
			expectedStatus: http.StatusInternalServerError,
			expectedErr:    spotify.ErrStateMismatch,
		},
		{
			name:           "exchange failure",
			query:          "?code=abc&state=expected",
			authErr:        errors.New("token endpoint unreachable"),
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			auth := &fakeAuth{err: tt.authErr}
			results := make(chan authResult, 1)
			server := httptest.NewServer(callbackRouter(context.Background(), auth, "/callback", results))
			defer server.Close()

			resp, err := http.Get(server.URL + "/callback" + tt.query)
			require.NoError(t, err)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			resp.Body.Close()

			assert.Equal(t, tt.expectedStatus, resp.StatusCode)
			if tt.expectedBody != "" {
				assert.Contains(t, string(body), tt.expectedBody)
			}

			res := <-results
			if tt.expectedStatus == http.StatusOK {
				require.NoError(t, res.err)
				assert.Equal(t, "sarnesjo", res.user.ID)
				assert.Equal(t, []string{"abc"}, auth.codes)
				return
			}
			require.Error(t, res.err)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, res.err, tt.expectedErr)
			}
		})
	}
}

func TestCallbackRouterIgnoresOtherPaths(t *testing.T) {
	results := make(chan authResult, 1)
	server := httptest.NewServer(callbackRouter(context.Background(), &fakeAuth{}, "/callback", results))
	defer server.Close()

	resp, err := http.Get(server.URL + "/favicon.ico")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Empty(t, results)
}

func TestAuthenticateTimeout(t *testing.T) {
	isolate(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	var out bytes.Buffer
	_, err := authenticate(ctx, &out, &fakeAuth{}, "127.0.0.1:0", "/callback")
	assert.ErrorIs(t, err, ErrAuthTimeout)
	assert.Contains(t, out.String(), "https://accounts.spotify.com/authorize")
}

func TestMetricsRouter(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := metrics.New(reg)
	collector.EventsProcessed(3)

	server := httptest.NewServer(metricsRouter(reg))
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.Contains(string(body), "greenstripes_events_processed_total 3"))

	resp, err = http.Get(server.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestWhoamiServesMetrics(t *testing.T) {
	isolate(t)

	out, err := execute(t, "whoami", "--metrics-addr", "127.0.0.1:0")
	require.NoError(t, err)
	assert.Contains(t, out, "Jesper Sarnesjo")
}
