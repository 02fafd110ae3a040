package spotify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/toozej/greenstripes/internal/types"
)

// translate maps Web API and transport failures onto the backend sentinel
// errors. Context cancellation passes through unchanged.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var apiErr spotify.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: %s", statusSentinel(apiErr.Status), apiErr.Message)
	}

	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) || errors.Is(err, ErrNotAuthenticated) {
		return fmt.Errorf("%w: %v", types.ErrBadCredentials, err)
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%w: %v", types.ErrUnavailable, err)
	}
	return err
}

func statusSentinel(status int) error {
	switch {
	case status == http.StatusBadRequest:
		return types.ErrInvalidInput
	case status == http.StatusUnauthorized:
		return types.ErrBadCredentials
	case status == http.StatusForbidden:
		return types.ErrPermissionDenied
	case status == http.StatusNotFound:
		return types.ErrNotFound
	case status == http.StatusTooManyRequests:
		return types.ErrRateLimited
	default:
		return types.ErrUnavailable
	}
}
