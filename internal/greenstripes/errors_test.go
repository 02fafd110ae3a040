package greenstripes

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/toozej/greenstripes/internal/types"
)

func TestCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Error
	}{
		{"nil", nil, OK},
		{"bad credentials", fmt.Errorf("login: %w", types.ErrBadCredentials), BadUsernameOrPassword},
		{"bad application key", types.ErrBadApplicationKey, BadApplicationKey},
		{"no such user", types.ErrNoSuchUser, NoSuchUser},
		{"not found", fmt.Errorf("track x: %w", types.ErrNotFound), NotFound},
		{"unavailable", types.ErrUnavailable, UnableToContactServer},
		{"permission denied", types.ErrPermissionDenied, PermissionDenied},
		{"invalid input", types.ErrInvalidInput, InvalidIndata},
		{"rate limited", types.ErrRateLimited, OtherTransient},
		{"timeout", context.DeadlineExceeded, OtherTransient},
		{"canceled", fmt.Errorf("call: %w", context.Canceled), OtherTransient},
		{"unknown", errors.New("boom"), OtherPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, codeFor(tt.err))
		})
	}
}

func TestErrorStrings(t *testing.T) {
	for code := OK; code <= NotFound; code++ {
		assert.NotContains(t, code.String(), "error(")
		assert.NotEqual(t, "Unknown error", code.Message())
	}
	assert.Equal(t, "is_loading", IsLoading.String())
	assert.Equal(t, "error(99)", Error(99).String())
	assert.Equal(t, "Unknown error", Error(-1).Message())
}

func TestConnectionStateString(t *testing.T) {
	assert.Equal(t, "logged_in", LoggedIn.String())
	assert.Equal(t, "disconnected", Disconnected.String())
	assert.Equal(t, "state(42)", ConnectionState(42).String())
	assert.True(t, Disconnected.usable())
	assert.False(t, LoggingOut.usable())
}
