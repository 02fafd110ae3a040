package types

import "errors"

// Backend failure kinds. Backends wrap one of these so the session can map
// failures onto result error codes with errors.Is.
var (
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("resource not found")

	// ErrBadCredentials is returned when a login is rejected.
	ErrBadCredentials = errors.New("bad username or password")

	// ErrBadApplicationKey is returned when the application key is rejected.
	ErrBadApplicationKey = errors.New("bad application key")

	// ErrNoSuchUser is returned when a user lookup fails.
	ErrNoSuchUser = errors.New("no such user")

	// ErrUnavailable is returned when the service cannot be reached.
	ErrUnavailable = errors.New("service unavailable")

	// ErrRateLimited is returned when the service asks the client to back off.
	ErrRateLimited = errors.New("rate limited")

	// ErrPermissionDenied is returned when the user may not access a resource.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrInvalidInput is returned for malformed requests such as empty queries.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotLoggedIn is returned by backends called without a login.
	ErrNotLoggedIn = errors.New("not logged in")
)
