package greenstripes

import (
	"context"
	"errors"
	"fmt"

	"github.com/toozej/greenstripes/internal/types"
)

// Session usage errors. These are returned synchronously; failures of
// asynchronous work are reported through the Error field of the result.
var (
	// ErrMissingApplicationKey is returned when a session is created without a key.
	ErrMissingApplicationKey = errors.New("application key is required")

	// ErrMissingBackend is returned when a session is created without a backend.
	ErrMissingBackend = errors.New("catalog backend is required")

	// ErrAlreadyLoggedIn is returned by Login unless the session is logged out.
	ErrAlreadyLoggedIn = errors.New("session is already logged in or logging in")

	// ErrNotLoggedIn is returned when an operation needs a logged in session.
	ErrNotLoggedIn = errors.New("session is not logged in")

	// ErrSessionReleased is returned by every call after Release.
	ErrSessionReleased = errors.New("session has been released")

	// ErrLinkType is returned when a link does not name the requested kind of object.
	ErrLinkType = errors.New("link has the wrong type")

	// ErrNilObject is returned when a browse target is nil.
	ErrNilObject = errors.New("object is nil")

	// ErrInvalidRange is returned for negative offsets or counts.
	ErrInvalidRange = errors.New("offset and count must not be negative")

	// ErrEmptyQuery is returned for a search query with no searchable text.
	ErrEmptyQuery = errors.New("search query is empty")
)

// Error is the result code of an asynchronous operation.
type Error int

const (
	OK Error = iota
	BadAPIVersion
	BadApplicationKey
	BadUsernameOrPassword
	UserBanned
	UnableToContactServer
	OtherPermanent
	OtherTransient
	InvalidIndata
	IndexOutOfRange
	UserNeedsPremium
	IsLoading
	PermissionDenied
	NoSuchUser
	NotFound
)

var errorNames = [...]string{
	OK:                    "ok",
	BadAPIVersion:         "bad_api_version",
	BadApplicationKey:     "bad_application_key",
	BadUsernameOrPassword: "bad_username_or_password",
	UserBanned:            "user_banned",
	UnableToContactServer: "unable_to_contact_server",
	OtherPermanent:        "other_permanent",
	OtherTransient:        "other_transient",
	InvalidIndata:         "invalid_indata",
	IndexOutOfRange:       "index_out_of_range",
	UserNeedsPremium:      "user_needs_premium",
	IsLoading:             "is_loading",
	PermissionDenied:      "permission_denied",
	NoSuchUser:            "no_such_user",
	NotFound:              "not_found",
}

var errorMessages = [...]string{
	OK:                    "No error",
	BadAPIVersion:         "Client and service API versions do not match",
	BadApplicationKey:     "The application key is invalid",
	BadUsernameOrPassword: "Login failed because of bad username and/or password",
	UserBanned:            "The specified username is banned",
	UnableToContactServer: "Cannot connect to the service",
	OtherPermanent:        "Something went wrong and retrying will not help",
	OtherTransient:        "A transient error occurred, try again later",
	InvalidIndata:         "Invalid input",
	IndexOutOfRange:       "Index out of range",
	UserNeedsPremium:      "The user needs a premium account",
	IsLoading:             "The resource is currently loading",
	PermissionDenied:      "Permission denied",
	NoSuchUser:            "No such user",
	NotFound:              "Resource not found",
}

// String returns a snake_case name suitable for logs and metric labels.
func (e Error) String() string {
	if e >= 0 && int(e) < len(errorNames) {
		return errorNames[e]
	}
	return fmt.Sprintf("error(%d)", int(e))
}

// Message returns a human readable description of the code.
func (e Error) Message() string {
	if e >= 0 && int(e) < len(errorMessages) {
		return errorMessages[e]
	}
	return "Unknown error"
}

// transient reports whether a failure with this code may succeed when
// retried.
func (e Error) transient() bool {
	return e == UnableToContactServer || e == OtherTransient
}

// codeFor maps a backend error onto a result code.
func codeFor(err error) Error {
	switch {
	case err == nil:
		return OK
	case errors.Is(err, types.ErrBadCredentials):
		return BadUsernameOrPassword
	case errors.Is(err, types.ErrBadApplicationKey):
		return BadApplicationKey
	case errors.Is(err, types.ErrNoSuchUser):
		return NoSuchUser
	case errors.Is(err, types.ErrNotFound):
		return NotFound
	case errors.Is(err, types.ErrUnavailable):
		return UnableToContactServer
	case errors.Is(err, types.ErrPermissionDenied):
		return PermissionDenied
	case errors.Is(err, types.ErrInvalidInput):
		return InvalidIndata
	case errors.Is(err, types.ErrRateLimited),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		return OtherTransient
	}
	return OtherPermanent
}
