package greenstripes

import "fmt"

// ConnectionState is the login state of a Session.
type ConnectionState int

const (
	LoggedOut ConnectionState = iota
	LoggingIn
	LoggedIn
	Disconnected
	LoggingOut
)

func (c ConnectionState) String() string {
	switch c {
	case LoggedOut:
		return "logged_out"
	case LoggingIn:
		return "logging_in"
	case LoggedIn:
		return "logged_in"
	case Disconnected:
		return "disconnected"
	case LoggingOut:
		return "logging_out"
	}
	return fmt.Sprintf("state(%d)", int(c))
}

// usable reports whether objects may be created in this state.
func (c ConnectionState) usable() bool {
	return c == LoggedIn || c == Disconnected
}
