package authflow

import "errors"

// Domain errors. Only these are ever stored as a Snapshot's LastError.
var (
	ErrInvalidEmail      = errors.New("invalid email address")
	ErrCodeRequestFailed = errors.New("could not send login code")
	ErrInvalidCode       = errors.New("invalid login code")
)

// ErrTransport is wrapped alongside a domain error when the auth service
// could not be reached, timed out, or answered with something unreadable.
var ErrTransport = errors.New("auth service unavailable")

// Guard errors. The operation was rejected without touching the attempt.
var (
	ErrBusy       = errors.New("a request is already in flight")
	ErrNotAllowed = errors.New("operation not allowed in the current phase")
	ErrClosed     = errors.New("login attempt is closed")
)

var messages = map[error]string{
	ErrInvalidEmail:      "Enter a valid email address.",
	ErrCodeRequestFailed: "We couldn't send a login code. Please try again.",
	ErrInvalidCode:       "That code is incorrect. Check it and try again.",
}

// Message returns the text shown next to the input field for err, or "" when
// err is not a domain error.
func Message(err error) string {
	for target, msg := range messages {
		if errors.Is(err, target) {
			return msg
		}
	}
	return ""
}
