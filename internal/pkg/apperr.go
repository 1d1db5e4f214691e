package pkg

import "errors"

// Error kinds carried on every failed request. The kind is returned to the
// client in the response envelope's "type" field.
const (
	// EXCEPTION: unexpected runtime failure in a dependency.
	EXCEPTION = "EXCEPTION"
	// AUTH: missing, invalid or stale credential, or a banned user.
	AUTH = "AUTH"
	// BadInput: missing or malformed request body fields.
	BadInput = "BAD_INPUT"
	// BadRequest: semantically invalid given current state (missing rally,
	// actor is not the host, no open invite or request).
	BadRequest = "BAD_REQUEST"
	// NoChange: the atomic update did not apply, typically a lost race with
	// a concurrent identical mutation.
	NoChange = "NO_CHANGE"
	// NoLocation: the request lacks the location data the query needs.
	NoLocation = "NO_LOCATION"
)

// AppError pairs a client-safe message with an error kind.
type AppError struct {
	Kind    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *AppError) Unwrap() error { return e.Err }

func NewError(kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message}
}

func WrapError(kind, message string, err error) *AppError {
	return &AppError{Kind: kind, Message: message, Err: err}
}

// KindOf extracts the error kind, defaulting to EXCEPTION for errors that
// did not originate from this package.
func KindOf(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Kind
	}
	return EXCEPTION
}

// ClientMessage returns the message safe to surface to the client. Unexpected
// errors collapse to a generic message so internals never leak.
func ClientMessage(err error) string {
	var app *AppError
	if errors.As(err, &app) {
		return app.Message
	}
	return "Encountered an unexpected server error"
}
