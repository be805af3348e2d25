package gateway

import "errors"

var (
	ErrBadRequest   = errors.New("bad request")
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
)

// Error is a request-terminating failure with a message safe to show the caller.
// Kind is one of the sentinels above.
type Error struct {
	Kind    error
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return e.Message + ": " + e.cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.cause != nil {
		return []error{e.Kind, e.cause}
	}
	return []error{e.Kind}
}

func badRequest(msg string) error {
	return &Error{Kind: ErrBadRequest, Message: msg}
}

func unauthorized() error {
	// same message for unknown name and wrong pin
	return &Error{Kind: ErrUnauthorized, Message: "Invalid name or PIN"}
}

func notFound(msg string, cause error) error {
	return &Error{Kind: ErrNotFound, Message: msg, cause: cause}
}

// Outcome names the terminal state an error represents, "ok" for nil.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrBadRequest):
		return "bad_request"
	case errors.Is(err, ErrUnauthorized):
		return "unauthorized"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
