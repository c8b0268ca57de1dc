package orchestrate

import "fmt"

// ErrorKind classifies a submit failure
type ErrorKind string

const (
	// ErrValidation means the payload was malformed and rejected before
	// any network call
	ErrValidation ErrorKind = "validation"

	// ErrRateLimited means the local quota denied the request; the remote
	// service was never contacted
	ErrRateLimited ErrorKind = "rate_limited"

	// ErrUpstream means the remote service responded non-success
	ErrUpstream ErrorKind = "upstream"

	// ErrNetwork means the request failed at the transport level
	ErrNetwork ErrorKind = "network"
)

// Error is a classified submit failure
type Error struct {
	Kind ErrorKind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the classification of err, or "" for non-orchestrator
// errors
func KindOf(err error) ErrorKind {
	if oe, ok := err.(*Error); ok {
		return oe.Kind
	}
	return ""
}
