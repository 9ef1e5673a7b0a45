package editorial

import (
	"errors"
	"fmt"
	"time"
)

// Kind is the closed failure vocabulary shared by the service and its callers.
type Kind string

const (
	KindInvalidInput        Kind = "invalid_input"
	KindInsufficientItems   Kind = "insufficient_items"
	KindRateLimited         Kind = "rate_limited"
	KindUnauthorized        Kind = "unauthorized"
	KindSelfieNotAllowed    Kind = "selfie_not_allowed"
	KindContentNotAllowed   Kind = "content_not_allowed"
	KindNoJSONInResponse    Kind = "no_json_in_response"
	KindMalformedJSON       Kind = "malformed_json"
	KindIncompleteStructure Kind = "incomplete_structure"
	KindGatewayError        Kind = "gateway_error"
	KindNetworkError        Kind = "network_error"
	KindServerError         Kind = "server_error"
)

// Kinds lists every failure kind.
var Kinds = []Kind{
	KindInvalidInput,
	KindInsufficientItems,
	KindRateLimited,
	KindUnauthorized,
	KindSelfieNotAllowed,
	KindContentNotAllowed,
	KindNoJSONInResponse,
	KindMalformedJSON,
	KindIncompleteStructure,
	KindGatewayError,
	KindNetworkError,
	KindServerError,
}

// Retryable reports whether a failure of this kind is transient and may be
// retried once without user action.
func (k Kind) Retryable() bool {
	switch k {
	case KindNoJSONInResponse, KindMalformedJSON, KindIncompleteStructure,
		KindGatewayError, KindNetworkError, KindServerError:
		return true
	default:
		return false
	}
}

// Valid reports whether k is part of the vocabulary.
func (k Kind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

func (k Kind) String() string { return string(k) }

// Error is a classified pipeline failure.
type Error struct {
	Kind    Kind
	Message string
	// RetryAfter is only set for rate limiting.
	RetryAfter time.Duration
	// DebugID correlates the failure with service logs.
	DebugID string
	// Permanent marks a failure that repeating cannot fix, such as rejected
	// upstream credentials, whatever its kind.
	Permanent bool
	Err       error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = string(e.Kind)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the failure may be retried.
func (e *Error) Retryable() bool { return !e.Permanent && e.Kind.Retryable() }

// NewError creates a failure of the given kind.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Errorf creates a failure of the given kind with a formatted message.
func Errorf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err under kind. A nil err yields nil.
func Wrap(kind Kind, message string, err error) *Error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Message: message, Err: err}
}

// Permanently classifies err under kind and marks it as not retryable.
func Permanently(kind Kind, message string, err error) *Error {
	e := Wrap(kind, message, err)
	if e != nil {
		e.Permanent = true
	}
	return e
}

// AsError extracts the classified failure from err. Unclassified errors
// become server_error.
func AsError(err error) *Error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return &Error{Kind: KindServerError, Message: "unexpected failure", Err: err}
}

// KindOf returns the kind of err, or "" for nil.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}
	return AsError(err).Kind
}

// IsRetryable reports whether err is a transient, classified failure.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return AsError(err).Retryable()
}
