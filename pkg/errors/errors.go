// Package errors provides the closed failure taxonomy for fetchflow.
//
// Every failure that crosses a fetchflow package boundary is a [*FetchError]
// carrying one of five kinds:
//   - NetworkError: transport failure (connection refused, DNS, reset)
//   - HttpError: non-2xx response, with the status code attached
//   - TimeoutError: the request deadline expired
//   - GraphQLError: a GraphQL endpoint returned an error list
//   - UnknownError: anything else (bad content type, decode failure, caller cancellation)
//
// # Usage
//
//	data, err := network.Execute[Item](ctx, client, url, opts)
//	if errors.IsKind(err, errors.KindHTTP) {
//	    status := errors.As(err).StatusCode
//	}
//
// Values are created only through the factory functions. Layers that receive
// a FetchError from below pass it through unchanged; [Wrap] converts
// everything else into UnknownError with the original preserved as cause.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind identifies the failure category of a FetchError.
type Kind string

// Failure kinds.
const (
	KindNetwork Kind = "NetworkError"
	KindHTTP    Kind = "HttpError"
	KindGraphQL Kind = "GraphQLError"
	KindTimeout Kind = "TimeoutError"
	KindUnknown Kind = "UnknownError"
)

// Kinds lists every member of the taxonomy.
var Kinds = []Kind{KindNetwork, KindHTTP, KindGraphQL, KindTimeout, KindUnknown}

// FetchError is a classified fetch failure.
//
// Fields must be treated as read-only once the error has been returned.
type FetchError struct {
	Kind       Kind   // Failure category
	Message    string // Human-readable message
	StatusCode int    // HTTP status for KindHTTP, 0 otherwise
	Cause      error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Kind, e.Message)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *FetchError) Unwrap() error {
	return e.Cause
}

// HTTPError reports a non-success HTTP response.
// An empty message is replaced by "HTTP error: <status>".
func HTTPError(statusCode int, message string) *FetchError {
	if message == "" {
		message = fmt.Sprintf("HTTP error: %d", statusCode)
	}
	return &FetchError{Kind: KindHTTP, Message: message, StatusCode: statusCode}
}

// NetworkError reports a transport-level failure.
func NetworkError(cause error) *FetchError {
	return &FetchError{
		Kind:    KindNetwork,
		Message: "Network error occurred. Please check your connection.",
		Cause:   cause,
	}
}

// GraphQLError reports an error returned inside a GraphQL envelope.
func GraphQLError(message string, cause error) *FetchError {
	return &FetchError{Kind: KindGraphQL, Message: message, Cause: cause}
}

// TimeoutError reports that a request exceeded its deadline.
func TimeoutError(timeout time.Duration) *FetchError {
	return &FetchError{
		Kind:    KindTimeout,
		Message: fmt.Sprintf("Request timed out after %dms.", timeout.Milliseconds()),
	}
}

// UnknownError wraps a failure that fits no other kind.
func UnknownError(cause error) *FetchError {
	return &FetchError{
		Kind:    KindUnknown,
		Message: "An unknown error occurred.",
		Cause:   cause,
	}
}

// Unknownf creates an UnknownError whose cause is a formatted error.
func Unknownf(format string, args ...any) *FetchError {
	return UnknownError(fmt.Errorf(format, args...))
}

// Wrap converts err into a FetchError.
// A nil error yields nil, a FetchError anywhere in the chain is returned as-is,
// and any other error becomes an UnknownError with err as its cause.
func Wrap(err error) error {
	if err == nil {
		return nil
	}
	if fe := As(err); fe != nil {
		return fe
	}
	return UnknownError(err)
}

// As extracts the FetchError from err's chain, or returns nil.
func As(err error) *FetchError {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}

// KindOf returns the kind of err, or "" if err is not a FetchError.
func KindOf(err error) Kind {
	if fe := As(err); fe != nil {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err is a FetchError of the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// UserMessage returns a user-friendly message for the error.
// For FetchError values, returns the message without the kind prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	if fe := As(err); fe != nil {
		return fe.Message
	}
	return err.Error()
}
