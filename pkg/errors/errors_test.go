package errors

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestFactories(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")

	tests := []struct {
		name       string
		err        *FetchError
		kind       Kind
		message    string
		statusCode int
		cause      error
	}{
		{
			name:       "http with message",
			err:        HTTPError(404, "item not found"),
			kind:       KindHTTP,
			message:    "item not found",
			statusCode: 404,
		},
		{
			name:       "http default message",
			err:        HTTPError(503, ""),
			kind:       KindHTTP,
			message:    "HTTP error: 503",
			statusCode: 503,
		},
		{
			name:    "network",
			err:     NetworkError(cause),
			kind:    KindNetwork,
			message: "Network error occurred. Please check your connection.",
			cause:   cause,
		},
		{
			name:    "graphql",
			err:     GraphQLError("field not found", nil),
			kind:    KindGraphQL,
			message: "field not found",
		},
		{
			name:    "timeout",
			err:     TimeoutError(1500 * time.Millisecond),
			kind:    KindTimeout,
			message: "Request timed out after 1500ms.",
		},
		{
			name:    "unknown",
			err:     UnknownError(cause),
			kind:    KindUnknown,
			message: "An unknown error occurred.",
			cause:   cause,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Message != tt.message {
				t.Errorf("Message = %q, want %q", tt.err.Message, tt.message)
			}
			if tt.err.StatusCode != tt.statusCode {
				t.Errorf("StatusCode = %d, want %d", tt.err.StatusCode, tt.statusCode)
			}
			if tt.err.Cause != tt.cause {
				t.Errorf("Cause = %v, want %v", tt.err.Cause, tt.cause)
			}
		})
	}
}

func TestErrorString(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"status", HTTPError(500, "boom"), "HttpError: boom (status 500)"},
		{"cause", UnknownError(errors.New("bad")), "UnknownError: An unknown error occurred.: bad"},
		{"plain", GraphQLError("oops", nil), "GraphQLError: oops"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestUnknownf(t *testing.T) {
	err := Unknownf("Unexpected content-type received: %s", "text/html")
	if err.Kind != KindUnknown {
		t.Errorf("Kind = %v, want %v", err.Kind, KindUnknown)
	}
	if err.Cause == nil || err.Cause.Error() != "Unexpected content-type received: text/html" {
		t.Errorf("Cause = %v", err.Cause)
	}
}

func TestWrap(t *testing.T) {
	t.Run("nil", func(t *testing.T) {
		if Wrap(nil) != nil {
			t.Error("Wrap(nil) should return nil")
		}
	})

	t.Run("passes FetchError through unchanged", func(t *testing.T) {
		orig := HTTPError(418, "teapot")
		if got := Wrap(orig); got != orig {
			t.Errorf("Wrap() = %v, want same pointer", got)
		}
	})

	t.Run("finds FetchError in chain", func(t *testing.T) {
		orig := TimeoutError(time.Second)
		wrapped := fmt.Errorf("poll cycle: %w", orig)
		if got := Wrap(wrapped); got != orig {
			t.Errorf("Wrap() = %v, want inner FetchError", got)
		}
	})

	t.Run("wraps foreign error as unknown", func(t *testing.T) {
		cause := errors.New("plain")
		got := As(Wrap(cause))
		if got == nil || got.Kind != KindUnknown {
			t.Fatalf("Wrap() kind = %v, want UnknownError", KindOf(got))
		}
		if !errors.Is(got, cause) {
			t.Error("wrapped error should unwrap to cause")
		}
	})

	t.Run("context cancellation stays detectable", func(t *testing.T) {
		err := Wrap(context.Canceled)
		if !errors.Is(err, context.Canceled) {
			t.Error("errors.Is(err, context.Canceled) = false, want true")
		}
	})
}

func TestIsKind(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		kind     Kind
		expected bool
	}{
		{"matching kind", NetworkError(nil), KindNetwork, true},
		{"non-matching kind", NetworkError(nil), KindHTTP, false},
		{"wrapped", fmt.Errorf("x: %w", HTTPError(500, "")), KindHTTP, true},
		{"plain error", errors.New("plain"), KindUnknown, false},
		{"nil error", nil, KindUnknown, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsKind(tt.err, tt.kind); got != tt.expected {
				t.Errorf("IsKind() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"FetchError", HTTPError(400, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestKindsAreUnique(t *testing.T) {
	seen := make(map[Kind]bool)
	for _, k := range Kinds {
		if seen[k] {
			t.Errorf("duplicate kind: %s", k)
		}
		seen[k] = true
	}
	if len(seen) != 5 {
		t.Errorf("got %d kinds, want 5", len(seen))
	}
}
