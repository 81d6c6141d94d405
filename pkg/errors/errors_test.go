package errors

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/session"
)

func TestNewCLIError(t *testing.T) {
	cause := errors.New("underlying error")
	err := NewCLIError(ErrorTypeValidation, "Test error", cause)

	if err.Type != ErrorTypeValidation {
		t.Errorf("Expected type %s, got %s", ErrorTypeValidation, err.Type)
	}
	if err.Message != "Test error" {
		t.Errorf("Expected message 'Test error', got '%s'", err.Message)
	}
	if !errors.Is(err, cause) {
		t.Error("Cause should be reachable through Unwrap")
	}
}

func TestWithSuggestion(t *testing.T) {
	err := NewCLIError(ErrorTypeValidation, "Test", nil)
	if err.HasSuggestion() {
		t.Error("new error should have no suggestion")
	}
	if !err.WithSuggestion("Try something else").HasSuggestion() {
		t.Error("HasSuggestion returned false")
	}
}

func TestCategorizeAPIErrors(t *testing.T) {
	tests := []struct {
		name    string
		err     *api.APIError
		want    ErrorType
		message string
	}{
		{
			name:    "forbidden keeps server message",
			err:     &api.APIError{Code: "FORBIDDEN", Message: "posts from a private group cannot be shared outside it", StatusCode: 403},
			want:    ErrorTypeForbidden,
			message: "posts from a private group cannot be shared outside it",
		},
		{
			name:    "validation lists fields",
			err:     &api.APIError{Code: "VALIDATION_ERROR", Message: "invalid input", StatusCode: 400, Fields: []api.FieldError{{Field: "text", Message: "required"}}},
			want:    ErrorTypeValidation,
			message: "invalid input (text: required)",
		},
		{
			name:    "internal error is generic",
			err:     &api.APIError{Code: "INTERNAL_ERROR", Message: "pq: relation missing", StatusCode: 500},
			want:    ErrorTypeServer,
			message: genericMessage,
		},
		{
			name:    "unknown code falls back on status",
			err:     &api.APIError{Code: "UNKNOWN_ERROR", Message: "Bad Gateway", StatusCode: 502},
			want:    ErrorTypeServer,
			message: genericMessage,
		},
		{
			name:    "empty message",
			err:     &api.APIError{Code: "NOT_FOUND", StatusCode: 404},
			want:    ErrorTypeNotFound,
			message: genericMessage,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Categorize(fmt.Errorf("wrapped: %w", tt.err))
			if got.Type != tt.want {
				t.Errorf("Type = %s, want %s", got.Type, tt.want)
			}
			if got.Message != tt.message {
				t.Errorf("Message = %q, want %q", got.Message, tt.message)
			}
			if got.StatusCode != tt.err.StatusCode {
				t.Errorf("StatusCode = %d", got.StatusCode)
			}
		})
	}
}

func TestCategorizeLocalErrors(t *testing.T) {
	if got := Categorize(session.ErrNotLoggedIn); got.Type != ErrorTypeUnauthorized || !got.HasSuggestion() {
		t.Errorf("not logged in: %+v", got)
	}
	if got := Categorize(context.DeadlineExceeded); got.Type != ErrorTypeTimeout {
		t.Errorf("deadline: %+v", got)
	}
	if got := Categorize(errors.New("dial tcp: connection refused")); got.Type != ErrorTypeNetwork {
		t.Errorf("refused: %+v", got)
	}
	if got := Categorize(errors.New("boom")); got.Type != ErrorTypeUnknown || got.Message != "boom" {
		t.Errorf("unknown: %+v", got)
	}
	if Categorize(nil) != nil {
		t.Error("nil should stay nil")
	}

	existing := NewCLIError(ErrorTypeConflict, "taken", nil)
	if Categorize(existing) != existing {
		t.Error("CLIError should pass through unchanged")
	}
}

func TestFormatError(t *testing.T) {
	err := &api.APIError{Code: "RATE_LIMITED", Message: "slow down", StatusCode: 429, RetryAfter: 30}
	out := FormatError(err)

	for _, want := range []string{"Error (rate_limit): slow down", "Retry in 30 seconds"} {
		if !strings.Contains(out, want) {
			t.Errorf("FormatError missing %q in %q", want, out)
		}
	}

	out = FormatError(&api.APIError{Code: "UNAUTHORIZED", Message: "token expired", StatusCode: 401})
	if !strings.Contains(out, "mask auth login") {
		t.Errorf("expected login hint, got %q", out)
	}

	if FormatError(nil) != "" {
		t.Error("nil error should format empty")
	}
}
