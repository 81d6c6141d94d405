// Package errors turns failures from the API client into messages for the
// terminal. The server's own message is preferred; a generic line is used
// when the body carried nothing readable.
package errors

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/maskapp/mask/pkg/api"
	"github.com/maskapp/mask/pkg/session"
)

// ErrorType categorizes different error types
type ErrorType string

const (
	ErrorTypeNetwork      ErrorType = "network"
	ErrorTypeTimeout      ErrorType = "timeout"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeForbidden    ErrorType = "forbidden"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeConflict     ErrorType = "conflict"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeTooLarge     ErrorType = "too_large"
	ErrorTypeUnsupported  ErrorType = "unsupported"
	ErrorTypeUnavailable  ErrorType = "unavailable"
	ErrorTypeServer       ErrorType = "server"
	ErrorTypeUnknown      ErrorType = "unknown"
)

const genericMessage = "Something went wrong. Please try again."

// CLIError represents a structured error with context
type CLIError struct {
	Type       ErrorType
	Message    string
	Cause      error
	Suggestion string
	StatusCode int
	RetryAfter int
}

func (e *CLIError) Error() string {
	return e.Message
}

func (e *CLIError) WithSuggestion(suggestion string) *CLIError {
	e.Suggestion = suggestion
	return e
}

func (e *CLIError) HasSuggestion() bool {
	return e.Suggestion != ""
}

func (e *CLIError) Unwrap() error {
	return e.Cause
}

func NewCLIError(errorType ErrorType, message string, cause error) *CLIError {
	return &CLIError{Type: errorType, Message: message, Cause: cause}
}

var apiTypes = map[string]ErrorType{
	"UNAUTHORIZED":           ErrorTypeUnauthorized,
	"FORBIDDEN":              ErrorTypeForbidden,
	"VALIDATION_ERROR":       ErrorTypeValidation,
	"BAD_REQUEST":            ErrorTypeValidation,
	"NOT_FOUND":              ErrorTypeNotFound,
	"CONFLICT":               ErrorTypeConflict,
	"RATE_LIMITED":           ErrorTypeRateLimit,
	"PAYLOAD_TOO_LARGE":      ErrorTypeTooLarge,
	"UNSUPPORTED_MEDIA_TYPE": ErrorTypeUnsupported,
	"SERVICE_UNAVAILABLE":    ErrorTypeUnavailable,
	"INTERNAL_ERROR":         ErrorTypeServer,
}

var suggestions = map[ErrorType]string{
	ErrorTypeNetwork:      "Check that the server is running and api.base_url is correct.",
	ErrorTypeTimeout:      "The server took too long. Try again or raise api.timeout.",
	ErrorTypeUnauthorized: "Run 'mask auth login' to sign in again.",
	ErrorTypeForbidden:    "Your account does not have permission for this action.",
	ErrorTypeTooLarge:     "Uploads are limited to 5 MB.",
	ErrorTypeUnsupported:  "Only JPEG, PNG, WEBP and GIF images are accepted.",
}

// Categorize converts any error into a CLIError
func Categorize(err error) *CLIError {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}

	if errors.Is(err, session.ErrNotLoggedIn) {
		return withSuggestion(NewCLIError(ErrorTypeUnauthorized, "You are not logged in.", err))
	}

	var apiErr *api.APIError
	if errors.As(err, &apiErr) {
		return fromAPI(apiErr)
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return withSuggestion(NewCLIError(ErrorTypeTimeout, "Request timed out.", err))
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return withSuggestion(NewCLIError(ErrorTypeTimeout, "Request timed out.", err))
		}
		return withSuggestion(NewCLIError(ErrorTypeNetwork, "Could not reach the server.", err))
	}
	if strings.Contains(err.Error(), "connection refused") {
		return withSuggestion(NewCLIError(ErrorTypeNetwork, "Could not reach the server.", err))
	}

	msg := err.Error()
	if msg == "" {
		msg = genericMessage
	}
	return NewCLIError(ErrorTypeUnknown, msg, err)
}

func fromAPI(apiErr *api.APIError) *CLIError {
	typ, ok := apiTypes[apiErr.Code]
	if !ok {
		switch {
		case apiErr.StatusCode >= 500:
			typ = ErrorTypeServer
		case apiErr.StatusCode == 404:
			typ = ErrorTypeNotFound
		default:
			typ = ErrorTypeUnknown
		}
	}

	msg := apiErr.Message
	if typ == ErrorTypeServer || msg == "" {
		msg = genericMessage
	}
	if len(apiErr.Fields) > 0 {
		parts := make([]string, 0, len(apiErr.Fields))
		for _, f := range apiErr.Fields {
			parts = append(parts, f.Field+": "+f.Message)
		}
		msg = fmt.Sprintf("%s (%s)", msg, strings.Join(parts, "; "))
	}

	e := NewCLIError(typ, msg, apiErr)
	e.StatusCode = apiErr.StatusCode
	e.RetryAfter = apiErr.RetryAfter
	return withSuggestion(e)
}

func withSuggestion(e *CLIError) *CLIError {
	if s, ok := suggestions[e.Type]; ok && !e.HasSuggestion() {
		e.Suggestion = s
	}
	return e
}

// FormatError returns a user-friendly error message
func FormatError(err error) string {
	if err == nil {
		return ""
	}

	cliErr := Categorize(err)
	var sb strings.Builder

	sb.WriteString("Error")
	if cliErr.Type != ErrorTypeUnknown {
		sb.WriteString(" (")
		sb.WriteString(string(cliErr.Type))
		sb.WriteString(")")
	}
	sb.WriteString(": ")
	sb.WriteString(cliErr.Message)
	sb.WriteString("\n")

	if cliErr.HasSuggestion() {
		sb.WriteString("Hint: ")
		sb.WriteString(cliErr.Suggestion)
		sb.WriteString("\n")
	}

	if cliErr.Type == ErrorTypeRateLimit && cliErr.RetryAfter > 0 {
		fmt.Fprintf(&sb, "Retry in %d seconds\n", cliErr.RetryAfter)
	}

	return sb.String()
}
