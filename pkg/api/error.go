package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	json "github.com/json-iterator/go"
)

// FieldError is one entry of a validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the server's error body
type ErrorResponse struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Field   string       `json:"field,omitempty"`
	Fields  []FieldError `json:"fields,omitempty"`
	Details string       `json:"details,omitempty"`
	// RetryAfter is set on RATE_LIMITED responses
	RetryAfter int `json:"retry_after,omitempty"`
}

// APIError represents an API error response
type APIError struct {
	Code       string
	Message    string
	StatusCode int
	Fields     []FieldError
	RetryAfter int
}

func (e *APIError) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = f.Field + ": " + f.Message
		}
		return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, strings.Join(parts, "; "))
	}
	return fmt.Sprintf("[%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

// ParseError turns a non-2xx response into an *APIError. The message is
// best effort: bodies that aren't the server's error shape fall back to the
// HTTP status text.
func ParseError(resp *resty.Response) error {
	status := resp.StatusCode()

	var body ErrorResponse
	if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Code != "" {
		msg := body.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &APIError{
			Code:       body.Code,
			Message:    msg,
			StatusCode: status,
			Fields:     body.Fields,
			RetryAfter: body.RetryAfter,
		}
	}

	msg := http.StatusText(status)
	if msg == "" {
		msg = "request failed"
	}
	return &APIError{Code: "UNKNOWN_ERROR", Message: msg, StatusCode: status}
}

// CheckResponse checks if response is successful and returns error if not
func CheckResponse(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if !resp.IsSuccess() {
		return ParseError(resp)
	}
	return nil
}

func statusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsUnauthorized checks if error is due to missing/invalid authentication
func IsUnauthorized(err error) bool { return statusOf(err) == http.StatusUnauthorized }

// IsForbidden checks if error is due to insufficient permissions
func IsForbidden(err error) bool { return statusOf(err) == http.StatusForbidden }

// IsNotFound checks if error is due to resource not found
func IsNotFound(err error) bool { return statusOf(err) == http.StatusNotFound }

// IsRateLimited reports a 429
func IsRateLimited(err error) bool { return statusOf(err) == http.StatusTooManyRequests }

// IsServerError checks if error is due to server error (5xx)
func IsServerError(err error) bool { return statusOf(err) >= http.StatusInternalServerError }
