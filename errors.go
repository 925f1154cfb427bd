package humanrail

import (
	"errors"
	"fmt"
	"time"
)

// APIError is the base error for every failure surfaced by this package.
// Typed wrappers embed it so callers can branch with errors.As while still
// reading the shared fields.
type APIError struct {
	// Message is a human-readable error description.
	Message string
	// StatusCode is the HTTP status code from the API response, if any.
	StatusCode int
	// RequestID identifies the failed request for support escalation.
	RequestID string
	// Body is the raw error response from the API, when one was parsed.
	Body *APIErrorResponse
	// Err is the underlying error, if any.
	Err error
}

func (e *APIError) Error() string {
	switch {
	case e.RequestID != "":
		return fmt.Sprintf("humanrail: %s (status=%d, request_id=%s)", e.Message, e.StatusCode, e.RequestID)
	case e.StatusCode != 0:
		return fmt.Sprintf("humanrail: %s (status=%d)", e.Message, e.StatusCode)
	default:
		return fmt.Sprintf("humanrail: %s", e.Message)
	}
}

func (e *APIError) Unwrap() error { return e.Err }

// AuthenticationError is returned when the API key is missing, invalid or
// revoked (HTTP 401).
type AuthenticationError struct {
	APIError
}

// AuthorizationError is returned when the key is valid but not allowed to
// perform the operation (HTTP 403).
type AuthorizationError struct {
	APIError
}

// RateLimitError is returned on HTTP 429.
type RateLimitError struct {
	APIError
	// RetryAfter is the server-suggested wait before the next request,
	// zero when the server sent no hint.
	RetryAfter time.Duration
}

// ValidationError is returned when the request fails validation, either
// client-side or with HTTP 400/422.
type ValidationError struct {
	APIError
}

// TaskNotFoundError is returned when the requested task does not exist (HTTP 404).
type TaskNotFoundError struct {
	APIError
	// TaskID is the identifier that was not found, when known.
	TaskID string
}

// ConflictError is returned on HTTP 409, e.g. cancelling a task that already
// reached a terminal state.
type ConflictError struct {
	APIError
}

// ServerError is returned when the API answers 5xx and retries are exhausted.
type ServerError struct {
	APIError
}

// TimeoutError is returned when an operation exceeds its deadline: a single
// request timing out at the transport, or WaitForCompletion exhausting its
// overall timeout.
type TimeoutError struct {
	APIError
	// Timeout is the duration that was exceeded.
	Timeout time.Duration
}

// IsRetryableStatus reports whether a status code is worth another attempt.
// Exactly 429 and the transient 5xx family qualify; everything else cannot be
// fixed by repeating the same request.
func IsRetryableStatus(statusCode int) bool {
	switch statusCode {
	case 429, 500, 502, 503, 504:
		return true
	default:
		return false
	}
}

// Classify maps a non-2xx response to its typed error. It performs no I/O:
// the caller supplies the parsed error body, the request id header and any
// Retry-After hint. The status-code mapping is exact and first-match-wins;
// unrecognised codes fall through to a bare *APIError.
func Classify(statusCode int, body *APIErrorResponse, requestID string, retryAfter time.Duration) error {
	message := fmt.Sprintf("API request failed with status %d", statusCode)
	if body != nil && body.Error.Message != "" {
		message = body.Error.Message
	}

	base := APIError{
		Message:    message,
		StatusCode: statusCode,
		RequestID:  requestID,
		Body:       body,
	}

	switch statusCode {
	case 401:
		return &AuthenticationError{APIError: base}
	case 403:
		return &AuthorizationError{APIError: base}
	case 404:
		return &TaskNotFoundError{APIError: base}
	case 409:
		return &ConflictError{APIError: base}
	case 400, 422:
		return &ValidationError{APIError: base}
	case 429:
		return &RateLimitError{APIError: base, RetryAfter: retryAfter}
	default:
		if statusCode >= 500 {
			return &ServerError{APIError: base}
		}
		return &base
	}
}

// IsAuthentication reports whether err is an AuthenticationError.
func IsAuthentication(err error) bool {
	var target *AuthenticationError
	return errors.As(err, &target)
}

// IsAuthorization reports whether err is an AuthorizationError.
func IsAuthorization(err error) bool {
	var target *AuthorizationError
	return errors.As(err, &target)
}

// IsRateLimit reports whether err is a RateLimitError.
func IsRateLimit(err error) bool {
	var target *RateLimitError
	return errors.As(err, &target)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsTaskNotFound reports whether err is a TaskNotFoundError.
func IsTaskNotFound(err error) bool {
	var target *TaskNotFoundError
	return errors.As(err, &target)
}

// IsConflict reports whether err is a ConflictError.
func IsConflict(err error) bool {
	var target *ConflictError
	return errors.As(err, &target)
}

// IsServerError reports whether err is a ServerError.
func IsServerError(err error) bool {
	var target *ServerError
	return errors.As(err, &target)
}

// IsTimeout reports whether err is a TimeoutError.
func IsTimeout(err error) bool {
	var target *TimeoutError
	return errors.As(err, &target)
}
