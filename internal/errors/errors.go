package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a unique error identifier
type ErrorCode string

const (
	// Station resolution
	ErrCodeNoStationFound ErrorCode = "NO_STATION_FOUND"
	ErrCodeTooManyMatches ErrorCode = "TOO_MANY_MATCHES"
	ErrCodeSameStation    ErrorCode = "SAME_STATION"

	// Trip planning
	ErrCodeNoItineraries        ErrorCode = "NO_ITINERARIES"
	ErrCodeNoItinerariesInRange ErrorCode = "NO_ITINERARIES_IN_RANGE"
	ErrCodePlanner              ErrorCode = "PLANNER_ERROR"

	// Inbound events
	ErrCodeInvalidEvent ErrorCode = "INVALID_EVENT"

	// Resource
	ErrCodeNotFound  ErrorCode = "NOT_FOUND"
	ErrCodeForbidden ErrorCode = "FORBIDDEN"

	// Rate limiting
	ErrCodeRateLimitExceeded ErrorCode = "RATE_LIMIT_EXCEEDED"

	// Internal
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeDatabase ErrorCode = "DATABASE_ERROR"
	ErrCodeExternal ErrorCode = "EXTERNAL_SERVICE_ERROR"
)

// AppError is a structured error that carries a stable code alongside a
// human-readable message.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details any       `json:"details,omitempty"`
	cause   error
}

func (e *AppError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.cause
}

func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

func (e *AppError) WithDetails(details any) *AppError {
	e.Details = details
	return e
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Wrap wraps an existing error with an AppError
func Wrap(code ErrorCode, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		cause:   cause,
	}
}

// Common error constructors

func NoStationFound(query string) *AppError {
	return New(ErrCodeNoStationFound, fmt.Sprintf("no stations match %q", query)).
		WithDetails(map[string]string{"query": query})
}

func TooManyMatches(query string, count int) *AppError {
	return New(ErrCodeTooManyMatches, fmt.Sprintf("%d stations match %q", count, query)).
		WithDetails(map[string]any{"query": query, "count": count})
}

func SameStation(stopID string) *AppError {
	return New(ErrCodeSameStation, "origin and destination are the same station").
		WithDetails(map[string]string{"stopId": stopID})
}

func NoItineraries() *AppError {
	return New(ErrCodeNoItineraries, "planner returned no itineraries")
}

func NoItinerariesInRange() *AppError {
	return New(ErrCodeNoItinerariesInRange, "no itineraries within the requested window")
}

func Planner(message string, cause error) *AppError {
	if message == "" {
		message = "trip planner request failed"
	}
	return Wrap(ErrCodePlanner, message, cause)
}

func InvalidEvent(reason string) *AppError {
	return New(ErrCodeInvalidEvent, fmt.Sprintf("invalid event: %s", reason))
}

func NotFound(resource string) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource))
}

func Forbidden(message string) *AppError {
	return New(ErrCodeForbidden, message)
}

func RateLimitExceeded() *AppError {
	return New(ErrCodeRateLimitExceeded, "Rate limit exceeded")
}

func Internal(message string) *AppError {
	return New(ErrCodeInternal, message)
}

func Database(cause error) *AppError {
	return Wrap(ErrCodeDatabase, "Database error", cause)
}

func External(service string, cause error) *AppError {
	return Wrap(ErrCodeExternal, fmt.Sprintf("External service error: %s", service), cause)
}

// IsAppError checks if an error is an AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// GetCode returns the error code if the error is an AppError, otherwise returns ErrCodeInternal
func GetCode(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code ErrorCode) bool {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code == code
	}
	return false
}
