package odm

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnexpectedHTTPStatus indicates an unexpected HTTP status code was received.
	ErrUnexpectedHTTPStatus = errors.New("unexpected HTTP status")
	// ErrUnexpectedContentRange indicates that a partial response does not start where it was asked to.
	ErrUnexpectedContentRange = errors.New("unexpected content range")
	// ErrLicenseTooLarge indicates that the license response exceeds the size limit.
	ErrLicenseTooLarge = errors.New("license response is too large")
)

// StatusError carries the HTTP status of a rejected request.
type StatusError struct {
	// StatusCode is the HTTP status code returned by the server.
	StatusCode int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: %d %s", ErrUnexpectedHTTPStatus, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap allows errors.Is(err, ErrUnexpectedHTTPStatus).
func (e *StatusError) Unwrap() error {
	return ErrUnexpectedHTTPStatus
}

// StatusCodeOf returns the HTTP status carried by err, or 0 if err has none.
func StatusCodeOf(err error) int {
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}

	return 0
}
