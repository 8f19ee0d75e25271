package webdav

import (
	"errors"
	"fmt"
)

// ErrTooManyRedirects is returned when a logical request is redirected
// more times than the configured hop limit allows. A server that
// redirects on every attempt would otherwise loop forever, since
// redirects do not consume the retry budget.
var ErrTooManyRedirects = errors.New("too many redirects")

// StatusError reports a non-redirect, non-multi-status HTTP response.
// It is retried like a transport failure: the status is remembered and
// escalates to the caller only after the retry budget is exhausted.
type StatusError struct {
	// StatusCode is the HTTP status code the server returned.
	StatusCode int

	// URL is the request URL that produced the status.
	URL string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// AsStatusError returns the *StatusError wrapped in err, or nil.
func AsStatusError(err error) *StatusError {
	var se *StatusError
	if errors.As(err, &se) {
		return se
	}
	return nil
}
