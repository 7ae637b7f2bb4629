package oai

import (
	"errors"
	"fmt"
)

// ConnectionError wraps a transport-level failure reaching the API, e.g.
// connection refused while the worker is still binding its socket.
type ConnectionError struct {
	APIBase string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("cannot reach API at %s: %v", e.APIBase, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsConnectionError reports whether err is a transport-level failure that a
// readiness prober may retry.
func IsConnectionError(err error) bool {
	var ce *ConnectionError
	return errors.As(err, &ce)
}

// StatusError reports a non-2xx HTTP response from the API.
type StatusError struct {
	APIBase    string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("API at %s returned status %d: %s", e.APIBase, e.StatusCode, e.Body)
}
