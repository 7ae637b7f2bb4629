package backend

import "errors"

// UnsupportedBackendError signals that a backend name is unknown or that
// the backend cannot run on the host OS.
type UnsupportedBackendError struct {
	Backend string
	Message string
}

func (e *UnsupportedBackendError) Error() string { return e.Message }

// IsUnsupportedBackend reports whether err is an UnsupportedBackendError.
func IsUnsupportedBackend(err error) bool {
	var ue *UnsupportedBackendError
	return errors.As(err, &ue)
}
