package sniff

import "errors"

// ClassificationError signals that the artifact header could not be read for
// a reason other than the file being absent or too short. It is distinct
// from "not a GGUF file", which Classify reports without error.
type ClassificationError struct {
	Path string
	Err  error
}

func (e *ClassificationError) Error() string {
	return "failed to determine whether the model is a GGUF format: " + e.Path + ": " + e.Err.Error()
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// IsClassificationError reports whether err is a ClassificationError.
func IsClassificationError(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}
