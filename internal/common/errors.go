package common

import (
	"errors"
	"fmt"
)

// NetworkError is returned when a remote endpoint could not be reached or
// answered a fetch with a non-success status.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: unexpected status %d", e.Op, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// DecodeError is returned when bytes cannot be read as an image.
type DecodeError struct {
	Source string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("failed to decode image: %v", e.Err)
	}
	return fmt.Sprintf("failed to decode image from %s: %v", e.Source, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// UploadError carries the status and body of a rejected storage write.
type UploadError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload of %s failed: %d - %s", e.Path, e.StatusCode, e.Body)
}

// DatabaseError wraps connection and statement failures of the record update.
type DatabaseError struct {
	Op  string
	Err error
}

func (e *DatabaseError) Error() string {
	return fmt.Sprintf("database %s failed: %v", e.Op, e.Err)
}

func (e *DatabaseError) Unwrap() error {
	return e.Err
}

// ErrorKind names the kind of a pipeline error for log output.
func ErrorKind(err error) string {
	var networkErr *NetworkError
	var decodeErr *DecodeError
	var uploadErr *UploadError
	var databaseErr *DatabaseError

	switch {
	case err == nil:
		return ""
	case errors.As(err, &uploadErr):
		return "upload"
	case errors.As(err, &databaseErr):
		return "database"
	case errors.As(err, &decodeErr):
		return "decode"
	case errors.As(err, &networkErr):
		return "network"
	default:
		return "unknown"
	}
}
