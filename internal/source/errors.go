package source

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a source does not exist.
var ErrNotFound = errors.New("source not found")

// ErrTooLarge is returned when a source exceeds MaxSize.
var ErrTooLarge = errors.New("source too large")

// MaxSize bounds the bytes read for a single source.
const MaxSize = 8 << 20

// StatusError reports a non-2xx HTTP response.
type StatusError struct {
	URL    string
	Status int
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: unexpected status %d", e.URL, e.Status)
}

// Is reports 404 responses as ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.Status == 404
}
