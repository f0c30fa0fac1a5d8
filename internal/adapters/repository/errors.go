package repository

import (
	"errors"
	"fmt"
)

// Sentinel kinds for repository errors.
var (
	ErrNotFound        = errors.New("not found")
	ErrDataUnavailable = errors.New("data unavailable")
	ErrInvalidRecord   = errors.New("invalid record")
)

// DataUnavailableError reports a fetch or write that timed out or lost its
// connection. Callers may retry it.
type DataUnavailableError struct {
	Op  string
	Err error
}

func (e *DataUnavailableError) Error() string {
	return fmt.Sprintf("%s: data unavailable: %v", e.Op, e.Err)
}

func (e *DataUnavailableError) Unwrap() error { return e.Err }

// Is matches ErrDataUnavailable.
func (e *DataUnavailableError) Is(target error) bool { return target == ErrDataUnavailable }
