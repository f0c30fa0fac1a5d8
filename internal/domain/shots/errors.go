package shots

import (
	"errors"
	"fmt"
)

// ErrValidation is matched by every *ValidationError.
var ErrValidation = errors.New("shot validation failed")

// ValidationError names the offending shot, hole and field. Hole is 0 when
// the hole number itself could not be trusted.
type ValidationError struct {
	Index  int    `json:"index"`
	Hole   int    `json:"hole"`
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("shot %d (hole %d): %s: %s", e.Index, e.Hole, e.Field, e.Reason)
}

// Is matches ErrValidation.
func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
