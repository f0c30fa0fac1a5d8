package baseline

import (
	"errors"
	"fmt"

	"github.com/okian/sgengine/internal/domain/types"
)

// Sentinel errors for this package. Typed errors below match them with errors.Is.
var (
	ErrModelNotFound   = errors.New("baseline model not found")
	ErrIncompleteModel = errors.New("baseline model incomplete")
	ErrInvalidCurve    = errors.New("invalid baseline curve")
	ErrInvalidParams   = errors.New("invalid baseline params")
	ErrUnknownKind     = errors.New("unknown curve kind")
)

// ModelNotFoundError is returned when no curve exists for the named model.
type ModelNotFoundError struct {
	Model string
}

func (e *ModelNotFoundError) Error() string {
	return fmt.Sprintf("baseline model %q not found", e.Model)
}

// Is matches ErrModelNotFound.
func (e *ModelNotFoundError) Is(target error) bool { return target == ErrModelNotFound }

// IncompleteModelError is returned when a curve required for Lie has no points.
type IncompleteModelError struct {
	Model string
	Lie   types.Lie
}

func (e *IncompleteModelError) Error() string {
	return fmt.Sprintf("baseline model %q has no points for lie %s", e.Model, e.Lie)
}

// Is matches ErrIncompleteModel.
func (e *IncompleteModelError) Is(target error) bool { return target == ErrIncompleteModel }
