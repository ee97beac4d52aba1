package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Error kinds. Callers match them with errors.Is.
var (
	ErrValidation     = errors.New("validation failed")
	ErrReference      = errors.New("dangling reference")
	ErrNotFound       = errors.New("not found")
	ErrNotInitialized = errors.New("catalog not initialized")
	ErrPersistence    = errors.New("persistence failure")
)

// ValidationError collects every problem found in one input.
type ValidationError struct {
	Problems []string
}

// NewValidationError folds errs into a single ValidationError.
// It returns nil when errs is empty.
func NewValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	problems := make([]string, 0, len(errs))
	for _, e := range errs {
		problems = append(problems, e.Error())
	}
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("%s: %s", ErrValidation, e.Problems[0])
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%d problems):", ErrValidation, len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFoundError builds an ErrNotFound for the given entity kind and id.
func NotFoundError(entity, id string) error {
	return fmt.Errorf("%s %q: %w", entity, id, ErrNotFound)
}

// ReferenceError builds an ErrReference for a foreign key that does not resolve.
func ReferenceError(field, id string) error {
	return fmt.Errorf("%s %q does not exist: %w", field, id, ErrReference)
}

// PersistenceError wraps a backend failure as ErrPersistence.
func PersistenceError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrPersistence, err)
}

// Kind returns a short machine-readable name for the error's kind.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrReference):
		return "reference"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrNotInitialized):
		return "not_initialized"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	default:
		return "internal"
	}
}
