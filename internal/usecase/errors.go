package usecase

import (
	"errors"
	"fmt"

	"yamdb/internal/data/repository"
)

var (
	ErrNotFound                = errors.New("not found")
	ErrForbidden               = errors.New("you do not have permission to perform this action")
	ErrUnauthorized            = errors.New("authentication credentials were not provided")
	ErrInvalidConfirmationCode = errors.New("invalid confirmation code")
)

// ValidationError carries field-level messages for a rejected request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return "validation failed"
}

func newValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func fieldError(field, msg string) *ValidationError {
	return newValidationError(map[string]string{field: msg})
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

// writeFailed maps repository write errors onto service errors. A row that
// vanished after it was looked up reports as not found, and a reference to a
// row deleted in the meantime reports against the input field that named it.
func writeFailed(err error, what, op string) error {
	var refErr *repository.ReferenceError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return notFound(what)
	case errors.As(err, &refErr):
		return fieldError(refErr.Field, "Referenced "+refErr.Field+" no longer exists")
	default:
		return fmt.Errorf("failed to %s %s: %w", op, what, err)
	}
}
