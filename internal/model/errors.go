package model

import (
	"errors"
	"fmt"
)

// Common errors used across the application
var (
	// Board errors
	ErrBoardNotFound    = errors.New("board not found")
	ErrCorruptBoard     = errors.New("corrupt board")
	ErrSnapshotNotFound = errors.New("board snapshot not found")
	ErrNoUndoSnapshot   = errors.New("no shuffle to undo")

	// Access errors
	ErrPermissionDenied = errors.New("admin access required")

	// History errors
	ErrDropNotFound = errors.New("drop not found")
	ErrRankNotFound = errors.New("rank snapshot not found")

	// ErrValidation is matched by every ValidationError
	ErrValidation = errors.New("validation failed")
)

// ValidationError reports bad caller input for a named field
type ValidationError struct {
	Field   string
	Message string
}

// NewValidationError creates a ValidationError
func NewValidationError(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Is lets errors.Is(err, ErrValidation) match any ValidationError
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
