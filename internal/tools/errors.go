package tools

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName     = errors.New("tool name cannot be empty")
	ErrDuplicateTool = errors.New("tool already registered")
	ErrUnknownTool   = errors.New("tool not found")
)

// ValidationError reports one argument that failed the declarative spec.
// Param is empty for object-level failures.
type ValidationError struct {
	Param  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Param == "" {
		return fmt.Sprintf("invalid arguments: %s", e.Reason)
	}
	return fmt.Sprintf("invalid arguments: parameter %q: %s", e.Param, e.Reason)
}

func invalidParam(name, reason string) *ValidationError {
	return &ValidationError{Param: name, Reason: reason}
}
