package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrLockContention  = errors.New("lock contention")
	ErrPathUnavailable = errors.New("path unavailable")
	ErrClassification  = errors.New("classification error")
	ErrValidation      = errors.New("validation error")
	ErrNotFound        = errors.New("not found")
	ErrStorage         = errors.New("storage error")
	ErrConfiguration   = errors.New("configuration error")
	ErrCancelled       = errors.New("cancelled")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStorage
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether an error should abort the current invocation rather
// than be recovered locally.
func Fatal(err error) bool {
	switch {
	case errors.Is(err, ErrLockContention), errors.Is(err, ErrStorage):
		return true
	default:
		return false
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
