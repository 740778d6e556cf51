// Package utils provides small, dependency-free helpers shared by the
// paperback core: contextual error wrapping and overflow-checked
// arithmetic for page and stream geometry.
package utils

import "fmt"

// CodecError is a structured error carrying the stage that failed plus the
// underlying cause. core.DecodeBlock wraps superblock-parsing errors
// through WrapError so callers can Unwrap down to the root cause without
// string matching; other packages wrap with fmt.Errorf.
type CodecError struct {
	Context string
	Cause   error
}

// Error implements the error interface.
func (e *CodecError) Error() string {
	return fmt.Sprintf("%s: %v", e.Context, e.Cause)
}

// Unwrap provides compatibility with errors.Is/errors.As.
func (e *CodecError) Unwrap() error {
	return e.Cause
}

// WrapError creates a contextual error, or returns nil if cause is nil.
func WrapError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return &CodecError{Context: context, Cause: cause}
}
