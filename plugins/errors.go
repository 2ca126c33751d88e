package plugins

import "fmt"

// ExecutionError is returned when a plugin fails or panics.
type ExecutionError struct {
	Plugin string
	Err    error
}

func (e *ExecutionError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("plugin %q failed: %v", e.Plugin, e.Err)
}

// Unwrap exposes the underlying error.
func (e *ExecutionError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
