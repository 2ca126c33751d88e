package design

import (
	"fmt"
)

// LookupError is returned when a theme path does not exist.
type LookupError struct {
	Path string
}

func (e *LookupError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("theme value %q does not exist", e.Path)
}

// ConfigError reports a problem with design configuration file.
type ConfigError struct {
	File    string
	Key     string
	Message string
	Err     error
}

func (e *ConfigError) Error() string {
	if e == nil {
		return ""
	}
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	where := e.File
	if where == "" {
		where = "<design>"
	}
	if e.Key != "" {
		return fmt.Sprintf("design config error: %s: %s: %s", where, e.Key, msg)
	}
	return fmt.Sprintf("design config error: %s: %s", where, msg)
}

// Unwrap exposes the underlying error.
func (e *ConfigError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
