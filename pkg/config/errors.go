package config

import (
	"errors"
	"fmt"
)

// ErrMissing marks a required input that was not provided.
var ErrMissing = errors.New("is required")

// ConfigError reports an invalid or missing input. Input is the
// environment variable name when the problem is tied to one.
type ConfigError struct {
	Input string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Input == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}
	return fmt.Sprintf("invalid input %s: %v", e.Input, e.Err)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Err
}

func invalid(input, format string, args ...any) *ConfigError {
	return &ConfigError{Input: input, Err: fmt.Errorf(format, args...)}
}
