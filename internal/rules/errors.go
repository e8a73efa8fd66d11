package rules

import (
	"errors"
	"fmt"
)

// ErrConfig marks every rule or settings problem found at load time.
var ErrConfig = errors.New("invalid configuration")

// ConfigError locates a configuration problem.
type ConfigError struct {
	Err  error
	Path string // e.g. stages[1-1].objects[0x4C]
}

// Error implements error.
func (e *ConfigError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("%v: %v", ErrConfig, e.Err)
	}

	return fmt.Sprintf("%v: %s: %v", ErrConfig, e.Path, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ConfigError) Unwrap() error { return e.Err }

// Is matches ErrConfig.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// configErr builds a ConfigError with a formatted cause.
func configErr(path, format string, args ...any) error {
	return &ConfigError{Path: path, Err: fmt.Errorf(format, args...)}
}
