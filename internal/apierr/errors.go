// Package apierr defines the small, closed set of error kinds that travel
// through the gateway: bad caller input, environment/deployment problems,
// and upstream API failures. Every other package returns one of these
// (or a plain wrapped error, treated as the generic case) instead of
// inventing its own error type.
package apierr

import (
	"errors"
	"fmt"
)

// UserInputError indicates the caller supplied bad input — malformed query
// syntax, a missing required parameter, an invalid sort expression. Never
// logged to telemetry; surfaced to the agent verbatim.
type UserInputError struct {
	Message string
}

func (e *UserInputError) Error() string { return e.Message }

// NewUserInputError constructs a UserInputError with a formatted message.
func NewUserInputError(format string, args ...interface{}) *UserInputError {
	return &UserInputError{Message: fmt.Sprintf(format, args...)}
}

// ConfigurationError indicates an environmental or deployment problem: DNS
// failures, a missing auth token, the embedded agent not configured.
// Logged at warn level.
type ConfigurationError struct {
	Message string
	Cause   error
}

func (e *ConfigurationError) Error() string { return e.Message }

func (e *ConfigurationError) Unwrap() error { return e.Cause }

// NewConfigurationError constructs a ConfigurationError, optionally
// wrapping a cause for debugging (never shown to the caller).
func NewConfigurationError(message string, cause error) *ConfigurationError {
	return &ConfigurationError{Message: message, Cause: cause}
}

// ApiError represents a 4xx/5xx response from the upstream.
type ApiError struct {
	Status  int
	Message string
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("API request failed: %d %s", e.Status, e.Message)
}

// NewApiError constructs an ApiError.
func NewApiError(status int, message string) *ApiError {
	return &ApiError{Status: status, Message: message}
}

// IsRetryable reports whether the upstream failure is the kind of
// transient error a caller might retry (5xx or a configuration error).
func IsRetryable(err error) bool {
	var apiErr *ApiError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= 500
	}
	var cfgErr *ConfigurationError
	return errors.As(err, &cfgErr)
}
