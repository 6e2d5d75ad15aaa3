package errors

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Common error types used across the pool packages

var (
	// ErrClosed indicates that an operation was attempted on a closed resource
	ErrClosed = errors.New("resource is closed")

	// ErrTimeout indicates that an operation timed out
	ErrTimeout = errors.New("operation timed out")

	// ErrCapacityExceeded indicates that a capacity limit was exceeded
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrInvalidConfiguration indicates invalid configuration parameters
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrRateLimited indicates that a request was rate limited
	ErrRateLimited = errors.New("rate limited")

	// ErrSaturated indicates that a pool could not admit a task under its admission policy
	ErrSaturated = errors.New("pool saturated")

	// ErrPublishFailed indicates that a health snapshot could not be exported
	ErrPublishFailed = errors.New("publish failed")
)

// ValidationError describes a configuration value that failed validation.
type ValidationError struct {
	Module string
	Field  string
	Value  interface{}
	Reason string
	Hint   string
}

// NewValidationError creates a ValidationError without a hint.
func NewValidationError(module, field string, value interface{}, reason string) *ValidationError {
	return &ValidationError{
		Module: module,
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}

// WithHint attaches a remediation hint and returns the same error for chaining.
func (e *ValidationError) WithHint(hint string) *ValidationError {
	e.Hint = hint
	return e
}

func (e *ValidationError) Error() string {
	msg := fmt.Sprintf("%s: invalid %s=%v (%s)", e.Module, e.Field, e.Value, e.Reason)
	if e.Hint != "" {
		msg += " - " + e.Hint
	}
	return msg
}

// Unwrap makes every ValidationError match ErrInvalidConfiguration.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfiguration
}

// OperationError wraps a failure of a named operation within a module.
type OperationError struct {
	Module    string
	Operation string
	Cause     error
	Context   string
}

// NewOperationError creates an OperationError for module.operation caused by cause.
func NewOperationError(module, operation string, cause error) *OperationError {
	return &OperationError{
		Module:    module,
		Operation: operation,
		Cause:     cause,
	}
}

// WithContext attaches extra detail and returns the same error for chaining.
func (e *OperationError) WithContext(context string) *OperationError {
	e.Context = context
	return e
}

func (e *OperationError) Error() string {
	msg := fmt.Sprintf("%s.%s failed: %v", e.Module, e.Operation, e.Cause)
	if e.Context != "" {
		msg += " (" + e.Context + ")"
	}
	return msg
}

func (e *OperationError) Unwrap() error {
	return e.Cause
}

// ConfigError reports a setting whose name could not be resolved, such as an
// unknown admission policy or queue discipline.
type ConfigError struct {
	Setting string
	Value   string
	Known   []string
}

// NewConfigError creates a ConfigError listing the accepted values.
func NewConfigError(setting, value string, known ...string) *ConfigError {
	return &ConfigError{
		Setting: setting,
		Value:   value,
		Known:   known,
	}
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: unknown %s %q", e.Setting, e.Value)
	if len(e.Known) > 0 {
		msg += " (expected one of " + strings.Join(e.Known, ", ") + ")"
	}
	return msg
}

// Unwrap makes every ConfigError match ErrInvalidConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfiguration
}

// SaturationError is returned to a submitter whose task could not be admitted.
type SaturationError struct {
	Pool     string
	Policy   string
	QueueLen int
	Waited   time.Duration
}

func (e *SaturationError) Error() string {
	msg := fmt.Sprintf("pool %q saturated: task rejected by %s policy (queued=%d", e.Pool, e.Policy, e.QueueLen)
	if e.Waited > 0 {
		msg += fmt.Sprintf(", waited=%s", e.Waited)
	}
	return msg + ")"
}

// Unwrap makes every SaturationError match ErrSaturated.
func (e *SaturationError) Unwrap() error {
	return ErrSaturated
}

// PublishError wraps an exporter failure.
type PublishError struct {
	Exporter string
	Cause    error
}

// NewPublishError creates a PublishError for the named exporter.
func NewPublishError(exporter string, cause error) *PublishError {
	return &PublishError{Exporter: exporter, Cause: cause}
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("%s exporter: %v: %v", e.Exporter, ErrPublishFailed, e.Cause)
}

// Unwrap exposes both ErrPublishFailed and the underlying cause.
func (e *PublishError) Unwrap() []error {
	return []error{ErrPublishFailed, e.Cause}
}

// IsRetryable returns true if the error indicates a condition that might
// be resolved by retrying the operation
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrRateLimited) || errors.Is(err, ErrSaturated)
}

// IsTemporary returns true if the error indicates a temporary condition
func IsTemporary(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrCapacityExceeded) || errors.Is(err, ErrSaturated)
}

// IsValidationError reports whether err is or wraps a ValidationError.
func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cerr *ConfigError
	return errors.As(err, &cerr)
}

// IsSaturated reports whether err signals a saturated pool.
func IsSaturated(err error) bool {
	return errors.Is(err, ErrSaturated)
}
