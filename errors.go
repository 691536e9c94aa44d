package sqlbridge

import (
	"errors"
	"fmt"
	"strings"
)

// Standard sentinel errors for common operations.
var (
	// ErrExecFailed is returned when the driver reports a failed execution.
	// Typed execution errors wrap the driver's own message and match this
	// sentinel through errors.Is.
	ErrExecFailed = errors.New("sqlbridge: database execution failed")

	// ErrAlreadyCompiled is returned when a statement builder is mutated
	// after its first successful compile.
	ErrAlreadyCompiled = errors.New("sqlbridge: statement already compiled")

	// ErrUnsupportedDialect is returned when a dialect name does not map to
	// any known function translator.
	ErrUnsupportedDialect = errors.New("sqlbridge: unsupported dialect")
)

// BindError represents a parameter that could not be bound to a prepared
// statement. It is recoverable: bind methods report it as a false return
// and record the message for later inspection.
type BindError struct {
	param  string
	reason string
}

// Error returns the error string.
func (e *BindError) Error() string {
	return fmt.Sprintf("sqlbridge: cannot bind parameter %q: %s", e.param, e.reason)
}

// Param returns the parameter identifier that failed to bind.
func (e *BindError) Param() string {
	return e.param
}

// NewBindError returns a new BindError for the given parameter.
func NewBindError(param, reason string) *BindError {
	return &BindError{param: param, reason: reason}
}

// IsBindError returns true if the error is a BindError.
func IsBindError(err error) bool {
	if err == nil {
		return false
	}
	var e *BindError
	return errors.As(err, &e)
}

// ExecError represents a failed statement execution. Every driver-level
// failure is normalized into this single condition; callers never see the
// raw driver error type except through Unwrap.
type ExecError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e *ExecError) Error() string {
	if e.msg != "" {
		return fmt.Sprintf("sqlbridge: database execution failed: %s", e.msg)
	}
	return "sqlbridge: database execution failed"
}

// Is reports whether the target error matches ExecError.
// This allows errors.Is(execErr, ErrExecFailed) to return true.
func (e *ExecError) Is(err error) bool {
	return err == ErrExecFailed
}

// Unwrap returns the original driver error, if any.
func (e *ExecError) Unwrap() error {
	return e.wrap
}

// NewExecError returns a new ExecError carrying the driver's message and,
// where available, the original cause.
func NewExecError(msg string, wrap error) *ExecError {
	return &ExecError{msg: msg, wrap: wrap}
}

// IsExecError returns true if the error is an ExecError.
func IsExecError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecError
	return errors.As(err, &e) || errors.Is(err, ErrExecFailed)
}

// ConstraintError represents a database constraint violation error.
type ConstraintError struct {
	msg  string
	wrap error
}

// Error returns the error string.
func (e ConstraintError) Error() string {
	return fmt.Sprintf("sqlbridge: constraint failed: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e ConstraintError) Unwrap() error {
	return e.wrap
}

// NewConstraintError returns a new ConstraintError with the given message.
func NewConstraintError(msg string, wrap error) error {
	return ConstraintError{msg: msg, wrap: wrap}
}

// IsConstraintError returns true if the error is a ConstraintError.
func IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	var e ConstraintError
	return errors.As(err, &e)
}

// CapabilityError represents a dialect-specific feature requested from a
// backend that does not provide it (JSON extraction, full-text search,
// duplicate-skipping inserts, and so on).
type CapabilityError struct {
	Dialect string // Backend that was asked
	Feature string // Feature it lacks
}

// Error returns the error string.
func (e *CapabilityError) Error() string {
	return fmt.Sprintf("sqlbridge: dialect %s does not support %s", e.Dialect, e.Feature)
}

// NewCapabilityError returns a new CapabilityError.
func NewCapabilityError(dialect, feature string) *CapabilityError {
	return &CapabilityError{Dialect: dialect, Feature: feature}
}

// IsCapabilityError returns true if the error is a CapabilityError.
func IsCapabilityError(err error) bool {
	if err == nil {
		return false
	}
	var e *CapabilityError
	return errors.As(err, &e)
}

// ValidationError represents a malformed statement configuration that was
// upgraded to a hard failure, such as a batch row whose column set differs
// from the first row's.
type ValidationError struct {
	Name string // Part of the statement that failed validation
	Err  error  // Underlying validation error
}

// Error returns the error string.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("sqlbridge: validation failed for %s: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError returns a new ValidationError for the given statement part.
func NewValidationError(name string, err error) *ValidationError {
	return &ValidationError{Name: name, Err: err}
}

// IsValidationError returns true if the error is a ValidationError.
func IsValidationError(err error) bool {
	if err == nil {
		return false
	}
	var e *ValidationError
	return errors.As(err, &e)
}

// AggregateError represents multiple errors collected during an operation.
type AggregateError struct {
	Errors []error
}

// Error returns the error string.
func (e *AggregateError) Error() string {
	if len(e.Errors) == 0 {
		return "sqlbridge: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	sb.WriteString("sqlbridge: multiple errors:")
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "\n  [%d] %v", i+1, err)
	}
	return sb.String()
}

// Unwrap returns the collected errors, so errors.Is and errors.As
// match through the aggregate.
func (e *AggregateError) Unwrap() []error {
	return e.Errors
}

// NewAggregateError returns a new AggregateError if there are errors,
// otherwise returns nil.
func NewAggregateError(errs ...error) error {
	var filtered []error
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	if len(filtered) == 0 {
		return nil
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &AggregateError{Errors: filtered}
}
