package errors

import (
	"fmt"
	"strings"
)

// AppError is the unified application error type.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Retryable indicates if the operation can be retried.
	Retryable bool `json:"retryable"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is matches another AppError by code, so errors.Is(err, &AppError{Code: c}) works.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code && (t.Message == "" || t.Message == e.Message)
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError with automatic retryable detection.
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Retryable: IsRetryableCode(code),
	}
}

// --- Flow taxonomy constructors ---

// Configuration creates an error for an unrecognized or malformed configuration field.
func Configuration(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	msg := reason
	if field != "" {
		msg = fmt.Sprintf("%s: %s", field, reason)
	}
	return &AppError{
		Code: ErrCodeConfiguration, Message: msg, Details: details,
	}
}

// ConfigurationFields creates a single configuration error from several field problems.
func ConfigurationFields(fields []FieldProblem) *AppError {
	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Field + ": " + f.Message
	}
	return &AppError{
		Code: ErrCodeConfiguration, Message: strings.Join(messages, "; "),
		Details: map[string]any{"fields": fields},
	}
}

// FieldProblem identifies one offending configuration field.
type FieldProblem struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Emission creates an error for a command that needs an artifact that is not available.
func Emission(stage, artifact, reason string) *AppError {
	msg := fmt.Sprintf("stage %s: %s", stage, reason)
	details := map[string]any{"stage": stage}
	if artifact != "" {
		msg = fmt.Sprintf("stage %s: artifact %s: %s", stage, artifact, reason)
		details["artifact"] = artifact
	}
	return &AppError{Code: ErrCodeEmission, Message: msg, Details: details}
}

// ToolExecution creates an error carrying the service's diagnostic text verbatim.
func ToolExecution(unit string, command int, diagnostic string) *AppError {
	return &AppError{
		Code:    ErrCodeToolExecution,
		Message: diagnostic,
		Details: map[string]any{"unit": unit, "command": command},
	}
}

// DependencyUnmet creates an error for a unit whose required artifact is
// missing. An empty artifact means an ordering-only dependency on upstream.
func DependencyUnmet(unit, artifact, upstream string) *AppError {
	details := map[string]any{"unit": unit}
	var msg string
	switch {
	case artifact == "":
		msg = fmt.Sprintf("unit %s: upstream %s did not succeed", unit, upstream)
	case upstream == "":
		msg = fmt.Sprintf("unit %s: required artifact %s is not available", unit, artifact)
	default:
		msg = fmt.Sprintf("unit %s: required artifact %s is not available (upstream %s did not succeed)", unit, artifact, upstream)
	}
	if artifact != "" {
		details["artifact"] = artifact
	}
	if upstream != "" {
		details["upstream"] = upstream
	}
	return &AppError{Code: ErrCodeDependencyUnmet, Message: msg, Details: details}
}

// --- Generic constructors ---

// InvalidInput creates a new AppError for invalid input.
func InvalidInput(field, reason string) *AppError {
	details := make(map[string]any)
	if field != "" {
		details["field"] = field
	}
	return &AppError{
		Code: ErrCodeInvalidInput, Message: fmt.Sprintf("Invalid input: %s", reason), Details: details,
	}
}

// Validation creates a new AppError for struct validation errors.
func Validation(message string) *AppError {
	return &AppError{Code: ErrCodeInvalidInput, Message: message}
}

// NotFound creates a new AppError for a resource that was not found.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource), Details: details,
	}
}

// Timeout creates a new AppError for an operation that timed out.
func Timeout(operation string) *AppError {
	return &AppError{
		Code: ErrCodeTimeout, Message: fmt.Sprintf("%s timed out", operation),
		Details: map[string]any{"operation": operation},
	}
}

// ServiceUnavailable creates a new AppError for a tool that could not be started.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("%s is unavailable", service),
		Retryable: true, Details: map[string]any{"service": service},
	}
}

// Internal creates a new AppError for an internal error.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred", Cause: cause,
	}
}
