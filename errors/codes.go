package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Flow taxonomy
const (
	// ErrCodeConfiguration indicates malformed or unrecognized flow or report configuration.
	ErrCodeConfiguration ErrorCode = "CONFIGURATION_ERROR"
	// ErrCodeEmission indicates resolved specs reference artifacts that are not available.
	ErrCodeEmission ErrorCode = "EMISSION_ERROR"
	// ErrCodeToolExecution indicates the command-executing service reported a failure.
	ErrCodeToolExecution ErrorCode = "TOOL_EXECUTION_ERROR"
	// ErrCodeDependencyUnmet indicates a required artifact is missing because upstream did not succeed.
	ErrCodeDependencyUnmet ErrorCode = "DEPENDENCY_UNMET"
)

// Generic errors
const (
	// ErrCodeInvalidInput indicates the input is invalid.
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrCodeNotFound indicates the requested resource was not found.
	ErrCodeNotFound ErrorCode = "NOT_FOUND"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
	// ErrCodeServiceUnavailable indicates the tool could not be launched.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeInternal indicates an internal error.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// Only launch-level failures are retryable; a tool session that already
// executed commands is never replayed.
var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
	ErrCodeTimeout:            false,
	ErrCodeToolExecution:      false,
}

// IsRetryableCode returns true if the error code indicates a retryable error.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
