// Package errors provides the structured error type shared by every powerflow
// package. Each AppError carries a machine-readable code from the flow error
// taxonomy (configuration, emission, tool execution, unmet dependency) plus
// field-level details and an optional cause.
package errors
