// Package executor runs one executable unit: it renders the unit's commands,
// submits them to the tool service as a single batch and folds the
// per-command outcomes into an ExecutionResult.
//
// The first failing command ends the unit. Its diagnostic is carried verbatim
// and every later command counts as aborted. Results hold no wall-clock data,
// so identical inputs and outcomes give identical results.
package executor
