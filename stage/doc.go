// Package stage defines the flow data model: stages, the artifacts they
// produce and require, their fusion classification, and flow definitions.
//
// A Definition is built once (from YAML or from Canonical) and validated;
// after that every Stage is treated as read-only by the rest of the module.
package stage
