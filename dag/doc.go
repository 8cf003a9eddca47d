// Package dag provides the deterministic graph primitives used to schedule
// flow units: topological ordering with declaration-order tie breaking,
// dependency levels, reachability, and the per-unit execution state machine.
//
// Graphs are plain name/edge declarations; the package has no knowledge of
// stages or artifacts, so the same primitives order both individual stages
// and fused executable units.
package dag
