// Package flow is the flow controller. It validates a flow definition and its
// inputs, partitions stages into executable units, orders the units, plans
// every unit's commands up front and then executes the units one at a time.
//
// The first failed unit stops the flow. Every unit not yet run is skipped;
// units that depend on a unit which did not succeed carry a
// DependencyUnmet error. Before a unit runs, each artifact it consumes from
// another unit must be recorded in the artifact store as successfully
// produced.
package flow
