// Package emit translates stages, resolved report specs and unit boundaries
// into the tool's Tcl command syntax.
//
// Emission is pure: the same definition, unit and inputs always give the same
// commands. A command that needs an artifact which cannot be provided fails
// with an emission error before anything is submitted to the tool.
package emit
