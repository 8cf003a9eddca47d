// Package parse converts the tool's power profile data into gzipped CSV.
//
// A profile data file starts with one or more "# " header lines; the last one
// carries the column labels (-ykeylabel) and the axis units (-xlabel,
// -ylabel). Each data line is a time stamp followed by one power value per
// column. Frame boundaries come from the start/end time files written by
// dump_frame_info next to the report stem, in seconds.
//
// Times are normalised to integer nanoseconds and power to milliwatts.
package parse
