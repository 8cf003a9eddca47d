// Package fusion decides which stages must run inside one tool invocation.
//
// The tool cannot reload some of the session state it persists. Which
// (producing stage, artifact kind) pairs are affected is data: a versioned
// limitation Table. Partition fuses a consumer with its producer whenever it
// requires an artifact the table marks non-reloadable, or when a stage
// declares it must fuse with another. A tool fix is expressed by shrinking
// the table.
package fusion
