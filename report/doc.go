// Package report expands a declarative report configuration into the ordered
// list of concrete report specs (kind, format, destination) that the command
// emitter turns into tool commands.
//
// Resolution is a pure function: every problem in the configuration is
// collected into one configuration error and nothing is returned on error.
//
//	specs, err := report.Resolve(report.Config{
//	    Dir:     "reports",
//	    Formats: []string{"csv", "json"},
//	    Kinds:   []report.KindRequest{{Kind: "timing"}, {Kind: "power"}},
//	})
package report
