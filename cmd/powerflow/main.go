// Command powerflow drives a power analysis tool through the staged
// init_design, synthesize_design, read_stimulus, compute_power, report_power
// flow, fusing stages the tool cannot checkpoint between invocations.
package main

import (
	"fmt"
	"os"

	"github.com/kbukum/powerflow/errors"
	"github.com/kbukum/powerflow/version"
)

// Exit codes.
const (
	exitOK     = 0
	exitFailed = 1
	exitConfig = 2
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "powerflow:", err)
		os.Exit(exitCode(err))
	}
}

// exitCode separates bad configuration from failed runs.
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.HasCode(err, errors.ErrCodeConfiguration):
		return exitConfig
	default:
		return exitFailed
	}
}

func versionString(configured string) string {
	if configured != "" {
		return configured
	}
	return version.Short()
}
