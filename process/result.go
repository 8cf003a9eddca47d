package process

import (
	"errors"
	"time"
)

// Result holds the output and status of a completed subprocess.
type Result struct {
	// Stdout is the captured standard output.
	Stdout []byte
	// Stderr is the captured standard error.
	Stderr []byte
	// ExitCode is the process exit code. -1 if the process was killed or never started.
	ExitCode int
	// Duration is how long the process ran.
	Duration time.Duration
	// TimedOut is set when the context deadline ended the process.
	TimedOut bool
}

// ErrNotStarted wraps failures to launch the binary at all.
var ErrNotStarted = errors.New("process: not started")

// Started reports whether err left the process unlaunched.
func Started(err error) bool {
	return !errors.Is(err, ErrNotStarted)
}
