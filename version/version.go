package version

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime/debug"
	"strings"
	"time"
)

// Set at build time using -ldflags.
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is the build identity reported by the CLI and written into run logs.
type Info struct {
	Version   string    `json:"version"`
	GitCommit string    `json:"git_commit,omitempty"`
	BuildDate time.Time `json:"build_date,omitzero"`
	GoVersion string    `json:"go_version"`
	Dirty     bool      `json:"dirty,omitempty"`
}

// Get returns the build identity. Stamped values win over VCS settings.
func Get() Info {
	info := Info{Version: Version, GitCommit: GitCommit}
	if t, err := time.Parse(time.RFC3339, BuildTime); err == nil {
		info.BuildDate = t
	}

	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return info
	}
	info.GoVersion = bi.GoVersion
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if info.GitCommit == "" {
				info.GitCommit = s.Value
			}
		case "vcs.modified":
			info.Dirty = s.Value == "true"
		case "vcs.time":
			if info.BuildDate.IsZero() {
				if t, err := time.Parse(time.RFC3339, s.Value); err == nil {
					info.BuildDate = t
				}
			}
		}
	}
	return info
}

// IsRelease reports whether the build carries a stamped, clean version.
func (i Info) IsRelease() bool {
	return i.Version != "dev" && !i.Dirty && !strings.Contains(i.Version, "dirty")
}

// String is version[-commit][-dirty], the form used in logs and spans.
func (i Info) String() string {
	parts := []string{i.Version}
	if i.GitCommit != "" {
		c := i.GitCommit
		if len(c) > 7 {
			c = c[:7]
		}
		parts = append(parts, c)
	}
	if i.Dirty {
		parts = append(parts, "dirty")
	}
	return strings.Join(parts, "-")
}

// Write prints the identity as text, or as JSON when asJSON is set.
func (i Info) Write(w io.Writer, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(i)
	}
	line := "powerflow " + i.String()
	if !i.BuildDate.IsZero() {
		line += " (built " + i.BuildDate.UTC().Format(time.RFC3339) + ")"
	}
	if i.GoVersion != "" {
		line += " " + i.GoVersion
	}
	_, err := fmt.Fprintln(w, line)
	return err
}

// Short is Get().String().
func Short() string { return Get().String() }
