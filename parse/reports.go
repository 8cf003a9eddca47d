package parse

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/kbukum/powerflow/emit"
	"github.com/kbukum/powerflow/logger"
	"github.com/kbukum/powerflow/report"
)

// ParsedDir is the directory, next to the data file, receiving the CSVs.
const ParsedDir = "parsed"

// Target is one profile data file to convert.
type Target struct {
	Alias       string
	Data        string
	FramePrefix string
	Out         string
}

// Targets lists the profile data files the resolved reports will produce.
// Relative paths are taken from baseDir, the tool's working directory.
func Targets(in *emit.Inputs, baseDir string) []Target {
	if in == nil {
		return nil
	}
	var out []Target
	for _, set := range in.Reports {
		for _, s := range set.Specs {
			if s.Kind != report.KindProfile || s.Format != report.FormatFSDB {
				continue
			}
			data := resolve(baseDir, s.Destination+".data")
			out = append(out, Target{
				Alias:       set.Alias,
				Data:        data,
				FramePrefix: resolve(baseDir, set.Stem),
				Out:         OutputPath(data),
			})
		}
	}
	return out
}

// OutputPath is parsed/<name>.csv.gz next to the data file.
func OutputPath(data string) string {
	return filepath.Join(filepath.Dir(data), ParsedDir, filepath.Base(data)+".csv.gz")
}

func resolve(baseDir, p string) string {
	if filepath.IsAbs(p) || baseDir == "" {
		return p
	}
	return filepath.Join(baseDir, p)
}

// Result reports what happened to one target.
type Result struct {
	Target  Target
	Rows    int
	Skipped bool
	Err     error
}

// Run converts every target. Missing data files are skipped with a warning;
// a broken file does not stop the remaining targets.
func Run(targets []Target, log *logger.Logger) []Result {
	if log == nil {
		log = logger.Nop()
	}
	results := make([]Result, 0, len(targets))
	for _, t := range targets {
		res := Result{Target: t}
		fields := logger.Fields("alias", t.Alias, "path", t.Data)
		if _, err := os.Stat(t.Data); err != nil {
			res.Skipped = true
			log.Warn("profile data does not exist", fields)
			results = append(results, res)
			continue
		}
		p, err := ReadProfile(t.Data, t.FramePrefix)
		if err == nil {
			err = p.WriteCSVGzip(t.Out)
		}
		if err != nil {
			res.Err = err
			if errors.Is(err, ErrIncomplete) {
				log.Warn("profile data is incomplete", fields)
			} else {
				log.Error("profile parsing failed", logger.MergeWithError(fields, err))
			}
			results = append(results, res)
			continue
		}
		res.Rows = len(p.Rows)
		log.Info("profile parsed", logger.Fields("alias", t.Alias, "path", t.Data, "out", t.Out, "rows", res.Rows))
		results = append(results, res)
	}
	return results
}
