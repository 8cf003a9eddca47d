package parse

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
)

const (
	headerPrefix   = "# "
	categoryPrefix = "__cat_"
	// CategoryTotal is used for labels without a category part.
	CategoryTotal = "total"
)

// Column identifies one power series of a profile.
type Column struct {
	Hier      string
	Category  string
	PowerType string
}

// Label is the column header used in the CSV output.
func (c Column) Label() string {
	return c.Hier + ":" + c.Category + ":" + c.PowerType
}

// Row is one profile sample. Power values are in mW, in column order.
type Row struct {
	TimeNs  int64
	StartNs int64
	EndNs   int64
	Power   []float64
}

// Profile is a parsed power profile.
type Profile struct {
	Columns []Column
	Rows    []Row
}

// ErrIncomplete is returned for a data file without header or samples, which
// is what the tool leaves behind when it is interrupted.
var ErrIncomplete = errors.New("parse: incomplete profile data")

// FramePrefix is the frame info prefix belonging to a profile data path:
// everything before ".profile.".
func FramePrefix(dataPath string) string {
	if i := strings.Index(dataPath, ".profile."); i >= 0 {
		return dataPath[:i]
	}
	return strings.TrimSuffix(dataPath, filepath.Ext(dataPath))
}

// ReadProfile parses a profile data file and its frame time files.
func ReadProfile(dataPath, framePrefix string) (*Profile, error) {
	f, err := os.Open(dataPath)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	defer f.Close()

	p, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("parse: %s: %w", dataPath, err)
	}
	starts, err := readFrameTimes(framePrefix + ".frames.start_times.txt")
	if err != nil {
		return nil, err
	}
	ends, err := readFrameTimes(framePrefix + ".frames.end_times.txt")
	if err != nil {
		return nil, err
	}
	if len(starts) != len(p.Rows) || len(ends) != len(p.Rows) {
		return nil, fmt.Errorf("parse: %s: %d samples but %d start and %d end frame times",
			dataPath, len(p.Rows), len(starts), len(ends))
	}
	for i := range p.Rows {
		p.Rows[i].StartNs = starts[i]
		p.Rows[i].EndNs = ends[i]
	}
	return p, nil
}

// decode reads the header and samples. Lines whose field count does not
// match the header are ignored.
func decode(r io.Reader) (*Profile, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)

	var header string
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if len(lines) == 0 && strings.HasPrefix(line, headerPrefix) {
			header = line
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if header == "" || len(lines) == 0 {
		return nil, ErrIncomplete
	}

	h, err := parseHeader(header)
	if err != nil {
		return nil, err
	}
	timeScale, err := scale(h.timeUnit, "ns", "s")
	if err != nil {
		return nil, err
	}
	powerScale, err := scale(h.powerUnit, "mW", "W")
	if err != nil {
		return nil, err
	}

	p := &Profile{Columns: h.columns}
	for n, line := range lines {
		fields := strings.Fields(line)
		if len(fields) != len(h.columns)+1 {
			continue
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: time: %w", n+1, err)
		}
		row := Row{TimeNs: int64(math.Round(t * timeScale)), Power: make([]float64, len(h.columns))}
		for i, s := range fields[1:] {
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: column %d: %w", n+1, i+1, err)
			}
			row.Power[i] = v * powerScale
		}
		p.Rows = append(p.Rows, row)
	}
	if len(p.Rows) == 0 {
		return nil, ErrIncomplete
	}
	return p, nil
}

type header struct {
	columns   []Column
	timeUnit  string
	powerUnit string
}

func parseHeader(line string) (header, error) {
	var h header
	for _, field := range strings.Split(line, " -") {
		switch {
		case strings.HasPrefix(field, "ykeylabel "):
			for _, label := range strings.Fields(field)[1:] {
				h.columns = append(h.columns, parseLabel(label))
			}
		case strings.HasPrefix(field, "xlabel") && h.timeUnit == "":
			h.timeUnit = parenthesised(field)
		case strings.HasPrefix(field, "ylabel") && h.powerUnit == "":
			h.powerUnit = parenthesised(field)
		}
	}
	switch {
	case len(h.columns) == 0:
		return h, fmt.Errorf("header has no -ykeylabel columns")
	case h.timeUnit == "":
		return h, fmt.Errorf("header has no -xlabel unit")
	case h.powerUnit == "":
		return h, fmt.Errorf("header has no -ylabel unit")
	}
	return h, nil
}

// parseLabel splits hier[:__cat_category]:type.
func parseLabel(label string) Column {
	parts := strings.Split(label, ":")
	c := Column{Hier: parts[0], Category: CategoryTotal, PowerType: parts[len(parts)-1]}
	if len(parts) == 3 {
		c.Category = strings.TrimPrefix(parts[1], categoryPrefix)
	}
	return c
}

func parenthesised(s string) string {
	open := strings.Index(s, "(")
	end := strings.Index(s, ")")
	if open < 0 || end < open {
		return ""
	}
	return s[open+1 : end]
}

// readFrameTimes reads whitespace separated times in seconds as nanoseconds.
func readFrameTimes(path string) ([]int64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	fields := strings.Fields(string(data))
	out := make([]int64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return nil, fmt.Errorf("parse: %s: entry %d: %w", path, i+1, err)
		}
		out[i] = int64(math.Round(v * 1e9))
	}
	return out, nil
}

// WriteCSV writes the profile with a single header row:
// time_ns,start_ns,end_ns followed by one hier:category:type label per column.
func (p *Profile) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	head := []string{"time_ns", "start_ns", "end_ns"}
	for _, c := range p.Columns {
		head = append(head, c.Label())
	}
	if err := cw.Write(head); err != nil {
		return err
	}
	rec := make([]string, len(head))
	for _, r := range p.Rows {
		rec[0] = strconv.FormatInt(r.TimeNs, 10)
		rec[1] = strconv.FormatInt(r.StartNs, 10)
		rec[2] = strconv.FormatInt(r.EndNs, 10)
		for i, v := range r.Power {
			rec[3+i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVGzip writes the gzipped CSV to path, creating parent directories.
func (p *Profile) WriteCSVGzip(path string) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if err := p.WriteCSV(zw); err != nil {
		return fmt.Errorf("parse: encoding %s: %w", path, err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("parse: compressing %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	return nil
}
