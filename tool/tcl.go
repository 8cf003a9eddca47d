package tool

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
)

// markerPrefix starts every status line the wrapper proc prints.
const markerPrefix = "@@powerflow "

// runnerProc wraps each command so the tool reports per-command status and
// stops at the first failure.
const runnerProc = `proc __powerflow_run {idx body} {
    if {[catch {uplevel #0 $body} msg]} {
        puts stdout "@@powerflow fail $idx [string map [list "\\" "\\\\" "\n" "\\n"] $msg]"
        flush stdout
        exit 1
    }
    puts stdout "@@powerflow ok $idx"
    flush stdout
}`

// Script renders the batch script for a submission.
func Script(sub Submission) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# powerflow unit %s", sub.Unit)
	if sub.RunID != "" {
		fmt.Fprintf(&b, " run %s", sub.RunID)
	}
	b.WriteString("\n")
	b.WriteString(runnerProc)
	b.WriteString("\n")
	for i, cmd := range sub.Commands {
		fmt.Fprintf(&b, "__powerflow_run %d %s\n", i, quote(cmd))
	}
	b.WriteString("exit 0\n")
	return b.String()
}

// quote makes s a single Tcl word. Braces keep the text verbatim when they
// balance; otherwise every special character is backslash escaped.
func quote(s string) string {
	if balanced(s) {
		return "{" + s + "}"
	}
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '\\', '{', '}', '[', ']', '$', '"', ';', ' ', '\t':
			b.WriteByte('\\')
			b.WriteRune(r)
		case '\n':
			b.WriteString(`\n`)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func balanced(s string) bool {
	if strings.HasSuffix(s, `\`) {
		return false
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '{':
			depth++
		case '}':
			depth--
			if depth < 0 {
				return false
			}
		}
	}
	return depth == 0
}

// ParseMarkers extracts command outcomes from tool stdout. Lines that are not
// markers are ignored; malformed markers are skipped.
func ParseMarkers(stdout []byte) []CommandOutcome {
	var results []CommandOutcome
	sc := bufio.NewScanner(bytes.NewReader(stdout))
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if !strings.HasPrefix(line, markerPrefix) {
			continue
		}
		fields := strings.SplitN(line[len(markerPrefix):], " ", 3)
		if len(fields) < 2 {
			continue
		}
		idx, err := strconv.Atoi(fields[1])
		if err != nil {
			continue
		}
		switch fields[0] {
		case "ok":
			results = append(results, CommandOutcome{Index: idx, OK: true})
		case "fail":
			msg := ""
			if len(fields) == 3 {
				msg = unescape(fields[2])
			}
			results = append(results, CommandOutcome{Index: idx, Diagnostic: msg})
		}
	}
	return results
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
