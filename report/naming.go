package report

import (
	"fmt"
	"strings"
)

const (
	phStem   = "stem"
	phKind   = "kind"
	phFormat = "format"
	phExt    = "ext"
)

var placeholders = []string{phStem, phKind, phFormat, phExt}

// template is a parsed naming convention.
type template struct {
	parts []part
}

type part struct {
	literal     string
	placeholder string
}

// parseTemplate splits a naming template into literals and placeholders.
func parseTemplate(s string) (*template, error) {
	t := &template{}
	for s != "" {
		open := strings.IndexByte(s, '{')
		if open < 0 {
			if strings.IndexByte(s, '}') >= 0 {
				return nil, fmt.Errorf("unbalanced '}' in %q", s)
			}
			t.parts = append(t.parts, part{literal: s})
			break
		}
		if strings.IndexByte(s[:open], '}') >= 0 {
			return nil, fmt.Errorf("unbalanced '}' in %q", s)
		}
		if open > 0 {
			t.parts = append(t.parts, part{literal: s[:open]})
		}
		end := strings.IndexByte(s[open:], '}')
		if end < 0 {
			return nil, fmt.Errorf("unterminated placeholder in %q", s)
		}
		name := s[open+1 : open+end]
		if !isPlaceholder(name) {
			return nil, fmt.Errorf("unknown placeholder {%s} (must be one of: %s)", name, strings.Join(placeholders, ", "))
		}
		t.parts = append(t.parts, part{placeholder: name})
		s = s[open+end+1:]
	}
	return t, nil
}

func isPlaceholder(name string) bool {
	for _, p := range placeholders {
		if p == name {
			return true
		}
	}
	return false
}

func (t *template) expand(stem string, e Entry, f Format) string {
	var b strings.Builder
	for _, p := range t.parts {
		switch p.placeholder {
		case "":
			b.WriteString(p.literal)
		case phStem:
			b.WriteString(stem)
		case phKind:
			b.WriteString(e.Label)
		case phFormat:
			b.WriteString(string(f))
		case phExt:
			b.WriteString(extension(f))
		}
	}
	return b.String()
}

func extension(f Format) string {
	if f == FormatFSDB {
		return "fsdb"
	}
	return string(f)
}
