package emit

import "strings"

// Command is one primitive tool command.
type Command struct {
	// Stage is the stage the command belongs to; empty for unit prologue
	// and epilogue commands.
	Stage string   `json:"stage,omitempty"`
	Verb  string   `json:"verb"`
	Args  []string `json:"args,omitempty"`
	// Output is the file the command writes, if any.
	Output string `json:"output,omitempty"`
	// Redirect writes stdout to Output instead of passing -out.
	Redirect bool `json:"redirect,omitempty"`
}

// Render returns the command as one Tcl line.
func (c Command) Render() string {
	var b strings.Builder
	b.WriteString(c.Verb)
	for _, a := range c.Args {
		if a == "" {
			continue
		}
		b.WriteByte(' ')
		b.WriteString(a)
	}
	if c.Output != "" {
		if c.Redirect {
			b.WriteString(" > ")
		} else {
			b.WriteString(" -out ")
		}
		b.WriteString(word(c.Output))
	}
	return b.String()
}

// Render renders every command.
func Render(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Render()
	}
	return out
}

// word quotes s as a single Tcl word when it holds special characters.
func word(s string) string {
	if s == "" {
		return "{}"
	}
	if !strings.ContainsAny(s, " \t\n;$[]\"{}\\") {
		return s
	}
	return "{" + s + "}"
}

func words(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = word(s)
	}
	return out
}

func flag(name, value string) string {
	if value == "" {
		return ""
	}
	return name + " " + value
}

func cmd(stageName, verb string, args ...string) Command {
	return Command{Stage: stageName, Verb: verb, Args: args}
}
