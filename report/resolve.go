package report

import (
	"fmt"
	"path/filepath"

	"github.com/kbukum/powerflow/validation"
)

// FieldPrefix roots field paths in configuration errors.
const FieldPrefix = "reports"

// Resolve expands cfg into specs using cfg.Stem.
func Resolve(cfg Config) ([]Spec, error) {
	return ResolveStem(cfg, cfg.Stem)
}

// ResolveStem expands cfg into specs, naming destinations after stem.
// Kinds are expanded in declaration order, each against its own formats or
// the shared default formats; duplicate (kind, format) pairs keep their first
// occurrence.
func ResolveStem(cfg Config, stem string) ([]Spec, error) {
	v := validation.New()
	field := func(format string, args ...any) string {
		return FieldPrefix + "." + fmt.Sprintf(format, args...)
	}

	if stem == "" {
		stem = DefaultStem
	}
	naming := cfg.Naming
	if naming == "" {
		naming = DefaultNaming
	}
	tmpl, err := parseTemplate(naming)
	if err != nil {
		v.AddError(field("naming"), err.Error())
	}

	for i, f := range cfg.Formats {
		if !isFormat(f) {
			v.OneOf(field("formats[%d]", i), f, formatNames(Formats))
		}
	}
	if len(cfg.Kinds) == 0 {
		v.AddError(field("kinds"), "at least one report kind is required")
	}

	var specs []Spec
	seen := make(map[Key]bool)
	for i, req := range cfg.Kinds {
		kf := field("kinds[%d]", i)
		if req.Kind == "" {
			v.AddError(kf+".kind", "is required")
			continue
		}
		entry, ok := Lookup(Kind(req.Kind))
		if !ok {
			v.OneOf(kf+".kind", req.Kind, kindNames())
			continue
		}
		if entry.Kind == KindCustom {
			v.Required(kf+".command", req.Command)
		}

		formats, formatsField := req.Formats, kf+".formats"
		if len(formats) == 0 {
			formats, formatsField = cfg.Formats, field("formats")
		}
		if len(formats) == 0 {
			v.AddError(kf+".formats", "no output formats requested")
			continue
		}
		for j, f := range formats {
			ff := fmt.Sprintf("%s[%d]", formatsField, j)
			if !isFormat(f) {
				if len(req.Formats) > 0 {
					v.OneOf(ff, f, formatNames(Formats))
				}
				continue
			}
			format := Format(f)
			if !entry.Supports(format) {
				v.AddError(ff, fmt.Sprintf("format %q is not supported by kind %q (supported: %v)",
					f, req.Kind, formatNames(entry.Formats)))
				continue
			}
			key := Key{Kind: entry.Kind, Format: format}
			if seen[key] {
				continue
			}
			seen[key] = true
			if tmpl == nil {
				continue
			}
			specs = append(specs, Spec{
				Kind:        entry.Kind,
				Format:      format,
				Destination: destination(cfg.Dir, tmpl.expand(stem, entry, format)),
				Stem:        destination(cfg.Dir, stem),
				Options:     req.options(),
			})
		}
	}

	if tmpl != nil && !v.HasErrors() {
		checkCollisions(v, field("naming"), specs)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return specs, nil
}

func checkCollisions(v *validation.Validator, f string, specs []Spec) {
	owners := make(map[string]Key, len(specs))
	for _, s := range specs {
		if prev, dup := owners[s.Destination]; dup {
			v.AddError(f, fmt.Sprintf("%s/%s and %s/%s both resolve to %s",
				prev.Kind, prev.Format, s.Kind, s.Format, s.Destination))
			continue
		}
		owners[s.Destination] = s.Key()
	}
}

func destination(dir, name string) string {
	if dir == "" || filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(dir, name)
}
