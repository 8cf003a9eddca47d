package config

import (
	"encoding"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"

	"github.com/kbukum/powerflow/errors"
)

var textUnmarshaler = reflect.TypeFor[encoding.TextUnmarshaler]()

// UnknownKeys lists the keys of settings that no mapstructure field of t
// would decode, as dotted paths with list indexes: reports.kinds[0].fromats.
func UnknownKeys(settings map[string]any, t reflect.Type) []string {
	var out []string
	walkKeys("", settings, t, &out)
	return out
}

// checkKeys turns unknown keys into one configuration error.
func checkKeys(settings map[string]any, cfg any) error {
	unknown := UnknownKeys(settings, reflect.TypeOf(cfg))
	if len(unknown) == 0 {
		return nil
	}
	problems := make([]errors.FieldProblem, len(unknown))
	for i, k := range unknown {
		problems[i] = errors.FieldProblem{Field: k, Message: "unrecognized key"}
	}
	return errors.ConfigurationFields(problems)
}

func walkKeys(path string, value any, t reflect.Type, out *[]string) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if reflect.PointerTo(t).Implements(textUnmarshaler) {
		return
	}
	switch t.Kind() {
	case reflect.Struct:
		m, ok := value.(map[string]any)
		if !ok {
			return
		}
		fields := make(map[string]reflect.Type)
		collectFields(t, fields)
		for _, k := range sortedKeys(m) {
			ft, ok := fields[strings.ToLower(k)]
			if !ok {
				*out = append(*out, join(path, k))
				continue
			}
			walkKeys(join(path, k), m[k], ft, out)
		}
	case reflect.Slice, reflect.Array:
		items, ok := value.([]any)
		if !ok {
			return
		}
		for i, item := range items {
			walkKeys(fmt.Sprintf("%s[%d]", path, i), item, t.Elem(), out)
		}
	case reflect.Map:
		m, ok := value.(map[string]any)
		if !ok {
			return
		}
		for _, k := range sortedKeys(m) {
			walkKeys(join(path, k), m[k], t.Elem(), out)
		}
	}
}

// collectFields maps each decodable key of struct t to its field type,
// flattening squashed embeds.
func collectFields(t reflect.Type, fields map[string]reflect.Type) {
	for i := range t.NumField() {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		name, opts, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "-" {
			continue
		}
		if strings.Contains(opts, "squash") {
			ft := f.Type
			for ft.Kind() == reflect.Pointer {
				ft = ft.Elem()
			}
			if ft.Kind() == reflect.Struct {
				collectFields(ft, fields)
			}
			continue
		}
		if name == "" {
			name = f.Name
		}
		fields[strings.ToLower(name)] = f.Type
	}
}

func sortedKeys(m map[string]any) []string {
	return slices.Sorted(maps.Keys(m))
}

func join(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
