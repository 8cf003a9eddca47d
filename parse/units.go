package parse

import (
	"fmt"
	"strings"
)

// SI prefixes relative to the base unit.
var prefixes = map[string]float64{
	"":  1,
	"k": 1e3,
	"m": 1e-3,
	"u": 1e-6,
	"µ": 1e-6,
	"n": 1e-9,
	"p": 1e-12,
	"f": 1e-15,
}

// scale returns the factor converting a value in unit into target. Both must
// share the base symbol (s or W).
func scale(unit, target, base string) (float64, error) {
	from, err := magnitude(unit, base)
	if err != nil {
		return 0, err
	}
	to, err := magnitude(target, base)
	if err != nil {
		return 0, err
	}
	return from / to, nil
}

func magnitude(unit, base string) (float64, error) {
	u := strings.TrimSpace(unit)
	if !strings.HasSuffix(u, base) {
		return 0, fmt.Errorf("unit %q is not a %s unit", unit, base)
	}
	m, ok := prefixes[strings.TrimSuffix(u, base)]
	if !ok {
		return 0, fmt.Errorf("unknown prefix in unit %q", unit)
	}
	return m, nil
}
