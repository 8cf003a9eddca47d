package stage

import (
	"bytes"
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"
)

// Parse decodes a YAML flow definition. Unknown keys are rejected.
func Parse(data []byte) (*Definition, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var d Definition
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("stage: parsing flow definition: %w", err)
	}
	return &d, nil
}

// Load reads and validates a flow definition file.
func Load(path string) (*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("stage: reading %s: %w", path, err)
	}
	d, err := Parse(data)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// Marshal encodes a definition back to YAML.
func Marshal(d *Definition) ([]byte, error) {
	return yaml.Marshal(d)
}
