package scenario

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Load reads and validates the scenario document at path. Unknown YAML keys
// fail the load, so a typoed field is an error rather than a silently
// default-seeded fight. Script entries resolve relative to the file's
// directory.
//
// Postcondition: the returned scenario has passed Validate.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scenario: reading %s: %w", filepath.Base(path), err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("scenario: parsing %s: %w", filepath.Base(path), err)
	}
	s.dir = filepath.Dir(path)
	return s, nil
}

// Parse decodes a scenario document strictly and validates it. Scripts in a
// parsed-from-bytes scenario resolve relative to the working directory.
func Parse(data []byte) (*Scenario, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var s Scenario
	if err := dec.Decode(&s); err != nil {
		return nil, err
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}
