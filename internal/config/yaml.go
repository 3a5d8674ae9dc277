package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	yaml "go.yaml.in/yaml/v3"
)

// decodeStrict parses a single YAML document into Config. Unknown keys are
// rejected so a typoed field fails loudly instead of silently falling back
// to a default lead-time list.
func decodeStrict(b []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("config file is empty")
		}
		return nil, fmt.Errorf("parse config: %w", err)
	}
	// A second document means the file was mangled, e.g. by a bad merge.
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return nil, errors.New("config has trailing documents")
	}
	return &cfg, nil
}
