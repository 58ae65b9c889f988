package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// Loader loads configuration files.
type Loader struct {
	readFile func(string) ([]byte, error)
}

// NewLoader creates a new config loader
func NewLoader() *Loader {
	return &Loader{readFile: os.ReadFile}
}

// LoadConfig reads, parses and validates the file at path. An empty path
// yields the default configuration.
func (l *Loader) LoadConfig(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	content, err := l.readFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	return l.Parse(content)
}

// Parse parses and validates configuration content.
func (l *Loader) Parse(content []byte) (*Config, error) {
	var cfg Config
	dec := toml.NewDecoder(bytes.NewReader(content))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
