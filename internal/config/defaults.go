package config

import (
	"slices"

	"github.com/isseis/go-privsep-analyzer/internal/elfsym"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

// Default values for configuration fields
const (
	DefaultStrategy       = string(privilege.StrategySingleVisit)
	DefaultIncludeOrphans = true
	DefaultLogLevel       = "info"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills in unset fields.
func ApplyDefaults(cfg *Config) {
	if cfg.Sections.Privileged == nil {
		cfg.Sections.Privileged = slices.Clone(elfsym.DefaultPrivilegedSections)
	}
	if cfg.Sections.Executable == nil {
		cfg.Sections.Executable = slices.Clone(elfsym.DefaultExecutableSections)
	}
	if cfg.Elevation.Elevate == "" {
		cfg.Elevation.Elevate = privilege.DefaultElevateSymbol
	}
	if cfg.Elevation.Lower == "" {
		cfg.Elevation.Lower = privilege.DefaultLowerSymbol
	}
	if cfg.Elevation.ExemptPrefixes == nil {
		cfg.Elevation.ExemptPrefixes = []string{privilege.DefaultExemptPrefix}
	}
	if cfg.Analysis.Strategy == "" {
		cfg.Analysis.Strategy = DefaultStrategy
	}
	if cfg.Analysis.IncludeOrphans == nil {
		v := DefaultIncludeOrphans
		cfg.Analysis.IncludeOrphans = &v
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
}
