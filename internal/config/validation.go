package config

import (
	"fmt"
	"strings"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

// validLogLevels are the accepted logging.level values.
var validLogLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks a configuration after defaults are applied.
func Validate(cfg *Config) error {
	if err := validateSections("sections.privileged", cfg.Sections.Privileged); err != nil {
		return err
	}
	if err := validateSections("sections.executable", cfg.Sections.Executable); err != nil {
		return err
	}
	if len(cfg.Sections.Executable) == 0 {
		return ErrNoExecutableSections
	}

	if callgraph.SimplifyName(cfg.Elevation.Elevate) == callgraph.SimplifyName(cfg.Elevation.Lower) {
		return fmt.Errorf("%w: %q", ErrSamePrimitive, cfg.Elevation.Elevate)
	}

	if _, err := privilege.ParseStrategy(cfg.Analysis.Strategy); err != nil {
		return fmt.Errorf("analysis.strategy: %w", err)
	}

	if _, ok := validLogLevels[strings.ToLower(cfg.Logging.Level)]; !ok {
		return fmt.Errorf("%w: %q (expected debug, info, warn or error)", ErrInvalidLogLevel, cfg.Logging.Level)
	}
	return nil
}

func validateSections(field string, names []string) error {
	for i, n := range names {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("%s[%d]: %w", field, i, ErrEmptySectionName)
		}
	}
	return nil
}
