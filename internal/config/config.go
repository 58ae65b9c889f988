// Package config loads the privcheck TOML configuration.
//
// Every field is optional. Missing values are filled in by ApplyDefaults, and
// the result is checked by Validate. Unknown keys are rejected so that a
// misspelled section name cannot silently disable a privileged section.
package config

// Config is the top-level configuration file.
type Config struct {
	Sections  SectionsSpec  `toml:"sections"`
	Elevation ElevationSpec `toml:"elevation"`
	Analysis  AnalysisSpec  `toml:"analysis"`
	Logging   LoggingSpec   `toml:"logging"`
}

// SectionsSpec classifies ELF sections by normalized name.
type SectionsSpec struct {
	// Privileged lists sections whose code runs with privilege.
	Privileged []string `toml:"privileged"`

	// Executable lists sections whose functions are analyzed.
	Executable []string `toml:"executable"`
}

// ElevationSpec names the dynamic elevation primitives.
type ElevationSpec struct {
	Elevate string `toml:"elevate"`
	Lower   string `toml:"lower"`

	// ExemptPrefixes are caller name prefixes never reported as warnings.
	ExemptPrefixes []string `toml:"exempt_prefixes"`
}

// AnalysisSpec controls the traversal.
type AnalysisSpec struct {
	// Strategy is "single-visit" or "exhaustive".
	Strategy string `toml:"strategy"`

	// IncludeOrphans enables traversal from functions no root reaches.
	// Nil means the default (true).
	IncludeOrphans *bool `toml:"include_orphans"`
}

// LoggingSpec controls the process logger.
type LoggingSpec struct {
	Level string `toml:"level"`

	// Dir enables the JSON log file when non-empty.
	Dir string `toml:"dir"`
}

// OrphansEnabled reports whether the orphan traversal is enabled.
func (a AnalysisSpec) OrphansEnabled() bool {
	return a.IncludeOrphans == nil || *a.IncludeOrphans
}
