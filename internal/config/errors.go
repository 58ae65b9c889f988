package config

import "errors"

// Error definitions for the config package
var (
	// ErrEmptySectionName is returned when a section list contains an empty name.
	ErrEmptySectionName = errors.New("section name must not be empty")

	// ErrNoExecutableSections is returned when no section is marked executable.
	ErrNoExecutableSections = errors.New("at least one executable section is required")

	// ErrSamePrimitive is returned when elevate and lower name the same function.
	ErrSamePrimitive = errors.New("elevate and lower primitives must differ")

	// ErrInvalidLogLevel is returned for an unrecognized log level.
	ErrInvalidLogLevel = errors.New("invalid log level")
)
