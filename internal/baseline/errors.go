// Package baseline stores the findings of a binary that were reviewed and
// accepted, so that later runs only fail on new violations.
package baseline

import (
	"errors"
	"fmt"
)

// Static errors
var (
	// ErrRecordNotFound indicates the baseline file does not exist.
	ErrRecordNotFound = errors.New("baseline file not found")

	// ErrNotRegularFile indicates the baseline path is not a regular file.
	ErrNotRegularFile = errors.New("baseline path is not a regular file")
)

// SchemaVersionMismatchError indicates baseline schema version mismatch.
type SchemaVersionMismatchError struct {
	Expected int
	Actual   int
}

func (e *SchemaVersionMismatchError) Error() string {
	return fmt.Sprintf("schema version mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// RecordCorruptedError indicates the baseline file cannot be decoded.
type RecordCorruptedError struct {
	Path  string
	Cause error
}

func (e *RecordCorruptedError) Error() string {
	return fmt.Sprintf("baseline file corrupted at %s: %v", e.Path, e.Cause)
}

func (e *RecordCorruptedError) Unwrap() error {
	return e.Cause
}
