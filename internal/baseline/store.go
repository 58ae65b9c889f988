package baseline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const (
	// filePermission is the permission mode for baseline files.
	filePermission = 0o600

	// dirPermission is the permission mode for a created baseline directory.
	dirPermission = 0o750
)

// Store reads and writes baseline files.
type Store struct {
	now func() time.Time
}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{now: time.Now}
}

// Load loads the baseline at path.
// Returns ErrRecordNotFound if the file does not exist.
func (s *Store) Load(path string) (*Record, error) {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrRecordNotFound
		}
		return nil, fmt.Errorf("failed to access baseline file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s", ErrNotRegularFile, path)
	}

	data, err := os.ReadFile(path) //nolint:gosec // path is operator supplied and checked above
	if err != nil {
		return nil, fmt.Errorf("failed to read baseline file: %w", err)
	}

	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, &RecordCorruptedError{Path: path, Cause: err}
	}

	if record.SchemaVersion != CurrentSchemaVersion {
		return nil, &SchemaVersionMismatchError{
			Expected: CurrentSchemaVersion,
			Actual:   record.SchemaVersion,
		}
	}

	return &record, nil
}

// Save writes record to path, replacing any existing file atomically.
func (s *Store) Save(path string, record *Record) error {
	record.SchemaVersion = CurrentSchemaVersion
	record.UpdatedAt = s.now().UTC()

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal baseline: %w", err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirPermission); err != nil {
		return fmt.Errorf("failed to create baseline directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".baseline-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temporary baseline file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write baseline file: %w", err)
	}
	if err := tmp.Chmod(filePermission); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to set baseline permissions: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close baseline file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace baseline file: %w", err)
	}
	return nil
}

// Update performs a read-modify-write of the baseline at path.
//
// Error Handling:
//   - ErrRecordNotFound: starts from an empty record
//   - RecordCorruptedError: starts from an empty record (overwriting corrupted data)
//   - SchemaVersionMismatchError: returns error without overwriting
func (s *Store) Update(path string, updateFn func(*Record) error) error {
	record, err := s.Load(path)
	if err != nil {
		if errors.As(err, new(*SchemaVersionMismatchError)) {
			return fmt.Errorf("cannot update baseline: %w", err)
		}
		if errors.Is(err, ErrRecordNotFound) || errors.As(err, new(*RecordCorruptedError)) {
			record = &Record{}
		} else {
			return fmt.Errorf("failed to load existing baseline: %w", err)
		}
	}

	if err := updateFn(record); err != nil {
		return err
	}
	return s.Save(path, record)
}
