package logging

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// GenerateRunID returns a new ULID identifying one privcheck run. ULIDs sort
// by creation time, so log files and reports of successive runs list in order.
func GenerateRunID() string {
	return ulid.Make().String()
}

// ParseLevel converts "debug", "info", "warn" or "error" (any case) to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLevel, s)
	}
	return level, nil
}

// LogFilename returns the JSON log file path for a run:
// <dir>/<hostname>_<timestamp>_<runID>.json.
func LogFilename(dir, runID string, now time.Time) string {
	hostname, err := os.Hostname()
	if err != nil || hostname == "" {
		hostname = "unknown"
	}
	return filepath.Join(dir, fmt.Sprintf("%s_%s_%s.json", hostname, now.UTC().Format("20060102T150405Z"), runID))
}
