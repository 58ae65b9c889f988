package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/isseis/go-privsep-analyzer/internal/terminal"
)

// SchemaVersion is the version of the JSON log record layout.
const SchemaVersion = 1

// Options configures Setup.
type Options struct {
	Level slog.Level

	// RunID identifies the run in every JSON record. Empty generates one.
	RunID string

	// LogDir enables the JSON log file when non-empty.
	LogDir string

	// Console is the console destination. Nil means os.Stderr.
	Console io.Writer

	// Capabilities describes the console. Nil means a non-interactive console.
	Capabilities terminal.Capabilities

	// Now is the clock used for the log file name. Nil means time.Now.
	Now func() time.Time
}

// Logger is a configured process logger.
type Logger struct {
	*slog.Logger

	RunID   string
	LogPath string

	file *os.File
}

// Setup builds the process logger. It does not install it as the slog
// default; callers do that with slog.SetDefault.
func Setup(opts Options) (*Logger, error) {
	runID := opts.RunID
	if runID == "" {
		runID = GenerateRunID()
	}
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	caps := opts.Capabilities
	if caps == nil {
		caps = terminal.Fixed{}
	}

	consoleHandler, err := NewConsoleHandler(ConsoleHandlerOptions{
		Level:        opts.Level,
		Writer:       console,
		Capabilities: caps,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create console handler: %w", err)
	}
	handlers := []slog.Handler{consoleHandler}

	l := &Logger{RunID: runID}
	if opts.LogDir != "" {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		l.LogPath = LogFilename(opts.LogDir, runID, now())
		l.file, err = OpenLogFile(l.LogPath)
		if err != nil {
			return nil, err
		}

		hostname, _ := os.Hostname()
		jsonHandler := slog.NewJSONHandler(l.file, &slog.HandlerOptions{Level: opts.Level}).WithAttrs([]slog.Attr{
			slog.String("hostname", hostname),
			slog.Int("pid", os.Getpid()),
			slog.Int("schema_version", SchemaVersion),
			slog.String("run_id", runID),
		})
		handlers = append(handlers, jsonHandler)
	}

	multi, err := NewMultiHandler(handlers...)
	if err != nil {
		_ = l.Close()
		return nil, fmt.Errorf("failed to create multi handler: %w", err)
	}
	l.Logger = slog.New(multi)
	return l, nil
}

// Close closes the JSON log file, if any.
func (l *Logger) Close() error {
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
