// Package main provides the privcheck command. It audits an ELF binary for
// calls that cross into privileged code without going through the elevation
// primitive.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/isseis/go-privsep-analyzer/internal/audit"
	"github.com/isseis/go-privsep-analyzer/internal/config"
	"github.com/isseis/go-privsep-analyzer/internal/logging"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
	"github.com/isseis/go-privsep-analyzer/internal/terminal"
)

// Exit codes
const (
	exitClean      = 0
	exitViolations = 1
	exitError      = 2
)

const outputFilePermission = 0o600

var (
	errNoBinary             = errors.New("an ELF file must be provided as the first positional argument")
	errTooManyArgs          = errors.New("too many positional arguments")
	errBaselineRequired     = errors.New("-update-baseline requires -baseline")
	errConflictingColorFlag = errors.New("-color and -no-color are mutually exclusive")
)

type options struct {
	binary string
	root   string

	configPath string
	strategy   string
	logLevel   string
	logDir     string

	tree     bool
	warnings bool
	json     bool
	output   string

	baselinePath   string
	updateBaseline bool

	color   bool
	noColor bool
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	opts, fs, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitClean
		}
		printUsage(fs, stderr)
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	cfg, err := loadConfig(opts)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}

	level, err := logging.ParseLevel(cfg.Logging.Level)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	logger, err := logging.Setup(logging.Options{
		Level:        level,
		LogDir:       cfg.Logging.Dir,
		Console:      stderr,
		Capabilities: capabilitiesFor(stderr, opts),
	})
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: failed to set up logging: %v\n", err)
		return exitError
	}
	defer func() { _ = logger.Close() }()
	slog.SetDefault(logger.Logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	code, err := runAudit(ctx, opts, cfg, logger.RunID, stdout)
	if err != nil {
		slog.Error("audit failed", slog.String("binary", opts.binary), slog.Any("error", err))
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitError
	}
	return code
}

func parseArgs(args []string, stderr io.Writer) (*options, *flag.FlagSet, error) {
	opts := &options{}

	fs := flag.NewFlagSet("privcheck", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(fs, stderr) }
	fs.StringVar(&opts.configPath, "config", "", "Path to a TOML configuration file")
	fs.StringVar(&opts.root, "root", "", "Only report paths starting at roots whose name contains this string")
	fs.StringVar(&opts.strategy, "strategy", "", "Traversal strategy: single-visit or exhaustive (overrides config)")
	fs.BoolVar(&opts.tree, "tree", false, "Print the call tree of every root")
	fs.BoolVar(&opts.warnings, "warnings", false, "Also print privileged-to-privileged warnings")
	fs.BoolVar(&opts.json, "json", false, "Write the report as JSON")
	fs.StringVar(&opts.output, "output", "", "Write the report to this file instead of standard output")
	fs.StringVar(&opts.baselinePath, "baseline", "", "Baseline file of accepted findings")
	fs.BoolVar(&opts.updateBaseline, "update-baseline", false, "Accept every current finding into the baseline file")
	fs.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn or error (overrides config)")
	fs.StringVar(&opts.logDir, "log-dir", "", "Directory for the JSON log file (overrides config)")
	fs.BoolVar(&opts.color, "color", false, "Force colored output")
	fs.BoolVar(&opts.noColor, "no-color", false, "Disable colored output")

	if err := fs.Parse(args); err != nil {
		return nil, fs, err
	}

	rest := fs.Args()
	switch {
	case len(rest) == 0:
		return nil, fs, errNoBinary
	case len(rest) > 2:
		return nil, fs, fmt.Errorf("%w: %v", errTooManyArgs, rest[2:])
	}
	opts.binary = rest[0]
	if len(rest) == 2 && opts.root == "" {
		opts.root = rest[1]
	}

	if opts.updateBaseline && opts.baselinePath == "" {
		return nil, fs, errBaselineRequired
	}
	if opts.color && opts.noColor {
		return nil, fs, errConflictingColorFlag
	}
	return opts, fs, nil
}

func printUsage(fs *flag.FlagSet, w io.Writer) {
	if fs == nil {
		return
	}
	_, _ = fmt.Fprintf(w, "Usage: %s [flags] <file.elf> [<root_function>]\n", filepath.Base(os.Args[0]))
	fs.PrintDefaults()
}

// loadConfig reads the configuration file and applies command line overrides.
func loadConfig(opts *options) (*config.Config, error) {
	cfg, err := config.NewLoader().LoadConfig(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.strategy != "" {
		cfg.Analysis.Strategy = opts.strategy
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.logDir != "" {
		cfg.Logging.Dir = opts.logDir
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// capabilitiesFor inspects w when it is a file. Other writers are treated as
// non-interactive and colored only on request.
func capabilitiesFor(w io.Writer, opts *options) terminal.Capabilities {
	f, ok := w.(*os.File)
	if !ok {
		return terminal.Fixed{Color: opts.color}
	}
	return terminal.Detect(terminal.Options{
		ForceColor:   opts.color,
		DisableColor: opts.noColor,
		Output:       f,
	})
}

// runAudit runs the audit and writes the report. The root filter restricts
// the report only; the baseline and the returned code see every finding.
func runAudit(ctx context.Context, opts *options, cfg *config.Config, runID string, stdout io.Writer) (int, error) {
	auditOpts, err := audit.OptionsFromConfig(cfg)
	if err != nil {
		return exitError, err
	}
	rep, err := audit.New(auditOpts).Audit(ctx, opts.binary)
	if err != nil {
		return exitError, err
	}

	fresh, accepted, err := applyBaseline(opts, rep, runID, rep.Result.Findings)
	if err != nil {
		return exitError, err
	}

	out := stdout
	if opts.output != "" {
		f, err := os.OpenFile(opts.output, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, outputFilePermission) //nolint:gosec // path is operator supplied
		if err != nil {
			return exitError, fmt.Errorf("failed to open output file: %w", err)
		}
		defer func() {
			if closeErr := f.Close(); closeErr != nil {
				slog.Warn("error closing output file", slog.String("path", opts.output), slog.Any("error", closeErr))
			}
		}()
		out = f
	}

	shown := fresh.FilterByRoot(opts.root)
	if err := writeReport(out, opts, rep, runID, shown, accepted.FilterByRoot(opts.root)); err != nil {
		return exitError, err
	}
	if hidden := len(fresh.Violations) - len(shown.Violations); hidden > 0 {
		slog.Warn("violations outside the selected root are not reported",
			slog.String("root", opts.root),
			slog.Int("violations", hidden))
	}

	if fresh.HasViolations() {
		return exitViolations, nil
	}
	return exitClean, nil
}

func countFindings(f privilege.Findings) int {
	return len(f.Violations) + len(f.Warnings)
}
