// Package terminal decides whether privcheck output goes to an interactive
// terminal and whether it may be colored.
//
// Color is resolved in this order:
//  1. -color / -no-color flags
//  2. CLICOLOR_FORCE (truthy value forces color)
//  3. NO_COLOR (any value, even empty, disables color)
//  4. non-interactive output (pipe, file or CI) disables color
//  5. TERM must name a color-capable terminal
//  6. CLICOLOR, when set, must be truthy
package terminal

import (
	"os"

	"golang.org/x/term"
)

// Options configures capability detection.
type Options struct {
	ForceColor   bool
	DisableColor bool

	// ForceInteractive and ForceNonInteractive override terminal detection.
	ForceInteractive    bool
	ForceNonInteractive bool

	// Output is the file the report is written to. Nil means os.Stdout.
	Output *os.File
}

// Capabilities describes the output terminal.
type Capabilities interface {
	IsInteractive() bool
	SupportsColor() bool
}

// Detected is a Capabilities snapshot taken by Detect.
type Detected struct {
	interactive bool
	color       bool
	explicit    bool
}

// Detect inspects the environment and the output file once.
func Detect(opts Options) *Detected {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}

	d := &Detected{}
	switch {
	case opts.ForceInteractive:
		d.interactive = true
	case opts.ForceNonInteractive:
		d.interactive = false
	default:
		d.interactive = !isCIEnvironment() && term.IsTerminal(int(out.Fd())) //nolint:gosec // Fd fits in int on supported platforms
	}

	d.color, d.explicit = explicitColor(opts)
	if !d.explicit {
		d.color = d.interactive && termSupportsColor(os.Getenv("TERM")) && cliColorAllows()
	}
	return d
}

// IsInteractive implements Capabilities.
func (d *Detected) IsInteractive() bool {
	return d.interactive
}

// SupportsColor implements Capabilities.
func (d *Detected) SupportsColor() bool {
	return d.color
}

// HasExplicitColorPreference reports whether a flag or environment variable
// decided the color setting.
func (d *Detected) HasExplicitColorPreference() bool {
	return d.explicit
}

// Fixed is a Capabilities with preset answers.
type Fixed struct {
	Interactive bool
	Color       bool
}

// IsInteractive implements Capabilities.
func (f Fixed) IsInteractive() bool {
	return f.Interactive
}

// SupportsColor implements Capabilities.
func (f Fixed) SupportsColor() bool {
	return f.Color
}
