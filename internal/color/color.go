// Package color wraps report text in ANSI escape sequences.
//
//nolint:revive // package name conflicts with standard library
package color

// ANSI color codes
const (
	resetCode  = "\033[0m"
	boldCode   = "\033[1m"
	grayCode   = "\033[90m"
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	cyanCode   = "\033[36m"
)

// Color wraps text with an ANSI escape sequence.
type Color func(text string) string

// NewColor creates a color function with the specified ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		return ansiCode + text + resetCode
	}
}

// plain returns text unchanged.
func plain(text string) string {
	return text
}

// Predefined color functions
var (
	Bold   = NewColor(boldCode)
	Gray   = NewColor(grayCode)
	Green  = NewColor(greenCode)
	Yellow = NewColor(yellowCode)
	Red    = NewColor(redCode)
	Cyan   = NewColor(cyanCode)
)

// Palette assigns a color to each role in a privcheck report.
type Palette struct {
	// Violation marks violation headings and the offending frame.
	Violation Color

	// Warning marks warning headings and the offending frame.
	Warning Color

	// Privileged marks privileged functions.
	Privileged Color

	// Unprivileged marks unprivileged functions.
	Unprivileged Color

	// Elevated marks elevated call edges.
	Elevated Color

	// Muted marks addresses and tree connectors.
	Muted Color

	// OK marks the "nothing found" lines.
	OK Color
}

// NewPalette returns the report palette. When enabled is false every role
// returns its input unchanged.
func NewPalette(enabled bool) Palette {
	if !enabled {
		return Palette{
			Violation:    plain,
			Warning:      plain,
			Privileged:   plain,
			Unprivileged: plain,
			Elevated:     plain,
			Muted:        plain,
			OK:           plain,
		}
	}
	return Palette{
		Violation:    Red,
		Warning:      Yellow,
		Privileged:   Red,
		Unprivileged: Green,
		Elevated:     Cyan,
		Muted:        Gray,
		OK:           Green,
	}
}
