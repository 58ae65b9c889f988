package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/isseis/go-privsep-analyzer/internal/callgraph"
	"github.com/isseis/go-privsep-analyzer/internal/color"
	"github.com/isseis/go-privsep-analyzer/internal/privilege"
)

const (
	// Messages for empty finding lists.
	NoViolationsMessage = "[No privilege violations detected]"
	NoWarningsMessage   = "[No privilege warnings detected]"

	ruleWidth = 40
)

// TextWriter renders findings for a terminal or a text file.
// The first write error is kept and returned by every later call.
type TextWriter struct {
	w   io.Writer
	p   color.Palette
	err error
}

// NewTextWriter creates a TextWriter.
func NewTextWriter(w io.Writer, p color.Palette) *TextWriter {
	return &TextWriter{w: w, p: p}
}

func (t *TextWriter) printf(format string, args ...any) {
	if t.err != nil {
		return
	}
	_, t.err = fmt.Fprintf(t.w, format, args...)
}

// Violations writes one block per violation.
func (t *TextWriter) Violations(findings []privilege.Finding) error {
	if len(findings) == 0 {
		t.printf("%s\n", t.p.OK(NoViolationsMessage))
		return t.err
	}
	for i, f := range findings {
		t.block("Violation", i+1, t.p.Violation, f)
	}
	return t.err
}

// Warnings writes one block per warning.
func (t *TextWriter) Warnings(findings []privilege.Finding) error {
	if len(findings) == 0 {
		t.printf("%s\n", t.p.OK(NoWarningsMessage))
		return t.err
	}
	for i, f := range findings {
		t.block("Warning", i+1, t.p.Warning, f)
	}
	return t.err
}

func (t *TextWriter) block(title string, n int, accent color.Color, f privilege.Finding) {
	rule := strings.Repeat("=", ruleWidth)
	heading := fmt.Sprintf("[ %s %d ]", title, n)
	pad := max((ruleWidth-len(heading))/2, 0)

	t.printf("\n%s\n", t.p.Muted(rule))
	t.printf("%s%s\n", strings.Repeat(" ", pad), accent(heading))
	t.printf("%s\n", t.p.Muted(rule))

	width := max(len(f.Caller.Name), len(f.Callee.Name))
	t.printf("  Caller: %-*s %s\n", width, f.Caller.Name, t.p.Muted(hex(f.Caller.Address)))
	t.printf("  Callee: %s %s\n", accent(fmt.Sprintf("%-*s", width, f.Callee.Name)), t.p.Muted(hex(f.Callee.Address)))

	t.printf("\n%s\n", t.p.Muted("Call Stack:"))
	t.stack(f.Path, accent)
}

// stack writes the path one frame per line. The unprivileged frame that
// hands control to a privileged one is highlighted with accent.
func (t *TextWriter) stack(path privilege.Path, accent color.Color) {
	width := 0
	for _, fr := range path {
		width = max(width, len(callgraph.SimplifyName(fr.Name)))
	}
	for i, fr := range path {
		connector := "│   "
		if i == len(path)-1 {
			connector = "└── "
		}

		name := fmt.Sprintf("%-*s", width, callgraph.SimplifyName(fr.Name))
		state := "(unprivileged)"
		switch {
		case fr.Privileged:
			name = t.p.Privileged(name)
			state = t.p.Privileged("(privileged)  ")
		case i+1 < len(path) && path[i+1].Privileged:
			name = accent(name)
			state = accent(state)
		}
		t.printf("  %s%s %s %s\n", t.p.Muted(connector), name, state, t.p.Muted(hex(fr.Address)))
	}
}

func hex(addr uint64) string {
	return "[" + hexAddr(addr) + "]"
}
