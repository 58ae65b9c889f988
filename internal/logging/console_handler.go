package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/isseis/go-privsep-analyzer/internal/color"
	"github.com/isseis/go-privsep-analyzer/internal/terminal"
)

// Static errors for ConsoleHandler validation
var (
	ErrConsoleWriterRequired       = errors.New("ConsoleHandler: Writer is required")
	ErrConsoleCapabilitiesRequired = errors.New("ConsoleHandler: Capabilities is required")
)

// ConsoleHandlerOptions configures a ConsoleHandler.
type ConsoleHandlerOptions struct {
	Level        slog.Leveler
	Writer       io.Writer
	Capabilities terminal.Capabilities
}

// ConsoleHandler writes compact "LEVEL message key=value" lines with a
// colored level tag to an interactive terminal, and falls back to
// slog.TextHandler output otherwise.
type ConsoleHandler struct {
	level        slog.Leveler
	writer       io.Writer
	mu           *sync.Mutex
	capabilities terminal.Capabilities
	text         slog.Handler
	attrs        []slog.Attr
	groups       []string
}

// NewConsoleHandler creates a ConsoleHandler.
func NewConsoleHandler(opts ConsoleHandlerOptions) (*ConsoleHandler, error) {
	if opts.Writer == nil {
		return nil, ErrConsoleWriterRequired
	}
	if opts.Capabilities == nil {
		return nil, ErrConsoleCapabilitiesRequired
	}
	level := opts.Level
	if level == nil {
		level = slog.LevelInfo
	}
	return &ConsoleHandler{
		level:        level,
		writer:       opts.Writer,
		mu:           &sync.Mutex{},
		capabilities: opts.Capabilities,
		text:         slog.NewTextHandler(opts.Writer, &slog.HandlerOptions{Level: level}),
	}, nil
}

// Enabled implements slog.Handler.
func (h *ConsoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

// Handle implements slog.Handler.
func (h *ConsoleHandler) Handle(ctx context.Context, r slog.Record) error {
	if !h.capabilities.IsInteractive() {
		return h.text.Handle(ctx, r)
	}

	var b strings.Builder
	b.WriteString(h.levelTag(r.Level))
	b.WriteByte(' ')
	b.WriteString(r.Message)

	// h.attrs carry the group prefix in effect when they were added.
	for _, a := range h.attrs {
		writeAttr(&b, "", a)
	}
	prefix := h.groupPrefix()
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&b, prefix, a)
		return true
	})
	b.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.writer, b.String())
	return err
}

func (h *ConsoleHandler) groupPrefix() string {
	if len(h.groups) == 0 {
		return ""
	}
	return strings.Join(h.groups, ".") + "."
}

func (h *ConsoleHandler) levelTag(level slog.Level) string {
	tag := level.String()
	if !h.capabilities.SupportsColor() {
		return tag
	}
	switch {
	case level >= slog.LevelError:
		return color.Red(tag)
	case level >= slog.LevelWarn:
		return color.Yellow(tag)
	case level >= slog.LevelInfo:
		return color.Green(tag)
	default:
		return color.Gray(tag)
	}
}

func writeAttr(b *strings.Builder, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	if a.Value.Kind() == slog.KindGroup {
		group := prefix
		if a.Key != "" {
			group += a.Key + "."
		}
		for _, ga := range a.Value.Group() {
			writeAttr(b, group, ga)
		}
		return
	}
	b.WriteByte(' ')
	b.WriteString(prefix)
	b.WriteString(a.Key)
	b.WriteByte('=')
	b.WriteString(a.Value.String())
}

// WithAttrs implements slog.Handler.
func (h *ConsoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := *h
	c.text = h.text.WithAttrs(attrs)
	prefix := h.groupPrefix()
	c.attrs = append([]slog.Attr(nil), h.attrs...)
	for _, a := range attrs {
		c.attrs = append(c.attrs, slog.Attr{Key: prefix + a.Key, Value: a.Value})
	}
	return &c
}

// WithGroup implements slog.Handler.
func (h *ConsoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := *h
	c.text = h.text.WithGroup(name)
	c.groups = append(append([]string(nil), h.groups...), name)
	return &c
}
