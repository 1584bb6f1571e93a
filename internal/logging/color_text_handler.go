package logging

import (
	"context"
	"io"
	"log/slog"
)

const colorReset = "\033[0m"

// ColorTextHandler wraps slog.TextHandler and prefixes each message with a
// colored level tag.
type ColorTextHandler struct {
	*slog.TextHandler
}

// NewColorTextHandler creates a ColorTextHandler writing to w.
func NewColorTextHandler(w io.Writer, opts *slog.HandlerOptions) *ColorTextHandler {
	return &ColorTextHandler{TextHandler: slog.NewTextHandler(w, opts)}
}

// Handle implements slog.Handler.
func (h *ColorTextHandler) Handle(ctx context.Context, r slog.Record) error {
	r.Message = levelColor(r.Level) + r.Level.String() + colorReset + "  " + r.Message
	return h.TextHandler.Handle(ctx, r)
}

// WithAttrs keeps the color wrapper when attributes are added.
func (h *ColorTextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ColorTextHandler{TextHandler: h.TextHandler.WithAttrs(attrs).(*slog.TextHandler)}
}

// WithGroup keeps the color wrapper when a group is opened.
func (h *ColorTextHandler) WithGroup(name string) slog.Handler {
	return &ColorTextHandler{TextHandler: h.TextHandler.WithGroup(name).(*slog.TextHandler)}
}

func levelColor(l slog.Level) string {
	switch {
	case l >= slog.LevelError:
		return "\033[31m"
	case l >= slog.LevelWarn:
		return "\033[33m"
	case l >= slog.LevelInfo:
		return "\033[32m"
	default:
		return "\033[36m"
	}
}
