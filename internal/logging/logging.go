// Package logging provides the structured logging handler used across the
// engine, plus the sensitive-value redaction helper chain/override
// rendering relies on before emitting debug logs.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
)

// SimpleHandler is a minimal slog.Handler that writes "LEVEL: message
// key=value ..." lines. It intentionally does not support WithGroup
// prefixing; attrs attached via WithAttrs are appended flat.
type SimpleHandler struct {
	Writer io.Writer
	Level  slog.Leveler

	mu    sync.Mutex
	attrs []slog.Attr
}

func (h *SimpleHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.Level.Level()
}

func (h *SimpleHandler) Handle(ctx context.Context, record slog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, err := fmt.Fprintf(h.Writer, "%s: %s", record.Level.String(), record.Message); err != nil {
		return err
	}
	for _, a := range h.attrs {
		if _, err := fmt.Fprintf(h.Writer, " %s=%v", a.Key, a.Value); err != nil {
			return err
		}
	}
	record.Attrs(func(a slog.Attr) bool {
		_, _ = fmt.Fprintf(h.Writer, " %s=%v", a.Key, a.Value)
		return true
	})
	_, err := fmt.Fprintln(h.Writer)
	return err
}

func (h *SimpleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := &SimpleHandler{Writer: h.Writer, Level: h.Level}
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return next
}

func (h *SimpleHandler) WithGroup(name string) slog.Handler {
	// no support for groups here
	return h
}

var _ slog.Handler = (*SimpleHandler)(nil)

// Redacted is the placeholder logged in place of a chain or override value
// marked sensitive, so debug logging of rendered chunks never leaks
// secrets (spec.md Non-goals exclude UI display formatting, not
// server-side log redaction).
const Redacted = "<sensitive>"

// RedactValue returns value's loggable form: the literal bytes if not
// sensitive, or the Redacted placeholder otherwise.
func RedactValue(value []byte, sensitive bool) string {
	if sensitive {
		return Redacted
	}
	return string(value)
}
