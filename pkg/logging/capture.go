package logging

import (
	"context"
	"log/slog"
	"sync"
)

// CaptureHandler is a slog.Handler that records entries in memory so tests
// can assert on what a component logged.
type CaptureHandler struct {
	mu      sync.Mutex
	level   slog.Level
	attrs   []slog.Attr
	entries []CapturedEntry
}

// CapturedEntry is one recorded log call.
type CapturedEntry struct {
	Level   slog.Level
	Message string
	Attrs   map[string]any
}

// NewCaptureHandler creates a capture handler accepting records at or above
// level.
func NewCaptureHandler(level slog.Level) *CaptureHandler {
	return &CaptureHandler{level: level}
}

// Enabled reports whether the handler accepts records at the given level.
func (h *CaptureHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

// Handle records the entry.
func (h *CaptureHandler) Handle(_ context.Context, r slog.Record) error {
	attrs := make(map[string]any, r.NumAttrs()+len(h.attrs))
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	h.mu.Lock()
	h.entries = append(h.entries, CapturedEntry{
		Level:   r.Level,
		Message: r.Message,
		Attrs:   attrs,
	})
	h.mu.Unlock()
	return nil
}

// WithAttrs returns a handler sharing the same entry sink with extra attrs.
func (h *CaptureHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	merged = append(merged, h.attrs...)
	merged = append(merged, attrs...)
	return &sharedCapture{parent: h, attrs: merged}
}

// WithGroup is accepted but groups are flattened; the capture sink is for
// assertions, not rendering.
func (h *CaptureHandler) WithGroup(string) slog.Handler {
	return h
}

// Entries returns a snapshot of everything recorded so far.
func (h *CaptureHandler) Entries() []CapturedEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]CapturedEntry, len(h.entries))
	copy(out, h.entries)
	return out
}

// Reset discards recorded entries.
func (h *CaptureHandler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = nil
}

// sharedCapture forwards records to the root handler with bound attrs.
type sharedCapture struct {
	parent *CaptureHandler
	attrs  []slog.Attr
}

func (s *sharedCapture) Enabled(ctx context.Context, level slog.Level) bool {
	return s.parent.Enabled(ctx, level)
}

func (s *sharedCapture) Handle(ctx context.Context, r slog.Record) error {
	clone := r.Clone()
	clone.AddAttrs(s.attrs...)
	return s.parent.Handle(ctx, clone)
}

func (s *sharedCapture) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]slog.Attr, 0, len(s.attrs)+len(attrs))
	merged = append(merged, s.attrs...)
	merged = append(merged, attrs...)
	return &sharedCapture{parent: s.parent, attrs: merged}
}

func (s *sharedCapture) WithGroup(string) slog.Handler {
	return s
}
