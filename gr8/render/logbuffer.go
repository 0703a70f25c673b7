package render

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"
)

// LogEntry is one captured log record, already formatted.
type LogEntry struct {
	Time    time.Time
	Level   slog.Level
	Message string
}

func (e LogEntry) String() string {
	return fmt.Sprintf("%s [%s] %s", e.Time.Format("15:04:05.000"), levelTag(e.Level), e.Message)
}

// LogBuffer keeps the most recent log entries while the dashboard owns the
// terminal, so logging never scribbles over it. Safe for concurrent use.
type LogBuffer struct {
	mu      sync.Mutex
	entries []LogEntry
	next    int
	count   int
	dropped int
}

// NewLogBuffer returns a buffer holding up to size entries.
func NewLogBuffer(size int) *LogBuffer {
	return &LogBuffer{entries: make([]LogEntry, size)}
}

// Add stores entry, evicting the oldest one when full.
func (lb *LogBuffer) Add(entry LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	if lb.count == len(lb.entries) {
		lb.dropped++
	} else {
		lb.count++
	}
	lb.entries[lb.next] = entry
	lb.next = (lb.next + 1) % len(lb.entries)
}

// Entries returns the buffered entries, oldest first.
func (lb *LogBuffer) Entries() []LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()

	out := make([]LogEntry, lb.count)
	first := (lb.next - lb.count + len(lb.entries)) % len(lb.entries)
	for i := range out {
		out[i] = lb.entries[(first+i)%len(lb.entries)]
	}
	return out
}

// WriteTo writes every entry, oldest first, and empties the buffer.
func (lb *LogBuffer) WriteTo(w io.Writer) (int64, error) {
	entries := lb.Entries()

	lb.mu.Lock()
	dropped := lb.dropped
	lb.count, lb.next, lb.dropped = 0, 0, 0
	lb.mu.Unlock()

	var total int64
	if dropped > 0 {
		n, err := fmt.Fprintf(w, "(%d earlier log entries dropped)\n", dropped)
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	for _, e := range entries {
		n, err := fmt.Fprintln(w, e.String())
		total += int64(n)
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// LogBufferHandler is a slog.Handler that formats records into a
// LogBuffer.
type LogBufferHandler struct {
	buffer *LogBuffer
	level  slog.Leveler
	attrs  string
	group  string
}

// NewLogBufferHandler returns a handler writing records at or above level.
func NewLogBufferHandler(buffer *LogBuffer, level slog.Leveler) *LogBufferHandler {
	return &LogBufferHandler{buffer: buffer, level: level}
}

func (h *LogBufferHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *LogBufferHandler) Handle(_ context.Context, record slog.Record) error {
	var b strings.Builder
	b.WriteString(record.Message)
	b.WriteString(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		h.appendAttr(&b, a)
		return true
	})

	h.buffer.Add(LogEntry{
		Time:    record.Time,
		Level:   record.Level,
		Message: b.String(),
	})
	return nil
}

func (h *LogBufferHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var b strings.Builder
	b.WriteString(h.attrs)
	for _, a := range attrs {
		h.appendAttr(&b, a)
	}
	clone := *h
	clone.attrs = b.String()
	return &clone
}

func (h *LogBufferHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.group = h.group + name + "."
	return &clone
}

func (h *LogBufferHandler) appendAttr(b *strings.Builder, a slog.Attr) {
	if a.Equal(slog.Attr{}) {
		return
	}
	fmt.Fprintf(b, " %s%s=%v", h.group, a.Key, a.Value.Resolve())
}

func levelTag(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERR"
	case level >= slog.LevelWarn:
		return "WRN"
	case level >= slog.LevelInfo:
		return "INF"
	default:
		return "DBG"
	}
}
