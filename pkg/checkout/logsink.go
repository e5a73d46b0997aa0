package checkout

import (
	"fmt"
	"sync"
	"time"
)

// DefaultLogCapacity bounds the diagnostic trail kept in memory.
const DefaultLogCapacity = 100

// LogEntry is one timestamped diagnostic line. Entries are never persisted.
type LogEntry struct {
	Time    time.Time
	Message string
}

// LogSink is a bounded FIFO of diagnostic strings surfaced in the UI for
// support and debugging. A nil *LogSink is valid and discards everything:
// logging must never interrupt a payment.
type LogSink struct {
	mu       sync.Mutex
	entries  []LogEntry
	capacity int
}

func NewLogSink(capacity int) *LogSink {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &LogSink{capacity: capacity}
}

// Append records v, serialized to a string whatever its type. Oldest entries
// are evicted first once the capacity is reached.
func (s *LogSink) Append(v any) {
	if s == nil {
		return
	}
	msg := safeString(v)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append(s.entries, LogEntry{Time: time.Now(), Message: msg})
	if len(s.entries) > s.capacity {
		s.entries = s.entries[len(s.entries)-s.capacity:]
	}
}

// Appendf is Append with fmt formatting.
func (s *LogSink) Appendf(format string, args ...any) {
	if s == nil {
		return
	}
	s.Append(fmt.Sprintf(format, args...))
}

// Entries returns a copy of the retained entries, oldest first.
func (s *LogSink) Entries() []LogEntry {
	if s == nil {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]LogEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Lines renders the retained entries timestamp-prefixed, oldest first.
func (s *LogSink) Lines() []string {
	entries := s.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = e.Time.UTC().Format("2006-01-02T15:04:05.000Z") + " " + e.Message
	}
	return lines
}

// safeString serializes any value without ever panicking.
func safeString(v any) (msg string) {
	defer func() {
		if recover() != nil {
			msg = "<unprintable value>"
		}
	}()
	switch t := v.(type) {
	case string:
		return t
	case error:
		return t.Error()
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprint(v)
	}
}
