package goSession

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType identifies a lifecycle or security event.
type EventType string

const (
	// EventTokenStored fires after a new record is installed.
	EventTokenStored EventType = "token_stored"
	// EventTokenRefreshed fires after a successful refresh cycle.
	EventTokenRefreshed EventType = "token_refreshed"
	// EventTokenRefreshFailed fires after a fatal refresh failure.
	EventTokenRefreshFailed EventType = "token_refresh_failed"
	// EventTokensCleared fires whenever the store is wiped.
	EventTokensCleared EventType = "tokens_cleared"
	// EventSuspiciousActivity fires on breach declaration.
	EventSuspiciousActivity EventType = "suspicious_activity_detected"
	// EventFingerprintMismatch fires on each fingerprint mismatch below the
	// breach threshold.
	EventFingerprintMismatch EventType = "fingerprint_mismatch"
)

// Event is the structured payload delivered to subscribers and sinks.
// Late subscribers do not receive past events.
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"event_type"`
	SessionID string            `json:"session_id,omitempty"`
	Reason    string            `json:"reason,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// EventSink receives events asynchronously from the dispatcher. Sinks feed
// external observability; in-process consumers use [Engine.Subscribe].
type EventSink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards every event.
type NoOpSink struct{}

// Emit implements [EventSink].
func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink buffers events on a channel for consumer goroutines.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

// Emit implements [EventSink].
func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the sink's channel.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON line per event.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink creates a JSONWriterSink over w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

// Emit implements [EventSink].
func (s *JSONWriterSink) Emit(ctx context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
