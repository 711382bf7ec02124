package sse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/kbukum/streamgroup/logger"
)

// ContentType is the media type of an event stream.
const ContentType = "text/event-stream"

// ErrStreamingUnsupported is returned by Open when the response writer cannot flush.
var ErrStreamingUnsupported = errors.New("sse: streaming not supported")

// Generic event names.
const (
	EventMessage = "message"
	EventError   = "error"
)

// Stream writes events to one client.
type Stream struct {
	mu      sync.Mutex
	w       http.ResponseWriter
	flusher http.Flusher
	nextID  int
}

// Open prepares w for streaming and writes the response headers.
func Open(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	// Event streams outlive the server's WriteTimeout.
	rc := http.NewResponseController(w)
	if err := rc.SetWriteDeadline(time.Time{}); err != nil && !errors.Is(err, http.ErrNotSupported) {
		logger.Get("sse").Warn("could not disable write deadline", logger.Fields(logger.FieldError, err.Error()))
	}

	h := w.Header()
	h.Set("Content-Type", ContentType)
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher, nextID: 1}, nil
}

// Send writes one event with a JSON-encoded payload and flushes it. Event IDs
// start at 1 and increase by one per event.
func (s *Stream) Send(event string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: encode %s event: %w", event, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", s.nextID)
	if event != "" && event != EventMessage {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	fmt.Fprintf(&b, "data: %s\n\n", data)

	if _, err := s.w.Write([]byte(b.String())); err != nil {
		return fmt.Errorf("sse: write %s event: %w", event, err)
	}
	s.nextID++
	s.flusher.Flush()
	return nil
}

// Comment writes a comment line, which clients ignore.
func (s *Stream) Comment(text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, ": %s\n\n", text); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// KeepAlive sends a comment every interval until ctx is done or the returned
// stop function is called. stop waits for the sender to exit.
func (s *Stream) KeepAlive(ctx context.Context, interval time.Duration) (stop func()) {
	if interval <= 0 {
		return func() {}
	}
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.Comment(fmt.Sprintf("keepalive %d", time.Now().Unix())); err != nil {
					return
				}
			}
		}
	}()
	return func() {
		cancel()
		<-done
	}
}
