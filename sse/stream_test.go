package sse

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// lockedRecorder guards the recorder body so keep-alive writes can be read
// concurrently in tests.
type lockedRecorder struct {
	*httptest.ResponseRecorder
	mu sync.Mutex
}

func (r *lockedRecorder) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ResponseRecorder.Write(p)
}

func (r *lockedRecorder) body() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Body.String()
}

func TestOpen_SetsHeaders(t *testing.T) {
	rr := httptest.NewRecorder()
	if _, err := Open(rr); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if got := rr.Header().Get("Content-Type"); got != ContentType {
		t.Errorf("expected Content-Type %q, got %q", ContentType, got)
	}
	if got := rr.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("expected Cache-Control no-cache, got %q", got)
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rr.Code)
	}
	if !rr.Flushed {
		t.Error("expected headers to be flushed")
	}
}

type noFlushWriter struct{ http.ResponseWriter }

func TestOpen_RequiresFlusher(t *testing.T) {
	_, err := Open(noFlushWriter{httptest.NewRecorder()})
	if err != ErrStreamingUnsupported {
		t.Fatalf("expected ErrStreamingUnsupported, got %v", err)
	}
}

func TestSend_Format(t *testing.T) {
	rr := httptest.NewRecorder()
	s, err := Open(rr)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Send("group", map[string]any{"key": "a", "items": []int{1, 2}}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if err := s.Send(EventMessage, "plain"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	want := "id: 1\nevent: group\ndata: {\"items\":[1,2],\"key\":\"a\"}\n\n" +
		"id: 2\ndata: \"plain\"\n\n"
	if got := rr.Body.String(); got != want {
		t.Errorf("unexpected stream:\n got %q\nwant %q", got, want)
	}
}

func TestSend_EncodeError(t *testing.T) {
	s, err := Open(httptest.NewRecorder())
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Send("group", make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
	// A failed encode must not consume an ID.
	if s.nextID != 1 {
		t.Errorf("expected next id 1, got %d", s.nextID)
	}
}

func TestKeepAlive(t *testing.T) {
	rr := &lockedRecorder{ResponseRecorder: httptest.NewRecorder()}
	s, err := Open(rr)
	if err != nil {
		t.Fatal(err)
	}

	stop := s.KeepAlive(context.Background(), 5*time.Millisecond)
	deadline := time.Now().Add(time.Second)
	for !strings.Contains(rr.body(), ": keepalive") {
		if time.Now().After(deadline) {
			t.Fatal("no keep-alive comment written")
		}
		time.Sleep(2 * time.Millisecond)
	}
	stop()

	// No writes after stop returns.
	before := rr.body()
	time.Sleep(20 * time.Millisecond)
	if rr.body() != before {
		t.Error("keep-alive continued after stop")
	}
}

func TestKeepAlive_Disabled(t *testing.T) {
	s, err := Open(httptest.NewRecorder())
	if err != nil {
		t.Fatal(err)
	}
	s.KeepAlive(context.Background(), 0)()
}
