package sse

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/datastar-go/datastar/pkg/protocol"
)

func newTestSession(t *testing.T) (*Session, *httptest.ResponseRecorder) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	s, err := New(rec, req, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return s, rec
}

// plainWriter deliberately lacks http.Flusher.
type plainWriter struct {
	header http.Header
}

func (w *plainWriter) Header() http.Header { return w.header }

func (w *plainWriter) Write(b []byte) (int, error) { return len(b), nil }

func (w *plainWriter) WriteHeader(int) {}

// failWriter fails every write after the first n successful ones.
type failWriter struct {
	header  http.Header
	writes  int
	failAt  int
	written []byte
}

func (w *failWriter) Header() http.Header {
	if w.header == nil {
		w.header = make(http.Header)
	}
	return w.header
}

func (w *failWriter) Write(b []byte) (int, error) {
	w.writes++
	if w.writes > w.failAt {
		return 0, errors.New("broken pipe")
	}
	w.written = append(w.written, b...)
	return len(b), nil
}

func (w *failWriter) WriteHeader(int) {}

func (w *failWriter) Flush() {}

func TestNewPreparesStream(t *testing.T) {
	s, rec := newTestSession(t)

	if s.ID == "" {
		t.Errorf("session ID is empty")
	}
	if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
		t.Errorf("Content-Type = %q, want text/event-stream", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-cache" {
		t.Errorf("Cache-Control = %q, want no-cache", got)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if !rec.Flushed {
		t.Errorf("headers were not flushed")
	}
}

func TestNewRequiresFlusher(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	_, err := New(&plainWriter{header: make(http.Header)}, req)
	if !errors.Is(err, ErrStreamingUnsupported) {
		t.Fatalf("New() error = %v, want %v", err, ErrStreamingUnsupported)
	}
}

func TestEmitWritesFrameInOrder(t *testing.T) {
	s, rec := newTestSession(t)

	first, err := protocol.BuildSignalPatch(`{"a":1}`, false)
	if err != nil {
		t.Fatalf("BuildSignalPatch() error = %v", err)
	}
	second, err := protocol.BuildRemove("#b")
	if err != nil {
		t.Fatalf("BuildRemove() error = %v", err)
	}

	if err := s.Emit(first); err != nil {
		t.Fatalf("Emit(first) error = %v", err)
	}
	if err := s.Emit(second); err != nil {
		t.Fatalf("Emit(second) error = %v", err)
	}

	want := string(first.Encode()) + string(second.Encode())
	if got := rec.Body.String(); got != want {
		t.Errorf("stream = %q, want %q", got, want)
	}
}

func TestEmitAfterClose(t *testing.T) {
	s, rec := newTestSession(t)
	s.Close()
	s.Close() // idempotent

	if !s.Closed() {
		t.Fatalf("Closed() = false after Close()")
	}

	f, err := protocol.BuildRemove("#x")
	if err != nil {
		t.Fatalf("BuildRemove() error = %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := s.Emit(f); !errors.Is(err, ErrSessionClosed) {
			t.Fatalf("Emit() #%d error = %v, want %v", i, err, ErrSessionClosed)
		}
	}
	if rec.Body.Len() != 0 {
		t.Errorf("sink received %d bytes after close, want 0", rec.Body.Len())
	}
}

func TestEmitWriteFailureClosesSession(t *testing.T) {
	w := &failWriter{failAt: 0}
	req := httptest.NewRequest(http.MethodGet, "/stream", nil)
	s, err := New(w, req, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	f, err := protocol.BuildSignalPatch(`{"a":1}`, false)
	if err != nil {
		t.Fatalf("BuildSignalPatch() error = %v", err)
	}

	err = s.Emit(f)
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("Emit() error = %v, want *WriteError", err)
	}
	if werr.SessionID != s.ID {
		t.Errorf("WriteError.SessionID = %q, want %q", werr.SessionID, s.ID)
	}

	// First failure is terminal.
	if !s.Closed() {
		t.Errorf("session still open after write failure")
	}
	if err := s.Emit(f); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("Emit() after failure error = %v, want %v", err, ErrSessionClosed)
	}
	if len(w.written) != 0 {
		t.Errorf("sink received %d bytes after failure, want 0", len(w.written))
	}
}

func TestMustEmitPanicsOnClosedSession(t *testing.T) {
	s, _ := newTestSession(t)
	s.Close()

	f, err := protocol.BuildRemove("#x")
	if err != nil {
		t.Fatalf("BuildRemove() error = %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Errorf("MustEmit() did not panic on closed session")
		}
	}()
	s.MustEmit(f)
}

func TestKeepAlive(t *testing.T) {
	s, rec := newTestSession(t)

	if err := s.KeepAlive(); err != nil {
		t.Fatalf("KeepAlive() error = %v", err)
	}
	if got := rec.Body.String(); got != ": keepalive\n\n" {
		t.Errorf("keepalive bytes = %q", got)
	}

	stats := s.Stats()
	if stats.FramesSent != 0 {
		t.Errorf("keepalive counted as a frame: FramesSent = %d", stats.FramesSent)
	}
	if stats.BytesSent == 0 {
		t.Errorf("keepalive bytes not counted")
	}

	s.Close()
	if err := s.KeepAlive(); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("KeepAlive() after close error = %v, want %v", err, ErrSessionClosed)
	}
}

func TestSessionStats(t *testing.T) {
	s, _ := newTestSession(t)

	var wantBytes uint64
	for i := 0; i < 3; i++ {
		f, err := protocol.BuildSignalPatch(fmt.Sprintf(`{"i":%d}`, i), false)
		if err != nil {
			t.Fatalf("BuildSignalPatch() error = %v", err)
		}
		wantBytes += uint64(len(f.Encode()))
		if err := s.Emit(f); err != nil {
			t.Fatalf("Emit() error = %v", err)
		}
	}

	stats := s.Stats()
	if stats.FramesSent != 3 {
		t.Errorf("FramesSent = %d, want 3", stats.FramesSent)
	}
	if stats.BytesSent != wantBytes {
		t.Errorf("BytesSent = %d, want %d", stats.BytesSent, wantBytes)
	}
	if stats.WriteErrors != 0 {
		t.Errorf("WriteErrors = %d, want 0", stats.WriteErrors)
	}
}
