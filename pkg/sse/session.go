package sse

import (
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/datastar-go/datastar/pkg/protocol"
)

// Monitor receives session lifecycle and throughput callbacks. Implementations
// must be safe for concurrent use across sessions. The prometheus monitor in
// package middleware implements this interface.
type Monitor interface {
	StreamOpened()
	StreamClosed(duration time.Duration)
	FrameSent(bytes int)
	WriteError()
}

// nopMonitor is the default monitor when none is configured.
type nopMonitor struct{}

func (nopMonitor) StreamOpened() {}

func (nopMonitor) StreamClosed(time.Duration) {}

func (nopMonitor) FrameSent(int) {}

func (nopMonitor) WriteError() {}

// Option configures a Session at creation time.
type Option func(*Session)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		s.logger = logger
	}
}

// WithMonitor sets the metrics monitor. Defaults to a no-op.
func WithMonitor(m Monitor) Option {
	return func(s *Session) {
		s.monitor = m
	}
}

// Session is the live, single-writer event stream for one request/response
// exchange. It owns the underlying response writer exclusively; emitted
// frames are written strictly in call order, each flushed as its own chunk.
//
// A session is not safe for concurrent emits from multiple goroutines without
// external serialization beyond the write lock's ordering: it mirrors the
// single physical byte stream it wraps. Once closed it is terminal.
type Session struct {
	// ID is a unique identifier for this stream, used in logs and errors.
	ID string

	w       http.ResponseWriter
	flusher http.Flusher

	mu     sync.Mutex // Protects writes
	closed atomic.Bool

	logger  *slog.Logger
	monitor Monitor
	started time.Time

	// Throughput counters
	framesSent  atomic.Uint64
	bytesSent   atomic.Uint64
	writeErrors atomic.Uint64
}

// New prepares w for event streaming and returns the session wrapping it.
// Headers are committed immediately: content type text/event-stream, caching
// and proxy buffering disabled. Returns ErrStreamingUnsupported when w cannot
// flush.
//
// The caller must not write to w after New succeeds.
func New(w http.ResponseWriter, r *http.Request, opts ...Option) (*Session, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, ErrStreamingUnsupported
	}

	s := &Session{
		ID:      uuid.NewString(),
		w:       w,
		flusher: flusher,
		logger:  slog.Default(),
		monitor: nopMonitor{},
		started: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("session_id", s.ID)

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("X-Accel-Buffering", "no")
	if r.ProtoMajor == 1 {
		h.Set("Connection", "keep-alive")
	}
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	s.monitor.StreamOpened()
	s.logger.Debug("event stream opened", "path", r.URL.Path)
	return s, nil
}

// Emit encodes the frame and writes it to the stream as one flushed chunk.
//
// It fails with ErrSessionClosed if the session is closed, without touching
// the sink. A transport write failure is returned as a *WriteError and
// permanently closes the session; transport errors are never retried here —
// reconnect timing is the client's policy, advertised via the frame's retry
// metadata.
func (s *Session) Emit(f *protocol.Frame) error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	payload := f.Encode()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.writeLocked("emit", payload, true)
}

// MustEmit is Emit for callers committed to an unconditional mutation
// pipeline: any failure, including a closed session, panics.
func (s *Session) MustEmit(f *protocol.Frame) {
	if err := s.Emit(f); err != nil {
		panic(err)
	}
}

// KeepAlive writes an SSE comment line to hold the connection open through
// intermediaries. It carries no protocol semantics and clients ignore it.
func (s *Session) KeepAlive() error {
	if s.closed.Load() {
		return ErrSessionClosed
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed.Load() {
		return ErrSessionClosed
	}
	return s.writeLocked("keepalive", []byte(": keepalive\n\n"), false)
}

// writeLocked writes payload to the sink and flushes. Callers hold s.mu.
func (s *Session) writeLocked(op string, payload []byte, frame bool) error {
	if _, err := s.w.Write(payload); err != nil {
		s.closed.Store(true)
		s.writeErrors.Add(1)
		s.monitor.WriteError()
		s.monitor.StreamClosed(time.Since(s.started))
		s.logger.Warn("stream write failed, closing session", "op", op, "error", err)
		return &WriteError{SessionID: s.ID, Op: op, Err: err}
	}
	s.flusher.Flush()

	s.bytesSent.Add(uint64(len(payload)))
	if frame {
		s.framesSent.Add(1)
		s.monitor.FrameSent(len(payload))
	}
	return nil
}

// Close transitions the session to its terminal closed state. It is
// idempotent and safe to call after a transport failure or when client
// disconnect is detected out of band. Every subsequent emit fails with
// ErrSessionClosed.
func (s *Session) Close() {
	if s.closed.Swap(true) {
		return
	}
	s.monitor.StreamClosed(time.Since(s.started))
	s.logger.Debug("event stream closed",
		"frames_sent", s.framesSent.Load(),
		"bytes_sent", s.bytesSent.Load())
}

// Closed reports whether the session has reached its terminal closed state.
func (s *Session) Closed() bool {
	return s.closed.Load()
}

// Stats is a point-in-time snapshot of session throughput.
type Stats struct {
	FramesSent  uint64
	BytesSent   uint64
	WriteErrors uint64
}

// Stats returns a snapshot of the session's throughput counters.
func (s *Session) Stats() Stats {
	return Stats{
		FramesSent:  s.framesSent.Load(),
		BytesSent:   s.bytesSent.Load(),
		WriteErrors: s.writeErrors.Load(),
	}
}
