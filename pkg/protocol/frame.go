package protocol

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
)

// Construction errors. All are detected before any wire bytes exist; a caller
// never observes a partially built frame.
var (
	ErrInvalidEventType = errors.New("protocol: invalid event type")
	ErrInvalidPatchMode = errors.New("protocol: invalid patch mode")
	ErrMissingSelector  = errors.New("protocol: missing selector")
	ErrNegativeRetry    = errors.New("protocol: negative retry duration")
)

// Frame is one complete SSE wire unit: event type, optional id and retry
// metadata, and an ordered list of data lines. A frame is immutable once
// built; its only destination is the wire.
//
// Wire format (each present field is one line, omitted fields contribute
// nothing, a single blank line terminates the frame):
//
//	event: <type>
//	id: <id>
//	retry: <milliseconds>
//	data: <line>
//	data: <line>
//	...
//
type Frame struct {
	// Type is the event type. Always set by the builders in this package.
	Type EventType

	// ID is the optional SSE event id used by clients for resumption.
	ID string

	// Retry is the optional client reconnection delay. Zero means unset; a
	// value equal to DefaultRetry is also omitted from the wire, since
	// absence encodes the default.
	Retry time.Duration

	// Data holds the data lines in wire order. Order is significant and
	// preserved exactly; line-oriented clients depend on it.
	Data []string
}

// Encode renders the frame to its exact wire bytes.
func (f *Frame) Encode() []byte {
	var b strings.Builder
	b.Grow(f.encodedSize())

	b.WriteString("event: ")
	b.WriteString(string(f.Type))
	b.WriteByte('\n')

	if f.ID != "" {
		b.WriteString("id: ")
		b.WriteString(f.ID)
		b.WriteByte('\n')
	}

	if f.Retry > 0 && f.Retry != DefaultRetry {
		b.WriteString("retry: ")
		b.WriteString(strconv.FormatInt(f.Retry.Milliseconds(), 10))
		b.WriteByte('\n')
	}

	for _, line := range f.Data {
		b.WriteString("data: ")
		b.WriteString(line)
		b.WriteByte('\n')
	}

	b.WriteByte('\n')
	return []byte(b.String())
}

// WriteTo encodes the frame and writes it to w in a single call.
func (f *Frame) WriteTo(w io.Writer) (int64, error) {
	n, err := w.Write(f.Encode())
	return int64(n), err
}

// encodedSize estimates the encoded length for buffer pre-sizing.
func (f *Frame) encodedSize() int {
	n := len("event: ") + len(f.Type) + 2 // type line + terminator
	if f.ID != "" {
		n += len("id: ") + len(f.ID) + 1
	}
	if f.Retry > 0 {
		n += len("retry: ") + 20 + 1
	}
	for _, line := range f.Data {
		n += len("data: ") + len(line) + 1
	}
	return n
}

// splitLines splits a payload on line boundaries so that every physical line
// becomes its own data entry. SSE data lines cannot embed raw newlines.
func splitLines(s string) []string {
	s = strings.TrimRight(s, "\n")
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSuffix(line, "\r")
	}
	return lines
}
