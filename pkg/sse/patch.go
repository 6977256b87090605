package sse

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/datastar-go/datastar/pkg/protocol"
)

// patchConfig holds per-command element patch settings.
type patchConfig struct {
	mode            protocol.PatchMode
	viewTransitions bool
	eventID         string
	retry           time.Duration
}

// PatchOption configures a single element patch command.
type PatchOption func(*patchConfig)

// WithMode sets the patch mode. Defaults to protocol.DefaultPatchMode.
// Invalid modes are rejected when the command is built, before any bytes
// reach the stream.
func WithMode(mode protocol.PatchMode) PatchOption {
	return func(c *patchConfig) {
		c.mode = mode
	}
}

// WithViewTransitions asks the client to animate the patch with a view
// transition. Off by default; absence on the wire encodes the default.
func WithViewTransitions() PatchOption {
	return func(c *patchConfig) {
		c.viewTransitions = true
	}
}

// WithEventID sets the SSE event id on the emitted frame.
func WithEventID(id string) PatchOption {
	return func(c *patchConfig) {
		c.eventID = id
	}
}

// WithRetry advertises a client reconnection delay on the emitted frame.
// Values equal to protocol.DefaultRetry are omitted from the wire.
func WithRetry(d time.Duration) PatchOption {
	return func(c *patchConfig) {
		c.retry = d
	}
}

// PatchElements compiles an element patch into a frame and emits it. html may
// span multiple lines; each physical line travels on its own data line in
// original order.
func (s *Session) PatchElements(selector, html string, opts ...PatchOption) error {
	c := patchConfig{mode: protocol.DefaultPatchMode}
	for _, opt := range opts {
		opt(&c)
	}

	f, err := protocol.BuildElementPatch(selector, html, c.mode, c.viewTransitions)
	if err != nil {
		return err
	}
	f.ID = c.eventID
	f.Retry = c.retry
	return s.Emit(f)
}

// PatchElementsf is PatchElements with fmt-style interpolation of the html
// content. It carries no protocol semantics beyond the plain call.
func (s *Session) PatchElementsf(selector, format string, args ...any) error {
	return s.PatchElements(selector, fmt.Sprintf(format, args...))
}

// RemoveElement emits a selector-only patch instructing the client to delete
// the matched element.
func (s *Session) RemoveElement(selector string, opts ...PatchOption) error {
	c := patchConfig{}
	for _, opt := range opts {
		opt(&c)
	}

	f, err := protocol.BuildRemove(selector)
	if err != nil {
		return err
	}
	f.ID = c.eventID
	f.Retry = c.retry
	return s.Emit(f)
}

// RemoveElementByID removes the element whose id attribute equals id.
func (s *Session) RemoveElementByID(id string, opts ...PatchOption) error {
	return s.RemoveElement("#"+id, opts...)
}

// signalConfig holds per-command signal patch settings.
type signalConfig struct {
	onlyIfMissing bool
	eventID       string
	retry         time.Duration
}

// SignalOption configures a single signal patch command.
type SignalOption func(*signalConfig)

// WithOnlyIfMissing instructs the client to merge only signal keys it does
// not already hold. By default patched keys overwrite existing values; the
// encoder only carries the flag, the client interpreter enforces it.
func WithOnlyIfMissing() SignalOption {
	return func(c *signalConfig) {
		c.onlyIfMissing = true
	}
}

// WithSignalsEventID sets the SSE event id on the emitted frame.
func WithSignalsEventID(id string) SignalOption {
	return func(c *signalConfig) {
		c.eventID = id
	}
}

// WithSignalsRetry advertises a client reconnection delay on the emitted
// frame.
func WithSignalsRetry(d time.Duration) SignalOption {
	return func(c *signalConfig) {
		c.retry = d
	}
}

// PatchSignals emits a signal patch carrying already-serialized JSON text
// verbatim.
func (s *Session) PatchSignals(signals string, opts ...SignalOption) error {
	c := signalConfig{}
	for _, opt := range opts {
		opt(&c)
	}

	f, err := protocol.BuildSignalPatch(signals, c.onlyIfMissing)
	if err != nil {
		return err
	}
	f.ID = c.eventID
	f.Retry = c.retry
	return s.Emit(f)
}

// MarshalAndPatchSignals serializes v to JSON and emits it as a signal patch.
func (s *Session) MarshalAndPatchSignals(v any, opts ...SignalOption) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("sse: marshal signals: %w", err)
	}
	return s.PatchSignals(string(b), opts...)
}
