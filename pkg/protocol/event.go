package protocol

import "time"

// EventType identifies the type of an SSE event frame.
//
// The wire value is always the literal string constant, case-sensitive.
type EventType string

const (
	// EventPatchElements merges, replaces, or removes document fragments.
	EventPatchElements EventType = "datastar-patch-elements"

	// EventPatchSignals merges a set of named reactive values.
	EventPatchSignals EventType = "datastar-patch-signals"

	// EventExecuteScript is a legacy alias. Script execution is realized as
	// an element patch appending a <script> fragment to the body; no frame
	// with this event type is produced by the builders in this package.
	EventExecuteScript EventType = "datastar-execute-script"

	// EventRemoveElements is a legacy alias. Removal is realized as a
	// selector-only element patch sharing EventPatchElements.
	EventRemoveElements EventType = "datastar-remove-elements"
)

// Valid reports whether the event type is a member of the protocol vocabulary.
func (et EventType) Valid() bool {
	switch et {
	case EventPatchElements, EventPatchSignals, EventExecuteScript, EventRemoveElements:
		return true
	default:
		return false
	}
}

// String returns the wire value of the event type.
func (et EventType) String() string {
	return string(et)
}

// Data-line key prefixes. The trailing space is part of the prefix and must
// appear on the wire exactly as written here.
const (
	SelectorPrefix       = "selector "
	ModePrefix           = "mode "
	ElementsPrefix       = "elements "
	ViewTransitionPrefix = "useViewTransition "
	SignalsPrefix        = "signals "
	OnlyIfMissingPrefix  = "onlyIfMissing "
	ScriptPrefix         = "script "
)

// Protocol defaults. Absence on the wire encodes each default: a frame never
// carries a line restating one of these values.
const (
	// DefaultRetry is the reconnection delay clients assume when no retry
	// line is sent.
	DefaultRetry = 1000 * time.Millisecond

	// DefaultPatchMode is the element patch mode clients assume when no mode
	// line is sent.
	DefaultPatchMode = ModeOuter
)

// SignalsQueryParam is the query parameter carrying the client's signal
// snapshot on read-only (GET) requests.
const SignalsQueryParam = "datastar"
