package protocol

import "fmt"

// BuildElementPatch builds a patch-elements frame merging html into the
// document at selector using the given mode.
//
// Validation happens before any line is assembled: an invalid mode or empty
// selector fails without producing a partial frame. Data-line order is fixed
// and significant: selector, mode, the view-transition line only when the
// flag is true, then one elements line per physical line of html in original
// order.
func BuildElementPatch(selector, html string, mode PatchMode, viewTransitions bool) (*Frame, error) {
	if selector == "" {
		return nil, ErrMissingSelector
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPatchMode, mode)
	}

	lines := splitLines(html)
	data := make([]string, 0, len(lines)+3)
	data = append(data, SelectorPrefix+selector)
	data = append(data, ModePrefix+mode.String())
	if viewTransitions {
		data = append(data, ViewTransitionPrefix+"true")
	}
	for _, line := range lines {
		data = append(data, ElementsPrefix+line)
	}

	return &Frame{Type: EventPatchElements, Data: data}, nil
}

// BuildSignalPatch builds a patch-signals frame carrying already-serialized
// JSON text. The only-if-missing line precedes the signals line and is
// emitted only when the flag is true; absence encodes the default overwrite
// semantics.
//
// Serializers are expected not to introduce raw newlines into the payload.
// If one does, each physical line is carried on its own signals line, since
// an SSE data line can never embed a newline.
func BuildSignalPatch(signals string, onlyIfMissing bool) (*Frame, error) {
	data := make([]string, 0, 2)
	if onlyIfMissing {
		data = append(data, OnlyIfMissingPrefix+"true")
	}
	for _, line := range splitLines(signals) {
		data = append(data, SignalsPrefix+line)
	}

	return &Frame{Type: EventPatchSignals, Data: data}, nil
}

// BuildRemove builds a selector-only patch-elements frame. No mode and no
// elements lines are emitted; a bare selector signals deletion to the client
// by convention of the shared patch-elements event type.
func BuildRemove(selector string) (*Frame, error) {
	if selector == "" {
		return nil, ErrMissingSelector
	}

	return &Frame{
		Type: EventPatchElements,
		Data: []string{SelectorPrefix + selector},
	}, nil
}
