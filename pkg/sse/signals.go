package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/datastar-go/datastar/pkg/protocol"
)

// ReadSignals decodes the client's current signal snapshot from the request
// into a generic mapping. Read-only requests (GET, HEAD) carry the snapshot
// JSON-encoded in the "datastar" query parameter; all other requests carry it
// in the body.
//
// An absent or malformed snapshot yields an empty mapping, never an error:
// absence of client state is a normal startup condition. The returned map is
// always non-nil.
func ReadSignals(r *http.Request) map[string]any {
	raw, err := rawSignals(r)
	if err != nil || len(raw) == 0 {
		return map[string]any{}
	}

	var signals map[string]any
	if err := json.Unmarshal(raw, &signals); err != nil || signals == nil {
		return map[string]any{}
	}
	return signals
}

// ReadSignalsAs decodes the client's signal snapshot into dst, a pointer to a
// caller-declared struct. Unlike ReadSignals it surfaces failure: a missing
// snapshot or a value that cannot be coerced to dst's field types returns a
// *DecodeError.
//
// Unknown keys in the snapshot are ignored; client snapshots routinely
// superset any one handler's declared shape.
func ReadSignalsAs(r *http.Request, dst any) error {
	raw, err := rawSignals(r)
	if err != nil {
		return &DecodeError{Err: err}
	}
	if len(raw) == 0 {
		return &DecodeError{Err: fmt.Errorf("no signal snapshot in request")}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &DecodeError{Err: err}
	}
	return nil
}

// rawSignals extracts the undecoded snapshot bytes from the request.
func rawSignals(r *http.Request) ([]byte, error) {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return []byte(r.URL.Query().Get(protocol.SignalsQueryParam)), nil
	default:
		if r.Body == nil {
			return nil, nil
		}
		return io.ReadAll(r.Body)
	}
}
