// Package protocol defines the Datastar SSE wire vocabulary and the frame
// encoder that turns structured commands into byte-exact event-stream frames.
//
// The vocabulary is closed: exactly four event types, a fixed set of
// data-line key prefixes, and a fixed set of element patch modes. Frames are
// immutable value objects; building a frame never touches a transport.
// Emission is the job of package sse.
package protocol
