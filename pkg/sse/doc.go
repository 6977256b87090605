// Package sse owns the live event-stream session for one request/response
// exchange and the command API layered on top of it.
//
// A Session wraps exactly one prepared response writer and is a single-writer
// resource: commands compile to protocol frames, frames are emitted strictly
// in call order, and the first transport failure permanently closes the
// session. Inbound signal reading (the client's reactive-state snapshot) also
// lives here, independent of the outbound path.
package sse
