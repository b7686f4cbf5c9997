// ABOUTME: Transport and Connection contract shared by the process, worker, and in-VM variants
// ABOUTME: A Connection is an ordered stream of decoded messages and transport errors plus a send side

package transport

import "encoding/json"

// Transport opens connections to a Lean server.
type Transport interface {
	// Connect opens a new connection. It never waits for a handshake; the
	// only errors it returns are construction-time failures.
	Connect() (Connection, error)
}

// Func adapts a plain function to Transport.
type Func func() (Connection, error)

// Connect calls f.
func (f Func) Connect() (Connection, error) {
	return f()
}

// Event is one item of a connection's inbound stream: either a protocol
// message or a transport error, never both.
type Event struct {
	Message json.RawMessage
	Err     *Error
}

// Connection is one open duplex channel to a Lean server. It is owned by
// exactly one session.
type Connection interface {
	// Events returns the inbound stream in the order the server produced it.
	// The channel is never closed; stop reading once the connection is closed.
	Events() <-chan Event
	// Send writes msg. Failures are reported on Events, never returned.
	Send(msg json.RawMessage)
	// Alive reports whether the connection can still carry traffic.
	Alive() bool
	// Close releases the underlying resource. It is idempotent.
	Close() error
}
