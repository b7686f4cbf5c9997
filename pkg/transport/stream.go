// ABOUTME: Stream is the buffered inbound event queue embedded by every Connection implementation
// ABOUTME: Emits block until consumed or until the stream is shut down, so nothing is reordered

package transport

import (
	"bytes"
	"encoding/json"
	"sync"
	"sync/atomic"

	"github.com/tidwall/gjson"
)

// DefaultBuffer is the event channel capacity used when none is given.
const DefaultBuffer = 64

// Stream implements the receive half of Connection.
type Stream struct {
	events    chan Event
	done      chan struct{}
	closeOnce sync.Once
	alive     atomic.Bool
}

// NewStream creates a live stream with the given channel capacity.
func NewStream(buffer int) *Stream {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	s := &Stream{
		events: make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	s.alive.Store(true)
	return s
}

// Events returns the inbound stream.
func (s *Stream) Events() <-chan Event {
	return s.events
}

// EmitMessage queues a protocol message. It reports false once the stream
// has been shut down.
func (s *Stream) EmitMessage(msg json.RawMessage) bool {
	return s.emit(Event{Message: msg})
}

// EmitError queues a transport error. It reports false once the stream has
// been shut down.
func (s *Stream) EmitError(err *Error) bool {
	return s.emit(Event{Err: err})
}

func (s *Stream) emit(ev Event) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.events <- ev:
		return true
	case <-s.done:
		return false
	}
}

// Alive reports whether the stream can still carry traffic.
func (s *Stream) Alive() bool {
	return s.alive.Load()
}

// MarkDead flips Alive to false without stopping delivery, so a final
// exit error can still be emitted.
func (s *Stream) MarkDead() {
	s.alive.Store(false)
}

// Done is closed by Shutdown.
func (s *Stream) Done() <-chan struct{} {
	return s.done
}

// Shutdown marks the stream dead and unblocks pending emits. It reports
// true on the first call only.
func (s *Stream) Shutdown() bool {
	first := false
	s.closeOnce.Do(func() {
		first = true
		s.alive.Store(false)
		close(s.done)
	})
	return first
}

// DecodeLine turns one line of server output into an event. Blank lines
// yield ok=false.
func DecodeLine(line []byte) (ev Event, ok bool) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return Event{}, false
	}
	if !gjson.ValidBytes(line) {
		return Event{Err: MalformedError(string(line), nil)}, true
	}
	return Event{Message: append(json.RawMessage(nil), line...)}, true
}
