// ABOUTME: Worker transport: talks to a Lean engine hosted in a background worker via posted messages
// ABOUTME: Posts a start-webworker command on connect and unwraps the worker's error envelopes

package worker

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/pkg/transport"
)

const (
	// StartCommand is the first message posted to every worker.
	StartCommand = "start-webworker"
	// ErrorResponse tags a transport error forwarded by the worker.
	ErrorResponse = "webworker-error"
)

// ErrTerminated is returned by PostMessage on a terminated worker.
var ErrTerminated = errors.New("worker terminated")

// Options tell the worker where to find the engine and its library.
type Options struct {
	// LibraryZip is the URL of library.zip.
	LibraryZip string `json:"libraryZip,omitempty" yaml:"library_zip" toml:"library_zip"`
	// LibraryMeta is the URL of library.info.json; derived from LibraryZip when empty.
	LibraryMeta string `json:"libraryMeta,omitempty" yaml:"library_meta" toml:"library_meta"`
	// LibraryOleanMap is the URL of library.olean_map.json; derived from LibraryZip when empty.
	LibraryOleanMap string `json:"libraryOleanMap,omitempty" yaml:"library_olean_map" toml:"library_olean_map"`
	// EngineWasm is the URL of the engine WebAssembly binary.
	EngineWasm string `json:"webassemblyWasm,omitempty" yaml:"engine_wasm" toml:"engine_wasm"`
	MemoryMB   int    `json:"memoryMB,omitempty" yaml:"memory_mb" toml:"memory_mb"`
}

// StartRequest is the start-webworker message.
type StartRequest struct {
	Command string  `json:"command"`
	Opts    Options `json:"opts"`
}

// ErrorEnvelope wraps a transport error posted by the worker.
type ErrorEnvelope struct {
	Response string           `json:"response"`
	Error    *transport.Error `json:"error"`
}

// Worker is a background context exchanging JSON messages with the client.
type Worker interface {
	PostMessage(msg json.RawMessage) error
	// Messages is closed when the worker stops.
	Messages() <-chan json.RawMessage
	Terminate() error
}

// Transport spawns one worker per connection.
type Transport struct {
	Spawn   func() (Worker, error)
	Options Options
}

var _ transport.Transport = (*Transport)(nil)

// Connect spawns a worker and posts the start command.
func (t *Transport) Connect() (transport.Connection, error) {
	if t.Spawn == nil {
		return nil, errors.New("worker transport has no spawn function")
	}
	w, err := t.Spawn()
	if err != nil {
		return nil, fmt.Errorf("spawning worker: %w", err)
	}

	start, err := json.Marshal(StartRequest{Command: StartCommand, Opts: t.Options})
	if err != nil {
		w.Terminate()
		return nil, fmt.Errorf("encoding start command: %w", err)
	}
	if err := w.PostMessage(start); err != nil {
		w.Terminate()
		return nil, fmt.Errorf("starting worker: %w", err)
	}

	c := &Connection{Stream: transport.NewStream(transport.DefaultBuffer), worker: w}
	go c.pump()
	return c, nil
}

// Connection is one worker.
type Connection struct {
	*transport.Stream

	worker Worker
	closed atomic.Bool
}

// Send posts msg to the worker unchanged.
func (c *Connection) Send(msg json.RawMessage) {
	if err := c.worker.PostMessage(msg); err != nil && !c.closed.Load() {
		go c.EmitError(transport.ConnectError(transport.ReasonWrite, err, "posting to worker: %v", err))
	}
}

// Close terminates the worker.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.Shutdown()
	return c.worker.Terminate()
}

func (c *Connection) pump() {
	for msg := range c.worker.Messages() {
		if gjson.GetBytes(msg, "response").String() == ErrorResponse {
			c.EmitError(unwrapError(msg))
			continue
		}
		c.EmitMessage(msg)
	}
	c.MarkDead()
	if !c.closed.Load() {
		log.Debug("worker exited")
		c.EmitError(transport.ConnectError(transport.ReasonWorkerExit, nil, "the worker has stopped"))
	}
}

func unwrapError(msg json.RawMessage) *transport.Error {
	var env ErrorEnvelope
	if err := json.Unmarshal(msg, &env); err != nil || env.Error == nil || env.Error.Kind == "" {
		return transport.MalformedError(string(msg), err)
	}
	return env.Error
}

// WrapError builds the envelope a worker posts for err.
func WrapError(err *transport.Error) json.RawMessage {
	raw, _ := json.Marshal(ErrorEnvelope{Response: ErrorResponse, Error: err})
	return raw
}
