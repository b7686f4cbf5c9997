// ABOUTME: Future is the pending result of one request, settled exactly once by the session
// ABOUTME: Await honours context cancellation without removing the request from the pending table

package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/mauromedda/lean-client-go/pkg/protocol"
)

var (
	// ErrNotAlive is returned for requests made without a live connection.
	ErrNotAlive = errors.New("server is not alive")
	// ErrDisposed settles requests still pending when the session is disposed.
	ErrDisposed = errors.New("disposed")
	// ErrAlreadyConnected is returned by Connect on a connected session.
	ErrAlreadyConnected = errors.New("session is already connected")
	// ErrNoTransport is returned by Connect before a transport is set.
	ErrNoTransport = errors.New("session has no transport")
)

// RequestError is a non-ok response to a request.
type RequestError struct {
	SeqNum int64
	// Message is the response's message, or the whole response when it has none.
	Message  string
	Response json.RawMessage
}

func (e *RequestError) Error() string {
	return e.Message
}

func newRequestError(resp *protocol.Response) *RequestError {
	msg := resp.Message
	if msg == "" {
		msg = string(resp.Raw)
	}
	return &RequestError{SeqNum: resp.SeqNum, Message: msg, Response: resp.Raw}
}

// Future is the eventual response to a request.
type Future struct {
	// SeqNum is the assigned sequence number, or -1 if the request was never sent.
	SeqNum int64

	done chan struct{}
	once sync.Once
	resp *protocol.Response
	err  error
	// onSettle runs on the settling goroutine right after done is closed.
	onSettle func(*protocol.Response, error)
}

func newFuture(seq int64, onSettle func(*protocol.Response, error)) *Future {
	return &Future{SeqNum: seq, done: make(chan struct{}), onSettle: onSettle}
}

func failedFuture(err error, onSettle func(*protocol.Response, error)) *Future {
	f := newFuture(-1, onSettle)
	f.settle(nil, err)
	return f
}

func (f *Future) settle(resp *protocol.Response, err error) {
	settled := false
	f.once.Do(func() {
		f.resp, f.err = resp, err
		close(f.done)
		settled = true
	})
	if settled && f.onSettle != nil {
		f.onSettle(resp, err)
	}
}

// Done is closed once the future is settled.
func (f *Future) Done() <-chan struct{} {
	return f.done
}

// Result blocks until the future is settled.
func (f *Future) Result() (*protocol.Response, error) {
	<-f.done
	return f.resp, f.err
}

// Await waits for the result or for ctx to end. A cancelled wait leaves the
// request pending; its response is still consumed when it arrives.
func (f *Future) Await(ctx context.Context) (*protocol.Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
