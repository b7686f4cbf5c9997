// ABOUTME: LocalWorker runs a Host on its own goroutine behind a message-passing boundary
// ABOUTME: Inbound messages are handled in order; Terminate stops the engine and closes Messages

package worker

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"

	"github.com/mauromedda/lean-client-go/internal/log"
)

const mailboxSize = 64

// LocalWorker is an in-process worker.
type LocalWorker struct {
	ID string

	in      chan json.RawMessage
	out     chan json.RawMessage
	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

var _ Worker = (*LocalWorker)(nil)

// NewLocalWorker starts a worker whose engine is built by newTransport
// (InVMTransport(nil) when nil).
func NewLocalWorker(newTransport TransportFactory) *LocalWorker {
	w := &LocalWorker{
		ID:      uuid.NewString(),
		in:      make(chan json.RawMessage, mailboxSize),
		out:     make(chan json.RawMessage, mailboxSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go w.run(NewHost(w.post, newTransport))
	return w
}

// LocalSpawner returns a Transport.Spawn func creating local workers.
func LocalSpawner(newTransport TransportFactory) func() (Worker, error) {
	return func() (Worker, error) {
		return NewLocalWorker(newTransport), nil
	}
}

// PostMessage queues msg for the worker.
func (w *LocalWorker) PostMessage(msg json.RawMessage) error {
	select {
	case <-w.done:
		return ErrTerminated
	default:
	}
	select {
	case w.in <- msg:
		return nil
	case <-w.done:
		return ErrTerminated
	}
}

// Messages returns what the worker posts back.
func (w *LocalWorker) Messages() <-chan json.RawMessage {
	return w.out
}

// Terminate stops the worker and waits for it to exit.
func (w *LocalWorker) Terminate() error {
	w.once.Do(func() {
		close(w.done)
	})
	<-w.stopped
	return nil
}

func (w *LocalWorker) run(host *Host) {
	defer close(w.stopped)
	defer close(w.out)
	log.Debug("worker %s started", w.ID)

	for {
		select {
		case <-w.done:
			host.Close()
			log.Debug("worker %s terminated", w.ID)
			return
		case msg := <-w.in:
			host.Handle(msg)
		}
	}
}

func (w *LocalWorker) post(msg json.RawMessage) {
	select {
	case w.out <- msg:
	case <-w.done:
	}
}
