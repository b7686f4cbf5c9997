// ABOUTME: Host is the worker-side script: starts an engine on start-webworker and relays traffic
// ABOUTME: Engine messages are posted back verbatim, engine errors wrapped as webworker-error

package worker

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/pkg/transport"
	"github.com/mauromedda/lean-client-go/pkg/transport/invm"
)

// TransportFactory builds the engine transport for a start request.
type TransportFactory func(Options) transport.Transport

// InVMTransport fetches the engine, library and source map over HTTP.
func InVMTransport(client *http.Client) TransportFactory {
	return func(opts Options) transport.Transport {
		oleanMap := opts.LibraryOleanMap
		if oleanMap == "" && opts.LibraryZip != "" {
			oleanMap = invm.SourceMapURL(opts.LibraryZip)
		}
		mem := opts.MemoryMB
		if mem <= 0 {
			mem = invm.DefaultMemoryMB
		}
		return &invm.Transport{
			LoadEngine:    invm.EngineFromURL(client, opts.EngineWasm),
			LoadLibrary:   invm.LibraryFromURL(client, opts.LibraryZip, opts.LibraryMeta),
			LoadSourceMap: invm.SourceMapFromURL(client, oleanMap),
			MemoryMB:      mem,
		}
	}
}

// Host handles messages posted to a worker. Handle is not safe for
// concurrent use; post may be called from any goroutine.
type Host struct {
	newTransport TransportFactory
	post         func(json.RawMessage)

	conn transport.Connection
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once
}

// NewHost creates a host that replies through post.
func NewHost(post func(json.RawMessage), newTransport TransportFactory) *Host {
	if newTransport == nil {
		newTransport = InVMTransport(nil)
	}
	return &Host{newTransport: newTransport, post: post, done: make(chan struct{})}
}

// Handle processes one posted message.
func (h *Host) Handle(msg json.RawMessage) {
	if gjson.GetBytes(msg, "command").String() != StartCommand {
		if h.conn != nil {
			h.conn.Send(msg)
		}
		return
	}

	if h.conn != nil {
		log.Debug("worker already started, ignoring %s", StartCommand)
		return
	}
	var start StartRequest
	if err := json.Unmarshal(msg, &start); err != nil {
		h.post(WrapError(transport.MalformedError(string(msg), err)))
		return
	}

	conn, err := h.newTransport(start.Opts).Connect()
	if err != nil {
		var terr *transport.Error
		if !errors.As(err, &terr) {
			terr = transport.ConnectError(transport.ReasonEngineInit, err, "%v", err)
		}
		h.post(WrapError(terr))
		return
	}
	h.conn = conn

	h.wg.Add(1)
	go h.forward(conn)
}

func (h *Host) forward(conn transport.Connection) {
	defer h.wg.Done()
	for {
		select {
		case <-h.done:
			return
		case ev := <-conn.Events():
			if ev.Err != nil {
				h.post(WrapError(ev.Err))
			} else {
				h.post(ev.Message)
			}
		}
	}
}

// Close stops the engine and waits for the relay to exit. post must not
// block forever once Close has been called.
func (h *Host) Close() {
	h.once.Do(func() {
		close(h.done)
		if h.conn != nil {
			h.conn.Close()
		}
		h.wg.Wait()
	})
}
