// ABOUTME: Session multiplexes requests over one transport connection and demultiplexes its output
// ABOUTME: Correlates responses by seq_num, caches diagnostics, and rebroadcasts push notifications

package session

import (
	"encoding/json"
	"errors"
	"slices"
	"sort"
	"sync"

	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/pkg/eventbus"
	"github.com/mauromedda/lean-client-go/pkg/protocol"
	"github.com/mauromedda/lean-client-go/pkg/transport"
)

// Session is a client of one Lean server at a time.
//
// Broadcast handlers run on the session's dispatch goroutine, in the order
// the server produced the messages. A handler may issue requests with Go but
// must not wait on their results.
type Session struct {
	// sendMu serialises Go so requests reach the connection in seq_num order.
	sendMu sync.Mutex

	mu        sync.Mutex
	transport transport.Transport
	conn      transport.Connection
	gen       uint64
	stop      chan struct{}
	seq       int64
	pending   map[int64]*Future
	current   []protocol.Message

	messages    *eventbus.Bus[json.RawMessage]
	errors      *eventbus.Bus[*transport.Error]
	allMessages *eventbus.Bus[*protocol.AllMessagesResponse]
	tasks       *eventbus.Bus[*protocol.CurrentTasksResponse]
}

// New creates a disconnected session. t may be nil and set later.
func New(t transport.Transport) *Session {
	return &Session{
		transport:   t,
		pending:     make(map[int64]*Future),
		current:     []protocol.Message{},
		messages:    eventbus.New[json.RawMessage](),
		errors:      eventbus.New[*transport.Error](),
		allMessages: eventbus.New[*protocol.AllMessagesResponse](),
		tasks:       eventbus.New[*protocol.CurrentTasksResponse](),
	}
}

// SetTransport replaces the transport used by the next Connect.
func (s *Session) SetTransport(t transport.Transport) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transport = t
}

// Messages carries every inbound message, after the session has handled it.
func (s *Session) Messages() *eventbus.Bus[json.RawMessage] { return s.messages }

// Errors carries transport errors and unrelated server errors.
func (s *Session) Errors() *eventbus.Bus[*transport.Error] { return s.errors }

// AllMessages carries the full diagnostic set whenever it changes.
func (s *Session) AllMessages() *eventbus.Bus[*protocol.AllMessagesResponse] { return s.allMessages }

// Tasks carries progress snapshots.
func (s *Session) Tasks() *eventbus.Bus[*protocol.CurrentTasksResponse] { return s.tasks }

// Connect opens a connection through the transport. A connect-kind
// transport error is also published on Errors.
func (s *Session) Connect() error {
	s.mu.Lock()
	if s.conn != nil {
		s.mu.Unlock()
		return ErrAlreadyConnected
	}
	if s.transport == nil {
		s.mu.Unlock()
		return ErrNoTransport
	}

	conn, err := s.transport.Connect()
	if err != nil {
		s.mu.Unlock()
		var terr *transport.Error
		if errors.As(err, &terr) {
			s.errors.Publish(terr)
		}
		return err
	}

	s.gen++
	gen := s.gen
	stop := make(chan struct{})
	s.conn = conn
	s.stop = stop
	s.mu.Unlock()

	log.Debug("session connected (generation %d)", gen)
	go s.dispatch(gen, conn, stop)
	return nil
}

// Dispose closes the connection and rejects every pending request with
// ErrDisposed, in seq_num order. The diagnostic cache is kept.
func (s *Session) Dispose() {
	s.mu.Lock()
	conn, stop := s.conn, s.stop
	if conn == nil {
		s.mu.Unlock()
		return
	}
	pending := s.pending
	s.pending = make(map[int64]*Future)
	s.conn = nil
	s.stop = nil
	s.seq = 0
	s.gen++
	s.mu.Unlock()

	close(stop)
	if err := conn.Close(); err != nil {
		log.Debug("closing connection: %v", err)
	}

	seqs := make([]int64, 0, len(pending))
	for seq := range pending {
		seqs = append(seqs, seq)
	}
	sort.Slice(seqs, func(i, j int) bool { return seqs[i] < seqs[j] })
	for _, seq := range seqs {
		pending[seq].settle(nil, ErrDisposed)
	}
}

// Restart disposes the current connection and connects again. Nothing is
// replayed on the new connection.
func (s *Session) Restart() error {
	s.Dispose()
	return s.Connect()
}

// Alive reports whether a connection is attached and alive.
func (s *Session) Alive() bool {
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	return conn != nil && conn.Alive()
}

// CurrentMessages returns a copy of the cached diagnostics.
func (s *Session) CurrentMessages() []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.current)
}

// Go sends req and returns its Future without waiting. Without a live
// connection the Future fails with ErrNotAlive and no seq_num is used.
func (s *Session) Go(req protocol.Request) *Future {
	return s.send(req, nil)
}

// send is Go with a hook that runs where the Future is settled. For a
// response that is the dispatch goroutine, before any later message is
// handled.
func (s *Session) send(req protocol.Request, onSettle func(*protocol.Response, error)) *Future {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	s.mu.Lock()
	conn := s.conn
	if conn == nil || !conn.Alive() {
		s.mu.Unlock()
		return failedFuture(ErrNotAlive, onSettle)
	}
	raw, err := protocol.Encode(req, s.seq)
	if err != nil {
		s.mu.Unlock()
		return failedFuture(err, onSettle)
	}
	f := newFuture(s.seq, onSettle)
	s.pending[s.seq] = f
	s.seq++
	s.mu.Unlock()

	log.Debug("=> server: %s", raw)
	conn.Send(raw)
	return f
}

func (s *Session) dispatch(gen uint64, conn transport.Connection, stop <-chan struct{}) {
	events := conn.Events()
	for {
		select {
		case <-stop:
			return
		case ev := <-events:
			if ev.Err != nil {
				if s.isCurrent(gen) {
					s.errors.Publish(ev.Err)
				}
				continue
			}
			s.handle(gen, ev.Message)
		}
	}
}

func (s *Session) isCurrent(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen == gen
}

// handle routes one inbound message: a pending request first, then the
// diagnostic and progress broadcasts, and anything else as an unrelated error.
func (s *Session) handle(gen uint64, raw json.RawMessage) {
	log.Debug("<= server: %s", raw)
	resp := protocol.ParseResponse(raw)

	s.mu.Lock()
	if s.gen != gen {
		s.mu.Unlock()
		return
	}

	if resp.HasSeqNum {
		if f, ok := s.pending[resp.SeqNum]; ok {
			delete(s.pending, resp.SeqNum)
			s.mu.Unlock()
			if resp.Kind == protocol.ResponseOK {
				f.settle(resp, nil)
			} else {
				f.settle(resp, newRequestError(resp))
			}
			s.messages.Publish(raw)
			return
		}
	}

	var (
		all   *protocol.AllMessagesResponse
		tasks *protocol.CurrentTasksResponse
		terr  *transport.Error
	)
	switch resp.Kind {
	case protocol.ResponseAllMessages:
		decoded, err := protocol.DecodeAllMessages(raw)
		if err != nil {
			terr = transport.MalformedError(string(raw), err)
			break
		}
		if decoded.Msgs == nil {
			decoded.Msgs = []protocol.Message{}
		}
		s.current = decoded.Msgs
		all = decoded
	case protocol.ResponseAdditionalMessage:
		decoded, err := protocol.DecodeAdditionalMessage(raw)
		if err != nil {
			terr = transport.MalformedError(string(raw), err)
			break
		}
		next := make([]protocol.Message, len(s.current), len(s.current)+1)
		copy(next, s.current)
		s.current = append(next, decoded.Msg)
		all = &protocol.AllMessagesResponse{Response: protocol.ResponseAllMessages, Msgs: s.current}
	case protocol.ResponseCurrentTasks:
		decoded, err := protocol.DecodeCurrentTasks(raw)
		if err != nil {
			terr = transport.MalformedError(string(raw), err)
			break
		}
		tasks = decoded
	default:
		msg := resp.Message
		if msg == "" {
			msg = string(raw)
		}
		terr = &transport.Error{Kind: transport.KindUnrelated, Message: msg}
	}
	s.mu.Unlock()

	switch {
	case all != nil:
		s.allMessages.Publish(all)
	case tasks != nil:
		s.tasks.Publish(tasks)
	case terr != nil:
		s.errors.Publish(terr)
	}
	s.messages.Publish(raw)
}
