// ABOUTME: Proxy connections let further sessions share this session's server connection
// ABOUTME: Requests are re-issued through the parent and answered with the caller's own seq_num

package session

import (
	"encoding/json"
	"sync"

	"github.com/mauromedda/lean-client-go/pkg/protocol"
	"github.com/mauromedda/lean-client-go/pkg/transport"
)

// ProxyTransport returns a transport whose connections ride on s's current
// connection without clashing with its seq_nums.
func (s *Session) ProxyTransport() transport.Transport {
	return transport.Func(func() (transport.Connection, error) {
		return newProxyConnection(s), nil
	})
}

// ProxyConnection is a connection backed by a parent session.
type ProxyConnection struct {
	*transport.Stream

	parent *Session
	once   sync.Once
	unsubs []func()
}

func newProxyConnection(parent *Session) *ProxyConnection {
	p := &ProxyConnection{Stream: transport.NewStream(transport.DefaultBuffer), parent: parent}
	p.unsubs = append(p.unsubs,
		parent.Messages().Subscribe(func(raw json.RawMessage) {
			if !protocol.HasSeqNum(raw) {
				p.EmitMessage(raw)
			}
		}),
		parent.Errors().Subscribe(func(err *transport.Error) {
			if err.Kind == transport.KindUnrelated {
				retagged := *err
				retagged.Kind = transport.KindConnect
				err = &retagged
			}
			p.EmitError(err)
		}),
	)
	return p
}

// Send forwards msg through the parent and emits the settled result tagged
// with msg's own seq_num. The result is emitted where the parent settles the
// request, so it keeps its place relative to forwarded broadcasts.
func (p *ProxyConnection) Send(msg json.RawMessage) {
	seq, hasSeq := protocol.SeqNumOf(msg)
	stripped, err := protocol.WithoutSeqNum(msg)
	if err != nil {
		p.EmitMessage(protocol.ErrorResponse(err.Error(), seq, hasSeq))
		return
	}

	p.parent.send(protocol.RawRequest(stripped), func(resp *protocol.Response, err error) {
		p.EmitMessage(proxyResult(resp, err, seq, hasSeq))
	})
}

func proxyResult(resp *protocol.Response, err error, seq int64, hasSeq bool) json.RawMessage {
	if err != nil {
		return protocol.ErrorResponse(err.Error(), seq, hasSeq)
	}
	var (
		out []byte
		rerr error
	)
	if hasSeq {
		out, rerr = protocol.WithSeqNum(resp.Raw, seq)
	} else {
		out, rerr = protocol.WithoutSeqNum(resp.Raw)
	}
	if rerr != nil {
		return protocol.ErrorResponse(rerr.Error(), seq, hasSeq)
	}
	return out
}

// Alive reports the parent's liveness.
func (p *ProxyConnection) Alive() bool {
	return p.parent.Alive()
}

// Close detaches from the parent. The parent connection stays open.
func (p *ProxyConnection) Close() error {
	p.once.Do(func() {
		for _, unsub := range p.unsubs {
			unsub()
		}
		p.Shutdown()
	})
	return nil
}
