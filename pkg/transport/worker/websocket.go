// ABOUTME: Remote workers over WebSocket: Dial connects to a worker host, Handler serves one
// ABOUTME: Every WebSocket text frame carries exactly one JSON message in either direction

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mauromedda/lean-client-go/internal/log"
)

const (
	writeTimeout   = 10 * time.Second
	maxMessageSize = 64 * 1024 * 1024
)

// RemoteWorker is a worker reached over a WebSocket connection.
type RemoteWorker struct {
	conn *websocket.Conn
	out  chan json.RawMessage
	done chan struct{}
	mu   sync.Mutex
	once sync.Once
}

var _ Worker = (*RemoteWorker)(nil)

// Dial connects to a worker host at url (ws:// or wss://).
func Dial(ctx context.Context, url string, header http.Header) (*RemoteWorker, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, header)
	if err != nil {
		return nil, fmt.Errorf("dialing worker %s: %w", url, err)
	}
	conn.SetReadLimit(maxMessageSize)

	w := &RemoteWorker{
		conn: conn,
		out:  make(chan json.RawMessage, mailboxSize),
		done: make(chan struct{}),
	}
	go w.readLoop()
	return w, nil
}

// DialSpawner returns a Transport.Spawn func dialing url for each connection.
func DialSpawner(url string, header http.Header) func() (Worker, error) {
	return func() (Worker, error) {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return Dial(ctx, url, header)
	}
}

// PostMessage sends msg as one text frame.
func (w *RemoteWorker) PostMessage(msg json.RawMessage) error {
	select {
	case <-w.done:
		return ErrTerminated
	default:
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return w.conn.WriteMessage(websocket.TextMessage, msg)
}

// Messages is closed when the connection ends.
func (w *RemoteWorker) Messages() <-chan json.RawMessage {
	return w.out
}

// Terminate closes the connection; the remote host stops its engine.
func (w *RemoteWorker) Terminate() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		w.mu.Lock()
		w.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		w.mu.Unlock()
		err = w.conn.Close()
	})
	return err
}

func (w *RemoteWorker) readLoop() {
	defer close(w.out)
	for {
		_, data, err := w.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				select {
				case <-w.done:
				default:
					log.Debug("worker connection: %v", err)
				}
			}
			return
		}
		select {
		case w.out <- data:
		case <-w.done:
			return
		}
	}
}

// Handler serves a LocalWorker per WebSocket connection.
func Handler(newTransport TransportFactory) http.Handler {
	upgrader := &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     func(r *http.Request) bool { return true },
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(rw, r, nil)
		if err != nil {
			log.Warn("worker upgrade from %s: %v", r.RemoteAddr, err)
			return
		}
		serve(conn, NewLocalWorker(newTransport))
	})
}

func serve(conn *websocket.Conn, w *LocalWorker) {
	defer conn.Close()
	conn.SetReadLimit(maxMessageSize)
	log.Debug("worker %s serving %s", w.ID, conn.RemoteAddr())

	written := make(chan struct{})
	go func() {
		defer close(written)
		for msg := range w.Messages() {
			conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		if err := w.PostMessage(data); err != nil {
			break
		}
	}
	w.Terminate()
	conn.Close()
	<-written
}
