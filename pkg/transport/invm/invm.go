// ABOUTME: In-VM transport: hosts the Lean engine inside this process, one instance at a time
// ABOUTME: Loads engine, library and source map in parallel, then feeds queued requests to the engine

package invm

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/pkg/transport"
)

// ErrInstanceActive is returned by Connect while another in-VM connection is open.
var ErrInstanceActive = errors.New("cannot use more than one instance of the in-VM transport")

var errInvalidJSON = errors.New("invalid JSON")

// Library is a resolved library archive.
type Library struct {
	// ZipBuffer holds library.zip.
	ZipBuffer []byte
	// URLs maps Lean package names to URL prefixes of their sources.
	URLs map[string]string
}

// Transport runs the engine in-process.
type Transport struct {
	LoadEngine func(ctx context.Context) ([]byte, error)
	// LoadLibrary may be nil or return a nil library; nothing is mounted then.
	LoadLibrary func(ctx context.Context) (*Library, error)
	// LoadSourceMap returns the module -> package map. May be nil.
	LoadSourceMap func(ctx context.Context) (map[string]string, error)
	MemoryMB      int
	// Runtime defaults to WazeroRuntime.
	Runtime Runtime
}

var _ transport.Transport = (*Transport)(nil)

// slot holds the single active connection.
var slot struct {
	mu    sync.Mutex
	owner *Connection
}

// Connect claims the process-wide engine slot and starts initialisation in
// the background. It fails with ErrInstanceActive while another connection
// holds the slot, or when the transport has no LoadEngine.
func (t *Transport) Connect() (transport.Connection, error) {
	if t.LoadEngine == nil {
		return nil, errors.New("in-VM transport has no engine loader")
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()
	if slot.owner != nil {
		return nil, ErrInstanceActive
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Connection{
		Stream:  transport.NewStream(transport.DefaultBuffer),
		cancel:  cancel,
		wake:    make(chan struct{}, 1),
		stopped: make(chan struct{}),
	}
	slot.owner = c

	go c.run(ctx, t)
	return c, nil
}

// Connection is the in-VM engine connection.
type Connection struct {
	*transport.Stream

	cancel    context.CancelFunc
	closeOnce sync.Once
	stopped   chan struct{}

	mu      sync.Mutex
	queue   [][]byte
	failed  bool
	wake    chan struct{}
	rewrite *sourceRewriter
}

// Send queues msg until the engine is ready. After a failed initialisation
// sends are dropped.
func (c *Connection) Send(msg json.RawMessage) {
	c.mu.Lock()
	if c.failed {
		c.mu.Unlock()
		return
	}
	c.queue = append(c.queue, append([]byte(nil), msg...))
	c.mu.Unlock()

	select {
	case c.wake <- struct{}{}:
	default:
	}
}

// Close stops the engine and releases the process-wide slot.
func (c *Connection) Close() error {
	c.closeOnce.Do(func() {
		c.Shutdown()
		c.cancel()
		<-c.stopped

		slot.mu.Lock()
		if slot.owner == c {
			slot.owner = nil
		}
		slot.mu.Unlock()
	})
	return nil
}

func (c *Connection) run(ctx context.Context, t *Transport) {
	defer close(c.stopped)

	eng, err := c.start(ctx, t)
	if err != nil {
		c.mu.Lock()
		c.failed = true
		c.queue = nil
		c.mu.Unlock()
		c.MarkDead()
		if ctx.Err() == nil {
			log.Debug("in-VM engine failed to start: %v", err)
			c.EmitError(transport.ConnectError(transport.ReasonEngineInit, err,
				"could not start the in-process Lean engine: %v", err))
		}
		return
	}
	defer eng.Close(context.Background())
	log.Debug("in-VM engine initialized")

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.wake:
		}

		c.mu.Lock()
		batch := c.queue
		c.queue = nil
		c.mu.Unlock()

		for _, msg := range batch {
			if err := eng.ProcessRequest(ctx, msg); err != nil {
				if ctx.Err() != nil {
					return
				}
				c.EmitError(transport.ConnectError(transport.ReasonWrite, err,
					"engine rejected request: %v", err))
			}
		}
	}
}

func (c *Connection) start(ctx context.Context, t *Transport) (Engine, error) {
	var (
		binary    []byte
		lib       *Library
		sourceMap map[string]string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		b, err := t.LoadEngine(gctx)
		if err != nil {
			return fmt.Errorf("loading engine: %w", err)
		}
		binary = b
		return nil
	})
	if t.LoadLibrary != nil {
		g.Go(func() error {
			l, err := t.LoadLibrary(gctx)
			if err != nil {
				return fmt.Errorf("loading library: %w", err)
			}
			lib = l
			return nil
		})
	}
	if t.LoadSourceMap != nil {
		g.Go(func() error {
			m, err := t.LoadSourceMap(gctx)
			if err != nil {
				return fmt.Errorf("loading source map: %w", err)
			}
			sourceMap = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	host := Host{
		Stdout:   &lineWriter{emit: c.onStdout},
		Stderr:   &lineWriter{emit: c.onStderr},
		MemoryMB: t.MemoryMB,
	}
	if host.MemoryMB <= 0 {
		host.MemoryMB = DefaultMemoryMB
	}
	if lib != nil && len(lib.ZipBuffer) > 0 {
		zr, err := zip.NewReader(bytes.NewReader(lib.ZipBuffer), int64(len(lib.ZipBuffer)))
		if err != nil {
			return nil, fmt.Errorf("opening library archive: %w", err)
		}
		host.Library = zr
		c.rewrite = newSourceRewriter(lib.URLs, sourceMap)
	}

	rt := t.Runtime
	if rt == nil {
		rt = WazeroRuntime{}
	}
	eng, err := rt.Instantiate(ctx, binary, host)
	if err != nil {
		return nil, err
	}
	if err := eng.Init(ctx); err != nil {
		eng.Close(context.Background())
		return nil, err
	}
	return eng, nil
}

func (c *Connection) onStdout(line []byte) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return
	}
	if !gjson.ValidBytes(line) {
		c.EmitError(transport.MalformedError(string(line), errInvalidJSON))
		return
	}
	c.EmitMessage(c.rewrite.rewrite(line))
}

func (c *Connection) onStderr(line []byte) {
	c.EmitError(transport.StderrError(string(line)))
}

// lineWriter splits written bytes into lines and hands each to emit.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func([]byte)
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := append([]byte(nil), w.buf[:i]...)
		w.buf = w.buf[i+1:]
		w.emit(line)
	}
	return len(p), nil
}
