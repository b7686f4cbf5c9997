// ABOUTME: Tests for the in-VM transport against a fake runtime
// ABOUTME: Tests share the process-wide engine slot and therefore run sequentially

package invm

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tidwall/gjson"

	"github.com/mauromedda/lean-client-go/pkg/transport"
)

type fakeRuntime struct {
	initErr error
	instErr error

	mu      sync.Mutex
	engines []*fakeEngine
}

func (r *fakeRuntime) Instantiate(_ context.Context, binary []byte, host Host) (Engine, error) {
	if r.instErr != nil {
		return nil, r.instErr
	}
	e := &fakeEngine{rt: r, host: host, binary: string(binary)}
	r.mu.Lock()
	r.engines = append(r.engines, e)
	r.mu.Unlock()
	return e, nil
}

func (r *fakeRuntime) engine() *fakeEngine {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.engines) == 0 {
		return nil
	}
	return r.engines[len(r.engines)-1]
}

type fakeEngine struct {
	rt     *fakeRuntime
	host   Host
	binary string

	mu     sync.Mutex
	closed bool
}

func (e *fakeEngine) Init(context.Context) error {
	if e.rt.initErr != nil {
		return e.rt.initErr
	}
	fmt.Fprintln(e.host.Stderr, "starting lean...")
	return nil
}

func (e *fakeEngine) ProcessRequest(_ context.Context, req []byte) error {
	seq := gjson.GetBytes(req, "seq_num").Int()
	switch gjson.GetBytes(req, "command").String() {
	case "info":
		// Split across writes to exercise line reassembly.
		io.WriteString(e.host.Stdout, fmt.Sprintf(`{"response":"ok","seq_num":%d,`, seq))
		io.WriteString(e.host.Stdout, `"record":{"source":{"line":1,"column":0,"file":"/library/init/core.lean"}}}`+"\n")
	case "read":
		data, err := fs.ReadFile(e.host.Library, gjson.GetBytes(req, "file_name").String())
		if err != nil {
			return err
		}
		fmt.Fprintf(e.host.Stdout, `{"response":"ok","seq_num":%d,"content":%q}`+"\n", seq, string(data))
	case "garbage":
		io.WriteString(e.host.Stdout, "not json\n")
	case "fail":
		return errors.New("trap")
	default:
		fmt.Fprintf(e.host.Stdout, `{"response":"ok","seq_num":%d,"memory":%d,"binary":%q}`+"\n", seq, e.host.MemoryMB, e.binary)
	}
	return nil
}

func (e *fakeEngine) Close(context.Context) error {
	e.mu.Lock()
	e.closed = true
	e.mu.Unlock()
	return nil
}

func (e *fakeEngine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func staticEngine(ctx context.Context) ([]byte, error) {
	return []byte("wasm"), nil
}

func libraryZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("zip create: %v", err)
		}
		io.WriteString(w, content)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip close: %v", err)
	}
	return buf.Bytes()
}

// nextEvent skips stderr chatter and returns the next message or error.
func nextEvent(t *testing.T, c transport.Connection) transport.Event {
	t.Helper()
	for {
		select {
		case ev := <-c.Events():
			if ev.Err != nil && ev.Err.Kind == transport.KindStderr {
				continue
			}
			return ev
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func connect(t *testing.T, tr *Transport) transport.Connection {
	t.Helper()
	c, err := tr.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestConnect_SingleInstance(t *testing.T) {
	tr := &Transport{LoadEngine: staticEngine, Runtime: &fakeRuntime{}}

	first, err := tr.Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if _, err := tr.Connect(); !errors.Is(err, ErrInstanceActive) {
		t.Fatalf("second Connect err = %v, want ErrInstanceActive", err)
	}

	first.Close()
	second, err := tr.Connect()
	if err != nil {
		t.Fatalf("Connect after Close: %v", err)
	}
	second.Close()
}

func TestConnect_RequiresEngineLoader(t *testing.T) {
	if _, err := (&Transport{}).Connect(); err == nil {
		t.Fatal("expected error without LoadEngine")
	}
}

func TestSend_QueuedUntilInitialized(t *testing.T) {
	release := make(chan struct{})
	rt := &fakeRuntime{}
	tr := &Transport{
		LoadEngine: func(ctx context.Context) ([]byte, error) {
			<-release
			return []byte("lean.wasm"), nil
		},
		Runtime: rt,
	}
	c := connect(t, tr)

	c.Send([]byte(`{"command":"sync","seq_num":0}`))
	c.Send([]byte(`{"command":"sync","seq_num":1}`))
	close(release)

	for want := int64(0); want < 2; want++ {
		ev := nextEvent(t, c)
		if ev.Err != nil {
			t.Fatalf("unexpected error %v", ev.Err)
		}
		if got := gjson.GetBytes(ev.Message, "seq_num").Int(); got != want {
			t.Errorf("seq_num = %d, want %d", got, want)
		}
		if got := gjson.GetBytes(ev.Message, "memory").Int(); got != DefaultMemoryMB {
			t.Errorf("memory = %d, want %d", got, DefaultMemoryMB)
		}
		if got := gjson.GetBytes(ev.Message, "binary").String(); got != "lean.wasm" {
			t.Errorf("binary = %q", got)
		}
	}
}

func TestInitFailure(t *testing.T) {
	tests := []struct {
		name string
		tr   *Transport
	}{
		{"engine download", &Transport{
			LoadEngine: func(context.Context) ([]byte, error) { return nil, errors.New("404") },
			Runtime:    &fakeRuntime{},
		}},
		{"source map", &Transport{
			LoadEngine:    staticEngine,
			LoadSourceMap: func(context.Context) (map[string]string, error) { return nil, errors.New("dns") },
			Runtime:       &fakeRuntime{},
		}},
		{"instantiate", &Transport{LoadEngine: staticEngine, Runtime: &fakeRuntime{instErr: errors.New("bad magic")}}},
		{"lean_init", &Transport{LoadEngine: staticEngine, Runtime: &fakeRuntime{initErr: errors.New("abort")}}},
		{"corrupt library", &Transport{
			LoadEngine:  staticEngine,
			LoadLibrary: func(context.Context) (*Library, error) { return &Library{ZipBuffer: []byte("nope")}, nil },
			Runtime:     &fakeRuntime{},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := tt.tr.Connect()
			if err != nil {
				t.Fatalf("Connect: %v", err)
			}
			defer c.Close()

			c.Send([]byte(`{"command":"sync","seq_num":0}`))
			ev := nextEvent(t, c)
			if ev.Err == nil || ev.Err.Kind != transport.KindConnect || ev.Err.Reason != transport.ReasonEngineInit {
				t.Fatalf("event = %+v, want engine-init connect error", ev)
			}
			if !strings.HasPrefix(ev.Err.Message, "could not start the in-process Lean engine: ") {
				t.Errorf("Message = %q", ev.Err.Message)
			}
			if c.Alive() {
				t.Error("connection alive after failed init")
			}

			c.Send([]byte(`{"command":"sync","seq_num":1}`))
			select {
			case ev := <-c.Events():
				t.Errorf("unexpected event after failed init: %+v", ev)
			case <-time.After(50 * time.Millisecond):
			}
		})
	}
}

func TestLibraryMountAndSourceRewrite(t *testing.T) {
	zipBuf := libraryZip(t, map[string]string{"init/core.lean": "prelude"})
	tr := &Transport{
		LoadEngine: staticEngine,
		LoadLibrary: func(context.Context) (*Library, error) {
			return &Library{ZipBuffer: zipBuf, URLs: map[string]string{"core": "https://example.org/lean/library/"}}, nil
		},
		LoadSourceMap: func(context.Context) (map[string]string, error) {
			return map[string]string{"init/core": "core"}, nil
		},
		MemoryMB: 512,
		Runtime:  &fakeRuntime{},
	}
	c := connect(t, tr)

	c.Send([]byte(`{"command":"read","file_name":"init/core.lean","seq_num":0}`))
	ev := nextEvent(t, c)
	if ev.Err != nil {
		t.Fatalf("read: %v", ev.Err)
	}
	if got := gjson.GetBytes(ev.Message, "content").String(); got != "prelude" {
		t.Errorf("content = %q, want prelude", got)
	}

	c.Send([]byte(`{"command":"info","seq_num":1}`))
	ev = nextEvent(t, c)
	if ev.Err != nil {
		t.Fatalf("info: %v", ev.Err)
	}
	want := "https://example.org/lean/library/init/core.lean"
	if got := gjson.GetBytes(ev.Message, "record.source.file").String(); got != want {
		t.Errorf("source file = %q, want %q", got, want)
	}
}

func TestNoRewriteWithoutSourceMap(t *testing.T) {
	zipBuf := libraryZip(t, map[string]string{"init/core.lean": "prelude"})
	tr := &Transport{
		LoadEngine: staticEngine,
		LoadLibrary: func(context.Context) (*Library, error) {
			return &Library{ZipBuffer: zipBuf, URLs: map[string]string{"core": "https://example.org/"}}, nil
		},
		Runtime: &fakeRuntime{},
	}
	c := connect(t, tr)

	c.Send([]byte(`{"command":"info","seq_num":0}`))
	ev := nextEvent(t, c)
	if got := gjson.GetBytes(ev.Message, "record.source.file").String(); got != "/library/init/core.lean" {
		t.Errorf("source file = %q, want unchanged", got)
	}
}

func TestMalformedAndEngineErrors(t *testing.T) {
	c := connect(t, &Transport{LoadEngine: staticEngine, Runtime: &fakeRuntime{}})

	c.Send([]byte(`{"command":"garbage","seq_num":0}`))
	ev := nextEvent(t, c)
	if ev.Err == nil || ev.Err.Kind != transport.KindMalformed {
		t.Fatalf("event = %+v, want malformed", ev)
	}
	if ev.Err.Message != "cannot parse: not json, error: invalid JSON" {
		t.Errorf("Message = %q", ev.Err.Message)
	}

	c.Send([]byte(`{"command":"fail","seq_num":1}`))
	ev = nextEvent(t, c)
	if ev.Err == nil || ev.Err.Reason != transport.ReasonWrite {
		t.Fatalf("event = %+v, want write error", ev)
	}
	if !c.Alive() {
		t.Error("engine trap should not kill the connection")
	}
}

func TestStderrForwarded(t *testing.T) {
	c := connect(t, &Transport{LoadEngine: staticEngine, Runtime: &fakeRuntime{}})

	select {
	case ev := <-c.Events():
		if ev.Err == nil || ev.Err.Kind != transport.KindStderr || ev.Err.Chunk != "starting lean..." {
			t.Errorf("event = %+v, want stderr chunk", ev)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no stderr event")
	}
}

func TestClose_StopsEngine(t *testing.T) {
	rt := &fakeRuntime{}
	c, err := (&Transport{LoadEngine: staticEngine, Runtime: rt}).Connect()
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	c.Send([]byte(`{"command":"sync","seq_num":0}`))
	nextEvent(t, c)

	if err := c.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if c.Alive() {
		t.Error("alive after Close")
	}
	if e := rt.engine(); e == nil || !e.isClosed() {
		t.Error("engine not closed")
	}
}
