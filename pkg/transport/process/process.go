// ABOUTME: Process transport: runs `lean --server` and speaks newline-delimited JSON over its stdio
// ABOUTME: stdout lines become messages, stderr chunks become stderr errors, exit becomes a connect error

package process

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"sync/atomic"

	"github.com/mauromedda/lean-client-go/internal/log"
	"github.com/mauromedda/lean-client-go/pkg/transport"
)

const (
	// DefaultExecutable is used when Transport.ExecutablePath is empty.
	DefaultExecutable = "lean"

	stdoutBufferSize = 64 * 1024
	stderrChunkSize  = 4096
)

// Transport launches a Lean server child process per connection.
type Transport struct {
	ExecutablePath   string
	WorkingDirectory string
	// Args are appended after --server.
	Args []string
	// Env entries override or extend the inherited environment.
	Env map[string]string
}

var _ transport.Transport = (*Transport)(nil)

// Connect starts the server. A process that cannot be started is reported
// as a *transport.Error of kind connect with reason process-startup.
func (t *Transport) Connect() (transport.Connection, error) {
	exe := t.ExecutablePath
	if exe == "" {
		exe = DefaultExecutable
	}
	args := append([]string{"--server"}, t.Args...)

	cmd := exec.Command(exe, args...)
	cmd.Dir = t.WorkingDirectory
	cmd.Env = buildEnv(os.Environ(), t.Env)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("creating stderr pipe: %w", err)
	}

	log.Debug("starting %s %v in %q", exe, args, t.WorkingDirectory)
	if err := cmd.Start(); err != nil {
		return nil, transport.ConnectError(transport.ReasonProcessStartup, err,
			"unable to start the Lean server process: %v", err)
	}

	c := &Connection{
		Stream: transport.NewStream(transport.DefaultBuffer),
		cmd:    cmd,
		stdin:  stdin,
	}

	var readers sync.WaitGroup
	readers.Add(2)
	go func() {
		defer readers.Done()
		c.readStdout(stdout)
	}()
	go func() {
		defer readers.Done()
		c.readStderr(stderr)
	}()
	go c.wait(&readers)

	return c, nil
}

// Connection is one running server process.
type Connection struct {
	*transport.Stream

	cmd    *exec.Cmd
	stdin  io.WriteCloser
	mu     sync.Mutex
	closed atomic.Bool
}

// Send writes msg followed by a newline to the server's stdin.
func (c *Connection) Send(msg json.RawMessage) {
	c.mu.Lock()
	defer c.mu.Unlock()

	line := make([]byte, 0, len(msg)+1)
	line = append(append(line, msg...), '\n')
	if _, err := c.stdin.Write(line); err != nil {
		if c.closed.Load() {
			return
		}
		terr := transport.ConnectError(transport.ReasonWrite, err, "writing to the Lean server: %v", err)
		go c.EmitError(terr)
	}
}

// Close kills the process. Exit after Close is not reported.
func (c *Connection) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.Shutdown()
	c.mu.Lock()
	c.stdin.Close()
	c.mu.Unlock()
	if c.cmd.Process != nil {
		if err := c.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
			return fmt.Errorf("killing Lean server: %w", err)
		}
	}
	return nil
}

// Pid returns the operating system process id.
func (c *Connection) Pid() int {
	return c.cmd.Process.Pid
}

// readStdout delivers stdout line by line. Lines have no length cap; a line
// longer than the read buffer is assembled before decoding.
func (c *Connection) readStdout(r io.Reader) {
	br := bufio.NewReaderSize(r, stdoutBufferSize)
	var long []byte
	for {
		chunk, err := br.ReadSlice('\n')
		if errors.Is(err, bufio.ErrBufferFull) {
			long = append(long, chunk...)
			continue
		}
		line := chunk
		if long != nil {
			line = append(long, chunk...)
			long = nil
		}
		if len(line) > 0 {
			c.deliver(line)
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !c.closed.Load() {
				c.EmitError(transport.MalformedError("", err))
			}
			return
		}
	}
}

func (c *Connection) deliver(line []byte) {
	ev, ok := transport.DecodeLine(line)
	if !ok {
		return
	}
	if ev.Err != nil {
		c.EmitError(ev.Err)
	} else {
		c.EmitMessage(ev.Message)
	}
}

func (c *Connection) readStderr(r io.Reader) {
	buf := make([]byte, stderrChunkSize)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			c.EmitError(transport.StderrError(string(buf[:n])))
		}
		if err != nil {
			return
		}
	}
}

// wait reaps the process once both output streams are drained so that the
// exit error is always the last event.
func (c *Connection) wait(readers *sync.WaitGroup) {
	readers.Wait()
	err := c.cmd.Wait()
	c.MarkDead()
	if c.closed.Load() {
		return
	}

	code := c.cmd.ProcessState.ExitCode()
	log.Debug("Lean server exited with code %d", code)
	c.EmitError(transport.ConnectError(transport.ReasonProcessExit, err,
		"The Lean server has stopped with error code %d.", code))
}

func buildEnv(base []string, overrides map[string]string) []string {
	env := append([]string(nil), base...)
	for k, v := range overrides {
		env = setEnv(env, k, v)
	}
	return platformEnv(env)
}

func setEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i, kv := range env {
		if len(kv) >= len(prefix) && envKeyEqual(kv[:len(prefix)], prefix) {
			env[i] = prefix + value
			return env
		}
	}
	return append(env, prefix+value)
}
