// ABOUTME: Transport error taxonomy: connect, stderr, malformed, and unrelated broadcasts
// ABOUTME: Errors are values delivered on the event stream, never returned from Send

package transport

import "fmt"

// ErrorKind classifies a transport error.
type ErrorKind string

const (
	// KindConnect: the server failed to start, crashed, or exited.
	KindConnect ErrorKind = "connect"
	// KindStderr: incidental output on the server's error stream.
	KindStderr ErrorKind = "stderr"
	// KindMalformed: an inbound chunk could not be parsed as a message.
	KindMalformed ErrorKind = "malformed"
	// KindUnrelated: a message the session could neither correlate nor classify.
	KindUnrelated ErrorKind = "unrelated"
)

// Reasons attached to connect errors.
const (
	ReasonProcessStartup = "process-startup"
	ReasonProcessExit    = "process-exit"
	ReasonEngineInit     = "engine-init"
	ReasonWorkerExit     = "worker-exit"
	ReasonWrite          = "write"
)

// Error is a transport-level failure or diagnostic.
type Error struct {
	Kind    ErrorKind `json:"error"`
	Reason  string    `json:"reason,omitempty"`
	Message string    `json:"message,omitempty"`
	// Chunk holds the raw text of stderr errors.
	Chunk string `json:"chunk,omitempty"`
	Err   error  `json:"-"`
}

func (e *Error) Error() string {
	switch {
	case e.Kind == KindStderr:
		return fmt.Sprintf("stderr: %s", e.Chunk)
	case e.Reason != "":
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Reason, e.Message)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ConnectError builds a KindConnect error.
func ConnectError(reason string, err error, format string, args ...any) *Error {
	return &Error{Kind: KindConnect, Reason: reason, Message: fmt.Sprintf(format, args...), Err: err}
}

// StderrError builds a KindStderr error for one chunk of output.
func StderrError(chunk string) *Error {
	return &Error{Kind: KindStderr, Chunk: chunk}
}

// MalformedError builds a KindMalformed error for an unparsable chunk.
func MalformedError(chunk string, err error) *Error {
	msg := fmt.Sprintf("cannot parse: %s", chunk)
	if err != nil {
		msg = fmt.Sprintf("cannot parse: %s, error: %v", chunk, err)
	}
	return &Error{Kind: KindMalformed, Message: msg, Chunk: chunk, Err: err}
}
