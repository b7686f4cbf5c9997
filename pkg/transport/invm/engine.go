// ABOUTME: Runtime and Engine abstractions for running the Lean engine inside this process
// ABOUTME: The runtime instantiates a compiled engine binary against a Host's output streams and library

package invm

import (
	"context"
	"io"
	"io/fs"
)

// DefaultMemoryMB is the engine memory ceiling used when none is configured.
const DefaultMemoryMB = 256

// MaxMemoryMB is the largest memory ceiling a 32-bit wasm engine can address.
const MaxMemoryMB = 4096

// LibraryMount is where the library archive is visible inside the engine.
const LibraryMount = "/library"

// Host is what the engine sees of the outside world.
type Host struct {
	// Stdout receives the engine's text output, one JSON message per line.
	Stdout io.Writer
	// Stderr receives diagnostic output.
	Stderr io.Writer
	// Library is mounted read-only at LibraryMount. May be nil.
	Library fs.FS
	// MemoryMB caps the engine's linear memory.
	MemoryMB int
}

// Runtime instantiates engine binaries.
type Runtime interface {
	Instantiate(ctx context.Context, binary []byte, host Host) (Engine, error)
}

// Engine is an instantiated Lean engine.
type Engine interface {
	// Init runs the engine's ready entry point.
	Init(ctx context.Context) error
	// ProcessRequest hands one encoded request to the engine. Responses are
	// written to the Host's Stdout.
	ProcessRequest(ctx context.Context, req []byte) error
	Close(ctx context.Context) error
}
