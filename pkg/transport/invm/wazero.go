// ABOUTME: wazero-backed Runtime: loads a WASI reactor build of the Lean engine
// ABOUTME: Requests are copied into engine memory as NUL-terminated UTF-8 via malloc/free exports

package invm

import (
	"context"
	"errors"
	"fmt"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

const wasmPageSize = 64 * 1024

// WazeroRuntime runs the engine with wazero.
type WazeroRuntime struct{}

var _ Runtime = WazeroRuntime{}

// Instantiate compiles binary and instantiates it as a WASI reactor.
func (WazeroRuntime) Instantiate(ctx context.Context, binary []byte, host Host) (Engine, error) {
	mb := host.MemoryMB
	if mb <= 0 {
		mb = DefaultMemoryMB
	}
	if mb > MaxMemoryMB {
		return nil, fmt.Errorf("engine memory %d MB exceeds the %d MB wasm limit", mb, MaxMemoryMB)
	}
	// Calls observe ctx so Close does not wait on a request stuck in the engine.
	cfg := wazero.NewRuntimeConfig().
		WithMemoryLimitPages(uint32(mb * 1024 * 1024 / wasmPageSize)).
		WithCloseOnContextDone(true)
	rt := wazero.NewRuntimeWithConfig(ctx, cfg)

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiating WASI: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, binary)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("compiling engine: %w", err)
	}

	fsCfg := wazero.NewFSConfig()
	if host.Library != nil {
		fsCfg = fsCfg.WithFSMount(host.Library, LibraryMount)
	}
	modCfg := wazero.NewModuleConfig().
		WithName("lean").
		WithStdout(host.Stdout).
		WithStderr(host.Stderr).
		WithFSConfig(fsCfg).
		WithSysWalltime().
		WithStartFunctions("_initialize")

	mod, err := rt.InstantiateModule(ctx, compiled, modCfg)
	if err != nil {
		rt.Close(ctx)
		return nil, fmt.Errorf("instantiating engine: %w", err)
	}

	e := &wazeroEngine{rt: rt, mod: mod}
	var missing []string
	lookup := func(names ...string) api.Function {
		for _, n := range names {
			if fn := mod.ExportedFunction(n); fn != nil {
				return fn
			}
		}
		missing = append(missing, names[0])
		return nil
	}
	e.malloc = lookup("malloc", "_malloc")
	e.free = lookup("free", "_free")
	e.init = lookup("lean_init", "_lean_init")
	e.process = lookup("lean_process_request", "_lean_process_request")
	if len(missing) > 0 {
		rt.Close(ctx)
		return nil, fmt.Errorf("engine is missing exports %v", missing)
	}
	return e, nil
}

type wazeroEngine struct {
	rt      wazero.Runtime
	mod     api.Module
	malloc  api.Function
	free    api.Function
	init    api.Function
	process api.Function
}

func (e *wazeroEngine) Init(ctx context.Context) error {
	if _, err := e.init.Call(ctx); err != nil {
		return fmt.Errorf("lean_init: %w", err)
	}
	return nil
}

func (e *wazeroEngine) ProcessRequest(ctx context.Context, req []byte) error {
	buf := make([]byte, len(req)+1)
	copy(buf, req)

	res, err := e.malloc.Call(ctx, uint64(len(buf)))
	if err != nil {
		return fmt.Errorf("malloc: %w", err)
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return errors.New("malloc: engine out of memory")
	}
	defer e.free.Call(ctx, uint64(ptr))

	if !e.mod.Memory().Write(ptr, buf) {
		return fmt.Errorf("request of %d bytes does not fit engine memory at %#x", len(buf), ptr)
	}
	if _, err := e.process.Call(ctx, uint64(ptr)); err != nil {
		return fmt.Errorf("lean_process_request: %w", err)
	}
	return nil
}

func (e *wazeroEngine) Close(ctx context.Context) error {
	return e.rt.Close(ctx)
}
