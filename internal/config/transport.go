// ABOUTME: Builds the configured transport variant from a Config
// ABOUTME: process runs a child server, worker posts to a local or remote worker, invm loads the engine in memory

package config

import (
	"net/http"

	"github.com/mauromedda/lean-client-go/pkg/transport"
	"github.com/mauromedda/lean-client-go/pkg/transport/process"
	"github.com/mauromedda/lean-client-go/pkg/transport/worker"
)

// NewTransport returns the transport selected by c.Transport. client fetches
// engine and library assets for the worker and invm variants; nil means
// http.DefaultClient.
func (c *Config) NewTransport(client *http.Client) (transport.Transport, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	switch c.Transport {
	case TransportWorker:
		spawn := worker.LocalSpawner(worker.InVMTransport(client))
		if c.Worker.URL != "" {
			spawn = worker.DialSpawner(c.Worker.URL, nil)
		}
		return &worker.Transport{Spawn: spawn, Options: c.Worker.Options}, nil
	case TransportInVM:
		return worker.InVMTransport(client)(c.InVM), nil
	default:
		return &process.Transport{
			ExecutablePath:   c.Process.Executable,
			WorkingDirectory: c.Process.WorkingDirectory,
			Args:             c.Process.Args,
			Env:              c.Process.Env,
		}, nil
	}
}
