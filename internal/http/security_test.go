// ABOUTME: Tests for the hardened HTTP client and worker server settings
// ABOUTME: Checks the timeouts that matter for long-lived worker sockets

package http

import (
	"net/http"
	"testing"
	"time"
)

func TestAssetClient(t *testing.T) {
	t.Parallel()

	c := AssetClient(time.Minute)
	if c.Timeout != time.Minute {
		t.Errorf("Timeout = %v, want 1m", c.Timeout)
	}
	tr, ok := c.Transport.(*http.Transport)
	if !ok {
		t.Fatalf("Transport = %T, want *http.Transport", c.Transport)
	}
	if tr.TLSHandshakeTimeout == 0 || tr.ResponseHeaderTimeout == 0 {
		t.Error("handshake and header timeouts must be set")
	}
}

func TestWorkerServer(t *testing.T) {
	t.Parallel()

	s := WorkerServer(http.NotFoundHandler(), ":0")
	if s.ReadHeaderTimeout == 0 {
		t.Error("ReadHeaderTimeout must be set")
	}
	if s.ReadTimeout != 0 || s.WriteTimeout != 0 {
		t.Errorf("Read/WriteTimeout = %v/%v, want none for websockets", s.ReadTimeout, s.WriteTimeout)
	}
	if s.Addr != ":0" {
		t.Errorf("Addr = %q", s.Addr)
	}
}
