// ABOUTME: Hardened HTTP client and server settings for asset downloads and the worker endpoint
// ABOUTME: Bounds handshakes and headers; leaves body timeouts open for long downloads and sockets

package http

import (
	"net/http"
	"time"
)

// AssetClient creates a client for fetching engine and library assets.
// timeout bounds each whole request; zero means none.
func AssetClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			TLSHandshakeTimeout:   10 * time.Second,
			ResponseHeaderTimeout: 30 * time.Second,
			IdleConnTimeout:       30 * time.Second,
			MaxIdleConns:          10,
			MaxIdleConnsPerHost:   4,
		},
	}
}

// WorkerServer creates a server for the worker WebSocket endpoint. Reads and
// writes are not deadlined because upgraded connections stay open for the
// whole session.
func WorkerServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}
}
