// ABOUTME: Tests for the HTTP loaders against an httptest server
// ABOUTME: Covers default index/source-map URLs and tolerance of missing optional files

package invm

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newLibraryServer(t *testing.T, withMeta bool) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/lib/library.zip", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("PK-archive"))
	})
	if withMeta {
		mux.HandleFunc("/lib/library.info.json", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"core":"https://src/core/"}`))
		})
	}
	mux.HandleFunc("/lib/library.olean_map.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"init/core":"core"}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestLibraryFromURL(t *testing.T) {
	t.Parallel()

	srv := newLibraryServer(t, true)
	lib, err := LibraryFromURL(srv.Client(), srv.URL+"/lib/library.zip", "")(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(lib.ZipBuffer) != "PK-archive" {
		t.Errorf("ZipBuffer = %q", lib.ZipBuffer)
	}
	if lib.URLs["core"] != "https://src/core/" {
		t.Errorf("URLs = %v", lib.URLs)
	}
}

func TestLibraryFromURL_MissingIndex(t *testing.T) {
	t.Parallel()

	srv := newLibraryServer(t, false)
	lib, err := LibraryFromURL(srv.Client(), srv.URL+"/lib/library.zip", "")(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if lib.URLs != nil {
		t.Errorf("URLs = %v, want nil", lib.URLs)
	}
}

func TestLibraryFromURL_NotZip(t *testing.T) {
	t.Parallel()

	lib, err := LibraryFromURL(nil, "https://example.org/library.tar", "")(context.Background())
	if err != nil || lib != nil {
		t.Errorf("got %v, %v; want no library", lib, err)
	}
}

func TestLibraryFromURL_MissingArchive(t *testing.T) {
	t.Parallel()

	srv := newLibraryServer(t, true)
	_, err := LibraryFromURL(srv.Client(), srv.URL+"/other/library.zip", "")(context.Background())
	var status *HTTPStatusError
	if !errors.As(err, &status) {
		t.Fatalf("err = %v, want HTTPStatusError", err)
	}
}

func TestSourceMapFromURL(t *testing.T) {
	t.Parallel()

	srv := newLibraryServer(t, true)
	url := SourceMapURL(srv.URL + "/lib/library.zip")
	if url != srv.URL+"/lib/library.olean_map.json" {
		t.Fatalf("SourceMapURL = %q", url)
	}

	m, err := SourceMapFromURL(srv.Client(), url)(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m["init/core"] != "core" {
		t.Errorf("map = %v", m)
	}

	m, err = SourceMapFromURL(srv.Client(), srv.URL+"/missing.json")(context.Background())
	if err != nil || m != nil {
		t.Errorf("missing map = %v, %v; want nil, nil", m, err)
	}
}
