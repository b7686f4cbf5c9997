// ABOUTME: HTTP loaders for the engine binary, library archive, library index and source map
// ABOUTME: Index and source map are optional: a missing one disables source rewriting

package invm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/mauromedda/lean-client-go/internal/log"
)

// HTTPStatusError reports a non-200 response.
type HTTPStatusError struct {
	URL    string
	Status string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("could not fetch %s: http code %s", e.URL, e.Status)
}

// FetchURL downloads url with client (http.DefaultClient when nil).
func FetchURL(ctx context.Context, client *http.Client, url string) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &HTTPStatusError{URL: url, Status: resp.Status}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return body, nil
}

// EngineFromURL returns a LoadEngine func fetching the engine binary.
func EngineFromURL(client *http.Client, url string) func(context.Context) ([]byte, error) {
	return func(ctx context.Context) ([]byte, error) {
		return FetchURL(ctx, client, url)
	}
}

// LibraryFromURL returns a LoadLibrary func. Only .zip URLs are loaded; any
// other value yields no library. metaURL defaults to the archive URL with
// its "zip" extension replaced by "info.json"; failing to fetch it only
// disables source rewriting.
func LibraryFromURL(client *http.Client, zipURL, metaURL string) func(context.Context) (*Library, error) {
	return func(ctx context.Context) (*Library, error) {
		if zipURL == "" || !strings.HasSuffix(strings.ToLower(zipURL), ".zip") {
			return nil, nil
		}
		if metaURL == "" {
			metaURL = zipURL[:len(zipURL)-3] + "info.json"
		}

		buf, err := FetchURL(ctx, client, zipURL)
		if err != nil {
			return nil, err
		}
		lib := &Library{ZipBuffer: buf}

		meta, err := FetchURL(ctx, client, metaURL)
		if err != nil {
			log.Debug("library index unavailable: %v", err)
			return lib, nil
		}
		if err := json.Unmarshal(meta, &lib.URLs); err != nil {
			log.Debug("library index %s: %v", metaURL, err)
			lib.URLs = nil
		}
		return lib, nil
	}
}

// SourceMapURL derives the default source map location from the archive URL.
func SourceMapURL(zipURL string) string {
	if len(zipURL) < 3 {
		return ""
	}
	return zipURL[:len(zipURL)-3] + "olean_map.json"
}

// SourceMapFromURL returns a LoadSourceMap func. A non-200 response yields
// no map; transport failures are errors.
func SourceMapFromURL(client *http.Client, url string) func(context.Context) (map[string]string, error) {
	return func(ctx context.Context) (map[string]string, error) {
		if url == "" {
			return nil, nil
		}
		body, err := FetchURL(ctx, client, url)
		if err != nil {
			var status *HTTPStatusError
			if errors.As(err, &status) {
				return nil, nil
			}
			return nil, err
		}
		var m map[string]string
		if err := json.Unmarshal(body, &m); err != nil {
			return nil, fmt.Errorf("decoding source map %s: %w", url, err)
		}
		return m, nil
	}
}
