// ABOUTME: Rewrites /library source paths in engine responses to browsable source URLs
// ABOUTME: Uses the module->package source map and the package->URL-prefix index of the library

package invm

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// sourceRewriter maps /library/<mod>.lean to <prefix><mod>.lean.
type sourceRewriter struct {
	urls      map[string]string // package -> URL prefix
	sourceMap map[string]string // module -> package
}

// newSourceRewriter returns nil unless both indexes are available.
func newSourceRewriter(urls, sourceMap map[string]string) *sourceRewriter {
	if urls == nil || sourceMap == nil {
		return nil
	}
	return &sourceRewriter{urls: urls, sourceMap: sourceMap}
}

func (r *sourceRewriter) url(file string) string {
	prefix := LibraryMount + "/"
	if !strings.HasPrefix(file, prefix) || !strings.HasSuffix(file, ".lean") {
		return file
	}
	mod := strings.TrimSuffix(strings.TrimPrefix(file, prefix), ".lean")
	base := r.urls[r.sourceMap[mod]]
	if base == "" {
		return file
	}
	return base + mod + ".lean"
}

// rewrite applies to hover, search, and completion responses; anything else
// is returned unchanged.
func (r *sourceRewriter) rewrite(msg []byte) []byte {
	if r == nil {
		return msg
	}
	if f := gjson.GetBytes(msg, "record.source.file"); f.String() != "" {
		return r.set(msg, "record.source.file", f.String())
	}
	if gjson.GetBytes(msg, "results").Exists() && gjson.GetBytes(msg, "file").String() == "" {
		return r.setEach(msg, "results")
	}
	if gjson.GetBytes(msg, "completions").Exists() {
		return r.setEach(msg, "completions")
	}
	return msg
}

func (r *sourceRewriter) setEach(msg []byte, key string) []byte {
	for i, item := range gjson.GetBytes(msg, key).Array() {
		if f := item.Get("source.file"); f.String() != "" {
			msg = r.set(msg, fmt.Sprintf("%s.%d.source.file", key, i), f.String())
		}
	}
	return msg
}

func (r *sourceRewriter) set(msg []byte, path, file string) []byte {
	url := r.url(file)
	if url == file {
		return msg
	}
	out, err := sjson.SetBytes(msg, path, url)
	if err != nil {
		return msg
	}
	return out
}
