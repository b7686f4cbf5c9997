// ABOUTME: Markdown renderer wrapper around glamour for declaration docs
// ABOUTME: Caches rendered results keyed by content hash + width

package render

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
)

// MarkdownRenderer wraps glamour to render markdown with caching.
type MarkdownRenderer struct {
	color bool

	mu    sync.Mutex
	cache map[string]string // "hash:width" -> rendered
}

// NewMarkdownRenderer creates a renderer. Without color the "notty" style
// is used.
func NewMarkdownRenderer(color bool) *MarkdownRenderer {
	return &MarkdownRenderer{color: color, cache: make(map[string]string)}
}

// Render returns the terminal rendering of md, or md itself if glamour fails.
func (r *MarkdownRenderer) Render(md string, width int) string {
	if md == "" {
		return ""
	}

	key := cacheKey(md, width)
	r.mu.Lock()
	cached, ok := r.cache[key]
	r.mu.Unlock()
	if ok {
		return cached
	}

	style := glamour.WithStandardStyle("notty")
	if r.color {
		style = glamour.WithAutoStyle()
	}
	renderer, err := glamour.NewTermRenderer(style, glamour.WithWordWrap(width))
	if err != nil {
		return md
	}
	rendered, err := renderer.Render(md)
	if err != nil {
		return md
	}
	rendered = strings.Trim(rendered, "\n ")

	r.mu.Lock()
	r.cache[key] = rendered
	r.mu.Unlock()
	return rendered
}

func cacheKey(content string, width int) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x:%d", h[:8], width)
}
