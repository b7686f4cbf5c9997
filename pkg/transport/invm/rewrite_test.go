// ABOUTME: Tests for library source path rewriting in hover, search and completion responses
// ABOUTME: Paths whose module or package is unknown are left untouched

package invm

import (
	"testing"

	"github.com/tidwall/gjson"
)

func TestSourceRewriter(t *testing.T) {
	t.Parallel()

	r := newSourceRewriter(
		map[string]string{"core": "https://src/core/", "mathlib": "https://src/mathlib/"},
		map[string]string{"init/core": "core", "data/nat/basic": "mathlib", "orphan": "nowhere"},
	)

	tests := []struct {
		name string
		in   string
		path string
		want string
	}{
		{
			"hover",
			`{"response":"ok","record":{"source":{"line":1,"column":0,"file":"/library/init/core.lean"}}}`,
			"record.source.file", "https://src/core/init/core.lean",
		},
		{
			"search",
			`{"response":"ok","results":[{"text":"a"},{"text":"b","source":{"file":"/library/data/nat/basic.lean"}}]}`,
			"results.1.source.file", "https://src/mathlib/data/nat/basic.lean",
		},
		{
			"hole commands keep file",
			`{"response":"ok","file":"/library/init/core.lean","results":[{"source":{"file":"/library/init/core.lean"}}]}`,
			"results.0.source.file", "/library/init/core.lean",
		},
		{
			"completions",
			`{"response":"ok","prefix":"nat","completions":[{"text":"nat.succ","source":{"file":"/library/init/core.lean"}}]}`,
			"completions.0.source.file", "https://src/core/init/core.lean",
		},
		{
			"unknown package",
			`{"response":"ok","record":{"source":{"file":"/library/orphan.lean"}}}`,
			"record.source.file", "/library/orphan.lean",
		},
		{
			"outside library",
			`{"response":"ok","record":{"source":{"file":"/home/me/a.lean"}}}`,
			"record.source.file", "/home/me/a.lean",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := gjson.GetBytes(r.rewrite([]byte(tt.in)), tt.path).String()
			if got != tt.want {
				t.Errorf("%s = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestSourceRewriter_Disabled(t *testing.T) {
	t.Parallel()

	if newSourceRewriter(nil, map[string]string{}) != nil {
		t.Error("rewriter without URL index should be nil")
	}
	if newSourceRewriter(map[string]string{}, nil) != nil {
		t.Error("rewriter without source map should be nil")
	}

	var r *sourceRewriter
	in := []byte(`{"record":{"source":{"file":"/library/init/core.lean"}}}`)
	if got := r.rewrite(in); string(got) != string(in) {
		t.Errorf("nil rewriter changed message: %s", got)
	}
}
