// ABOUTME: Tests for display width, caret placement and plain-text printing
// ABOUTME: Printer tests run without color so output can be compared literally

package render

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mauromedda/lean-client-go/pkg/fuzzy"
	"github.com/mauromedda/lean-client-go/pkg/protocol"
)

func TestWidth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"theorem foo", 11},
		{"∀ n : ℕ, n = n", 14},
		{"日本", 4},
		{"a\tb", 3},
	}
	for _, tc := range tests {
		if got := Width(tc.in); got != tc.want {
			t.Errorf("Width(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestColumnOffset(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		col  int
		want int
	}{
		{"example : true", 0, 0},
		{"example : true", 10, 10},
		{"λ x, x", 2, 2},
		{"日本 x", 3, 5},
		{"ab", 4, 4},
		{"ab", -1, 0},
	}
	for _, tc := range tests {
		if got := ColumnOffset(tc.line, tc.col); got != tc.want {
			t.Errorf("ColumnOffset(%q, %d) = %d, want %d", tc.line, tc.col, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"truncated text", 6, "trunc…"},
		{"日本語", 4, "日…"},
		{"abc", 1, "…"},
		{"abc", 0, ""},
	}
	for _, tc := range tests {
		if got := Truncate(tc.in, tc.max); got != tc.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tc.in, tc.max, got, tc.want)
		}
	}
}

func TestPrinter_Diagnostic(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	p := NewPrinter(&buf, 80, false)
	source := []string{"variables p q : Prop", "theorem t : p ∧ q → q := sorry"}
	p.Diagnostic(protocol.Message{
		FileName: "test.lean",
		PosLine:  2,
		PosCol:   14,
		Severity: protocol.SeverityWarning,
		Text:     "declaration 't' uses sorry\n",
	}, source)

	want := "test.lean:2:14: warning: declaration 't' uses sorry\n" +
		"  theorem t : p ∧ q → q := sorry\n" +
		"                ^\n"
	if got := buf.String(); got != want {
		t.Errorf("got\n%s\nwant\n%s", got, want)
	}
}

func TestPrinter_DiagnosticWithoutSource(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewPrinter(&buf, 80, false).Diagnostic(protocol.Message{FileName: "a.lean", PosLine: 9, Severity: protocol.SeverityError, Text: "oops"}, []string{"x"})
	if got := buf.String(); got != "a.lean:9:0: error: oops\n" {
		t.Errorf("got %q", got)
	}
}

func TestPrinter_Diagnostics_Summary(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewPrinter(&buf, 80, false).Diagnostics([]protocol.Message{
		{FileName: "a.lean", PosLine: 1, Severity: protocol.SeverityError, Text: "e"},
		{FileName: "a.lean", PosLine: 2, Severity: protocol.SeverityInformation, Text: "i"},
	}, nil)
	if !strings.HasSuffix(buf.String(), "1 error(s), 0 warning(s), 1 message(s)\n") {
		t.Errorf("got %q", buf.String())
	}
}

func TestPrinter_Tasks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   protocol.CurrentTasksResponse
		want string
	}{
		{"idle", protocol.CurrentTasksResponse{}, "idle\n"},
		{"running", protocol.CurrentTasksResponse{
			IsRunning: true,
			CurTask:   &protocol.Task{FileName: "a.lean", PosLine: 3, Desc: "elaborating"},
			Tasks:     []protocol.Task{{}, {}},
		}, "a.lean:3: elaborating (2 task(s))\n"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			NewPrinter(&buf, 80, false).Tasks(&tc.in)
			if buf.String() != tc.want {
				t.Errorf("got %q, want %q", buf.String(), tc.want)
			}
		})
	}
}

func TestPrinter_Info(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewPrinter(&buf, 80, false).Info(&protocol.InfoRecord{
		FullID: "nat.succ",
		Type:   "ℕ → ℕ",
		Source: &protocol.InfoSource{File: "/library/init/core.lean", Line: 10, Column: 4},
	})
	want := "nat.succ : ℕ → ℕ\ndefined at /library/init/core.lean:10:4\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}

	buf.Reset()
	NewPrinter(&buf, 80, false).Info(nil)
	if buf.String() != "no information\n" {
		t.Errorf("nil record: got %q", buf.String())
	}
}

func TestPrinter_Completions(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cands := []protocol.CompletionCandidate{{Text: "nat.add", Type: "ℕ → ℕ → ℕ"}, {Text: "nat"}}
	NewPrinter(&buf, 80, false).Completions(fuzzy.Completions("", cands))
	want := "nat.add : ℕ → ℕ → ℕ\nnat\n"
	if buf.String() != want {
		t.Errorf("got %q, want %q", buf.String(), want)
	}
}

func TestMarkdownRenderer_Caches(t *testing.T) {
	t.Parallel()

	r := NewMarkdownRenderer(false)
	first := r.Render("The **successor** function.", 60)
	if !strings.Contains(first, "successor") {
		t.Fatalf("rendered = %q", first)
	}
	if second := r.Render("The **successor** function.", 60); second != first {
		t.Errorf("cached render differs: %q vs %q", second, first)
	}
	if r.Render("", 60) != "" {
		t.Error("empty markdown should render empty")
	}
}
