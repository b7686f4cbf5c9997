// ABOUTME: Tests for fuzzy ranking of completion candidates and search hits
// ABOUTME: Verifies filtering, ordering, and the empty-pattern passthrough

package fuzzy

import (
	"testing"

	"github.com/mauromedda/lean-client-go/pkg/protocol"
)

func candidates(names ...string) []protocol.CompletionCandidate {
	out := make([]protocol.CompletionCandidate, len(names))
	for i, n := range names {
		out[i] = protocol.CompletionCandidate{Text: n}
	}
	return out
}

func TestCompletions(t *testing.T) {
	t.Parallel()

	cands := candidates("nat.succ", "nat.add_comm", "list.map", "nat.add_assoc")

	tests := []struct {
		name    string
		pattern string
		want    int
	}{
		{"prefix", "nat.add", 2},
		{"subsequence", "nadm", 1},
		{"no match", "zzz", 0},
		{"empty keeps all", "", 4},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Completions(tc.pattern, cands)
			if len(got) != tc.want {
				t.Fatalf("got %d matches, want %d: %+v", len(got), tc.want, got)
			}
			for _, m := range got {
				if cands[m.Index].Text != m.Item.Text {
					t.Errorf("Index %d points at %q, item is %q", m.Index, cands[m.Index].Text, m.Item.Text)
				}
			}
		})
	}
}

func TestCompletions_EmptyPatternKeepsOrder(t *testing.T) {
	t.Parallel()

	cands := candidates("b", "a", "c")
	got := Completions("", cands)
	for i, m := range got {
		if m.Index != i || m.Item.Text != cands[i].Text {
			t.Errorf("got[%d] = %+v, want %q at %d", i, m, cands[i].Text, i)
		}
	}
}

func TestCompletions_BestFirst(t *testing.T) {
	t.Parallel()

	got := Completions("add", candidates("nat.le_of_add_le", "add", "has_add"))
	if len(got) != 3 {
		t.Fatalf("got %d matches, want 3", len(got))
	}
	if got[0].Item.Text != "add" {
		t.Errorf("best match = %q, want %q", got[0].Item.Text, "add")
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending: %d after %d", got[i].Score, got[i-1].Score)
		}
	}
}

func TestSearchResults(t *testing.T) {
	t.Parallel()

	items := []protocol.SearchItem{{Text: "int.coe_nat_add"}, {Text: "real.sqrt"}}
	got := SearchResults("sqrt", items)
	if len(got) != 1 || got[0].Item.Text != "real.sqrt" || got[0].Index != 1 {
		t.Errorf("got %+v, want real.sqrt at 1", got)
	}
	if len(got[0].MatchedIndexes) != 4 {
		t.Errorf("MatchedIndexes = %v, want 4 positions", got[0].MatchedIndexes)
	}
}
