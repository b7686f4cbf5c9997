// ABOUTME: Client-side fuzzy ranking of completion candidates and search hits
// ABOUTME: Wraps sahilm/fuzzy so callers can filter server results by a typed prefix

package fuzzy

import (
	"github.com/sahilm/fuzzy"

	"github.com/mauromedda/lean-client-go/pkg/protocol"
)

// Match is one ranked item.
type Match[T any] struct {
	Item T
	// Index is the item's position in the input slice.
	Index          int
	MatchedIndexes []int
	Score          int
}

type source[T any] struct {
	items []T
	text  func(T) string
}

func (s source[T]) String(i int) string { return s.text(s.items[i]) }
func (s source[T]) Len() int            { return len(s.items) }

// Rank returns the items whose text matches pattern, best first. An empty
// pattern keeps every item in its original order.
func Rank[T any](pattern string, items []T, text func(T) string) []Match[T] {
	if pattern == "" {
		out := make([]Match[T], len(items))
		for i, it := range items {
			out[i] = Match[T]{Item: it, Index: i}
		}
		return out
	}
	results := fuzzy.FindFrom(pattern, source[T]{items: items, text: text})
	out := make([]Match[T], len(results))
	for i, r := range results {
		out[i] = Match[T]{
			Item:           items[r.Index],
			Index:          r.Index,
			MatchedIndexes: r.MatchedIndexes,
			Score:          r.Score,
		}
	}
	return out
}

// Completions ranks completion candidates by their text.
func Completions(pattern string, cands []protocol.CompletionCandidate) []Match[protocol.CompletionCandidate] {
	return Rank(pattern, cands, func(c protocol.CompletionCandidate) string { return c.Text })
}

// SearchResults ranks search hits by declaration name.
func SearchResults(pattern string, items []protocol.SearchItem) []Match[protocol.SearchItem] {
	return Rank(pattern, items, func(it protocol.SearchItem) string { return it.Text })
}
