// ABOUTME: Display-width helpers for source lines: grapheme-aware, wide-rune aware
// ABOUTME: Maps server columns (counted in code points) to terminal cells for caret placement

package render

import (
	"strings"
	"unicode/utf8"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// Width returns the number of terminal cells s occupies. Tabs count as one.
func Width(s string) int {
	if isPlainASCII(s) {
		return len(s)
	}
	w := 0
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		w += graphemeWidth(cluster)
	}
	return w
}

// ColumnOffset returns the cell offset of code point col in line. Columns
// past the end of the line are padded with one cell each.
func ColumnOffset(line string, col int) int {
	if col <= 0 {
		return 0
	}
	i := 0
	for n := 0; n < col; n++ {
		if i >= len(line) {
			return Width(line) + col - n
		}
		_, size := utf8.DecodeRuneInString(line[i:])
		i += size
	}
	return Width(line[:i])
}

// Truncate shortens s to at most maxWidth cells, ending with an ellipsis
// when anything was cut.
func Truncate(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	if Width(s) <= maxWidth {
		return s
	}
	if maxWidth == 1 {
		return "…"
	}

	var b strings.Builder
	col := 0
	target := maxWidth - 1
	state := -1
	for len(s) > 0 {
		var cluster string
		cluster, s, _, state = uniseg.FirstGraphemeClusterInString(s, state)
		cw := graphemeWidth(cluster)
		if col+cw > target {
			break
		}
		b.WriteString(cluster)
		col += cw
	}
	b.WriteRune('…')
	return b.String()
}

func isPlainASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if b := s[i]; b < 0x20 || b > 0x7E {
			return false
		}
	}
	return true
}

func graphemeWidth(cluster string) int {
	if cluster == "" {
		return 0
	}
	r, _ := utf8.DecodeRuneInString(cluster)
	if r == '\t' {
		return 1
	}
	return runewidth.RuneWidth(r)
}
