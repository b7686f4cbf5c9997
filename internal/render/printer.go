// ABOUTME: Terminal printer for diagnostics, progress, hover info and completions
// ABOUTME: Styles with lipgloss when color is enabled; renders docs as markdown via glamour

package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mauromedda/lean-client-go/pkg/fuzzy"
	"github.com/mauromedda/lean-client-go/pkg/protocol"
)

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 100

// Printer writes human-readable output.
type Printer struct {
	out   io.Writer
	width int
	color bool
	md    *MarkdownRenderer

	location lipgloss.Style
	severity map[protocol.Severity]lipgloss.Style
	caret    lipgloss.Style
	faint    lipgloss.Style
	match    lipgloss.Style
}

// NewPrinter creates a printer. width <= 0 selects DefaultWidth.
func NewPrinter(out io.Writer, width int, color bool) *Printer {
	if width <= 0 {
		width = DefaultWidth
	}
	p := &Printer{out: out, width: width, color: color, md: NewMarkdownRenderer(color)}
	if color {
		p.location = lipgloss.NewStyle().Bold(true)
		p.severity = map[protocol.Severity]lipgloss.Style{
			protocol.SeverityError:       lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
			protocol.SeverityWarning:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11")),
			protocol.SeverityInformation: lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
		}
		p.caret = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
		p.faint = lipgloss.NewStyle().Faint(true)
		p.match = lipgloss.NewStyle().Underline(true)
	}
	return p
}

func (p *Printer) style(s lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return s.Render(text)
}

// Diagnostic prints msg as "file:line:col: severity: text". When source is
// non-nil the offending line is shown with a caret under the column.
func (p *Printer) Diagnostic(msg protocol.Message, source []string) {
	loc := fmt.Sprintf("%s:%d:%d:", msg.FileName, msg.PosLine, msg.PosCol)
	sev := string(msg.Severity)
	fmt.Fprintf(p.out, "%s %s: %s\n",
		p.style(p.location, loc),
		p.style(p.severity[msg.Severity], sev),
		strings.TrimRight(msg.Text, "\n"))

	// Lines are 1-based, columns 0-based.
	if msg.PosLine < 1 || msg.PosLine > len(source) {
		return
	}
	line := strings.ReplaceAll(source[msg.PosLine-1], "\t", " ")
	fmt.Fprintf(p.out, "  %s\n", Truncate(line, p.width-2))
	if off := ColumnOffset(line, msg.PosCol); off < p.width-2 {
		fmt.Fprintf(p.out, "  %s%s\n", strings.Repeat(" ", off), p.style(p.caret, "^"))
	}
}

// Diagnostics prints every message, then a one-line summary.
func (p *Printer) Diagnostics(msgs []protocol.Message, sources map[string][]string) {
	counts := map[protocol.Severity]int{}
	for _, m := range msgs {
		p.Diagnostic(m, sources[m.FileName])
		counts[m.Severity]++
	}
	fmt.Fprintln(p.out, p.style(p.faint, fmt.Sprintf("%d error(s), %d warning(s), %d message(s)",
		counts[protocol.SeverityError], counts[protocol.SeverityWarning], counts[protocol.SeverityInformation])))
}

// Tasks prints a progress snapshot on one line.
func (p *Printer) Tasks(t *protocol.CurrentTasksResponse) {
	if !t.IsRunning || t.CurTask == nil {
		fmt.Fprintln(p.out, p.style(p.faint, "idle"))
		return
	}
	line := fmt.Sprintf("%s:%d: %s (%d task(s))", t.CurTask.FileName, t.CurTask.PosLine, t.CurTask.Desc, len(t.Tasks))
	fmt.Fprintln(p.out, p.style(p.faint, Truncate(line, p.width)))
}

// Info prints a hover record. Documentation is rendered as markdown.
func (p *Printer) Info(rec *protocol.InfoRecord) {
	if rec == nil {
		fmt.Fprintln(p.out, p.style(p.faint, "no information"))
		return
	}
	if rec.FullID != "" {
		fmt.Fprintf(p.out, "%s : %s\n", p.style(p.location, rec.FullID), rec.Type)
	} else if rec.Type != "" {
		fmt.Fprintln(p.out, rec.Type)
	}
	if rec.Source != nil {
		fmt.Fprintln(p.out, p.style(p.faint, fmt.Sprintf("defined at %s:%d:%d", rec.Source.File, rec.Source.Line, rec.Source.Column)))
	}
	if rec.State != "" {
		fmt.Fprintln(p.out, rec.State)
	}
	if rec.Text != "" {
		fmt.Fprintln(p.out, rec.Text)
	}
	if rec.Doc != "" {
		fmt.Fprintln(p.out, p.md.Render(rec.Doc, p.width))
	}
}

// Completions prints ranked candidates, underlining the matched characters.
func (p *Printer) Completions(matches []fuzzy.Match[protocol.CompletionCandidate]) {
	for _, m := range matches {
		name := p.highlight(m.Item.Text, m.MatchedIndexes)
		if m.Item.Type != "" {
			fmt.Fprintf(p.out, "%s : %s\n", name, Truncate(m.Item.Type, max(p.width-Width(m.Item.Text)-3, 1)))
		} else {
			fmt.Fprintln(p.out, name)
		}
	}
}

// SearchResults prints search hits.
func (p *Printer) SearchResults(items []protocol.SearchItem) {
	for _, it := range items {
		fmt.Fprintf(p.out, "%s : %s\n", p.style(p.location, it.Text), it.Type)
	}
}

// highlight styles the bytes of s at the given indexes.
func (p *Printer) highlight(s string, idx []int) string {
	if !p.color || len(idx) == 0 {
		return s
	}
	marked := make(map[int]bool, len(idx))
	for _, i := range idx {
		marked[i] = true
	}
	var b strings.Builder
	for i, r := range s {
		if marked[i] {
			b.WriteString(p.match.Render(string(r)))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
