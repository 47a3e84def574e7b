package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"

	"github.com/roach88/cnl/internal/document"
	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
)

var (
	colorOK    = lipgloss.Color("#2CD7C7")
	colorError = lipgloss.Color("#E74C3C")
	colorMuted = lipgloss.Color("241")
	colorName  = lipgloss.Color("#20B9B4")
)

// renderer styles text output. Styles are applied only when the writer
// is a terminal, so piped output and test buffers stay plain.
type renderer struct {
	w     io.Writer
	color bool

	ok, bad, muted, name, bold lipgloss.Style
}

func newRenderer(w io.Writer) *renderer {
	r := &renderer{w: w, color: isTerminal(w)}
	if r.color {
		r.ok = lipgloss.NewStyle().Foreground(colorOK)
		r.bad = lipgloss.NewStyle().Foreground(colorError).Bold(true)
		r.muted = lipgloss.NewStyle().Foreground(colorMuted)
		r.name = lipgloss.NewStyle().Foreground(colorName).Bold(true)
		r.bold = lipgloss.NewStyle().Bold(true)
	}
	return r
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func (r *renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

func (r *renderer) printf(format string, args ...any) {
	fmt.Fprintf(r.w, format, args...)
}

// OK prints a success line.
func (r *renderer) OK(format string, args ...any) {
	r.printf("%s %s\n", r.style(r.ok, "ok"), fmt.Sprintf(format, args...))
}

// Fail prints a failure line.
func (r *renderer) Fail(format string, args ...any) {
	r.printf("%s %s\n", r.style(r.bad, "FAIL"), fmt.Sprintf(format, args...))
}

// Detail prints an indented, muted line.
func (r *renderer) Detail(format string, args ...any) {
	r.printf("  %s\n", r.style(r.muted, fmt.Sprintf(format, args...)))
}

// Match prints one tactic match over text.
func (r *renderer) Match(text string, m engine.Match) {
	r.printf("%s %s %s\n",
		r.style(r.name, m.Tactic.Label()),
		r.style(r.muted, fmt.Sprintf("[%d,%d)", m.Start, m.End)),
		quote(text[m.Start:m.End]))
	r.values(m.Values)
	r.printf("  stack %s\n", formatStack(m.Stack))
}

func (r *renderer) values(vs ir.Values) {
	for _, k := range vs.SortedKeys() {
		v := vs[k]
		if v.Multi {
			r.printf("  %s = [%s]\n", k, strings.Join(quoteAll(v.List), ", "))
			continue
		}
		r.printf("  %s = %s\n", k, quote(v.Text))
	}
}

// Prediction prints an outcome and its paths.
func (r *renderer) Prediction(p engine.Prediction) {
	r.printf("%s", r.style(r.bold, p.Outcome.String()))
	if p.Truncated {
		r.printf(" %s", r.style(r.muted, "(truncated)"))
	}
	r.printf("\n")
	for _, path := range p.Paths {
		r.printf("  %s\n", path.String())
	}
}

// Report prints the chunks of a checked document line by line.
func (r *renderer) Report(report *document.Report, doc document.Document) {
	lines := lineIndex(doc.Paragraphs, nil)
	for _, ch := range report.Chunks {
		src := ""
		if line, ok := lines[ch.Line]; ok && ch.Start <= ch.End && ch.End <= len(line) {
			src = line[ch.Start:ch.End]
		}
		loc := r.style(r.muted, fmt.Sprintf("%3d:%d-%d", ch.Line, ch.Start, ch.End))

		switch ch.Kind {
		case document.ChunkError:
			label := "error"
			if ch.Fatal {
				label = "fatal"
			}
			r.printf("%s %s %s %s\n", loc, r.style(r.bad, label), ch.Message, quote(src))
		case document.ChunkComment:
			r.printf("%s %s %s\n", loc, r.style(r.muted, "comment"), quote(src))
		default:
			r.printf("%s %s %s\n", loc, r.style(r.name, ch.Tactic), quote(src))
			if ch.Code != "" {
				r.printf("      %s %s\n", r.style(r.muted, "=>"), ch.Code)
			}
		}
	}
}

// lineIndex maps source line numbers to normalized paragraph lines.
func lineIndex(ps []document.Paragraph, into map[int]string) map[int]string {
	if into == nil {
		into = make(map[int]string)
	}
	for _, p := range ps {
		into[p.Number] = p.Line
		lineIndex(p.Children, into)
	}
	return into
}

func formatStack(s ir.Stack) string {
	if len(s) == 0 {
		return "[]"
	}
	return "[" + strings.Join(s, " ") + "]"
}

func quote(s string) string {
	return fmt.Sprintf("%q", s)
}

func quoteAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = quote(s)
	}
	return out
}
