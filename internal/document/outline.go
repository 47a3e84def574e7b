package document

import (
	"strings"

	"github.com/roach88/cnl/internal/ir"
)

// Paragraph is one line of a document together with the lines indented
// under it.
type Paragraph struct {
	// Number is the 1-based source line number.
	Number   int
	Line     string
	Children []Paragraph
}

// Document is the ordered list of top-level paragraphs.
type Document struct {
	Paragraphs []Paragraph
}

// ParseOutline builds a Document from indented text. A line indented
// deeper than the line above it becomes its child; blank lines are
// skipped. A tab counts as four columns. Lines are normalized with
// ir.Normalize, so chunk offsets index the stored Line.
func ParseOutline(text string) Document {
	type frame struct {
		indent int
		para   *Paragraph
	}

	var (
		root  Paragraph
		stack = []frame{{indent: -1, para: &root}}
	)
	for i, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRight(raw, " \t\r")
		if raw == "" {
			continue
		}
		indent, line := splitIndent(raw)
		for stack[len(stack)-1].indent >= indent {
			stack = stack[:len(stack)-1]
		}
		parent := stack[len(stack)-1].para
		parent.Children = append(parent.Children, Paragraph{Number: i + 1, Line: ir.Normalize(line)})
		stack = append(stack, frame{indent: indent, para: &parent.Children[len(parent.Children)-1]})
	}
	return Document{Paragraphs: root.Children}
}

func splitIndent(s string) (int, string) {
	width := 0
	for i, r := range s {
		switch r {
		case ' ':
			width++
		case '\t':
			width += 4
		default:
			return width, s[i:]
		}
	}
	return width, ""
}

// String renders the document back as indented text, two spaces per
// level.
func (d Document) String() string {
	var b strings.Builder
	var write func(ps []Paragraph, depth int)
	write = func(ps []Paragraph, depth int) {
		for _, p := range ps {
			b.WriteString(strings.Repeat("  ", depth))
			b.WriteString(p.Line)
			b.WriteByte('\n')
			write(p.Children, depth+1)
		}
	}
	write(d.Paragraphs, 0)
	return b.String()
}

// Lines returns the number of paragraphs in the whole tree.
func (d Document) Lines() int {
	var count func(ps []Paragraph) int
	count = func(ps []Paragraph) int {
		n := len(ps)
		for _, p := range ps {
			n += count(p.Children)
		}
		return n
	}
	return count(d.Paragraphs)
}
