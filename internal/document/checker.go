package document

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
)

// FatalError reports a document whose structure cannot be completed: a
// block that needs content, or state left open at the end, with no
// fallback tactic to close it.
type FatalError struct {
	Line    int
	Message string
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Report is the result of checking one document.
type Report struct {
	ID           string   `json:"id"`
	Seq          int64    `json:"seq"`
	DocumentHash string   `json:"document_hash"`
	Chunks       []Chunk  `json:"chunks"`
	Stack        ir.Stack `json:"stack"`

	// Script joins the code of every tactic chunk, one command per line.
	Script string `json:"script"`
}

// Errors returns the error chunks.
func (r *Report) Errors() []Chunk {
	var out []Chunk
	for _, c := range r.Chunks {
		if c.Kind == ChunkError {
			out = append(out, c)
		}
	}
	return out
}

// Checker checks documents against the tactics of an engine.
type Checker struct {
	engine *engine.Engine
	ids    IDGenerator
	clock  Clock
}

// Option configures a Checker.
type Option func(*Checker)

// WithIDGenerator overrides the UUIDv7 report IDs.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Checker) { c.ids = g }
}

// WithClock overrides the report sequence clock.
func WithClock(clock Clock) Option {
	return func(c *Checker) { c.clock = clock }
}

// NewChecker returns a checker over e.
func NewChecker(e *engine.Engine, opts ...Option) *Checker {
	c := &Checker{engine: e, ids: UUIDv7Generator{}, clock: NewClock()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Engine returns the engine the checker parses with.
func (c *Checker) Engine() *engine.Engine {
	return c.engine
}

// CheckText parses text with ParseOutline and checks it.
func (c *Checker) CheckText(text string) (*Report, error) {
	report, err := c.Check(ParseOutline(text))
	if report != nil {
		report.DocumentHash = ir.DocumentHash(text)
	}
	return report, err
}

// Check checks doc from an empty stack. The report is always returned;
// the error is a *FatalError when the structure could not be completed.
func (c *Checker) Check(doc Document) (*Report, error) {
	var (
		stack  ir.Stack
		chunks []Chunk
	)
	for _, p := range doc.Paragraphs {
		var cs []Chunk
		cs, stack = c.visit(p, stack)
		chunks = append(chunks, cs...)
	}

	if len(stack) > 0 {
		end := lastLine(doc) + 1
		cs, after, ok := c.closeState(stack, end)
		chunks = append(chunks, cs...)
		if !ok {
			chunks = append(chunks, Chunk{Kind: ChunkError, Line: end, Message: MsgUnclosedState, Fatal: true})
		}
		stack = after
	}

	if stack == nil {
		stack = ir.Stack{}
	}
	report := &Report{
		ID:           c.ids.Generate(),
		Seq:          c.clock.Next(),
		DocumentHash: ir.DocumentHash(doc.String()),
		Chunks:       chunks,
		Stack:        stack,
		Script:       script(chunks),
	}
	if report.Chunks == nil {
		report.Chunks = []Chunk{}
	}

	slog.Debug("document checked",
		"report", report.ID,
		"chunks", len(chunks),
		"errors", len(report.Errors()))

	for _, ch := range chunks {
		if ch.Fatal {
			return report, &FatalError{Line: ch.Line, Message: ch.Message}
		}
	}
	return report, nil
}

// visit checks a paragraph and its children.
func (c *Checker) visit(p Paragraph, stack ir.Stack) ([]Chunk, ir.Stack) {
	lineChunks, afterLine := c.checkLine(p, stack)

	state := afterLine
	var childChunks []Chunk
	stopped := false
	for _, child := range p.Children {
		cs, after := c.visit(child, state)
		if stopped {
			childChunks = append(childChunks, toErrors(cs, 0, MsgAfterParagraph)...)
		} else {
			childChunks = append(childChunks, cs...)
			state = after
		}
		stopped = stopped || lineEndStructure(cs) == ir.StructureEndParagraph
	}

	required := lineEndStructure(lineChunks)
	switch {
	case required != ir.StructureBeginParagraph && len(p.Children) > 0:
		// children of a line that opens no block do not count
		state = afterLine
		childChunks = toErrors(childChunks, 0, MsgUnexpectedBlock)

	case required == ir.StructureBeginParagraph && len(p.Children) == 0:
		at := len(p.Line)
		fb, after, ok := c.fallback(afterLine, p.Number, at)
		if ok {
			childChunks, state = fb, after
		} else {
			childChunks = []Chunk{{Kind: ChunkError, Line: p.Number, Start: at, End: at, Message: MsgUnclosedBlock, Fatal: true}}
		}
	}

	return append(lineChunks, childChunks...), state
}

// checkLine cuts one line into chunks and returns the state after it.
func (c *Checker) checkLine(p Paragraph, stack ir.Stack) ([]Chunk, ir.Stack) {
	text := ir.Normalize(p.Line)
	if strings.TrimSpace(text) == "" {
		return nil, stack
	}

	var chunks []Chunk
	cur, pos := stack, 0
	// a chain stops at a line-ending tactic; keep going so what follows
	// is reported rather than lumped into one unrecognized span
	for pos < len(text) {
		chain := c.engine.ParseChain(text[pos:], cur)
		if len(chain.Matches) == 0 {
			break
		}
		for _, m := range chain.Matches {
			m.Start += pos
			m.End += pos
			chunks = append(chunks, chunkFor(p.Number, m))
		}
		cur = chain.Stack
		pos += chain.End
	}

	if rest := text[pos:]; strings.TrimSpace(rest) != "" {
		start := pos + len(rest) - len(strings.TrimLeft(rest, " "))
		chunks = append(chunks, errorChunk(p.Number, start, len(text), MsgUnrecognized))
	}

	if stop := lineEnd(chunks); stop >= 0 {
		for _, ch := range chunks[stop+1:] {
			if ch.Kind != ChunkComment {
				chunks = toErrors(chunks, stop+1, MsgAfterLineEnd)
				break
			}
		}
	}

	return chunks, stateAfter(stack, chunks)
}

// fallback matches zero-length tactics at a position, closing state.
func (c *Checker) fallback(stack ir.Stack, line, at int) ([]Chunk, ir.Stack, bool) {
	chain := c.engine.ParseChain("", stack, engine.WithEmptyMatch())
	if len(chain.Matches) == 0 {
		return nil, stack, false
	}
	chunks := make([]Chunk, 0, len(chain.Matches))
	for _, m := range chain.Matches {
		m.Start, m.End = at, at
		chunks = append(chunks, chunkFor(line, m))
	}
	return chunks, stateAfter(stack, chunks), true
}

// closeState runs fallbacks until the stack is empty. Each round must
// find a fallback; a fallback that leaves the stack unchanged ends the
// attempt.
func (c *Checker) closeState(stack ir.Stack, line int) ([]Chunk, ir.Stack, bool) {
	var chunks []Chunk
	for rounds := len(stack); len(stack) > 0 && rounds > 0; rounds-- {
		cs, after, ok := c.fallback(stack, line, 0)
		if !ok {
			return chunks, stack, false
		}
		chunks = append(chunks, cs...)
		if after.Equal(stack) {
			break
		}
		stack = after
	}
	return chunks, stack, true
}

func script(chunks []Chunk) string {
	var lines []string
	for _, c := range chunks {
		if c.Kind == ChunkTactic && c.Code != "" {
			lines = append(lines, c.Code)
		}
	}
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func lastLine(doc Document) int {
	last := 0
	var walk func(ps []Paragraph)
	walk = func(ps []Paragraph) {
		for _, p := range ps {
			if p.Number > last {
				last = p.Number
			}
			walk(p.Children)
		}
	}
	walk(doc.Paragraphs)
	return last
}
