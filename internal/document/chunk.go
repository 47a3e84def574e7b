package document

import (
	"fmt"

	"golang.org/x/text/cases"

	"github.com/roach88/cnl/internal/engine"
	"github.com/roach88/cnl/internal/ir"
)

// ChunkKind classifies a chunk.
type ChunkKind string

const (
	ChunkTactic  ChunkKind = "tactic"
	ChunkComment ChunkKind = "comment"
	ChunkError   ChunkKind = "error"
)

// Chunk is one classified span of a line. Start and End are byte
// offsets into the paragraph's normalized Line; fallback tactics and
// fatal errors are zero-length.
type Chunk struct {
	Kind  ChunkKind `json:"kind"`
	Line  int       `json:"line"`
	Start int       `json:"start"`
	End   int       `json:"end"`

	Tactic   string    `json:"tactic,omitempty"`
	TacticID string    `json:"tactic_id,omitempty"`
	Values   ir.Values `json:"values,omitempty"`

	// Code is the command generated for a tactic chunk.
	Code string `json:"code,omitempty"`

	Message string `json:"message,omitempty"`
	Fatal   bool   `json:"fatal,omitempty"`

	actions   []ir.StateAction
	structure ir.Structure
	fallback  bool
}

// Error messages attached to error chunks.
const (
	MsgUnrecognized    = "unrecognized text"
	MsgAfterLineEnd    = "tactic after the end of the line"
	MsgAfterParagraph  = "line after the end of the paragraph"
	MsgUnexpectedBlock = "indented block under a line that does not open one"
	MsgUnclosedBlock   = "block opened without content and no tactic closes it"
	MsgUnclosedState   = "document ends with open state and no tactic closes it"
)

// commentName is the tactic name, compared under case folding, whose
// matches are comments.
const commentName = "comment"

func isComment(name string) bool {
	fold := cases.Fold()
	return fold.String(name) == fold.String(commentName)
}

// chunkFor classifies a match. Offsets are already relative to the line.
func chunkFor(line int, m engine.Match) Chunk {
	t := m.Tactic
	c := Chunk{
		Kind:      ChunkTactic,
		Line:      line,
		Start:     m.Start,
		End:       m.End,
		Tactic:    t.Label(),
		TacticID:  t.ID,
		Values:    m.Values,
		actions:   t.Spec.Actions,
		structure: t.Spec.Structure,
		fallback:  t.Fallback(),
	}
	if isComment(t.Name) {
		c.Kind = ChunkComment
		return c
	}
	code, err := t.Transform(m.Values)
	if err != nil {
		c.Kind = ChunkError
		c.Message = fmt.Sprintf("transform: %v", err)
		return c
	}
	c.Code = code
	return c
}

func errorChunk(line, start, end int, msg string) Chunk {
	return Chunk{Kind: ChunkError, Line: line, Start: start, End: end, Message: msg}
}

// toErrors turns every chunk from offset on into an error, except
// comments. Converted chunks keep their span but lose their tactic;
// errors already there keep their message and stop being fatal.
func toErrors(chunks []Chunk, offset int, msg string) []Chunk {
	out := make([]Chunk, len(chunks))
	copy(out, chunks)
	for i := offset; i < len(out); i++ {
		switch out[i].Kind {
		case ChunkComment:
		case ChunkError:
			out[i].Fatal = false
		default:
			c := out[i]
			out[i] = errorChunk(c.Line, c.Start, c.End, msg)
		}
	}
	return out
}

// lineEnd returns the index of the first tactic chunk that ends its line,
// or -1. Fallback tactics never end a line.
func lineEnd(chunks []Chunk) int {
	for i, c := range chunks {
		if c.Kind == ChunkTactic && c.structure != ir.StructureNone && !c.fallback {
			return i
		}
	}
	return -1
}

// lineEndStructure returns the structure of the line-ending tactic.
func lineEndStructure(chunks []Chunk) ir.Structure {
	if i := lineEnd(chunks); i >= 0 {
		return chunks[i].structure
	}
	return ir.StructureNone
}

// stateAfter applies the actions of the tactic chunks to stack.
func stateAfter(stack ir.Stack, chunks []Chunk) ir.Stack {
	for _, c := range chunks {
		if c.Kind == ChunkTactic {
			stack = stack.Apply(c.actions)
		}
	}
	return stack
}
