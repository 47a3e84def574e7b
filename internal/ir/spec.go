package ir

import "fmt"

// Filter sentinels. An empty Specification.Filter selects the default
// state (empty stack); FilterAny makes a tactic valid under every state.
const (
	FilterDefault = ""
	FilterAny     = "*"
)

// Specification describes the literal and variable structure of one tactic
// together with its effect on the state stack.
type Specification struct {
	Filter    string        `json:"filter,omitempty"`
	Content   []Node        `json:"content"`
	Actions   []StateAction `json:"actions,omitempty"`
	Structure Structure     `json:"structure,omitempty"`
}

// NodeKind tags the variant held by a Node.
type NodeKind int

const (
	// NodeText is a literal fragment matched character by character.
	NodeText NodeKind = iota + 1

	// NodeReference is a named open slot capturing free-form text.
	NodeReference

	// NodeRepetition repeats Body zero or more times, optionally closed
	// by Terminator.
	NodeRepetition
)

// String returns the kind name used in diagnostics.
func (k NodeKind) String() string {
	switch k {
	case NodeText:
		return "text"
	case NodeReference:
		return "reference"
	case NodeRepetition:
		return "repetition"
	default:
		return fmt.Sprintf("NodeKind(%d)", int(k))
	}
}

// Node is one atom of a Specification's content.
//
// Only the fields matching Kind are meaningful:
//   - NodeText:       Text
//   - NodeReference:  Name
//   - NodeRepetition: Body, Terminator (nil means no terminator)
type Node struct {
	Kind       NodeKind `json:"kind"`
	Text       string   `json:"text,omitempty"`
	Name       string   `json:"name,omitempty"`
	Body       []Node   `json:"body,omitempty"`
	Terminator []Node   `json:"terminator,omitempty"`
}

// Text returns a literal node.
func Text(literal string) Node {
	return Node{Kind: NodeText, Text: literal}
}

// Ref returns a reference node capturing free text under name.
func Ref(name string) Node {
	return Node{Kind: NodeReference, Name: name}
}

// Repeat returns a repetition node. Pass a nil terminator for a bare
// "zero or more" repetition.
func Repeat(body []Node, terminator []Node) Node {
	return Node{Kind: NodeRepetition, Body: body, Terminator: terminator}
}

// ActionOp is the state-machine operation of a StateAction.
type ActionOp string

const (
	ActionPush ActionOp = "push"
	ActionPop  ActionOp = "pop"
)

// StateAction is one effect a matched tactic applies to the state stack.
type StateAction struct {
	Op    ActionOp `json:"op"`
	Label string   `json:"label,omitempty"` // push only
}

// Push returns an action appending label to the stack.
func Push(label string) StateAction {
	return StateAction{Op: ActionPush, Label: label}
}

// Pop returns an action removing the top of the stack.
func Pop() StateAction {
	return StateAction{Op: ActionPop}
}

// Structure marks a tactic as opening or closing a paragraph. A tactic
// carrying a structure marker also ends its line.
type Structure string

const (
	StructureNone           Structure = ""
	StructureBeginParagraph Structure = "begin_of_paragraph"
	StructureEndParagraph   Structure = "end_of_paragraph"
)

// ValidStructures lists the accepted structure markers.
var ValidStructures = map[Structure]bool{
	StructureNone:           true,
	StructureBeginParagraph: true,
	StructureEndParagraph:   true,
}
