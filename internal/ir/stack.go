package ir

// Stack is the pushdown automaton state threaded through parsing.
// The last element is the active label.
type Stack []string

// Top returns the active label, or ok=false for the empty stack.
func (s Stack) Top() (label string, ok bool) {
	if len(s) == 0 {
		return "", false
	}
	return s[len(s)-1], true
}

// Apply returns a new stack with actions applied in order.
// Push appends its label; Pop removes the last element and is a no-op on
// an empty stack. The receiver is never modified.
func (s Stack) Apply(actions []StateAction) Stack {
	out := make(Stack, len(s), len(s)+len(actions))
	copy(out, s)
	for _, a := range actions {
		switch a.Op {
		case ActionPush:
			out = append(out, a.Label)
		case ActionPop:
			if len(out) > 0 {
				out = out[:len(out)-1]
			}
		}
	}
	return out
}

// Equal reports whether both stacks hold the same labels.
func (s Stack) Equal(other Stack) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}
