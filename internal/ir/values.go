package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Value is one captured reference: a single text for unique references,
// or a list for references that may occur more than once.
type Value struct {
	Text  string
	List  []string
	Multi bool
}

// Scalar returns a single-valued capture.
func Scalar(s string) Value {
	return Value{Text: s}
}

// List returns a list-valued capture. The slice is copied.
func List(items ...string) Value {
	return Value{List: slices.Clone(items), Multi: true}
}

// Any returns the value as a string or []string.
func (v Value) Any() any {
	if v.Multi {
		return slices.Clone(v.List)
	}
	return v.Text
}

// MarshalJSON encodes a scalar as a JSON string and a list as an array.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.Multi {
		if v.List == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

// UnmarshalJSON accepts either a JSON string or an array of strings.
func (v *Value) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*v = Scalar(s)
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("value must be a string or a list of strings: %w", err)
	}
	*v = List(list...)
	return nil
}

// Values maps reference names to their captured values.
type Values map[string]Value

// SortedKeys returns keys in RFC 8785 canonical order (UTF-16 code units).
func (vs Values) SortedKeys() []string {
	keys := make([]string, 0, len(vs))
	for k := range vs {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// Map converts the values to plain Go values for scripting and templates.
func (vs Values) Map() map[string]any {
	out := make(map[string]any, len(vs))
	for k, v := range vs {
		out[k] = v.Any()
	}
	return out
}

// compareKeysRFC8785 compares strings using UTF-16 code unit ordering
// as required by RFC 8785. Go's default string comparison uses UTF-8 which
// orders supplementary-plane characters differently.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	for i := 0; i < len(a16) && i < len(b16); i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	return len(a16) - len(b16)
}
