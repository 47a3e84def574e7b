package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cnl/internal/ir"
)

// marshalValues converts captured values to canonical JSON TEXT for
// storage. Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalValues(values ir.Values) (string, error) {
	if values == nil {
		values = ir.Values{}
	}
	data, err := ir.MarshalCanonical(values)
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// unmarshalValues parses stored values. An empty object reads back as nil
// so chunks without captures compare equal to freshly checked ones.
func unmarshalValues(data string) (ir.Values, error) {
	if data == "" || data == "{}" {
		return nil, nil
	}
	var values ir.Values
	if err := json.Unmarshal([]byte(data), &values); err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	return values, nil
}

// marshalStack converts a state stack to canonical JSON TEXT.
func marshalStack(stack ir.Stack) (string, error) {
	if stack == nil {
		stack = ir.Stack{}
	}
	data, err := ir.MarshalCanonical([]string(stack))
	if err != nil {
		return "", fmt.Errorf("marshal stack: %w", err)
	}
	return string(data), nil
}

func unmarshalStack(data string) (ir.Stack, error) {
	stack := ir.Stack{}
	if err := json.Unmarshal([]byte(data), &stack); err != nil {
		return nil, fmt.Errorf("unmarshal stack: %w", err)
	}
	return stack, nil
}
