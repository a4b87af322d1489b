package store

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

// Sites contain '<' and '>' and are stored unescaped.
var json = jsoniter.Config{EscapeHTML: false}.Froze()

// marshalStack converts a rendered creation call stack to JSON TEXT.
// A nil stack is stored as an empty array.
func marshalStack(stack []string) (string, error) {
	if stack == nil {
		stack = []string{}
	}
	data, err := json.Marshal(stack)
	if err != nil {
		return "", fmt.Errorf("marshal creation stack: %w", err)
	}
	return string(data), nil
}

// unmarshalStack parses JSON TEXT to a creation call stack. The result is
// never nil.
func unmarshalStack(data string) ([]string, error) {
	stack := []string{}
	if data == "" || data == "[]" {
		return stack, nil
	}
	if err := json.Unmarshal([]byte(data), &stack); err != nil {
		return nil, fmt.Errorf("unmarshal creation stack: %w", err)
	}
	return stack, nil
}
