package config

import (
	"fmt"
	"strings"

	"go.yaml.in/yaml/v3"
)

// Values holds a key that may be written as a single scalar or as a
// sequence. Callers never see the difference.
type Values []string

// UnmarshalYAML accepts a scalar, a sequence of scalars, or null.
func (v *Values) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		if node.Tag == "!!null" {
			*v = nil
			return nil
		}
		*v = Values{node.Value}
		return nil
	case yaml.SequenceNode:
		out := make(Values, 0, len(node.Content))
		for _, item := range node.Content {
			if item.Kind != yaml.ScalarNode {
				return fmt.Errorf("line %d: expected a string, got %s", item.Line, kindName(item.Kind))
			}
			out = append(out, item.Value)
		}
		*v = out
		return nil
	default:
		return fmt.Errorf("line %d: expected a string or list of strings, got %s", node.Line, kindName(node.Kind))
	}
}

// MarshalYAML writes a single value as a scalar.
func (v Values) MarshalYAML() (any, error) {
	if len(v) == 1 {
		return v[0], nil
	}
	return []string(v), nil
}

// One returns the only value. ok is false unless exactly one non-empty
// value is present.
func (v Values) One() (string, bool) {
	if len(v) != 1 || strings.TrimSpace(v[0]) == "" {
		return "", false
	}
	return v[0], true
}

func kindName(kind yaml.Kind) string {
	switch kind {
	case yaml.MappingNode:
		return "mapping"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.AliasNode:
		return "alias"
	default:
		return "scalar"
	}
}
