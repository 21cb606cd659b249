package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ParseYAML parses a YAML kernel config. The document is a mapping from
// section name to a mapping of keys:
//
//	MODULE example:
//	  typemaps:
//	    - "int: int64"
//	KERNEL scale:
//	  prototypes: void scale(int64 n, double *x);
//
// Scalars and sequences of scalars are accepted. Mapping order is kept.
func ParseYAML(path string, data []byte) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &LoadError{Path: path, Message: err.Error()}
	}

	f := NewFile(path)
	if len(doc.Content) == 0 {
		return f, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, &LoadError{Path: path, Line: root.Line, Message: "top level must be a mapping"}
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		nameNode, body := root.Content[i], root.Content[i+1]
		section, err := f.AddSection(nameNode.Value)
		if err != nil {
			return nil, &LoadError{Path: path, Line: nameNode.Line, Message: err.Error()}
		}
		if body.Kind == yaml.ScalarNode && body.Tag == "!!null" {
			continue
		}
		if body.Kind != yaml.MappingNode {
			return nil, &LoadError{Path: path, Line: body.Line, Message: fmt.Sprintf("section %q must be a mapping", nameNode.Value)}
		}
		for j := 0; j+1 < len(body.Content); j += 2 {
			keyNode, valNode := body.Content[j], body.Content[j+1]
			value, err := yamlString(valNode)
			if err != nil {
				return nil, &LoadError{Path: path, Line: valNode.Line, Message: fmt.Sprintf("%s.%s: %v", nameNode.Value, keyNode.Value, err)}
			}
			section.Set(keyNode.Value, value)
		}
	}
	return f, nil
}

func yamlString(n *yaml.Node) (string, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return "", nil
		}
		return strings.TrimSpace(n.Value), nil
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode {
				return "", fmt.Errorf("sequence items must be scalars")
			}
			items = append(items, item.Value)
		}
		return strings.Join(items, "\n"), nil
	default:
		return "", fmt.Errorf("unsupported value")
	}
}
