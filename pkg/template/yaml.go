package template

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ParseYAML decodes an ordered bindings mapping from a YAML document.
// Mapping order in the document is preserved, which is what lets a
// bindings file declare nested loops outermost-first. A value that is a
// sequence becomes a list binding whose entries must all be mappings;
// every other value is a scalar binding.
func ParseYAML(data []byte) (*Bindings, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("template: parsing bindings: %w", err)
	}

	b := NewBindings()
	if len(doc.Content) == 0 {
		return b, nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("template: bindings document must be a mapping, got %s", kindName(root.Kind))
	}

	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		name := keyNode.Value

		if valNode.Kind == yaml.SequenceNode {
			elements := make([]Element, 0, len(valNode.Content))
			for j, entry := range valNode.Content {
				var el Element
				if err := entry.Decode(&el); err != nil {
					return nil, fmt.Errorf("template: binding %q element %d: %w", name, j, err)
				}
				elements = append(elements, el)
			}
			b.SetList(name, elements...)
			continue
		}

		var v any
		if err := valNode.Decode(&v); err != nil {
			return nil, fmt.Errorf("template: binding %q: %w", name, err)
		}
		b.Set(name, v)
	}

	return b, nil
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown"
	}
}
