package makerelease

import (
	"bytes"

	"gopkg.in/yaml.v3"
)

type yamlCodec struct{}

func (yamlCodec) validate(raw []byte) error {
	var root yaml.Node
	return yaml.Unmarshal(raw, &root)
}

func (yamlCodec) lookup(raw []byte, field []string) (string, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return "", false, err
	}
	n := findYAMLScalar(&root, field)
	if n == nil {
		return "", false, nil
	}
	return n.Value, true, nil
}

// replace edits the scalar node in the parsed tree and re-encodes it. Mapping
// order and comments are kept by the node tree; indentation is normalized.
func (yamlCodec) replace(raw []byte, field []string, value string) ([]byte, bool, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(raw, &root); err != nil {
		return nil, false, err
	}
	n := findYAMLScalar(&root, field)
	if n == nil {
		return nil, false, nil
	}
	n.Value = value
	n.Tag = "!!str"

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&root); err != nil {
		return nil, false, err
	}
	if err := enc.Close(); err != nil {
		return nil, false, err
	}
	return buf.Bytes(), true, nil
}

func findYAMLScalar(root *yaml.Node, field []string) *yaml.Node {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || len(field) == 0 {
		return nil
	}
	node := root.Content[0]
	for _, key := range field {
		if node.Kind != yaml.MappingNode {
			return nil
		}
		var next *yaml.Node
		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				next = node.Content[i+1]
				break
			}
		}
		if next == nil {
			return nil
		}
		node = next
	}
	if node.Kind != yaml.ScalarNode {
		return nil
	}
	return node
}
