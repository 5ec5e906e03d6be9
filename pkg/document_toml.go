package makerelease

import (
	"errors"
	"slices"

	"github.com/pelletier/go-toml/v2"
	"github.com/pelletier/go-toml/v2/unstable"
)

type tomlCodec struct{}

func (tomlCodec) validate(raw []byte) error {
	var tree map[string]any
	return toml.Unmarshal(raw, &tree)
}

func (tomlCodec) lookup(raw []byte, field []string) (string, bool, error) {
	var tree map[string]any
	if err := toml.Unmarshal(raw, &tree); err != nil {
		return "", false, err
	}
	return lookupTree(tree, field)
}

// replace rewrites only the bytes of the string value at field, leaving
// comments, whitespace and every other key exactly as they were.
func (tomlCodec) replace(raw []byte, field []string, value string) ([]byte, bool, error) {
	r, ok, err := locateTOMLString(raw, field)
	if err != nil || !ok {
		return nil, ok, err
	}
	start, end := int(r.Offset), int(r.Offset+r.Length)
	if r.Length == 0 || end > len(raw) {
		return nil, false, errors.New("value position unavailable")
	}
	old := raw[start:end]
	replacement := value
	switch old[0] {
	case '"', '\'':
		replacement = string(old[0]) + value + string(old[0])
	}
	out := make([]byte, 0, len(raw)-len(old)+len(replacement))
	out = append(out, raw[:start]...)
	out = append(out, replacement...)
	out = append(out, raw[end:]...)
	return out, true, nil
}

func locateTOMLString(raw []byte, field []string) (unstable.Range, bool, error) {
	var p unstable.Parser
	p.Reset(raw)

	var table []string
	inArrayTable := false
	for p.NextExpression() {
		e := p.Expression()
		switch e.Kind {
		case unstable.Table:
			table = keyParts(e.Key())
			inArrayTable = false
		case unstable.ArrayTable:
			table = keyParts(e.Key())
			inArrayTable = true
		case unstable.KeyValue:
			if inArrayTable {
				continue
			}
			if r, ok := matchKeyValue(e, table, field); ok {
				return r, true, nil
			}
		}
	}
	if err := p.Error(); err != nil {
		return unstable.Range{}, false, err
	}
	return unstable.Range{}, false, nil
}

func matchKeyValue(kv *unstable.Node, prefix, field []string) (unstable.Range, bool) {
	full := append(slices.Clone(prefix), keyParts(kv.Key())...)
	v := kv.Value()
	if slices.Equal(full, field) {
		if v.Kind != unstable.String {
			return unstable.Range{}, false
		}
		return v.Raw, true
	}
	if v.Kind == unstable.InlineTable && len(field) > len(full) && slices.Equal(full, field[:len(full)]) {
		it := v.Children()
		for it.Next() {
			if r, ok := matchKeyValue(it.Node(), full, field); ok {
				return r, true
			}
		}
	}
	return unstable.Range{}, false
}

func keyParts(it unstable.Iterator) []string {
	var parts []string
	for it.Next() {
		parts = append(parts, string(it.Node().Data))
	}
	return parts
}

// lookupTree walks decoded nested maps and returns the string at field.
func lookupTree(tree map[string]any, field []string) (string, bool, error) {
	if len(field) == 0 {
		return "", false, nil
	}
	node := tree
	for _, key := range field[:len(field)-1] {
		next, ok := node[key].(map[string]any)
		if !ok {
			return "", false, nil
		}
		node = next
	}
	s, ok := node[field[len(field)-1]].(string)
	return s, ok, nil
}
