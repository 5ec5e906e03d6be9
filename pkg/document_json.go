package makerelease

import (
	"bytes"
	"encoding/json"
	"slices"
)

type jsonCodec struct{}

func (jsonCodec) validate(raw []byte) error {
	var v any
	return json.Unmarshal(raw, &v)
}

func (jsonCodec) lookup(raw []byte, field []string) (string, bool, error) {
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return "", false, err
	}
	return lookupTree(tree, field)
}

// replace splices the new string over the old token so the rest of the file,
// including key order and formatting, is untouched.
func (jsonCodec) replace(raw []byte, field []string, value string) ([]byte, bool, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, false, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, false, nil
	}
	start, end, ok, err := locateJSONString(dec, raw, nil, field)
	if err != nil || !ok {
		return nil, ok, err
	}
	quoted, err := json.Marshal(value)
	if err != nil {
		return nil, false, err
	}
	out := make([]byte, 0, len(raw)-(end-start)+len(quoted))
	out = append(out, raw[:start]...)
	out = append(out, quoted...)
	out = append(out, raw[end:]...)
	return out, true, nil
}

// locateJSONString walks an object whose opening brace was already consumed and
// returns the byte range of the string value at field.
func locateJSONString(dec *json.Decoder, raw []byte, path, field []string) (int, int, bool, error) {
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return 0, 0, false, err
		}
		key, _ := keyTok.(string)
		start := skipToJSONValue(raw, int(dec.InputOffset()))
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, false, err
		}
		cur := append(slices.Clone(path), key)
		switch t := tok.(type) {
		case json.Delim:
			switch t {
			case '{':
				s, e, ok, err := locateJSONString(dec, raw, cur, field)
				if err != nil || ok {
					return s, e, ok, err
				}
			case '[':
				if err := skipJSONArray(dec); err != nil {
					return 0, 0, false, err
				}
			}
		case string:
			if slices.Equal(cur, field) {
				return start, int(dec.InputOffset()), true, nil
			}
		}
	}
	// closing brace
	if _, err := dec.Token(); err != nil {
		return 0, 0, false, err
	}
	return 0, 0, false, nil
}

func skipToJSONValue(raw []byte, i int) int {
	for i < len(raw) {
		switch raw[i] {
		case ' ', '\t', '\r', '\n', ':':
			i++
		default:
			return i
		}
	}
	return i
}

func skipJSONArray(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '[', '{':
				depth++
			case ']', '}':
				depth--
			}
		}
	}
	return nil
}
