package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is the structured in-memory representation of catalog content:
// a tree of maps, arrays and scalars. It is the canonical form between the
// catalog and its store; JSON and YAML exist only at the system boundary.
//
// Object nodes reject duplicate keys at parse time rather than silently
// overwriting them.
type Document struct {
	root interface{}
}

// NewDocument returns an empty object document.
func NewDocument() *Document {
	return &Document{root: map[string]interface{}{}}
}

// NewStringArrayDocument returns an array document holding the given
// strings, in order. A nil or empty slice yields an empty array.
func NewStringArrayDocument(values []string) *Document {
	arr := make([]interface{}, len(values))
	for i, v := range values {
		arr[i] = v
	}
	return &Document{root: arr}
}

// ParseDocument deserializes content in the given format.
func ParseDocument(content string, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
		return DocumentFromJSON([]byte(content))
	case FormatYAML:
		return DocumentFromYAML([]byte(content))
	default:
		return nil, fmt.Errorf("%w %q", ErrInvalidFormat, format.String())
	}
}

// DocumentFromJSON parses JSON text, failing on duplicate object keys.
func DocumentFromJSON(data []byte) (*Document, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	root, err := decodeJSONValue(dec)
	if err != nil {
		return nil, fmt.Errorf("invalid json content: %w", err)
	}
	if dec.More() {
		return nil, fmt.Errorf("invalid json content: trailing data after document")
	}
	return &Document{root: root}, nil
}

// decodeJSONValue consumes one JSON value from the decoder, building the
// document tree and checking each object level for repeated keys.
func decodeJSONValue(dec *json.Decoder) (interface{}, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch tok := tok.(type) {
	case json.Delim:
		switch tok {
		case '{':
			obj := map[string]interface{}{}
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key := keyTok.(string)
				if _, exists := obj[key]; exists {
					return nil, fmt.Errorf("%w %q", ErrDuplicateKey, key)
				}
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				obj[key] = val
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return obj, nil
		case '[':
			arr := []interface{}{}
			for dec.More() {
				val, err := decodeJSONValue(dec)
				if err != nil {
					return nil, err
				}
				arr = append(arr, val)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return arr, nil
		}
		return nil, fmt.Errorf("unexpected delimiter %q", tok.String())
	case json.Number:
		if i, err := tok.Int64(); err == nil {
			return i, nil
		}
		f, err := tok.Float64()
		if err != nil {
			return nil, err
		}
		return f, nil
	default:
		// string, bool or nil
		return tok, nil
	}
}

// DocumentFromYAML parses YAML text, failing on duplicate mapping keys.
func DocumentFromYAML(data []byte) (*Document, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("invalid yaml content: %w", err)
	}
	if node.Kind != yaml.DocumentNode || len(node.Content) == 0 {
		return nil, fmt.Errorf("invalid yaml content: empty document")
	}
	root, err := decodeYAMLNode(node.Content[0])
	if err != nil {
		return nil, fmt.Errorf("invalid yaml content: %w", err)
	}
	return &Document{root: root}, nil
}

func decodeYAMLNode(n *yaml.Node) (interface{}, error) {
	switch n.Kind {
	case yaml.MappingNode:
		obj := map[string]interface{}{}
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			if _, exists := obj[key]; exists {
				return nil, fmt.Errorf("%w %q", ErrDuplicateKey, key)
			}
			val, err := decodeYAMLNode(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			obj[key] = val
		}
		return obj, nil
	case yaml.SequenceNode:
		arr := []interface{}{}
		for _, c := range n.Content {
			val, err := decodeYAMLNode(c)
			if err != nil {
				return nil, err
			}
			arr = append(arr, val)
		}
		return arr, nil
	case yaml.AliasNode:
		return decodeYAMLNode(n.Alias)
	default:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

// Render serializes the document in the given format. JSON output is
// compact; YAML output has no trailing newline.
func (d *Document) Render(format Format) (string, error) {
	switch format {
	case FormatJSON:
		b, err := json.Marshal(d.root)
		if err != nil {
			return "", fmt.Errorf("failed to render json: %w", err)
		}
		return string(b), nil
	case FormatYAML:
		b, err := yaml.Marshal(d.root)
		if err != nil {
			return "", fmt.Errorf("failed to render yaml: %w", err)
		}
		return strings.TrimRight(string(b), "\n"), nil
	default:
		return "", fmt.Errorf("%w %q", ErrInvalidFormat, format.String())
	}
}

// JSON returns the compact JSON serialization of the document.
func (d *Document) JSON() ([]byte, error) {
	return json.Marshal(d.root)
}

// IsObject reports whether the document root is an object.
func (d *Document) IsObject() bool {
	_, ok := d.root.(map[string]interface{})
	return ok
}

// IsArray reports whether the document root is an array.
func (d *Document) IsArray() bool {
	_, ok := d.root.([]interface{})
	return ok
}

// unescapePointerToken reverses JSON-pointer escaping: "~1" is "/" and
// "~0" is "~". Order matters.
func unescapePointerToken(s string) string {
	s = strings.ReplaceAll(s, "~1", "/")
	return strings.ReplaceAll(s, "~0", "~")
}

// lookup resolves a "/"-separated pointer path against the tree. The empty
// path addresses the root. Array elements are addressed by decimal index.
func (d *Document) lookup(path string) (interface{}, bool) {
	if path == "" {
		return d.root, true
	}
	if !strings.HasPrefix(path, "/") {
		return nil, false
	}
	cur := d.root
	for _, token := range strings.Split(path[1:], "/") {
		token = unescapePointerToken(token)
		switch node := cur.(type) {
		case map[string]interface{}:
			val, ok := node[token]
			if !ok {
				return nil, false
			}
			cur = val
		case []interface{}:
			idx, err := strconv.Atoi(token)
			if err != nil || idx < 0 || idx >= len(node) {
				return nil, false
			}
			cur = node[idx]
		default:
			return nil, false
		}
	}
	return cur, true
}

// GetString returns the string value at the pointer path.
func (d *Document) GetString(path string) (string, bool) {
	val, ok := d.lookup(path)
	if !ok {
		return "", false
	}
	s, ok := val.(string)
	return s, ok
}

// GetStringArray returns the array of strings at the pointer path. It
// fails if the node is not an array or any element is not a string.
func (d *Document) GetStringArray(path string) ([]string, bool) {
	val, ok := d.lookup(path)
	if !ok {
		return nil, false
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, false
	}
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// SetString writes a string value at the pointer path, creating
// intermediate objects as needed. The root must be an object.
func (d *Document) SetString(path, value string) error {
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("invalid pointer path %q", path)
	}
	obj, ok := d.root.(map[string]interface{})
	if !ok {
		return fmt.Errorf("document root is not an object")
	}
	tokens := strings.Split(path[1:], "/")
	for i, token := range tokens {
		token = unescapePointerToken(token)
		if i == len(tokens)-1 {
			obj[token] = value
			return nil
		}
		next, exists := obj[token]
		if !exists {
			child := map[string]interface{}{}
			obj[token] = child
			obj = child
			continue
		}
		child, ok := next.(map[string]interface{})
		if !ok {
			return fmt.Errorf("pointer path %q crosses a non-object node", path)
		}
		obj = child
	}
	return nil
}
