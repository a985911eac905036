package world

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Item names a collectible. The empty Item means "no item" and is encoded as null.
type Item string

// MarshalJSON encodes the empty item as null.
func (i Item) MarshalJSON() ([]byte, error) {
	if i == "" {
		return []byte("null"), nil
	}
	return json.Marshal(string(i))
}

// UnmarshalJSON decodes null as the empty item.
func (i *Item) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*i = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("decoding item: %w", err)
	}
	*i = Item(s)
	return nil
}

// MarshalJSON encodes exits as a JSON object in declaration order. Removal
// markers encode as null.
func (e Exits) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, x := range e {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(x.Direction))
		if err != nil {
			return nil, err
		}
		v := []byte("null")
		if x.TargetRoom != "" {
			if v, err = json.Marshal(x.TargetRoom); err != nil {
				return nil, err
			}
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a JSON object of direction → room ID, keeping key order.
// Null or empty-string targets decode as removal markers; content loading
// drops them, overlay patches keep them.
func (e *Exits) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return fmt.Errorf("decoding exits: %w", err)
	}
	if tok == nil {
		*e = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("decoding exits: expected object, got %v", tok)
	}
	out := Exits{}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("decoding exits: %w", err)
		}
		key, _ := keyTok.(string)
		var target *string
		if err := dec.Decode(&target); err != nil {
			return fmt.Errorf("decoding exit %q: %w", key, err)
		}
		if target == nil {
			out = out.Set(Direction(key), "")
			continue
		}
		out = out.Set(Direction(key), *target)
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("decoding exits: %w", err)
	}
	*e = out
	return nil
}

// UnmarshalYAML decodes a YAML mapping of direction → room ID, keeping key order.
func (e *Exits) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.Tag == "!!null" {
		*e = nil
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: exits must be a mapping", node.Line)
	}
	out := Exits{}
	for i := 0; i+1 < len(node.Content); i += 2 {
		k, v := node.Content[i], node.Content[i+1]
		if v.Tag == "!!null" || v.Value == "" {
			continue
		}
		out = out.Set(Direction(k.Value), v.Value)
	}
	*e = out
	return nil
}

// MarshalYAML encodes exits as an ordered YAML mapping.
func (e Exits) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	for _, x := range e {
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: string(x.Direction)},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: x.TargetRoom},
		)
	}
	return node, nil
}

// MarshalJSON encodes a position as [x, y].
func (p Position) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.X, p.Y})
}

// UnmarshalJSON accepts [x, y] or {"x": .., "y": ..}.
func (p *Position) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if bytes.Equal(trimmed, []byte("null")) {
		return nil
	}
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var obj struct {
			X int `json:"x"`
			Y int `json:"y"`
		}
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("decoding pos: %w", err)
		}
		p.X, p.Y = obj.X, obj.Y
		return nil
	}
	var xy []int
	if err := json.Unmarshal(trimmed, &xy); err != nil {
		return fmt.Errorf("decoding pos: %w", err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("decoding pos: expected [x, y], got %d values", len(xy))
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// UnmarshalYAML accepts [x, y].
func (p *Position) UnmarshalYAML(node *yaml.Node) error {
	var xy []int
	if err := node.Decode(&xy); err != nil {
		return fmt.Errorf("line %d: decoding pos: %w", node.Line, err)
	}
	if len(xy) != 2 {
		return fmt.Errorf("line %d: pos must be [x, y]", node.Line)
	}
	p.X, p.Y = xy[0], xy[1]
	return nil
}

// MarshalYAML encodes a position as a flow sequence.
func (p Position) MarshalYAML() (interface{}, error) {
	return &yaml.Node{
		Kind:  yaml.SequenceNode,
		Style: yaml.FlowStyle,
		Content: []*yaml.Node{
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(p.X)},
			{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(p.Y)},
		},
	}, nil
}
