package portabletext

import (
	"bytes"
	"errors"

	json "github.com/goccy/go-json"
)

// Blocks is a document body: an ordered list of top-level nodes.
type Blocks []Block

// Block is a top-level node. Text blocks have Type "block" and carry spans;
// any other Type is a custom object whose fields are kept in Raw.
type Block struct {
	Type     string    `json:"_type"`
	Key      string    `json:"_key,omitempty"`
	Style    string    `json:"style,omitempty"`
	ListItem string    `json:"listItem,omitempty"`
	Level    int       `json:"level,omitempty"`
	Children []Span    `json:"children,omitempty"`
	MarkDefs []MarkDef `json:"markDefs,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// Span is an inline node. Text spans have Type "span"; other types are
// inline objects whose fields are kept in Raw.
type Span struct {
	Type  string   `json:"_type"`
	Key   string   `json:"_key,omitempty"`
	Text  string   `json:"text"`
	Marks []string `json:"marks,omitempty"`

	Raw json.RawMessage `json:"-"`
}

// MarkDef defines an annotation referenced from span marks by Key.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href,omitempty"`

	Raw json.RawMessage `json:"-"`
}

var errNoRaw = errors.New("portabletext: node has no raw fields")

// UnmarshalJSON decodes a body leniently. A body that is not an array
// decodes to nil, and entries that are not valid nodes are dropped.
func (bs *Blocks) UnmarshalJSON(data []byte) error {
	*bs = nil
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '[' {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil
	}
	out := make(Blocks, 0, len(items))
	for _, item := range items {
		var b Block
		if err := json.Unmarshal(item, &b); err != nil {
			continue
		}
		out = append(out, b)
	}
	*bs = out
	return nil
}

func (b *Block) UnmarshalJSON(data []byte) error {
	type plain Block
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*b = Block(p)
	b.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (b Block) MarshalJSON() ([]byte, error) {
	if len(b.Raw) > 0 {
		return b.Raw, nil
	}
	type plain Block
	return json.Marshal(plain(b))
}

// Decode unmarshals the node's original fields into v. Custom serializers
// use it to read type-specific attributes.
func (b Block) Decode(v any) error {
	if len(b.Raw) == 0 {
		return errNoRaw
	}
	return json.Unmarshal(b.Raw, v)
}

func (s *Span) UnmarshalJSON(data []byte) error {
	type plain Span
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*s = Span(p)
	s.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (s Span) MarshalJSON() ([]byte, error) {
	if len(s.Raw) > 0 {
		return s.Raw, nil
	}
	type plain Span
	return json.Marshal(plain(s))
}

func (m *MarkDef) UnmarshalJSON(data []byte) error {
	type plain MarkDef
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*m = MarkDef(p)
	m.Raw = append(json.RawMessage(nil), data...)
	return nil
}

func (m MarkDef) MarshalJSON() ([]byte, error) {
	if len(m.Raw) > 0 {
		return m.Raw, nil
	}
	type plain MarkDef
	return json.Marshal(plain(m))
}

// Decode unmarshals the annotation's original fields into v.
func (m MarkDef) Decode(v any) error {
	if len(m.Raw) == 0 {
		return errNoRaw
	}
	return json.Unmarshal(m.Raw, v)
}

func (b Block) isListItem() bool {
	return b.Type == "block" && b.ListItem != ""
}
