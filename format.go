package babylon

import (
	"bytes"
	"fmt"
	"path"
	"strings"

	"github.com/magiconair/properties"
	"gopkg.in/yaml.v3"
)

// Format decodes and encodes ordered message bundles.
type Format interface {
	Decode(data []byte) (*Messages, error)
	Encode(msgs *Messages) ([]byte, error)
}

// FormatFor picks the format of a message file by extension.
func FormatFor(p string) (Format, error) {
	switch strings.ToLower(path.Ext(p)) {
	case ".properties":
		return PropertiesFormat{}, nil
	case ".yaml", ".yml":
		return YAMLFormat{}, nil
	case ".ts":
		return TSFormat{}, nil
	default:
		return nil, fmt.Errorf("%s: %w", p, ErrUnsupportedFormat)
	}
}

// SupportedExtension reports whether p has a message file extension.
func SupportedExtension(p string) bool {
	_, err := FormatFor(p)
	return err == nil
}

// PropertiesFormat handles Java-style .properties files.
type PropertiesFormat struct{}

func (PropertiesFormat) Decode(data []byte) (*Messages, error) {
	l := &properties.Loader{Encoding: properties.UTF8, DisableExpansion: true}
	p, err := l.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	msgs := NewMessages()
	for _, k := range p.Keys() {
		v, _ := p.Get(k)
		msgs.Set(k, v)
	}
	return msgs, nil
}

func (PropertiesFormat) Encode(msgs *Messages) ([]byte, error) {
	p := properties.NewProperties()
	p.DisableExpansion = true
	for _, k := range msgs.Keys() {
		v, _ := msgs.Get(k)
		if v == nil {
			continue
		}
		if _, _, err := p.Set(k, *v); err != nil {
			return nil, fmt.Errorf("set %s: %w", k, err)
		}
	}
	var buf bytes.Buffer
	if _, err := p.Write(&buf, properties.UTF8); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// YAMLFormat handles YAML message files. Nested mappings flatten to dotted
// keys in document order; null values are absent messages.
type YAMLFormat struct{}

func (YAMLFormat) Decode(data []byte) (*Messages, error) {
	msgs := NewMessages()
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return msgs, nil
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: top level must be a mapping", root.Line)
	}
	if err := flattenYAML("", root, msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

func flattenYAML(prefix string, n *yaml.Node, msgs *Messages) error {
	for i := 0; i+1 < len(n.Content); i += 2 {
		key := n.Content[i].Value
		if prefix != "" {
			key = prefix + "." + key
		}
		v := n.Content[i+1]
		switch v.Kind {
		case yaml.MappingNode:
			if err := flattenYAML(key, v, msgs); err != nil {
				return err
			}
		case yaml.ScalarNode:
			if v.Tag == "!!null" {
				msgs.Put(key, nil)
				continue
			}
			msgs.Set(key, v.Value)
		case yaml.AliasNode:
			if v.Alias != nil && v.Alias.Kind == yaml.ScalarNode {
				msgs.Set(key, v.Alias.Value)
				continue
			}
			return fmt.Errorf("line %d: alias %q must point to a scalar", v.Line, key)
		default:
			return fmt.Errorf("line %d: %q must be a string or a mapping", v.Line, key)
		}
	}
	return nil
}

func (YAMLFormat) Encode(msgs *Messages) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range msgs.Keys() {
		v, _ := msgs.Get(k)
		if v == nil {
			continue
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: *v},
		)
	}
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(&yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}}); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
