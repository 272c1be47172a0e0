// Package yaml is the YAML adapter: a yaml.Node walk in both directions,
// which keeps object key order (Node.Content holds mapping pairs in
// document order).
package yaml

import (
	"bytes"
	"strconv"
	"time"

	goyaml "gopkg.in/yaml.v3"

	"github.com/yukimura/anyform"
)

// Codec is the anyform registration for YAML.
type Codec struct{}

func init() {
	anyform.Register(anyform.FormatYAML, Codec{})
}

// Decode parses YAML into a generic tree value, preserving mapping key
// order.
func (Codec) Decode(data []byte, cfg *anyform.Config) (any, error) {
	var doc goyaml.Node
	if err := goyaml.Unmarshal(data, &doc); err != nil {
		return nil, anyform.NewIssue(anyform.CodeParseError, err.Error(), -1)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return nil, nil
	}
	return nodeValue(doc.Content[0], anyform.NewDepthContext(cfg))
}

func nodeValue(n *goyaml.Node, dc anyform.DepthContext) (any, error) {
	switch n.Kind {
	case goyaml.MappingNode:
		obj := anyform.NewObject()
		for i := 0; i+1 < len(n.Content); i += 2 {
			key := n.Content[i].Value
			child := n.Content[i+1]
			next := dc.Next()
			if err := next.Check(); err != nil {
				if !dc.IgnoreErrors() {
					return nil, err
				}
				obj.Set(key, next.Placeholder())
				continue
			}
			v, err := nodeValue(child, next)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
		}
		return obj, nil
	case goyaml.SequenceNode:
		out := []any{}
		for _, child := range n.Content {
			next := dc.Next()
			if err := next.Check(); err != nil {
				if !dc.IgnoreErrors() {
					return nil, err
				}
				out = append(out, next.Placeholder())
				continue
			}
			v, err := nodeValue(child, next)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case goyaml.ScalarNode:
		return scalarValue(n), nil
	case goyaml.AliasNode:
		return nodeValue(n.Alias, dc)
	}
	return nil, nil
}

func scalarValue(n *goyaml.Node) any {
	switch n.Tag {
	case "!!null":
		return nil
	case "!!bool":
		b, err := strconv.ParseBool(n.Value)
		if err == nil {
			return b
		}
	case "!!int":
		if i, err := strconv.ParseInt(n.Value, 0, 64); err == nil {
			return i
		}
		if u, err := strconv.ParseUint(n.Value, 0, 64); err == nil {
			return u
		}
	case "!!float":
		if f, err := strconv.ParseFloat(n.Value, 64); err == nil {
			return f
		}
	case "!!timestamp":
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, n.Value); err == nil {
				return t
			}
		}
	}
	return n.Value
}

// Encode renders a generic tree value as YAML with ordered keys.
func (Codec) Encode(v any, cfg *anyform.Config) ([]byte, error) {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	node, err := buildNode(v, cfg)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	enc := goyaml.NewEncoder(&buf)
	enc.SetIndent(len(cfg.IndentOrDefault()))
	if err := enc.Encode(node); err != nil {
		return nil, anyform.NewIssue(anyform.CodeInvalidValue, err.Error(), -1)
	}
	if err := enc.Close(); err != nil {
		return nil, anyform.NewIssue(anyform.CodeInvalidValue, err.Error(), -1)
	}
	return buf.Bytes(), nil
}

func buildNode(v any, cfg *anyform.Config) (*goyaml.Node, error) {
	switch tv := v.(type) {
	case *anyform.Object:
		node := &goyaml.Node{Kind: goyaml.MappingNode, Tag: "!!map"}
		var fatal error
		tv.Range(func(k string, child any) bool {
			key := &goyaml.Node{Kind: goyaml.ScalarNode, Tag: "!!str", Value: k}
			cn, err := buildNode(child, cfg)
			if err != nil {
				fatal = err
				return false
			}
			node.Content = append(node.Content, key, cn)
			return true
		})
		if fatal != nil {
			return nil, fatal
		}
		return node, nil
	case []any:
		node := &goyaml.Node{Kind: goyaml.SequenceNode, Tag: "!!seq"}
		for _, child := range tv {
			cn, err := buildNode(child, cfg)
			if err != nil {
				return nil, err
			}
			node.Content = append(node.Content, cn)
		}
		return node, nil
	case time.Time:
		return buildNode(formatDate(tv, cfg), cfg)
	default:
		node := &goyaml.Node{}
		if err := node.Encode(tv); err != nil {
			return nil, anyform.NewIssue(anyform.CodeInvalidValue, err.Error(), -1)
		}
		return node, nil
	}
}

func formatDate(t time.Time, cfg *anyform.Config) any {
	switch cfg.DateFormat {
	case anyform.DateUnixSeconds:
		return t.Unix()
	case anyform.DateCustom:
		layout := cfg.DateLayout
		if layout == "" {
			layout = time.RFC3339
		}
		return t.Format(layout)
	default:
		return t.UTC().Format(time.RFC3339)
	}
}
