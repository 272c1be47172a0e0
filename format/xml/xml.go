// Package xml is the XML adapter: a token walk over encoding/xml.
// Attributes become "@name" keys, element text becomes "#text" (or a bare
// string when an element has no attributes or children), and repeated
// sibling elements coalesce into arrays.
package xml

import (
	"bytes"
	goxml "encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/yukimura/anyform"
)

// Codec is the anyform registration for XML.
type Codec struct{}

func init() {
	anyform.Register(anyform.FormatXML, Codec{})
}

// Decode parses one XML document into a generic tree value keyed by the
// root element name.
func (Codec) Decode(data []byte, cfg *anyform.Config) (any, error) {
	dec := goxml.NewDecoder(bytes.NewReader(data))
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, anyform.NewIssue(anyform.CodeParseError, "no root element", -1)
		}
		if err != nil {
			return nil, anyform.NewIssue(anyform.CodeParseError, err.Error(), dec.InputOffset())
		}
		start, ok := tok.(goxml.StartElement)
		if !ok {
			continue
		}
		v, err := decodeElement(dec, start, anyform.NewDepthContext(cfg))
		if err != nil {
			return nil, err
		}
		root := anyform.NewObject()
		root.Set(start.Name.Local, v)
		return root, nil
	}
}

func decodeElement(dec *goxml.Decoder, start goxml.StartElement, dc anyform.DepthContext) (any, error) {
	obj := anyform.NewObject()
	for _, a := range start.Attr {
		obj.Set("@"+a.Name.Local, a.Value)
	}
	var text strings.Builder
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, anyform.NewIssue(anyform.CodeParseError, err.Error(), dec.InputOffset())
		}
		switch t := tok.(type) {
		case goxml.StartElement:
			next := dc.Next()
			if cerr := next.Check(); cerr != nil {
				if !dc.IgnoreErrors() {
					return nil, cerr
				}
				if err := dec.Skip(); err != nil {
					return nil, anyform.NewIssue(anyform.CodeParseError, err.Error(), dec.InputOffset())
				}
				coalesce(obj, t.Name.Local, next.Placeholder())
				continue
			}
			child, err := decodeElement(dec, t, next)
			if err != nil {
				return nil, err
			}
			coalesce(obj, t.Name.Local, child)
		case goxml.CharData:
			text.Write(t)
		case goxml.EndElement:
			txt := strings.TrimSpace(text.String())
			if obj.Len() == 0 {
				return txt, nil
			}
			if txt != "" {
				obj.Set("#text", txt)
			}
			return obj, nil
		}
	}
}

func coalesce(obj *anyform.Object, key string, v any) {
	prev, ok := obj.Get(key)
	if !ok {
		obj.Set(key, v)
		return
	}
	if arr, ok := prev.([]any); ok {
		obj.Set(key, append(arr, v))
		return
	}
	obj.Set(key, []any{prev, v})
}

// Encode renders a generic tree value as an XML document. An object with a
// single key supplies the root element name; anything else is wrapped in
// <root>.
func (Codec) Encode(v any, cfg *anyform.Config) ([]byte, error) {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	name := "root"
	if obj, ok := v.(*anyform.Object); ok && obj.Len() == 1 {
		k := obj.Keys()[0]
		if !anyform.IsMetadataKey(k) {
			inner, _ := obj.Get(k)
			name, v = k, inner
		}
	}
	var b bytes.Buffer
	b.WriteString(strings.TrimSuffix(goxml.Header, "\n"))
	if err := writeElement(&b, name, v, cfg, 0); err != nil {
		return nil, err
	}
	return b.Bytes(), nil
}

func writeElement(b *bytes.Buffer, name string, v any, cfg *anyform.Config, level int) error {
	if arr, ok := v.([]any); ok {
		for _, elem := range arr {
			if err := writeElement(b, name, elem, cfg, level); err != nil {
				return err
			}
		}
		return nil
	}
	writeIndent(b, cfg, level)
	obj, isObj := v.(*anyform.Object)
	if !isObj {
		b.WriteString("<" + name + ">")
		if err := writeText(b, v, cfg); err != nil {
			return err
		}
		b.WriteString("</" + name + ">")
		return nil
	}
	b.WriteString("<" + name)
	var text any
	children := false
	var fatal error
	obj.Range(func(k string, child any) bool {
		if strings.HasPrefix(k, "@") {
			b.WriteString(" " + k[1:] + `="`)
			if err := writeText(b, child, cfg); err != nil {
				fatal = err
				return false
			}
			b.WriteString(`"`)
			return true
		}
		if k == "#text" {
			text = child
		} else {
			children = true
		}
		return true
	})
	if fatal != nil {
		return fatal
	}
	if text == nil && !children {
		b.WriteString("/>")
		return nil
	}
	b.WriteString(">")
	if !children {
		if err := writeText(b, text, cfg); err != nil {
			return err
		}
		b.WriteString("</" + name + ">")
		return nil
	}
	obj.Range(func(k string, child any) bool {
		if strings.HasPrefix(k, "@") || k == "#text" {
			return true
		}
		if err := writeElement(b, k, child, cfg, level+1); err != nil {
			fatal = err
			return false
		}
		return true
	})
	if fatal != nil {
		return fatal
	}
	if text != nil {
		writeIndent(b, cfg, level+1)
		if err := writeText(b, text, cfg); err != nil {
			return err
		}
	}
	writeIndent(b, cfg, level)
	b.WriteString("</" + name + ">")
	return nil
}

func writeIndent(b *bytes.Buffer, cfg *anyform.Config, level int) {
	if cfg.Minified {
		return
	}
	b.WriteByte('\n')
	indent := cfg.IndentOrDefault()
	for i := 0; i < level; i++ {
		b.WriteString(indent)
	}
}

func writeText(b *bytes.Buffer, v any, cfg *anyform.Config) error {
	var s string
	switch tv := v.(type) {
	case nil:
		s = ""
	case string:
		s = tv
	case bool:
		s = strconv.FormatBool(tv)
	case int64:
		s = strconv.FormatInt(tv, 10)
	case uint64:
		s = strconv.FormatUint(tv, 10)
	case int:
		s = strconv.Itoa(tv)
	case float64:
		s = strconv.FormatFloat(tv, 'g', -1, 64)
	case time.Time:
		switch cfg.DateFormat {
		case anyform.DateUnixSeconds:
			s = strconv.FormatInt(tv.Unix(), 10)
		case anyform.DateCustom:
			layout := cfg.DateLayout
			if layout == "" {
				layout = time.RFC3339
			}
			s = tv.Format(layout)
		default:
			s = tv.UTC().Format(time.RFC3339)
		}
	default:
		return anyform.NewIssue(anyform.CodeInvalidValue,
			fmt.Sprintf("unsupported value type %T in XML text", v), -1)
	}
	return goxml.EscapeText(b, []byte(s))
}
