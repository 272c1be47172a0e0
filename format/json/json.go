// Package json is the JSON adapter: a token walk over goccy/go-json that
// builds ordered Object trees, and an order-preserving writer.
package json

import (
	"bytes"
	"io"
	"strconv"
	"strings"
	"time"

	gojson "github.com/goccy/go-json"

	"github.com/yukimura/anyform"
)

// Codec is the anyform registration for JSON.
type Codec struct{}

func init() {
	anyform.Register(anyform.FormatJSON, Codec{})
}

// Decode parses JSON into a generic tree value, preserving object key
// order.
func (Codec) Decode(data []byte, cfg *anyform.Config) (any, error) {
	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, parseIssue(err)
	}
	v, err := decodeValue(dec, tok, anyform.NewDepthContext(cfg))
	if err != nil {
		return nil, err
	}
	return v, nil
}

func decodeValue(dec *gojson.Decoder, tok gojson.Token, dc anyform.DepthContext) (any, error) {
	switch t := tok.(type) {
	case gojson.Delim:
		switch t {
		case '{':
			return decodeObject(dec, dc)
		case '[':
			return decodeArray(dec, dc)
		}
		return nil, parseIssue(io.ErrUnexpectedEOF)
	case string:
		return t, nil
	case gojson.Number:
		if n, err := strconv.ParseInt(string(t), 10, 64); err == nil {
			return n, nil
		}
		f, err := strconv.ParseFloat(string(t), 64)
		if err != nil {
			return nil, parseIssue(err)
		}
		return f, nil
	case float64:
		return t, nil
	case bool:
		return t, nil
	case nil:
		return nil, nil
	}
	return nil, parseIssue(io.ErrUnexpectedEOF)
}

func decodeObject(dec *gojson.Decoder, dc anyform.DepthContext) (any, error) {
	obj := anyform.NewObject()
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, parseIssue(err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == '}' {
			return obj, nil
		}
		key, ok := tok.(string)
		if !ok {
			return nil, parseIssue(io.ErrUnexpectedEOF)
		}
		vt, err := dec.Token()
		if err != nil {
			return nil, parseIssue(err)
		}
		next := dc.Next()
		if cerr := next.Check(); cerr != nil {
			if !dc.IgnoreErrors() {
				return nil, cerr
			}
			if isContainer(vt) {
				if err := skipContainer(dec); err != nil {
					return nil, parseIssue(err)
				}
			}
			obj.Set(key, next.Placeholder())
			continue
		}
		v, err := decodeValue(dec, vt, next)
		if err != nil {
			return nil, err
		}
		obj.Set(key, v)
	}
}

func decodeArray(dec *gojson.Decoder, dc anyform.DepthContext) (any, error) {
	out := []any{}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, parseIssue(err)
		}
		if d, ok := tok.(gojson.Delim); ok && d == ']' {
			return out, nil
		}
		next := dc.Next()
		if cerr := next.Check(); cerr != nil {
			if !dc.IgnoreErrors() {
				return nil, cerr
			}
			if isContainer(tok) {
				if err := skipContainer(dec); err != nil {
					return nil, parseIssue(err)
				}
			}
			out = append(out, next.Placeholder())
			continue
		}
		v, err := decodeValue(dec, tok, next)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
}

func isContainer(tok gojson.Token) bool {
	d, ok := tok.(gojson.Delim)
	return ok && (d == '{' || d == '[')
}

// skipContainer consumes the remainder of an already-opened object or
// array subtree.
func skipContainer(dec *gojson.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		if d, ok := tok.(gojson.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func parseIssue(err error) error {
	return anyform.NewIssue(anyform.CodeParseError, err.Error(), -1)
}

// Encode renders a generic tree value as JSON with ordered keys. Output is
// indented unless Config.Minified is set.
func (Codec) Encode(v any, cfg *anyform.Config) ([]byte, error) {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	var b strings.Builder
	if err := encodeValue(&b, v, cfg, 0); err != nil {
		return nil, err
	}
	return []byte(b.String()), nil
}

func encodeValue(b *strings.Builder, v any, cfg *anyform.Config, level int) error {
	switch tv := v.(type) {
	case *anyform.Object:
		if tv.Len() == 0 {
			b.WriteString("{}")
			return nil
		}
		b.WriteByte('{')
		i := 0
		var fatal error
		tv.Range(func(k string, child any) bool {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewline(b, cfg, level+1)
			kb, err := gojson.Marshal(k)
			if err != nil {
				fatal = err
				return false
			}
			b.Write(kb)
			b.WriteByte(':')
			if !cfg.Minified {
				b.WriteByte(' ')
			}
			if err := encodeValue(b, child, cfg, level+1); err != nil {
				fatal = err
				return false
			}
			i++
			return true
		})
		if fatal != nil {
			return fatal
		}
		writeNewline(b, cfg, level)
		b.WriteByte('}')
		return nil
	case []any:
		if len(tv) == 0 {
			b.WriteString("[]")
			return nil
		}
		b.WriteByte('[')
		for i, child := range tv {
			if i > 0 {
				b.WriteByte(',')
			}
			writeNewline(b, cfg, level+1)
			if err := encodeValue(b, child, cfg, level+1); err != nil {
				return err
			}
		}
		writeNewline(b, cfg, level)
		b.WriteByte(']')
		return nil
	case time.Time:
		return encodeValue(b, formatDate(tv, cfg), cfg, level)
	default:
		sb, err := gojson.Marshal(tv)
		if err != nil {
			return anyform.NewIssue(anyform.CodeInvalidValue, err.Error(), -1)
		}
		b.Write(sb)
		return nil
	}
}

func writeNewline(b *strings.Builder, cfg *anyform.Config, level int) {
	if cfg.Minified {
		return
	}
	b.WriteByte('\n')
	indent := cfg.IndentOrDefault()
	for i := 0; i < level; i++ {
		b.WriteString(indent)
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
