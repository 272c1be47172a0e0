package protobuf

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/yukimura/anyform"
	"github.com/yukimura/anyform/internal/wire"
)

// Encoder serializes a generic tree value into one binary Protobuf message,
// picking the well-known shape from the value: the wrapper-bytes shape for
// an exact {"@type","value"} object, the struct shape for any other object,
// and the single-Value shape for everything else.
type Encoder struct {
	cfg *anyform.Config
}

// NewEncoder returns an encoder honoring cfg; nil behaves like the zero
// Config.
func NewEncoder(cfg *anyform.Config) *Encoder {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	return &Encoder{cfg: cfg}
}

// Encode serializes v to raw message bytes.
func (e *Encoder) Encode(v any) ([]byte, error) {
	dc := anyform.NewDepthContext(e.cfg)
	if obj, ok := v.(*anyform.Object); ok {
		if url, raw, ok := anyShape(obj); ok {
			return e.encodeAny(url, raw)
		}
		return e.encodeStruct(obj, dc)
	}
	return e.encodeValueMsg(v, dc)
}

// EncodeToText serializes v and renders the bytes as text per the
// configured rendering (base64 by default).
func (e *Encoder) EncodeToText(v any) (string, error) {
	b, err := e.Encode(v)
	if err != nil {
		return "", err
	}
	return Render(b, e.cfg), nil
}

// anyShape matches an object shaped exactly {"@type": string, "value":
// string} and returns the type URL and the base64 payload text.
func anyShape(obj *anyform.Object) (url, raw string, ok bool) {
	if obj.Len() != 2 {
		return "", "", false
	}
	tv, ok1 := obj.Get("@type")
	vv, ok2 := obj.Get("value")
	if !ok1 || !ok2 {
		return "", "", false
	}
	url, ok1 = tv.(string)
	raw, ok2 = vv.(string)
	if !ok1 || !ok2 || url == "" {
		return "", "", false
	}
	return url, raw, true
}

func (e *Encoder) encodeAny(url, rawText string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(rawText)
	if err != nil {
		if !e.cfg.IgnoreErrors {
			return nil, anyform.NewIssue(anyform.CodeInvalidEncodedInput,
				"wrapper value is not valid base64: "+err.Error(), -1)
		}
		raw = []byte(rawText)
	}
	out := wire.AppendTag(nil, anyFieldTypeURL, wire.TypeBytes)
	out = wire.AppendString(out, url)
	out = wire.AppendTag(out, anyFieldValue, wire.TypeBytes)
	out = wire.AppendBytes(out, raw)
	return out, nil
}

// encodeStruct emits one map entry per key, in insertion order.
func (e *Encoder) encodeStruct(obj *anyform.Object, dc anyform.DepthContext) ([]byte, error) {
	var out []byte
	var fatal error
	obj.Range(func(k string, v any) bool {
		next := dc.Next()
		if err := next.Check(); err != nil {
			if !dc.IgnoreErrors() {
				fatal = err
				return false
			}
			v = next.Placeholder()
		}
		vb, err := e.encodeValueMsg(v, next)
		if err != nil {
			fatal = err
			return false
		}
		entry := wire.AppendTag(nil, entryFieldKey, wire.TypeBytes)
		entry = wire.AppendString(entry, k)
		entry = wire.AppendTag(entry, entryFieldValue, wire.TypeBytes)
		entry = wire.AppendBytes(entry, vb)
		out = wire.AppendTag(out, structFieldEntry, wire.TypeBytes)
		out = wire.AppendBytes(out, entry)
		return true
	})
	if fatal != nil {
		return nil, fatal
	}
	return out, nil
}

// encodeValueMsg wraps one value into a Value message. Scalar number/date
// formatting is applied here, immediately before the wire representation is
// chosen.
func (e *Encoder) encodeValueMsg(v any, dc anyform.DepthContext) ([]byte, error) {
	v = e.formatScalar(v)
	switch tv := v.(type) {
	case nil:
		out := wire.AppendTag(nil, valueFieldNull, wire.TypeVarint)
		return wire.AppendVarint(out, 0), nil
	case bool:
		out := wire.AppendTag(nil, valueFieldBool, wire.TypeVarint)
		if tv {
			return wire.AppendVarint(out, 1), nil
		}
		return wire.AppendVarint(out, 0), nil
	case string:
		out := wire.AppendTag(nil, valueFieldString, wire.TypeBytes)
		return wire.AppendString(out, tv), nil
	case int64:
		return e.appendNumber(float64(tv)), nil
	case int:
		return e.appendNumber(float64(tv)), nil
	case uint64:
		return e.appendNumber(float64(tv)), nil
	case float64:
		return e.appendNumber(tv), nil
	case *anyform.Object:
		sb, err := e.encodeStruct(tv, dc)
		if err != nil {
			return nil, err
		}
		out := wire.AppendTag(nil, valueFieldStruct, wire.TypeBytes)
		return wire.AppendBytes(out, sb), nil
	case []any:
		var list []byte
		for _, elem := range tv {
			next := dc.Next()
			if err := next.Check(); err != nil {
				if !dc.IgnoreErrors() {
					return nil, err
				}
				elem = next.Placeholder()
			}
			eb, err := e.encodeValueMsg(elem, next)
			if err != nil {
				return nil, err
			}
			list = wire.AppendTag(list, listFieldValues, wire.TypeBytes)
			list = wire.AppendBytes(list, eb)
		}
		out := wire.AppendTag(nil, valueFieldList, wire.TypeBytes)
		return wire.AppendBytes(out, list), nil
	default:
		if !e.cfg.IgnoreErrors {
			return nil, anyform.NewIssue(anyform.CodeInvalidValue,
				fmt.Sprintf("unsupported value type %T", v), -1)
		}
		out := wire.AppendTag(nil, valueFieldString, wire.TypeBytes)
		return wire.AppendString(out, fmt.Sprint(v)), nil
	}
}

func (e *Encoder) appendNumber(f float64) []byte {
	out := wire.AppendTag(nil, valueFieldNumber, wire.TypeFixed64)
	return wire.AppendFixed64(out, math.Float64bits(f))
}

// formatScalar applies the configured number and date formats. These are
// value-level transforms: a formatted number or date becomes a string (or
// Unix integer) before the wire shape is chosen.
func (e *Encoder) formatScalar(v any) any {
	switch tv := v.(type) {
	case time.Time:
		switch e.cfg.DateFormat {
		case anyform.DateUnixSeconds:
			return tv.Unix()
		case anyform.DateCustom:
			layout := e.cfg.DateLayout
			if layout == "" {
				layout = time.RFC3339
			}
			return tv.Format(layout)
		default:
			return tv.UTC().Format(time.RFC3339)
		}
	case int64:
		return e.formatInt(tv)
	case int:
		return e.formatInt(int64(tv))
	case uint64:
		switch e.cfg.NumberFormat {
		case anyform.NumberScientific:
			return strconv.FormatFloat(float64(tv), 'e', -1, 64)
		case anyform.NumberHexString:
			return "0x" + strconv.FormatUint(tv, 16)
		}
		return tv
	case float64:
		switch e.cfg.NumberFormat {
		case anyform.NumberScientific:
			return strconv.FormatFloat(tv, 'e', -1, 64)
		case anyform.NumberHexString:
			if tv == math.Trunc(tv) {
				return e.formatInt(int64(tv))
			}
		}
		return tv
	}
	return v
}

func (e *Encoder) formatInt(n int64) any {
	switch e.cfg.NumberFormat {
	case anyform.NumberScientific:
		return strconv.FormatFloat(float64(n), 'e', -1, 64)
	case anyform.NumberHexString:
		if n < 0 {
			return "-0x" + strconv.FormatUint(uint64(-n), 16)
		}
		return "0x" + strconv.FormatUint(uint64(n), 16)
	}
	return n
}
