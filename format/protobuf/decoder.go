// Package protobuf implements the binary Protobuf codec: a schema-less
// message decoder layered over three well-known shapes (Struct, Any, Value)
// with a generic field-number fallback, the mirror-image value encoder, and
// a chunked streaming framer. No .proto descriptors are involved; decoding
// is opportunistic and the fallback is best-effort.
package protobuf

import (
	"encoding/base64"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yukimura/anyform"
	"github.com/yukimura/anyform/internal/wire"
)

// Field numbers of the well-known google.protobuf shapes the decoder
// recognizes structurally.
const (
	structFieldEntry = 1 // Struct: repeated map entry
	entryFieldKey    = 1 // map entry: string key
	entryFieldValue  = 2 // map entry: Value message

	anyFieldTypeURL = 1 // Any: type URL string
	anyFieldValue   = 2 // Any: raw payload bytes

	valueFieldNull   = 1 // Value one-of: null_value enum
	valueFieldNumber = 2 // Value one-of: double
	valueFieldString = 3 // Value one-of: string
	valueFieldBool   = 4 // Value one-of: bool
	valueFieldStruct = 5 // Value one-of: nested Struct
	valueFieldList   = 6 // Value one-of: ListValue

	listFieldValues = 1 // ListValue: repeated Value
)

// Decoder turns one binary Protobuf message into a generic tree value.
type Decoder struct {
	cfg *anyform.Config
}

// NewDecoder returns a decoder honoring cfg; nil behaves like the zero
// Config.
func NewDecoder(cfg *anyform.Config) *Decoder {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	return &Decoder{cfg: cfg}
}

// shapeDecoder attempts one well-known shape. ok=false means "not this
// shape" and is never an error; a non-nil error is a real failure (depth
// exceeded under a strict policy) and aborts the whole decode.
type shapeDecoder func(data []byte, dc anyform.DepthContext) (any, bool, error)

// Decode decodes one message buffer. It is total for structurally
// unreadable input: when no shape matches and not a single wire field can
// be read, it returns the raw-data wrapper instead of an error. Only depth
// enforcement (with IgnoreErrors unset) can fail.
func (d *Decoder) Decode(data []byte) (any, error) {
	dc := anyform.NewDepthContext(d.cfg)
	for _, try := range []shapeDecoder{d.tryStruct, d.tryAny, d.tryValue} {
		v, ok, err := try(data, dc)
		if err != nil {
			return nil, err
		}
		if ok {
			return v, nil
		}
	}
	return d.decodeGeneric(data, dc)
}

// DecodeText decodes base64 or hex text (per DecodeInput) into a message
// and then decodes the message.
func (d *Decoder) DecodeText(s string) (any, error) {
	raw, err := DecodeInput(s)
	if err != nil {
		return nil, err
	}
	return d.Decode(raw)
}

// tryStruct matches the struct-like shape: every top-level field is a
// length-delimited map entry under field 1.
func (d *Decoder) tryStruct(data []byte, dc anyform.DepthContext) (any, bool, error) {
	r := wire.NewReader(data)
	obj := anyform.NewObject()
	for !r.Empty() {
		field, wt, err := r.ReadTag()
		if err != nil || field != structFieldEntry || wt != wire.TypeBytes {
			return nil, false, nil
		}
		entry, err := r.ReadBytes()
		if err != nil {
			return nil, false, nil
		}
		key, val, ok, err := d.decodeStructEntry(entry, dc)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return nil, false, nil
		}
		obj.Set(key, val)
	}
	return obj, true, nil
}

// decodeStructEntry parses one map entry: field 1 string key, field 2 Value
// message. A missing value decodes as null.
func (d *Decoder) decodeStructEntry(entry []byte, dc anyform.DepthContext) (string, any, bool, error) {
	r := wire.NewReader(entry)
	var (
		key              string
		val              any
		haveKey, haveVal bool
	)
	for !r.Empty() {
		field, wt, err := r.ReadTag()
		if err != nil || wt != wire.TypeBytes {
			return "", nil, false, nil
		}
		switch {
		case field == entryFieldKey && !haveKey:
			kb, err := r.ReadBytes()
			if err != nil || !utf8.Valid(kb) {
				return "", nil, false, nil
			}
			key = string(kb)
			haveKey = true
		case field == entryFieldValue && !haveVal:
			vb, err := r.ReadBytes()
			if err != nil {
				return "", nil, false, nil
			}
			next := dc.Next()
			if err := next.Check(); err != nil {
				if !dc.IgnoreErrors() {
					return "", nil, false, err
				}
				val = next.Placeholder()
				haveVal = true
				continue
			}
			v, ok, verr := d.decodeValueMsg(vb, next)
			if verr != nil {
				return "", nil, false, verr
			}
			if !ok {
				return "", nil, false, nil
			}
			val = v
			haveVal = true
		default:
			return "", nil, false, nil
		}
	}
	if !haveKey {
		return "", nil, false, nil
	}
	return key, val, true, nil
}

// tryAny matches the wrapper-bytes shape: exactly a type URL (field 1) and
// a raw payload (field 2).
func (d *Decoder) tryAny(data []byte, dc anyform.DepthContext) (any, bool, error) {
	r := wire.NewReader(data)
	var (
		url              string
		raw              []byte
		haveURL, haveRaw bool
	)
	for !r.Empty() {
		field, wt, err := r.ReadTag()
		if err != nil || wt != wire.TypeBytes {
			return nil, false, nil
		}
		switch {
		case field == anyFieldTypeURL && !haveURL:
			ub, err := r.ReadBytes()
			if err != nil || !isTypeURL(ub) {
				return nil, false, nil
			}
			url = string(ub)
			haveURL = true
		case field == anyFieldValue && !haveRaw:
			vb, err := r.ReadBytes()
			if err != nil {
				return nil, false, nil
			}
			raw = vb
			haveRaw = true
		default:
			return nil, false, nil
		}
	}
	if !haveURL || !haveRaw {
		return nil, false, nil
	}
	obj := anyform.NewObject()
	obj.Set("@type", url)
	obj.Set("value", base64.StdEncoding.EncodeToString(raw))
	return obj, true, nil
}

func isTypeURL(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	s := string(b)
	if !strings.Contains(s, "/") {
		return false
	}
	for _, r := range s {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// tryValue matches a message holding a single google.protobuf.Value.
func (d *Decoder) tryValue(data []byte, dc anyform.DepthContext) (any, bool, error) {
	if len(data) == 0 {
		return nil, false, nil
	}
	return d.decodeValueMsg(data, dc)
}

// decodeValueMsg parses one Value message: exactly one of the six one-of
// fields, consuming the whole buffer. Empty buffers decode as null (an
// unset one-of).
func (d *Decoder) decodeValueMsg(b []byte, dc anyform.DepthContext) (any, bool, error) {
	r := wire.NewReader(b)
	if r.Empty() {
		return nil, true, nil
	}
	field, wt, err := r.ReadTag()
	if err != nil {
		return nil, false, nil
	}
	var result any
	switch {
	case field == valueFieldNull && wt == wire.TypeVarint:
		v, err := r.ReadVarint()
		if err != nil || v != 0 {
			return nil, false, nil
		}
		result = nil
	case field == valueFieldNumber && wt == wire.TypeFixed64:
		v, err := r.ReadFixed64()
		if err != nil {
			return nil, false, nil
		}
		result = narrowNumber(wire.Float64FromBits(v))
	case field == valueFieldString && wt == wire.TypeBytes:
		sb, err := r.ReadBytes()
		if err != nil || !utf8.Valid(sb) {
			return nil, false, nil
		}
		result = string(sb)
	case field == valueFieldBool && wt == wire.TypeVarint:
		v, err := r.ReadVarint()
		if err != nil || v > 1 {
			return nil, false, nil
		}
		result = v == 1
	case field == valueFieldStruct && wt == wire.TypeBytes:
		sb, err := r.ReadBytes()
		if err != nil {
			return nil, false, nil
		}
		v, ok, serr := d.tryStruct(sb, dc)
		if serr != nil || !ok {
			return nil, ok, serr
		}
		result = v
	case field == valueFieldList && wt == wire.TypeBytes:
		lb, err := r.ReadBytes()
		if err != nil {
			return nil, false, nil
		}
		v, ok, lerr := d.decodeListMsg(lb, dc)
		if lerr != nil || !ok {
			return nil, ok, lerr
		}
		result = v
	default:
		return nil, false, nil
	}
	if !r.Empty() {
		return nil, false, nil
	}
	return result, true, nil
}

// decodeListMsg parses a ListValue: repeated Value under field 1.
func (d *Decoder) decodeListMsg(b []byte, dc anyform.DepthContext) (any, bool, error) {
	r := wire.NewReader(b)
	out := []any{}
	for !r.Empty() {
		field, wt, err := r.ReadTag()
		if err != nil || field != listFieldValues || wt != wire.TypeBytes {
			return nil, false, nil
		}
		eb, err := r.ReadBytes()
		if err != nil {
			return nil, false, nil
		}
		next := dc.Next()
		if err := next.Check(); err != nil {
			if !dc.IgnoreErrors() {
				return nil, false, err
			}
			out = append(out, next.Placeholder())
			continue
		}
		v, ok, verr := d.decodeValueMsg(eb, next)
		if verr != nil {
			return nil, false, verr
		}
		if !ok {
			return nil, false, nil
		}
		out = append(out, v)
	}
	return out, true, nil
}

// decodeGeneric is the terminal fallback: raw wire fields keyed as
// field_<number>, repeats coalesced into arrays. When iteration fails
// before any field decoded, the raw-data wrapper is returned regardless of
// the error policy.
func (d *Decoder) decodeGeneric(data []byte, dc anyform.DepthContext) (any, error) {
	obj := anyform.NewObject()
	r := wire.NewReader(data)
	decoded := 0
	for !r.Empty() {
		start := r.Pos()
		field, wt, err := r.ReadTag()
		if err != nil {
			return d.genericFailure(obj, decoded, data, err, start)
		}
		v, err := d.readGenericField(r, wt)
		if err != nil {
			return d.genericFailure(obj, decoded, data, err, start)
		}
		coalesce(obj, "field_"+strconv.FormatUint(uint64(field), 10), v)
		decoded++
	}
	return obj, nil
}

func (d *Decoder) genericFailure(obj *anyform.Object, decoded int, data []byte, err error, offset int) (any, error) {
	if decoded == 0 {
		wrapper := anyform.NewObject()
		wrapper.Set("raw_data", base64.StdEncoding.EncodeToString(data))
		wrapper.Set("format", "unknown_protobuf")
		return wrapper, nil
	}
	if d.cfg.IgnoreErrors {
		obj.Set("decode_error", anyform.ErrorPlaceholder(toIssues(err), int64(offset)))
		return obj, nil
	}
	return nil, toIssues(err)
}

func (d *Decoder) readGenericField(r *wire.Reader, wt int) (any, error) {
	switch wt {
	case wire.TypeVarint:
		v, err := r.ReadVarint()
		if err != nil {
			return nil, err
		}
		if v > 1<<63-1 {
			return v, nil
		}
		return int64(v), nil
	case wire.TypeFixed64:
		v, err := r.ReadFixed64()
		if err != nil {
			return nil, err
		}
		return wire.Float64FromBits(v), nil
	case wire.TypeFixed32:
		v, err := r.ReadFixed32()
		if err != nil {
			return nil, err
		}
		return float64(wire.Float32FromBits(v)), nil
	case wire.TypeBytes:
		p, err := r.ReadBytes()
		if err != nil {
			return nil, err
		}
		return bytesAsText(p), nil
	default:
		return nil, r.SkipField(wt)
	}
}

// coalesce stores v under key; a repeated field number promotes the stored
// value to an array and appends.
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

// bytesAsText renders a length-delimited payload as UTF-8 text when every
// rune is non-control or whitespace, else as base64.
func bytesAsText(p []byte) string {
	if utf8.Valid(p) {
		printable := true
		for _, r := range string(p) {
			if unicode.IsControl(r) && !unicode.IsSpace(r) {
				printable = false
				break
			}
		}
		if printable {
			return string(p)
		}
	}
	return base64.StdEncoding.EncodeToString(p)
}

// narrowNumber maps an integral double back to int64 so trees decoded from
// the Value shape print as integers where possible.
func narrowNumber(f float64) any {
	if f == float64(int64(f)) && f >= -(1<<53) && f <= 1<<53 {
		return int64(f)
	}
	return f
}

// toIssues converts a wire-level error into the public Issues model.
func toIssues(err error) anyform.Issues {
	if err == nil {
		return nil
	}
	if iss, ok := anyform.AsIssues(err); ok {
		return iss
	}
	if we, ok := err.(*wire.Error); ok {
		return anyform.NewIssue(we.Kind, we.Message, we.Offset)
	}
	return anyform.NewIssue(anyform.CodeParseError, err.Error(), -1)
}
