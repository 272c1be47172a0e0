// Package wire implements the Protobuf wire-format primitives: LEB128
// varints, tag splitting, and fixed/length-delimited field access over a
// byte cursor. It is self-contained; the codec above it maps wire errors
// into the public error model.
package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Wire types per the Protobuf encoding. Types 3/4 (groups) are deprecated
// and rejected.
const (
	TypeVarint     = 0
	TypeFixed64    = 1
	TypeBytes      = 2
	TypeStartGroup = 3
	TypeEndGroup   = 4
	TypeFixed32    = 5
)

// MaxVarintLen is the longest legal varint encoding of a 64-bit value.
const MaxVarintLen = 10

// MaxFieldNumber is the largest legal Protobuf field number (2^29 - 1).
const MaxFieldNumber = 1<<29 - 1

// Error kinds.
const (
	KindMalformedVarint = "malformed_varint"
	KindInvalidField    = "invalid_field"
	KindUnknownWireType = "unknown_wire_type"
	KindTruncated       = "truncated_message"
)

// Error is a wire-level decode error with the byte offset it occurred at.
type Error struct {
	Kind    string
	Offset  int64
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at offset %d: %s", e.Kind, e.Offset, e.Message)
}

func errAt(kind string, off int, format string, args ...any) *Error {
	return &Error{Kind: kind, Offset: int64(off), Message: fmt.Sprintf(format, args...)}
}

// Reader is a byte cursor over one message buffer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader returns a cursor positioned at the start of b. The Reader never
// mutates b.
func NewReader(b []byte) *Reader { return &Reader{buf: b} }

// Pos returns the current byte offset.
func (r *Reader) Pos() int { return r.pos }

// Remaining returns the number of unread bytes.
func (r *Reader) Remaining() int { return len(r.buf) - r.pos }

// Empty reports whether the cursor is at the end of the buffer.
func (r *Reader) Empty() bool { return r.pos >= len(r.buf) }

// ReadVarint decodes one LEB128 varint, up to 10 bytes.
func (r *Reader) ReadVarint() (uint64, error) {
	start := r.pos
	var v uint64
	for i := 0; i < MaxVarintLen; i++ {
		if r.pos >= len(r.buf) {
			return 0, errAt(KindMalformedVarint, start, "input exhausted mid-varint")
		}
		b := r.buf[r.pos]
		r.pos++
		if i == MaxVarintLen-1 && b > 1 {
			r.pos = start
			return 0, errAt(KindMalformedVarint, start, "varint exceeds 64 bits")
		}
		v |= uint64(b&0x7f) << (7 * i)
		if b&0x80 == 0 {
			return v, nil
		}
	}
	r.pos = start
	return 0, errAt(KindMalformedVarint, start, "continuation bit set after %d bytes", MaxVarintLen)
}

// ReadTag decodes one field tag into its field number and wire type.
func (r *Reader) ReadTag() (uint32, int, error) {
	start := r.pos
	v, err := r.ReadVarint()
	if err != nil {
		return 0, 0, err
	}
	field := v >> 3
	wt := int(v & 0x7)
	if field == 0 {
		r.pos = start
		return 0, 0, errAt(KindInvalidField, start, "field number is zero")
	}
	if field > MaxFieldNumber {
		r.pos = start
		return 0, 0, errAt(KindInvalidField, start, "field number %d out of range", field)
	}
	return uint32(field), wt, nil
}

// ReadFixed32 reads 4 raw little-endian bytes.
func (r *Reader) ReadFixed32() (uint32, error) {
	if r.Remaining() < 4 {
		return 0, errAt(KindTruncated, r.pos, "need 4 bytes, have %d", r.Remaining())
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

// ReadFixed64 reads 8 raw little-endian bytes.
func (r *Reader) ReadFixed64() (uint64, error) {
	if r.Remaining() < 8 {
		return 0, errAt(KindTruncated, r.pos, "need 8 bytes, have %d", r.Remaining())
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

// ReadBytes reads one length-delimited payload: a varint length followed by
// that many bytes. The returned slice aliases the underlying buffer.
func (r *Reader) ReadBytes() ([]byte, error) {
	start := r.pos
	n, err := r.ReadVarint()
	if err != nil {
		return nil, err
	}
	if n > uint64(r.Remaining()) {
		r.pos = start
		return nil, errAt(KindTruncated, start, "declared length %d exceeds %d available bytes", n, len(r.buf)-start)
	}
	p := r.buf[r.pos : r.pos+int(n)]
	r.pos += int(n)
	return p, nil
}

// SkipField advances past one field payload of the given wire type.
func (r *Reader) SkipField(wireType int) error {
	switch wireType {
	case TypeVarint:
		_, err := r.ReadVarint()
		return err
	case TypeFixed64:
		_, err := r.ReadFixed64()
		return err
	case TypeBytes:
		_, err := r.ReadBytes()
		return err
	case TypeFixed32:
		_, err := r.ReadFixed32()
		return err
	default:
		return errAt(KindUnknownWireType, r.pos, "wire type %d unsupported", wireType)
	}
}

// Float32FromBits converts a fixed32 payload to its float value.
func Float32FromBits(v uint32) float64 { return float64(math.Float32frombits(v)) }

// Float64FromBits converts a fixed64 payload to its double value.
func Float64FromBits(v uint64) float64 { return math.Float64frombits(v) }

// AppendVarint appends the LEB128 encoding of v.
func AppendVarint(dst []byte, v uint64) []byte {
	for v >= 0x80 {
		dst = append(dst, byte(v)|0x80)
		v >>= 7
	}
	return append(dst, byte(v))
}

// AppendTag appends the tag varint for a field number and wire type.
func AppendTag(dst []byte, field uint32, wireType int) []byte {
	return AppendVarint(dst, uint64(field)<<3|uint64(wireType)&0x7)
}

// AppendFixed32 appends 4 little-endian bytes.
func AppendFixed32(dst []byte, v uint32) []byte {
	return binary.LittleEndian.AppendUint32(dst, v)
}

// AppendFixed64 appends 8 little-endian bytes.
func AppendFixed64(dst []byte, v uint64) []byte {
	return binary.LittleEndian.AppendUint64(dst, v)
}

// AppendBytes appends one length-delimited payload.
func AppendBytes(dst, payload []byte) []byte {
	dst = AppendVarint(dst, uint64(len(payload)))
	return append(dst, payload...)
}

// AppendString appends one length-delimited string payload.
func AppendString(dst []byte, s string) []byte {
	dst = AppendVarint(dst, uint64(len(s)))
	return append(dst, s...)
}
