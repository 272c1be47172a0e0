package protobuf_test

import (
	"encoding/base64"
	"testing"

	"github.com/yukimura/anyform"
	"github.com/yukimura/anyform/format/protobuf"
	"github.com/yukimura/anyform/internal/wire"
)

func mustEncode(t *testing.T, v any, cfg *anyform.Config) []byte {
	t.Helper()
	b, err := protobuf.NewEncoder(cfg).Encode(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return b
}

func TestDecode_StructRoundTrip(t *testing.T) {
	inner := anyform.NewObject()
	inner.Set("ok", true)
	v := anyform.NewObject()
	v.Set("name", "miyuki")
	v.Set("age", int64(29))
	v.Set("tags", []any{"a", "b"})
	v.Set("meta", inner)
	v.Set("none", nil)

	got, err := protobuf.NewDecoder(nil).Decode(mustEncode(t, v, nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !anyform.Equal(v, got) {
		t.Fatalf("round trip mismatch: got %#v", got)
	}
	obj := got.(*anyform.Object)
	want := []string{"name", "age", "tags", "meta", "none"}
	keys := obj.Keys()
	for i, k := range want {
		if keys[i] != k {
			t.Fatalf("key order: want %v, got %v", want, keys)
		}
	}
}

func TestDecode_AnyShape(t *testing.T) {
	v := anyform.NewObject()
	v.Set("@type", "type.googleapis.com/acme.Event")
	v.Set("value", base64.StdEncoding.EncodeToString([]byte("payload")))

	got, err := protobuf.NewDecoder(nil).Decode(mustEncode(t, v, nil))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !anyform.Equal(v, got) {
		t.Fatalf("any round trip mismatch: got %#v", got)
	}
}

func TestDecode_ScalarValues(t *testing.T) {
	for _, v := range []any{"hello", int64(42), 2.5, true, nil, []any{"a", int64(1), nil}} {
		got, err := protobuf.NewDecoder(nil).Decode(mustEncode(t, v, nil))
		if err != nil {
			t.Fatalf("decode %#v: %v", v, err)
		}
		if !anyform.Equal(v, got) {
			t.Fatalf("value round trip: want %#v, got %#v", v, got)
		}
	}
}

func TestDecode_EmptyInput(t *testing.T) {
	got, err := protobuf.NewDecoder(nil).Decode(nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj, ok := got.(*anyform.Object)
	if !ok || obj.Len() != 0 {
		t.Fatalf("want empty object, got %#v", got)
	}
}

func TestDecode_GenericFallback(t *testing.T) {
	var b []byte
	b = wire.AppendTag(b, 1, wire.TypeVarint)
	b = wire.AppendVarint(b, 150)
	b = wire.AppendTag(b, 2, wire.TypeBytes)
	b = wire.AppendBytes(b, []byte("hi"))
	b = wire.AppendTag(b, 1, wire.TypeVarint)
	b = wire.AppendVarint(b, 7)

	got, err := protobuf.NewDecoder(nil).Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj := got.(*anyform.Object)
	f1, _ := obj.Get("field_1")
	if !anyform.Equal(f1, []any{int64(150), int64(7)}) {
		t.Fatalf("repeated field not coalesced: %#v", f1)
	}
	f2, _ := obj.Get("field_2")
	if f2 != "hi" {
		t.Fatalf("field_2: got %#v", f2)
	}
}

func TestDecode_GenericFallback_BinaryPayloadAsBase64(t *testing.T) {
	payload := []byte{0x00, 0x01, 0xFE}
	var b []byte
	b = wire.AppendTag(b, 3, wire.TypeBytes)
	b = wire.AppendBytes(b, payload)

	got, err := protobuf.NewDecoder(nil).Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj := got.(*anyform.Object)
	f3, _ := obj.Get("field_3")
	if f3 != base64.StdEncoding.EncodeToString(payload) {
		t.Fatalf("binary payload: got %#v", f3)
	}
}

func TestDecode_UnreadableInputWrapper(t *testing.T) {
	for _, data := range [][]byte{{0x00}, {0x07}, {0xFF}} {
		got, err := protobuf.NewDecoder(&anyform.Config{IgnoreErrors: false}).Decode(data)
		if err != nil {
			t.Fatalf("decode %x must not fail: %v", data, err)
		}
		obj := got.(*anyform.Object)
		format, _ := obj.Get("format")
		if format != "unknown_protobuf" {
			t.Fatalf("want unknown_protobuf wrapper, got %#v", got)
		}
		raw, _ := obj.Get("raw_data")
		if raw != base64.StdEncoding.EncodeToString(data) {
			t.Fatalf("raw_data mismatch: %#v", raw)
		}
	}
}

func nested(depth int) *anyform.Object {
	leaf := anyform.NewObject()
	leaf.Set("v", int64(1))
	for i := 1; i < depth; i++ {
		parent := anyform.NewObject()
		parent.Set("n", leaf)
		leaf = parent
	}
	return leaf
}

func TestDecode_DepthExceeded_Strict(t *testing.T) {
	data := mustEncode(t, nested(3), nil)
	_, err := protobuf.NewDecoder(&anyform.Config{MaxDepth: 2}).Decode(data)
	if !anyform.HasCode(err, anyform.CodeDepthExceeded) {
		t.Fatalf("want depth_exceeded, got %v", err)
	}
}

func TestDecode_DepthExceeded_IgnoreErrors(t *testing.T) {
	data := mustEncode(t, nested(3), nil)
	got, err := protobuf.NewDecoder(&anyform.Config{MaxDepth: 2, IgnoreErrors: true}).Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lvl1, _ := got.(*anyform.Object).Get("n")
	lvl2, _ := lvl1.(*anyform.Object).Get("n")
	leaf, _ := lvl2.(*anyform.Object).Get("v")
	s, ok := leaf.(string)
	if !ok || s != "[Max depth exceeded at level 3]" {
		t.Fatalf("want sentinel at level 3, got %#v", leaf)
	}
}

func TestDecode_WithinDepthLimit(t *testing.T) {
	data := mustEncode(t, nested(3), nil)
	got, err := protobuf.NewDecoder(&anyform.Config{MaxDepth: 10}).Decode(data)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !anyform.Equal(nested(3), got) {
		t.Fatalf("mismatch under generous limit: %#v", got)
	}
}
