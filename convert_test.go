package anyform_test

import (
	"testing"

	"github.com/yukimura/anyform"
)

type upperCodec struct{}

func (upperCodec) Decode(data []byte, cfg *anyform.Config) (any, error) {
	o := anyform.NewObject()
	o.Set("raw", string(data))
	return o, nil
}

func (upperCodec) Encode(v any, cfg *anyform.Config) ([]byte, error) {
	o := v.(*anyform.Object)
	raw, _ := o.Get("raw")
	return []byte(raw.(string)), nil
}

func TestRegister_Lookup(t *testing.T) {
	const f = anyform.Format("test-upper")
	anyform.Register(f, upperCodec{})
	if _, ok := anyform.Lookup(f); !ok {
		t.Fatalf("codec not registered")
	}
	v, err := anyform.Decode(f, []byte("hi"), nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	out, err := anyform.Encode(f, v, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if string(out) != "hi" {
		t.Fatalf("round trip: %q", out)
	}
}

func TestDecode_UnknownFormat(t *testing.T) {
	_, err := anyform.Decode(anyform.Format("nope"), nil, nil)
	if !anyform.HasCode(err, anyform.CodeUnknownFormat) {
		t.Fatalf("want unknown_format, got %v", err)
	}
}

func TestDecode_AppliesTransforms(t *testing.T) {
	const f = anyform.Format("test-upper2")
	anyform.Register(f, upperCodec{})
	v, err := anyform.Decode(f, []byte("x"), &anyform.Config{SortKeys: true})
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if _, ok := v.(*anyform.Object); !ok {
		t.Fatalf("unexpected value %#v", v)
	}
}
