package yaml_test

import (
	"strings"
	"testing"

	"github.com/yukimura/anyform"
	yamlfmt "github.com/yukimura/anyform/format/yaml"
)

func TestDecode_PreservesKeyOrder(t *testing.T) {
	data := []byte("zeta: 1\nalpha:\n  - true\n  - null\n  - 1.5\ns: x\n")
	v, err := yamlfmt.Codec{}.Decode(data, nil)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	obj := v.(*anyform.Object)
	keys := obj.Keys()
	if keys[0] != "zeta" || keys[1] != "alpha" || keys[2] != "s" {
		t.Fatalf("key order: %v", keys)
	}
	z, _ := obj.Get("zeta")
	if z != int64(1) {
		t.Fatalf("integers decode as int64, got %#v", z)
	}
	a, _ := obj.Get("alpha")
	if !anyform.Equal(a, []any{true, nil, 1.5}) {
		t.Fatalf("sequence: %#v", a)
	}
}

func TestRoundTrip(t *testing.T) {
	o := anyform.NewObject()
	o.Set("name", "demo")
	o.Set("count", int64(3))
	o.Set("items", []any{"a", "b"})
	nested := anyform.NewObject()
	nested.Set("enabled", true)
	o.Set("opts", nested)

	out, err := yamlfmt.Codec{}.Encode(o, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, err := yamlfmt.Codec{}.Decode(out, nil)
	if err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if !anyform.Equal(o, back) {
		t.Fatalf("round trip mismatch:\n%s", out)
	}
}

func TestEncode_Indent(t *testing.T) {
	o := anyform.NewObject()
	inner := anyform.NewObject()
	inner.Set("b", int64(1))
	o.Set("a", inner)
	out, err := yamlfmt.Codec{}.Encode(o, &anyform.Config{Indent: "    "})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if !strings.Contains(string(out), "\n    b: 1") {
		t.Fatalf("indent width not applied:\n%s", out)
	}
}

func TestDecode_DepthPolicy(t *testing.T) {
	data := []byte("a:\n  b:\n    c: 1\n")
	_, err := yamlfmt.Codec{}.Decode(data, &anyform.Config{MaxDepth: 2})
	if !anyform.HasCode(err, anyform.CodeDepthExceeded) {
		t.Fatalf("want depth_exceeded, got %v", err)
	}

	v, err := yamlfmt.Codec{}.Decode(data, &anyform.Config{MaxDepth: 2, IgnoreErrors: true})
	if err != nil {
		t.Fatalf("decode with ignore: %v", err)
	}
	lvl1, _ := v.(*anyform.Object).Get("a")
	lvl2, _ := lvl1.(*anyform.Object).Get("b")
	leaf, _ := lvl2.(*anyform.Object).Get("c")
	if _, ok := leaf.(string); !ok {
		t.Fatalf("want sentinel string past the limit, got %#v", leaf)
	}
}

func TestDecode_Malformed(t *testing.T) {
	_, err := yamlfmt.Codec{}.Decode([]byte("a: [1, 2\n"), nil)
	if !anyform.HasCode(err, anyform.CodeParseError) {
		t.Fatalf("want parse_error, got %v", err)
	}
}

func TestDecode_Empty(t *testing.T) {
	v, err := yamlfmt.Codec{}.Decode(nil, nil)
	if err != nil || v != nil {
		t.Fatalf("empty input: %v %v", v, err)
	}
}
