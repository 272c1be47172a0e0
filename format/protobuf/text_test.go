package protobuf_test

import (
	"bytes"
	"testing"

	"github.com/yukimura/anyform"
	"github.com/yukimura/anyform/format/protobuf"
)

func TestDecodeInput_HexTolerance(t *testing.T) {
	cases := map[string][]byte{
		"0x01 02-03":  {0x01, 0x02, 0x03},
		"0A-0b-0C":    {0x0A, 0x0B, 0x0C},
		"0x0a 0x0b":   {0x0A, 0x0B},
		"DE AD BE EF": {0xDE, 0xAD, 0xBE, 0xEF},
	}
	for in, want := range cases {
		got, err := protobuf.DecodeInput(in)
		if err != nil {
			t.Fatalf("DecodeInput(%q): %v", in, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("DecodeInput(%q): got %x, want %x", in, got, want)
		}
	}
}

func TestDecodeInput_Base64(t *testing.T) {
	got, err := protobuf.DecodeInput("aGVsbG8=")
	if err != nil || string(got) != "hello" {
		t.Fatalf("base64: got %q, %v", got, err)
	}
}

func TestDecodeInput_Invalid(t *testing.T) {
	_, err := protobuf.DecodeInput("!!! definitely not encoded !!!")
	if !anyform.HasCode(err, anyform.CodeInvalidEncodedInput) {
		t.Fatalf("want invalid_encoded_input, got %v", err)
	}
}

func TestRender(t *testing.T) {
	b := []byte{0x01, 0xAB}
	cases := []struct {
		cfg  anyform.Config
		want string
	}{
		{anyform.Config{}, "Aas="},
		{anyform.Config{Rendering: anyform.RenderHex}, "01ab"},
		{anyform.Config{Rendering: anyform.RenderHex, Pretty: true}, "01 AB"},
		{anyform.Config{Rendering: anyform.RenderHex, Pretty: true, Minified: true}, "01ab"},
		{anyform.Config{Rendering: anyform.RenderBinary}, "0000000110101011"},
		{anyform.Config{Rendering: anyform.RenderBinary, Pretty: true}, "00000001 10101011"},
	}
	for _, tc := range cases {
		if got := protobuf.Render(b, &tc.cfg); got != tc.want {
			t.Fatalf("Render(%+v): got %q, want %q", tc.cfg, got, tc.want)
		}
	}
}

func TestDecoderText_RoundTripThroughHex(t *testing.T) {
	v := anyform.NewObject()
	v.Set("k", "v")
	text, err := protobuf.NewEncoder(&anyform.Config{Rendering: anyform.RenderHex}).EncodeToText(v)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	got, err := protobuf.NewDecoder(nil).DecodeText(text)
	if err != nil {
		t.Fatalf("decode text: %v", err)
	}
	if !anyform.Equal(v, got) {
		t.Fatalf("hex text round trip: %#v", got)
	}
}
