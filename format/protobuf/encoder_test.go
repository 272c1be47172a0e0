package protobuf_test

import (
	"testing"
	"time"

	"github.com/yukimura/anyform"
	"github.com/yukimura/anyform/format/protobuf"
)

func roundTrip(t *testing.T, v any, cfg *anyform.Config) any {
	t.Helper()
	got, err := protobuf.NewDecoder(nil).Decode(mustEncode(t, v, cfg))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	return got
}

func TestEncode_ScientificNumbers(t *testing.T) {
	got := roundTrip(t, int64(1500), &anyform.Config{NumberFormat: anyform.NumberScientific})
	if got != "1.5e+03" {
		t.Fatalf("scientific: got %#v", got)
	}
}

func TestEncode_HexNumbers(t *testing.T) {
	got := roundTrip(t, int64(255), &anyform.Config{NumberFormat: anyform.NumberHexString})
	if got != "0xff" {
		t.Fatalf("hex: got %#v", got)
	}
	got = roundTrip(t, int64(-16), &anyform.Config{NumberFormat: anyform.NumberHexString})
	if got != "-0x10" {
		t.Fatalf("negative hex: got %#v", got)
	}
	// Non-integral floats stay numeric.
	got = roundTrip(t, 2.5, &anyform.Config{NumberFormat: anyform.NumberHexString})
	if !anyform.Equal(got, 2.5) {
		t.Fatalf("fractional hex: got %#v", got)
	}
}

func TestEncode_DateFormats(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	got := roundTrip(t, ts, nil)
	if got != "2024-01-02T03:04:05Z" {
		t.Fatalf("iso date: got %#v", got)
	}
	got = roundTrip(t, ts, &anyform.Config{DateFormat: anyform.DateUnixSeconds})
	if !anyform.Equal(got, ts.Unix()) {
		t.Fatalf("unix date: got %#v", got)
	}
	got = roundTrip(t, ts, &anyform.Config{DateFormat: anyform.DateCustom, DateLayout: "2006/01/02"})
	if got != "2024/01/02" {
		t.Fatalf("custom date: got %#v", got)
	}
}

func TestEncode_DepthExceeded(t *testing.T) {
	_, err := protobuf.NewEncoder(&anyform.Config{MaxDepth: 2}).Encode(nested(3))
	if !anyform.HasCode(err, anyform.CodeDepthExceeded) {
		t.Fatalf("want depth_exceeded, got %v", err)
	}

	b, err := protobuf.NewEncoder(&anyform.Config{MaxDepth: 2, IgnoreErrors: true}).Encode(nested(3))
	if err != nil {
		t.Fatalf("encode with ignore: %v", err)
	}
	got, err := protobuf.NewDecoder(nil).Decode(b)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	lvl1, _ := got.(*anyform.Object).Get("n")
	lvl2, _ := lvl1.(*anyform.Object).Get("n")
	leaf, _ := lvl2.(*anyform.Object).Get("v")
	if leaf != "[Max depth exceeded at level 3]" {
		t.Fatalf("want sentinel, got %#v", leaf)
	}
}

func TestEncode_UnsupportedValue(t *testing.T) {
	_, err := protobuf.NewEncoder(nil).Encode(struct{ X int }{1})
	if !anyform.HasCode(err, anyform.CodeInvalidValue) {
		t.Fatalf("want invalid_value, got %v", err)
	}
	b, err := protobuf.NewEncoder(&anyform.Config{IgnoreErrors: true}).Encode(struct{ X int }{1})
	if err != nil || len(b) == 0 {
		t.Fatalf("ignore-errors encode: %v", err)
	}
}

func TestEncode_InvalidAnyPayload(t *testing.T) {
	v := anyform.NewObject()
	v.Set("@type", "type.googleapis.com/acme.Event")
	v.Set("value", "*** not base64 ***")
	_, err := protobuf.NewEncoder(nil).Encode(v)
	if !anyform.HasCode(err, anyform.CodeInvalidEncodedInput) {
		t.Fatalf("want invalid_encoded_input, got %v", err)
	}
}
