package protobuf

import (
	"unicode"
	"unicode/utf8"

	"github.com/yukimura/anyform"
)

// Codec is the anyform registration for the Protobuf format. Decode
// accepts raw binary or text-encoded (base64/hex) message bytes; Encode
// produces the configured text rendering of the serialized message.
type Codec struct{}

func init() {
	anyform.Register(anyform.FormatProtobuf, Codec{})
}

// Decode decodes one message. Text decoding (base64 or hex, per
// DecodeInput) is attempted only when the whole input is printable text;
// everything else is raw wire bytes. Raw wire data routinely contains
// bytes the base64 decoder would skip as whitespace (a LEN tag for field 1
// is '\n'), so binary input must never reach the text path.
func (Codec) Decode(data []byte, cfg *anyform.Config) (any, error) {
	dec := NewDecoder(cfg)
	if printableText(data) {
		if raw, err := DecodeInput(string(data)); err == nil {
			return dec.Decode(raw)
		}
	}
	return dec.Decode(data)
}

// printableText reports whether data is valid UTF-8 with no control runes
// beyond whitespace.
func printableText(data []byte) bool {
	if !utf8.Valid(data) {
		return false
	}
	for _, r := range string(data) {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return false
		}
	}
	return true
}

// Encode serializes the value and renders the bytes as text per
// Config.Rendering.
func (Codec) Encode(v any, cfg *anyform.Config) ([]byte, error) {
	s, err := NewEncoder(cfg).EncodeToText(v)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}
