package protobuf

import (
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/yukimura/anyform"
)

// DecodeInput parses text-encoded message bytes: hex tolerant of 0x
// prefixes and space/hyphen separators (case-insensitive digits), or
// base64. Hex wins when the input is a pure hex digit string, since the
// hex alphabet is the more restrictive of the two.
func DecodeInput(s string) ([]byte, error) {
	t := strings.TrimSpace(s)
	if t == "" {
		return []byte{}, nil
	}
	if norm, ok := normalizeHex(t); ok {
		return hex.DecodeString(norm)
	}
	if b, err := base64.StdEncoding.DecodeString(t); err == nil {
		return b, nil
	}
	return nil, anyform.NewIssue(anyform.CodeInvalidEncodedInput,
		"input is neither valid base64 nor hex", -1)
}

// normalizeHex strips 0x prefixes and space/hyphen separators, reporting
// whether what remains is a non-empty even-length hex digit string.
func normalizeHex(s string) (string, bool) {
	var b strings.Builder
	i := 0
	for i < len(s) {
		c := s[i]
		switch {
		case c == ' ' || c == '-':
			i++
		case (c == '0') && i+1 < len(s) && (s[i+1] == 'x' || s[i+1] == 'X'):
			i += 2
		case isHexDigit(c):
			b.WriteByte(c)
			i++
		default:
			return "", false
		}
	}
	out := b.String()
	if out == "" || len(out)%2 != 0 {
		return "", false
	}
	return out, true
}

func isHexDigit(c byte) bool {
	return c >= '0' && c <= '9' || c >= 'a' && c <= 'f' || c >= 'A' && c <= 'F'
}

// Render converts raw message bytes into the configured text rendering.
// Exactly one rendering applies per call; there is no auto-detection.
func Render(b []byte, cfg *anyform.Config) string {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	switch cfg.Rendering {
	case anyform.RenderHex:
		if cfg.Pretty && !cfg.Minified {
			parts := make([]string, len(b))
			for i, by := range b {
				parts[i] = fmt.Sprintf("%02X", by)
			}
			return strings.Join(parts, " ")
		}
		return hex.EncodeToString(b)
	case anyform.RenderBinary:
		parts := make([]string, len(b))
		for i, by := range b {
			parts[i] = fmt.Sprintf("%08b", by)
		}
		if cfg.Pretty && !cfg.Minified {
			return strings.Join(parts, " ")
		}
		return strings.Join(parts, "")
	default:
		return base64.StdEncoding.EncodeToString(b)
	}
}
