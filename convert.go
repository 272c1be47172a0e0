package anyform

import (
	"fmt"
	"sort"
	"sync"
)

// Format names a registered conversion format.
type Format string

const (
	FormatJSON     Format = "json"
	FormatXML      Format = "xml"
	FormatYAML     Format = "yaml"
	FormatProtobuf Format = "protobuf"
)

// Codec converts between raw bytes and the generic tree value for one
// format. Implementations live under format/ and register themselves in
// their init functions.
type Codec interface {
	Decode(data []byte, cfg *Config) (any, error)
	Encode(v any, cfg *Config) ([]byte, error)
}

var (
	codecMu sync.RWMutex
	codecs  = map[Format]Codec{}
)

// Register makes a codec available to Decode/Encode under the given format
// name. Later registrations replace earlier ones; nil codecs are ignored.
func Register(f Format, c Codec) {
	if c == nil {
		return
	}
	codecMu.Lock()
	codecs[f] = c
	codecMu.Unlock()
}

// Lookup returns the codec registered for f.
func Lookup(f Format) (Codec, bool) {
	codecMu.RLock()
	c, ok := codecs[f]
	codecMu.RUnlock()
	return c, ok
}

// Formats returns the registered format names, sorted.
func Formats() []Format {
	codecMu.RLock()
	out := make([]Format, 0, len(codecs))
	for f := range codecs {
		out = append(out, f)
	}
	codecMu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Decode parses data in the named format into a generic tree value and
// applies the configured tree transforms.
func Decode(f Format, data []byte, cfg *Config) (any, error) {
	c, ok := Lookup(f)
	if !ok {
		return nil, NewIssue(CodeUnknownFormat, fmt.Sprintf("no codec registered for %q", f), -1)
	}
	v, err := c.Decode(data, cfg)
	if err != nil {
		return nil, err
	}
	return Transform(v, cfg)
}

// Encode serializes a generic tree value in the named format, applying the
// configured tree transforms first.
func Encode(f Format, v any, cfg *Config) ([]byte, error) {
	c, ok := Lookup(f)
	if !ok {
		return nil, NewIssue(CodeUnknownFormat, fmt.Sprintf("no codec registered for %q", f), -1)
	}
	tv, err := Transform(v, cfg)
	if err != nil {
		return nil, err
	}
	return c.Encode(tv, cfg)
}
