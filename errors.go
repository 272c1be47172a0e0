package anyform

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Issue codes carried by conversion errors.
const (
	CodeMalformedVarint     = "malformed_varint"
	CodeInvalidField        = "invalid_field"
	CodeUnknownWireType     = "unknown_wire_type"
	CodeTruncatedMessage    = "truncated_message"
	CodeDepthExceeded       = "depth_exceeded"
	CodeInvalidEncodedInput = "invalid_encoded_input"
	CodeUnknownFormat       = "unknown_format"
	CodeInvalidValue        = "invalid_value"
	CodeParseError          = "parse_error"
)

// Issue represents a single conversion error.
type Issue struct {
	Code    string // One of the codes listed above.
	Message string
	Offset  int64 // Byte offset in the input when known (-1 otherwise).
	Cause   error // Optional: underlying error.
}

// Issues is a collection of conversion errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		it := iss[i]
		if it.Offset >= 0 {
			fmt.Fprintf(b, "%s at offset %d: %s", it.Code, it.Offset, it.Message)
		} else {
			fmt.Fprintf(b, "%s: %s", it.Code, it.Message)
		}
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// AppendIssues appends issues to the destination, initializing the slice when
// needed.
func AppendIssues(dst Issues, more ...Issue) Issues {
	if dst == nil {
		dst = Issues{}
	}
	dst = append(dst, more...)
	return dst
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}

// NewIssue builds a single-issue error.
func NewIssue(code, msg string, offset int64) Issues {
	return Issues{Issue{Code: code, Message: msg, Offset: offset}}
}

// HasCode reports whether err carries an Issue with the given code.
func HasCode(err error, code string) bool {
	iss, ok := AsIssues(err)
	if !ok {
		return false
	}
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// ErrorPlaceholder builds the sentinel object substituted for a failed unit
// when Config.IgnoreErrors is set: error message, error kind, byte offset
// when known, and a timestamp.
func ErrorPlaceholder(err error, offset int64) *Object {
	code := CodeParseError
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	if iss, ok := AsIssues(err); ok && len(iss) > 0 {
		code = iss[0].Code
		if iss[0].Offset >= 0 {
			offset = iss[0].Offset
		}
	}
	o := NewObject()
	o.Set("error", msg)
	o.Set("error_type", code)
	if offset >= 0 {
		o.Set("offset", int64(offset))
	}
	o.Set("timestamp", time.Now().UTC().Format(time.RFC3339))
	return o
}
