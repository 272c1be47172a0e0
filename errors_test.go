package anyform_test

import (
	"strings"
	"testing"

	"github.com/yukimura/anyform"
)

func TestIssues_ErrorSummary(t *testing.T) {
	iss := anyform.Issues{
		{Code: anyform.CodeMalformedVarint, Message: "a", Offset: 3},
		{Code: anyform.CodeInvalidField, Message: "b", Offset: -1},
		{Code: anyform.CodeTruncatedMessage, Message: "c", Offset: 9},
		{Code: anyform.CodeDepthExceeded, Message: "d", Offset: -1},
	}
	s := iss.Error()
	if !strings.Contains(s, "malformed_varint at offset 3") {
		t.Fatalf("summary missing first issue: %q", s)
	}
	if !strings.Contains(s, "total 4") {
		t.Fatalf("summary missing overflow note: %q", s)
	}
}

func TestAsIssues(t *testing.T) {
	err := anyform.NewIssue(anyform.CodeParseError, "boom", -1)
	iss, ok := anyform.AsIssues(error(err))
	if !ok || len(iss) != 1 || iss[0].Code != anyform.CodeParseError {
		t.Fatalf("AsIssues: %v %v", iss, ok)
	}
	if _, ok := anyform.AsIssues(nil); ok {
		t.Fatalf("nil must not carry issues")
	}
}

func TestErrorPlaceholder(t *testing.T) {
	err := anyform.NewIssue(anyform.CodeTruncatedMessage, "leftover bytes", 12)
	o := anyform.ErrorPlaceholder(err, -1)
	kind, _ := o.Get("error_type")
	if kind != anyform.CodeTruncatedMessage {
		t.Fatalf("error_type: %v", kind)
	}
	off, _ := o.Get("offset")
	if off != int64(12) {
		t.Fatalf("offset: %v", off)
	}
	if _, ok := o.Get("timestamp"); !ok {
		t.Fatalf("timestamp missing")
	}
	msg, _ := o.Get("error")
	if !strings.Contains(msg.(string), "leftover bytes") {
		t.Fatalf("error message: %v", msg)
	}
}
