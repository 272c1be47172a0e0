package anyform

// Package anyform converts data between JSON, XML, YAML, and binary Protobuf
// through a shared format-neutral tree value.
//
// - An ordered tree model: objects preserve key insertion order (Object),
//   arrays are plain []any, scalars are Go scalars plus time.Time.
// - A stable error model via Issues (code, message, byte offset).
// - Explicit depth accounting (DepthContext) threaded through every
//   recursive decode/encode/transform call.
// - Thin adapters for the text formats under format/; the Protobuf wire
//   codec and its streaming framer under format/protobuf are the
//   hand-written core.
//
// Design policy:
// - Keep only public APIs in the root package; put wire primitives under internal/.
// - Place format adapters under format/, and the CLI under cmd/anyform.
// - Format adapters register themselves via Register in their init
//   functions; importing a format package makes it available to
//   Decode/Encode.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	import (
//	    "github.com/yukimura/anyform"
//	    _ "github.com/yukimura/anyform/format/json"
//	    _ "github.com/yukimura/anyform/format/protobuf"
//	)
//
//	v, err := anyform.Decode(anyform.FormatJSON, data, cfg)
//	out, err := anyform.Encode(anyform.FormatProtobuf, v, cfg)
