package protobuf

import (
	"context"
	"fmt"
	"io"

	"github.com/yukimura/anyform"
	"github.com/yukimura/anyform/internal/wire"
)

// maxFrameLen caps how large a leading varint may claim a length-prefixed
// message to be before the framer treats the prefix as ordinary message
// data instead of a frame header.
const maxFrameLen = 256 << 20

// StreamDecoder pulls complete Protobuf messages out of a chunked byte
// source and decodes each one. It owns a single growable accumulator for
// the whole session and is single-pass: once Next has returned io.EOF (or
// any other error became sticky), a fresh StreamDecoder is required.
//
// Framing prefers an explicit leading varint length. When the leading
// varint cannot serve as a frame header, a heuristic scan walks wire
// fields from offset zero and treats the span up to the last fully valid
// field as one message. The scan has no reliable terminator and can
// misjudge boundaries on ambiguous input; it is best-effort by design.
type StreamDecoder struct {
	ctx   context.Context
	src   io.Reader
	dec   *Decoder
	cfg   *anyform.Config
	buf   []byte // accumulator; len(buf) is the unconsumed region
	off   int64  // stream offset of buf[0]
	chunk []byte
	eof   bool
	err   error // sticky
}

// NewStreamDecoder wraps a byte source. Reads happen lazily, at most one
// chunk per Next call beyond what extraction needs. ctx is checked once
// per chunk read and once per extracted message.
func NewStreamDecoder(ctx context.Context, src io.Reader, cfg *anyform.Config) *StreamDecoder {
	if cfg == nil {
		cfg = &anyform.Config{}
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return &StreamDecoder{
		ctx:   ctx,
		src:   src,
		dec:   NewDecoder(cfg),
		cfg:   cfg,
		chunk: make([]byte, cfg.ChunkSizeOrDefault()),
	}
}

// Next returns the next decoded message, or io.EOF when the source is
// exhausted with nothing left over. Leftover bytes at end of input report
// truncated_message (as a placeholder value when IgnoreErrors is set).
func (s *StreamDecoder) Next() (any, error) {
	if s.err != nil {
		return nil, s.err
	}
	for {
		if err := s.ctx.Err(); err != nil {
			s.err = err
			return nil, err
		}
		msg, consumed, ok := s.extract()
		if ok {
			// msg aliases the accumulator; decode before compact moves
			// the tail over those bytes.
			v, err := s.dec.Decode(msg)
			if err != nil {
				s.err = err
				return nil, err
			}
			s.compact(consumed)
			if err := s.ctx.Err(); err != nil {
				s.err = err
				return nil, err
			}
			return v, nil
		}
		if s.eof {
			if len(s.buf) > 0 {
				n := len(s.buf)
				s.buf = s.buf[:0]
				iss := anyform.NewIssue(anyform.CodeTruncatedMessage,
					fmt.Sprintf("stream ended with %d unconsumed bytes", n), s.off)
				if s.cfg.IgnoreErrors {
					return anyform.ErrorPlaceholder(iss, s.off), nil
				}
				s.err = iss
				return nil, iss
			}
			s.err = io.EOF
			return nil, io.EOF
		}
		if err := s.fill(); err != nil {
			s.err = err
			return nil, err
		}
	}
}

// extract attempts to cut one complete message from the front of the
// accumulator. ok=false means more data is needed (or, at EOF, that
// nothing usable remains).
func (s *StreamDecoder) extract() (msg []byte, consumed int, ok bool) {
	if len(s.buf) == 0 {
		return nil, 0, false
	}
	// Preferred framing: a leading varint length.
	r := wire.NewReader(s.buf)
	if n, err := r.ReadVarint(); err == nil && n <= maxFrameLen {
		prefix := r.Pos()
		total := prefix + int(n)
		if total <= len(s.buf) {
			return s.buf[prefix:total], total, true
		}
		if !s.eof {
			// The declared frame is plausible but incomplete.
			return nil, 0, false
		}
		// At EOF the declared length can never be satisfied; fall
		// through to the heuristic scan.
	} else if err != nil && !s.eof && len(s.buf) < wire.MaxVarintLen {
		// The varint itself may be split across chunks.
		return nil, 0, false
	}
	return s.scanMessage()
}

// scanMessage is the heuristic fallback: walk tag/value pairs from offset
// zero and frame the span up to the last fully read field.
func (s *StreamDecoder) scanMessage() (msg []byte, consumed int, ok bool) {
	r := wire.NewReader(s.buf)
	last := 0
	fields := 0
	for !r.Empty() {
		if _, wt, err := r.ReadTag(); err != nil || r.SkipField(wt) != nil {
			break
		}
		last = r.Pos()
		fields++
	}
	if fields == 0 {
		return nil, 0, false
	}
	if last == len(s.buf) && !s.eof {
		// Every field parsed cleanly up to the buffer end; the final
		// field may still be split mid-payload, so wait for more data.
		return nil, 0, false
	}
	return s.buf[:last], last, true
}

// compact shifts the unconsumed tail to offset zero, keeping the
// accumulator a contiguous suffix of the stream.
func (s *StreamDecoder) compact(consumed int) {
	n := copy(s.buf, s.buf[consumed:])
	s.buf = s.buf[:n]
	s.off += int64(consumed)
}

// fill reads one chunk and appends it, growing the accumulator by at least
// doubling when the appended data would overflow its capacity.
func (s *StreamDecoder) fill() error {
	n, err := s.src.Read(s.chunk)
	if n > 0 {
		need := len(s.buf) + n
		if need > cap(s.buf) {
			grown := cap(s.buf) * 2
			if grown < need {
				grown = need
			}
			next := make([]byte, len(s.buf), grown)
			copy(next, s.buf)
			s.buf = next
		}
		s.buf = append(s.buf, s.chunk[:n]...)
	}
	if err == io.EOF {
		s.eof = true
		return nil
	}
	return err
}
