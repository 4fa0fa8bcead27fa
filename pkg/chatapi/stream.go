package chatapi

import (
	"io"
	"net/http"
	"strings"
	"unicode/utf8"
)

const readBufferSize = 4096

// COMPLETION_TRAILER is sent by the backend as an HTTP trailer once the reply has
// been persisted. Its value is an optional correlation token.
const COMPLETION_TRAILER = "X-Chat-Completed"

// Stream reads a chat reply as decoded text, chunk by chunk.
type Stream struct {
	body    io.ReadCloser
	trailer func() http.Header
	buf     []byte
	dec     TextDecoder
	eof     bool
}

func NewStream(body io.ReadCloser) *Stream {
	return &Stream{
		body: body,
		buf:  make([]byte, readBufferSize),
	}
}

// NewResponseStream reads resp.Body and reports the completion trailer once drained.
func NewResponseStream(resp *http.Response) *Stream {
	s := NewStream(resp.Body)
	s.trailer = func() http.Header { return resp.Trailer }
	return s
}

// Completion reports the completion trailer. It is only known after Next returned io.EOF.
func (s *Stream) Completion() (string, bool) {
	if !s.eof || s.trailer == nil {
		return "", false
	}
	values := s.trailer().Values(COMPLETION_TRAILER)
	if len(values) == 0 {
		return "", false
	}
	return strings.TrimSpace(values[0]), true
}

// Next returns the next non-empty piece of text, or io.EOF once the body is drained.
// A read error other than EOF is returned as is.
func (s *Stream) Next() (string, error) {
	for !s.eof {
		n, err := s.body.Read(s.buf)
		if n > 0 {
			if text := s.dec.Decode(s.buf[:n]); text != "" {
				if err == io.EOF {
					s.eof = true
					text += s.dec.Flush()
				}
				return text, nil
			}
		}
		if err == io.EOF {
			s.eof = true
			break
		}
		if err != nil {
			return "", err
		}
	}

	if text := s.dec.Flush(); text != "" {
		return text, nil
	}
	return "", io.EOF
}

func (s *Stream) Close() error {
	return s.body.Close()
}

// TextDecoder turns a byte stream into UTF-8 text, holding back a multi-byte
// sequence split across reads until the rest of it arrives.
type TextDecoder struct {
	carry []byte
}

func (d *TextDecoder) Decode(chunk []byte) string {
	data := chunk
	if len(d.carry) > 0 {
		data = append(d.carry, chunk...)
		d.carry = nil
	}

	cut := incompleteSuffix(data)
	if cut > 0 {
		d.carry = append([]byte(nil), data[len(data)-cut:]...)
		data = data[:len(data)-cut]
	}
	return toValidUTF8(data)
}

// Flush emits whatever is still held back; a truncated sequence becomes U+FFFD.
func (d *TextDecoder) Flush() string {
	if len(d.carry) == 0 {
		return ""
	}
	out := toValidUTF8(d.carry)
	d.carry = nil
	return out
}

// incompleteSuffix returns how many trailing bytes form the start of a valid but
// unfinished UTF-8 sequence.
func incompleteSuffix(data []byte) int {
	for i := 1; i <= utf8.UTFMax-1 && i <= len(data); i++ {
		b := data[len(data)-i]
		if b < utf8.RuneSelf {
			return 0
		}
		if utf8.RuneStart(b) {
			if need := seqLen(b); need > i {
				return i
			}
			return 0
		}
	}
	return 0
}

func seqLen(b byte) int {
	switch {
	case b&0xE0 == 0xC0:
		return 2
	case b&0xF0 == 0xE0:
		return 3
	case b&0xF8 == 0xF0:
		return 4
	}
	return 1
}

func toValidUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	out := make([]rune, 0, len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out = append(out, r)
		b = b[size:]
	}
	return string(out)
}
