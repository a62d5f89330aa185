package frame

import (
	"errors"

	"github.com/bft-labs/bleproxy/pkg/wire"
)

const (
	// Preamble is the first byte of every plaintext frame.
	Preamble byte = 0x00

	// MaxMessageSize bounds a complete frame, header included.
	MaxMessageSize = 4096

	// MaxType is the largest message type identifier.
	MaxType = 0xFFFF
)

// Frame errors. ErrIncomplete is the only non-fatal one.
var (
	// ErrIncomplete means more bytes are needed before the header can be parsed.
	ErrIncomplete = errors.New("frame: incomplete header")

	// ErrBadPreamble indicates a frame that does not start with 0x00.
	ErrBadPreamble = errors.New("frame: bad preamble")

	// ErrFrameTooLarge indicates a declared length exceeding MaxMessageSize.
	ErrFrameTooLarge = errors.New("frame: frame exceeds maximum message size")

	// ErrMalformedHeader indicates an unparseable length or type varint.
	ErrMalformedHeader = errors.New("frame: malformed header")

	// ErrBufferTooSmall is returned by Encode when the frame does not fit.
	ErrBufferTooSmall = errors.New("frame: output buffer too small")
)

// Header describes a parsed frame header.
type Header struct {
	// HeaderLen covers the preamble, the length varint and the type varint.
	HeaderLen int
	// BodyLen is the message body length.
	BodyLen int
	// Type is the message type identifier.
	Type uint16
}

// Size returns the total frame size.
func (h Header) Size() int {
	return h.HeaderLen + h.BodyLen
}

// Frame is one decoded message.
type Frame struct {
	Type    uint16
	Payload []byte
}

// DecodeHeader parses the frame header at the start of buf.
// It returns ErrIncomplete when buf holds only a prefix of a valid header.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) == 0 {
		return Header{}, ErrIncomplete
	}
	if buf[0] != Preamble {
		return Header{}, ErrBadPreamble
	}

	declared, n, err := wire.ConsumeVarint(buf[1:])
	if err != nil {
		return Header{}, headerError(err)
	}
	lenEnd := 1 + n
	if declared > MaxMessageSize || uint64(lenEnd)+declared > MaxMessageSize {
		return Header{}, ErrFrameTooLarge
	}

	typ, m, err := wire.ConsumeVarint(buf[lenEnd:])
	if err != nil {
		return Header{}, headerError(err)
	}
	if uint64(m) > declared || typ > MaxType {
		return Header{}, ErrMalformedHeader
	}

	return Header{
		HeaderLen: lenEnd + m,
		BodyLen:   int(declared) - m,
		Type:      uint16(typ),
	}, nil
}

func headerError(err error) error {
	if errors.Is(err, wire.ErrTruncated) {
		return ErrIncomplete
	}
	return ErrMalformedHeader
}

// Size returns the encoded size of a frame carrying a body of n bytes.
func Size(typ uint16, n int) int {
	typeLen := wire.SizeVarint(uint64(typ))
	declared := uint64(typeLen + n)
	return 1 + wire.SizeVarint(declared) + int(declared)
}

// Encode writes a frame into dst, treating len(dst) as its capacity, and
// returns the number of bytes written. It returns 0 and ErrBufferTooSmall
// when the frame does not fit; dst is left untouched in that case.
func Encode(dst []byte, typ uint16, body []byte) (int, error) {
	size := Size(typ, len(body))
	if size > len(dst) {
		return 0, ErrBufferTooSmall
	}
	out := Append(dst[:0], typ, body)
	return len(out), nil
}

// Append appends a frame to b and returns the extended slice.
func Append(b []byte, typ uint16, body []byte) []byte {
	typeLen := wire.SizeVarint(uint64(typ))
	b = append(b, Preamble)
	b = wire.AppendVarint(b, uint64(typeLen+len(body)))
	b = wire.AppendVarint(b, uint64(typ))
	return append(b, body...)
}
