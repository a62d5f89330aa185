package wire

import (
	"errors"

	"google.golang.org/protobuf/encoding/protowire"
)

// Type is the 3-bit wire type carried in every field tag.
type Type uint8

const (
	VarintType  Type = 0
	Fixed64Type Type = 1
	BytesType   Type = 2
	Fixed32Type Type = 5
)

// String returns the wire type name.
func (t Type) String() string {
	switch t {
	case VarintType:
		return "varint"
	case Fixed64Type:
		return "fixed64"
	case BytesType:
		return "bytes"
	case Fixed32Type:
		return "fixed32"
	default:
		return "unknown"
	}
}

// Number is a field number.
type Number uint32

// MaxVarintLen is the longest valid varint encoding of a 64-bit value.
const MaxVarintLen = 10

// Codec errors.
var (
	// ErrBufferOverflow is latched by an Encoder when a write exceeds its capacity.
	ErrBufferOverflow = errors.New("wire: buffer overflow")

	// ErrTruncated indicates the input ended before the value did.
	ErrTruncated = errors.New("wire: truncated input")

	// ErrOverflow indicates a varint longer than 10 groups or wider than 64 bits.
	ErrOverflow = errors.New("wire: varint overflow")

	// ErrMalformed indicates an invalid tag, wire type or field layout.
	ErrMalformed = errors.New("wire: malformed field")
)

// SizeVarint returns the encoded size of v.
func SizeVarint(v uint64) int {
	return protowire.SizeVarint(v)
}

// AppendVarint appends the varint encoding of v to b.
func AppendVarint(b []byte, v uint64) []byte {
	return protowire.AppendVarint(b, v)
}

// ConsumeVarint parses a varint from the start of b and returns the value and
// the number of bytes consumed. It returns ErrTruncated when b ends before a
// terminating byte and ErrOverflow when the encoding cannot fit in 64 bits.
func ConsumeVarint(b []byte) (uint64, int, error) {
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, varintError(b)
	}
	return v, n, nil
}

// varintError classifies a varint that protowire refused. A failure with ten
// or more bytes available can only be an overflow.
func varintError(b []byte) error {
	if len(b) >= MaxVarintLen {
		return ErrOverflow
	}
	return ErrTruncated
}

// EncodeZigZag32 maps a signed 32-bit value onto an unsigned one so that small
// magnitudes stay short: (n << 1) ^ (n >> 31).
func EncodeZigZag32(n int32) uint32 {
	return uint32((n << 1) ^ (n >> 31))
}

// DecodeZigZag32 reverses EncodeZigZag32.
func DecodeZigZag32(u uint32) int32 {
	return int32(u>>1) ^ -int32(u&1)
}

// tagValue packs a field number and wire type.
func tagValue(num Number, typ Type) uint64 {
	return uint64(num)<<3 | uint64(typ)
}
