package wire

import (
	"encoding/binary"
	"io"

	"google.golang.org/protobuf/encoding/protowire"
)

// Decoder is a read cursor over an encoded field stream.
// Call Next to read a tag, then exactly one typed reader or Skip.
type Decoder struct {
	buf  []byte
	pos  int
	last Type
}

// NewDecoder creates a decoder over b. The decoder never modifies b.
func NewDecoder(b []byte) *Decoder {
	return &Decoder{buf: b}
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int {
	return len(d.buf) - d.pos
}

// Next reads the next field tag. It returns io.EOF when the input is
// exhausted at a field boundary.
func (d *Decoder) Next() (Number, Type, error) {
	if d.pos >= len(d.buf) {
		return 0, 0, io.EOF
	}
	v, n, err := ConsumeVarint(d.buf[d.pos:])
	if err != nil {
		return 0, 0, err
	}
	num, typ := protowire.DecodeTag(v)
	if num < protowire.MinValidNumber || num > protowire.MaxValidNumber {
		return 0, 0, ErrMalformed
	}
	switch t := Type(typ); t {
	case VarintType, Fixed64Type, BytesType, Fixed32Type:
		d.pos += n
		d.last = t
		return Number(num), t, nil
	default:
		return 0, 0, ErrMalformed
	}
}

// expect checks that the last tag carried the wire type a reader consumes.
func (d *Decoder) expect(t Type) error {
	if d.last != t {
		return ErrMalformed
	}
	return nil
}

// Varint reads a bare varint.
func (d *Decoder) Varint() (uint64, error) {
	v, n, err := ConsumeVarint(d.buf[d.pos:])
	if err != nil {
		return 0, err
	}
	d.pos += n
	return v, nil
}

// Uint64 reads a varint field value.
func (d *Decoder) Uint64() (uint64, error) {
	if err := d.expect(VarintType); err != nil {
		return 0, err
	}
	return d.Varint()
}

// Uint32 reads a varint field value truncated to 32 bits.
func (d *Decoder) Uint32() (uint32, error) {
	v, err := d.Uint64()
	return uint32(v), err
}

// Bool reads a varint field value; any non-zero value is true.
func (d *Decoder) Bool() (bool, error) {
	v, err := d.Uint64()
	return v != 0, err
}

// Sint32 reads a zigzag-encoded signed field value.
func (d *Decoder) Sint32() (int32, error) {
	v, err := d.Uint64()
	return DecodeZigZag32(uint32(v)), err
}

// Fixed64 reads 8 little-endian bytes.
func (d *Decoder) Fixed64() (uint64, error) {
	if err := d.expect(Fixed64Type); err != nil {
		return 0, err
	}
	if d.Remaining() < 8 {
		return 0, ErrTruncated
	}
	v := binary.LittleEndian.Uint64(d.buf[d.pos:])
	d.pos += 8
	return v, nil
}

// raw reads a length-delimited value, bound-checking the declared length
// against the remaining input. The returned slice aliases the input.
func (d *Decoder) raw() ([]byte, error) {
	if err := d.expect(BytesType); err != nil {
		return nil, err
	}
	l, n, err := ConsumeVarint(d.buf[d.pos:])
	if err != nil {
		return nil, err
	}
	if l > uint64(d.Remaining()-n) {
		return nil, ErrTruncated
	}
	start := d.pos + n
	end := start + int(l)
	d.pos = end
	return d.buf[start:end], nil
}

// Bytes reads a length-delimited field into a new slice of at most max bytes.
// Longer values are truncated; max <= 0 means no limit.
func (d *Decoder) Bytes(max int) ([]byte, error) {
	b, err := d.raw()
	if err != nil {
		return nil, err
	}
	if max > 0 && len(b) > max {
		b = b[:max]
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// String reads a length-delimited string of at most max bytes.
// Longer values are truncated; max <= 0 means no limit.
func (d *Decoder) String(max int) (string, error) {
	b, err := d.raw()
	if err != nil {
		return "", err
	}
	if max > 0 && len(b) > max {
		b = b[:max]
	}
	return string(b), nil
}

// Message returns a decoder over an embedded length-delimited record.
func (d *Decoder) Message() (*Decoder, error) {
	b, err := d.raw()
	if err != nil {
		return nil, err
	}
	return NewDecoder(b), nil
}

// Skip discards the value of a field with wire type t.
func (d *Decoder) Skip(t Type) error {
	switch t {
	case VarintType:
		_, err := d.Varint()
		return err
	case Fixed64Type, Fixed32Type:
		size := 8
		if t == Fixed32Type {
			size = 4
		}
		if d.Remaining() < size {
			return ErrTruncated
		}
		d.pos += size
		return nil
	case BytesType:
		d.last = BytesType
		_, err := d.raw()
		return err
	default:
		return ErrMalformed
	}
}
