package wire

import "google.golang.org/protobuf/encoding/protowire"

// Encoder is a write cursor over a fixed-capacity buffer.
// The first write that does not fit latches ErrBufferOverflow; later writes
// are ignored so a message can be encoded without per-field error checks.
type Encoder struct {
	buf   []byte
	limit int
	err   error
}

// NewEncoder creates an encoder that writes into buf, using cap(buf) as the
// capacity limit. Existing contents of buf are discarded.
func NewEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf[:0], limit: cap(buf)}
}

// NewEncoderSize creates an encoder with a freshly allocated buffer of size n.
func NewEncoderSize(n int) *Encoder {
	return NewEncoder(make([]byte, 0, n))
}

// Bytes returns the encoded bytes. The slice aliases the encoder's buffer.
func (e *Encoder) Bytes() []byte {
	return e.buf
}

// Len returns the number of bytes written.
func (e *Encoder) Len() int {
	return len(e.buf)
}

// Available returns the remaining capacity.
func (e *Encoder) Available() int {
	return e.limit - len(e.buf)
}

// Err returns ErrBufferOverflow if any write did not fit.
func (e *Encoder) Err() error {
	return e.err
}

// Reset clears the buffer and the latched error.
func (e *Encoder) Reset() {
	e.buf = e.buf[:0]
	e.err = nil
}

// reserve reports whether n more bytes fit, latching the overflow otherwise.
func (e *Encoder) reserve(n int) bool {
	if e.err != nil {
		return false
	}
	if len(e.buf)+n > e.limit {
		e.err = ErrBufferOverflow
		return false
	}
	return true
}

// Varint writes v as a bare varint.
func (e *Encoder) Varint(v uint64) {
	if e.reserve(protowire.SizeVarint(v)) {
		e.buf = protowire.AppendVarint(e.buf, v)
	}
}

// Tag writes a field tag: (num << 3) | typ as a varint.
func (e *Encoder) Tag(num Number, typ Type) {
	e.Varint(tagValue(num, typ))
}

// varintField writes a tag and a varint value as one unit.
func (e *Encoder) varintField(num Number, v uint64) {
	tag := tagValue(num, VarintType)
	if e.reserve(protowire.SizeVarint(tag) + protowire.SizeVarint(v)) {
		e.buf = protowire.AppendVarint(e.buf, tag)
		e.buf = protowire.AppendVarint(e.buf, v)
	}
}

// Uint32 writes a uint32 field.
func (e *Encoder) Uint32(num Number, v uint32) {
	e.varintField(num, uint64(v))
}

// Uint64 writes a uint64 field.
func (e *Encoder) Uint64(num Number, v uint64) {
	e.varintField(num, v)
}

// Bool writes a bool field as varint 0 or 1.
func (e *Encoder) Bool(num Number, v bool) {
	var u uint64
	if v {
		u = 1
	}
	e.varintField(num, u)
}

// Sint32 writes a zigzag-encoded signed field.
func (e *Encoder) Sint32(num Number, v int32) {
	e.varintField(num, uint64(EncodeZigZag32(v)))
}

// Fixed64 writes 8 little-endian bytes under the 64-bit wire type.
func (e *Encoder) Fixed64(num Number, v uint64) {
	tag := tagValue(num, Fixed64Type)
	if e.reserve(protowire.SizeVarint(tag) + protowire.SizeFixed64()) {
		e.buf = protowire.AppendVarint(e.buf, tag)
		e.buf = protowire.AppendFixed64(e.buf, v)
	}
}

// BytesField writes a length-delimited field.
func (e *Encoder) BytesField(num Number, b []byte) {
	tag := tagValue(num, BytesType)
	if e.reserve(protowire.SizeVarint(tag) + protowire.SizeBytes(len(b))) {
		e.buf = protowire.AppendVarint(e.buf, tag)
		e.buf = protowire.AppendBytes(e.buf, b)
	}
}

// String writes a length-delimited string field.
func (e *Encoder) String(num Number, s string) {
	tag := tagValue(num, BytesType)
	if e.reserve(protowire.SizeVarint(tag) + protowire.SizeBytes(len(s))) {
		e.buf = protowire.AppendVarint(e.buf, tag)
		e.buf = protowire.AppendString(e.buf, s)
	}
}

// Message writes an embedded record produced by fn as a length-delimited field.
// fn encodes into a scratch encoder bounded by the remaining capacity.
func (e *Encoder) Message(num Number, fn func(*Encoder)) {
	if e.err != nil {
		return
	}
	sub := NewEncoderSize(e.Available())
	fn(sub)
	if sub.err != nil {
		e.err = sub.err
		return
	}
	e.BytesField(num, sub.buf)
}
