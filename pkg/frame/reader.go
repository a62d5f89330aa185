package frame

import (
	"errors"
	"io"
)

// Reader reassembles frames from a byte stream into a fixed receive buffer.
// Bytes that belong to a following frame are retained across calls.
type Reader struct {
	r   io.Reader
	buf [MaxMessageSize]byte
	n   int
}

// NewReader creates a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Buffered returns the number of bytes held that have not been returned yet.
func (fr *Reader) Buffered() int {
	return fr.n
}

// ReadFrame blocks until one complete frame is available and returns it.
// The returned payload is a copy owned by the caller.
//
// A clean end of stream between frames returns io.EOF; an end of stream in
// the middle of a frame returns io.ErrUnexpectedEOF. Header errors other than
// ErrIncomplete are fatal for the stream.
func (fr *Reader) ReadFrame() (Frame, error) {
	for {
		h, err := DecodeHeader(fr.buf[:fr.n])
		switch {
		case err == nil && fr.n >= h.Size():
			return fr.take(h), nil
		case err != nil && !errors.Is(err, ErrIncomplete):
			return Frame{}, err
		}

		if err := fr.fill(); err != nil {
			return Frame{}, err
		}
	}
}

// maxEmptyReads bounds consecutive (0, nil) reads before giving up.
const maxEmptyReads = 100

// fill reads into the free tail of the buffer until at least one byte arrives.
func (fr *Reader) fill() error {
	for i := 0; i < maxEmptyReads; i++ {
		n, err := fr.r.Read(fr.buf[fr.n:])
		fr.n += n
		if n > 0 {
			return nil
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) && fr.n > 0 {
			return io.ErrUnexpectedEOF
		}
		return err
	}
	return io.ErrNoProgress
}

// take slices out the frame described by h and compacts the buffer.
func (fr *Reader) take(h Header) Frame {
	size := h.Size()
	payload := make([]byte, h.BodyLen)
	copy(payload, fr.buf[h.HeaderLen:size])
	fr.n = copy(fr.buf[:], fr.buf[size:fr.n])
	return Frame{Type: h.Type, Payload: payload}
}
