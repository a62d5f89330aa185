package capture

import (
	"errors"
	"io"
	"os"
	"strings"

	"github.com/fxamacker/cbor/v2"

	"github.com/bft-labs/bleproxy/internal/domain"
)

// Filter selects captured frames. Zero fields match everything.
type Filter struct {
	// Session matches session IDs by prefix
	Session   string
	Direction *domain.Direction
	Types     []uint16
}

func (f *Filter) matches(fr domain.CapturedFrame) bool {
	if !strings.HasPrefix(fr.Session, f.Session) {
		return false
	}
	if f.Direction != nil && fr.Direction != *f.Direction {
		return false
	}
	if len(f.Types) == 0 {
		return true
	}
	for _, t := range f.Types {
		if fr.Type == t {
			return true
		}
	}
	return false
}

// Reader iterates over a capture file.
type Reader struct {
	file    *os.File
	decoder *cbor.Decoder
	filter  Filter
}

// Open opens a capture file for reading.
func Open(path string, filter Filter) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &Reader{file: f, decoder: newDecoder(f), filter: filter}, nil
}

// Next returns the next matching frame, or io.EOF at the end of the file.
// A record cut short by a crash while writing also ends the file.
func (r *Reader) Next() (domain.CapturedFrame, error) {
	for {
		var rec domain.CaptureRecord
		if err := r.decoder.Decode(&rec); err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				return domain.CapturedFrame{}, io.EOF
			}
			return domain.CapturedFrame{}, err
		}
		fr := rec.ToFrame()
		if r.filter.matches(fr) {
			return fr, nil
		}
	}
}

// ReadAll returns every remaining matching frame.
func (r *Reader) ReadAll() ([]domain.CapturedFrame, error) {
	var out []domain.CapturedFrame
	for {
		fr, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, fr)
	}
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}
