package capture

import (
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
)

// FileTap appends captured frames to a file as a CBOR sequence.
// It is safe for concurrent use.
type FileTap struct {
	mu      sync.Mutex
	file    *os.File
	encoder *cbor.Encoder
	logger  ports.Logger
	closed  bool
	failed  bool
}

// NewFileTap opens path for appending, creating it with mode 0644.
func NewFileTap(path string, logger ports.Logger) (*FileTap, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileTap{
		file:    f,
		encoder: newEncoder(f),
		logger:  logger,
	}, nil
}

// Capture writes f. Write errors are logged once and never reach the session.
func (t *FileTap) Capture(f domain.CapturedFrame) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if err := t.encoder.Encode(f.ToRecord()); err != nil && !t.failed {
		t.failed = true
		t.logger.Warn("frame capture failed", ports.String("path", t.file.Name()), ports.Err(err))
	}
}

// Close closes the file. Later Capture calls are ignored.
func (t *FileTap) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.file.Close()
}

var _ ports.FrameTap = (*FileTap)(nil)
