package app

import (
	"bytes"
	"io"
	"net"
	"sync"
	"time"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/api"
	"github.com/bft-labs/bleproxy/pkg/frame"
)

// mockLogger discards everything.
type mockLogger struct{}

func (mockLogger) Debug(msg string, fields ...ports.Field) {}
func (mockLogger) Info(msg string, fields ...ports.Field)  {}
func (mockLogger) Warn(msg string, fields ...ports.Field)  {}
func (mockLogger) Error(msg string, fields ...ports.Field) {}

// fakeConn is an in-memory net.Conn. Reads come from in; writes are recorded.
type fakeConn struct {
	mu       sync.Mutex
	in       *bytes.Reader
	out      bytes.Buffer
	writeErr error
	short    bool
	closed   bool
	closeCnt int
}

func newFakeConn(in []byte) *fakeConn {
	return &fakeConn{in: bytes.NewReader(in)}
}

func (c *fakeConn) Read(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	return c.in.Read(p)
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return 0, net.ErrClosed
	}
	if c.writeErr != nil {
		return 0, c.writeErr
	}
	if c.short && len(p) > 1 {
		c.out.Write(p[:len(p)-1])
		return len(p) - 1, nil
	}
	return c.out.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.closeCnt++
	return nil
}

func (c *fakeConn) written() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]byte(nil), c.out.Bytes()...)
}

func (c *fakeConn) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

func (c *fakeConn) LocalAddr() net.Addr                { return fakeAddr("local") }
func (c *fakeConn) RemoteAddr() net.Addr               { return fakeAddr("remote") }
func (c *fakeConn) SetDeadline(t time.Time) error      { return nil }
func (c *fakeConn) SetReadDeadline(t time.Time) error  { return nil }
func (c *fakeConn) SetWriteDeadline(t time.Time) error { return nil }

type fakeAddr string

func (a fakeAddr) Network() string { return "fake" }
func (a fakeAddr) String() string  { return string(a) }

// readFrames decodes every frame in b.
func readFrames(b []byte) ([]frame.Frame, error) {
	r := frame.NewReader(bytes.NewReader(b))
	var out []frame.Frame
	for {
		f, err := r.ReadFrame()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, f)
	}
}

// encodeFrame marshals m into a complete frame.
func encodeFrame(m api.Message) []byte {
	payload, err := api.Marshal(m)
	if err != nil {
		panic(err)
	}
	return frame.Append(nil, uint16(m.MessageType()), payload)
}

func testDescriptor() domain.DeviceDescriptor {
	return domain.DeviceDescriptor{
		Name:            "kitchen-proxy",
		MAC:             domain.MAC{0xAA, 0xBB, 0xCC, 0xDD, 0xEE, 0xFF},
		Version:         "2024.6.0",
		CompilationTime: "2024-06-01 10:00:00",
		Model:           "linux",
		Manufacturer:    "bft-labs",
		FriendlyName:    "Kitchen Proxy",
		SuggestedArea:   "Kitchen",
	}
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// recordingBroadcaster captures broadcast payloads.
type recordingBroadcaster struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (r *recordingBroadcaster) Broadcast(typ api.MessageType, payload []byte, filter SessionFilter) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.payloads = append(r.payloads, payload)
	return 1
}

func (r *recordingBroadcaster) batches() []*api.BluetoothLERawAdvertisementsResponse {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*api.BluetoothLERawAdvertisementsResponse, 0, len(r.payloads))
	for _, p := range r.payloads {
		m, err := api.Decode(api.TypeBluetoothLERawAdvertisementsResponse, p)
		if err != nil {
			panic(err)
		}
		out = append(out, m.(*api.BluetoothLERawAdvertisementsResponse))
	}
	return out
}
