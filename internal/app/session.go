package app

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/api"
	"github.com/bft-labs/bleproxy/pkg/frame"
	"github.com/bft-labs/bleproxy/pkg/log"
	"github.com/bft-labs/bleproxy/pkg/wire"
)

// SendBufferSize is the per-session outbound frame buffer.
const SendBufferSize = 8192

var _ ports.FrameSender = (*Session)(nil)

// Session is the server-side state of one client connection.
//
// The receive side (ReadFrame) is driven by a single goroutine. The send side
// is shared between direct replies and broadcasts and is serialized by sendMu.
type Session struct {
	id     string
	slot   int
	conn   net.Conn
	remote string
	logger ports.Logger
	tap    ports.FrameTap

	reader *frame.Reader

	authenticated atomic.Bool
	bleSubscribed atomic.Bool

	sendMu  sync.Mutex
	sendBuf [SendBufferSize]byte
	enc     *wire.Encoder

	closeOnce sync.Once
	closed    atomic.Bool
	closeErr  error
}

// newSession wraps conn. A nil tap disables frame capture.
func newSession(slot int, conn net.Conn, logger ports.Logger, tap ports.FrameTap) *Session {
	id := uuid.NewString()
	remote := ""
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Session{
		id:     id,
		slot:   slot,
		conn:   conn,
		remote: remote,
		logger: log.With(logger, log.String("session", id), log.Int("slot", slot), log.String("remote", remote)),
		tap:    tap,
		reader: frame.NewReader(conn),
		enc:    wire.NewEncoderSize(api.MaxMessageSize),
	}
}

// ID returns the connection identifier.
func (s *Session) ID() string { return s.id }

// Slot returns the registry slot index.
func (s *Session) Slot() int { return s.slot }

// RemoteAddr returns the peer address.
func (s *Session) RemoteAddr() string { return s.remote }

// Logger returns a logger carrying the session fields.
func (s *Session) Logger() ports.Logger { return s.logger }

// Authenticated reports whether a ConnectRequest was received.
func (s *Session) Authenticated() bool { return s.authenticated.Load() }

// BLESubscribed reports whether the client subscribed to advertisements.
func (s *Session) BLESubscribed() bool { return s.bleSubscribed.Load() }

// Closed reports whether Close was called.
func (s *Session) Closed() bool { return s.closed.Load() }

func (s *Session) setAuthenticated()  { s.authenticated.Store(true) }
func (s *Session) setBLESubscribed()  { s.bleSubscribed.Store(true) }
func (s *Session) clearSubscription() { s.bleSubscribed.Store(false) }

// ReadFrame blocks until the next complete inbound frame.
func (s *Session) ReadFrame() (frame.Frame, error) {
	f, err := s.reader.ReadFrame()
	if err != nil {
		return frame.Frame{}, err
	}
	s.capture(domain.Inbound, f.Type, f.Payload)
	return f, nil
}

// SendMessage encodes m and writes it as one frame.
func (s *Session) SendMessage(m api.Message) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	if err := api.MarshalTo(s.enc, m); err != nil {
		return err
	}
	return s.writeLocked(m.MessageType(), s.enc.Bytes())
}

// SendFrame writes one frame carrying an encoded payload.
func (s *Session) SendFrame(typ api.MessageType, payload []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return s.writeLocked(typ, payload)
}

func (s *Session) writeLocked(typ api.MessageType, payload []byte) error {
	if s.closed.Load() {
		return domain.ErrSessionClosed
	}
	n, err := frame.Encode(s.sendBuf[:], uint16(typ), payload)
	if err != nil {
		return fmt.Errorf("encode %s frame: %w", typ, err)
	}
	w, err := s.conn.Write(s.sendBuf[:n])
	if err != nil {
		return fmt.Errorf("write %s frame: %w", typ, err)
	}
	if w != n {
		return fmt.Errorf("write %s frame: %d of %d bytes: %w", typ, w, n, domain.ErrPartialWrite)
	}
	s.capture(domain.Outbound, uint16(typ), payload)
	return nil
}

func (s *Session) capture(dir domain.Direction, typ uint16, payload []byte) {
	if s.tap == nil {
		return
	}
	s.tap.Capture(domain.CapturedFrame{
		Time:      time.Now(),
		Session:   s.id,
		Remote:    s.remote,
		Direction: dir,
		Type:      typ,
		Payload:   payload,
	})
}

// Close closes the connection. It is safe to call more than once and from
// any goroutine; a blocked ReadFrame returns after Close.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		s.clearSubscription()
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

// isDropError reports whether a send error only lost the message and left
// the connection usable.
func isDropError(err error) bool {
	return errors.Is(err, frame.ErrBufferTooSmall) || errors.Is(err, wire.ErrBufferOverflow)
}
