package app

import (
	"net"
	"sync"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/api"
)

// DefaultMaxSessions is the default number of concurrent client sessions.
const DefaultMaxSessions = 2

// SessionFilter selects sessions for a broadcast.
type SessionFilter func(s *Session) bool

// Subscribed selects sessions subscribed to advertisements.
func Subscribed(s *Session) bool {
	return s.BLESubscribed()
}

// Registry is a fixed set of session slots.
// The slot table lock is never held across a send.
type Registry struct {
	mu     sync.Mutex
	slots  []*Session
	logger ports.Logger
	tap    ports.FrameTap
}

// NewRegistry creates a registry with capacity slots.
func NewRegistry(capacity int, logger ports.Logger, tap ports.FrameTap) *Registry {
	if capacity < 1 {
		capacity = DefaultMaxSessions
	}
	return &Registry{
		slots:  make([]*Session, capacity),
		logger: logger,
		tap:    tap,
	}
}

// Capacity returns the number of slots.
func (r *Registry) Capacity() int {
	return len(r.slots)
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, s := range r.slots {
		if s != nil {
			n++
		}
	}
	return n
}

// Acquire creates a session for conn in the first free slot.
// It returns domain.ErrRegistryFull without touching conn when none is free.
func (r *Registry) Acquire(conn net.Conn) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, s := range r.slots {
		if s == nil {
			s = newSession(i, conn, r.logger, r.tap)
			r.slots[i] = s
			return s, nil
		}
	}
	return nil, domain.ErrRegistryFull
}

// Release closes s and frees its slot. Releasing twice is a no-op.
func (r *Registry) Release(s *Session) {
	r.mu.Lock()
	if s.slot >= 0 && s.slot < len(r.slots) && r.slots[s.slot] == s {
		r.slots[s.slot] = nil
	}
	r.mu.Unlock()
	_ = s.Close()
}

// Sessions returns a snapshot of live sessions.
func (r *Registry) Sessions() []*Session {
	return r.snapshot(nil)
}

func (r *Registry) snapshot(filter SessionFilter) []*Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Session, 0, len(r.slots))
	for _, s := range r.slots {
		if s != nil && (filter == nil || filter(s)) {
			out = append(out, s)
		}
	}
	return out
}

// Broadcast sends one frame to every session matching filter and returns the
// number of sessions that received it. A session whose send fails is closed;
// its connection goroutine then releases the slot.
func (r *Registry) Broadcast(typ api.MessageType, payload []byte, filter SessionFilter) int {
	delivered := 0
	for _, s := range r.snapshot(filter) {
		err := s.SendFrame(typ, payload)
		if err == nil {
			delivered++
			continue
		}
		if isDropError(err) {
			s.Logger().Warn("broadcast frame dropped", ports.String("type", typ.String()), ports.Err(err))
			continue
		}
		s.Logger().Warn("broadcast failed, closing session", ports.Err(err))
		_ = s.Close()
	}
	return delivered
}

// CloseAll closes every live session. Slots are freed by Release.
func (r *Registry) CloseAll() {
	for _, s := range r.snapshot(nil) {
		_ = s.Close()
	}
}
