package app

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
	"github.com/bft-labs/bleproxy/pkg/api"
)

// ServerConfig contains configuration for the server loop.
type ServerConfig struct {
	MaxSessions   int
	FlushInterval time.Duration
	// ServerVersion is reported in HelloResponse.server_info.
	ServerVersion string
}

// Server accepts client connections and runs one goroutine per session plus
// the advertisement flush timer.
type Server struct {
	listener   net.Listener
	registry   *Registry
	dispatcher *Dispatcher
	queue      *Queue
	logger     ports.Logger

	closing atomic.Bool
	wg      sync.WaitGroup
}

// NewServer creates a server for ln. A nil tap disables frame capture.
func NewServer(
	ln net.Listener,
	descriptors ports.DescriptorSource,
	cfg ServerConfig,
	logger ports.Logger,
	tap ports.FrameTap,
	queueOpts ...QueueOption,
) *Server {
	registry := NewRegistry(cfg.MaxSessions, logger, tap)
	return &Server{
		listener:   ln,
		registry:   registry,
		dispatcher: NewDispatcher(descriptors, cfg.ServerVersion),
		queue:      NewQueue(registry, cfg.FlushInterval, logger, queueOpts...),
		logger:     logger,
	}
}

// Addr returns the listening address.
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Registry returns the session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Queue returns the advertisement queue.
func (s *Server) Queue() *Queue {
	return s.queue
}

// Enqueue hands an advertisement to the batch queue.
func (s *Server) Enqueue(adv domain.Advertisement) {
	s.queue.Enqueue(adv)
}

// Serve runs the accept loop until ctx is cancelled or the listener fails
// permanently. Before returning it closes the listener and every session
// and waits for their goroutines.
func (s *Server) Serve(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		<-ctx.Done()
		s.closing.Store(true)
		_ = s.listener.Close()
	}()

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.queue.Run(ctx)
	}()

	s.logger.Info("listening", ports.String("addr", s.listener.Addr().String()),
		ports.Int("max_sessions", s.registry.Capacity()))

	b := newBackoff(DefaultBackoffInitial, DefaultBackoffMax)
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Warn("accept failed, retrying",
				ports.Err(err),
				ports.Duration("backoff", b.Current()))
			if b.Wait(ctx) != nil {
				break
			}
			continue
		}
		b.Reset()
		s.accept(conn)
	}

	cancel()
	s.registry.CloseAll()
	s.wg.Wait()
	s.logger.Info("server stopped")
	return nil
}

// accept registers conn or rejects it when the registry is full.
func (s *Server) accept(conn net.Conn) {
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}

	sess, err := s.registry.Acquire(conn)
	if err != nil {
		s.logger.Warn("connection rejected",
			ports.String("remote", conn.RemoteAddr().String()),
			ports.Err(err))
		_ = conn.Close()
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.serveSession(sess)
	}()
}

// serveSession runs the receive loop of one session. Transport errors and
// failed replies end the session; decode errors drop the message.
func (s *Server) serveSession(sess *Session) {
	logger := sess.Logger()
	defer s.registry.Release(sess)
	logger.Info("session opened")

	for {
		f, err := sess.ReadFrame()
		if err != nil {
			if errors.Is(err, io.EOF) || sess.Closed() {
				logger.Info("session closed")
			} else {
				logger.Warn("transport error, closing session", ports.Err(err))
			}
			return
		}

		typ := api.MessageType(f.Type)
		msg, err := api.Decode(typ, f.Payload)
		if err != nil {
			if errors.Is(err, api.ErrUnknownMessageType) {
				logger.Debug("ignoring message", ports.Int("type", int(f.Type)))
			} else {
				logger.Warn("decode failed, message dropped",
					ports.String("type", typ.String()),
					ports.Hex("payload", f.Payload),
					ports.Err(err))
			}
			continue
		}
		logger.Debug("received", ports.String("type", typ.String()))

		res := s.dispatcher.Handle(sess, msg)
		if res.Reply != nil {
			if err := sess.SendMessage(res.Reply); err != nil {
				if !isDropError(err) {
					logger.Warn("send failed, closing session", ports.Err(err))
					return
				}
				logger.Warn("reply dropped", ports.String("type", res.Reply.MessageType().String()), ports.Err(err))
			}
		}
		if res.Close {
			logger.Info("client requested disconnect")
			return
		}
	}
}
