package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/bleproxy/internal/domain"
	"github.com/bft-labs/bleproxy/internal/ports"
)

// ShutdownTimeout is the maximum time to wait for the server goroutines.
const ShutdownTimeout = 30 * time.Second

// State represents the lifecycle state of the proxy.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

var stateNames = [...]string{
	StateStopped:  "Stopped",
	StateStarting: "Starting",
	StateRunning:  "Running",
	StateStopping: "Stopping",
	StateCrashed:  "Crashed",
}

// String returns a human-readable representation of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "Unknown"
	}
	return stateNames[s]
}

// transitions lists the states reachable from each state. Starting may go
// straight to Stopping because Stop can race the end of Start.
var transitions = map[State][]State{
	StateStopped:  {StateStarting},
	StateStarting: {StateRunning, StateStopping, StateCrashed},
	StateRunning:  {StateStopping, StateCrashed},
	StateStopping: {StateStopped, StateCrashed},
	StateCrashed:  {StateStarting},
}

func canTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// EventEmitter is called when lifecycle state changes.
type EventEmitter interface {
	OnStateChange(previous, current State, reason string)
}

// Status is a point-in-time view of the lifecycle.
type Status struct {
	State  State
	Since  time.Time
	Reason string
}

// Lifecycle guards the proxy state machine and waits for the goroutines
// started through Go.
type Lifecycle struct {
	mu     sync.RWMutex
	status Status
	wg     sync.WaitGroup

	logger  ports.Logger
	emitter EventEmitter
	now     func() time.Time
}

// NewLifecycle creates a lifecycle in StateStopped. emitter may be nil.
func NewLifecycle(logger ports.Logger, emitter EventEmitter) *Lifecycle {
	l := &Lifecycle{
		logger:  logger,
		emitter: emitter,
		now:     time.Now,
	}
	l.status = Status{State: StateStopped, Since: l.now()}
	return l
}

// State returns the current lifecycle state.
func (l *Lifecycle) State() State {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status.State
}

// Snapshot returns the current state with the time and reason of the last
// transition.
func (l *Lifecycle) Snapshot() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.status
}

// TransitionTo moves to next. Leaving Stopped or Crashed for anything but
// Starting fails with ErrNotRunning; every other rejected move fails with
// ErrAlreadyRunning.
func (l *Lifecycle) TransitionTo(next State, reason string) error {
	l.mu.Lock()
	prev := l.status.State
	if !canTransition(prev, next) {
		l.mu.Unlock()
		sentinel := domain.ErrAlreadyRunning
		if prev == StateStopped || prev == StateCrashed {
			sentinel = domain.ErrNotRunning
		}
		return fmt.Errorf("%w: %s -> %s", sentinel, prev, next)
	}
	l.status = Status{State: next, Since: l.now(), Reason: reason}
	l.mu.Unlock()

	if l.emitter != nil {
		l.emitter.OnStateChange(prev, next, reason)
	}

	l.logger.Info("state transition",
		ports.String("from", prev.String()),
		ports.String("to", next.String()),
		ports.String("reason", reason),
	)
	return nil
}

// CanStart reports whether Start may be called.
func (l *Lifecycle) CanStart() bool {
	s := l.State()
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop may be called.
func (l *Lifecycle) CanStop() bool {
	s := l.State()
	return s == StateRunning || s == StateStarting
}

// Go runs fn in a goroutine that Wait waits for.
func (l *Lifecycle) Go(fn func()) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn()
	}()
}

// Wait blocks until every goroutine started with Go has returned or timeout
// elapses, in which case it returns ErrShutdownTimeout.
func (l *Lifecycle) Wait(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		l.logger.Warn("shutdown timeout, abandoning server goroutines",
			ports.Duration("timeout", timeout),
		)
		return domain.ErrShutdownTimeout
	}
}
