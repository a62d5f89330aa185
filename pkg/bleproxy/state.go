package bleproxy

import (
	"time"

	"github.com/bft-labs/bleproxy/internal/app"
)

// State is the lifecycle state of a Proxy.
type State int

const (
	StateStopped State = iota
	StateStarting
	StateRunning
	StateStopping
	StateCrashed
)

// String returns a human-readable representation of the state.
func (s State) String() string {
	switch s {
	case StateStopped:
		return "Stopped"
	case StateStarting:
		return "Starting"
	case StateRunning:
		return "Running"
	case StateStopping:
		return "Stopping"
	case StateCrashed:
		return "Crashed"
	default:
		return "Unknown"
	}
}

// CanStart reports whether Start may be called in this state.
func (s State) CanStart() bool {
	return s == StateStopped || s == StateCrashed
}

// CanStop reports whether Stop may be called in this state.
func (s State) CanStop() bool {
	return s == StateRunning || s == StateStarting
}

// IsRunning reports whether the proxy is serving clients.
func (s State) IsRunning() bool {
	return s == StateRunning
}

// StateInfo is a State with the time and reason it was entered.
type StateInfo struct {
	State  State
	Since  time.Time
	Reason string
}

func convertState(s app.State) State {
	switch s {
	case app.StateStopped:
		return StateStopped
	case app.StateStarting:
		return StateStarting
	case app.StateRunning:
		return StateRunning
	case app.StateStopping:
		return StateStopping
	case app.StateCrashed:
		return StateCrashed
	default:
		return StateStopped
	}
}
